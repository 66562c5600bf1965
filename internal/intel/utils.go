// =============================================================================
// utils.go - ユーティリティ関数とログ出力
// =============================================================================
//
// このファイルはシステム全体で使用する汎用的なヘルパー関数を提供します。
//
// 【このファイルで提供する機能】
//   - 文字列操作: 空白正規化、切り詰め、重複削除
//   - JSON操作: ファイル書き込み
//   - ログ出力: コンポーネントに注入するLogger型
//
// =============================================================================
package intel

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// -----------------------------------------------------------------------------
// Logger - 注入型ログシンク
// -----------------------------------------------------------------------------

// Logger は各コンポーネントに構築時に渡されるログシンク
//
// プロセスグローバルなロガーを持たず、出力先（stderr、ログファイル、
// テストのバッファ）を呼び出し側が決める。出力フォーマットは
// "INFO: ..." / "WARN: ..." / "ERROR: ..." の1行形式。
type Logger struct {
	w io.Writer
}

// NewLogger は指定したWriterに書き込むLoggerを返す
//
// 使用例:
//
//	logger := intel.NewLogger(io.MultiWriter(os.Stderr, logFile))
func NewLogger(w io.Writer) *Logger {
	if w == nil {
		w = io.Discard
	}
	return &Logger{w: w}
}

// Infof は情報メッセージを書き出す
func (l *Logger) Infof(format string, args ...any) {
	fmt.Fprintf(l.w, "INFO: "+format+"\n", args...)
}

// Warnf は警告メッセージを書き出す
func (l *Logger) Warnf(format string, args ...any) {
	fmt.Fprintf(l.w, "WARN: "+format+"\n", args...)
}

// Errorf はエラーメッセージを書き出す
//
// 【注意】ログ出力のみでプログラムは終了しない
func (l *Logger) Errorf(format string, args ...any) {
	fmt.Fprintf(l.w, "ERROR: "+format+"\n", args...)
}

// -----------------------------------------------------------------------------
// 文字列操作関数
// -----------------------------------------------------------------------------

// normalizeWhitespace は文字列内の連続する空白を単一スペースに正規化する
//
// 使用例:
//
//	normalizeWhitespace("  hello   world  ")  // "hello world"
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// uniqStrings は文字列スライスから重複と空文字列を除去する
//
// mapで既出を記録し、元の順序を保ったまま返す。
func uniqStrings(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// truncateRunes は文字列をmaxLen文字に切り詰め、超過時は"..."を付ける
//
// マルチバイト文字も正しく処理する（runeを使用）。
func truncateRunes(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// capStrings はスライスを先頭からn件に制限する（非破壊）
func capStrings(in []string, n int) []string {
	if n < 0 || len(in) <= n {
		return in
	}
	return in[:n]
}

// containsAnyKeyword はテキスト（小文字化済みでなくてよい）が
// キーワードのいずれかを含むかを返す
func containsAnyKeyword(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// hasDigit はテキストが数字を1文字以上含むかを返す
func hasDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------
// JSON操作関数
// -----------------------------------------------------------------------------

// writeJSONFile は任意のデータをJSON形式でファイルに保存する
//
// 出力は2スペースでインデントされた読みやすい形式になる。
// 【ファイル権限】0o644 = 所有者は読み書き可、他は読み取りのみ
func writeJSONFile(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
