// =============================================================================
// config.go - 実行設定
// =============================================================================
//
// このファイルはCLIフラグの解析と設定管理を行います。
//
// 【設定グループ】
//   - InputConfig:  スクレイピング対象と通信設定
//   - OutputConfig: 出力先設定
//   - ModelConfig:  分析モデル設定
//   - SheetsConfig: Google Sheetsエクスポート設定
//
// =============================================================================
package main

import (
	"flag"
	"os"
	"strings"
)

// =============================================================================
// 設定構造体
// =============================================================================

// AppConfig は実行全体の設定を保持する
type AppConfig struct {
	Input  InputConfig
	Output OutputConfig
	Model  ModelConfig
	Sheets SheetsConfig
}

// InputConfig はスクレイピング対象に関する設定
type InputConfig struct {
	// SourcesRaw はカンマ区切りのソースキー文字列（-sources フラグの値）
	SourcesRaw string

	// CooldownSec はソース間のクールダウン秒数
	CooldownSec int

	// TimeoutSec はHTTPリクエストのタイムアウト秒数
	TimeoutSec int
}

// Sources はSourcesRawをパースしてスライスで返す
// "all" または空文字は全有効ソースを意味する（空スライスを返す）
func (c *InputConfig) Sources() []string {
	var result []string
	for _, s := range strings.Split(c.SourcesRaw, ",") {
		s = strings.TrimSpace(strings.ToLower(s))
		if s == "" {
			continue
		}
		if s == "all" {
			return nil
		}
		result = append(result, s)
	}
	return result
}

// OutputConfig は出力先に関する設定
type OutputConfig struct {
	// Root は成果物ルートディレクトリ（data/ analysis/ exports/ logs/ を配下に作る）
	Root string
}

// ModelConfig は分析モデルに関する設定
type ModelConfig struct {
	// Model はChat Completionsに渡すモデル名
	Model string

	// SkipAnalysis がtrueの場合、スクレイピングと生データ保存のみ行う
	SkipAnalysis bool
}

// SheetsConfig はGoogle Sheetsエクスポートに関する設定
type SheetsConfig struct {
	// Export がfalseの場合、Sheetsエクスポートを行わない
	Export bool

	// CredentialsFile はサービスアカウント資格情報のパス
	CredentialsFile string

	// SpreadsheetID は既存スプレッドシートのID（空なら新規作成）
	SpreadsheetID string
}

// =============================================================================
// フラグ解析
// =============================================================================

// ParseFlags はCLIフラグを解析してAppConfigを返す
func ParseFlags() *AppConfig {
	cfg := &AppConfig{}

	// Input flags
	flag.StringVar(&cfg.Input.SourcesRaw, "sources", "all", "sources to scrape (comma-separated keys, or 'all')")
	flag.IntVar(&cfg.Input.CooldownSec, "cooldown", 2, "seconds to wait between sources")
	flag.IntVar(&cfg.Input.TimeoutSec, "timeout", 10, "HTTP request timeout in seconds")

	// Output flags
	flag.StringVar(&cfg.Output.Root, "out", ".", "output root directory for data/analysis/exports/logs")

	// Model flags
	flag.StringVar(&cfg.Model.Model, "model", envOr("OPENAI_MODEL", "gpt-4o"), "model name for the analysis step")
	flag.BoolVar(&cfg.Model.SkipAnalysis, "skipAnalysis", false, "scrape and save raw data only, skip AI analysis and export")

	// Sheets flags
	flag.BoolVar(&cfg.Sheets.Export, "sheets", true, "export results to Google Sheets when credentials are available")
	flag.StringVar(&cfg.Sheets.CredentialsFile, "credentials", envOr("GOOGLE_CREDENTIALS_FILE", "credentials.json"), "Google service account credentials file")
	flag.StringVar(&cfg.Sheets.SpreadsheetID, "spreadsheetID", spreadsheetIDFromEnv(), "existing Google Spreadsheet ID (empty: create new)")

	flag.Parse()
	return cfg
}

// envOr は環境変数の値を返し、未設定ならフォールバックを返す
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// spreadsheetIDFromEnv は2つの環境変数名の両方をサポートする
func spreadsheetIDFromEnv() string {
	if v := os.Getenv("GOOGLE_SPREADSHEET_ID"); v != "" {
		return v
	}
	return os.Getenv("SPREADSHEET_ID")
}
