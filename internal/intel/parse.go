// =============================================================================
// parse.go - モデル応答パーサー（Model Response Parser）
// =============================================================================
//
// このファイルはモデルの自由テキスト応答から4フィールド
// （date / narrative / signal / risk）を復元します。
//
// 【設計方針】
//   - 外に失敗を漏らさない。どんな入力でも必ず有効なAnalysisRecordを返す
//   - Signal/Riskの復元は (パターン → 値) の順序付きルール表で行い、
//     以下のフォールバック連鎖で評価する:
//       構造化行キャプチャ → 全文キーワード検索 → 全文マーカーパターン
//       （"🟢 positive" 等）→ ハードコードされた既定値
//     各段は前段がフィールドを埋められなかった場合のみ発火する
//   - ナラティブのクリーニングはセクション組み立て後に1回だけ適用する
//     純関数（normalizeNarrative）
//
// =============================================================================
package intel

import (
	"regexp"
	"strings"
	"time"
)

// maxNarrativeWords はナラティブの語数上限
const maxNarrativeWords = 200

// reLeakedHeaders はナラティブ本文に漏れ込んだセクション見出しを除去する
var reLeakedHeaders = regexp.MustCompile(`(?i)(date:|key insights:)`)

// -----------------------------------------------------------------------------
// Signal/Risk 復元ルール
// -----------------------------------------------------------------------------
//
// 各ルール表は優先度順。最初に合致したルールの値を採用する。

type signalRule struct {
	pattern string
	value   Signal
}

type riskRule struct {
	pattern string
	value   Risk
}

// signalKeywordRules はキャプチャ済みテキスト・全文に対するキーワード検索ルール
var signalKeywordRules = []signalRule{
	{"positive", SignalPositive},
	{"negative", SignalNegative},
	{"neutral", SignalNeutral},
}

// signalMarkerRules は絵文字マーカーを含む表現向けのルール
var signalMarkerRules = []signalRule{
	{"🟢 positive", SignalPositive},
	{"signal: 🟢", SignalPositive},
	{"🔴 negative", SignalNegative},
	{"signal: 🔴", SignalNegative},
	{"⚪ neutral", SignalNeutral},
	{"signal: ⚪", SignalNeutral},
}

var riskKeywordRules = []riskRule{
	{"high", RiskHigh},
	{"medium", RiskMedium},
	{"low", RiskLow},
}

var riskMarkerRules = []riskRule{
	{"risk: high", RiskHigh},
	{"risk: medium", RiskMedium},
	{"risk: low", RiskLow},
}

// matchSignal はルール表を優先度順に評価する
func matchSignal(text string, rules []signalRule) (Signal, bool) {
	lower := strings.ToLower(text)
	for _, r := range rules {
		if strings.Contains(lower, r.pattern) {
			return r.value, true
		}
	}
	return "", false
}

// matchRisk はルール表を優先度順に評価する
func matchRisk(text string, rules []riskRule) (Risk, bool) {
	lower := strings.ToLower(text)
	for _, r := range rules {
		if strings.Contains(lower, r.pattern) {
			return r.value, true
		}
	}
	return "", false
}

// -----------------------------------------------------------------------------
// Parser
// -----------------------------------------------------------------------------

// Parser はモデル応答をAnalysisRecordに変換する
type Parser struct {
	logger *Logger
	now    func() time.Time
}

// NewParser はParserを構築する
func NewParser(logger *Logger) *Parser {
	return &Parser{logger: logger, now: time.Now}
}

// Parse は自由テキスト応答から構造化レコードを復元する
//
// どんな入力でも必ず有効なレコードを返す。想定外の内部エラーが起きた
// 場合のみ、固定のプレースホルダーレコード（Neutral/Low）に落ちる。
func (p *Parser) Parse(raw, sourceLabel string) (record AnalysisRecord) {
	today := p.now().Format("2006-01-02")

	defer func() {
		if r := recover(); r != nil {
			p.logger.Errorf("Error parsing analysis: %v", r)
			record = AnalysisRecord{
				Date:        today,
				SourceLabel: sourceLabel,
				Narrative:   "Analysis parsing error",
				Signal:      SignalNeutral,
				Risk:        RiskLow,
			}
		}
	}()

	record = AnalysisRecord{Date: today, SourceLabel: sourceLabel}

	// ------------------------------------------------------------------
	// 第1段: 構造化行キャプチャ
	// ------------------------------------------------------------------
	// セクション見出し行が新しいキャプチャ区間を開き、バッファをクリア
	// する。見出しと同じ行に続く内容もその区間に入る。
	var narrativeBuf, signalBuf, riskBuf []string
	var current *[]string
	captured := false

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)

		switch {
		case strings.HasPrefix(lower, "date:"):
			if v := strings.TrimSpace(line[len("date:"):]); v != "" {
				record.Date = v
				captured = true
			}
			current = nil
		case strings.HasPrefix(lower, "key insights:"):
			narrativeBuf = narrativeBuf[:0]
			current = &narrativeBuf
			captured = true
			if v := strings.TrimSpace(line[len("key insights:"):]); v != "" {
				narrativeBuf = append(narrativeBuf, v)
			}
		case strings.HasPrefix(lower, "signal:"):
			signalBuf = signalBuf[:0]
			current = &signalBuf
			captured = true
			if v := strings.TrimSpace(line[len("signal:"):]); v != "" {
				signalBuf = append(signalBuf, v)
			}
		case strings.HasPrefix(lower, "risk:"):
			riskBuf = riskBuf[:0]
			current = &riskBuf
			captured = true
			if v := strings.TrimSpace(line[len("risk:"):]); v != "" {
				riskBuf = append(riskBuf, v)
			}
		default:
			if current != nil {
				*current = append(*current, line)
			}
		}
	}

	// ナラティブはセクション全体を組み立ててから1回だけクリーニング
	record.Narrative = normalizeNarrative(strings.Join(narrativeBuf, " "))

	// ------------------------------------------------------------------
	// 第2〜4段: Signal/Risk のフォールバック連鎖
	// ------------------------------------------------------------------
	record.Signal = resolveSignal(strings.Join(signalBuf, " "), raw)
	record.Risk = resolveRisk(strings.Join(riskBuf, " "), raw)

	// ------------------------------------------------------------------
	// 最終フォールバック: 構造化行が1つも無かった場合
	// ------------------------------------------------------------------
	if !captured {
		record.Narrative = firstSentence(raw)
	}

	p.logger.Infof("Parsed result for %s: date=%s signal=%s risk=%s", sourceLabel, record.Date, record.Signal, record.Risk)
	return record
}

// resolveSignal はフォールバック連鎖でSignalを決定する
//
// キャプチャ区間が非空ならその中のキーワード検索で決まる（合致なしは
// Neutral）。区間が空の場合のみ全文キーワード → 全文マーカー → 既定値
// の順に落ちる。
func resolveSignal(sectionText, fullText string) Signal {
	if strings.TrimSpace(sectionText) != "" {
		if v, ok := matchSignal(sectionText, signalKeywordRules); ok {
			return v
		}
		return SignalNeutral
	}
	if v, ok := matchSignal(fullText, signalKeywordRules); ok {
		return v
	}
	if v, ok := matchSignal(fullText, signalMarkerRules); ok {
		return v
	}
	return SignalNeutral
}

// resolveRisk はフォールバック連鎖でRiskを決定する
func resolveRisk(sectionText, fullText string) Risk {
	if strings.TrimSpace(sectionText) != "" {
		if v, ok := matchRisk(sectionText, riskKeywordRules); ok {
			return v
		}
		return RiskLow
	}
	if v, ok := matchRisk(fullText, riskKeywordRules); ok {
		return v
	}
	if v, ok := matchRisk(fullText, riskMarkerRules); ok {
		return v
	}
	return RiskLow
}

// normalizeNarrative はナラティブのクリーニングを行う純関数
//
// 漏れ込んだセクション見出しを除去し、空白を正規化した上で200語に
// 制限する。切り詰めが文の途中に落ちた場合は末尾の不完全文を捨てて
// ピリオドで終端し、文境界が無ければ"..."を付ける。
// 冪等: 自身の出力に再適用しても結果は変わらない。
func normalizeNarrative(text string) string {
	text = reLeakedHeaders.ReplaceAllString(text, "")
	text = normalizeWhitespace(text)

	words := strings.Fields(text)
	if len(words) <= maxNarrativeWords {
		return text
	}

	truncated := strings.Join(words[:maxNarrativeWords], " ")
	if idx := strings.LastIndex(truncated, "."); idx >= 0 {
		return strings.TrimSpace(truncated[:idx+1])
	}
	return truncated + "..."
}

// firstSentence は全文から最小限のナラティブを導出する
//
// 最初のピリオドまでを採用し、200文字を超える場合は切り詰める。
func firstSentence(raw string) string {
	sentence := raw
	if idx := strings.Index(raw, "."); idx >= 0 {
		sentence = raw[:idx]
	}
	return truncateRunes(normalizeWhitespace(sentence), 200)
}
