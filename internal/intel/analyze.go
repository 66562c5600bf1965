// =============================================================================
// analyze.go - AI分析（Model呼び出しとプロンプト構築）
// =============================================================================
//
// このファイルはDailyBatchからプロンプトを構築し、OpenAI Chat Completions
// APIを呼び出して分析テキストを取得します。応答の構造化はparse.goが担当。
//
// 【エラー分類】
//   - ErrKindAuth:           認証エラー（APIキー不正）
//   - ErrKindInvalidRequest: リクエスト不正（モデル名誤りなど）
//   - ErrKindOther:          その他（ネットワーク、レート制限など）
//
// どのエラーでも実行は止めず、種別ごとの説明的なプレースホルダーを
// 分析テキストとして後段に流す。
//
// 【デバッグ方法】
//   DEBUG_OPENAI=1 でAPI応答の要約ログを出力
//
// =============================================================================
package intel

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// systemPrompt はモデルに与える固定のシステムプロンプト
const systemPrompt = "You are a competitive intelligence analyst specializing in industrial AI, " +
	"semiconductor markets, and smart manufacturing. Focus on Infineon's ambition to maximize " +
	"efficiency, reliability, and sustainability in industrial operations through hybrid AI models " +
	"applied to industrial equipment at scale. Provide comprehensive daily analysis based on multiple sources."

// defaultModel は OPENAI_MODEL 未指定時に使用するモデル
const defaultModel = "gpt-4o"

// maxCompletionTokens は分析応答のトークン上限
const maxCompletionTokens = 1000

// -----------------------------------------------------------------------------
// エラー分類
// -----------------------------------------------------------------------------

// ModelErrorKind はモデル呼び出しエラーの種別
type ModelErrorKind string

const (
	ErrKindAuth           ModelErrorKind = "auth"
	ErrKindInvalidRequest ModelErrorKind = "invalid_request"
	ErrKindOther          ModelErrorKind = "other"
)

// ModelError はモデル呼び出しの失敗を種別付きで表す
type ModelError struct {
	Kind    ModelErrorKind
	Message string
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model call failed (%s): %s", e.Kind, e.Message)
}

// -----------------------------------------------------------------------------
// OpenAI Chat Completions API レスポンス構造体
// -----------------------------------------------------------------------------

type openAIChatResp struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type openAIErrorResp struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// -----------------------------------------------------------------------------
// Analyzer
// -----------------------------------------------------------------------------

// Analyzer は日次バッチをAI分析してAnalysisRecordを生成する
type Analyzer struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
	logger   *Logger
	parser   *Parser
}

// NewAnalyzer はAnalyzerを構築する
//
// APIキーが空の場合はエラーを返す（呼び出し側でOPENAI_API_KEYを解決すること）。
func NewAnalyzer(apiKey, model string, logger *Logger) (*Analyzer, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key not found")
	}
	if model == "" {
		model = defaultModel
	}
	return &Analyzer{
		apiKey:   apiKey,
		model:    model,
		endpoint: "https://api.openai.com/v1/chat/completions",
		client:   &http.Client{Timeout: 60 * time.Second},
		logger:   logger,
		parser:   NewParser(logger),
	}, nil
}

// AnalyzeBatches は各DailyBatchを順次分析する
//
// バッチ単位の失敗はプレースホルダーレコードになり、実行は継続する。
func (a *Analyzer) AnalyzeBatches(batches []DailyBatch) []AnalysisRecord {
	records := make([]AnalysisRecord, 0, len(batches))
	for _, batch := range batches {
		records = append(records, a.AnalyzeBatch(batch))
	}
	return records
}

// AnalyzeBatch は1バッチを分析して構造化レコードを返す
//
// データ不足（2件未満）の場合はモデルを呼ばずに固定文を流す。
// モデル呼び出しの失敗は種別ごとの説明文に置き換える。
func (a *Analyzer) AnalyzeBatch(batch DailyBatch) AnalysisRecord {
	sourceLabel := "Daily Analysis - " + strings.Join(batch.Sources, ", ")

	a.logger.Infof("Analyzing aggregated data for %s:", batch.Date)
	a.logger.Infof("  Sources: %v", batch.Sources)
	a.logger.Infof("  Headlines: %v", batch.Headlines)
	a.logger.Infof("  Insights: %v", batch.Insights)
	a.logger.Infof("  Signals: %v", batch.Signals)

	var analysisText string
	if batch.EntryCount() < 2 {
		a.logger.Warnf("Insufficient data for analysis on %s: only %d data points", batch.Date, batch.EntryCount())
		analysisText = "Unable to generate analysis due to insufficient data. Need at least 2 data points from sources."
	} else {
		text, err := a.Complete(systemPrompt, buildPrompt(batch), a.model, maxCompletionTokens)
		switch {
		case err == nil && text == "":
			a.logger.Warnf("Empty response from OpenAI API for daily analysis %s", batch.Date)
			analysisText = "Unable to generate analysis due to insufficient data."
		case err == nil:
			analysisText = text
		default:
			analysisText = a.describeModelError(batch.Date, err)
		}
	}

	record := a.parser.Parse(analysisText, sourceLabel)
	a.logger.Infof("Completed daily analysis for %s", batch.Date)
	return record
}

// describeModelError はモデル呼び出しエラーを種別ごとの説明文に変換する
func (a *Analyzer) describeModelError(date string, err error) string {
	var me *ModelError
	if errors.As(err, &me) {
		switch me.Kind {
		case ErrKindAuth:
			a.logger.Errorf("Authentication error for daily analysis %s: %s", date, me.Message)
			return fmt.Sprintf("Authentication error: %s. Please check OPENAI_API_KEY.", me.Message)
		case ErrKindInvalidRequest:
			a.logger.Errorf("Invalid model request for daily analysis %s: %s", date, me.Message)
			return fmt.Sprintf("Model configuration error: %s. Please check OPENAI_MODEL setting.", me.Message)
		}
	}
	a.logger.Errorf("Error calling OpenAI API for daily analysis %s: %v", date, err)
	return fmt.Sprintf("Error in AI analysis: %v", err)
}

// Complete はOpenAI Chat Completions APIを1回呼び出す
//
// 戻り値は応答テキスト。失敗時は種別付きの*ModelErrorを返す。
func (a *Analyzer) Complete(system, user, model string, maxTokens int) (string, error) {
	reqBody := map[string]any{
		"model": model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"max_completion_tokens": maxTokens,
	}

	b, _ := json.Marshal(reqBody)
	req, err := http.NewRequest("POST", a.endpoint, bytes.NewReader(b))
	if err != nil {
		return "", &ModelError{Kind: ErrKindOther, Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Content-Type", "application/json")

	a.logger.Infof("Calling OpenAI API with model: %s for daily analysis", model)
	resp, err := a.client.Do(req)
	if err != nil {
		return "", &ModelError{Kind: ErrKindOther, Message: err.Error()}
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if os.Getenv("DEBUG_OPENAI") != "" {
		fmt.Fprintf(os.Stderr, "[DEBUG] OpenAI status %s, %d bytes\n", resp.Status, len(bodyBytes))
	}

	if resp.StatusCode >= 300 {
		return "", classifyAPIError(resp.StatusCode, bodyBytes)
	}

	var r openAIChatResp
	if err := json.Unmarshal(bodyBytes, &r); err != nil {
		return "", &ModelError{Kind: ErrKindOther, Message: fmt.Sprintf("failed to parse openai response: %v", err)}
	}
	if len(r.Choices) == 0 {
		return "", &ModelError{Kind: ErrKindOther, Message: "openai response contained no choices"}
	}
	return r.Choices[0].Message.Content, nil
}

// classifyAPIError はHTTPエラー応答を種別付きModelErrorに変換する
func classifyAPIError(status int, body []byte) *ModelError {
	var er openAIErrorResp
	_ = json.Unmarshal(body, &er)

	msg := er.Error.Message
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", status)
	}

	switch {
	case status == http.StatusUnauthorized || er.Error.Code == "invalid_api_key":
		return &ModelError{Kind: ErrKindAuth, Message: msg}
	case status == http.StatusBadRequest || er.Error.Type == "invalid_request_error":
		return &ModelError{Kind: ErrKindInvalidRequest, Message: msg}
	default:
		return &ModelError{Kind: ErrKindOther, Message: msg}
	}
}

// -----------------------------------------------------------------------------
// プロンプト構築
// -----------------------------------------------------------------------------

// buildPrompt は1バッチ分の分析プロンプトを組み立てる
//
// 日付・ソース一覧・上限済みテキスト3リストに、Signal/Riskの評価基準と
// 要求する出力形式（Date:/Key insights:/Signal:/Risk: 行）を埋め込む。
// モデルがこの形式を守らない場合もparse.goが回収する前提。
func buildPrompt(batch DailyBatch) string {
	return fmt.Sprintf(`Analyze competitive intelligence for Infineon Technologies AG for %s, focusing on their ambition to maximize efficiency, reliability, and sustainability in industrial operations by applying hybrid AI models to industrial equipment at scale.

Sources analyzed: %s
Headlines: %s
Key Insights: %s
Market Signals: %s

Using Infineon's Signal/Risk framework for Competitive and Market Intelligence Analysis:

INFINEON'S STRATEGIC AMBITION: Maximize efficiency, reliability, and sustainability in industrial operations by applying hybrid AI models to industrial equipment at scale.

SIGNAL ANALYSIS (Positive/Neutral/Negative):
- 🟢 Positive: The event represents an opportunity for Infineon's hybrid AI industrial strategy. Examples: new AI regulations favoring edge computing, competitor delays in AI chip production, government funding for industrial AI, market growth in industrial IoT, increased demand for energy-efficient AI processing, breakthroughs in AI-powered predictive maintenance.
- ⚪ Neutral: The event is noted for awareness but has no immediate impact on Infineon's hybrid AI industrial ambitions. Examples: general market news without AI/industrial implications, competitor changes in unrelated sectors.
- 🔴 Negative: The event represents a threat to Infineon's hybrid AI industrial strategy. Examples: rival launching superior AI chips for industrial applications, competitor gaining major industrial AI design wins, regulatory changes that disadvantage Infineon's AI approach, breakthrough competitive AI technologies for industrial equipment.

RISK ANALYSIS (Low/Medium/High):
- Low: The potential impact is minor, easily manageable, or very unlikely to materialize. Examples: small competitor announcements, general market commentary, minor regulatory updates.
- Medium: The event could have a significant impact, but it may not be immediate, or there may be time to formulate a response. Examples: competitor AI product announcements with future timelines, market trends affecting industrial AI demand in 6-12 months.
- High: The event poses a direct, severe, and immediate threat (or opportunity) to Infineon's hybrid AI industrial objectives. Examples: major competitor design wins in industrial AI, immediate regulatory changes affecting AI deployment, supply chain disruptions for AI chips, breakthrough competitive AI technologies.

Focus specifically on implications for Infineon's hybrid AI industrial strategy including:
- AI-powered industrial equipment and automation
- Edge computing and AI processing at scale
- Predictive maintenance and reliability systems
- Energy efficiency in industrial AI applications
- Industrial IoT and smart manufacturing
- Power semiconductors for AI processing (SiC, GaN, IGBT)
- Industrial motor drives and power supplies with AI integration
- Renewable energy systems with AI optimization

Provide analysis in this exact format (do not include the field names in the content):
Date: %s
Key insights: [Comprehensive analysis focusing on implications for Infineon's hybrid AI industrial strategy, competitive landscape, and strategic considerations for maximizing efficiency, reliability, and sustainability in industrial operations. Be thorough and detailed.]
Signal: [Positive/Neutral/Negative with brief reasoning]
Risk: [Low/Medium/High with brief reasoning]`,
		batch.Date,
		strings.Join(batch.Sources, ", "),
		formatList(batch.Headlines),
		formatList(batch.Insights),
		formatList(batch.Signals),
		batch.Date,
	)
}

// formatList はプロンプト埋め込み用にリストを整形する
func formatList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	return "['" + strings.Join(items, "', '") + "']"
}
