// =============================================================================
// types.go - データ構造定義
// =============================================================================
//
// このファイルはInfineon市場モニタリングシステム全体で使用するデータ構造を定義します。
//
// 【このファイルで定義している型】
//   - SourceSpec:     スクレイピング対象ソースの定義
//   - ScrapeResult:   1ソース1回分のスクレイピング結果
//   - DailyBatch:     日次で集約したモデル投入用データ
//   - AnalysisRecord: モデル応答から復元した構造化分析レコード
//   - Signal / Risk:  分析の列挙値（センチメント / リスク度）
//
// 【データの流れ】
//   SourceSpec → ScrapeResult（ソースごと）→ DailyBatch（日付ごと）→ AnalysisRecord
//
// =============================================================================
package intel

// -----------------------------------------------------------------------------
// Signal - 戦略的センチメントの列挙値
// -----------------------------------------------------------------------------
//
// Infineonの戦略的関心に対するイベントの意味を3値で表す。
// モデル応答の自由テキストから必ずこの3値のいずれかに正規化される。
type Signal string

const (
	SignalPositive Signal = "Positive"
	SignalNeutral  Signal = "Neutral"
	SignalNegative Signal = "Negative"
)

// Risk - 影響度・緊急度の列挙値
type Risk string

const (
	RiskLow    Risk = "Low"
	RiskMedium Risk = "Medium"
	RiskHigh   Risk = "High"
)

// -----------------------------------------------------------------------------
// SourceSpec - スクレイピング対象ソースの定義
// -----------------------------------------------------------------------------
//
// レジストリ（sources.go）にロードされた後は不変。プロセス起動から終了まで
// 同じ内容を保持する。
//
// 【フィールドの説明】
//   Key:           ソース識別子（例: "canary", "eia"）
//   Name:          表示名（例: "Canary Media"）
//   URL:           代表URL
//   Description:   ソースの説明
//   Enabled:       収集対象に含めるかどうか
//   CandidateURLs: 収集時に順番に試すURLリスト（先頭から成功するまで試行）
//   FeedURL:       RSSフォールバック用フィードURL（空の場合はフォールバックなし）
//   Profile:       このソース向けのキーワードプロファイル
type SourceSpec struct {
	Key           string         `json:"key"`
	Name          string         `json:"name"`
	URL           string         `json:"url"`
	Description   string         `json:"description"`
	Enabled       bool           `json:"enabled"`
	CandidateURLs []string       `json:"-"`
	FeedURL       string         `json:"-"`
	Profile       KeywordProfile `json:"-"`
}

// KeywordProfile はソースごとの抽出用キーワード語彙を保持する
//
// InsightKeywords は数値を含む文（統計・指標）の関連判定に、
// SignalKeywords は市場シグナル文の抽出に使用される。
// 語彙はソース間で重なり得るが、それぞれのソースの領域に合わせて選定する。
type KeywordProfile struct {
	InsightKeywords []string
	SignalKeywords  []string
}

// -----------------------------------------------------------------------------
// ScrapeResult - 1ソース1回分のスクレイピング結果
// -----------------------------------------------------------------------------
//
// 生成後は変更されず、そのままAggregatorに渡される。Errorが非空の場合、
// このソースは全候補URLで失敗しており、リストは全て空になる。
// JSONキーはスナップショットファイル（data/）の形式と一致させている。
type ScrapeResult struct {
	Source    string   `json:"source"`
	Timestamp string   `json:"timestamp"` // ISO8601 (RFC3339)
	URL       string   `json:"url"`
	Headlines []string `json:"headlines"`
	Insights  []string `json:"key_insights"`
	Signals   []string `json:"market_signals"`
	Error     string   `json:"error,omitempty"`
}

// Failed はこのソースの収集が全候補URLで失敗したかどうかを返す
func (r *ScrapeResult) Failed() bool {
	return r.Error != ""
}

// -----------------------------------------------------------------------------
// DailyBatch - 日次集約バッチ
// -----------------------------------------------------------------------------
//
// 同一日付の全ScrapeResultをクリーニング・関連性フィルタ済みで統合したもの。
// 各リストはモデル投入前に最大5件に制限される（トークン上限対策）。
// Sourcesは寄与したソースの表示名（収集順、重複なし）。
type DailyBatch struct {
	Date      string   `json:"date"` // YYYY-MM-DD
	Sources   []string `json:"sources"`
	Headlines []string `json:"headlines"`
	Insights  []string `json:"insights"`
	Signals   []string `json:"signals"`
}

// EntryCount はバッチに含まれるテキスト項目の総数を返す
//
// モデル呼び出し前の「データ不足」判定（2件未満はスキップ）に使用する。
func (b *DailyBatch) EntryCount() int {
	return len(b.Headlines) + len(b.Insights) + len(b.Signals)
}

// -----------------------------------------------------------------------------
// AnalysisRecord - 構造化分析レコード
// -----------------------------------------------------------------------------
//
// 1つのDailyBatchに対するモデル応答をパースした最終成果物。
// エクスポータに書き出された後は変更されない。
//
// 【不変条件】
//   - Signal は必ず Positive/Neutral/Negative のいずれか
//   - Risk は必ず Low/Medium/High のいずれか
//   - Narrative は200語以下
type AnalysisRecord struct {
	Date        string `json:"date"`
	SourceLabel string `json:"source"`
	Narrative   string `json:"key_insights"`
	Signal      Signal `json:"signal"`
	Risk        Risk   `json:"risk"`
}
