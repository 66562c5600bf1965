// =============================================================================
// aggregate.go - 日次集約（Daily Aggregator）
// =============================================================================
//
// このファイルはソースごとのScrapeResultを暦日単位のDailyBatchに統合します。
//
// 【処理の流れ】
//   1. error付きの結果を除外
//   2. ソースごとに見出し/インサイト/シグナルを各2件まで採用
//      （モデル投入前の総量を抑えるため、Extractorの上限5件より小さい）
//   3. 各テキストをクリーニング（空白正規化 + Webアーティファクト除去）
//   4. 関連性フィルタ（長さ窓 + ドメイン横断キーワード語彙）
//   5. 日付ごとに統合し、最終的に各リストを5件に制限
//
// 抽出段階のキーワードフィルタとは意図的に二重になっている。どちらかを
// 外すと出力が変わるため、両段のフィルタを維持する。
//
// =============================================================================
package intel

import (
	"sort"
	"strings"
	"time"
)

// 集約パラメータ
const (
	perSourceCap   = 2   // ソースあたり各フィールドの採用上限
	batchFieldCap  = 5   // DailyBatchの各リスト上限
	relevanceMin   = 30  // クリーニング後テキストの最小文字数（境界値含まず）
	relevanceMax   = 150 // クリーニング後テキストの最大文字数（ここで切り詰め）
)

// webArtifacts はナビゲーションラベル等、本文に紛れ込むWebアーティファクトの固定語彙
//
// 文字列置換による除去（部分一致）。語彙を増やす場合は誤除去に注意。
var webArtifacts = []string{
	"Toggle filter", "Chevron down", "Read documentation", "cross",
	"Back to homepage", "Contact Us", "Useful links", "Latest insights",
	"Latest updates", "Open data", "About us", "Careers",
	"Toggle navigation", "My User", "Create account", "Log in",
	"View form", "View source", "History", "Refresh", "What links here",
	"Browse Properties", "From Open Energy Information",
}

// relevanceKeywords はInfineonのハイブリッドAI産業戦略に関連する横断語彙
//
// 抽出段階のソース別プロファイルより広く、AI・産業・半導体・エネルギー・
// 製造の各領域をカバーする。
var relevanceKeywords = []string{
	"ai", "artificial intelligence", "industrial", "manufacturing", "automation",
	"predictive maintenance", "edge computing", "iot", "smart", "efficiency",
	"reliability", "sustainability", "semiconductor", "chip", "power",
	"motor", "drive", "equipment", "optimization", "machine learning",
	"energy", "electricity", "renewable", "solar", "wind", "battery",
	"emission", "carbon", "clean", "transition", "investment", "market",
	"technology", "research", "production", "factory", "industry",
}

// truncatedRelevanceKeywords は切り詰め後テキストの再判定に使う縮小語彙
//
// 末尾が欠けたテキストには中核語彙のみを要求する。
var truncatedRelevanceKeywords = []string{
	"ai", "artificial intelligence", "industrial", "manufacturing", "automation",
	"predictive maintenance", "edge computing", "iot", "smart", "efficiency",
	"reliability", "sustainability", "semiconductor", "chip", "power",
}

// Aggregator はScrapeResult群をDailyBatchに統合する
type Aggregator struct {
	logger *Logger
}

// NewAggregator はAggregatorを構築する
func NewAggregator(logger *Logger) *Aggregator {
	return &Aggregator{logger: logger}
}

// Aggregate は結果群を暦日単位のバッチに統合する
//
// タイムスタンプの日付でグループ化する（通常は全結果が同一実行の日付を
// 共有するため1バッチ）。タイムスタンプが解析できない結果はrunDateの
// バッチに入る。戻り値は日付昇順。
func (a *Aggregator) Aggregate(results []ScrapeResult, runDate time.Time) []DailyBatch {
	byDate := map[string]*DailyBatch{}

	for _, r := range results {
		if r.Failed() {
			a.logger.Warnf("Skipping failed source %s: %s", r.Source, r.Error)
			continue
		}

		date := runDate.Format("2006-01-02")
		if t, err := time.Parse(time.RFC3339, r.Timestamp); err == nil {
			date = t.Format("2006-01-02")
		}

		batch, ok := byDate[date]
		if !ok {
			batch = &DailyBatch{Date: date}
			byDate[date] = batch
		}

		headlines := cleanAndFilter(capStrings(r.Headlines, perSourceCap))
		insights := cleanAndFilter(capStrings(r.Insights, perSourceCap))
		signals := cleanAndFilter(capStrings(r.Signals, perSourceCap))

		batch.Sources = append(batch.Sources, r.Source)
		batch.Headlines = append(batch.Headlines, headlines...)
		batch.Insights = append(batch.Insights, insights...)
		batch.Signals = append(batch.Signals, signals...)

		a.logger.Infof("Added data from %s to daily aggregation", r.Source)
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	batches := make([]DailyBatch, 0, len(dates))
	for _, d := range dates {
		b := byDate[d]
		b.Sources = uniqStrings(b.Sources)
		b.Headlines = capStrings(uniqStrings(b.Headlines), batchFieldCap)
		b.Insights = capStrings(uniqStrings(b.Insights), batchFieldCap)
		b.Signals = capStrings(uniqStrings(b.Signals), batchFieldCap)
		batches = append(batches, *b)
	}
	return batches
}

// cleanAndFilter はテキスト群をクリーニングし関連性フィルタを適用する（純関数）
//
// 【採用条件】
//   - クリーニング後の長さが(30, 150)文字で、横断語彙に1語以上合致
//   - 150文字以上は150文字+"..."に切り詰め、縮小語彙で再判定して合致すれば採用
//   - 30文字以下は無条件に除外
func cleanAndFilter(texts []string) []string {
	out := make([]string, 0, len(texts))
	for _, text := range texts {
		cleaned := normalizeWhitespace(text)
		for _, artifact := range webArtifacts {
			cleaned = strings.ReplaceAll(cleaned, artifact, "")
		}
		cleaned = normalizeWhitespace(cleaned)

		switch {
		case len(cleaned) > relevanceMin && len(cleaned) < relevanceMax:
			if containsAnyKeyword(cleaned, relevanceKeywords) {
				out = append(out, cleaned)
			}
		case len(cleaned) >= relevanceMax:
			truncated := truncateRunes(cleaned, relevanceMax)
			if containsAnyKeyword(truncated, truncatedRelevanceKeywords) {
				out = append(out, truncated)
			}
		}
	}
	return out
}
