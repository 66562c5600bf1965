// =============================================================================
// extract.go - HTML抽出（Extractor）
// =============================================================================
//
// このファイルは取得したHTMLドキュメントから見出し・インサイト・市場シグナルの
// 候補テキストを抽出します。goqueryライブラリを使用します。
//
// 【抽出の3段階】
//   1. 見出し:     構造セレクタチェーン → コンテナ内の見出しタグ →
//                  （ゼロ件なら）文書全体の h1/h2/h3 フォールバック
//   2. インサイト: 文書テキストを文単位に分割し、数字を含みキーワードに
//                  合致する文を採用
//   3. シグナル:   シグナルキーワードごとに、最初に合致した文を1件採用
//
// 【失敗の扱い】
//   候補URL単位の失敗はスキップして次のURLへ。全URL失敗時はRSSフォール
//   バック（FeedURLがある場合）を試し、それも失敗ならerror付きの空結果を
//   返す。ソース単位の失敗が実行全体を止めることはない。
//
// 【デバッグ方法】
//   DEBUG_SCRAPING=1 で抽出処理の詳細ログを出力
//
// =============================================================================
package intel

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// 抽出パラメータ（収集順で切り詰めるためリスト上限は抽出側で持つ)
const (
	maxPerField      = 5   // ScrapeResultの各リスト上限
	maxCandidates    = 10  // セレクタチェーンで見るコンテナ数の上限
	headlineMinChars = 10  // 見出しの最小文字数（これ以下は除外、境界値含まず）
	headlineMaxChars = 200 // 見出しの最大文字数（これ以上は除外、境界値含まず）
	sentenceMinChars = 20  // 文の最小文字数
	sentenceMaxChars = 300 // 文の最大文字数
)

// headlineSelectors は見出し候補コンテナを探す構造セレクタチェーン
//
// 順序に意味がある: 記事らしいコンテナを先に、汎用的なものを後に試す。
var headlineSelectors = []string{
	"article", ".article", ".story", ".post", ".entry",
	".news-item", ".content-item", ".featured-article",
	"[class*='article']", "[class*='story']", "[class*='post']",
	"h1", "h2", "h3",
}

// navigationNoise はナビゲーション由来のテキストを除外するための固定語彙
var navigationNoise = []string{
	"menu", "navigation", "search", "close", "skip", "subscribe", "newsletter",
}

// -----------------------------------------------------------------------------
// HTTP設定
// -----------------------------------------------------------------------------

// ScrapeConfig はスクレイピング時のHTTP設定を保持
type ScrapeConfig struct {
	UserAgent string        // HTTPリクエスト時のUser-Agentヘッダー
	Timeout   time.Duration // HTTPリクエストのタイムアウト時間
	Cooldown  time.Duration // ソース間のクールダウン（リモート負荷対策）
	Client    *http.Client  // 共有HTTPクライアント（コネクションプーリング有効）
}

// DefaultScrapeConfig はデフォルトのスクレイピング設定を返す
func DefaultScrapeConfig() ScrapeConfig {
	timeout := 10 * time.Second
	return ScrapeConfig{
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
		Timeout:   timeout,
		Cooldown:  2 * time.Second,
		Client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// -----------------------------------------------------------------------------
// Extractor
// -----------------------------------------------------------------------------

// Extractor は1ソース分のHTML取得と候補テキスト抽出を行う
type Extractor struct {
	cfg    ScrapeConfig
	logger *Logger
	now    func() time.Time // テストで固定時刻を注入するためのフック
}

// NewExtractor はExtractorを構築する
func NewExtractor(cfg ScrapeConfig, logger *Logger) *Extractor {
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Extractor{cfg: cfg, logger: logger, now: time.Now}
}

// Scrape は候補URLを順に試してソース1件分のScrapeResultを生成する
//
// 何かしらのテキストが取れたURLで打ち切る。全URLが失敗した場合は
// RSSフォールバック（FeedURLがある場合）を試し、それも失敗なら
// errorフィールド付きの空結果を返す。
func (e *Extractor) Scrape(spec SourceSpec) ScrapeResult {
	e.logger.Infof("Scraping %s...", spec.Name)

	result := ScrapeResult{
		Source:    spec.Name,
		Timestamp: e.now().Format(time.RFC3339),
	}

	var lastErr error
	fetched := false
	for _, u := range spec.CandidateURLs {
		doc, err := e.fetchDoc(u)
		if err != nil {
			e.logger.Warnf("Failed to scrape %s: %v", u, err)
			lastErr = err
			continue
		}
		fetched = true
		result.URL = u
		e.extractDocument(doc, spec.Profile, &result)

		if len(result.Headlines) > 0 || len(result.Insights) > 0 || len(result.Signals) > 0 {
			break
		}
	}

	if !fetched && spec.FeedURL != "" {
		if err := e.extractFromFeed(spec, &result); err != nil {
			e.logger.Warnf("RSS fallback failed for %s: %v", spec.Name, err)
		} else {
			fetched = true
			result.URL = spec.FeedURL
		}
	}

	if !fetched {
		if lastErr == nil {
			lastErr = fmt.Errorf("no candidate URLs configured")
		}
		e.logger.Errorf("Error scraping %s: %v", spec.Name, lastErr)
		return ScrapeResult{
			Source:    spec.Name,
			Timestamp: result.Timestamp,
			Error:     lastErr.Error(),
		}
	}

	result.Headlines = capStrings(result.Headlines, maxPerField)
	result.Insights = capStrings(result.Insights, maxPerField)
	result.Signals = capStrings(result.Signals, maxPerField)

	e.logger.Infof("Successfully scraped %s: %d headlines, %d insights, %d signals",
		spec.Name, len(result.Headlines), len(result.Insights), len(result.Signals))
	return result
}

// ScrapeAll は全ソースを順次スクレイピングする
//
// 並列化はしない（ソース単位で逐次、ソース間にクールダウンを挟む）。
// ソース単位の失敗はerror付き結果として含まれ、実行は継続する。
func (e *Extractor) ScrapeAll(specs []SourceSpec) []ScrapeResult {
	e.logger.Infof("Starting competitive intelligence scraping (%d sources)...", len(specs))

	results := make([]ScrapeResult, 0, len(specs))
	for i, spec := range specs {
		results = append(results, e.Scrape(spec))

		// Be respectful to remote servers
		if e.cfg.Cooldown > 0 && i < len(specs)-1 {
			time.Sleep(e.cfg.Cooldown)
		}
	}

	e.logger.Infof("Completed scraping all sources")
	return results
}

// -----------------------------------------------------------------------------
// ドキュメント抽出
// -----------------------------------------------------------------------------

// extractDocument は1つのHTMLドキュメントから候補テキストを抽出してresultに追記する
func (e *Extractor) extractDocument(doc *goquery.Document, profile KeywordProfile, result *ScrapeResult) {
	result.Headlines = appendHeadlines(doc, result.Headlines)

	content := doc.Text()
	result.Insights = appendInsights(content, profile.InsightKeywords, result.Insights)
	result.Signals = appendSignals(content, profile.SignalKeywords, result.Signals)

	if os.Getenv("DEBUG_SCRAPING") != "" {
		fmt.Fprintf(os.Stderr, "[DEBUG] %s: %d headlines, %d insights, %d signals\n",
			result.Source, len(result.Headlines), len(result.Insights), len(result.Signals))
	}
}

// appendHeadlines はセレクタチェーンで見出し候補を収集する
//
// コンテナ候補の中の最初の見出しタグのテキストを採用する。チェーン全体で
// ゼロ件の場合のみ、コンテナ文脈なしで文書全体のh1/h2/h3を走査する。
func appendHeadlines(doc *goquery.Document, headlines []string) []string {
	seen := map[string]bool{}
	for _, h := range headlines {
		seen[h] = true
	}

	var candidates []*goquery.Selection
	for _, selector := range headlineSelectors {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			candidates = append(candidates, s)
		})
	}

	count := 0
	for _, item := range candidates {
		if count >= maxCandidates {
			break
		}
		count++

		// コンテナ内にネストされた見出しタグのみを見る（コンテナ自身が
		// 見出しタグの場合は子孫を持たないのでここでは拾われない）
		heading := item.Find("h1, h2, h3, h4, h5").First()
		if heading.Length() == 0 {
			continue
		}
		if text, ok := acceptHeadline(heading.Text()); ok && !seen[text] {
			seen[text] = true
			headlines = append(headlines, text)
		}
	}

	// フォールバック: 文書全体の見出しタグを直接走査
	if len(headlines) == 0 {
		doc.Find("h1, h2, h3").EachWithBreak(func(i int, s *goquery.Selection) bool {
			if i >= maxCandidates {
				return false
			}
			if text, ok := acceptHeadline(s.Text()); ok && !seen[text] {
				seen[text] = true
				headlines = append(headlines, text)
			}
			return true
		})
	}

	return headlines
}

// acceptHeadline は見出しテキストを正規化し、採用可否を判定する
//
// 長さが(10, 200)文字の範囲内で、ナビゲーション語彙を含まないものを採用。
func acceptHeadline(raw string) (string, bool) {
	text := normalizeWhitespace(raw)
	if len(text) <= headlineMinChars || len(text) >= headlineMaxChars {
		return "", false
	}
	if containsAnyKeyword(text, navigationNoise) {
		return "", false
	}
	return text, true
}

// appendInsights は数値を含む統計的な文をインサイト候補として収集する
//
// 文書テキストをピリオドで文に分割し、数字を1文字以上含み、長さが
// (20, 300)文字で、ドメインキーワードに合致するものを採用する。
func appendInsights(content string, keywords []string, insights []string) []string {
	seen := map[string]bool{}
	for _, s := range insights {
		seen[s] = true
	}

	for _, sentence := range strings.Split(content, ".") {
		sentence = strings.TrimSpace(sentence)
		if !hasDigit(sentence) {
			continue
		}
		if len(sentence) <= sentenceMinChars || len(sentence) >= sentenceMaxChars {
			continue
		}
		if !containsAnyKeyword(sentence, keywords) {
			continue
		}
		clean := normalizeWhitespace(sentence)
		if len(clean) > sentenceMinChars && !seen[clean] {
			seen[clean] = true
			insights = append(insights, clean)
		}
	}
	return insights
}

// appendSignals は市場シグナル文を収集する
//
// キーワードの反復順を保ったまま、キーワードごとに最初に合致した文を
// 1件だけ採用する（同じ文が複数キーワードに合致しても1回のみ）。
func appendSignals(content string, keywords []string, signals []string) []string {
	seen := map[string]bool{}
	for _, s := range signals {
		seen[s] = true
	}

	contentLower := strings.ToLower(content)
	sentences := strings.Split(content, ".")

	for _, keyword := range keywords {
		kwLower := strings.ToLower(keyword)
		if !strings.Contains(contentLower, kwLower) {
			continue
		}
		for _, sentence := range sentences {
			sentence = strings.TrimSpace(sentence)
			if !strings.Contains(strings.ToLower(sentence), kwLower) {
				continue
			}
			if len(sentence) <= sentenceMinChars || len(sentence) >= sentenceMaxChars {
				continue
			}
			clean := normalizeWhitespace(sentence)
			if len(clean) > sentenceMinChars && !seen[clean] {
				seen[clean] = true
				signals = append(signals, clean)
			}
			break // このキーワードは最初の合致文のみ
		}
	}
	return signals
}

// -----------------------------------------------------------------------------
// 取得
// -----------------------------------------------------------------------------

// fetchDoc は指定URLからHTMLドキュメントを取得してgoqueryでパース
func (e *Extractor) fetchDoc(u string) (*goquery.Document, error) {
	req, err := http.NewRequest("GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("request creation failed: %w", err)
	}
	// ブロッキング回避のため、ブラウザ風のヘッダーを設定
	req.Header.Set("User-Agent", e.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := e.cfg.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("GET %s: status %s", u, resp.Status)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

// extractFromFeed はRSS/AtomフィードからScrapeResultを組み立てるフォールバック
//
// 見出しはアイテムのタイトル、インサイト・シグナルはタイトルと説明文を
// 連結したテキストからHTML抽出と同じ規則で収集する。
func (e *Extractor) extractFromFeed(spec SourceSpec, result *ScrapeResult) error {
	req, err := http.NewRequest("GET", spec.FeedURL, nil)
	if err != nil {
		return fmt.Errorf("request creation failed: %w", err)
	}
	req.Header.Set("User-Agent", e.cfg.UserAgent)

	resp, err := e.cfg.Client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	fp := gofeed.NewParser()
	feed, err := fp.Parse(resp.Body)
	if err != nil {
		return fmt.Errorf("RSS parse failed: %w", err)
	}

	var body strings.Builder
	for _, item := range feed.Items {
		if text, ok := acceptHeadline(item.Title); ok && len(result.Headlines) < maxPerField {
			result.Headlines = append(result.Headlines, text)
		}
		body.WriteString(item.Title)
		body.WriteString(". ")
		body.WriteString(item.Description)
		body.WriteString(" ")
	}

	content := body.String()
	result.Insights = appendInsights(content, spec.Profile.InsightKeywords, result.Insights)
	result.Signals = appendSignals(content, spec.Profile.SignalKeywords, result.Signals)

	if os.Getenv("DEBUG_SCRAPING") != "" {
		fmt.Fprintf(os.Stderr, "[DEBUG] %s: RSS fallback collected %d headlines\n", spec.Name, len(result.Headlines))
	}
	return nil
}
