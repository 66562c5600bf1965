// =============================================================================
// sources.go - ソースレジストリ（Source Registry）
// =============================================================================
//
// このファイルはスクレイピング対象ソースの静的定義を提供します。
//
// 【実装ソース一覧】（全3ソース）
//   1. Canary Media       - クリーンエネルギーのニュースと分析
//   2. Industry Week      - 製造業・産業分野のインサイト
//   3. EIA Today in Energy - 米国エネルギー情報局の日次エネルギー情報
//
// 各ソースには候補URLリスト（先頭から順に試行）とキーワードプロファイル
// （インサイト抽出・シグナル抽出に使用する語彙）が付く。レジストリは
// プロセス起動時にロードされ、以降は不変。
//
// =============================================================================
package intel

import "fmt"

// defaultSpecs は組み込みのソース定義
//
// キーワード語彙はソースの領域に合わせて選定されており、ソース間で
// 重なっていてもよい（後段のAggregatorが横断的な関連性フィルタを持つ）。
var defaultSpecs = []SourceSpec{
	{
		Key:         "canary",
		Name:        "Canary Media",
		URL:         "https://www.canarymedia.com/",
		Description: "Clean energy news and analysis",
		Enabled:     true,
		CandidateURLs: []string{
			"https://www.canarymedia.com/",
			"https://www.canarymedia.com/articles",
			"https://www.canarymedia.com/news",
			"https://www.canarymedia.com/energy",
		},
		Profile: KeywordProfile{
			InsightKeywords: []string{
				"energy", "electricity", "renewable", "solar", "wind",
				"battery", "emission", "carbon", "clean", "transition",
			},
			SignalKeywords: []string{
				"renewable", "solar", "wind", "battery", "electric vehicle",
				"green energy", "carbon", "emission", "transition", "clean energy",
			},
		},
	},
	{
		Key:         "industryweek",
		Name:        "Industry Week",
		URL:         "https://www.industryweek.com/",
		Description: "Manufacturing and industrial insights",
		Enabled:     true,
		CandidateURLs: []string{
			"https://www.industryweek.com/",
			"https://www.industryweek.com/news",
			"https://www.industryweek.com/technology",
			"https://www.industryweek.com/operations",
		},
		Profile: KeywordProfile{
			InsightKeywords: []string{
				"manufacturing", "production", "automation", "technology",
				"industry", "supply chain", "efficiency", "productivity",
			},
			SignalKeywords: []string{
				"manufacturing", "production", "automation", "technology",
				"industry", "supply chain", "efficiency", "productivity",
				"semiconductor", "automotive",
			},
		},
	},
	{
		Key:         "eia",
		Name:        "EIA Today in Energy",
		URL:         "https://www.eia.gov/todayinenergy/",
		Description: "U.S. Energy Information Administration daily energy insights",
		Enabled:     true,
		CandidateURLs: []string{
			"https://www.eia.gov/todayinenergy/",
			"https://www.eia.gov/todayinenergy/index.php",
			"https://www.eia.gov/outlooks/steo/",
			"https://www.eia.gov/",
		},
		// EIAはRSSフィードを公開しているため、HTML全滅時のフォールバックに使用
		FeedURL: "https://www.eia.gov/rss/todayinenergy.xml",
		Profile: KeywordProfile{
			InsightKeywords: []string{
				"energy", "electricity", "oil", "gas", "coal", "renewable",
				"solar", "wind", "battery", "emission", "carbon",
				"consumption", "production",
			},
			SignalKeywords: []string{
				"energy", "electricity", "oil", "gas", "coal", "renewable",
				"solar", "wind", "battery", "emission", "carbon",
				"consumption", "production", "market", "price",
			},
		},
	},
}

// Registry はロード済みソース定義の読み取り専用ビュー
type Registry struct {
	specs []SourceSpec
}

// NewRegistry は組み込みソース定義からレジストリを構築する
func NewRegistry() *Registry {
	return &Registry{specs: defaultSpecs}
}

// NewRegistryFrom は任意のソース定義からレジストリを構築する（テスト用途含む）
func NewRegistryFrom(specs []SourceSpec) *Registry {
	return &Registry{specs: specs}
}

// Enabled は有効なソースのみを定義順で返す
func (r *Registry) Enabled() []SourceSpec {
	out := make([]SourceSpec, 0, len(r.specs))
	for _, s := range r.specs {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// ByKey は識別子でソースを検索する
func (r *Registry) ByKey(key string) (SourceSpec, error) {
	for _, s := range r.specs {
		if s.Key == key {
			return s, nil
		}
	}
	return SourceSpec{}, fmt.Errorf("unknown source: %s", key)
}

// Filter は指定したキーに一致する有効ソースのみを返す
//
// keysが空の場合は全有効ソースを返す。未知のキーはログに残すため
// 呼び出し側でByKeyの結果を確認すること。
func (r *Registry) Filter(keys []string) []SourceSpec {
	if len(keys) == 0 {
		return r.Enabled()
	}
	want := map[string]bool{}
	for _, k := range keys {
		want[k] = true
	}
	out := make([]SourceSpec, 0, len(keys))
	for _, s := range r.Enabled() {
		if want[s.Key] {
			out = append(out, s)
		}
	}
	return out
}

// List は全ソース（無効含む）を定義順で返す
func (r *Registry) List() []SourceSpec {
	return append([]SourceSpec{}, r.specs...)
}

// LogSources は設定済みソースの一覧をログに出力する
func (r *Registry) LogSources(logger *Logger) {
	logger.Infof("Configured sources:")
	for _, s := range r.specs {
		state := "enabled"
		if !s.Enabled {
			state = "disabled"
		}
		logger.Infof("  %s: %s - %s (%s)", s.Key, s.Name, s.URL, state)
	}
}
