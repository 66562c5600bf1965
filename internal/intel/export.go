// =============================================================================
// export.go - 成果物エクスポート（Artifact Export）
// =============================================================================
//
// 1回の実行で生成する成果物をすべてここで扱います:
//
//   data/intelligence_raw_<ts>.json      生スクレイピング結果のスナップショット
//   exports/intelligence_report_<ts>.csv スプレッドシート形式のレポート
//   analysis/intelligence_analysis_<ts>.txt 人間向けテキストサマリー
//
// CSVのカラムは Date / Key insights / Signal / Risk の4列固定。
// レコードが0件でもヘッダー行だけのファイルを生成します。
//
// =============================================================================
package intel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// reportColumns はレポートのカラム順
var reportColumns = []string{"Date", "Key insights", "Signal", "Risk"}

// outputSubdirs は出力ルート直下に用意するサブディレクトリ
var outputSubdirs = []string{"data", "analysis", "exports", "logs"}

// Exporter は実行成果物をファイルに書き出す
type Exporter struct {
	root   string
	logger *Logger
	now    func() time.Time
}

// NewExporter はExporterを構築する
func NewExporter(root string, logger *Logger) *Exporter {
	return &Exporter{root: root, logger: logger, now: time.Now}
}

// EnsureDirs は出力ルートとサブディレクトリを作成する
func (x *Exporter) EnsureDirs() error {
	for _, sub := range outputSubdirs {
		dir := filepath.Join(x.root, sub)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory %s: %w", dir, err)
		}
	}
	return nil
}

// LogDir はログファイル用ディレクトリのパスを返す
func (x *Exporter) LogDir() string {
	return filepath.Join(x.root, "logs")
}

func (x *Exporter) timestamp() string {
	return x.now().Format("20060102_150405")
}

// -----------------------------------------------------------------------------
// 生データスナップショット
// -----------------------------------------------------------------------------

// WriteRawSnapshot はソースキーをキーとする生結果をJSONで保存する
//
// トップレベルに scraping_timestamp を含める。
func (x *Exporter) WriteRawSnapshot(results map[string]ScrapeResult) (string, error) {
	snapshot := make(map[string]any, len(results)+1)
	for key, result := range results {
		snapshot[key] = result
	}
	snapshot["scraping_timestamp"] = x.now().Format(time.RFC3339)

	path := filepath.Join(x.root, "data", fmt.Sprintf("intelligence_raw_%s.json", x.timestamp()))
	if err := writeJSONFile(path, snapshot); err != nil {
		return "", fmt.Errorf("saving raw intelligence data: %w", err)
	}

	x.logger.Infof("Raw intelligence data saved to %s", path)
	return path, nil
}

// -----------------------------------------------------------------------------
// CSVレポート
// -----------------------------------------------------------------------------

// WriteCSV は分析結果をスプレッドシート形式のCSVに書き出す
//
// レコード0件でもヘッダー行だけのファイルを生成する。書き込み失敗は
// そのまま呼び出し元に伝播する（ローカル出力は実行の主成果物）。
func (x *Exporter) WriteCSV(records []AnalysisRecord) (string, error) {
	path := filepath.Join(x.root, "exports", fmt.Sprintf("intelligence_report_%s.csv", x.timestamp()))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating report file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(reportColumns); err != nil {
		return "", fmt.Errorf("writing report header: %w", err)
	}
	for _, r := range records {
		row := []string{r.Date, r.Narrative, string(r.Signal), string(r.Risk)}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("writing report row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flushing report: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing report file: %w", err)
	}

	x.logger.Infof("Competitive intelligence exported to %s", path)
	return path, nil
}

// -----------------------------------------------------------------------------
// テキストサマリー
// -----------------------------------------------------------------------------

// WriteSummary は人間向けのテキストサマリーを保存する
func (x *Exporter) WriteSummary(records []AnalysisRecord) (string, error) {
	var b strings.Builder
	b.WriteString("COMPETITIVE INTELLIGENCE ANALYSIS\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", x.now().Format("2006-01-02 15:04:05"))

	for _, r := range records {
		fmt.Fprintf(&b, "Date: %s\n", r.Date)
		fmt.Fprintf(&b, "Signal: %s\n", r.Signal)
		fmt.Fprintf(&b, "Risk: %s\n", r.Risk)
		fmt.Fprintf(&b, "Key Insights: %s\n", r.Narrative)
		b.WriteString(strings.Repeat("-", 40) + "\n\n")
	}

	path := filepath.Join(x.root, "analysis", fmt.Sprintf("intelligence_analysis_%s.txt", x.timestamp()))
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("saving analysis summary: %w", err)
	}

	x.logger.Infof("Analysis summary saved to %s", path)
	return path, nil
}

// PrintSummary は実行結果のサマリーを標準出力向けに整形して書く
func PrintSummary(w io.Writer, records []AnalysisRecord) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintln(w, "COMPETITIVE INTELLIGENCE SUMMARY")
	fmt.Fprintln(w, strings.Repeat("=", 60))
	for _, r := range records {
		fmt.Fprintf(w, "📅 Date: %s\n", r.Date)
		fmt.Fprintf(w, "📈 Signal: %s\n", r.Signal)
		fmt.Fprintf(w, "⚠️  Risk: %s\n", r.Risk)
		fmt.Fprintf(w, "💡 Key Insights: %s\n", r.Narrative)
		fmt.Fprintln(w, strings.Repeat("-", 40))
	}
}
