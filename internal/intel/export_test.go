package intel

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExporter(t *testing.T) *Exporter {
	t.Helper()
	x := NewExporter(t.TempDir(), NewLogger(nil))
	x.now = func() time.Time { return time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC) }
	require.NoError(t, x.EnsureDirs())
	return x
}

func sampleRecords() []AnalysisRecord {
	return []AnalysisRecord{
		{
			Date:        "2025-03-01",
			SourceLabel: "Daily Analysis - Canary Media, EIA",
			Narrative:   "Industrial AI demand accelerated, with power semiconductors in focus.",
			Signal:      SignalPositive,
			Risk:        RiskMedium,
		},
	}
}

func TestEnsureDirsCreatesLayout(t *testing.T) {
	x := newTestExporter(t)
	for _, sub := range []string{"data", "analysis", "exports", "logs"} {
		assert.DirExists(t, filepath.Join(x.root, sub))
	}
}

func TestWriteCSVHeaderOnlyForEmptyRecords(t *testing.T) {
	x := newTestExporter(t)

	path, err := x.WriteCSV(nil)
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Date,Key insights,Signal,Risk\n", string(b))
}

func TestWriteCSVRecords(t *testing.T) {
	x := newTestExporter(t)

	path, err := x.WriteCSV(sampleRecords())
	require.NoError(t, err)
	assert.Contains(t, path, "intelligence_report_20250301_103000.csv")

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Date", "Key insights", "Signal", "Risk"}, rows[0])
	assert.Equal(t, []string{
		"2025-03-01",
		"Industrial AI demand accelerated, with power semiconductors in focus.",
		"Positive",
		"Medium",
	}, rows[1])
}

func TestWriteCSVFailsOnMissingDirectory(t *testing.T) {
	x := NewExporter(filepath.Join(t.TempDir(), "nope"), NewLogger(nil))

	_, err := x.WriteCSV(sampleRecords())
	assert.Error(t, err)
}

func TestWriteRawSnapshot(t *testing.T) {
	x := newTestExporter(t)

	results := map[string]ScrapeResult{
		"canary": {
			Source:    "Canary Media",
			Timestamp: "2025-03-01T10:00:00Z",
			URL:       "https://www.canarymedia.com",
			Headlines: []string{"Solar power installations hit new record"},
		},
	}

	path, err := x.WriteRawSnapshot(results)
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)

	var snapshot map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &snapshot))
	assert.Contains(t, snapshot, "canary")
	assert.Contains(t, snapshot, "scraping_timestamp")

	var restored ScrapeResult
	require.NoError(t, json.Unmarshal(snapshot["canary"], &restored))
	assert.Equal(t, "Canary Media", restored.Source)
	assert.Equal(t, []string{"Solar power installations hit new record"}, restored.Headlines)
}

func TestWriteSummary(t *testing.T) {
	x := newTestExporter(t)

	path, err := x.WriteSummary(sampleRecords())
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(b)

	assert.Contains(t, content, "COMPETITIVE INTELLIGENCE ANALYSIS")
	assert.Contains(t, content, "Generated: 2025-03-01 10:30:00")
	assert.Contains(t, content, "Date: 2025-03-01")
	assert.Contains(t, content, "Signal: Positive")
	assert.Contains(t, content, "Risk: Medium")
	assert.Contains(t, content, "Key Insights: Industrial AI demand accelerated")
}

func TestPrintSummary(t *testing.T) {
	var buf strings.Builder
	PrintSummary(&buf, sampleRecords())

	out := buf.String()
	assert.Contains(t, out, "COMPETITIVE INTELLIGENCE SUMMARY")
	assert.Contains(t, out, "📅 Date: 2025-03-01")
	assert.Contains(t, out, "📈 Signal: Positive")
}
