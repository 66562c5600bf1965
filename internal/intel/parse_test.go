package intel

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParser() *Parser {
	p := NewParser(NewLogger(nil))
	p.now = func() time.Time { return time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC) }
	return p
}

func TestParseStructuredResponse(t *testing.T) {
	p := newTestParser()

	raw := "Date: 2025-01-10\n" +
		"Key insights: Strong growth\n" +
		"Signal: 🟢 Positive reasoning\n" +
		"Risk: risk: high reasoning"

	rec := p.Parse(raw, "Daily Analysis - Canary Media")

	assert.Equal(t, "2025-01-10", rec.Date)
	assert.Equal(t, "Daily Analysis - Canary Media", rec.SourceLabel)
	assert.Equal(t, "Strong growth", rec.Narrative)
	assert.Equal(t, SignalPositive, rec.Signal)
	assert.Equal(t, RiskHigh, rec.Risk)
}

func TestParseMultilineNarrative(t *testing.T) {
	p := newTestParser()

	raw := "Date: 2025-02-01\n" +
		"Key insights: Demand for SiC devices rose sharply across industrial markets.\n" +
		"Additional fabrication capacity is planned for next year.\n" +
		"Signal: Neutral for now\n" +
		"Risk: Low exposure"

	rec := p.Parse(raw, "Daily Analysis - EIA")

	assert.Equal(t, "2025-02-01", rec.Date)
	assert.Equal(t, "Demand for SiC devices rose sharply across industrial markets. Additional fabrication capacity is planned for next year.", rec.Narrative)
	assert.Equal(t, SignalNeutral, rec.Signal)
	assert.Equal(t, RiskLow, rec.Risk)
}

func TestParseHeaderlessResponse(t *testing.T) {
	p := newTestParser()

	raw := "Things look mixed. negative sentiment expected. risk is medium overall."
	rec := p.Parse(raw, "Daily Analysis - Industry Week")

	// 構造化行が無いので最初の文がナラティブになる
	assert.Equal(t, "Things look mixed", rec.Narrative)
	assert.Equal(t, SignalNegative, rec.Signal)
	assert.Equal(t, RiskMedium, rec.Risk)
	// 日付は注入した現在時刻から
	assert.Equal(t, "2025-01-10", rec.Date)
}

func TestParseMarkerFallback(t *testing.T) {
	p := newTestParser()

	// センチメント語は含まず、絵文字マーカーだけで判定させる
	raw := "The trend (signal: 🔴) continues into next quarter with high exposure."
	rec := p.Parse(raw, "Daily Analysis - Canary Media")

	assert.Equal(t, SignalNegative, rec.Signal)
	assert.Equal(t, RiskHigh, rec.Risk)
}

func TestParseEmptyResponse(t *testing.T) {
	p := newTestParser()

	rec := p.Parse("", "Daily Analysis - Canary Media")

	assert.Equal(t, "2025-01-10", rec.Date)
	assert.Empty(t, rec.Narrative)
	assert.Equal(t, SignalNeutral, rec.Signal)
	assert.Equal(t, RiskLow, rec.Risk)
}

func TestParseCapturedSectionWinsOverFullText(t *testing.T) {
	p := newTestParser()

	// Signal行は neutral だが、本文には negative が含まれるケース。
	// キャプチャ区間が非空なら全文検索には落ちない。
	raw := "Key insights: Competitors reported negative margins this quarter.\n" +
		"Signal: neutral stance\n" +
		"Risk: low"
	rec := p.Parse(raw, "Daily Analysis - Industry Week")

	assert.Equal(t, SignalNeutral, rec.Signal)
	assert.Equal(t, RiskLow, rec.Risk)
}

func TestParseAlwaysYieldsValidEnums(t *testing.T) {
	p := newTestParser()

	inputs := []string{
		"",
		"Signal:\nRisk:",
		"garbage text with no structure at all",
		"Date:\nKey insights:\nSignal: unknown sentiment\nRisk: unknowable",
		strings.Repeat("x", 5000),
		"🟢🔴⚪",
	}

	validSignals := map[Signal]bool{SignalPositive: true, SignalNeutral: true, SignalNegative: true}
	validRisks := map[Risk]bool{RiskLow: true, RiskMedium: true, RiskHigh: true}

	for _, raw := range inputs {
		rec := p.Parse(raw, "Daily Analysis - Test")
		assert.True(t, validSignals[rec.Signal], "signal %q for input %q", rec.Signal, raw)
		assert.True(t, validRisks[rec.Risk], "risk %q for input %q", rec.Risk, raw)
		assert.LessOrEqual(t, len(strings.Fields(rec.Narrative)), maxNarrativeWords)
		assert.NotEmpty(t, rec.Date)
	}
}

func TestNormalizeNarrativeStripsLeakedHeaders(t *testing.T) {
	got := normalizeNarrative("Date: Key insights: Growth continued across the sector")
	assert.Equal(t, "Growth continued across the sector", got)
}

func TestNormalizeNarrativeTruncatesAtSentenceBoundary(t *testing.T) {
	// 60語の文を5回繰り返して300語にする。200語で切ると4文目の途中に
	// 落ちるため、3文（180語）+ピリオドで終端されるはず。
	sentence := strings.TrimSpace(strings.Repeat("word ", 59)) + " end."
	text := strings.TrimSpace(strings.Repeat(sentence+" ", 5))

	got := normalizeNarrative(text)

	require.True(t, strings.HasSuffix(got, "."), "should end at a sentence boundary: %q", got[len(got)-20:])
	assert.Equal(t, 180, len(strings.Fields(got)))
}

func TestNormalizeNarrativeAppendsEllipsisWithoutBoundary(t *testing.T) {
	// ピリオドが1つも無い300語のテキスト
	text := strings.TrimSpace(strings.Repeat("word ", 300))

	got := normalizeNarrative(text)

	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, maxNarrativeWords, len(strings.Fields(strings.TrimSuffix(got, "..."))))
}

func TestNormalizeNarrativeIdempotent(t *testing.T) {
	inputs := []string{
		"Short narrative about semiconductors.",
		"Date: 2025-01-10 Key insights: leaked header content here",
		strings.TrimSpace(strings.Repeat("growth continued. ", 100)),
		strings.TrimSpace(strings.Repeat("word ", 300)),
	}
	for i, in := range inputs {
		once := normalizeNarrative(in)
		twice := normalizeNarrative(once)
		assert.Equal(t, once, twice, "input %d not idempotent", i)
	}
}

func TestFirstSentence(t *testing.T) {
	assert.Equal(t, "Hello world", firstSentence("Hello world. More text."))
	assert.Equal(t, "No terminator here", firstSentence("No terminator here"))

	long := strings.Repeat("a", 250)
	got := firstSentence(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Len(t, []rune(got), 203)
}

func TestParseLogsOutcome(t *testing.T) {
	var buf strings.Builder
	p := NewParser(NewLogger(&buf))
	p.now = func() time.Time { return time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC) }

	p.Parse("Signal: positive\nRisk: high", "Daily Analysis - Canary Media")

	out := buf.String()
	assert.Contains(t, out, "INFO: Parsed result for Daily Analysis - Canary Media")
	assert.Contains(t, out, fmt.Sprintf("signal=%s", SignalPositive))
}
