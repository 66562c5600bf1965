package intel

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var aggRunDate = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// cleanAndFilterを通過する代表的なテキスト（30-150文字、横断語彙あり）
const relevantHeadline = "Industrial AI adoption expanded 40% across European factories"

func TestAggregateGroupsByDate(t *testing.T) {
	a := NewAggregator(NewLogger(nil))

	results := []ScrapeResult{
		{
			Source:    "Canary Media",
			Timestamp: "2025-03-01T08:00:00Z",
			Headlines: []string{relevantHeadline},
		},
		{
			Source:    "Industry Week",
			Timestamp: "2025-03-02T08:00:00Z",
			Headlines: []string{"Semiconductor capacity investment doubled during the quarter"},
		},
	}

	batches := a.Aggregate(results, aggRunDate)

	require.Len(t, batches, 2)
	assert.Equal(t, "2025-03-01", batches[0].Date)
	assert.Equal(t, []string{"Canary Media"}, batches[0].Sources)
	assert.Equal(t, "2025-03-02", batches[1].Date)
	assert.Equal(t, []string{"Industry Week"}, batches[1].Sources)
}

func TestAggregateSkipsFailedResults(t *testing.T) {
	var buf strings.Builder
	a := NewAggregator(NewLogger(&buf))

	results := []ScrapeResult{
		{Source: "Canary Media", Timestamp: "2025-03-01T08:00:00Z", Error: "all fetches failed"},
	}

	batches := a.Aggregate(results, aggRunDate)

	assert.Empty(t, batches)
	assert.Contains(t, buf.String(), "WARN: Skipping failed source Canary Media")
}

func TestAggregateFallsBackToRunDate(t *testing.T) {
	a := NewAggregator(NewLogger(nil))

	results := []ScrapeResult{
		{Source: "EIA", Timestamp: "not-a-timestamp", Headlines: []string{relevantHeadline}},
	}

	batches := a.Aggregate(results, aggRunDate)

	require.Len(t, batches, 1)
	assert.Equal(t, "2025-03-01", batches[0].Date)
}

func TestAggregateAppliesPerSourceCap(t *testing.T) {
	a := NewAggregator(NewLogger(nil))

	results := []ScrapeResult{
		{
			Source:    "Canary Media",
			Timestamp: "2025-03-01T08:00:00Z",
			Insights: []string{
				"Solar energy output rose 15% across the regional power grid",
				"Battery storage capacity grew 22% with new industrial deployments",
				"Wind power generation increased 8% despite seasonal energy variation",
			},
		},
	}

	batches := a.Aggregate(results, aggRunDate)

	require.Len(t, batches, 1)
	// ソースあたり2件で打ち切られ、3件目は入らない
	assert.Len(t, batches[0].Insights, 2)
	assert.NotContains(t, batches[0].Insights, "Wind power generation increased 8% despite seasonal energy variation")
}

func TestAggregateDeduplicatesAcrossSources(t *testing.T) {
	a := NewAggregator(NewLogger(nil))

	results := []ScrapeResult{
		{Source: "Canary Media", Timestamp: "2025-03-01T08:00:00Z", Headlines: []string{relevantHeadline}},
		{Source: "Industry Week", Timestamp: "2025-03-01T09:00:00Z", Headlines: []string{relevantHeadline}},
	}

	batches := a.Aggregate(results, aggRunDate)

	require.Len(t, batches, 1)
	assert.Equal(t, []string{"Canary Media", "Industry Week"}, batches[0].Sources)
	assert.Len(t, batches[0].Headlines, 1)
}

func TestCleanAndFilterStripsWebArtifacts(t *testing.T) {
	in := []string{"Toggle navigation Industrial AI spending keeps rising across global factories"}
	out := cleanAndFilter(in)

	require.Len(t, out, 1)
	assert.NotContains(t, out[0], "Toggle navigation")
	assert.Contains(t, out[0], "Industrial AI spending")
}

func TestCleanAndFilterDropsShortText(t *testing.T) {
	assert.Empty(t, cleanAndFilter([]string{"AI chips"}))
}

func TestCleanAndFilterRequiresRelevanceKeyword(t *testing.T) {
	// 長さは範囲内だが横断語彙に1語も合致しない
	in := []string{"The committee gathered quietly before lunch to discuss routine scheduling matters"}
	assert.Empty(t, cleanAndFilter(in))
}

func TestCleanAndFilterTruncatesLongText(t *testing.T) {
	long := "Semiconductor capacity expansion continued across the region as manufacturers announced new fabrication plants with record investment levels exceeding prior years by a wide margin"
	require.Greater(t, len(long), relevanceMax)

	out := cleanAndFilter([]string{long})

	require.Len(t, out, 1)
	assert.True(t, strings.HasSuffix(out[0], "..."))
	assert.Len(t, []rune(out[0]), relevanceMax+3)
}

func TestCleanAndFilterPure(t *testing.T) {
	in := []string{"  Industrial   AI adoption expanded 40% across European factories  "}
	want := append([]string{}, in...)

	cleanAndFilter(in)

	// 入力スライスは変更されない
	assert.Equal(t, want, in)
}
