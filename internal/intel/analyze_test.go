package intel

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnalyzer(t *testing.T, endpoint string) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer("test-key", "gpt-4o", NewLogger(nil))
	require.NoError(t, err)
	a.endpoint = endpoint
	a.parser.now = func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) }
	return a
}

func chatResponse(content string) string {
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content, "role": "assistant"}},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func fullBatch() DailyBatch {
	return DailyBatch{
		Date:      "2025-03-01",
		Sources:   []string{"Canary Media", "EIA Today in Energy"},
		Headlines: []string{"Industrial AI adoption expanded across factories"},
		Insights:  []string{"Power semiconductor revenue grew 18% year over year"},
	}
}

func TestNewAnalyzerRequiresAPIKey(t *testing.T) {
	_, err := NewAnalyzer("", "gpt-4o", NewLogger(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OpenAI API key not found")
}

func TestAnalyzeBatchParsesStructuredResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o", req["model"])

		w.Write([]byte(chatResponse(
			"Date: 2025-03-01\nKey insights: Strong industrial AI momentum\nSignal: Positive outlook\nRisk: Medium exposure")))
	}))
	defer srv.Close()

	a := newTestAnalyzer(t, srv.URL)
	rec := a.AnalyzeBatch(fullBatch())

	assert.Equal(t, "2025-03-01", rec.Date)
	assert.Equal(t, "Daily Analysis - Canary Media, EIA Today in Energy", rec.SourceLabel)
	assert.Equal(t, "Strong industrial AI momentum", rec.Narrative)
	assert.Equal(t, SignalPositive, rec.Signal)
	assert.Equal(t, RiskMedium, rec.Risk)
}

func TestAnalyzeBatchInsufficientData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("model should not be called for insufficient data")
	}))
	defer srv.Close()

	a := newTestAnalyzer(t, srv.URL)
	batch := DailyBatch{
		Date:      "2025-03-01",
		Sources:   []string{"Canary Media"},
		Headlines: []string{"Single headline only"},
	}

	rec := a.AnalyzeBatch(batch)

	assert.Equal(t, "Unable to generate analysis due to insufficient data", rec.Narrative)
	assert.Equal(t, SignalNeutral, rec.Signal)
	assert.Equal(t, RiskLow, rec.Risk)
}

func TestAnalyzeBatchAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`))
	}))
	defer srv.Close()

	a := newTestAnalyzer(t, srv.URL)
	rec := a.AnalyzeBatch(fullBatch())

	assert.Contains(t, rec.Narrative, "Authentication error")
	assert.Equal(t, SignalNeutral, rec.Signal)
	assert.Equal(t, RiskLow, rec.Risk)
}

func TestAnalyzeBatchEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatResponse("")))
	}))
	defer srv.Close()

	a := newTestAnalyzer(t, srv.URL)
	rec := a.AnalyzeBatch(fullBatch())

	assert.Equal(t, "Unable to generate analysis due to insufficient data", rec.Narrative)
}

func TestAnalyzeBatchesOnePerBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatResponse("Date: 2025-03-01\nKey insights: Steady\nSignal: Neutral\nRisk: Low")))
	}))
	defer srv.Close()

	a := newTestAnalyzer(t, srv.URL)
	records := a.AnalyzeBatches([]DailyBatch{fullBatch(), fullBatch()})

	assert.Len(t, records, 2)
}

func TestClassifyAPIError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   ModelErrorKind
	}{
		{"unauthorized", http.StatusUnauthorized, `{}`, ErrKindAuth},
		{"invalid api key code", http.StatusForbidden, `{"error":{"code":"invalid_api_key"}}`, ErrKindAuth},
		{"bad request", http.StatusBadRequest, `{"error":{"message":"model not found"}}`, ErrKindInvalidRequest},
		{"invalid request type", http.StatusNotFound, `{"error":{"type":"invalid_request_error"}}`, ErrKindInvalidRequest},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, ErrKindOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			me := classifyAPIError(tt.status, []byte(tt.body))
			assert.Equal(t, tt.kind, me.Kind)
			assert.NotEmpty(t, me.Message)
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	batch := fullBatch()
	prompt := buildPrompt(batch)

	assert.Contains(t, prompt, "2025-03-01")
	assert.Contains(t, prompt, "Canary Media, EIA Today in Energy")
	assert.Contains(t, prompt, "['Industrial AI adoption expanded across factories']")
	assert.Contains(t, prompt, "SIGNAL ANALYSIS (Positive/Neutral/Negative)")
	assert.Contains(t, prompt, "RISK ANALYSIS (Low/Medium/High)")
	assert.Contains(t, prompt, "Date: 2025-03-01")
}

func TestFormatList(t *testing.T) {
	assert.Equal(t, "[]", formatList(nil))
	assert.Equal(t, "['a']", formatList([]string{"a"}))
	assert.Equal(t, "['a', 'b']", formatList([]string{"a", "b"}))
}
