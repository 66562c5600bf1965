package intel

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeWhitespace(t *testing.T) {
	assert.Equal(t, "hello world", normalizeWhitespace("  hello \t\n  world  "))
	assert.Equal(t, "", normalizeWhitespace("   "))
}

func TestUniqStrings(t *testing.T) {
	got := uniqStrings([]string{"a", "b", "a", "", "c", "b"})
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "short", truncateRunes("short", 10))
	assert.Equal(t, "abc...", truncateRunes("abcdef", 3))

	// マルチバイト文字の途中で切れないこと
	got := truncateRunes("日本語のテキストです", 4)
	assert.Equal(t, "日本語の...", got)
}

func TestCapStrings(t *testing.T) {
	in := []string{"a", "b", "c"}
	assert.Equal(t, []string{"a", "b"}, capStrings(in, 2))
	assert.Equal(t, in, capStrings(in, 5))
	assert.Equal(t, in, capStrings(in, -1))
	// 元のスライスは変更されない
	assert.Equal(t, []string{"a", "b", "c"}, in)
}

func TestContainsAnyKeyword(t *testing.T) {
	keywords := []string{"Battery", "solar"}
	assert.True(t, containsAnyKeyword("new BATTERY plant announced", keywords))
	assert.True(t, containsAnyKeyword("Solar output climbs", keywords))
	assert.False(t, containsAnyKeyword("wind turbines installed", keywords))
}

func TestHasDigit(t *testing.T) {
	assert.True(t, hasDigit("grew 15% this year"))
	assert.False(t, hasDigit("no numbers here"))
}

func TestLoggerPrefixes(t *testing.T) {
	var buf strings.Builder
	l := NewLogger(&buf)

	l.Infof("scraping %s", "canary")
	l.Warnf("retrying")
	l.Errorf("failed: %v", assert.AnError)

	out := buf.String()
	assert.Contains(t, out, "INFO: scraping canary\n")
	assert.Contains(t, out, "WARN: retrying\n")
	assert.Contains(t, out, "ERROR: failed:")
}

func TestNewLoggerNilWriterDiscards(t *testing.T) {
	l := NewLogger(nil)
	// 書き込み先がio.Discardになりpanicしない
	l.Infof("dropped")
}
