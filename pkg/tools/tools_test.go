package tools

import (
	"strings"
	"testing"

	"github.com/aretw0/relay/pkg/ports"
	"github.com/stretchr/testify/assert"
)

func TestAnalyzeSentiment(t *testing.T) {
	tests := []struct {
		name string
		text string
		want SentimentResult
	}{
		{
			name: "no signals",
			text: "The release ships on Tuesday.",
			want: SentimentResult{Sentiment: Neutral, Score: 50},
		},
		{
			name: "positive",
			text: "A great and innovative release, the best yet.",
			want: SentimentResult{Sentiment: Positive, Score: 100, Confidence: 30, PositiveSignals: 3},
		},
		{
			name: "negative",
			text: "Terrible docs and a broken installer.",
			want: SentimentResult{Sentiment: Negative, Score: 0, Confidence: 20, NegativeSignals: 2},
		},
		{
			name: "mixed",
			text: "Good ideas, bad execution.",
			want: SentimentResult{Sentiment: Mixed, Score: 50, Confidence: 20, PositiveSignals: 1, NegativeSignals: 1},
		},
		{
			name: "keywords count once",
			text: "good good good",
			want: SentimentResult{Sentiment: Positive, Score: 100, Confidence: 10, PositiveSignals: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AnalyzeSentiment(tt.text))
		})
	}
}

func TestAnalyzeSentiment_ConfidenceCapped(t *testing.T) {
	text := strings.Join(append(positiveKeywords, negativeKeywords...), " ")
	assert.Equal(t, 100, AnalyzeSentiment(text).Confidence)
}

func TestDetectPatterns(t *testing.T) {
	got := DetectPatterns([]string{
		"Rust adoption grows; rust tooling matures",
		"Edge computing and rust",
		"AI on the edge",
	})

	assert.Equal(t, []string{
		"rust (appears 3 times)",
		"edge (appears 2 times)",
		"adoption (appears 1 times)",
		"grows (appears 1 times)",
		"tooling (appears 1 times)",
	}, got)
}

func TestDetectPatterns_Empty(t *testing.T) {
	assert.Empty(t, DetectPatterns(nil))
}

func TestSummarize(t *testing.T) {
	short := "Short text."
	assert.Equal(t, short, Summarize(short, 200))

	long := "One. Two. Three. Four. Five."
	assert.Equal(t, "One. Two. Three.", Summarize(long, 20))

	huge := strings.Repeat("word ", 100)
	got := Summarize(huge, 50)
	assert.Len(t, got, 50)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestTruncateAndTokens(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab...", Truncate("abcdef", 2))
	assert.Equal(t, 2, EstimateTokens("12345678"))
}

func TestFormatMessages(t *testing.T) {
	got := FormatMessages([]any{
		map[string]any{"role": "assistant", "content": "hello"},
		map[string]any{"content": "anon"},
	})
	assert.Equal(t, "ASSISTANT: hello\n\nUNKNOWN: anon", got)
}

func TestFilterAndSortRecords(t *testing.T) {
	small := ports.Record{Title: "x"}
	medium := ports.Record{Title: "Medium", Summary: strings.Repeat("m", 60)}
	large := ports.Record{Title: "Large", Summary: strings.Repeat("l", 120)}

	assert.Equal(t, []ports.Record{medium, large}, FilterRecords([]ports.Record{small, medium, large}))
	assert.Equal(t, []ports.Record{large, medium, small}, SortRecords([]ports.Record{small, medium, large}))
}
