package tools

import "strings"

// Sentiment labels.
const (
	Positive = "positive"
	Negative = "negative"
	Mixed    = "mixed"
	Neutral  = "neutral"
)

var (
	positiveKeywords = []string{"good", "great", "excellent", "amazing", "love", "best", "innovative"}
	negativeKeywords = []string{"bad", "terrible", "awful", "hate", "worst", "poor", "broken"}
)

// SentimentResult is the outcome of a lexical sentiment analysis.
type SentimentResult struct {
	Sentiment       string `json:"sentiment" yaml:"sentiment"`
	Score           int    `json:"score" yaml:"score"`
	Confidence      int    `json:"confidence" yaml:"confidence"`
	PositiveSignals int    `json:"positive_signals" yaml:"positive_signals"`
	NegativeSignals int    `json:"negative_signals" yaml:"negative_signals"`
}

// NeutralSentiment is reported when there is nothing to score.
func NeutralSentiment() SentimentResult {
	return SentimentResult{Sentiment: Neutral, Score: 50}
}

// AnalyzeSentiment counts which lexicon keywords occur in text. The score is the
// positive share of matched keywords (0-100); above 60 is positive, below 40
// negative, otherwise mixed. Each matched keyword adds 10 to the confidence.
func AnalyzeSentiment(text string) SentimentResult {
	lower := strings.ToLower(text)

	pos := countPresent(lower, positiveKeywords)
	neg := countPresent(lower, negativeKeywords)
	total := pos + neg
	if total == 0 {
		return NeutralSentiment()
	}

	score := pos * 100 / total
	label := Mixed
	switch {
	case score > 60:
		label = Positive
	case score < 40:
		label = Negative
	}

	return SentimentResult{
		Sentiment:       label,
		Score:           score,
		Confidence:      min(total*10, 100),
		PositiveSignals: pos,
		NegativeSignals: neg,
	}
}

// Map converts the result for storage in a map-typed state field.
func (r SentimentResult) Map() map[string]any {
	return map[string]any{
		"sentiment":        r.Sentiment,
		"score":            r.Score,
		"confidence":       r.Confidence,
		"positive_signals": r.PositiveSignals,
		"negative_signals": r.NegativeSignals,
	}
}

func countPresent(text string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			n++
		}
	}
	return n
}
