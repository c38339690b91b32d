package tools

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/relay/pkg/ports"
)

// Summarize shortens text longer than maxLen to its first three sentences,
// then truncates with "..." if that is still too long.
func Summarize(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}

	sentences := strings.Split(text, ". ")
	if len(sentences) > 3 {
		sentences = sentences[:3]
	}
	summary := strings.Join(sentences, ". ") + "."

	if len(summary) > maxLen && maxLen > 3 {
		summary = summary[:maxLen-3] + "..."
	}
	return summary
}

// Truncate cuts text to maxLen bytes and appends "..." when it was cut.
func Truncate(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "..."
}

// EstimateTokens approximates the token count at four characters per token.
func EstimateTokens(text string) int {
	return len(text) / 4
}

// FormatMessages renders chat messages as "ROLE: content" blocks.
// Items that are not maps are rendered with fmt.
func FormatMessages(messages []any) string {
	parts := make([]string, 0, len(messages))
	for _, m := range messages {
		msg, ok := m.(map[string]any)
		if !ok {
			parts = append(parts, fmt.Sprint(m))
			continue
		}
		role, _ := msg["role"].(string)
		if role == "" {
			role = "unknown"
		}
		content, _ := msg["content"].(string)
		parts = append(parts, strings.ToUpper(role)+": "+content)
	}
	return strings.Join(parts, "\n\n")
}

// FilterRecords drops low-quality records, those whose text is 50 bytes or shorter.
func FilterRecords(records []ports.Record) []ports.Record {
	out := make([]ports.Record, 0, len(records))
	for _, r := range records {
		if recordSize(r) > 50 {
			out = append(out, r)
		}
	}
	return out
}

// SortRecords orders records by text size, largest first. The input is not modified.
func SortRecords(records []ports.Record) []ports.Record {
	out := append([]ports.Record(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		return recordSize(out[i]) > recordSize(out[j])
	})
	return out
}

func recordSize(r ports.Record) int {
	return len(r.Title) + len(r.Summary) + len(r.Source) + len(r.URL)
}
