package tools

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var wordPattern = regexp.MustCompile(`\b[a-z]{4,}\b`)

// DetectPatterns returns up to five of the most frequent words of four or more
// letters across items, formatted as "word (appears N times)". Ties keep the
// order of first appearance.
func DetectPatterns(items []string) []string {
	counts := map[string]int{}
	var order []string

	for _, item := range items {
		for _, w := range wordPattern.FindAllString(strings.ToLower(item), -1) {
			if counts[w] == 0 {
				order = append(order, w)
			}
			counts[w]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > 5 {
		order = order[:5]
	}

	out := make([]string, 0, len(order))
	for _, w := range order {
		out = append(out, fmt.Sprintf("%s (appears %d times)", w, counts[w]))
	}
	return out
}
