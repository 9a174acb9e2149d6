package refserver

import (
	"sort"
	"strings"

	"github.com/hamedshahidi/word-frequency/backend"
)

// Analyze splits text on spaces, counts every non-empty trimmed token and
// returns the k most frequent. Higher counts come first; equal counts are
// ordered by word so that results are stable.
func Analyze(text string, k int) backend.Analysis {
	counts := make(map[string]int)
	for _, token := range strings.Split(text, " ") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		counts[token]++
	}

	words := make([]string, 0, len(counts))
	for word := range counts {
		words = append(words, word)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})
	if k < len(words) {
		words = words[:k]
	}

	analysis := backend.Analysis{
		Words:       words,
		Frequencies: make([]int, len(words)),
	}
	for i, word := range words {
		analysis.Frequencies[i] = counts[word]
	}
	return analysis
}
