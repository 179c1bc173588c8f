package domain

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

var nonWordRe = regexp.MustCompile(`[^\w\s]`)

// MaxKeywordLength is the longest token, in code points, kept as a keyword
const MaxKeywordLength = 32

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`the and for are but not you all can her was one our out day get has him his how its
		may new now old see two who way use she man boy did let put say too
		that this with have from they will what when your been were them than then there their
		just like about would could should into also only some more very`) {
		stopWords[w] = struct{}{}
	}
}

// ExtractKeywords returns per-message word counts: lowercased, punctuation
// stripped, stop words and words of three characters or fewer dropped.
// Tokens longer than MaxKeywordLength are not words and are dropped too.
func ExtractKeywords(text string) map[string]int {
	cleaned := nonWordRe.ReplaceAllString(strings.ToLower(text), " ")
	counts := make(map[string]int)
	for _, word := range strings.Fields(cleaned) {
		if n := utf8.RuneCountInString(word); n <= 3 || n > MaxKeywordLength {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		counts[word]++
	}
	return counts
}

// KeywordCount is a word with its accumulated count
type KeywordCount struct {
	Word  string
	Count int
}

// RankKeywords orders a frequency table by count descending, word ascending
func RankKeywords(freq map[string]int) []KeywordCount {
	ranked := make([]KeywordCount, 0, len(freq))
	for w, c := range freq {
		ranked = append(ranked, KeywordCount{Word: w, Count: c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Word < ranked[j].Word
	})
	return ranked
}

// MergeKeywords adds delta into stored and keeps the top limit entries.
// stored is not modified.
func MergeKeywords(stored, delta map[string]int, limit int) map[string]int {
	merged := make(map[string]int, len(stored)+len(delta))
	for w, c := range stored {
		merged[w] = c
	}
	for w, c := range delta {
		merged[w] += c
	}
	if len(merged) <= limit {
		return merged
	}

	top := make(map[string]int, limit)
	for _, kc := range RankKeywords(merged)[:limit] {
		top[kc.Word] = kc.Count
	}
	return top
}
