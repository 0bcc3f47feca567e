package utils

import "strings"

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "with": true, "by": true, "of": true,
}

// KeywordTags extracts candidate keywords from free text by simple
// heuristics. Fallback used when the text service is unavailable; first
// occurrence order is kept, duplicates dropped.
func KeywordTags(text string) []string {
	cleaned := strings.NewReplacer(",", " ", ";", " ", ".", " ").Replace(strings.ToLower(text))

	seen := make(map[string]bool)
	tags := []string{}
	for _, word := range strings.Fields(cleaned) {
		if len(word) <= 2 || stopWords[word] || seen[word] {
			continue
		}
		seen[word] = true
		tags = append(tags, word)
	}
	return tags
}
