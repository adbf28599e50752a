package internal

import (
	"github.com/sahilm/fuzzy"
)

// FindSimilarNames returns up to max registered names resembling target.
//
// fuzzy only matches a pattern as a subsequence of a candidate, so both
// directions are tried: target inside a longer name ("usr" -> "user") and a
// shorter name inside target ("greeet" -> "greet").
func FindSimilarNames(target string, names []string, max int) []string {
	if target == StringValueEmpty || len(names) == 0 || max <= 0 {
		return nil
	}

	seen := make(map[string]bool, max)
	result := make([]string, 0, max)
	add := func(name string) bool {
		if name == target || seen[name] {
			return len(result) < max
		}
		seen[name] = true
		result = append(result, name)
		return len(result) < max
	}

	for _, match := range fuzzy.Find(target, names) {
		if !add(match.Str) {
			return result
		}
	}
	for _, name := range names {
		if len(fuzzy.Find(name, []string{target})) > 0 {
			if !add(name) {
				return result
			}
		}
	}
	return result
}
