package utils

import (
	"sort"
	"strings"
	"unicode"
)

var stopwords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		about above after again against also because been before being below between both could
		does doing down during each even every from further have having here hers herself himself
		into itself just like more most much must myself only other ours ourselves over same shall
		should some such than that their theirs them themselves then there these they this those
		through under until very want what when where which while whom will with would your yours
		yourself yourselves really thanks thank please hello could make made using used need know
		think going still well want into onto upon within without across maybe something anything`) {
		stopwords[w] = struct{}{}
	}
}

// IsStopword reports whether w (lowercase) carries no topical signal.
func IsStopword(w string) bool {
	_, ok := stopwords[w]
	return ok
}

// Tokenize lowercases text and splits it on anything that is not a letter or digit.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// TopKeywords returns up to n words longer than 3 characters, stopwords removed,
// ranked by frequency. Ties keep first-occurrence order.
func TopKeywords(text string, n int) []string {
	counts := make(map[string]int)
	var order []string

	for _, w := range Tokenize(text) {
		if len([]rune(w)) <= 3 || IsStopword(w) {
			continue
		}
		if _, seen := counts[w]; !seen {
			order = append(order, w)
		}
		counts[w]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if n >= 0 && len(order) > n {
		order = order[:n]
	}
	return order
}
