// Package postag is a part-of-speech tagger trained from tagged sentences and
// loaded once at startup.
package postag

import (
	"strconv"
	"strings"
	"unicode"
)

// Feature is one named token feature.
type Feature struct {
	Name  string
	Value string
}

// Key is the vocabulary key of the feature
func (f Feature) Key() string {
	return f.Name + "=" + f.Value
}

// Features describes the token at index i of a sentence. Training and tagging
// must use the same function.
func Features(tokens []string, i int) []Feature {
	word := tokens[i]
	runes := []rune(word)
	n := len(runes)

	isCapitalized := n > 0 && unicode.ToUpper(runes[0]) == runes[0]
	capitalsInside := n > 1 && strings.ToLower(string(runes[1:])) != string(runes[1:])

	prev, next := "", ""
	if i > 0 {
		prev = tokens[i-1]
	}
	if i < len(tokens)-1 {
		next = tokens[i+1]
	}

	return []Feature{
		{"word", word},
		{"is_first", strconv.FormatBool(i == 0)},
		{"is_last", strconv.FormatBool(i == len(tokens)-1)},
		{"is_capitalized", strconv.FormatBool(isCapitalized)},
		{"is_all_caps", strconv.FormatBool(n > 0 && strings.ToUpper(word) == word)},
		{"is_all_lower", strconv.FormatBool(n > 0 && strings.ToLower(word) == word)},
		{"prefix-1", prefix(runes, 1)},
		{"prefix-2", prefix(runes, 2)},
		{"prefix-3", prefix(runes, 3)},
		{"suffix-1", suffix(runes, 1)},
		{"suffix-2", suffix(runes, 2)},
		{"suffix-3", suffix(runes, 3)},
		{"prev_word", prev},
		{"next_word", next},
		{"has_hyphen", strconv.FormatBool(strings.Contains(word, "-"))},
		{"is_numeric", strconv.FormatBool(isNumeric(runes))},
		{"capitals_inside", strconv.FormatBool(capitalsInside)},
	}
}

// Tokenize splits text on whitespace
func Tokenize(text string) []string {
	return strings.Fields(text)
}

// prefix returns the first k runes, or "" when the word is shorter than k
func prefix(runes []rune, k int) string {
	if len(runes) < k {
		return ""
	}
	return string(runes[:k])
}

func suffix(runes []rune, k int) string {
	if len(runes) < k {
		return ""
	}
	return string(runes[len(runes)-k:])
}

func isNumeric(runes []rune) bool {
	if len(runes) == 0 {
		return false
	}
	for _, r := range runes {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
