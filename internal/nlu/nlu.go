package nlu

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Normalize trims the utterance and folds it to lower case.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// TitleCase upper-cases the first rune when it is lower-case and leaves the
// rest untouched.
func TitleCase(word string) string {
	r, size := utf8.DecodeRuneInString(word)
	if size == 0 || !unicode.IsLower(r) {
		return word
	}
	return string(unicode.ToUpper(r)) + word[size:]
}

const (
	StatusCompleted = "completed"
	StatusSkipped   = "skipped"
)

var statusSynonyms = map[string]string{
	"yes":       StatusCompleted,
	"y":         StatusCompleted,
	"true":      StatusCompleted,
	"done":      StatusCompleted,
	"completed": StatusCompleted,
	"complete":  StatusCompleted,

	"no":      StatusSkipped,
	"n":       StatusSkipped,
	"false":   StatusSkipped,
	"skip":    StatusSkipped,
	"skipped": StatusSkipped,
}

// HabitStatus collapses a spoken status token into the value the habit
// endpoint expects. Durations keep only their first digit run ("20" -> "20min").
func HabitStatus(token string) string {
	token = Normalize(token)
	if s, ok := statusSynonyms[token]; ok {
		return s
	}
	if digits := digitRunRe.FindString(token); digits != "" {
		return digits + "min"
	}
	return StatusCompleted
}
