package nlu

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// Unanchored on purpose: "i spent 5 on food" is an expense, and so is
	// "note spent 5 on food". Categories are a single token.
	expenseRe = regexp.MustCompile(`spent\s+(\S+)\s+(?:on\s+)?([\pL\pN]+)(?:.*?\bnote\s+(.*))?`)
	habitRe   = regexp.MustCompile(`^habit\s+([\pL\pN][\pL\pN \-]*?)\s+(\S+)$`)
	titledRe  = regexp.MustCompile(`(?s)^note\s+([^:]+):(.*)$`)
	noteRe    = regexp.MustCompile(`(?s)^note\s+(.+)$`)
	journalRe = regexp.MustCompile(`(?s)^(?:jrnl|journal)\s+(.+)$`)

	digitRunRe = regexp.MustCompile(`\d+`)
)

// Rule pairs a matcher over normalized text with the extractor that builds
// the command. Extract only runs on text Match accepted.
type Rule struct {
	Name    string
	Match   func(text string) bool
	Extract func(text string) Command
}

type Router struct {
	rules []Rule
}

// NewRouter returns a router with the default rule chain. Order matters:
// rules match by containment and the first hit wins.
func NewRouter() *Router {
	return &Router{rules: DefaultRules()}
}

func NewRouterWithRules(rules []Rule) *Router {
	return &Router{rules: append([]Rule(nil), rules...)}
}

func DefaultRules() []Rule {
	return []Rule{
		{Name: "expense", Match: expenseRe.MatchString, Extract: extractExpense},
		{Name: "habit", Match: habitRe.MatchString, Extract: extractHabit},
		{Name: "titled-note", Match: matchTitledNote, Extract: extractTitledNote},
		{Name: "note", Match: noteRe.MatchString, Extract: extractNote},
		{Name: "journal", Match: journalRe.MatchString, Extract: extractJournal},
	}
}

// Route maps an utterance to exactly one command. It never fails: text no
// rule accepts becomes a journal entry carrying the utterance as spoken.
func (r *Router) Route(utterance string) Command {
	text := Normalize(utterance)
	if text != "" {
		for _, rule := range r.rules {
			if rule.Match(text) {
				return rule.Extract(text)
			}
		}
	}
	return journalCommand(Journal{Note: strings.TrimSpace(utterance)})
}

func extractExpense(text string) Command {
	m := expenseRe.FindStringSubmatch(text)
	p := Expense{
		Amount:   parseAmount(m[1]),
		Category: TitleCase(m[2]),
	}
	if note := strings.TrimSpace(m[3]); note != "" {
		p.Note = note
	}
	return expenseCommand(p)
}

// parseAmount never fails; anything that is not a finite non-negative
// number is logged as zero.
func parseAmount(raw string) float64 {
	raw = strings.TrimPrefix(raw, "$")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func extractHabit(text string) Command {
	m := habitRe.FindStringSubmatch(text)
	return habitCommand(Habit{
		Habit:  TitleCase(strings.TrimSpace(m[1])),
		Status: HabitStatus(m[2]),
	})
}

func matchTitledNote(text string) bool {
	m := titledRe.FindStringSubmatch(text)
	return m != nil && strings.TrimSpace(m[1]) != "" && strings.TrimSpace(m[2]) != ""
}

func extractTitledNote(text string) Command {
	m := titledRe.FindStringSubmatch(text)
	return noteCommand(Note{
		Title:   strings.TrimSpace(m[1]),
		Content: strings.TrimSpace(m[2]),
	})
}

func extractNote(text string) Command {
	m := noteRe.FindStringSubmatch(text)
	return noteCommand(Note{
		Title:   "Quick Note",
		Content: strings.TrimSpace(m[1]),
	})
}

func extractJournal(text string) Command {
	m := journalRe.FindStringSubmatch(text)
	return journalCommand(Journal{Note: strings.TrimSpace(m[1])})
}
