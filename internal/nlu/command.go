package nlu

import (
	"fmt"
	"strconv"
)

type Endpoint string

const (
	EndpointExpense Endpoint = "expense"
	EndpointHabit   Endpoint = "habit"
	EndpointNote    Endpoint = "note"
	EndpointJournal Endpoint = "journal"
	EndpointChat    Endpoint = "chat"
)

// Payload is the JSON body of one backend endpoint. Each endpoint has its own
// concrete type so extractors stay typed all the way to the wire.
type Payload interface {
	Endpoint() Endpoint
}

type Expense struct {
	Amount   float64 `json:"amount"`
	Category string  `json:"category"`
	Note     string  `json:"note,omitempty"`
}

type Habit struct {
	Habit  string `json:"habit"`
	Status string `json:"status"`
}

type Note struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type Journal struct {
	Note string `json:"note"`
}

func (Expense) Endpoint() Endpoint { return EndpointExpense }
func (Habit) Endpoint() Endpoint   { return EndpointHabit }
func (Note) Endpoint() Endpoint    { return EndpointNote }
func (Journal) Endpoint() Endpoint { return EndpointJournal }

// Command is a routed utterance ready for the backend.
type Command struct {
	Payload       Payload
	SuccessPhrase string
	FailurePhrase string
}

func (c Command) Endpoint() Endpoint {
	if c.Payload == nil {
		return ""
	}
	return c.Payload.Endpoint()
}

func expenseCommand(p Expense) Command {
	return Command{
		Payload:       p,
		SuccessPhrase: fmt.Sprintf("Logged %s on %s.", formatAmount(p.Amount), p.Category),
		FailurePhrase: "Couldn't log the expense.",
	}
}

func habitCommand(p Habit) Command {
	return Command{
		Payload:       p,
		SuccessPhrase: fmt.Sprintf("%s marked %s.", p.Habit, p.Status),
		FailurePhrase: "Couldn't update the habit.",
	}
}

func noteCommand(p Note) Command {
	return Command{
		Payload:       p,
		SuccessPhrase: fmt.Sprintf("Note saved: %s.", p.Title),
		FailurePhrase: "Couldn't save the note.",
	}
}

func journalCommand(p Journal) Command {
	return Command{
		Payload:       p,
		SuccessPhrase: "Journal entry saved.",
		FailurePhrase: "Couldn't save the journal entry.",
	}
}

func formatAmount(a float64) string {
	return strconv.FormatFloat(a, 'f', -1, 64)
}
