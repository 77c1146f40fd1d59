// Package notify presents assistant progress and outcomes to the user.
package notify

import (
	"fmt"
	"io"
	log "log/slog"
	"os"
	"sync"

	"github.com/fatih/color"

	"secondbrain/internal/backend"
)

type Presenter interface {
	Status(text string)
	Present(o backend.Outcome)
}

// Console prints status lines and outcomes to a terminal.
type Console struct {
	mu  sync.Mutex
	out io.Writer

	status  *color.Color
	success *color.Color
	failure *color.Color
}

func NewConsole(out io.Writer) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{
		out:     out,
		status:  color.New(color.FgCyan),
		success: color.New(color.FgGreen, color.Bold),
		failure: color.New(color.FgRed, color.Bold),
	}
}

func (c *Console) Status(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status.Fprintln(c.out, text)
}

func (c *Console) Present(o backend.Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if o.Success {
		c.success.Fprint(c.out, "✔ ")
	} else {
		c.failure.Fprint(c.out, "✘ ")
	}
	fmt.Fprintln(c.out, o.DisplayText)
}

type Speaker interface {
	Speak(text string, flush bool) error
}

// Voice reads outcomes aloud, interrupting whatever was being said.
type Voice struct {
	sp Speaker
}

func NewVoice(sp Speaker) *Voice {
	return &Voice{sp: sp}
}

func (v *Voice) Status(string) {}

func (v *Voice) Present(o backend.Outcome) {
	if err := v.sp.Speak(o.SpokenText, true); err != nil {
		log.Error("Failed to voice out", "err", err)
	}
}

// Multi fans every call out to all presenters in order.
type Multi []Presenter

func (m Multi) Status(text string) {
	for _, p := range m {
		p.Status(text)
	}
}

func (m Multi) Present(o backend.Outcome) {
	for _, p := range m {
		p.Present(o)
	}
}
