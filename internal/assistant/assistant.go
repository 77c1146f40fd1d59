// Package assistant runs the utterance pipeline: transcript, routing or chat,
// backend call, presentation. Every backend call runs on the worker pool so
// callers never wait on the network.
package assistant

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"sync"

	"secondbrain/internal/backend"
	"secondbrain/internal/media"
	"secondbrain/internal/nlu"
	"secondbrain/internal/session"
	"secondbrain/internal/speech"
	"secondbrain/internal/worker"
)

type Mode string

const (
	// ModeChat sends every utterance verbatim to /chat.
	ModeChat Mode = "chat"
	// ModeCommands routes utterances locally to the structured endpoints.
	ModeCommands Mode = "commands"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeChat, ModeCommands:
		return m, nil
	default:
		return "", fmt.Errorf("invalid mode %q (want chat or commands)", s)
	}
}

var ErrBusy = errors.New("already listening")

const (
	textHeardNothing = "Heard nothing, try again."
	textNewChat      = "Started a new chat."
	textReadMedia    = "Failed to read media."
)

type Backend interface {
	ExecuteCommand(ctx context.Context, cmd nlu.Command) backend.Outcome
	ExecuteChat(ctx context.Context, message string) backend.Outcome
	Upload(ctx context.Context, f media.File) backend.Outcome
}

type Presenter interface {
	Status(text string)
	Present(o backend.Outcome)
}

type Listener interface {
	Listen(ctx context.Context) (string, error)
	ListenFile(ctx context.Context, path string) (string, error)
}

type Sessions interface {
	Reset() session.Session
}

type Options struct {
	Mode      Mode
	Router    *nlu.Router
	Backend   Backend
	Sessions  Sessions
	Presenter Presenter
	Pool      *worker.Pool

	// Optional collaborators.
	Listener Listener
	Chime    interface{ Play() error }
	Speech   Speech
	Ducker   Ducker
	MediaDir string
}

type Speech interface {
	IsSpeaking() bool
	Stop()
}

// Ducker quiets other audio while the microphone is open.
type Ducker interface {
	Duck(ctx context.Context) error
	Restore(ctx context.Context) error
}

type Assistant struct {
	opt Options

	listening sync.Mutex
}

func New(opt Options) *Assistant {
	if opt.Mode == "" {
		opt.Mode = ModeChat
	}
	if opt.Router == nil {
		opt.Router = nlu.NewRouter()
	}
	if opt.Pool == nil {
		opt.Pool = worker.NewPool(worker.DefaultSize)
	}
	return &Assistant{opt: opt}
}

func (a *Assistant) Mode() Mode { return a.opt.Mode }

// HandleTranscript processes one recognized or typed utterance.
func (a *Assistant) HandleTranscript(text string) error {
	if strings.TrimSpace(text) == "" {
		a.opt.Presenter.Status(textHeardNothing)
		return nil
	}

	if a.opt.Mode == ModeChat {
		log.Info("Chat", "message", text)
		return a.submit(func(ctx context.Context) backend.Outcome {
			return a.opt.Backend.ExecuteChat(ctx, text)
		})
	}

	cmd := a.opt.Router.Route(text)
	log.Info("Routed", "endpoint", cmd.Endpoint(), "payload", cmd.Payload)
	return a.submit(func(ctx context.Context) backend.Outcome {
		return a.opt.Backend.ExecuteCommand(ctx, cmd)
	})
}

// Trigger is push-to-talk: it interrupts speech, listens for one utterance
// in the background and handles it. Only one capture runs at a time.
func (a *Assistant) Trigger() error {
	if a.opt.Listener == nil {
		return errors.New("no speech input configured")
	}
	return a.capture(func(ctx context.Context) (string, error) {
		return a.opt.Listener.Listen(ctx)
	})
}

// TranscribeFile handles an audio file as if it had been spoken.
func (a *Assistant) TranscribeFile(path string) error {
	if a.opt.Listener == nil {
		return errors.New("no speech input configured")
	}
	return a.capture(func(ctx context.Context) (string, error) {
		return a.opt.Listener.ListenFile(ctx, path)
	})
}

func (a *Assistant) capture(listen func(ctx context.Context) (string, error)) error {
	if !a.listening.TryLock() {
		return ErrBusy
	}

	a.StopSpeaking()

	err := a.opt.Pool.Submit(func(ctx context.Context) {
		defer a.listening.Unlock()

		if a.opt.Chime != nil {
			if err := a.opt.Chime.Play(); err != nil {
				log.Warn("Failed to play chime", "err", err)
			}
		}
		a.opt.Presenter.Status("Listening...")

		if a.opt.Ducker != nil {
			if err := a.opt.Ducker.Duck(ctx); err != nil {
				log.Warn("Failed to duck audio", "err", err)
			}
		}
		text, err := listen(ctx)
		if a.opt.Ducker != nil {
			if err := a.opt.Ducker.Restore(ctx); err != nil {
				log.Warn("Failed to restore audio", "err", err)
			}
		}
		switch {
		case errors.Is(err, speech.ErrNoSpeech):
			a.opt.Presenter.Status(textHeardNothing)
			return
		case err != nil:
			log.Error("Speech capture failed", "err", err)
			a.opt.Presenter.Status("Mic error: " + err.Error())
			return
		}

		a.opt.Presenter.Status("Processing...")
		if err := a.HandleTranscript(text); err != nil {
			log.Error("Failed to handle transcript", "err", err)
		}
	})
	if err != nil {
		a.listening.Unlock()
	}
	return err
}

// NewChat starts a fresh conversation. It is queued behind requests already
// submitted so they finish with the session they were sent under.
func (a *Assistant) NewChat() error {
	return a.opt.Pool.Submit(func(context.Context) {
		a.opt.Sessions.Reset()
		a.opt.Presenter.Present(backend.Success(textNewChat, textNewChat))
	})
}

// Upload copies the picked media to the cache and sends it. A file that
// cannot be read is reported without touching the network.
func (a *Assistant) Upload(path, mime string) error {
	return a.opt.Pool.Submit(func(ctx context.Context) {
		f, err := media.Prepare(path, mime, a.opt.MediaDir)
		if err != nil {
			log.Error("Failed to prepare media", "path", path, "err", err)
			a.opt.Presenter.Present(backend.Failure(textReadMedia, textReadMedia))
			return
		}
		defer func() {
			if err := f.Remove(); err != nil {
				log.Warn("Failed to remove cached media", "path", f.Path, "err", err)
			}
		}()

		a.opt.Presenter.Present(a.opt.Backend.Upload(ctx, f))
	})
}

func (a *Assistant) StopSpeaking() {
	if a.opt.Speech != nil && a.opt.Speech.IsSpeaking() {
		a.opt.Speech.Stop()
	}
}

// Close waits for in-flight requests.
func (a *Assistant) Close() {
	a.opt.Pool.Close()
}

func (a *Assistant) submit(call func(ctx context.Context) backend.Outcome) error {
	return worker.Go(a.opt.Pool, call, a.opt.Presenter.Present)
}
