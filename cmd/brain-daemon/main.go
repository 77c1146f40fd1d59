package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "log/slog"

	"github.com/openai/openai-go/v3/option"
	cli "github.com/spf13/pflag"

	"secondbrain/internal/assistant"
	"secondbrain/internal/audio"
	"secondbrain/internal/backend"
	"secondbrain/internal/config"
	"secondbrain/internal/ipc"
	"secondbrain/internal/notify"
	"secondbrain/internal/proxy"
	"secondbrain/internal/session"
	"secondbrain/internal/speech"
	"secondbrain/internal/tts"
	"secondbrain/internal/worker"
	"secondbrain/pkg/stt"
)

const transcribeTimeout = 60 * time.Second

func main() {
	cfg, err := config.Load("brain-daemon", os.Args[1:])
	if errors.Is(err, cli.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "brain-daemon:", err)
		os.Exit(2)
	}

	config.SetupLogging(os.Stdout, cfg.LogLevel)
	log.Info("Booting up", "url", cfg.BaseURL, "mode", cfg.Mode, "stt", cfg.STT)

	httpClient, err := proxy.NewHTTPClient(cfg.Proxy, cfg.Timeout)
	if err != nil {
		log.Error("Failed to set up proxy", "proxy", cfg.Proxy, "err", err)
		os.Exit(1)
	}

	prefsPath := cfg.PrefsPath
	if prefsPath == "" {
		if prefsPath, err = session.DefaultPrefsPath(); err != nil {
			log.Error("Failed to locate prefs", "err", err)
			os.Exit(1)
		}
	}
	sessions := session.NewStore(session.NewPrefsPersister(session.NewPrefs(prefsPath)))
	log.Debug("Loaded session store", "prefs", prefsPath)

	presenters := notify.Multi{notify.NewConsole(os.Stdout)}

	opt := assistant.Options{
		Mode:     cfg.Mode,
		Backend:  backend.New(cfg.BaseURL, httpClient, sessions),
		Sessions: sessions,
		Pool:     worker.NewPool(cfg.Workers),
		MediaDir: cfg.MediaDir,
	}

	var speaker *tts.Speaker
	if cfg.Speak {
		speaker, err = tts.NewSpeaker(cfg.Language)
		if err != nil {
			log.Error("Failed to init speech output", "err", err)
			os.Exit(1)
		}
		defer speaker.Close()

		presenters = append(presenters, notify.NewVoice(speaker))
		opt.Speech = speaker
		log.Debug("Loaded espeak")
	}

	if cfg.BusURL != "" {
		relay, err := notify.DialRelay(cfg.BusURL, "secondbrain")
		if err != nil {
			// The hub is optional; keep going without it.
			log.Warn("Relay unavailable", "url", cfg.BusURL, "err", err)
		} else {
			defer relay.Close()
			presenters = append(presenters, relay)
		}
	}
	opt.Presenter = presenters

	if cfg.Chime != "" {
		opt.Chime = notify.NewChime(cfg.Chime)
	}

	if cfg.STT != config.STTNone {
		rec := audio.NewRecorder(audio.DefaultOptions())
		if err := rec.Init(); err != nil {
			log.Error("Failed to init audio", "err", err)
			os.Exit(1)
		}
		defer rec.Close()
		log.Debug("Loaded recorder")

		tr, closeTr, err := newTranscriber(cfg)
		if err != nil {
			log.Error("Failed to init transcriber", "stt", cfg.STT, "err", err)
			os.Exit(1)
		}
		defer closeTr()
		log.Debug("Loaded transcriber", "stt", cfg.STT)

		opt.Listener = speech.NewListener(rec, tr)

		if cfg.Duck {
			opt.Ducker = audio.NewDucker(audio.DefaultDuckOptions())
		}
	}

	a := assistant.New(opt)
	defer a.Close()

	srv, err := ipc.StartServer(cfg.Socket, dispatch(a))
	if err != nil {
		log.Error("Failed ipc server", "socket", cfg.Socket, "err", err)
		os.Exit(1)
	}
	defer os.Remove(cfg.Socket)
	defer srv.Close()

	log.Info("Boot up - successful", "socket", cfg.Socket)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("Shutting down")
}

func newTranscriber(cfg *config.Config) (speech.Transcriber, func(), error) {
	switch cfg.STT {
	case config.STTOpenAI:
		hc, err := proxy.NewHTTPClient(cfg.Proxy, transcribeTimeout)
		if err != nil {
			return nil, nil, err
		}
		tr := speech.NewCloudTranscriber(cfg.Language,
			option.WithAPIKey(cfg.OpenAIKey),
			option.WithHTTPClient(hc),
		)
		return tr, func() {}, nil
	default:
		tr, err := stt.NewTranscriber(cfg.WhisperModel, stt.Options{Language: cfg.Language})
		if err != nil {
			return nil, nil, err
		}
		return tr, func() { tr.Close() }, nil
	}
}

// dispatch maps control messages onto the assistant. Long work runs on the
// assistant's pool, so the control client only waits for acceptance.
func dispatch(a *assistant.Assistant) func(ipc.ControlMessage) error {
	return func(msg ipc.ControlMessage) error {
		switch msg.Cmd {
		case ipc.CmdTrigger:
			return a.Trigger()
		case ipc.CmdSay:
			return a.HandleTranscript(msg.Arg)
		case ipc.CmdTranscribe:
			if msg.Arg == "" {
				return errors.New("transcribe needs a file path")
			}
			return a.TranscribeFile(msg.Arg)
		case ipc.CmdNewChat:
			return a.NewChat()
		case ipc.CmdUpload:
			if msg.Arg == "" {
				return errors.New("upload needs a file path")
			}
			return a.Upload(msg.Arg, msg.MIME)
		case ipc.CmdStop:
			a.StopSpeaking()
			return nil
		default:
			log.Warn("Unknown command", "cmd", msg.Cmd)
			return fmt.Errorf("%w: %q", ipc.ErrUnknownCommand, msg.Cmd)
		}
	}
}
