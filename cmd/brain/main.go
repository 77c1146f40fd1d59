package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	log "log/slog"

	cli "github.com/spf13/pflag"

	"secondbrain/internal/assistant"
	"secondbrain/internal/backend"
	"secondbrain/internal/config"
	"secondbrain/internal/notify"
	"secondbrain/internal/proxy"
	"secondbrain/internal/session"
	"secondbrain/internal/worker"
)

// brain handles typed utterances without the daemon: the words after the
// flags, or one utterance per stdin line. "/new" starts a new chat.
func main() {
	cfg, err := config.Load("brain", os.Args[1:])
	if errors.Is(err, cli.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "brain:", err)
		os.Exit(2)
	}
	config.SetupLogging(os.Stderr, cfg.LogLevel)

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

	a := assistant.New(assistant.Options{
		Mode:      cfg.Mode,
		Backend:   backend.New(cfg.BaseURL, httpClient, sessions),
		Sessions:  sessions,
		Presenter: notify.NewConsole(os.Stdout),
		// One at a time keeps replies in the order they were typed.
		Pool: worker.NewPool(1),
	})
	defer a.Close()

	if len(cfg.Args) > 0 {
		handle(a, strings.Join(cfg.Args, " "))
		return
	}

	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		handle(a, sc.Text())
	}
	if err := sc.Err(); err != nil {
		log.Error("Failed to read stdin", "err", err)
	}
}

func handle(a *assistant.Assistant, line string) {
	var err error
	if strings.TrimSpace(line) == "/new" {
		err = a.NewChat()
	} else {
		err = a.HandleTranscript(line)
	}
	if err != nil {
		log.Error("Failed to handle utterance", "err", err)
	}
}
