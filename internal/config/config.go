package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"secondbrain/internal/assistant"
	"secondbrain/internal/ipc"
	"secondbrain/internal/proxy"
	"secondbrain/internal/worker"
)

const DefaultBaseURL = "http://127.0.0.1:8000"

// STT engines.
const (
	STTWhisper = "whisper"
	STTOpenAI  = "openai"
	STTNone    = "none"
)

type Config struct {
	EnvFile  string
	LogLevel string
	Socket   string

	BaseURL string
	Mode    assistant.Mode
	Proxy   string
	Timeout time.Duration
	Workers int

	PrefsPath string
	MediaDir  string

	STT          string
	WhisperModel string
	Language     string
	OpenAIKey    string

	Speak  bool
	Duck   bool
	Chime  string
	BusURL string

	// Args are the positional arguments left after flags.
	Args []string
}

// envNames maps flags to the environment variables that back them. A flag
// given on the command line wins over the environment.
var envNames = map[string]string{
	"log":     "SECONDBRAIN_LOG",
	"socket":  "SECONDBRAIN_SOCKET",
	"url":     "SECONDBRAIN_URL",
	"mode":    "SECONDBRAIN_MODE",
	"proxy":   "SECONDBRAIN_PROXY",
	"timeout": "SECONDBRAIN_TIMEOUT",
	"workers": "SECONDBRAIN_WORKERS",
	"prefs":   "SECONDBRAIN_PREFS",
	"media":   "SECONDBRAIN_MEDIA_DIR",
	"stt":     "SECONDBRAIN_STT",
	"model":   "WHISPER_MODEL",
	"lang":    "SECONDBRAIN_LANGUAGE",
	"speak":   "SECONDBRAIN_SPEAK",
	"duck":    "SECONDBRAIN_DUCK",
	"chime":   "SECONDBRAIN_CHIME",
	"bus":     "BUS_URL",
}

// Load parses args (without the program name), loads the .env file and
// fills unset flags from the environment.
func Load(name string, args []string) (*Config, error) {
	var cfg Config
	var mode string

	set := cli.NewFlagSet(name, cli.ContinueOnError)
	set.StringVarP(&cfg.EnvFile, "env", "e", ".env", "Env file path")
	set.StringVarP(&cfg.LogLevel, "log", "l", "info", "Log level")
	set.StringVarP(&cfg.Socket, "socket", "s", ipc.DefaultSocketPath(), "Control socket path")
	set.StringVarP(&cfg.BaseURL, "url", "u", DefaultBaseURL, "Backend base URL")
	set.StringVarP(&mode, "mode", "m", string(assistant.ModeChat), "Utterance handling: chat or commands")
	set.StringVarP(&cfg.Proxy, "proxy", "p", "", "SOCKS5 proxy address for backend calls")
	set.DurationVar(&cfg.Timeout, "timeout", proxy.DefaultTimeout, "Backend request timeout")
	set.IntVar(&cfg.Workers, "workers", worker.DefaultSize, "Concurrent backend requests")
	set.StringVar(&cfg.PrefsPath, "prefs", "", "Prefs file holding the session (default in user config dir)")
	set.StringVar(&cfg.MediaDir, "media", "", "Directory for cached media uploads (default temp dir)")
	set.StringVar(&cfg.STT, "stt", STTWhisper, "Speech engine: whisper, openai or none")
	set.StringVar(&cfg.WhisperModel, "model", "third_party/whisper.cpp/models/ggml-base.en.bin", "Whisper model path")
	set.StringVar(&cfg.Language, "lang", "en", "Recognition and speech language")
	set.BoolVar(&cfg.Speak, "speak", true, "Speak outcomes aloud")
	set.BoolVar(&cfg.Duck, "duck", false, "Lower other applications' volume while listening (pactl)")
	set.StringVar(&cfg.Chime, "chime", "", "mp3 played when listening starts")
	set.StringVar(&cfg.BusURL, "bus", "", "Websocket hub that mirrors status and outcomes")

	if err := set.Parse(args); err != nil {
		return nil, err
	}

	if err := godotenv.Load(cfg.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", cfg.EnvFile, err)
	}

	for flag, env := range envNames {
		if set.Changed(flag) {
			continue
		}
		value := strings.TrimSpace(os.Getenv(env))
		if value == "" {
			continue
		}
		if err := set.Set(flag, value); err != nil {
			return nil, fmt.Errorf("invalid %s value %q: %w", env, value, err)
		}
	}

	cfg.Args = set.Args()
	cfg.OpenAIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))

	m, err := assistant.ParseMode(mode)
	if err != nil {
		return nil, err
	}
	cfg.Mode = m

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid backend url %q", c.BaseURL)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}

	c.STT = strings.ToLower(c.STT)
	switch c.STT {
	case STTWhisper, STTNone:
	case STTOpenAI:
		if c.OpenAIKey == "" {
			return errors.New("OPENAI_API_KEY not set")
		}
	default:
		return fmt.Errorf("invalid stt engine %q (want whisper, openai or none)", c.STT)
	}

	if _, ok := logLevelMap[c.LogLevel]; !ok {
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return nil
}
