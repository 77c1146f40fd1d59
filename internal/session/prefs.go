package session

import (
	"errors"
	"fmt"
	"io/fs"
	log "log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// SessionKey is the prefs key holding the current session id.
const SessionKey = "session"

// ErrCorrupt means the prefs file exists but is not a YAML mapping.
var ErrCorrupt = errors.New("corrupt prefs file")

// Prefs is a small YAML key/value file. Writes replace the file atomically.
type Prefs struct {
	mu   sync.Mutex
	path string
}

func NewPrefs(path string) *Prefs {
	return &Prefs{path: path}
}

// DefaultPrefsPath is $XDG_CONFIG_HOME/secondbrain/prefs.yaml.
func DefaultPrefsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config dir: %w", err)
	}
	return filepath.Join(dir, "secondbrain", "prefs.yaml"), nil
}

func (p *Prefs) Get(key string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	values, err := p.read()
	if err != nil {
		return "", err
	}
	return values[key], nil
}

func (p *Prefs) Set(key, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	values, err := p.read()
	if errors.Is(err, ErrCorrupt) {
		// The rename below replaces the broken file.
		log.Warn("Overwriting unreadable prefs", "path", p.path, "err", err)
		values = make(map[string]string)
	} else if err != nil {
		return err
	}
	values[key] = value

	data, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p.path), ".prefs-*")
	if err != nil {
		return fmt.Errorf("create temp prefs: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close prefs: %w", err)
	}
	if err := os.Rename(tmp.Name(), p.path); err != nil {
		return fmt.Errorf("replace prefs: %w", err)
	}
	return nil
}

func (p *Prefs) read() (map[string]string, error) {
	values := make(map[string]string)

	data, err := os.ReadFile(p.path)
	if errors.Is(err, fs.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read prefs: %w", err)
	}

	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrCorrupt, p.path, err)
	}
	if values == nil {
		values = make(map[string]string)
	}
	return values, nil
}

// KeyPersister stores the session id under one prefs key.
type KeyPersister struct {
	Prefs *Prefs
	Key   string
}

func NewPrefsPersister(prefs *Prefs) KeyPersister {
	return KeyPersister{Prefs: prefs, Key: SessionKey}
}

func (k KeyPersister) Load() (string, error) { return k.Prefs.Get(k.Key) }

func (k KeyPersister) Save(id string) error { return k.Prefs.Set(k.Key, id) }
