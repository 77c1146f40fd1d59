package session

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentIsStable(t *testing.T) {
	s := NewStore(nil)

	first := s.Current()
	second := s.Current()

	require.NotEmpty(t, first.ID)
	assert.Equal(t, first, second)
	_, err := uuid.Parse(first.ID)
	assert.NoError(t, err)
}

func TestCurrentLoadsPersisted(t *testing.T) {
	p := &MemoryPersister{}
	require.NoError(t, p.Save("abc"))

	assert.Equal(t, "abc", NewStore(p).Current().ID)
}

func TestCurrentPersistsNewSession(t *testing.T) {
	p := &MemoryPersister{}
	id := NewStore(p).Current().ID

	stored, err := p.Load()
	require.NoError(t, err)
	assert.Equal(t, id, stored)
}

func TestResetReplacesSession(t *testing.T) {
	p := &MemoryPersister{}
	s := NewStore(p)

	before := s.Current()
	after := s.Reset()

	assert.NotEqual(t, before.ID, after.ID)
	assert.Equal(t, after, s.Current())
	for i := 0; i < 10; i++ {
		assert.NotEqual(t, before.ID, s.Reset().ID)
	}

	stored, _ := p.Load()
	assert.Equal(t, s.Current().ID, stored)
}

func TestAdopt(t *testing.T) {
	p := &MemoryPersister{}
	s := NewStore(p)
	cur := s.Current()

	assert.False(t, s.Adopt(""))
	assert.False(t, s.Adopt(cur.ID))
	assert.True(t, s.Adopt("server-issued"))
	assert.Equal(t, "server-issued", s.Current().ID)

	stored, _ := p.Load()
	assert.Equal(t, "server-issued", stored)
}

type failingPersister struct{}

func (failingPersister) Load() (string, error) { return "", errors.New("disk gone") }
func (failingPersister) Save(string) error     { return errors.New("disk gone") }

func TestPersistenceFailureKeepsSessionInMemory(t *testing.T) {
	s := NewStore(failingPersister{})

	id := s.Current().ID
	require.NotEmpty(t, id)
	assert.Equal(t, id, s.Current().ID)
	assert.NotEqual(t, id, s.Reset().ID)
}

func TestConcurrentAccess(t *testing.T) {
	s := NewStore(nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func() { defer wg.Done(); _ = s.Current() }()
		go func() { defer wg.Done(); _ = s.Reset() }()
		go func() { defer wg.Done(); _ = s.Adopt(uuid.NewString()) }()
	}
	wg.Wait()

	assert.NotEmpty(t, s.Current().ID)
}

func TestPrefsSurviveRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.yaml")

	first := NewStore(NewPrefsPersister(NewPrefs(path))).Current()

	restarted := NewStore(NewPrefsPersister(NewPrefs(path)))
	assert.Equal(t, first, restarted.Current())

	reset := restarted.Reset()
	assert.Equal(t, reset, NewStore(NewPrefsPersister(NewPrefs(path))).Current())
}

func TestPrefsKeepOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	prefs := NewPrefs(path)

	require.NoError(t, prefs.Set("voice", "en"))
	require.NoError(t, prefs.Set(SessionKey, "s1"))

	voice, err := prefs.Get("voice")
	require.NoError(t, err)
	assert.Equal(t, "en", voice)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "session: s1")
}

func TestPrefsMissingFile(t *testing.T) {
	v, err := NewPrefs(filepath.Join(t.TempDir(), "none.yaml")).Get(SessionKey)
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestPrefsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- a\n- b\n"), 0o600))

	_, err := NewPrefs(path).Get(SessionKey)
	assert.ErrorIs(t, err, ErrCorrupt)

	store := NewStore(NewPrefsPersister(NewPrefs(path)))
	first := store.Current()
	reset := store.Reset()
	require.NotEqual(t, first, reset)

	restarted := NewStore(NewPrefsPersister(NewPrefs(path)))
	assert.Equal(t, reset, restarted.Current())
}

func TestPrefsSetFailsOnUnreadableFile(t *testing.T) {
	dir := t.TempDir()
	// A directory where the file should be is not corruption; Set must not clobber it.
	path := filepath.Join(dir, "prefs.yaml")
	require.NoError(t, os.Mkdir(path, 0o700))

	err := NewPrefs(path).Set(SessionKey, "abc")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCorrupt)
}
