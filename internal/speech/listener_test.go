package speech

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secondbrain/pkg/audioconv"
)

type fakeRecorder struct {
	pcm []float32
	err error
}

func (f fakeRecorder) Record(context.Context) ([]float32, error) { return f.pcm, f.err }

type fakeTranscriber struct {
	text string
	err  error
	got  int
}

func (f *fakeTranscriber) Transcribe(_ context.Context, pcm []float32) (string, error) {
	f.got = len(pcm)
	return f.text, f.err
}

func TestListen(t *testing.T) {
	tr := &fakeTranscriber{text: "  spent 5 on food "}
	l := NewListener(fakeRecorder{pcm: make([]float32, 320)}, tr)

	text, err := l.Listen(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "spent 5 on food", text)
	assert.Equal(t, 320, tr.got)
}

func TestListenNoSpeech(t *testing.T) {
	for _, text := range []string{"", "   ", "[BLANK_AUDIO]", " (music) "} {
		l := NewListener(fakeRecorder{pcm: make([]float32, 10)}, &fakeTranscriber{text: text})

		_, err := l.Listen(context.Background())
		assert.ErrorIs(t, err, ErrNoSpeech, text)
	}
}

func TestListenErrors(t *testing.T) {
	boom := errors.New("boom")

	_, err := NewListener(fakeRecorder{err: boom}, &fakeTranscriber{}).Listen(context.Background())
	assert.ErrorIs(t, err, boom)

	_, err = NewListener(fakeRecorder{pcm: []float32{1}}, &fakeTranscriber{err: boom}).Listen(context.Background())
	assert.ErrorIs(t, err, boom)

	_, err = NewListener(nil, &fakeTranscriber{}).Listen(context.Background())
	assert.Error(t, err)
}

func TestListenFile(t *testing.T) {
	data, err := audioconv.WAVBytes(make([]float32, 1600))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "note.wav")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	tr := &fakeTranscriber{text: "note buy milk"}
	text, err := NewListener(nil, tr).ListenFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "note buy milk", text)
	assert.Equal(t, 1600, tr.got)
}

func TestClean(t *testing.T) {
	assert.Equal(t, "habit gym yes", Clean(" habit  gym\n yes "))
	assert.Equal(t, "hello there", Clean("[BLANK_AUDIO] hello (coughs) there"))
}
