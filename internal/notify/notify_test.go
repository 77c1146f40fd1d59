package notify

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/fatih/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secondbrain/internal/backend"
)

func TestConsole(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.Status("Listening...")
	c.Present(backend.Success("Logged 5 on Food.", "Logged 5 on Food."))
	c.Present(backend.Failure("[404] Couldn't log the expense.", "Request failed."))

	assert.Equal(t, "Listening...\n✔ Logged 5 on Food.\n✘ [404] Couldn't log the expense.\n", buf.String())
}

type fakeSpeaker struct {
	mu     sync.Mutex
	said   []string
	flushd []bool
}

func (f *fakeSpeaker) Speak(text string, flush bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.said = append(f.said, text)
	f.flushd = append(f.flushd, flush)
	return nil
}

func TestVoiceSpeaksWithFlush(t *testing.T) {
	sp := &fakeSpeaker{}
	v := NewVoice(sp)

	v.Status("Listening...")
	v.Present(backend.Failure("Network error: dial tcp", "Network error."))

	assert.Equal(t, []string{"Network error."}, sp.said)
	assert.Equal(t, []bool{true}, sp.flushd)
}

type recordingPresenter struct {
	calls []string
}

func (r *recordingPresenter) Status(text string)        { r.calls = append(r.calls, "status:"+text) }
func (r *recordingPresenter) Present(o backend.Outcome) { r.calls = append(r.calls, "outcome:"+o.DisplayText) }

func TestMulti(t *testing.T) {
	a, b := &recordingPresenter{}, &recordingPresenter{}
	m := Multi{a, b}

	m.Status("s")
	m.Present(backend.Success("d", "d"))

	assert.Equal(t, []string{"status:s", "outcome:d"}, a.calls)
	assert.Equal(t, a.calls, b.calls)
}

func TestRelay(t *testing.T) {
	frames := make(chan RelayMessage, 4)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		defer conn.Close()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				close(frames)
				return
			}
			var m RelayMessage
			if assert.NoError(t, json.Unmarshal(data, &m)) {
				frames <- m
			}
		}
	}))
	defer srv.Close()

	r, err := DialRelay("ws"+strings.TrimPrefix(srv.URL, "http"), "secondbrain")
	require.NoError(t, err)

	r.Status("Processing...")
	r.Present(backend.Success("Media uploaded.", "Media uploaded."))

	first := <-frames
	assert.Equal(t, "status", first.Kind)
	assert.Equal(t, "Processing...", first.Content)
	assert.Equal(t, "secondbrain", first.From)

	second := <-frames
	assert.Equal(t, "outcome", second.Kind)
	require.NotNil(t, second.Outcome)
	assert.True(t, second.Outcome.Success)

	require.NoError(t, r.Close())
}
