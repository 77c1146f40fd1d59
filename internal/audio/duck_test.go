package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sinkInputs = `Sink Input #41
	Driver: protocol-native.c
	Volume: front-left: 52428 /  80% / -5.81 dB,   front-right: 52428 /  80% / -5.81 dB
	Properties:
		application.name = "Firefox"
Sink Input #57
	Volume: front-left: 65536 / 100% / 0.00 dB
	Properties:
		application.name = "brain-daemon"
Sink Input #60
	Volume: mono: 19661 /  30% / -31.37 dB
	Properties:
		application.name = "mpv"
Sink Input #bogus
	Volume: mono: 100%
`

// fakePactl keeps per-stream volumes and answers list/set like pactl.
type fakePactl struct {
	mu      sync.Mutex
	volumes map[int]int
	apps    map[int]string
	sets    int
}

func newFakePactl() *fakePactl {
	return &fakePactl{
		volumes: map[int]int{41: 80, 57: 100, 60: 30},
		apps:    map[int]string{41: "Firefox", 57: "brain-daemon", 60: "mpv"},
	}
}

func (f *fakePactl) run(_ context.Context, args ...string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch args[0] {
	case "list":
		var b strings.Builder
		for _, id := range []int{41, 57, 60} {
			if v, ok := f.volumes[id]; ok {
				fmt.Fprintf(&b, "Sink Input #%d\n\tVolume: mono: 1 / %d%% / 0 dB\n\t\tapplication.name = %q\n", id, v, f.apps[id])
			}
		}
		return []byte(b.String()), nil
	case "set-sink-input-volume":
		var id, v int
		fmt.Sscanf(args[1], "%d", &id)
		fmt.Sscanf(args[2], "%d%%", &v)
		f.volumes[id] = v
		f.sets++
		return nil, nil
	}
	return nil, errors.New("unexpected pactl call")
}

func newTestDucker(f *fakePactl) *Ducker {
	d := NewDucker(DuckOptions{Self: []string{"brain-daemon"}, Factor: 0.5, Floor: 20})
	d.run = f.run
	return d
}

func TestParseSinkInputs(t *testing.T) {
	assert.Equal(t, []sinkInput{
		{ID: 41, Volume: 80, AppName: "Firefox"},
		{ID: 57, Volume: 100, AppName: "brain-daemon"},
		{ID: 60, Volume: 30, AppName: "mpv"},
	}, parseSinkInputs(sinkInputs))

	assert.Empty(t, parseSinkInputs(""))
}

func TestDuckAndRestore(t *testing.T) {
	f := newFakePactl()
	d := newTestDucker(f)
	ctx := context.Background()

	require.NoError(t, d.Duck(ctx))
	assert.Equal(t, map[int]int{41: 40, 57: 100, 60: 20}, f.volumes)

	// Ducking twice must not save the lowered volumes.
	require.NoError(t, d.Duck(ctx))

	require.NoError(t, d.Restore(ctx))
	assert.Equal(t, map[int]int{41: 80, 57: 100, 60: 30}, f.volumes)
}

func TestRestoreSkipsClosedStreams(t *testing.T) {
	f := newFakePactl()
	d := newTestDucker(f)
	ctx := context.Background()

	require.NoError(t, d.Duck(ctx))
	f.mu.Lock()
	delete(f.volumes, 60)
	f.mu.Unlock()

	require.NoError(t, d.Restore(ctx))
	assert.Equal(t, map[int]int{41: 80, 57: 100}, f.volumes)
}

func TestRestoreWithoutDuck(t *testing.T) {
	f := newFakePactl()
	d := newTestDucker(f)

	require.NoError(t, d.Restore(context.Background()))
	assert.Zero(t, f.sets)
}

func TestDuckPactlMissing(t *testing.T) {
	d := newTestDucker(newFakePactl())
	d.run = func(context.Context, ...string) ([]byte, error) {
		return nil, errors.New("exec: \"pactl\": executable file not found in $PATH")
	}

	assert.Error(t, d.Duck(context.Background()))
	assert.NoError(t, d.Restore(context.Background()))
}
