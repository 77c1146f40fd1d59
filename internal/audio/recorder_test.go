package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFrameRMS(t *testing.T) {
	assert.Equal(t, 0.0, frameRMS(make([]float32, frameSize)))

	loud := make([]float32, frameSize)
	for i := range loud {
		loud[i] = 0.5
	}
	assert.InDelta(t, 0.5, frameRMS(loud), 1e-9)
}

func TestNewRecorderDefaults(t *testing.T) {
	r := NewRecorder(Options{MaxLength: 3 * time.Second})

	assert.Equal(t, 3*time.Second, r.opt.MaxLength)
	assert.Equal(t, DefaultOptions().SilenceRMS, r.opt.SilenceRMS)
	assert.Equal(t, DefaultOptions().TrailSilence, r.opt.TrailSilence)
}
