package audio

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/gordonklaus/portaudio"
)

const (
	SampleRate = 16000
	frameSize  = 320 // 20ms
)

var ErrNoAudio = errors.New("no audio recorded")

type Options struct {
	SilenceRMS   float64       // frames below this are silence
	TrailSilence time.Duration // silence that ends an utterance
	MaxLength    time.Duration
}

func DefaultOptions() Options {
	return Options{
		SilenceRMS:   0.015,
		TrailSilence: 600 * time.Millisecond,
		MaxLength:    10 * time.Second,
	}
}

// Recorder captures one utterance from the default input device as mono
// 16 kHz float32 PCM.
type Recorder struct {
	opt Options
}

func NewRecorder(opt Options) *Recorder {
	def := DefaultOptions()
	if opt.SilenceRMS <= 0 {
		opt.SilenceRMS = def.SilenceRMS
	}
	if opt.TrailSilence <= 0 {
		opt.TrailSilence = def.TrailSilence
	}
	if opt.MaxLength <= 0 {
		opt.MaxLength = def.MaxLength
	}
	return &Recorder{opt: opt}
}

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// Record starts capturing and returns once speech is followed by enough
// silence, MaxLength passes or ctx is done. Leading silence is dropped.
func (r *Recorder) Record(ctx context.Context) ([]float32, error) {
	buf := make([]float32, frameSize)

	stream, err := portaudio.OpenDefaultStream(1, 0, SampleRate, len(buf), buf)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, err
	}
	defer stream.Stop()

	frameDur := time.Second * frameSize / SampleRate
	maxFrames := int(r.opt.MaxLength / frameDur)
	trailFrames := int(r.opt.TrailSilence / frameDur)

	out := make([]float32, 0, SampleRate*3)
	speaking := false
	silent := 0

	for i := 0; i < maxFrames; i++ {
		if ctx.Err() != nil {
			break
		}
		if err := stream.Read(); err != nil {
			return nil, err
		}

		if frameRMS(buf) > r.opt.SilenceRMS {
			speaking = true
			silent = 0
			out = append(out, buf...)
			continue
		}
		if !speaking {
			continue
		}
		silent++
		if silent >= trailFrames {
			break
		}
		out = append(out, buf...)
	}

	if len(out) == 0 {
		return nil, ErrNoAudio
	}
	return out, nil
}

func frameRMS(f []float32) float64 {
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
