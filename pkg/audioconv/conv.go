// Package audioconv turns audio files into the mono 16 kHz float32 PCM the
// transcribers expect, and back into WAV for engines that want a file.
package audioconv

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	popus "github.com/pekim/opus"
)

const TargetRate = 16000

type Options struct {
	MaxSamples int // 0 keeps everything
}

// pcm is interleaved float32 audio before mixing down.
type pcm struct {
	samples  []float32
	channels int
	rate     int
}

// DecodeFile reads a wav, mp3 or ogg (vorbis/opus) file. The container is
// sniffed from the content, not the name.
func DecodeFile(_ context.Context, path string, opt Options) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return nil, fmt.Errorf("detect %s: %w", path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	var p pcm
	switch {
	case mt.Is("audio/wav"):
		p, err = decodeWAV(f)
	case mt.Is("audio/mpeg"):
		p, err = decodeMP3(f)
	case mt.Is("audio/ogg"), mt.Is("application/ogg"), strings.Contains(mt.String(), "opus"):
		p, err = decodeOgg(f)
	default:
		return nil, fmt.Errorf("unsupported audio type %s (supported: wav, mp3, ogg vorbis/opus)", mt.String())
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", mt.String(), err)
	}

	return p.toMono16k(opt), nil
}

func (p pcm) toMono16k(opt Options) []float32 {
	x := downmixInterleaved(p.samples, p.channels)
	x = resampleLinear(x, p.rate, TargetRate)
	if opt.MaxSamples > 0 && len(x) > opt.MaxSamples {
		x = x[:opt.MaxSamples]
	}
	return x
}

func decodeWAV(r io.ReadSeeker) (pcm, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return pcm{}, errors.New("invalid wav")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return pcm{}, err
	}
	if buf == nil || len(buf.Data) == 0 {
		return pcm{}, errors.New("empty wav")
	}

	depth := int(dec.BitDepth)
	if depth == 0 {
		depth = 16
	}
	p := pcm{samples: intSliceToFloat32(buf.Data, depth), channels: 1, rate: 44100}
	if buf.Format != nil {
		if buf.Format.NumChannels > 0 {
			p.channels = buf.Format.NumChannels
		}
		if buf.Format.SampleRate > 0 {
			p.rate = buf.Format.SampleRate
		}
	}
	return p, nil
}

func decodeMP3(r io.Reader) (pcm, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return pcm{}, err
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return pcm{}, err
	}
	ints := make([]int16, len(raw)/2)
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &ints); err != nil {
		return pcm{}, err
	}

	rate := dec.SampleRate()
	if rate <= 0 {
		rate = 44100
	}
	// go-mp3 always produces 16-bit stereo.
	return pcm{samples: int16SliceToFloat32(ints), channels: 2, rate: rate}, nil
}

// decodeOgg tries Vorbis first and falls back to Opus.
func decodeOgg(r io.ReadSeeker) (pcm, error) {
	samples, format, verr := oggvorbis.ReadAll(r)
	if verr == nil && format != nil && format.Channels > 0 && format.SampleRate > 0 {
		return pcm{samples: samples, channels: format.Channels, rate: format.SampleRate}, nil
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return pcm{}, err
	}
	p, oerr := decodeOpus(r)
	if oerr != nil {
		return pcm{}, fmt.Errorf("not vorbis (%v) nor opus: %w", verr, oerr)
	}
	return p, nil
}

func decodeOpus(r io.ReadSeeker) (pcm, error) {
	dec, err := popus.NewDecoder(r)
	if err != nil {
		return pcm{}, err
	}
	defer dec.Destroy()

	ch := dec.ChannelCount()
	if ch <= 0 {
		ch = 1
	}

	var (
		out []float32
		buf = make([]int16, 48_000*ch/2)
	)
	for {
		n, err := dec.Read(buf) // samples per channel
		if n > 0 {
			out = append(out, int16SliceToFloat32(buf[:n*ch])...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return pcm{}, err
		}
	}
	if len(out) == 0 {
		return pcm{}, errors.New("empty opus stream")
	}
	// Opus always decodes at 48 kHz.
	return pcm{samples: out, channels: ch, rate: 48000}, nil
}
