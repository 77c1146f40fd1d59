package audioconv

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// EncodeWAV writes mono 16 kHz PCM as a 16-bit WAV file.
func EncodeWAV(w io.WriteSeeker, pcm16k []float32) error {
	enc := wav.NewEncoder(w, TargetRate, 16, 1, 1)

	data := make([]int, len(pcm16k))
	for i, x := range pcm16k {
		data[i] = float32ToInt16(x)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: TargetRate},
		Data:           data,
		SourceBitDepth: 16,
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	return enc.Close()
}

// WAVBytes encodes pcm16k in memory.
func WAVBytes(pcm16k []float32) ([]byte, error) {
	var b memFile
	if err := EncodeWAV(&b, pcm16k); err != nil {
		return nil, err
	}
	return b.data, nil
}

// memFile is the in-memory io.WriteSeeker the wav encoder needs to patch
// its header sizes.
type memFile struct {
	data []byte
	pos  int
}

func (m *memFile) Write(p []byte) (int, error) {
	if end := m.pos + len(p); end > len(m.data) {
		m.data = append(m.data, make([]byte, end-len(m.data))...)
	}
	n := copy(m.data[m.pos:], p)
	m.pos += n
	return n, nil
}

func (m *memFile) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(m.pos) + offset
	case io.SeekEnd:
		abs = int64(len(m.data)) + offset
	default:
		return 0, errors.New("invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("negative position")
	}
	m.pos = int(abs)
	return abs, nil
}
