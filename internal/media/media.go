// Package media turns a picked photo or video into a local file ready for
// upload.
package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// ErrRead marks failures to read or copy the picked media. Nothing has been
// sent to the backend when it is returned.
var ErrRead = errors.New("failed to read media")

type File struct {
	Path string
	MIME string
}

func (f File) Name() string { return filepath.Base(f.Path) }

func (f File) IsVideo() bool { return strings.HasPrefix(f.MIME, "video/") }

// Remove deletes the cached copy.
func (f File) Remove() error { return os.Remove(f.Path) }

var extensions = []struct {
	marker string
	ext    string
}{
	{"jpeg", ".jpg"},
	{"png", ".png"},
	{"webp", ".webp"},
	{"mp4", ".mp4"},
	{"quicktime", ".mov"},
	{"webm", ".webm"},
}

// Extension picks the cache file extension for a MIME type. Unknown types
// get none.
func Extension(mime string) string {
	mime = strings.ToLower(mime)
	for _, e := range extensions {
		if strings.Contains(mime, e.marker) {
			return e.ext
		}
	}
	return ""
}

// Prepare copies src into dir as upload_<unix millis>-<random><ext>. An
// empty mime is sniffed from the content.
func Prepare(src, mime, dir string) (File, error) {
	in, err := os.Open(src)
	if err != nil {
		return File{}, fmt.Errorf("%w: %w", ErrRead, err)
	}
	defer in.Close()

	if mime == "" {
		detected, err := mimetype.DetectReader(in)
		if err != nil {
			return File{}, fmt.Errorf("%w: detect type: %w", ErrRead, err)
		}
		mime = detected.String()
		if _, err := in.Seek(0, io.SeekStart); err != nil {
			return File{}, fmt.Errorf("%w: %w", ErrRead, err)
		}
	}

	if dir == "" {
		dir = os.TempDir()
	}
	pattern := fmt.Sprintf("upload_%d-*%s", time.Now().UnixMilli(), Extension(mime))

	out, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return File{}, fmt.Errorf("%w: %w", ErrRead, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(out.Name())
		return File{}, fmt.Errorf("%w: copy: %w", ErrRead, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(out.Name())
		return File{}, fmt.Errorf("%w: %w", ErrRead, err)
	}

	return File{Path: out.Name(), MIME: mime}, nil
}
