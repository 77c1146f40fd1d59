package backend

import (
	"context"
	"fmt"
	"io"
	log "log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"

	"secondbrain/internal/media"
)

const uploadKind = "Journal"

// Upload sends a cached media file to the journal as a multipart form.
func (c *Client) Upload(ctx context.Context, f media.File) Outcome {
	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeUploadForm(form, f))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("upload"), pr)
	if err != nil {
		pr.Close()
		return Failure("Upload error: "+err.Error(), "Upload error.")
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	status, _, err := c.do(req)
	pr.Close()
	if err != nil {
		log.Error("Upload failed", "file", f.Name(), "err", err)
		return Failure("Upload error: "+err.Error(), "Upload error.")
	}

	if !isSuccess(status) {
		log.Warn("Upload rejected", "file", f.Name(), "status", status)
		return Failure(fmt.Sprintf("Upload failed (%d).", status), "Upload failed.")
	}

	log.Info("Media uploaded", "file", f.Name(), "mime", f.MIME)
	return Success("Media uploaded.", "Media uploaded.")
}

func writeUploadForm(form *multipart.Writer, f media.File) error {
	src, err := os.Open(f.Path)
	if err != nil {
		return fmt.Errorf("open media: %w", err)
	}
	defer src.Close()

	mime := f.MIME
	if mime == "" {
		mime = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, f.Name()))
	h.Set("Content-Type", mime)

	part, err := form.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("copy media: %w", err)
	}

	if err := form.WriteField("kind", uploadKind); err != nil {
		return err
	}
	if err := form.WriteField("caption", caption(f)); err != nil {
		return err
	}
	return form.Close()
}

func caption(f media.File) string {
	if f.IsVideo() {
		return "Video from secondbrain"
	}
	return "Photo from secondbrain"
}
