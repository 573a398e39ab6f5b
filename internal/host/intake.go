package host

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// DirIntake drops imported cards into a local directory. Used by the CLI
// when no host intake endpoint is configured.
type DirIntake struct {
	Dir string
}

func (d DirIntake) ImportCharacter(_ context.Context, filename string, data io.Reader) error {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return err
	}
	// strip any path the remote smuggled into the filename
	target := filepath.Join(d.Dir, filepath.Base(strings.ReplaceAll(filename, "\\", "/")))
	f, err := os.Create(target)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(f, data); err != nil {
		return err
	}
	return f.Sync()
}

// HTTPIntake forwards imported cards to the host's file-intake endpoint as
// a multipart upload.
type HTTPIntake struct {
	Client *http.Client
	URL    string
	Token  string
}

func (h HTTPIntake) ImportCharacter(ctx context.Context, filename string, data io.Reader) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("avatar", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, data); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.URL, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if h.Token != "" {
		req.Header.Set("Authorization", "Bearer "+h.Token)
	}

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("intake endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
