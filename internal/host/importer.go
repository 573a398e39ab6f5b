// Package host drives the chat host's import facility: it asks the host to
// pull a character by fullPath and hands the downloaded card to the host's
// file intake.
package host

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"chublink/internal/chub"
	"chublink/internal/config"
	"chublink/internal/metrics"
)

// ContentTypeCharacter is the only X-Custom-Content-Type tag we import.
const ContentTypeCharacter = "character"

// Status classifies the result of an import attempt.
type Status string

const (
	StatusImported    Status = "imported"
	StatusRejected    Status = "rejected"    // host answered non-2xx; fallback URL offered
	StatusFailed      Status = "failed"      // transport or invalid-response failure
	StatusUnsupported Status = "unsupported" // valid response, unknown content tag
)

// Outcome describes what happened to one import request.
type Outcome struct {
	Status      Status
	Filename    string
	ContentType string
	FallbackURL string // set on rejection: the character's public page
	Err         error
}

// FileIntake is the host facility that receives downloaded files.
type FileIntake interface {
	ImportCharacter(ctx context.Context, filename string, data io.Reader) error
}

// History records import attempts; satisfied by settings.Store.
type History interface {
	RecordImport(ctx context.Context, fullPath, filename, contentType string, status string) error
}

// Importer sends import requests to the host application.
type Importer struct {
	http    *http.Client
	log     *logrus.Logger
	baseURL string
	token   string
	intake  FileIntake
	history History

	// Progress, when set, wraps the body download (the CLI attaches a
	// progress bar). Receives the Content-Length, which may be -1.
	Progress func(total int64) io.Writer
}

// NewImporter builds an importer from the host section of the config.
func NewImporter(cfg config.HostConfig, log *logrus.Logger, intake FileIntake, history History) *Importer {
	return &Importer{
		http:    &http.Client{Timeout: time.Duration(cfg.TimeoutSec) * time.Second},
		log:     log,
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		intake:  intake,
		history: history,
	}
}

// Import asks the host to import the character identified by fullPath.
// Transport failures carry no fallback (indistinguishable from a dead
// network); host rejections do.
func (im *Importer) Import(ctx context.Context, fullPath string) Outcome {
	out := im.run(ctx, fullPath)
	im.record(ctx, fullPath, out)
	metrics.ImportsTotal.WithLabelValues(string(out.Status)).Inc()
	return out
}

func (im *Importer) run(ctx context.Context, fullPath string) Outcome {
	body := bytes.NewBufferString(fmt.Sprintf(`{"url":%q}`, fullPath))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, im.baseURL+"/api/content/importUUID", body)
	if err != nil {
		return Outcome{Status: StatusFailed, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if im.token != "" {
		req.Header.Set("Authorization", "Bearer "+im.token)
	}

	resp, err := im.http.Do(req)
	if err != nil {
		im.log.WithError(err).Warn("host.import.transport_failed")
		return Outcome{Status: StatusFailed, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		im.log.WithFields(logrus.Fields{
			"status":   resp.StatusCode,
			"fullPath": fullPath,
		}).Warn("host.import.rejected")
		return Outcome{
			Status:      StatusRejected,
			FallbackURL: chub.PublicPageURL(fullPath),
			Err:         fmt.Errorf("host rejected import with status %d", resp.StatusCode),
		}
	}

	filename, err := filenameFrom(resp.Header.Get("Content-Disposition"))
	if err != nil {
		return Outcome{Status: StatusFailed, Err: fmt.Errorf("invalid import response: %w", err)}
	}
	tag := resp.Header.Get("X-Custom-Content-Type")
	if tag == "" {
		return Outcome{Status: StatusFailed, Err: fmt.Errorf("invalid import response: missing X-Custom-Content-Type header")}
	}

	var payload bytes.Buffer
	sink := io.Writer(&payload)
	if im.Progress != nil {
		sink = io.MultiWriter(sink, im.Progress(resp.ContentLength))
	}
	if _, err := io.Copy(sink, resp.Body); err != nil {
		return Outcome{Status: StatusFailed, Err: fmt.Errorf("download body: %w", err)}
	}

	if tag != ContentTypeCharacter {
		im.log.WithField("content_type", tag).Warn("host.import.unsupported_type")
		return Outcome{Status: StatusUnsupported, Filename: filename, ContentType: tag}
	}

	if err := im.intake.ImportCharacter(ctx, filename, &payload); err != nil {
		return Outcome{Status: StatusFailed, Filename: filename, ContentType: tag, Err: fmt.Errorf("file intake: %w", err)}
	}

	im.log.WithFields(logrus.Fields{
		"fullPath": fullPath,
		"filename": filename,
	}).Info("host.import.completed")
	return Outcome{Status: StatusImported, Filename: filename, ContentType: tag}
}

func (im *Importer) record(ctx context.Context, fullPath string, out Outcome) {
	if im.history == nil {
		return
	}
	if err := im.history.RecordImport(ctx, fullPath, out.Filename, out.ContentType, string(out.Status)); err != nil {
		im.log.WithError(err).Warn("host.import.history_write_failed")
	}
}

// filenameFrom recovers the filename token from a Content-Disposition
// header. An absent or unparsable header is an error, not a silent no-op.
func filenameFrom(disposition string) (string, error) {
	if disposition == "" {
		return "", fmt.Errorf("missing Content-Disposition header")
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return "", fmt.Errorf("bad Content-Disposition %q: %w", disposition, err)
	}
	name := params["filename"]
	if name == "" {
		return "", fmt.Errorf("Content-Disposition %q carries no filename", disposition)
	}
	return name, nil
}
