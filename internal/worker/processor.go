// Package worker runs preview extraction jobs off the asynq queue.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"

	"github.com/dharsanguruparan/careplanner/internal/model"
	"github.com/dharsanguruparan/careplanner/internal/preview"
	"github.com/dharsanguruparan/careplanner/internal/queue"
	"github.com/dharsanguruparan/careplanner/internal/repository"
	"github.com/dharsanguruparan/careplanner/internal/storage"
)

var previewsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "careplanner_previews_total",
	Help: "Preview jobs by final status.",
}, []string{"status"})

// Processor is plugged into the asynq worker loop.
type Processor struct {
	store    storage.ObjectStore
	previews repository.PreviewStore
	log      logrus.FieldLogger
	maxBytes int64
	now      func() time.Time
}

// NewProcessor constructs a worker processor. Blobs larger than maxBytes are
// marked unsupported without being read; zero disables the limit.
func NewProcessor(store storage.ObjectStore, previews repository.PreviewStore, log logrus.FieldLogger, maxBytes int64) *Processor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Processor{store: store, previews: previews, log: log, maxBytes: maxBytes, now: time.Now}
}

// Handler registers the preview job handler.
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.PreviewAttachmentTask, p.HandlePreview)
	return mux
}

// HandlePreview fetches the blob named in the task and stores its text.
// Failures that a retry cannot fix are wrapped in asynq.SkipRetry.
func (p *Processor) HandlePreview(ctx context.Context, task *asynq.Task) error {
	var payload queue.PreviewPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	log := p.log.WithFields(logrus.Fields{"attachment_id": payload.AttachmentID, "path": payload.Path})

	if err := p.save(ctx, payload.AttachmentID, model.PreviewProcessing, "", ""); err != nil {
		return err
	}

	text, err := p.extract(ctx, payload)
	switch {
	case errors.Is(err, preview.ErrUnsupported):
		log.Debug("no preview for content type")
		return p.finish(ctx, payload.AttachmentID, model.PreviewUnsupported, "", err.Error())
	case errors.Is(err, storage.ErrObjectNotFound):
		log.WithError(err).Warn("attachment blob missing")
		if saveErr := p.finish(ctx, payload.AttachmentID, model.PreviewFailed, "", err.Error()); saveErr != nil {
			return saveErr
		}
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	case err != nil:
		log.WithError(err).Error("preview extraction failed")
		if saveErr := p.finish(ctx, payload.AttachmentID, model.PreviewFailed, "", err.Error()); saveErr != nil {
			return saveErr
		}
		return err
	}

	log.WithField("bytes", len(text)).Info("attachment preview stored")
	return p.finish(ctx, payload.AttachmentID, model.PreviewComplete, text, "")
}

func (p *Processor) extract(ctx context.Context, payload queue.PreviewPayload) (string, error) {
	body, info, err := p.store.Get(ctx, payload.Bucket, payload.Path)
	if err != nil {
		return "", err
	}
	defer body.Close()
	if p.maxBytes > 0 && info.Size > p.maxBytes {
		return "", fmt.Errorf("%w: blob is %d bytes", preview.ErrUnsupported, info.Size)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read blob: %w", err)
	}
	contentType := payload.FileType
	if contentType == "" {
		contentType = info.ContentType
	}
	return preview.Extract(contentType, data)
}

func (p *Processor) finish(ctx context.Context, id string, status model.PreviewStatus, content, msg string) error {
	if err := p.save(ctx, id, status, content, msg); err != nil {
		return err
	}
	previewsTotal.WithLabelValues(string(status)).Inc()
	return nil
}

func (p *Processor) save(ctx context.Context, id string, status model.PreviewStatus, content, msg string) error {
	err := p.previews.SavePreview(ctx, model.Preview{
		AttachmentID: id,
		Status:       status,
		Content:      content,
		Error:        msg,
		UpdatedAt:    p.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("save preview %s: %w", status, err)
	}
	return nil
}
