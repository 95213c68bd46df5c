package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/dharsanguruparan/careplanner/internal/model"
)

const (
	// PreviewAttachmentTask is scheduled each time an attachment is registered.
	PreviewAttachmentTask = "attachment:preview"
)

// PreviewPayload is serialized into the task payload so the worker knows which
// blob to fetch.
type PreviewPayload struct {
	AttachmentID string `json:"attachment_id"`
	Bucket       string `json:"bucket"`
	Path         string `json:"path"`
	FileType     string `json:"file_type,omitempty"`
}

// NewPreviewTask builds the asynq task for rec.
func NewPreviewTask(rec model.AttachmentRecord) (*asynq.Task, error) {
	payload := PreviewPayload{
		AttachmentID: rec.ID,
		Bucket:       rec.Bucket,
		Path:         rec.Path,
	}
	if rec.FileType != nil {
		payload.FileType = *rec.FileType
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(PreviewAttachmentTask, data), nil
}

// Publisher enqueues preview jobs. It satisfies attachments.PreviewQueue.
type Publisher struct {
	client *asynq.Client
}

// NewPublisher wraps an asynq client.
func NewPublisher(client *asynq.Client) *Publisher {
	return &Publisher{client: client}
}

// EnqueuePreview enqueues a text-extraction job for rec.
func (p *Publisher) EnqueuePreview(ctx context.Context, rec model.AttachmentRecord) error {
	task, err := NewPreviewTask(rec)
	if err != nil {
		return err
	}
	if _, err := p.client.EnqueueContext(ctx, task, asynq.MaxRetry(5)); err != nil {
		return fmt.Errorf("enqueue preview task: %w", err)
	}
	return nil
}
