// Package model contains the attachment types shared across packages.
package model

import (
	"encoding/json"
	"math"
	"path"
	"strconv"
	"time"
)

// DefaultBucket is the object-store namespace care documents live in.
const DefaultBucket = "documents"

// AttachmentRecord is one row of the metadata index. Path must equal the key
// the blob was written under; that equality is what links the two stores.
// Records are written once and never updated.
type AttachmentRecord struct {
	ID        string
	Bucket    string
	Path      string
	Title     string
	FileType  *string
	FileSize  *int64
	Owner     Owner
	CreatedAt time.Time
}

// DisplayTitle returns the title, or the last path segment when the title is
// empty.
func (r AttachmentRecord) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return path.Base(r.Path)
}

type attachmentJSON struct {
	ID                string    `json:"id"`
	Bucket            string    `json:"bucket"`
	Path              string    `json:"path"`
	Title             string    `json:"title"`
	FileType          *string   `json:"fileType"`
	FileSize          *int64    `json:"fileSize"`
	RelatedEntityType OwnerKind `json:"relatedEntityType"`
	RelatedEntityID   string    `json:"relatedEntityId"`
	CreatedAt         time.Time `json:"createdAt"`
}

// MarshalJSON flattens the owner into the relatedEntityType/relatedEntityId
// pair API clients expect.
func (r AttachmentRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(attachmentJSON{
		ID:                r.ID,
		Bucket:            r.Bucket,
		Path:              r.Path,
		Title:             r.Title,
		FileType:          r.FileType,
		FileSize:          r.FileSize,
		RelatedEntityType: r.Owner.Kind(),
		RelatedEntityID:   r.Owner.ID(),
		CreatedAt:         r.CreatedAt,
	})
}

// UnmarshalJSON is the inverse of MarshalJSON; unknown owner kinds are
// rejected.
func (r *AttachmentRecord) UnmarshalJSON(data []byte) error {
	var raw attachmentJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	owner, err := ParseOwner(string(raw.RelatedEntityType), raw.RelatedEntityID)
	if err != nil {
		return err
	}
	*r = AttachmentRecord{
		ID:        raw.ID,
		Bucket:    raw.Bucket,
		Path:      raw.Path,
		Title:     raw.Title,
		FileType:  raw.FileType,
		FileSize:  raw.FileSize,
		Owner:     owner,
		CreatedAt: raw.CreatedAt,
	}
	return nil
}

// FormatKB renders a byte count the way the documents list shows it.
func FormatKB(size *int64) string {
	if size == nil || *size == 0 {
		return "0 KB"
	}
	kb := math.Round(float64(*size) / 1024)
	return strconv.FormatFloat(kb, 'f', 0, 64) + " KB"
}

// PreviewStatus describes the text-extraction lifecycle of an attachment.
type PreviewStatus string

const (
	PreviewQueued      PreviewStatus = "queued"
	PreviewProcessing  PreviewStatus = "processing"
	PreviewComplete    PreviewStatus = "complete"
	PreviewUnsupported PreviewStatus = "unsupported"
	PreviewFailed      PreviewStatus = "failed"
)

// Preview holds text extracted from an attachment by the worker. It lives in
// its own table so the attachment row itself is never touched.
type Preview struct {
	AttachmentID string        `json:"attachmentId"`
	Status       PreviewStatus `json:"status"`
	Content      string        `json:"content,omitempty"`
	Error        string        `json:"error,omitempty"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}
