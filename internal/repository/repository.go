// Package repository is the metadata index: the file_objects table and the
// attachment_previews sidecar.
package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dharsanguruparan/careplanner/internal/model"
)

// ErrNotFound is returned when no row matches.
var ErrNotFound = errors.New("record not found")

// Index stores attachment records.
type Index interface {
	// List returns the owner's records in bucket, newest first. No match is
	// an empty slice, not an error.
	List(ctx context.Context, bucket string, owner model.Owner) ([]model.AttachmentRecord, error)
	// Insert stores rec and fills in the ID and CreatedAt assigned by the index.
	Insert(ctx context.Context, rec *model.AttachmentRecord) error
	Get(ctx context.Context, id string) (*model.AttachmentRecord, error)
}

// PreviewStore stores extracted-text previews.
type PreviewStore interface {
	SavePreview(ctx context.Context, p model.Preview) error
	GetPreview(ctx context.Context, attachmentID string) (*model.Preview, error)
}

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
