package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dharsanguruparan/careplanner/internal/model"
)

const attachmentColumns = `id::text, bucket, path, COALESCE(title, ''), file_type, file_size,
	related_entity_type, related_entity_id, created_at`

// invalidTextRepresentation is raised when a non-UUID string is compared to
// the id column.
const invalidTextRepresentation = "22P02"

// AttachmentRepository wraps all SQL used by the API, worker and CLI.
type AttachmentRepository struct {
	db DBTX
}

// NewAttachmentRepository constructs a repository.
func NewAttachmentRepository(db DBTX) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

// List returns the owner's attachments, most recent first.
func (r *AttachmentRepository) List(ctx context.Context, bucket string, owner model.Owner) ([]model.AttachmentRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+attachmentColumns+`
		FROM file_objects
		WHERE bucket=$1 AND related_entity_type=$2 AND related_entity_id=$3
		ORDER BY created_at DESC
	`, bucket, string(owner.Kind()), owner.ID())
	if err != nil {
		return nil, fmt.Errorf("select attachments: %w", err)
	}
	defer rows.Close()

	out := []model.AttachmentRecord{}
	for rows.Next() {
		rec, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attachments: %w", err)
	}
	return out, nil
}

// Insert adds the row; the database assigns id and created_at.
func (r *AttachmentRepository) Insert(ctx context.Context, rec *model.AttachmentRecord) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO file_objects (bucket, path, title, file_type, file_size, related_entity_type, related_entity_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id::text, created_at
	`, rec.Bucket, rec.Path, rec.Title, rec.FileType, rec.FileSize, string(rec.Owner.Kind()), rec.Owner.ID())
	if err := row.Scan(&rec.ID, &rec.CreatedAt); err != nil {
		return fmt.Errorf("insert attachment: %w", err)
	}
	return nil
}

// Get returns an attachment by id.
func (r *AttachmentRepository) Get(ctx context.Context, id string) (*model.AttachmentRecord, error) {
	row := r.db.QueryRow(ctx, `SELECT `+attachmentColumns+` FROM file_objects WHERE id=$1`, id)
	rec, err := scanAttachment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return nil, fmt.Errorf("attachment %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return rec, nil
}

// SavePreview upserts the preview for an attachment.
func (r *AttachmentRepository) SavePreview(ctx context.Context, p model.Preview) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO attachment_previews (attachment_id, status, content, error_message, updated_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (attachment_id) DO UPDATE
		SET status=EXCLUDED.status,
			content=EXCLUDED.content,
			error_message=EXCLUDED.error_message,
			updated_at=EXCLUDED.updated_at
	`, p.AttachmentID, string(p.Status), nullable(p.Content), nullable(p.Error), p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save preview: %w", err)
	}
	return nil
}

// GetPreview returns the preview for an attachment.
func (r *AttachmentRepository) GetPreview(ctx context.Context, attachmentID string) (*model.Preview, error) {
	var p model.Preview
	row := r.db.QueryRow(ctx, `
		SELECT attachment_id::text, status, COALESCE(content,''), COALESCE(error_message,''), updated_at
		FROM attachment_previews WHERE attachment_id=$1
	`, attachmentID)
	if err := row.Scan(&p.AttachmentID, &p.Status, &p.Content, &p.Error, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return nil, fmt.Errorf("preview %s: %w", attachmentID, ErrNotFound)
		}
		return nil, fmt.Errorf("select preview: %w", err)
	}
	return &p, nil
}

func scanAttachment(row pgx.Row) (*model.AttachmentRecord, error) {
	var (
		rec       model.AttachmentRecord
		ownerKind string
		ownerID   string
	)
	if err := row.Scan(&rec.ID, &rec.Bucket, &rec.Path, &rec.Title, &rec.FileType, &rec.FileSize, &ownerKind, &ownerID, &rec.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan attachment: %w", err)
	}
	owner, err := model.ParseOwner(ownerKind, ownerID)
	if err != nil {
		return nil, fmt.Errorf("attachment %s: %w", rec.ID, err)
	}
	rec.Owner = owner
	return &rec, nil
}

func isInvalidUUID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentation
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
