package attachments

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dharsanguruparan/careplanner/internal/model"
)

// Backend is what a Panel drives. *Service satisfies it.
type Backend interface {
	List(ctx context.Context, owner model.Owner) ([]model.AttachmentRecord, error)
	Upload(ctx context.Context, owner model.Owner, f *File) (*model.AttachmentRecord, error)
	SignedURL(ctx context.Context, rec model.AttachmentRecord) (string, error)
}

// Panel holds the state of one documents panel: the owner being shown, the
// file picked for upload, the listed rows and a single error message.
//
// Every list load takes a number from gen; when it returns, the result is
// dropped unless no newer load has started since. In-flight calls are never
// cancelled, only ignored.
type Panel struct {
	backend Backend
	gen     atomic.Uint64

	mu       sync.Mutex
	owner    model.Owner
	selected *File
	busy     bool
	errMsg   string
	rows     []model.AttachmentRecord
}

// NewPanel returns an empty panel.
func NewPanel(backend Backend) *Panel {
	return &Panel{backend: backend}
}

// SetOwner switches the panel to owner and reloads the list.
func (p *Panel) SetOwner(ctx context.Context, owner model.Owner) error {
	p.mu.Lock()
	p.owner = owner
	p.mu.Unlock()
	return p.Refresh(ctx)
}

// Refresh reloads the list for the current owner. On failure the message is
// recorded and the previous rows are kept. A result overtaken by a newer
// load is discarded and Refresh returns nil.
func (p *Panel) Refresh(ctx context.Context) error {
	p.mu.Lock()
	gen := p.gen.Add(1)
	owner := p.owner
	p.errMsg = ""
	p.mu.Unlock()

	rows, err := p.backend.List(ctx, owner)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen.Load() {
		return nil
	}
	if err != nil {
		p.errMsg = err.Error()
		return err
	}
	if rows == nil {
		rows = []model.AttachmentRecord{}
	}
	p.rows = rows
	return nil
}

// Select picks the file the next Upload sends. nil clears the selection.
func (p *Panel) Select(f *File) {
	p.mu.Lock()
	p.selected = f
	p.mu.Unlock()
}

// Upload sends the selected file. Without a selection it does nothing. While
// an upload is running further calls get ErrBusy. On success the selection is
// cleared and the list refreshed; on failure the selection is kept and the
// message recorded.
func (p *Panel) Upload(ctx context.Context) (*model.AttachmentRecord, error) {
	p.mu.Lock()
	if p.selected == nil {
		p.mu.Unlock()
		return nil, nil
	}
	if p.busy {
		p.mu.Unlock()
		return nil, ErrBusy
	}
	p.busy = true
	p.errMsg = ""
	f, owner := p.selected, p.owner
	p.mu.Unlock()

	rec, err := p.backend.Upload(ctx, owner, f)

	p.mu.Lock()
	p.busy = false
	if err != nil {
		p.errMsg = message(err, "Upload failed")
		p.mu.Unlock()
		return nil, err
	}
	p.selected = nil
	p.mu.Unlock()

	// The upload itself succeeded; a failed reload only sets the message.
	_ = p.Refresh(ctx)
	return rec, nil
}

// Download resolves a signed URL for rec. On failure the message is recorded
// and no URL is returned.
func (p *Panel) Download(ctx context.Context, rec model.AttachmentRecord) (string, error) {
	u, err := p.backend.SignedURL(ctx, rec)
	if err == nil && u == "" {
		err = ErrEmptyURL
	}
	if err != nil {
		p.mu.Lock()
		p.errMsg = message(err, "Could not create download URL")
		p.mu.Unlock()
		return "", err
	}
	return u, nil
}

// Rows returns a copy of the listed records.
func (p *Panel) Rows() []model.AttachmentRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.AttachmentRecord, len(p.rows))
	copy(out, p.rows)
	return out
}

// Err returns the current error message, or "".
func (p *Panel) Err() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.errMsg
}

// Busy reports whether an upload is in flight.
func (p *Panel) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.busy
}

// Selected returns the file picked for upload, if any.
func (p *Panel) Selected() *File {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selected
}

// Owner returns the owner the panel is showing.
func (p *Panel) Owner() model.Owner {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.owner
}

func message(err error, fallback string) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
