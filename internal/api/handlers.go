package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dharsanguruparan/careplanner/internal/attachments"
	"github.com/dharsanguruparan/careplanner/internal/model"
)

type signedURLResponse struct {
	URL       string `json:"url"`
	ExpiresIn int64  `json:"expiresIn"`
}

func ownerParam(r *http.Request) (model.Owner, error) {
	return model.ParseOwner(chi.URLParam(r, "kind"), chi.URLParam(r, "id"))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerParam(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	rows, err := s.deps.Attachments.List(r.Context(), owner)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, rows)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerParam(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	// Leave headroom for the multipart envelope; persistTemp enforces the
	// limit on the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxFileSize+1<<20)
	mr, err := r.MultipartReader()
	if err != nil {
		s.respondJSON(w, http.StatusBadRequest, errorBody{Error: "expecting multipart form"})
		return
	}
	part, err := nextFilePart(mr)
	if err != nil {
		s.respondError(w, fmt.Errorf("%w: missing file part", attachments.ErrNoFile))
		return
	}
	defer part.Close()

	tmp, err := persistTemp(part, s.cfg.MaxFileSize)
	if err != nil {
		s.respondError(w, err)
		return
	}
	defer tmp.cleanup()

	rec, err := s.deps.Attachments.Upload(r.Context(), owner, &attachments.File{
		Name:        tmp.filename,
		ContentType: tmp.contentType,
		Size:        tmp.size,
		Body:        tmp.f,
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleSignedURL(w http.ResponseWriter, r *http.Request) {
	u, err := s.deps.Attachments.SignedURLByID(r.Context(), chi.URLParam(r, "attachmentID"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, signedURLResponse{
		URL:       u,
		ExpiresIn: int64(s.deps.Attachments.SignedURLTTL().Seconds()),
	})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if s.deps.Previews == nil {
		s.respondJSON(w, http.StatusNotFound, errorBody{Error: "previews are not enabled"})
		return
	}
	p, err := s.deps.Previews.GetPreview(r.Context(), chi.URLParam(r, "attachmentID"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, p)
}

// handleBlob serves a memory-backend blob to the holder of a valid signed link.
func (s *Server) handleBlob(w http.ResponseWriter, r *http.Request) {
	bucket := chi.URLParam(r, "bucket")
	key := strings.TrimPrefix(r.URL.Path, "/blobs/"+bucket+"/")
	q := r.URL.Query()
	if err := s.deps.Signer.Validate(bucket, key, q.Get("expires"), q.Get("signature")); err != nil {
		s.respondError(w, err)
		return
	}
	body, info, err := s.deps.Blobs.Get(r.Context(), bucket, key)
	if err != nil {
		s.respondError(w, err)
		return
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		s.respondError(w, err)
		return
	}
	name := path.Base(key)
	if info.ContentType != "" {
		w.Header().Set("Content-Type", info.ContentType)
	}
	if info.CacheControl != "" {
		w.Header().Set("Cache-Control", info.CacheControl)
	}
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	http.ServeContent(w, r, name, info.LastModified, bytes.NewReader(data))
}

func nextFilePart(mr *multipart.Reader) (*multipart.Part, error) {
	for {
		part, err := mr.NextPart()
		if err != nil {
			return nil, err
		}
		if part.FormName() == "file" {
			return part, nil
		}
		part.Close()
	}
}

type tempUpload struct {
	f           *os.File
	size        int64
	contentType string
	filename    string
}

func (t *tempUpload) cleanup() {
	t.f.Close()
	os.Remove(t.f.Name())
}

// persistTemp spools the part to disk so the object store gets a known size,
// sniffing the content type from the first 512 bytes when the client sent
// none.
func persistTemp(part *multipart.Part, limit int64) (*tempUpload, error) {
	filename := part.FileName()
	if filename == "" {
		return nil, fmt.Errorf("%w: missing file name", attachments.ErrInvalidName)
	}
	tmpFile, err := os.CreateTemp("", "careplanner-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	fail := func(err error) (*tempUpload, error) {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
		return nil, err
	}

	var sniff []byte
	buf := make([]byte, 32*1024)
	var written int64
	for {
		n, readErr := part.Read(buf)
		if n > 0 {
			written += int64(n)
			if limit > 0 && written > limit {
				return fail(fmt.Errorf("%w (%d bytes)", attachments.ErrTooLarge, limit))
			}
			if len(sniff) < 512 {
				chunk := n
				if remain := 512 - len(sniff); chunk > remain {
					chunk = remain
				}
				sniff = append(sniff, buf[:chunk]...)
			}
			if _, err := tmpFile.Write(buf[:n]); err != nil {
				return fail(fmt.Errorf("write temp file: %w", err))
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			var maxErr *http.MaxBytesError
			if errors.As(readErr, &maxErr) {
				return fail(fmt.Errorf("%w (%d bytes)", attachments.ErrTooLarge, limit))
			}
			return fail(fmt.Errorf("%w: read file: %v", attachments.ErrNoFile, readErr))
		}
	}
	if _, err := tmpFile.Seek(0, io.SeekStart); err != nil {
		return fail(fmt.Errorf("rewind temp file: %w", err))
	}

	contentType := part.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(sniff)
	}
	return &tempUpload{
		f:           tmpFile,
		size:        written,
		contentType: contentType,
		filename:    filename,
	}, nil
}
