package attachments

import "errors"

var (
	// ErrNoFile means nothing was selected. Callers treat it as a no-op.
	ErrNoFile = errors.New("no file selected")
	// ErrInvalidName rejects empty names and names carrying a directory part.
	ErrInvalidName = errors.New("invalid file name")
	// ErrTypeNotAllowed rejects extensions outside the accept list.
	ErrTypeNotAllowed = errors.New("file type not allowed")
	// ErrTooLarge rejects files over the configured size limit.
	ErrTooLarge = errors.New("file exceeds size limit")
	// ErrBusy is returned by Panel.Upload while another upload is in flight.
	ErrBusy = errors.New("upload already in progress")
	// ErrEmptyURL is returned when the store signs without error but hands
	// back nothing usable.
	ErrEmptyURL = errors.New("store returned an empty download url")
)
