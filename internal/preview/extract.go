// Package preview turns attachment blobs into plain text for the preview
// sidecar.
package preview

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"strings"
	"unicode/utf8"

	pdf "github.com/ledongthuc/pdf"
)

// MaxContentBytes caps how much extracted text is kept per attachment.
const MaxContentBytes = 64 << 10

// ErrUnsupported is returned for content types with no extractor.
var ErrUnsupported = errors.New("no text extractor for content type")

// Extract picks an extractor by MIME type. An empty type is sniffed from the
// data.
func Extract(contentType string, data []byte) (string, error) {
	mediaType := normalize(contentType)
	if mediaType == "" {
		mediaType = sniff(data)
	}
	var (
		text string
		err  error
	)
	switch {
	case mediaType == "application/pdf":
		text, err = ExtractPDF(data)
	case strings.HasPrefix(mediaType, "text/"):
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%s: not valid utf-8", mediaType)
		}
		text = string(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupported, mediaType)
	}
	if err != nil {
		return "", err
	}
	return truncate(text, MaxContentBytes), nil
}

// ExtractPDF reads PDF bytes and returns plain text using ledongthuc/pdf.
func ExtractPDF(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	doc, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("new pdf reader: %w", err)
	}
	var builder strings.Builder
	total := doc.NumPage()
	for page := 1; page <= total; page++ {
		p := doc.Page(page)
		if p.V.IsNull() {
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", page, err)
		}
		builder.WriteString(content)
		builder.WriteString("\n")
	}
	return builder.String(), nil
}

func normalize(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType
}

func sniff(data []byte) string {
	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return "application/pdf"
	}
	if utf8.Valid(data) {
		return "text/plain"
	}
	return "application/octet-stream"
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
