package preview

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText(t *testing.T) {
	text, err := Extract("text/plain; charset=utf-8", []byte("Resident slept well."))
	require.NoError(t, err)
	assert.Equal(t, "Resident slept well.", text)
}

func TestExtractSniffsMissingType(t *testing.T) {
	text, err := Extract("", []byte("handover notes"))
	require.NoError(t, err)
	assert.Equal(t, "handover notes", text)
}

func TestExtractUnsupported(t *testing.T) {
	_, err := Extract("image/png", []byte{0x89, 'P', 'N', 'G'})
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = Extract("", []byte{0xff, 0xfe, 0x00})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestExtractRejectsInvalidUTF8Text(t *testing.T) {
	_, err := Extract("text/plain", []byte{0xff, 0xfe})
	assert.Error(t, err)
}

func TestExtractBrokenPDF(t *testing.T) {
	_, err := Extract("application/pdf", []byte("%PDF-1.4 not really"))
	assert.Error(t, err)
}

func TestExtractTruncates(t *testing.T) {
	long := strings.Repeat("é", MaxContentBytes)
	text, err := Extract("text/plain", []byte(long))
	require.NoError(t, err)
	assert.LessOrEqual(t, len(text), MaxContentBytes)
	assert.True(t, strings.HasPrefix(long, text))
	assert.Equal(t, 0, len(text)%2, "no split rune")
}
