package attachments

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/dharsanguruparan/careplanner/internal/model"
)

// StorageKey returns the object key for a new upload:
// <kind>/<id>/<epoch-millis>_<sanitized name>. The timestamp keeps repeated
// uploads of the same name apart; two uploads in the same millisecond collide
// and the second is refused by the no-overwrite put.
func StorageKey(owner model.Owner, filename string, now time.Time) string {
	return fmt.Sprintf("%s/%s/%d_%s", owner.Kind(), owner.ID(), now.UnixMilli(), SanitizeFilename(filename))
}

// SanitizeFilename replaces every run of whitespace with a single underscore.
func SanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	inSpace := false
	for _, r := range name {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte('_')
			}
			inSpace = true
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
