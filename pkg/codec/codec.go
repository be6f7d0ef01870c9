// Package codec maps notes, tags and users to and from the backend's JSON
// representation.
//
// The mapping is written out field by field instead of relying on struct
// reflection: identifiers must always render as canonical hyphenated UUIDs
// and timestamps as ISO-8601, whatever the surrounding JSON library prefers.
//
// Decoding is defensive. A note without id, title, body or createdById is
// rejected as a whole; every other field falls back to a zero value (or the
// codec clock, for timestamps) when absent or malformed. Lists are decoded
// record by record so one bad record never hides the rest.
package codec

import (
	"time"

	"github.com/devnotes/devnotes.go/pkg/models"
)

// TimeLayout is the ISO-8601 form written on the wire.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// Accepted inbound layouts, tried in order. Zone-less values are taken as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// Codec converts entities. The zero value is ready to use and stamps
// defaults with time.Now.
type Codec struct {
	// Clock supplies "now" for missing timestamps and for lastEdited on encode.
	Clock func() time.Time
}

// Default is the codec used by the package-level helpers.
var Default = &Codec{}

func (c *Codec) now() time.Time {
	if c == nil || c.Clock == nil {
		return time.Now().UTC()
	}
	return c.Clock().UTC()
}

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses any of the accepted ISO-8601 forms.
func ParseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// EncodeNote encodes with the Default codec.
func EncodeNote(n models.Note) ([]byte, error) {
	return Default.EncodeNote(n)
}

// DecodeNotes decodes with the Default codec.
func DecodeNotes(data []byte) (ListResult[models.Note], error) {
	return Default.DecodeNotes(data)
}

// EncodeTag encodes with the Default codec.
func EncodeTag(t models.Tag) ([]byte, error) {
	return Default.EncodeTag(t)
}

// DecodeTags decodes with the Default codec.
func DecodeTags(data []byte) (ListResult[models.Tag], error) {
	return Default.DecodeTags(data)
}

// DecodeUsers decodes with the Default codec.
func DecodeUsers(data []byte) (ListResult[models.User], error) {
	return Default.DecodeUsers(data)
}
