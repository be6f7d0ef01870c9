package models

import (
	"strings"
	"time"
)

// Vector is a position in world space.
type Vector struct {
	X float64
	Y float64
	Z float64
}

// Note is an annotation pinned to a position inside a level.
type Note struct {
	ID          NoteID
	Title       string
	Body        string
	CreatedByID UserID
	CreatedAt   time.Time
	// LastEdited is assigned by the server on every successful update.
	LastEdited    time.Time
	LevelPath     string
	WorldPosition Vector
	// Tags is a set. Use SetTags to keep it free of duplicates.
	Tags []TagID
}

// SetTags replaces the note's tags, dropping duplicates while keeping the
// first occurrence order.
func (n *Note) SetTags(ids ...TagID) {
	n.Tags = UniqueTags(ids)
}

// HasTag reports whether the note references the given tag.
func (n Note) HasTag(id TagID) bool {
	for _, t := range n.Tags {
		if t == id {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices with n.
func (n Note) Clone() Note {
	out := n
	if n.Tags != nil {
		out.Tags = make([]TagID, len(n.Tags))
		copy(out.Tags, n.Tags)
	}
	return out
}

// PackageName is the level path without its object suffix.
func (n Note) PackageName() string {
	return LongPackageName(n.LevelPath)
}

// Tag is a named, coloured label that can be attached to many notes.
type Tag struct {
	ID     TagID
	Name   string
	Colour Colour
}

// User is a read-only identity record.
type User struct {
	ID   UserID
	Name string
}

// UniqueTags collapses duplicate ids. Zero ids are dropped.
func UniqueTags(ids []TagID) []TagID {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[TagID]struct{}, len(ids))
	out := make([]TagID, 0, len(ids))
	for _, id := range ids {
		if id.IsZero() {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// LongPackageName strips the object name from a level path, so that
// "/Game/Maps/Test.Test" and "/Game/Maps/Test" compare equal.
func LongPackageName(levelPath string) string {
	p := strings.TrimSpace(levelPath)
	slash := strings.LastIndex(p, "/")
	if dot := strings.LastIndex(p, "."); dot > slash {
		return p[:dot]
	}
	return p
}

// NoteUpload is a note submitted by display names instead of ids. The
// server resolves the author and tag names and creates missing tags.
type NoteUpload struct {
	ID                NoteID
	Title             string
	Body              string
	LevelPath         string
	WorldPosition     Vector
	TagNames          []string
	CreatedByUserName string
}
