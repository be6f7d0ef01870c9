package models

import (
	"fmt"

	"github.com/google/uuid"
)

// NoteID is a typed ID for notes.
type NoteID struct {
	uuid uuid.UUID
}

func NewNoteID() NoteID {
	return NoteID{uuid: uuid.New()}
}

func NewNoteIDFromUUID(id uuid.UUID) NoteID {
	return NoteID{uuid: id}
}

func ParseNoteID(s string) (NoteID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return NoteID{}, fmt.Errorf("invalid note ID: %w", err)
	}
	return NoteID{uuid: id}, nil
}

func (n NoteID) UUID() uuid.UUID { return n.uuid }
func (n NoteID) String() string  { return n.uuid.String() }
func (n NoteID) IsZero() bool    { return n.uuid == uuid.Nil }

// TagID is a typed ID for tags.
type TagID struct {
	uuid uuid.UUID
}

func NewTagID() TagID {
	return TagID{uuid: uuid.New()}
}

func NewTagIDFromUUID(id uuid.UUID) TagID {
	return TagID{uuid: id}
}

func ParseTagID(s string) (TagID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return TagID{}, fmt.Errorf("invalid tag ID: %w", err)
	}
	return TagID{uuid: id}, nil
}

func (t TagID) UUID() uuid.UUID { return t.uuid }
func (t TagID) String() string  { return t.uuid.String() }
func (t TagID) IsZero() bool    { return t.uuid == uuid.Nil }

// UserID is a typed ID for users.
type UserID struct {
	uuid uuid.UUID
}

func NewUserID() UserID {
	return UserID{uuid: uuid.New()}
}

func NewUserIDFromUUID(id uuid.UUID) UserID {
	return UserID{uuid: id}
}

func ParseUserID(s string) (UserID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, fmt.Errorf("invalid user ID: %w", err)
	}
	return UserID{uuid: id}, nil
}

func (u UserID) UUID() uuid.UUID { return u.uuid }
func (u UserID) String() string  { return u.uuid.String() }
func (u UserID) IsZero() bool    { return u.uuid == uuid.Nil }

// MustParseNoteID is like ParseNoteID but panics on malformed input.
// Intended for tests and literals.
func MustParseNoteID(s string) NoteID {
	id, err := ParseNoteID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// MustParseTagID is like ParseTagID but panics on malformed input.
func MustParseTagID(s string) TagID {
	id, err := ParseTagID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// MustParseUserID is like ParseUserID but panics on malformed input.
func MustParseUserID(s string) UserID {
	id, err := ParseUserID(s)
	if err != nil {
		panic(err)
	}
	return id
}
