package codec

import (
	"fmt"

	"github.com/buger/jsonparser"
	"github.com/goccy/go-json"

	"github.com/devnotes/devnotes.go/pkg/constants"
	"github.com/devnotes/devnotes.go/pkg/models"
)

type noteWire struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Body        string   `json:"body"`
	CreatedByID string   `json:"createdById"`
	WorldX      float64  `json:"worldX"`
	WorldY      float64  `json:"worldY"`
	WorldZ      float64  `json:"worldZ"`
	LevelPath   string   `json:"levelPath"`
	CreatedAt   string   `json:"createdAt"`
	LastEdited  string   `json:"lastEdited"`
	Tags        []tagRef `json:"tags"`
}

type tagRef struct {
	ID string `json:"id"`
}

// EncodeNote renders a note for POST /notes and PUT /notes/{id}.
// lastEdited is stamped with the codec clock; the server keeps its own.
func (c *Codec) EncodeNote(n models.Note) ([]byte, error) {
	tags := make([]tagRef, 0, len(n.Tags))
	for _, id := range models.UniqueTags(n.Tags) {
		tags = append(tags, tagRef{ID: id.String()})
	}

	return json.Marshal(noteWire{
		ID:          n.ID.String(),
		Title:       n.Title,
		Body:        n.Body,
		CreatedByID: n.CreatedByID.String(),
		WorldX:      n.WorldPosition.X,
		WorldY:      n.WorldPosition.Y,
		WorldZ:      n.WorldPosition.Z,
		LevelPath:   n.LevelPath,
		CreatedAt:   FormatTime(n.CreatedAt),
		LastEdited:  FormatTime(c.now()),
		Tags:        tags,
	})
}

// DecodeNote decodes a single note object.
func (c *Codec) DecodeNote(data []byte) (models.Note, error) {
	var n models.Note

	idString, err := requiredString(data, "id")
	if err != nil {
		return models.Note{}, err
	}
	if n.Title, err = requiredString(data, "title"); err != nil {
		return models.Note{}, err
	}
	if n.Body, err = requiredString(data, "body"); err != nil {
		return models.Note{}, err
	}
	createdByString, err := requiredString(data, "createdById")
	if err != nil {
		return models.Note{}, err
	}

	if n.ID, err = models.ParseNoteID(idString); err != nil {
		return models.Note{}, fmt.Errorf("%w: %v", constants.ErrInvalidID, err)
	}
	// An unparsable author degrades to the zero user rather than losing the note.
	n.CreatedByID, _ = models.ParseUserID(createdByString)

	n.WorldPosition = models.Vector{
		X: optionalFloat(data, "worldX"),
		Y: optionalFloat(data, "worldY"),
		Z: optionalFloat(data, "worldZ"),
	}
	n.LevelPath = optionalString(data, "levelPath")
	n.CreatedAt = c.optionalTime(data, "createdAt")
	n.LastEdited = c.optionalTime(data, "lastEdited")
	n.Tags = decodeTagRefs(data)

	return n, nil
}

// DecodeNotes decodes a GET /notes payload.
func (c *Codec) DecodeNotes(data []byte) (ListResult[models.Note], error) {
	return decodeList(data, c.DecodeNote)
}

// decodeTagRefs reads "tags":[{"id":...}]. Bare id strings are accepted too.
// Entries that do not hold a parsable id are skipped one by one.
func decodeTagRefs(data []byte) []models.TagID {
	var ids []models.TagID
	_, _ = jsonparser.ArrayEach(data, func(value []byte, vt jsonparser.ValueType, _ int, err error) {
		if err != nil {
			return
		}
		var raw string
		switch vt {
		case jsonparser.Object:
			if raw, err = jsonparser.GetString(value, "id"); err != nil {
				return
			}
		case jsonparser.String:
			if raw, err = jsonparser.ParseString(value); err != nil {
				return
			}
		default:
			return
		}
		id, err := models.ParseTagID(raw)
		if err != nil {
			return
		}
		ids = append(ids, id)
	}, "tags")

	return models.UniqueTags(ids)
}
