package codec

import (
	"github.com/goccy/go-json"

	"github.com/devnotes/devnotes.go/pkg/models"
)

type uploadWire struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	Body              string   `json:"body"`
	WorldX            float64  `json:"worldX"`
	WorldY            float64  `json:"worldY"`
	WorldZ            float64  `json:"worldZ"`
	LevelPath         string   `json:"levelPath"`
	TagNames          []string `json:"tagNames"`
	CreatedByUserName string   `json:"createdByUserName"`
}

// EncodeUpload renders a by-name note for POST /notes/dto.
func EncodeUpload(u models.NoteUpload) ([]byte, error) {
	names := u.TagNames
	if names == nil {
		names = []string{}
	}
	return json.Marshal(uploadWire{
		ID:                u.ID.String(),
		Title:             u.Title,
		Body:              u.Body,
		WorldX:            u.WorldPosition.X,
		WorldY:            u.WorldPosition.Y,
		WorldZ:            u.WorldPosition.Z,
		LevelPath:         u.LevelPath,
		TagNames:          names,
		CreatedByUserName: u.CreatedByUserName,
	})
}
