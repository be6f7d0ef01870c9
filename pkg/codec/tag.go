package codec

import (
	"fmt"

	"github.com/buger/jsonparser"
	"github.com/goccy/go-json"

	"github.com/devnotes/devnotes.go/pkg/constants"
	"github.com/devnotes/devnotes.go/pkg/models"
)

type tagWire struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color uint32 `json:"color"`
}

// EncodeTag renders a tag for POST /tags.
func (c *Codec) EncodeTag(t models.Tag) ([]byte, error) {
	return json.Marshal(tagWire{
		ID:    t.ID.String(),
		Name:  t.Name,
		Color: t.Colour.ARGB(),
	})
}

// DecodeTag decodes a single tag object. Only the id is mandatory.
func (c *Codec) DecodeTag(data []byte) (models.Tag, error) {
	idString, err := requiredString(data, "id")
	if err != nil {
		return models.Tag{}, err
	}
	id, err := models.ParseTagID(idString)
	if err != nil {
		return models.Tag{}, fmt.Errorf("%w: %v", constants.ErrInvalidID, err)
	}

	return models.Tag{
		ID:     id,
		Name:   optionalString(data, "name"),
		Colour: decodeColour(data),
	}, nil
}

// DecodeTags decodes a GET /tags payload.
func (c *Codec) DecodeTags(data []byte) (ListResult[models.Tag], error) {
	return decodeList(data, c.DecodeTag)
}

// decodeColour accepts the packed value as either a signed or unsigned
// 32-bit integer; servers storing it in an int32 column send ARGB values
// above 0x7fffffff as negatives.
func decodeColour(data []byte) models.Colour {
	for _, key := range []string{"color", "colour"} {
		if v, err := jsonparser.GetInt(data, key); err == nil {
			return models.Colour(uint32(v))
		}
		if f, err := jsonparser.GetFloat(data, key); err == nil {
			return models.Colour(uint32(int64(f)))
		}
	}
	return 0
}
