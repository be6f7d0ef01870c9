package codec

import (
	"fmt"

	"github.com/devnotes/devnotes.go/pkg/constants"
	"github.com/devnotes/devnotes.go/pkg/models"
)

// DecodeUser decodes a single user object.
func (c *Codec) DecodeUser(data []byte) (models.User, error) {
	idString, err := requiredString(data, "id")
	if err != nil {
		return models.User{}, err
	}
	id, err := models.ParseUserID(idString)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %v", constants.ErrInvalidID, err)
	}

	return models.User{
		ID:   id,
		Name: optionalString(data, "name", "userName", "username"),
	}, nil
}

// DecodeUsers decodes a GET /users payload.
func (c *Codec) DecodeUsers(data []byte) (ListResult[models.User], error) {
	return decodeList(data, c.DecodeUser)
}
