package codec

import (
	"fmt"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/goccy/go-json"

	"github.com/devnotes/devnotes.go/pkg/constants"
	"github.com/devnotes/devnotes.go/pkg/models"
)

type signInWire struct {
	UserName string `json:"UserName"`
	Password string `json:"Password"`
}

type tokenWire struct {
	Token string `json:"token"`
}

// SignInResponse is the decoded body of a successful POST /signin.
type SignInResponse struct {
	Token  string
	UserID models.UserID
}

// EncodeSignIn renders the credentials payload.
func EncodeSignIn(username, password string) ([]byte, error) {
	return json.Marshal(signInWire{UserName: username, Password: password})
}

// EncodeToken renders {"token": token} for servers that want a JSON body.
func EncodeToken(token string) ([]byte, error) {
	return json.Marshal(tokenWire{Token: token})
}

// DecodeSignIn extracts the token and, when present, the user id.
func DecodeSignIn(data []byte) (SignInResponse, error) {
	token, err := jsonparser.GetString(data, "token")
	if err != nil {
		return SignInResponse{}, fmt.Errorf("%w: token", constants.ErrMissingField)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return SignInResponse{}, fmt.Errorf("%w: token", constants.ErrMissingField)
	}

	id, _ := DecodeIdentity(data)
	return SignInResponse{Token: token, UserID: id}, nil
}

// DecodeIdentity looks for the signed-in user's id in a sign-in or
// validate-token body. Both casings are in use by the backend.
func DecodeIdentity(data []byte) (models.UserID, bool) {
	for _, key := range []string{"Id", "id", "userId", "UserId"} {
		s, err := jsonparser.GetString(data, key)
		if err != nil {
			continue
		}
		if id, err := models.ParseUserID(s); err == nil {
			return id, true
		}
	}
	return models.UserID{}, false
}
