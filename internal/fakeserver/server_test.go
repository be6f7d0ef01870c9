package fakeserver

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/buger/jsonparser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devnotes/devnotes.go/pkg/codec"
	"github.com/devnotes/devnotes.go/pkg/constants"
	"github.com/devnotes/devnotes.go/pkg/models"
)

func do(t *testing.T, s *Server, method, path, token string, body []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, s.URL()+path, bytes.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set(constants.SessionTokenHeader, token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	return resp, buf.Bytes()
}

func TestServer_SignInAndValidate(t *testing.T) {
	s := New().Start()
	defer s.Close()
	alice := s.AddAccount("alice", "pw")

	resp, _ := do(t, s, http.MethodPost, constants.PathSignIn, "", []byte(`{"UserName":"alice","Password":"nope"}`))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := do(t, s, http.MethodPost, constants.PathSignIn, "", []byte(`{"UserName":"alice","Password":"pw"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	signIn, err := codec.DecodeSignIn(body)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, signIn.UserID)

	resp, _ = do(t, s, http.MethodPost, constants.PathValidateToken, "", []byte(signIn.Token))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = do(t, s, http.MethodPost, constants.PathValidateToken, "", []byte(`{"token":"`+signIn.Token+`"}`))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, s, http.MethodPost, constants.PathSignOut, signIn.Token, []byte(signIn.Token))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = do(t, s, http.MethodPost, constants.PathValidateToken, "", []byte(signIn.Token))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_NotesCRUD(t *testing.T) {
	s := New().Start()
	defer s.Close()
	alice := s.AddAccount("alice", "pw")
	token := s.IssueToken(alice.ID)

	resp, _ := do(t, s, http.MethodGet, constants.PathNotes, "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	n := models.Note{ID: models.NewNoteID(), Title: "t", Body: "b", CreatedByID: alice.ID}
	data, err := codec.EncodeNote(n)
	require.NoError(t, err)

	resp, _ = do(t, s, http.MethodPost, constants.PathNotes, token, data)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = do(t, s, http.MethodPost, constants.PathNotes, token, data)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	n.Title = "renamed"
	data, _ = codec.EncodeNote(n)
	resp, _ = do(t, s, http.MethodPut, constants.PathNotes+"/"+n.ID.String(), token, data)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := do(t, s, http.MethodGet, constants.PathNotes, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list, err := codec.DecodeNotes(body)
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "renamed", list.Items[0].Title)

	resp, _ = do(t, s, http.MethodDelete, constants.PathNotes+"/"+n.ID.String(), token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, s.NoteIDs())
}

func TestServer_Upload(t *testing.T) {
	s := New().Start()
	defer s.Close()
	alice := s.AddAccount("alice", "pw")
	token := s.IssueToken(alice.ID)

	data, err := codec.EncodeUpload(models.NoteUpload{
		ID: models.NewNoteID(), Title: "uploaded", LevelPath: "/Game/Maps/Prod",
		TagNames: []string{"Bug", "bug", "Art"}, CreatedByUserName: "alice",
	})
	require.NoError(t, err)
	resp, _ := do(t, s, http.MethodPost, constants.PathNoteUpload, token, data)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	assert.Len(t, s.TagIDs(), 2, "tag names resolve case-insensitively")
	raw, ok := s.RawNote(s.NoteIDs()[0])
	require.True(t, ok)
	author, _ := jsonparser.GetString(raw, "createdById")
	assert.Equal(t, alice.ID.String(), author)
}

func TestServer_FailureInjection(t *testing.T) {
	s := New().Start()
	defer s.Close()
	alice := s.AddAccount("alice", "pw")
	token := s.IssueToken(alice.ID)

	s.Fail("GET "+constants.PathNotes, http.StatusServiceUnavailable, "down", 1)
	resp, body := do(t, s, http.MethodGet, constants.PathNotes, token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(body), "down")
	resp, _ = do(t, s, http.MethodGet, constants.PathNotes, token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	s.Fail("DELETE /tags/{id}", http.StatusForbidden, "", -1)
	for i := 0; i < 2; i++ {
		resp, _ = do(t, s, http.MethodDelete, "/tags/"+models.NewTagID().String(), token, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	}
	s.Clear()
	resp, _ = do(t, s, http.MethodDelete, "/tags/"+models.NewTagID().String(), token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	s.Drop("POST "+constants.PathSignOut, -1)
	req, _ := http.NewRequest(http.MethodPost, s.URL()+constants.PathSignOut, bytes.NewReader([]byte(token)))
	_, err := http.DefaultClient.Do(req)
	assert.Error(t, err)

	assert.Equal(t, 2, s.Count(http.MethodGet, constants.PathNotes))
}
