package fakeserver

import (
	"io"
	"net/http"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/devnotes/devnotes.go/pkg/codec"
	"github.com/devnotes/devnotes.go/pkg/constants"
	"github.com/devnotes/devnotes.go/pkg/models"
)

type signInRequest struct {
	UserName string `json:"UserName"`
	Password string `json:"Password"`
}

type signInResponse struct {
	Token string `json:"token"`
	ID    string `json:"Id"`
}

type identityResponse struct {
	ID string `json:"Id"`
}

type userWire struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid credentials payload", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	account, ok := s.accounts[req.UserName]
	if !ok || account.Password != req.Password {
		s.mu.Unlock()
		http.Error(w, "invalid username or password", http.StatusUnauthorized)
		return
	}
	token := uuid.NewString()
	s.sessions[token] = account.User.ID
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, signInResponse{Token: token, ID: account.User.ID.String()})
}

// handleValidateToken accepts the token as the raw body or as {"token":...}.
func (s *Server) handleValidateToken(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	token := strings.TrimSpace(string(body))
	if t, err := jsonparser.GetString(body, "token"); err == nil {
		token = t
	}

	s.mu.Lock()
	user, ok := s.sessions[token]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, identityResponse{ID: user.String()})
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(constants.SessionTokenHeader)
	if token == "" {
		body, _ := io.ReadAll(r.Body)
		token = strings.TrimSpace(string(body))
	}
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleListNotes(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeRaw(w, http.StatusOK, s.notes)
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	n, err := codec.Default.DecodeNote(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	if find(s.notes, n.ID.String()) >= 0 {
		s.mu.Unlock()
		http.Error(w, "note already exists", http.StatusConflict)
		return
	}
	s.notes = append(s.notes, record{id: n.ID.String(), raw: s.stamp(body)})
	s.mu.Unlock()

	s.hub.broadcast("notes")
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	id := strings.ToLower(mux.Vars(r)["id"])
	body, _ := io.ReadAll(r.Body)
	n, err := codec.Default.DecodeNote(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if n.ID.String() != id {
		http.Error(w, "id mismatch", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	i := find(s.notes, id)
	if i < 0 {
		s.mu.Unlock()
		http.Error(w, "note not found", http.StatusNotFound)
		return
	}
	s.notes[i].raw = s.stamp(body)
	s.mu.Unlock()

	s.hub.broadcast("notes")
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	id := strings.ToLower(mux.Vars(r)["id"])

	s.mu.Lock()
	var ok bool
	s.notes, ok = remove(s.notes, id)
	s.mu.Unlock()
	if !ok {
		http.Error(w, "note not found", http.StatusNotFound)
		return
	}

	s.hub.broadcast("notes")
	w.WriteHeader(http.StatusNoContent)
}

// handleUploadNote resolves the author and tag names, creating tags that do
// not exist yet.
func (s *Server) handleUploadNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
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
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id, err := models.ParseNoteID(req.ID)
	if err != nil {
		id = models.NewNoteID()
	}

	s.mu.Lock()
	account, ok := s.accounts[req.CreatedByUserName]
	if !ok {
		s.mu.Unlock()
		http.Error(w, "unknown user "+req.CreatedByUserName, http.StatusBadRequest)
		return
	}

	n := models.Note{
		ID:            id,
		Title:         req.Title,
		Body:          req.Body,
		CreatedByID:   account.User.ID,
		CreatedAt:     s.Clock(),
		LevelPath:     req.LevelPath,
		WorldPosition: models.Vector{X: req.WorldX, Y: req.WorldY, Z: req.WorldZ},
	}
	var tagsChanged bool
	for _, name := range req.TagNames {
		tagID, created := s.tagByNameLocked(name)
		tagsChanged = tagsChanged || created
		n.Tags = append(n.Tags, tagID)
	}
	n.SetTags(n.Tags...)

	data, err := (&codec.Codec{Clock: s.Clock}).EncodeNote(n)
	if err != nil {
		s.mu.Unlock()
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.notes = upsert(s.notes, record{id: id.String(), raw: data})
	s.mu.Unlock()

	if tagsChanged {
		s.hub.broadcast("tags")
	}
	s.hub.broadcast("notes")
	w.WriteHeader(http.StatusCreated)
}

// tagByNameLocked must be called with s.mu held.
func (s *Server) tagByNameLocked(name string) (models.TagID, bool) {
	for _, rec := range s.tags {
		tag, err := codec.Default.DecodeTag(rec.raw)
		if err == nil && strings.EqualFold(tag.Name, name) {
			return tag.ID, false
		}
	}
	tag := models.Tag{ID: models.NewTagID(), Name: name, Colour: models.FromRGBA(0x80, 0x80, 0x80, 0xff)}
	data, _ := codec.EncodeTag(tag)
	s.tags = append(s.tags, record{id: tag.ID.String(), raw: data})
	return tag.ID, true
}

func (s *Server) handleListTags(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeRaw(w, http.StatusOK, s.tags)
}

func (s *Server) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	tag, err := codec.Default.DecodeTag(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.tags = upsert(s.tags, record{id: tag.ID.String(), raw: body})
	s.mu.Unlock()

	s.hub.broadcast("tags")
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	id := strings.ToLower(mux.Vars(r)["id"])

	s.mu.Lock()
	var ok bool
	s.tags, ok = remove(s.tags, id)
	s.mu.Unlock()
	if !ok {
		http.Error(w, "tag not found", http.StatusNotFound)
		return
	}

	s.hub.broadcast("tags")
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleListUsers(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := make([]userWire, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, userWire{ID: u.ID.String(), Name: u.Name})
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}
