package devnotes

import (
	"net/http"

	"github.com/devnotes/devnotes.go/pkg/codec"
	"github.com/devnotes/devnotes.go/pkg/connection"
	"github.com/devnotes/devnotes.go/pkg/constants"
	"github.com/devnotes/devnotes.go/pkg/models"
)

func notePath(id models.NoteID) string {
	return constants.PathNotes + "/" + id.String()
}

// RequestNotes refreshes tags, users and notes. cb receives the notes
// result.
func (c *Client) RequestNotes(cb Callback) {
	c.post(func() { c.refreshAll(cb) })
}

func (c *Client) refreshAll(cb Callback) {
	c.listTags(nil)
	c.listUsers(nil)
	c.listNotes(cb)
}

// ListNotes replaces the note cache with the server's list.
func (c *Client) ListNotes(cb Callback) {
	c.post(func() { c.listNotes(cb) })
}

func (c *Client) listNotes(cb Callback) {
	cl := authed("list notes", http.MethodGet, constants.PathNotes, nil)
	cl.cb = cb
	cl.onSuccess = func(resp *connection.Response) error {
		list, err := c.codec.DecodeNotes(resp.Body)
		if err != nil {
			return err
		}
		for _, skipped := range list.Skipped {
			c.logger.Error().Err(skipped).Msg("skipping malformed note")
		}

		c.viewMu.Lock()
		c.notes = list.Items
		c.lastRefresh = c.now()
		c.viewMu.Unlock()

		c.logger.Debug().Int("count", len(list.Items)).Msg("notes refreshed")
		c.emit(NotesUpdated)
		return nil
	}
	c.send(cl)
}

// CreateNote posts n, then refreshes.
func (c *Client) CreateNote(n models.Note, cb Callback) {
	c.post(func() { c.createNote(n, cb) })
}

func (c *Client) createNote(n models.Note, cb Callback) {
	body, err := c.codec.EncodeNote(n)
	if err != nil {
		c.callback(cb, Result{Err: err, Message: err.Error()})
		return
	}
	cl := authed("create note", http.MethodPost, constants.PathNotes, body, http.StatusCreated)
	cl.cb = cb
	cl.onSuccess = c.afterNoteWrite("created", n.ID)
	c.send(cl)
}

// NewNoteAt creates a note with default content at a position in a level,
// authored by the current user. The returned note is exactly the one that is
// cached and sent. If the session changes before the note is queued, nothing
// is cached and cb receives ErrSessionChanged.
func (c *Client) NewNoteAt(levelPath string, pos models.Vector, cb Callback) models.Note {
	now := c.now()
	n := models.Note{
		ID:            models.NewNoteID(),
		Title:         constants.DefaultNewNoteTitle,
		CreatedByID:   c.CurrentUser().ID,
		CreatedAt:     now,
		LastEdited:    now,
		LevelPath:     levelPath,
		WorldPosition: pos,
	}

	c.post(func() {
		if c.state == StateSignedOut {
			c.callback(cb, Result{Err: constants.ErrNotSignedIn, Message: constants.ErrNotSignedIn.Error()})
			return
		}
		if n.CreatedByID != c.userID {
			c.callback(cb, Result{Err: constants.ErrSessionChanged, Message: constants.ErrSessionChanged.Error()})
			return
		}

		c.viewMu.Lock()
		c.notes = append(c.notes[:len(c.notes):len(c.notes)], n.Clone())
		c.viewMu.Unlock()
		c.emit(NotesUpdated)

		c.createNote(n, cb)
	})
	return n
}

// UpdateNote replaces the server copy of n, then refreshes.
func (c *Client) UpdateNote(n models.Note, cb Callback) {
	c.post(func() {
		body, err := c.codec.EncodeNote(n)
		if err != nil {
			c.callback(cb, Result{Err: err, Message: err.Error()})
			return
		}
		cl := authed("update note", http.MethodPut, notePath(n.ID), body, http.StatusOK)
		cl.cb = cb
		cl.onSuccess = c.afterNoteWrite("updated", n.ID)
		c.send(cl)
	})
}

// DeleteNote removes a note, then refreshes.
func (c *Client) DeleteNote(id models.NoteID, cb Callback) {
	c.post(func() {
		cl := authed("delete note", http.MethodDelete, notePath(id), nil, http.StatusOK, http.StatusNoContent)
		cl.cb = cb
		cl.onSuccess = c.afterNoteWrite("deleted", id)
		c.send(cl)
	})
}

// UploadNote submits a note by author and tag names. The server creates
// tags it does not know yet.
func (c *Client) UploadNote(u models.NoteUpload, cb Callback) {
	c.post(func() {
		if u.ID.IsZero() {
			u.ID = models.NewNoteID()
		}
		body, err := codec.EncodeUpload(u)
		if err != nil {
			c.callback(cb, Result{Err: err, Message: err.Error()})
			return
		}
		cl := authed("upload note", http.MethodPost, constants.PathNoteUpload, body, http.StatusOK, http.StatusCreated)
		cl.cb = cb
		cl.onSuccess = c.afterNoteWrite("uploaded", u.ID)
		c.send(cl)
	})
}

func (c *Client) afterNoteWrite(verb string, id models.NoteID) func(*connection.Response) error {
	return func(*connection.Response) error {
		c.logger.Info().Str("note_id", id.String()).Msg("note " + verb)
		c.refreshAll(nil)
		return nil
	}
}
