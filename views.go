package devnotes

import (
	"time"

	"github.com/aretw0/introspection"

	"github.com/devnotes/devnotes.go/pkg/filter"
	"github.com/devnotes/devnotes.go/pkg/models"
)

// SessionState returns the current lifecycle state.
func (c *Client) SessionState() SessionState {
	c.viewMu.RLock()
	defer c.viewMu.RUnlock()
	return c.state
}

// IsLoggedIn is true while signed in and while a stored token is being
// validated.
func (c *Client) IsLoggedIn() bool {
	return c.SessionState() != StateSignedOut
}

// IsEditing reports whether refreshes are being held back.
func (c *Client) IsEditing() bool {
	c.viewMu.RLock()
	defer c.viewMu.RUnlock()
	return c.editing
}

// Notes returns a copy of the note cache in server order.
func (c *Client) Notes() []models.Note {
	c.viewMu.RLock()
	defer c.viewMu.RUnlock()
	return cloneNotes(c.notes)
}

// Note looks a note up by id.
func (c *Client) Note(id models.NoteID) (models.Note, bool) {
	c.viewMu.RLock()
	defer c.viewMu.RUnlock()
	for _, n := range c.notes {
		if n.ID == id {
			return n.Clone(), true
		}
	}
	return models.Note{}, false
}

// NotesForLevels returns the notes placed in any of the given levels. Level
// paths compare by package name, so "/Game/Maps/A.A" matches "/Game/Maps/A".
func (c *Client) NotesForLevels(levels ...string) []models.Note {
	want := make(map[string]struct{}, len(levels))
	for _, l := range levels {
		want[models.LongPackageName(l)] = struct{}{}
	}

	c.viewMu.RLock()
	defer c.viewMu.RUnlock()
	var out []models.Note
	for _, n := range c.notes {
		if _, ok := want[n.PackageName()]; ok {
			out = append(out, n.Clone())
		}
	}
	return out
}

// Filter applies a search box query to the note cache.
func (c *Client) Filter(query string) []models.Note {
	return filter.Apply(c.Notes(), filter.Parse(query), c)
}

func (c *Client) Tags() []models.Tag {
	c.viewMu.RLock()
	defer c.viewMu.RUnlock()
	return append([]models.Tag(nil), c.tags...)
}

func (c *Client) Tag(id models.TagID) (models.Tag, bool) {
	c.viewMu.RLock()
	defer c.viewMu.RUnlock()
	for _, t := range c.tags {
		if t.ID == id {
			return t, true
		}
	}
	return models.Tag{}, false
}

// TagNames returns the names of the cached tags on n, in n's order. Tags
// missing from the cache are left out.
func (c *Client) TagNames(n models.Note) []string {
	names := make([]string, 0, len(n.Tags))
	for _, id := range n.Tags {
		if name, ok := c.TagName(id); ok {
			names = append(names, name)
		}
	}
	return names
}

func (c *Client) Users() []models.User {
	c.viewMu.RLock()
	defer c.viewMu.RUnlock()
	return append([]models.User(nil), c.users...)
}

// UserByID returns the cached user, or a zero User when unknown.
func (c *Client) UserByID(id models.UserID) models.User {
	c.viewMu.RLock()
	defer c.viewMu.RUnlock()
	return c.userByID(id)
}

func (c *Client) userByID(id models.UserID) models.User {
	for _, u := range c.users {
		if u.ID == id {
			return u
		}
	}
	return models.User{}
}

// CurrentUser is the signed-in user. Name is empty until the user list has
// been fetched, ID is zero when the server did not report it.
func (c *Client) CurrentUser() models.User {
	c.viewMu.RLock()
	defer c.viewMu.RUnlock()
	if u := c.userByID(c.userID); !u.ID.IsZero() {
		return u
	}
	return models.User{ID: c.userID}
}

// UserName implements filter.Resolver.
func (c *Client) UserName(id models.UserID) string {
	return c.UserByID(id).Name
}

// TagName implements filter.Resolver.
func (c *Client) TagName(id models.TagID) (string, bool) {
	t, ok := c.Tag(id)
	return t.Name, ok
}

var _ filter.Resolver = (*Client)(nil)

func cloneNotes(notes []models.Note) []models.Note {
	if notes == nil {
		return nil
	}
	out := make([]models.Note, len(notes))
	for i, n := range notes {
		out[i] = n.Clone()
	}
	return out
}

// ClientState exposes internal state for observability.
type ClientState struct {
	Session        string     `json:"session"`
	Server         string     `json:"server"`
	LiveURL        string     `json:"live_url,omitempty"`
	UserID         string     `json:"user_id,omitempty"`
	Notes          int        `json:"notes"`
	Tags           int        `json:"tags"`
	Users          int        `json:"users"`
	Editing        bool       `json:"editing"`
	RefreshPending bool       `json:"refresh_pending"`
	PollInterval   string     `json:"poll_interval"`
	TokenPath      string     `json:"token_path"`
	LastRefresh    *time.Time `json:"last_refresh,omitempty"`
}

// State implements introspection.Introspectable.
func (c *Client) State() any {
	c.viewMu.RLock()
	defer c.viewMu.RUnlock()

	st := ClientState{
		Session:        c.state.String(),
		Server:         c.conn.BaseURL(),
		LiveURL:        c.cfg.LiveURL,
		Notes:          len(c.notes),
		Tags:           len(c.tags),
		Users:          len(c.users),
		Editing:        c.editing,
		RefreshPending: c.refreshPending,
		PollInterval:   c.cfg.PollInterval.String(),
		TokenPath:      c.store.Path(),
	}
	if !c.userID.IsZero() {
		st.UserID = c.userID.String()
	}
	if !c.lastRefresh.IsZero() {
		last := c.lastRefresh
		st.LastRefresh = &last
	}
	return st
}

// ComponentType implements introspection.Component.
func (c *Client) ComponentType() string {
	return "devnotes-client"
}

var _ introspection.Introspectable = (*Client)(nil)
var _ introspection.Component = (*Client)(nil)
