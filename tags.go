package devnotes

import (
	"net/http"

	"github.com/devnotes/devnotes.go/pkg/connection"
	"github.com/devnotes/devnotes.go/pkg/constants"
	"github.com/devnotes/devnotes.go/pkg/models"
)

// ListTags replaces the tag cache with the server's list.
func (c *Client) ListTags(cb Callback) {
	c.post(func() { c.listTags(cb) })
}

func (c *Client) listTags(cb Callback) {
	cl := authed("list tags", http.MethodGet, constants.PathTags, nil)
	cl.cb = cb
	cl.onSuccess = func(resp *connection.Response) error {
		list, err := c.codec.DecodeTags(resp.Body)
		if err != nil {
			return err
		}
		for _, skipped := range list.Skipped {
			c.logger.Error().Err(skipped).Msg("skipping malformed tag")
		}

		c.viewMu.Lock()
		c.tags = list.Items
		c.viewMu.Unlock()

		c.emit(TagsUpdated)
		return nil
	}
	c.send(cl)
}

// CreateTag adds a tag locally and posts it. The tag list is not
// re-fetched afterwards; the local copy stands until the next refresh.
func (c *Client) CreateTag(name string, colour models.Colour, cb Callback) models.Tag {
	tag := models.Tag{ID: models.NewTagID(), Name: name, Colour: colour}

	c.post(func() {
		if c.state == StateSignedOut {
			c.callback(cb, Result{Err: constants.ErrNotSignedIn, Message: constants.ErrNotSignedIn.Error()})
			return
		}
		body, err := c.codec.EncodeTag(tag)
		if err != nil {
			c.callback(cb, Result{Err: err, Message: err.Error()})
			return
		}

		c.viewMu.Lock()
		c.tags = append(c.tags[:len(c.tags):len(c.tags)], tag)
		c.viewMu.Unlock()
		c.emit(TagsUpdated)

		cl := authed("create tag", http.MethodPost, constants.PathTags, body, http.StatusCreated)
		cl.cb = cb
		cl.onSuccess = func(*connection.Response) error {
			c.logger.Info().Str("tag_id", tag.ID.String()).Str("name", tag.Name).Msg("tag created")
			return nil
		}
		c.send(cl)
	})
	return tag
}

// DeleteTag removes a tag, then re-lists tags.
func (c *Client) DeleteTag(id models.TagID, cb Callback) {
	c.post(func() {
		cl := authed("delete tag", http.MethodDelete, constants.PathTags+"/"+id.String(), nil, http.StatusOK, http.StatusNoContent)
		cl.cb = cb
		cl.onSuccess = func(*connection.Response) error {
			c.logger.Info().Str("tag_id", id.String()).Msg("tag deleted")
			c.listTags(nil)
			return nil
		}
		c.send(cl)
	})
}
