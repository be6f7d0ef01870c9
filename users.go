package devnotes

import (
	"net/http"

	"github.com/devnotes/devnotes.go/pkg/connection"
	"github.com/devnotes/devnotes.go/pkg/constants"
)

// ListUsers replaces the user cache with the server's list.
func (c *Client) ListUsers(cb Callback) {
	c.post(func() { c.listUsers(cb) })
}

func (c *Client) listUsers(cb Callback) {
	cl := authed("list users", http.MethodGet, constants.PathUsers, nil)
	cl.cb = cb
	cl.onSuccess = func(resp *connection.Response) error {
		list, err := c.codec.DecodeUsers(resp.Body)
		if err != nil {
			return err
		}
		for _, skipped := range list.Skipped {
			c.logger.Error().Err(skipped).Msg("skipping malformed user")
		}

		c.viewMu.Lock()
		c.users = list.Items
		c.viewMu.Unlock()

		c.emit(UsersUpdated)
		return nil
	}
	c.send(cl)
}
