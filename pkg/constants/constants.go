package constants

import "time"

// Defaults
const (
	DefaultServerAddress  = "http://localhost:5281"
	DefaultPollInterval   = 30 * time.Second
	DefaultHTTPTimeout    = 15 * time.Second
	DefaultValidateWait   = 5 * time.Second
	DefaultValidateMax    = 5 * time.Minute
	SessionTokenFileName  = "DevNotes/session.token"
	SessionTokenFileMode  = 0o600
	SessionTokenDirMode   = 0o700
	DefaultNewNoteTitle   = "New Note"
	NoServerResponseError = "no server response"
)

// SessionTokenHeader carries the session token on authenticated requests.
const SessionTokenHeader = "X-Session-Token"

// Endpoints, relative to the server address.
const (
	PathValidateToken = "/validatetoken"
	PathSignIn        = "/signin"
	PathSignOut       = "/signout"
	PathNotes         = "/notes"
	PathNoteUpload    = "/notes/dto"
	PathTags          = "/tags"
	PathUsers         = "/users"
)

// URL schemes accepted for the server address and the live endpoint.
const (
	HTTPScheme            = "http"
	HTTPSecureScheme      = "https"
	WebsocketScheme       = "ws"
	WebsocketSecureScheme = "wss"
)
