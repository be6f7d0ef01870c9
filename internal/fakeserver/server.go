// Package fakeserver is an in-memory notes backend speaking the same HTTP
// API as the real one. It backs the client tests and the CLI's serve
// command.
//
// Records are kept as the JSON the client sent, so tests can also plant
// malformed records with AddRawNote. Failures are injected per route with
// Fail and Drop; every request is recorded for later assertions.
package fakeserver

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/buger/jsonparser"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	gorilla "github.com/gorilla/websocket"

	"github.com/devnotes/devnotes.go/pkg/codec"
	"github.com/devnotes/devnotes.go/pkg/constants"
	"github.com/devnotes/devnotes.go/pkg/models"
)

// PathLive is where the server accepts WebSocket listeners.
const PathLive = "/live"

// Account is a user that can sign in.
type Account struct {
	User     models.User
	Password string
}

// RecordedRequest is one request as the server saw it.
type RecordedRequest struct {
	Method string
	Path   string
	Token  string
	Body   []byte
}

type failure struct {
	status int
	body   string
	drop   bool
	// remaining is the number of requests still affected. Negative means
	// until cleared.
	remaining int
}

type record struct {
	id  string
	raw []byte
}

// Server is safe for concurrent use.
type Server struct {
	mu sync.Mutex

	accounts map[string]Account
	users    []models.User
	sessions map[string]models.UserID
	notes    []record
	tags     []record
	failures map[string]*failure
	requests []RecordedRequest

	// Clock stamps lastEdited on writes.
	Clock func() time.Time

	router   *mux.Router
	upgrader gorilla.Upgrader
	hub      *hub
	httpSrv  *httptest.Server
}

func New() *Server {
	s := &Server{
		accounts: make(map[string]Account),
		sessions: make(map[string]models.UserID),
		failures: make(map[string]*failure),
		Clock:    time.Now,
		hub:      newHub(),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.record, s.inject)

	router.HandleFunc(constants.PathValidateToken, s.handleValidateToken).Methods(http.MethodPost)
	router.HandleFunc(constants.PathSignIn, s.handleSignIn).Methods(http.MethodPost)
	router.HandleFunc(constants.PathSignOut, s.handleSignOut).Methods(http.MethodPost)
	router.HandleFunc(PathLive, s.handleLive).Methods(http.MethodGet)

	api := router.NewRoute().Subrouter()
	api.Use(s.authenticate)
	api.HandleFunc(constants.PathNotes, s.handleListNotes).Methods(http.MethodGet)
	api.HandleFunc(constants.PathNotes, s.handleCreateNote).Methods(http.MethodPost)
	api.HandleFunc(constants.PathNoteUpload, s.handleUploadNote).Methods(http.MethodPost)
	api.HandleFunc(constants.PathNotes+"/{id}", s.handleUpdateNote).Methods(http.MethodPut)
	api.HandleFunc(constants.PathNotes+"/{id}", s.handleDeleteNote).Methods(http.MethodDelete)
	api.HandleFunc(constants.PathTags, s.handleListTags).Methods(http.MethodGet)
	api.HandleFunc(constants.PathTags, s.handleCreateTag).Methods(http.MethodPost)
	api.HandleFunc(constants.PathTags+"/{id}", s.handleDeleteTag).Methods(http.MethodDelete)
	api.HandleFunc(constants.PathUsers, s.handleListUsers).Methods(http.MethodGet)

	return router
}

// Handler exposes the routes for use with any http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on a random local port until Close.
func (s *Server) Start() *Server {
	s.httpSrv = httptest.NewServer(s.router)
	return s
}

// URL is the base address after Start.
func (s *Server) URL() string {
	if s.httpSrv == nil {
		return ""
	}
	return s.httpSrv.URL
}

// LiveURL is the WebSocket address after Start.
func (s *Server) LiveURL() string {
	return "ws" + strings.TrimPrefix(s.URL(), "http") + PathLive
}

func (s *Server) Close() {
	s.hub.closeAll()
	if s.httpSrv != nil {
		s.httpSrv.Close()
	}
}

// AddAccount registers a user that can sign in and is listed by /users.
func (s *Server) AddAccount(name, password string) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := models.User{ID: models.NewUserID(), Name: name}
	s.accounts[name] = Account{User: u, Password: password}
	s.users = append(s.users, u)
	return u
}

// IssueToken creates a session for user without going through /signin.
func (s *Server) IssueToken(user models.UserID) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := uuid.NewString()
	s.sessions[token] = user
	return token
}

// RevokeAll forgets every session, as a server restart would.
func (s *Server) RevokeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]models.UserID)
}

// HasSession reports whether token is currently valid.
func (s *Server) HasSession(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[token]
	return ok
}

// AddNote stores n as if a client had created it.
func (s *Server) AddNote(n models.Note) {
	data, err := codec.EncodeNote(n)
	if err != nil {
		panic(err)
	}
	s.AddRawNote(n.ID.String(), data)
}

// AddRawNote stores raw verbatim; it is returned as is by GET /notes.
func (s *Server) AddRawNote(id string, raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = upsert(s.notes, record{id: id, raw: raw})
}

// AddTag stores t as if a client had created it.
func (s *Server) AddTag(t models.Tag) {
	data, err := codec.EncodeTag(t)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags = upsert(s.tags, record{id: t.ID.String(), raw: data})
}

// NoteIDs returns the ids of the stored notes in insertion order.
func (s *Server) NoteIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ids(s.notes)
}

// TagIDs returns the ids of the stored tags in insertion order.
func (s *Server) TagIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ids(s.tags)
}

// RawNote returns the stored JSON of a note.
func (s *Server) RawNote(id string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := find(s.notes, id)
	if i < 0 {
		return nil, false
	}
	return s.notes[i].raw, true
}

// Fail makes the next times requests to "METHOD /path" answer status with
// body. times < 0 keeps failing until Clear. The route is the mux template,
// e.g. "PUT /notes/{id}".
func (s *Server) Fail(route string, status int, body string, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = &failure{status: status, body: body, remaining: times}
}

// Drop makes the next times requests to route lose their connection
// without a response.
func (s *Server) Drop(route string, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = &failure{drop: true, remaining: times}
}

// Clear removes all injected failures.
func (s *Server) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]*failure)
}

// Requests returns every request received so far.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RecordedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// Count returns how many requests hit method and path.
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Broadcast pushes a change hint to every live listener.
func (s *Server) Broadcast(kind string) {
	s.hub.broadcast(kind)
}

// Listeners returns the number of connected live listeners.
func (s *Server) Listeners() int {
	return s.hub.size()
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))

		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Token:  r.Header.Get(constants.SessionTokenHeader),
			Body:   body,
		})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		template := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if t, err := route.GetPathTemplate(); err == nil {
				template = t
			}
		}
		key := r.Method + " " + template

		s.mu.Lock()
		f, ok := s.failures[key]
		if ok && f.remaining == 0 {
			delete(s.failures, key)
			ok = false
		}
		var active failure
		if ok {
			active = *f
			if f.remaining > 0 {
				f.remaining--
			}
		}
		s.mu.Unlock()

		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		if active.drop {
			dropConnection(w)
			return
		}
		http.Error(w, active.body, active.status)
	})
}

func dropConnection(w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		panic(http.ErrAbortHandler)
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		panic(http.ErrAbortHandler)
	}
	_ = conn.Close()
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.HasSession(r.Header.Get(constants.SessionTokenHeader)) {
			http.Error(w, "invalid session", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRaw(w http.ResponseWriter, status int, records []record) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	raws := make([][]byte, 0, len(records))
	for _, rec := range records {
		raws = append(raws, rec.raw)
	}
	_, _ = w.Write(append(append([]byte("["), bytes.Join(raws, []byte(","))...), ']'))
}

func upsert(records []record, rec record) []record {
	if i := find(records, rec.id); i >= 0 {
		records[i] = rec
		return records
	}
	return append(records, rec)
}

func remove(records []record, id string) ([]record, bool) {
	i := find(records, id)
	if i < 0 {
		return records, false
	}
	return append(records[:i], records[i+1:]...), true
}

func find(records []record, id string) int {
	for i, rec := range records {
		if rec.id == id {
			return i
		}
	}
	return -1
}

func ids(records []record) []string {
	out := make([]string, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.id)
	}
	return out
}

// stamp sets lastEdited on a stored note.
func (s *Server) stamp(raw []byte) []byte {
	value, err := json.Marshal(codec.FormatTime(s.Clock()))
	if err != nil {
		return raw
	}
	out, err := jsonparser.Set(raw, value, "lastEdited")
	if err != nil {
		return raw
	}
	return out
}
