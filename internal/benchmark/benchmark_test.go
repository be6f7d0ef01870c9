package benchmark_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/devnotes/devnotes.go/internal/fakeserver"
	"github.com/devnotes/devnotes.go/pkg/codec"
	"github.com/devnotes/devnotes.go/pkg/connection"
	"github.com/devnotes/devnotes.go/pkg/constants"
	"github.com/devnotes/devnotes.go/pkg/filter"
	"github.com/devnotes/devnotes.go/pkg/models"
)

const noteCount = 500

// a fixed set of notes spread over a few levels and tags
func testNotes() ([]models.Note, []models.Tag, []models.User) {
	users := []models.User{
		{ID: models.NewUserID(), Name: "alice"},
		{ID: models.NewUserID(), Name: "bob"},
	}
	tags := []models.Tag{
		{ID: models.NewTagID(), Name: "Mission Critical"},
		{ID: models.NewTagID(), Name: "Art"},
	}
	notes := make([]models.Note, noteCount)
	for i := range notes {
		notes[i] = models.Note{
			ID:          models.NewNoteID(),
			Title:       fmt.Sprintf("Note %d", i),
			Body:        "The door on the left does not open",
			CreatedByID: users[i%len(users)].ID,
			CreatedAt:   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			LevelPath:   fmt.Sprintf("/Game/Maps/Level%d.Level%d", i%7, i%7),
			Tags:        []models.TagID{tags[i%len(tags)].ID},
		}
	}
	return notes, tags, users
}

func encodeList(b *testing.B, notes []models.Note) []byte {
	raws := make([]json.RawMessage, len(notes))
	for i, n := range notes {
		data, err := codec.EncodeNote(n)
		if err != nil {
			b.Fatal(err)
		}
		raws[i] = data
	}
	data, err := json.Marshal(raws)
	if err != nil {
		b.Fatal(err)
	}
	return data
}

func BenchmarkDecodeNotes(b *testing.B) {
	notes, _, _ := testNotes()
	data := encodeList(b, notes)
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// error is ignored for benchmarking purposes.
		codec.DecodeNotes(data) //nolint:errcheck
	}
}

func BenchmarkEncodeNote(b *testing.B) {
	notes, _, _ := testNotes()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		codec.EncodeNote(notes[i%len(notes)]) //nolint:errcheck
	}
}

type resolver struct {
	users map[models.UserID]string
	tags  map[models.TagID]string
}

func (r resolver) UserName(id models.UserID) string { return r.users[id] }

func (r resolver) TagName(id models.TagID) (string, bool) {
	name, ok := r.tags[id]
	return name, ok
}

func BenchmarkFilter(b *testing.B) {
	notes, tags, users := testNotes()
	r := resolver{users: map[models.UserID]string{}, tags: map[models.TagID]string{}}
	for _, u := range users {
		r.users[u.ID] = u.Name
	}
	for _, t := range tags {
		r.tags[t.ID] = t.Name
	}

	for _, query := range []string{
		"Note",
		"map=Level3",
		`tag="Mission Critical" user=alice`,
		"map=/Game/**/Level[1-3]*",
	} {
		q := filter.Parse(query)
		b.Run(query, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				filter.Apply(notes, q, r)
			}
		})
	}
}

func BenchmarkListNotes(b *testing.B) {
	srv := fakeserver.New().Start()
	defer srv.Close()
	alice := srv.AddAccount("alice", "pw")
	notes, _, _ := testNotes()
	for _, n := range notes {
		srv.AddNote(n)
	}

	conn := connection.New(connection.NewConfig(srv.URL()))
	conn.SetToken(srv.IssueToken(alice.ID))
	req := connection.Request{Method: http.MethodGet, Path: constants.PathNotes, Authenticated: true}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		resp, err := conn.Do(context.Background(), req)
		if err != nil {
			b.Fatal(err)
		}
		codec.DecodeNotes(resp.Body) //nolint:errcheck
	}
}
