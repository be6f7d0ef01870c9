package filter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/devnotes/devnotes.go/pkg/filter"
	"github.com/devnotes/devnotes.go/pkg/models"
)

type resolver struct {
	users map[models.UserID]string
	tags  map[models.TagID]string
}

func (r resolver) UserName(id models.UserID) string { return r.users[id] }

func (r resolver) TagName(id models.TagID) (string, bool) {
	name, ok := r.tags[id]
	return name, ok
}

var (
	alice        = models.NewUserID()
	bob          = models.NewUserID()
	critical     = models.NewTagID()
	deletedTagID = models.NewTagID()

	noteA = models.Note{ID: models.NewNoteID(), Title: "Big Boss", LevelPath: "Test", CreatedByID: alice}
	noteB = models.Note{ID: models.NewNoteID(), Title: "Minion", LevelPath: "Prod", CreatedByID: bob, Tags: []models.TagID{critical, deletedTagID}}
	noteC = models.Note{ID: models.NewNoteID(), Title: "Alice was here", LevelPath: "/Game/Maps/Arena/Arena.Arena", CreatedByID: bob}
	noteD = models.Note{ID: models.NewNoteID(), Title: "Bob's corner", LevelPath: "/Game/Maps/Prod", CreatedByID: alice}

	testResolver = resolver{
		users: map[models.UserID]string{alice: "Alice", bob: "Bob"},
		tags:  map[models.TagID]string{critical: "Mission Critical"},
	}
)

func titles(notes []models.Note) []string {
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.Title)
	}
	return out
}

func run(query string, notes ...models.Note) []string {
	return titles(filter.Apply(notes, filter.Parse(query), testResolver))
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"Map=Test", "Boss"}, filter.Tokenize("  Map=Test   Boss "))
	assert.Equal(t, []string{"Tag=Mission Critical"}, filter.Tokenize(`Tag="Mission Critical"`))
	assert.Equal(t, []string{"multi word", "x"}, filter.Tokenize(`"multi word" x`))
	assert.Equal(t, []string{"open quote runs to end"}, filter.Tokenize(`"open quote runs to end`))
	assert.Empty(t, filter.Tokenize(`   `))
	assert.Empty(t, filter.Tokenize(`""`))
}

func TestParse(t *testing.T) {
	q := filter.Parse(`"NAME "=Boss user=alice Colour=red a=b=c plain "two words"`)
	assert.Equal(t, []string{"Boss"}, q.Fields[filter.FieldName])
	assert.Equal(t, []string{"alice"}, q.Fields[filter.FieldUser])
	assert.Equal(t, []string{"plain", "two words"}, q.Terms)
	assert.Equal(t, []string{"Colour=red", "a=b=c"}, q.Ignored)
	assert.False(t, q.IsEmpty())

	q = filter.Parse(`map=a=b`)
	assert.Equal(t, []string{"a=b"}, q.Fields[filter.FieldMap], "split on the first '='")

	assert.True(t, filter.Parse("").IsEmpty())
	assert.True(t, filter.Parse("unknown=x").IsEmpty())
}

func TestMatch_Examples(t *testing.T) {
	assert.Equal(t, []string{"Big Boss"}, run("Map=Test", noteA, noteB))
	assert.Equal(t, []string{"Minion"}, run(`Tag="Mission Critical"`, noteA, noteB))
	assert.Equal(t, []string{"Big Boss"}, run("Boss", noteA, noteB))
	assert.Equal(t, []string{"Alice was here", "Bob's corner"}, run("Name=Alice Name=Bob", noteA, noteB, noteC, noteD))
}

func TestMatch_FieldsAreANDed(t *testing.T) {
	assert.Equal(t, []string{"Bob's corner"}, run("user=alice map=prod", noteA, noteB, noteC, noteD))
	assert.Empty(t, run("user=alice tag=critical", noteA, noteB, noteC, noteD))
}

func TestMatch_TermsAreORedAndANDedWithFields(t *testing.T) {
	assert.Equal(t, []string{"Big Boss", "Minion"}, run("boss minion", noteA, noteB, noteC))
	assert.Equal(t, []string{"Minion"}, run("user=bob critical", noteA, noteB, noteC))
	// generic terms also look at the author and the level path
	assert.Equal(t, []string{"Minion", "Alice was here"}, run("bob", noteA, noteB, noteC))
	assert.Equal(t, []string{"Alice was here"}, run("arena", noteA, noteB, noteC))
}

func TestMatch_EmptyQueryPassesAll(t *testing.T) {
	assert.Equal(t, []string{"Big Boss", "Minion"}, run("", noteA, noteB))
	assert.Equal(t, []string{"Big Boss", "Minion"}, run("colour=red", noteA, noteB))
}

func TestMatch_DanglingTagIsSkipped(t *testing.T) {
	assert.Empty(t, run("tag="+deletedTagID.String(), noteB))
	assert.NotPanics(t, func() {
		filter.Parse("tag=x Boss").Match(noteB, nil)
	})
}

func TestMatch_MapGlob(t *testing.T) {
	assert.Equal(t, []string{"Alice was here", "Bob's corner"}, run("map=/game/maps/**", noteA, noteB, noteC, noteD))
	assert.Equal(t, []string{"Bob's corner"}, run("map=/Game/Maps/P*", noteC, noteD))
	assert.Equal(t, []string{"Big Boss", "Minion"}, run("map={test,prod}", noteA, noteB, noteC))
	// an invalid pattern degrades to a substring test
	assert.Empty(t, run("map=[", noteA, noteB))
}

func TestMatch_MapGlobKeepsSubstringMatches(t *testing.T) {
	bracketed := models.Note{ID: models.NewNoteID(), Title: "Bracketed", LevelPath: "/Game/Maps/Arena[Test]", CreatedByID: alice}
	plain := models.Note{ID: models.NewNoteID(), Title: "Plain", LevelPath: "/Game/Maps/Test", CreatedByID: bob}

	assert.Equal(t, []string{"Bracketed"}, run("map=Arena[Test]", bracketed, plain))
	assert.Equal(t, run("Arena[Test]", bracketed, plain), run("map=Arena[Test]", bracketed, plain))
	assert.Equal(t, []string{"Bracketed"}, run("map=[test]", bracketed, plain))
	assert.Equal(t, []string{"Plain"}, run("map=/game/maps/t*", bracketed, plain))
}
