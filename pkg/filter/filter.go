// Package filter implements the note search box: a quote-aware tokenizer and
// a matcher for bare terms and field=value tokens.
//
// Tokens of the same field are ORed, different fields are ANDed, and bare
// terms are ORed among themselves and ANDed with the fields. Matching is a
// case-insensitive substring test, except for map= values containing glob
// metacharacters, which are matched against the whole level path.
package filter

import (
	"strings"
	"unicode"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/devnotes/devnotes.go/pkg/models"
)

// Field is a recognized key in a key=value token.
type Field string

const (
	FieldName Field = "name"
	FieldUser Field = "user"
	FieldMap  Field = "map"
	FieldTag  Field = "tag"
)

// Fields lists the recognized keys in a fixed order.
var Fields = []Field{FieldName, FieldUser, FieldMap, FieldTag}

func (f Field) known() bool {
	switch f {
	case FieldName, FieldUser, FieldMap, FieldTag:
		return true
	}
	return false
}

// Resolver supplies the display names a note only references by id.
type Resolver interface {
	UserName(id models.UserID) string
	// TagName reports false for a tag that is not cached.
	TagName(id models.TagID) (string, bool)
}

// Query is a parsed search string.
type Query struct {
	Fields map[Field][]string
	Terms  []string
	// Ignored collects key=value tokens with an unknown key.
	Ignored []string
}

// Tokenize splits s on whitespace outside double quotes. Quote characters
// toggle the quoted region and are dropped from the tokens.
func Tokenize(s string) []string {
	var (
		tokens   []string
		current  strings.Builder
		inQuotes bool
	)
	for _, r := range s {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case !inQuotes && unicode.IsSpace(r):
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

func trimValue(s string) string {
	return strings.TrimSpace(strings.Trim(s, `"`))
}

// Parse tokenizes s and sorts the tokens into field values and bare terms.
// A token is split on its first '='; keys are case-insensitive.
func Parse(s string) Query {
	q := Query{Fields: make(map[Field][]string)}
	for _, token := range Tokenize(s) {
		key, value, found := strings.Cut(token, "=")
		if !found {
			q.Terms = append(q.Terms, trimValue(token))
			continue
		}
		field := Field(strings.ToLower(strings.TrimSpace(key)))
		if !field.known() {
			q.Ignored = append(q.Ignored, token)
			continue
		}
		q.Fields[field] = append(q.Fields[field], trimValue(value))
	}
	return q
}

// IsEmpty reports whether the query lets every note through.
func (q Query) IsEmpty() bool {
	return len(q.Terms) == 0 && len(q.Fields) == 0
}

// Match reports whether n passes every field group and, when there are bare
// terms, at least one of them.
func (q Query) Match(n models.Note, r Resolver) bool {
	for _, field := range Fields {
		values, ok := q.Fields[field]
		if !ok {
			continue
		}
		if !anyOf(values, func(v string) bool { return matchField(field, v, n, r) }) {
			return false
		}
	}

	if len(q.Terms) == 0 {
		return true
	}
	return anyOf(q.Terms, func(term string) bool { return matchTerm(term, n, r) })
}

// Apply returns the notes that match q, keeping their order.
func Apply(notes []models.Note, q Query, r Resolver) []models.Note {
	out := make([]models.Note, 0, len(notes))
	for _, n := range notes {
		if q.Match(n, r) {
			out = append(out, n)
		}
	}
	return out
}

func anyOf(values []string, pred func(string) bool) bool {
	for _, v := range values {
		if pred(v) {
			return true
		}
	}
	return false
}

func contains(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func matchField(field Field, value string, n models.Note, r Resolver) bool {
	switch field {
	case FieldName:
		return contains(n.Title, value)
	case FieldUser:
		return contains(userName(n, r), value)
	case FieldMap:
		return matchMap(n.LevelPath, value)
	case FieldTag:
		return anyTag(n, r, value)
	}
	return false
}

func matchTerm(term string, n models.Note, r Resolver) bool {
	return contains(n.Title, term) ||
		contains(n.LevelPath, term) ||
		contains(userName(n, r), term) ||
		anyTag(n, r, term)
}

func userName(n models.Note, r Resolver) string {
	if r == nil {
		return ""
	}
	return r.UserName(n.CreatedByID)
}

// anyTag checks the names of the note's tags. Tags missing from the
// resolver are skipped.
func anyTag(n models.Note, r Resolver, value string) bool {
	if r == nil {
		return false
	}
	for _, id := range n.Tags {
		name, ok := r.TagName(id)
		if ok && contains(name, value) {
			return true
		}
	}
	return false
}

func isGlob(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

// matchMap is a substring test. A value that is also a valid glob matches
// whole level paths as well, so a glob can only add matches.
func matchMap(levelPath, value string) bool {
	if contains(levelPath, value) {
		return true
	}
	if !isGlob(value) {
		return false
	}
	ok, err := doublestar.Match(strings.ToLower(value), strings.ToLower(levelPath))
	return err == nil && ok
}
