package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devnotes/devnotes.go/pkg/models"
)

func TestParsePosition(t *testing.T) {
	pos, err := parsePosition("1.5, -2,3")
	require.NoError(t, err)
	assert.Equal(t, models.Vector{X: 1.5, Y: -2, Z: 3}, pos)

	pos, err = parsePosition("")
	require.NoError(t, err)
	assert.Equal(t, models.Vector{}, pos)

	_, err = parsePosition("1,2")
	assert.Error(t, err)
	_, err = parsePosition("1,two,3")
	assert.Error(t, err)
}

func TestParseTagIDs(t *testing.T) {
	id := models.NewTagID()
	ids, err := parseTagIDs([]string{id.String()})
	require.NoError(t, err)
	assert.Equal(t, []models.TagID{id}, ids)

	_, err = parseTagIDs([]string{"not-a-uuid"})
	assert.Error(t, err)
}

func TestIntersect(t *testing.T) {
	a := models.Note{ID: models.NewNoteID()}
	b := models.Note{ID: models.NewNoteID()}
	c := models.Note{ID: models.NewNoteID()}

	got := intersect([]models.Note{a, b, c}, []models.Note{c, a})
	assert.Equal(t, []models.NoteID{a.ID, c.ID}, []models.NoteID{got[0].ID, got[1].ID})
	assert.Len(t, got, 2)
}

func TestShellUnknownCommand(t *testing.T) {
	sh := &shell{}
	assert.NoError(t, sh.execute(""))
	assert.ErrorIs(t, sh.execute("exit"), errExit)
	assert.EqualError(t, sh.execute("frobnicate now"), "unknown command: frobnicate")
}
