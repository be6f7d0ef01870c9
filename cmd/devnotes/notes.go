package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devnotes/devnotes.go"
	"github.com/devnotes/devnotes.go/pkg/codec"
	"github.com/devnotes/devnotes.go/pkg/models"
)

var (
	listJSON   bool
	listLevels []string

	noteTitle    string
	noteBody     string
	noteLevel    string
	notePos      string
	noteTags     []string
	noteTagNames []string
	noteAuthor   string
)

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "List and edit notes",
}

var notesListCmd = &cobra.Command{
	Use:   "list [query]",
	Short: "List notes, optionally filtered",
	Long: `List notes. The optional query uses the search box syntax:
bare words match titles, and name=, user=, map= and tag= restrict by field.
Quote values with spaces: tag="Mission Critical". map= accepts globs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := connect(ctx)
		if err != nil {
			return err
		}
		defer client.Close()
		if err := requireSession(client); err != nil {
			return err
		}
		if _, err := await(ctx, client.RequestNotes); err != nil {
			return err
		}

		notes := client.Filter(strings.Join(args, " "))
		if len(listLevels) > 0 {
			notes = intersect(notes, client.NotesForLevels(listLevels...))
		}

		if listJSON {
			out := make([]map[string]any, 0, len(notes))
			for _, n := range notes {
				out = append(out, noteView(client, n))
			}
			return printJSON(out)
		}
		for _, n := range notes {
			fmt.Printf("%s  %-30s  %-28s  %-12s  %s\n",
				n.ID, n.Title, n.LevelPath, client.UserName(n.CreatedByID), strings.Join(client.TagNames(n), ", "))
		}
		return nil
	},
}

var notesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a note",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := connect(ctx)
		if err != nil {
			return err
		}
		defer client.Close()
		if err := requireSession(client); err != nil {
			return err
		}

		pos, err := parsePosition(notePos)
		if err != nil {
			return err
		}
		tags, err := parseTagIDs(noteTags)
		if err != nil {
			return err
		}

		n := models.Note{
			ID:            models.NewNoteID(),
			Title:         noteTitle,
			Body:          noteBody,
			CreatedByID:   client.CurrentUser().ID,
			LevelPath:     noteLevel,
			WorldPosition: pos,
		}
		n.SetTags(tags...)

		if _, err := await(ctx, func(cb devnotes.Callback) { client.CreateNote(n, cb) }); err != nil {
			return err
		}
		fmt.Println(n.ID)
		return nil
	},
}

var notesNewCmd = &cobra.Command{
	Use:   "new <level>",
	Short: "Create a default note at a position",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := connect(ctx)
		if err != nil {
			return err
		}
		defer client.Close()
		if err := requireSession(client); err != nil {
			return err
		}

		pos, err := parsePosition(notePos)
		if err != nil {
			return err
		}
		var n models.Note
		if _, err := await(ctx, func(cb devnotes.Callback) { n = client.NewNoteAt(args[0], pos, cb) }); err != nil {
			return err
		}
		fmt.Println(n.ID)
		return nil
	},
}

var notesUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change a note's title, body, level, position or tags",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := models.ParseNoteID(args[0])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		client, err := connect(ctx)
		if err != nil {
			return err
		}
		defer client.Close()
		if err := requireSession(client); err != nil {
			return err
		}
		if _, err := await(ctx, client.ListNotes); err != nil {
			return err
		}

		n, ok := client.Note(id)
		if !ok {
			return fmt.Errorf("note %s not found", id)
		}
		flags := cmd.Flags()
		if flags.Changed("title") {
			n.Title = noteTitle
		}
		if flags.Changed("body") {
			n.Body = noteBody
		}
		if flags.Changed("level") {
			n.LevelPath = noteLevel
		}
		if flags.Changed("pos") {
			if n.WorldPosition, err = parsePosition(notePos); err != nil {
				return err
			}
		}
		if flags.Changed("tag") {
			tags, err := parseTagIDs(noteTags)
			if err != nil {
				return err
			}
			n.SetTags(tags...)
		}

		_, err = await(ctx, func(cb devnotes.Callback) { client.UpdateNote(n, cb) })
		return err
	},
}

var notesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := models.ParseNoteID(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		client, err := connect(ctx)
		if err != nil {
			return err
		}
		defer client.Close()
		if err := requireSession(client); err != nil {
			return err
		}
		_, err = await(ctx, func(cb devnotes.Callback) { client.DeleteNote(id, cb) })
		return err
	},
}

var notesUploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload a note by author and tag names",
	Long: `Upload a note that names its author and tags instead of referencing
their ids. The server creates tags it does not know yet.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := connect(ctx)
		if err != nil {
			return err
		}
		defer client.Close()
		if err := requireSession(client); err != nil {
			return err
		}

		pos, err := parsePosition(notePos)
		if err != nil {
			return err
		}
		author := noteAuthor
		if author == "" {
			author = client.CurrentUser().Name
		}
		u := models.NoteUpload{
			ID:                models.NewNoteID(),
			Title:             noteTitle,
			Body:              noteBody,
			LevelPath:         noteLevel,
			WorldPosition:     pos,
			TagNames:          noteTagNames,
			CreatedByUserName: author,
		}
		if _, err := await(ctx, func(cb devnotes.Callback) { client.UploadNote(u, cb) }); err != nil {
			return err
		}
		fmt.Println(u.ID)
		return nil
	},
}

func noteView(client *devnotes.Client, n models.Note) map[string]any {
	return map[string]any{
		"id":         n.ID.String(),
		"title":      n.Title,
		"body":       n.Body,
		"levelPath":  n.LevelPath,
		"position":   []float64{n.WorldPosition.X, n.WorldPosition.Y, n.WorldPosition.Z},
		"author":     client.UserName(n.CreatedByID),
		"createdAt":  codec.FormatTime(n.CreatedAt),
		"lastEdited": codec.FormatTime(n.LastEdited),
		"tags":       client.TagNames(n),
	}
}

func intersect(notes, keep []models.Note) []models.Note {
	ids := make(map[models.NoteID]struct{}, len(keep))
	for _, n := range keep {
		ids[n.ID] = struct{}{}
	}
	out := notes[:0]
	for _, n := range notes {
		if _, ok := ids[n.ID]; ok {
			out = append(out, n)
		}
	}
	return out
}

// parsePosition reads "x,y,z". An empty string is the origin.
func parsePosition(s string) (models.Vector, error) {
	if strings.TrimSpace(s) == "" {
		return models.Vector{}, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return models.Vector{}, fmt.Errorf("position %q: want x,y,z", s)
	}
	var xyz [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return models.Vector{}, fmt.Errorf("position %q: %w", s, err)
		}
		xyz[i] = f
	}
	return models.Vector{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}

func parseTagIDs(values []string) ([]models.TagID, error) {
	ids := make([]models.TagID, 0, len(values))
	for _, v := range values {
		id, err := models.ParseTagID(v)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func addNoteFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&noteTitle, "title", "", "Note title")
	cmd.Flags().StringVar(&noteBody, "body", "", "Note body")
	cmd.Flags().StringVar(&noteLevel, "level", "", "Level path, e.g. /Game/Maps/Test")
	cmd.Flags().StringVar(&notePos, "pos", "", "World position as x,y,z")
}

func init() {
	rootCmd.AddCommand(notesCmd)
	notesCmd.AddCommand(notesListCmd, notesCreateCmd, notesNewCmd, notesUpdateCmd, notesDeleteCmd, notesUploadCmd)

	notesListCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	notesListCmd.Flags().StringSliceVar(&listLevels, "level", nil, "Only notes in these levels")

	addNoteFlags(notesCreateCmd)
	notesCreateCmd.Flags().StringSliceVar(&noteTags, "tag", nil, "Tag id (repeatable)")
	addNoteFlags(notesUpdateCmd)
	notesUpdateCmd.Flags().StringSliceVar(&noteTags, "tag", nil, "Tag id (repeatable)")
	notesNewCmd.Flags().StringVar(&notePos, "pos", "", "World position as x,y,z")
	addNoteFlags(notesUploadCmd)
	notesUploadCmd.Flags().StringSliceVar(&noteTagNames, "tag", nil, "Tag name (repeatable)")
	notesUploadCmd.Flags().StringVar(&noteAuthor, "author", "", "Author user name (defaults to you)")
}
