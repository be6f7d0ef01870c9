package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/devnotes/devnotes.go"
	"github.com/devnotes/devnotes.go/pkg/filter"
	"github.com/devnotes/devnotes.go/pkg/models"
)

var errExit = errors.New("exit requested")

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive session with live refresh",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := connect(ctx, func(cfg *devnotes.Config) {
			cfg.PollInterval = settings.PollInterval
			cfg.WatchSession = true
		})
		if err != nil {
			return err
		}
		defer client.Close()

		rl, err := readline.NewEx(&readline.Config{
			Prompt:          prompt(client),
			HistoryFile:     filepath.Join(settings.DataDir, "DevNotes", "shell_history"),
			InterruptPrompt: "^C",
			EOFPrompt:       "exit",
		})
		if err != nil {
			return fmt.Errorf("init readline: %w", err)
		}
		defer rl.Close()

		client.Subscribe(devnotes.SignedOut, func(devnotes.Event) {
			rl.SetPrompt(prompt(client))
			rl.Refresh()
		})

		sh := &shell{ctx: ctx, client: client}
		for {
			line, err := rl.Readline()
			if errors.Is(err, readline.ErrInterrupt) {
				fmt.Println("Use 'exit' to leave the shell.")
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}

			err = sh.execute(strings.TrimSpace(line))
			if errors.Is(err, errExit) {
				return nil
			}
			if err != nil {
				fmt.Println("Error:", err)
			}
			rl.SetPrompt(prompt(client))
		}
	},
}

func prompt(client *devnotes.Client) string {
	switch client.SessionState() {
	case devnotes.StateSignedIn:
		if name := client.CurrentUser().Name; name != "" {
			return name + "> "
		}
		return "devnotes> "
	case devnotes.StateValidating:
		return "devnotes (validating)> "
	default:
		return "devnotes (signed out)> "
	}
}

type shell struct {
	ctx    context.Context
	client *devnotes.Client
}

// execute runs one line. The first word is the command; query commands get
// the rest of the line verbatim so quoting survives.
func (sh *shell) execute(line string) error {
	if line == "" {
		return nil
	}
	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	args := filter.Tokenize(rest)

	switch name {
	case "help":
		sh.help(args)
		return nil
	case "exit", "quit":
		return errExit
	case "signin":
		return sh.signIn(args)
	case "signout":
		_, err := await(sh.ctx, sh.client.SignOut)
		return err
	case "retry":
		sh.client.RetryValidation()
		return nil
	case "refresh":
		_, err := await(sh.ctx, sh.client.RequestNotes)
		return err
	case "notes":
		sh.printNotes(sh.client.Filter(rest))
		return nil
	case "levels":
		sh.printNotes(sh.client.NotesForLevels(args...))
		return nil
	case "show":
		return sh.show(args)
	case "new":
		return sh.newNote(args)
	case "title", "body":
		return sh.edit(name, args)
	case "delete":
		return sh.deleteNote(args)
	case "tags":
		for _, t := range sh.client.Tags() {
			fmt.Printf("%s  %s  %s\n", t.ID, t.Colour.Hex(), t.Name)
		}
		return nil
	case "tag":
		return sh.createTag(args)
	case "users":
		for _, u := range sh.client.Users() {
			fmt.Printf("%s  %s\n", u.ID, u.Name)
		}
		return nil
	case "edit":
		return sh.editMode(args)
	case "state":
		return printJSON(sh.client.State())
	default:
		return fmt.Errorf("unknown command: %s", name)
	}
}

func (sh *shell) signIn(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: signin <username> [password]")
	}
	password := ""
	if len(args) > 1 {
		password = args[1]
	} else {
		var err error
		if password, err = readPassword("Password: "); err != nil {
			return err
		}
	}
	_, err := await(sh.ctx, func(cb devnotes.Callback) { sh.client.SignIn(args[0], password, cb) })
	return err
}

func (sh *shell) printNotes(notes []models.Note) {
	sort.SliceStable(notes, func(i, j int) bool { return notes[i].LevelPath < notes[j].LevelPath })
	for _, n := range notes {
		fmt.Printf("%s  %-30s  %s  [%s]\n", n.ID, n.Title, n.LevelPath, strings.Join(sh.client.TagNames(n), ", "))
	}
	fmt.Printf("%d note(s)\n", len(notes))
}

func (sh *shell) note(args []string) (models.Note, error) {
	if len(args) < 1 {
		return models.Note{}, errors.New("note id required")
	}
	id, err := models.ParseNoteID(args[0])
	if err != nil {
		return models.Note{}, err
	}
	n, ok := sh.client.Note(id)
	if !ok {
		return models.Note{}, fmt.Errorf("note %s not found", id)
	}
	return n, nil
}

func (sh *shell) show(args []string) error {
	n, err := sh.note(args)
	if err != nil {
		return err
	}
	return printJSON(noteView(sh.client, n))
}

func (sh *shell) newNote(args []string) error {
	if len(args) != 1 && len(args) != 2 {
		return errors.New("usage: new <level> [x,y,z]")
	}
	var pos models.Vector
	if len(args) == 2 {
		var err error
		if pos, err = parsePosition(args[1]); err != nil {
			return err
		}
	}
	var n models.Note
	if _, err := await(sh.ctx, func(cb devnotes.Callback) { n = sh.client.NewNoteAt(args[0], pos, cb) }); err != nil {
		return err
	}
	fmt.Println(n.ID)
	return nil
}

// edit changes one text field. Automatic refreshes are held back while the
// edit is in flight.
func (sh *shell) edit(field string, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: %s <id> <text>", field)
	}
	n, err := sh.note(args)
	if err != nil {
		return err
	}
	text := strings.Join(args[1:], " ")
	if field == "title" {
		n.Title = text
	} else {
		n.Body = text
	}

	sh.client.BeginEdit()
	defer sh.client.EndEdit()
	_, err = await(sh.ctx, func(cb devnotes.Callback) { sh.client.UpdateNote(n, cb) })
	return err
}

func (sh *shell) deleteNote(args []string) error {
	n, err := sh.note(args)
	if err != nil {
		return err
	}
	_, err = await(sh.ctx, func(cb devnotes.Callback) { sh.client.DeleteNote(n.ID, cb) })
	return err
}

func (sh *shell) createTag(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: tag <name> [#RRGGBB]")
	}
	colour := models.FromRGBA(0xff, 0xff, 0xff, 0xff)
	if len(args) > 1 {
		var err error
		if colour, err = models.ParseHex(args[1]); err != nil {
			return err
		}
	}
	_, err := await(sh.ctx, func(cb devnotes.Callback) { sh.client.CreateTag(args[0], colour, cb) })
	return err
}

func (sh *shell) editMode(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: edit begin|end")
	}
	switch args[0] {
	case "begin":
		sh.client.BeginEdit()
	case "end":
		sh.client.EndEdit()
	default:
		return errors.New("usage: edit begin|end")
	}
	return nil
}

func (sh *shell) help(args []string) {
	if len(args) > 0 {
		if text, ok := shellHelp[args[0]]; ok {
			fmt.Println(text)
			return
		}
		fmt.Printf("Unknown command: %s\n", args[0])
		return
	}
	names := make([]string, 0, len(shellHelp))
	for name := range shellHelp {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("Available commands:")
	for _, name := range names {
		fmt.Printf("  %s\n", name)
	}
	fmt.Println("\nUse 'help <command>' for details.")
}

var shellHelp = map[string]string{
	"signin":  "signin <username> [password]\n  Sign in. The password is prompted for when omitted.",
	"signout": "signout\n  End the session. Local state is cleared even if the server is down.",
	"retry":   "retry\n  Re-check a stored token now instead of waiting for the next attempt.",
	"refresh": "refresh\n  Fetch tags, users and notes.",
	"notes":   "notes [query]\n  List cached notes. Query examples: Boss, map=Test, tag=\"Mission Critical\", map=/Game/**/Test*",
	"levels":  "levels <level>...\n  List notes placed in the given levels.",
	"show":    "show <id>\n  Print one note.",
	"new":     "new <level> [x,y,z]\n  Create a default note at a position.",
	"title":   "title <id> <text>\n  Rename a note.",
	"body":    "body <id> <text>\n  Replace a note's body.",
	"delete":  "delete <id>\n  Delete a note.",
	"tags":    "tags\n  List cached tags.",
	"tag":     "tag <name> [#RRGGBB]\n  Create a tag.",
	"users":   "users\n  List cached users.",
	"edit":    "edit begin|end\n  Hold automatic refreshes back, then release them.",
	"state":   "state\n  Print the client state.",
	"exit":    "exit\n  Leave the shell.",
}

func init() {
	rootCmd.AddCommand(shellCmd)
}
