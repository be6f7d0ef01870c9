package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/devnotes/devnotes.go"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stay signed in and print changes as they arrive",
	Long: `watch keeps a client running: it polls the server, listens for live
hints when a live URL is configured and follows sign-ins and sign-outs made
by other devnotes processes through the token file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := connect(ctx, func(cfg *devnotes.Config) {
			cfg.PollInterval = settings.PollInterval
			if watchInterval > 0 {
				cfg.PollInterval = watchInterval
			}
			cfg.WatchSession = true
		})
		if err != nil {
			return err
		}
		defer client.Close()

		report := func(e devnotes.Event) {
			switch e.Type {
			case devnotes.NotesUpdated:
				fmt.Printf("%s notes: %d\n", time.Now().Format(time.TimeOnly), len(client.Notes()))
			case devnotes.TagsUpdated:
				fmt.Printf("%s tags: %d\n", time.Now().Format(time.TimeOnly), len(client.Tags()))
			case devnotes.UsersUpdated:
				fmt.Printf("%s users: %d\n", time.Now().Format(time.TimeOnly), len(client.Users()))
			case devnotes.SignedIn:
				fmt.Printf("%s signed in\n", time.Now().Format(time.TimeOnly))
			case devnotes.SignedOut:
				fmt.Printf("%s signed out\n", time.Now().Format(time.TimeOnly))
			}
		}
		for _, t := range []devnotes.EventType{devnotes.NotesUpdated, devnotes.TagsUpdated, devnotes.UsersUpdated, devnotes.SignedIn, devnotes.SignedOut} {
			client.Subscribe(t, report)
		}

		fmt.Printf("watching %s (%s), Ctrl-C to stop\n", settings.ServerAddress, client.SessionState())
		if client.IsLoggedIn() {
			client.RequestNotes(nil)
		}
		<-ctx.Done()
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the client state as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer client.Close()
		return printJSON(client.State())
	},
}

func init() {
	rootCmd.AddCommand(watchCmd, statusCmd)
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "Poll interval (defaults to the configured one)")
}
