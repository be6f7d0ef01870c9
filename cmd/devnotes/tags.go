package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/devnotes/devnotes.go"
	"github.com/devnotes/devnotes.go/pkg/models"
)

var tagColour string

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List and edit tags",
}

var tagsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tags",
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
		if _, err := await(ctx, client.ListTags); err != nil {
			return err
		}
		for _, t := range client.Tags() {
			fmt.Printf("%s  %s  %s\n", t.ID, t.Colour.Hex(), t.Name)
		}
		return nil
	},
}

var tagsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a tag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		colour, err := models.ParseHex(tagColour)
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

		var tag models.Tag
		if _, err := await(ctx, func(cb devnotes.Callback) { tag = client.CreateTag(args[0], colour, cb) }); err != nil {
			return err
		}
		fmt.Println(tag.ID)
		return nil
	},
}

var tagsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a tag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := models.ParseTagID(args[0])
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
		_, err = await(ctx, func(cb devnotes.Callback) { client.DeleteTag(id, cb) })
		return err
	},
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List users",
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
		if _, err := await(ctx, client.ListUsers); err != nil {
			return err
		}
		me := client.CurrentUser().ID
		for _, u := range client.Users() {
			marker := " "
			if u.ID == me {
				marker = "*"
			}
			fmt.Printf("%s %s  %s\n", marker, u.ID, u.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tagsCmd, usersCmd)
	tagsCmd.AddCommand(tagsListCmd, tagsCreateCmd, tagsDeleteCmd)
	tagsCreateCmd.Flags().StringVar(&tagColour, "colour", "#FFFFFF", "Tag colour as #RRGGBB or #AARRGGBB")
}
