package main

import (
	"fmt"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/devnotes/devnotes.go"
)

var signInPassword string

var signInCmd = &cobra.Command{
	Use:   "signin <username>",
	Short: "Sign in and store the session token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password := signInPassword
		if password == "" {
			var err error
			if password, err = readPassword("Password: "); err != nil {
				return err
			}
		}

		ctx := cmd.Context()
		client, err := connect(ctx)
		if err != nil {
			return err
		}
		defer client.Close()

		if _, err := await(ctx, func(cb devnotes.Callback) { client.SignIn(args[0], password, cb) }); err != nil {
			return err
		}
		fmt.Printf("Signed in as %s\n", args[0])
		return nil
	},
}

var signOutCmd = &cobra.Command{
	Use:   "signout",
	Short: "End the session and delete the stored token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := connect(ctx)
		if err != nil {
			return err
		}
		defer client.Close()

		if !client.IsLoggedIn() {
			fmt.Println("Not signed in")
			return nil
		}
		if _, err := await(ctx, client.SignOut); err != nil {
			fmt.Printf("Signed out locally; server did not confirm: %v\n", err)
			return nil
		}
		fmt.Println("Signed out")
		return nil
	},
}

func readPassword(prompt string) (string, error) {
	rl, err := readline.New("")
	if err != nil {
		return "", err
	}
	defer rl.Close()
	pw, err := rl.ReadPassword(prompt)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

func init() {
	rootCmd.AddCommand(signInCmd, signOutCmd)
	signInCmd.Flags().StringVarP(&signInPassword, "password", "p", "", "Password (prompted when empty)")
}
