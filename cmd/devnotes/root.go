package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/devnotes/devnotes.go/pkg/config"
	"github.com/devnotes/devnotes.go/pkg/logger"
)

var (
	cfgFile    string
	serverAddr string
	dataDir    string
	verbose    bool

	settings config.Config
	logData  *logger.LogData
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "devnotes",
	Short: "Read and edit level notes on a dev notes server",
	Long: `devnotes talks to a dev notes backend: text notes pinned to positions
inside game levels, coloured tags and the users who wrote them.

The session token is kept under the data directory, so one sign-in serves
every later command until sign-out or until the server rejects it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		settings, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		if serverAddr != "" {
			settings.ServerAddress = serverAddr
		}
		if dataDir != "" {
			settings.DataDir = dataDir
		}
		if verbose {
			settings.LogLevel = "debug"
		}
		if err := settings.Validate(); err != nil {
			return err
		}

		logData, err = logger.New().
			FromPath(settings.LogPath).
			Level(settings.LogLevel).
			Console(true).
			Make()
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logData != nil {
			_ = logData.Close()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVarP(&serverAddr, "server", "s", "", "Server address (overrides config and "+config.EnvServer+")")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory holding DevNotes/session.token")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}
