package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/spf13/cobra"

	"github.com/devnotes/devnotes.go/internal/fakeserver"
	"github.com/devnotes/devnotes.go/pkg/constants"
)

var (
	serveAddr     string
	serveAccounts []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run an in-memory notes server for local testing",
	Long: `serve starts a throwaway backend speaking the same HTTP API as the
real one. Nothing is persisted. Accounts are given as name:password.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		srv := fakeserver.New()
		for _, acc := range serveAccounts {
			name, password, ok := strings.Cut(acc, ":")
			if !ok || name == "" {
				return fmt.Errorf("account %q: want name:password", acc)
			}
			u := srv.AddAccount(name, password)
			logData.Logger.Info().Str("user", name).Str("user_id", u.ID.String()).Msg("account added")
		}

		httpSrv := &http.Server{
			Addr:              serveAddr,
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx := cmd.Context()
		lifecycle.Go(ctx, func(ctx context.Context) error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Close()
			return httpSrv.Shutdown(shutdownCtx)
		}, lifecycle.WithErrorHandler(func(err error) {
			logData.Logger.Warn().Err(err).Msg("shutdown")
		}))

		logData.Logger.Info().
			Str("url", constants.HTTPScheme+"://"+serveAddr).
			Str("live_url", constants.WebsocketScheme+"://"+serveAddr+fakeserver.PathLive).
			Msg("serving")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "localhost:5281", "Listen address")
	serveCmd.Flags().StringSliceVar(&serveAccounts, "user", []string{"dev:dev"}, "Account as name:password (repeatable)")
}
