package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gophersh/gosh/core"
)

// serveCmd exposes the shell to SSH clients on the configured port.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the shell over SSH.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		configuration, err := loadConfig()
		if err != nil {
			return err
		}

		events, closeEvents, err := openEvents(configuration)
		if err != nil {
			return err
		}
		defer closeEvents()

		server, err := core.NewServer(configuration, events, diag)
		if err != nil {
			return err
		}

		errs := make(chan error, 1)
		go func() {
			errs <- server.ListenAndServe()
		}()

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errs:
			return err
		case sig := <-sigs:
			diag.Info("got signal, terminating", "signal", sig.String())
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			diag.Error("server shutdown failed", "err", err)
			return err
		}
		diag.Info("server exited")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
