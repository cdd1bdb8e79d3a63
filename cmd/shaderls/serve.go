package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"shaderls/internal/driver"
	"shaderls/internal/lsp"
	"shaderls/internal/version"
)

var serveCmd = &cobra.Command{
	Use:          "serve",
	Aliases:      []string{"lsp"},
	Short:        "Run the language server over stdio",
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	serveCmd.Flags().Bool("watch", false, "watch shader roots on disk instead of relying on client file events")
}

func runServe(cmd *cobra.Command, _ []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	watch, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return fmt.Errorf("failed to get watch flag: %w", err)
	}
	server := lsp.NewServer(os.Stdin, os.Stdout, lsp.ServerOptions{
		NewDriver: func(ctx context.Context, root string, extra []string) (*driver.Driver, error) {
			return s.openDriver(ctx, root, nil, extra)
		},
		Log:     s.log,
		Level:   s.level,
		Watch:   watch || s.cfg.Watch,
		Version: version.Version,
	})
	s.log.Info("language server listening on stdio", "version", version.String())
	if err := server.Run(cmd.Context()); err != nil {
		if errors.Is(err, lsp.ErrExit) {
			return nil
		}
		if errors.Is(err, lsp.ErrExitWithoutShutdown) {
			return fmt.Errorf("lsp exit without shutdown")
		}
		return err
	}
	return nil
}
