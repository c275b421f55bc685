package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/app"
	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/config"
)

type rootOptions struct {
	raw bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "research",
		Short:         "Conversational research assistant",
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVar(&opts.raw, "raw", false, "print markdown without rendering")
	root.AddCommand(askCmd(opts), historyCmd(opts))
	return root
}

// openApp loads configuration and wires the service for one command.
func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	slog.SetDefault(app.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat))
	return app.New(ctx, cfg)
}

// render writes markdown to w, styled for the terminal unless raw is set.
func render(w io.Writer, markdown string, raw bool) error {
	if raw {
		_, err := fmt.Fprintln(w, markdown)
		return err
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return err
	}
	out, err := r.Render(markdown)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}
