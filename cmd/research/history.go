package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/models"
)

func historyCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List, show or delete saved sessions",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.Service.History(cmd.Context())
			if err != nil {
				return err
			}
			return writeHistory(cmd, entries)
		},
	}

	show := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Print a saved conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			entry, err := a.Service.Entry(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), transcript(entry), root.raw)
		},
	}

	del := &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a saved session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Service.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, show, del)
	return cmd
}

func writeHistory(cmd *cobra.Command, entries []models.HistoryEntry) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tSAVED\tTITLE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.SessionID, e.Timestamp.Local().Format(models.RunTimeLayout), e.Title)
	}
	return tw.Flush()
}

// transcript renders a saved session as one markdown document.
func transcript(e *models.HistoryEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", e.Title)
	for _, m := range e.Messages {
		if m.Role == models.RoleUser {
			fmt.Fprintf(&b, "**You:** %s\n\n", m.Content)
			continue
		}
		b.WriteString(m.Content + "\n\n---\n\n")
	}
	return b.String()
}
