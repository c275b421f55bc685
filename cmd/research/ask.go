package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/extract"
	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/models"
	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/research"
	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/session"
	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/store"
)

func askCmd(root *rootOptions) *cobra.Command {
	var sessionID, summary, focus, file string

	cmd := &cobra.Command{
		Use:   "ask <prompt>",
		Short: "Research a topic or ask a follow-up in a saved session",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			sess, err := openSession(cmd, a.Service, sessionID)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("summary") || sessionID == "" {
				sess.SummaryPreference = models.ParseSummaryPreference(summary)
			}
			if cmd.Flags().Changed("focus") || sessionID == "" {
				sess.SourceFocus = models.ParseSourceFocus(focus)
			}

			in := research.TurnInput{Prompt: strings.Join(args, " ")}
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("read %s: %w", file, err)
				}
				in.File = &extract.File{Name: filepath.Base(file), Data: data}
			}

			st, err := a.Service.Turn(ctx, sess, in)
			if err != nil {
				return err
			}
			if err := render(cmd.OutOrStdout(), st.FinalReport, root.raw); err != nil {
				return err
			}
			for _, d := range st.Degradations {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: %s\n", d.Step, d.Reason)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "session: %s (%s)\n", sess.ID, sess.Title)
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "continue a saved session")
	cmd.Flags().StringVar(&summary, "summary", "short", "report length: short or long")
	cmd.Flags().StringVar(&focus, "focus", "scholarly", "search scope: scholarly or web")
	cmd.Flags().StringVar(&file, "file", "", "txt, md, pdf or docx file to add as context")
	return cmd
}

// openSession resumes id from history, or starts a session under that id
// when it has never been saved.
func openSession(cmd *cobra.Command, svc *research.Service, id string) (*session.Context, error) {
	if id == "" {
		return svc.NewSession(nil), nil
	}
	sess, err := svc.Load(cmd.Context(), id, nil)
	if errors.Is(err, store.ErrNotFound) {
		sess = session.New(session.WelcomeGreeting, time.Now())
		sess.ID = id
		return sess, nil
	}
	return sess, err
}
