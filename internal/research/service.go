package research

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/extract"
	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/models"
	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/session"
	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/store"
)

// ErrNoArchive is returned by Report when no attachment store is configured.
var ErrNoArchive = errors.New("research: attachment store not configured")

// TurnInput is one user turn. File is optional.
type TurnInput struct {
	Prompt string
	File   *extract.File
}

// Service runs turns against session contexts and keeps history in sync.
type Service struct {
	engine  *Engine
	titler  *Titler
	history store.HistoryStore
	archive store.ArchiveStore
	now     func() time.Time
}

// NewService wires the graph to persistence. archive may be nil.
func NewService(engine *Engine, titler *Titler, history store.HistoryStore, archive store.ArchiveStore) *Service {
	return &Service{engine: engine, titler: titler, history: history, archive: archive, now: time.Now}
}

// Turn appends the prompt to sess, runs the graph and appends its output.
// The returned state carries every tolerated failure. An error means the turn
// was abandoned; sess must then be discarded by the caller.
func (s *Service) Turn(ctx context.Context, sess *session.Context, in TurnInput) (*models.State, error) {
	sess.Append(models.Message{Role: models.RoleUser, Kind: models.KindUser, Content: in.Prompt})

	fileBlock, fileErr := extract.FileBlock(in.File)
	now := s.now()
	st := &models.State{
		Topic:             in.Prompt + fileBlock,
		SummaryPreference: sess.SummaryPreference,
		SourceFocus:       sess.SourceFocus,
		RunTime:           now.Format(models.RunTimeLayout),
		Messages:          append([]models.Message(nil), sess.Messages...),
	}
	if fileErr != nil {
		st.Degrade("file", fileErr.Error())
	}

	if err := s.engine.Run(ctx, st); err != nil {
		return nil, fmt.Errorf("research turn: %w", err)
	}

	kind := models.KindAssistantReport
	if st.Route == models.RouteFollowUp {
		kind = models.KindAssistantFollowUp
	}
	sess.Append(models.Message{Role: models.RoleAssistant, Kind: kind, Content: st.FinalReport})

	if sess.Title == session.DefaultTitle {
		title, err := s.titler.Title(ctx, sess.Messages)
		if err != nil {
			s.degrade(st, "title", err)
		}
		sess.Title = title
	}

	if err := s.history.Save(ctx, sess.ID, sess.Title, sess.Messages); err != nil {
		s.degrade(st, "history", err)
	}
	s.archiveTurn(ctx, sess.ID, in.File, st)
	return st, nil
}

func (s *Service) archiveTurn(ctx context.Context, sessionID string, file *extract.File, st *models.State) {
	if s.archive == nil {
		return
	}
	if file != nil {
		if err := s.archive.Upload(ctx, store.UploadKey(sessionID, file.Name), file.Data, "application/octet-stream"); err != nil {
			s.degrade(st, "archive", err)
		}
	}
	if st.Route == models.RouteFullResearch {
		if err := s.archive.Upload(ctx, store.ReportKey(sessionID), []byte(st.FinalReport), "text/markdown"); err != nil {
			s.degrade(st, "archive", err)
		}
	}
}

func (s *Service) degrade(st *models.State, step string, err error) {
	st.Degrade(step, err.Error())
	s.engine.metrics.observeDegradation(step)
	slog.Warn("research step degraded", "route", st.Route, "step", step, "reason", err)
}

// NewSession opens a fresh context. Clients that already had a session get
// the shorter greeting.
func (s *Service) NewSession(current *session.Context) *session.Context {
	greeting := session.WelcomeGreeting
	if current != nil {
		greeting = session.NewSessionGreeting
	}
	next := session.New(greeting, s.now())
	if current != nil {
		next.SummaryPreference = current.SummaryPreference
		next.SourceFocus = current.SourceFocus
	}
	return next
}

// Load opens a saved session as the current context.
func (s *Service) Load(ctx context.Context, id string, current *session.Context) (*session.Context, error) {
	entry, err := s.history.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return session.FromHistory(entry, current), nil
}

// History lists saved sessions, newest first.
func (s *Service) History(ctx context.Context) ([]models.HistoryEntry, error) {
	return s.history.List(ctx)
}

// Entry returns one saved session.
func (s *Service) Entry(ctx context.Context, id string) (*models.HistoryEntry, error) {
	return s.history.Get(ctx, id)
}

// Delete removes a saved session and its attachments. Unknown ids are a no-op.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.history.Delete(ctx, id); err != nil {
		return err
	}
	if s.archive != nil {
		if err := s.archive.RemovePrefix(ctx, store.SessionPrefix(id)); err != nil {
			slog.Warn("attachment cleanup failed", "session", id, "err", err)
		}
	}
	return nil
}

// Report returns the latest archived report of a session.
func (s *Service) Report(ctx context.Context, id string) ([]byte, error) {
	if s.archive == nil {
		return nil, ErrNoArchive
	}
	data, _, err := s.archive.Download(ctx, store.ReportKey(id))
	if err != nil {
		return nil, fmt.Errorf("report %s: %w", id, err)
	}
	return data, nil
}
