package research

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/extract"
	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/models"
	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/session"
	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/store"
)

var fixedNow = time.Date(2026, 10, 14, 11, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, g *fakeLLM, archive store.ArchiveStore) (*Service, *store.SQLiteStore) {
	t.Helper()
	history := newHistory(t)
	svc := NewService(newTestEngine(t, g, &fakeSearch{}, nil), NewTitler(g), history, archive)
	svc.now = func() time.Time { return fixedNow }
	return svc, history
}

func TestServiceTurnLifecycle(t *testing.T) {
	g := &fakeLLM{plan: quantumPlan, report: "Report body.", followUp: "Short answer.", title: "Quantum Crypto"}
	archive := newMemArchive()
	svc, history := newTestService(t, g, archive)
	ctx := context.Background()

	sess := svc.NewSession(nil)
	assert.Equal(t, session.WelcomeGreeting, sess.Messages[0].Content)

	st, err := svc.Turn(ctx, sess, TurnInput{Prompt: "Impact of quantum computing on cryptography"})
	require.NoError(t, err)
	assert.Equal(t, models.RouteFullResearch, st.Route)
	assert.Equal(t, "2026-10-14 11:00:00", st.RunTime)

	require.Len(t, sess.Messages, 3)
	assert.Equal(t, models.KindUser, sess.Messages[1].Kind)
	assert.Equal(t, models.KindAssistantReport, sess.Messages[2].Kind)
	assert.Equal(t, st.FinalReport, sess.Messages[2].Content)
	assert.Equal(t, "Quantum Crypto", sess.Title)

	entry, err := history.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "Quantum Crypto", entry.Title)
	assert.Equal(t, sess.Messages, entry.Messages)

	report, err := svc.Report(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, st.FinalReport, string(report))

	st, err = svc.Turn(ctx, sess, TurnInput{Prompt: "why does that happen"})
	require.NoError(t, err)
	assert.Equal(t, models.RouteFollowUp, st.Route)
	require.Len(t, sess.Messages, 5)
	assert.Equal(t, models.KindAssistantFollowUp, sess.Messages[4].Kind)
	assert.Len(t, g.callsFor(titleSystem), 1, "title is generated once")

	report, err = svc.Report(ctx, sess.ID)
	require.NoError(t, err)
	assert.NotContains(t, string(report), models.FollowUpHeading)
}

func TestServiceTurnWithFile(t *testing.T) {
	g := &fakeLLM{plan: quantumPlan, report: "r", title: "t"}
	archive := newMemArchive()
	svc, _ := newTestService(t, g, archive)

	sess := svc.NewSession(nil)
	file := &extract.File{Name: "notes.txt", Data: []byte("lattice notes")}
	st, err := svc.Turn(context.Background(), sess, TurnInput{Prompt: "summarize", File: file})
	require.NoError(t, err)

	assert.Equal(t, "summarize\n--- FILE CONTEXT (notes.txt) ---\nlattice notes...\n---", st.Topic)
	assert.Equal(t, "summarize", sess.Messages[1].Content)
	assert.Equal(t, []byte("lattice notes"), archive.objects[store.UploadKey(sess.ID, "notes.txt")])
}

func TestServiceTurnKeepsTitleOnModelFailure(t *testing.T) {
	g := &fakeLLM{plan: quantumPlan, report: "r", title: "LLM_ERROR: busy"}
	svc, _ := newTestService(t, g, nil)

	sess := svc.NewSession(nil)
	_, err := svc.Turn(context.Background(), sess, TurnInput{Prompt: "topic"})
	require.NoError(t, err)
	assert.Equal(t, session.DefaultTitle, sess.Title)

	_, err = svc.Report(context.Background(), sess.ID)
	assert.ErrorIs(t, err, ErrNoArchive)
}

func TestServiceTurnCancelled(t *testing.T) {
	svc, history := newTestService(t, &fakeLLM{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sess := svc.NewSession(nil)
	_, err := svc.Turn(ctx, sess, TurnInput{Prompt: "topic"})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = history.Get(context.Background(), sess.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestServiceSessionsAndHistory(t *testing.T) {
	g := &fakeLLM{plan: quantumPlan, report: "r", title: "Saved chat"}
	archive := newMemArchive()
	svc, _ := newTestService(t, g, archive)
	ctx := context.Background()

	first := svc.NewSession(nil)
	first.SummaryPreference = models.SummaryLong
	_, err := svc.Turn(ctx, first, TurnInput{Prompt: "topic"})
	require.NoError(t, err)

	second := svc.NewSession(first)
	assert.Equal(t, session.NewSessionGreeting, second.Messages[0].Content)
	assert.Equal(t, models.SummaryLong, second.SummaryPreference)
	assert.Equal(t, session.DefaultTitle, second.Title)

	entries, err := svc.History(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Saved chat", entries[0].Title)

	loaded, err := svc.Load(ctx, first.ID, second)
	require.NoError(t, err)
	assert.Equal(t, first.Messages, loaded.Messages)

	require.NoError(t, svc.Delete(ctx, first.ID))
	_, err = svc.Entry(ctx, first.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, archive.objects)
	require.NoError(t, svc.Delete(ctx, "sid_missing"))
}
