package research

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/llm"
	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/search"
	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/store"
)

const quantumPlan = `{
	"research_strategy": "Survey threats, then mitigations.",
	"sub_questions": [
		"Which cryptosystems does Shor's algorithm break?",
		"How close are fault-tolerant quantum computers?",
		"What is post-quantum cryptography?",
		"How are standards bodies responding?"
	],
	"expected_output_format": "Short report"
}`

// fakeLLM answers by system prompt so one fake can serve every step.
type fakeLLM struct {
	mu       sync.Mutex
	calls    []llm.Request
	plan     string
	report   string
	followUp string
	title    string
	err      error
}

func (f *fakeLLM) Generate(_ context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return "", f.err
	}
	switch {
	case req.System == plannerSystem:
		return f.plan, nil
	case req.System == followUpSystem:
		return f.followUp, nil
	case req.System == titleSystem:
		return f.title, nil
	case strings.HasPrefix(req.System, "Synthesize findings"):
		return f.report, nil
	}
	return "", errors.New("unexpected request")
}

func (f *fakeLLM) callsFor(system string) []llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []llm.Request
	for _, c := range f.calls {
		if c.System == system {
			out = append(out, c)
		}
	}
	return out
}

type searchCall struct {
	query string
	opts  search.Options
}

// fakeSearch returns two results per query unless the query is listed in fail.
type fakeSearch struct {
	mu    sync.Mutex
	calls []searchCall
	fail  map[string]bool
}

func (f *fakeSearch) Name() string { return "fake" }

func (f *fakeSearch) Search(_ context.Context, query string, opts search.Options) ([]search.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, searchCall{query: query, opts: opts})
	if f.fail[query] {
		return nil, errors.New("rate limited")
	}
	return []search.Result{
		{Title: "one", URL: "https://one.example", Content: "first snippet for " + query},
		{Title: "two", URL: "https://two.example", Content: strings.Repeat("x", 500)},
	}, nil
}

// fakePages renders URLs without network access; URLs containing "broken" fail.
type fakePages struct{}

func (fakePages) Extract(_ context.Context, rawURL string) (string, error) {
	if strings.Contains(rawURL, "broken") {
		return "\nError extracting URL: " + rawURL + "\n", errors.New("status 500")
	}
	return "\n--- URL CONTENT (" + rawURL + ") ---\npage text...\n---", nil
}

// memArchive is an in-memory attachment store.
type memArchive struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemArchive() *memArchive { return &memArchive{objects: make(map[string][]byte)} }

func (a *memArchive) Upload(_ context.Context, key string, data []byte, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.objects[key] = append([]byte(nil), data...)
	return nil
}

func (a *memArchive) Download(_ context.Context, key string) ([]byte, string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	data, ok := a.objects[key]
	if !ok {
		return nil, "", store.ErrNotFound
	}
	return data, "text/markdown", nil
}

func (a *memArchive) RemovePrefix(_ context.Context, prefix string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for k := range a.objects {
		if strings.HasPrefix(k, prefix) {
			delete(a.objects, k)
		}
	}
	return nil
}

func newHistory(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// newTestEngine wires an engine around the fakes. provider may be nil.
func newTestEngine(t *testing.T, g llm.Generator, provider search.Provider, m *Metrics) *Engine {
	t.Helper()
	planner, err := NewPlanner(g)
	require.NoError(t, err)
	return NewEngine(
		planner,
		NewSearcher(fakePages{}, provider, m),
		NewWriter(g),
		NewFollowUp(g, provider, m),
		m,
	)
}
