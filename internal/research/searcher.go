package research

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/models"
	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/search"
	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/textutil"
)

// SnippetBudget is the number of characters kept per search result.
const SnippetBudget = 400

const researchMaxResults = 2

// reasonNoProvider distinguishes an absent search client from a failing one.
const reasonNoProvider = "no search provider configured"

// PageExtractor renders a URL found in the topic as a findings block.
type PageExtractor interface {
	Extract(ctx context.Context, rawURL string) (string, error)
}

// Searcher gathers findings for the planned sub-questions.
type Searcher struct {
	pages    PageExtractor
	provider search.Provider
	metrics  *Metrics
}

// NewSearcher returns a Searcher. provider may be nil when no search key is
// configured; URLs in the topic are still fetched.
func NewSearcher(pages PageExtractor, provider search.Provider, m *Metrics) *Searcher {
	return &Searcher{pages: pages, provider: provider, metrics: m}
}

// Search appends URL blocks, then one findings block per sub-question, to
// st.ResearchResults.
func (s *Searcher) Search(ctx context.Context, st *models.State) {
	for _, u := range textutil.FindURLs(st.Topic) {
		block, err := s.pages.Extract(ctx, u)
		if err != nil {
			slog.Warn("url extraction failed", "url", u, "err", err)
			st.Degrade("fetch", err.Error())
		}
		st.ResearchResults = append(st.ResearchResults, block)
	}

	if s.provider == nil {
		s.metrics.observeSearch("searcher", SearchDisabled)
		st.Degrade("search", reasonNoProvider)
		return
	}

	suffix := " latest news"
	if st.SourceFocus == models.FocusScholarly {
		suffix = " scholarly papers"
	}
	for _, q := range st.SubQuestions {
		if ctx.Err() != nil {
			return
		}
		results, err := s.provider.Search(ctx, q+suffix, search.Options{
			Depth:      search.DepthAdvanced,
			MaxResults: researchMaxResults,
		})
		if err != nil {
			s.metrics.observeSearch("searcher", SearchError)
			st.Degrade("search", fmt.Sprintf("%s %q: %v", s.provider.Name(), q, err))
			continue
		}
		s.metrics.observeSearch("searcher", SearchOK)
		st.ResearchResults = append(st.ResearchResults, findingsBlock(q, results))
	}
}

func findingsBlock(question string, results []search.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Findings for: %s**\n", question)
	for _, r := range results {
		fmt.Fprintf(&b, "- URL: %s\n- Snippet: %s\n", r.URL, textutil.Truncate(r.Content, SnippetBudget))
	}
	return b.String()
}
