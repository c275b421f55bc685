package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/llm"
	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/models"
	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/search"
	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/textutil"
)

const (
	followUpSystem = "Answer the follow-up briefly (max 250 words)."
	// ContextBudget is the number of report characters given to a follow-up.
	ContextBudget = 2000
)

// FollowUp answers a question about the latest report.
type FollowUp struct {
	llm      llm.Generator
	provider search.Provider
	metrics  *Metrics
}

func NewFollowUp(g llm.Generator, provider search.Provider, m *Metrics) *FollowUp {
	return &FollowUp{llm: g, provider: provider, metrics: m}
}

// Answer sets st.FinalReport to the follow-up analysis.
func (f *FollowUp) Answer(ctx context.Context, st *models.State) {
	prior := textutil.Truncate(latestReport(st.Messages), ContextBudget)

	var findings strings.Builder
	if f.provider == nil {
		f.metrics.observeSearch("followup", SearchDisabled)
		st.Degrade("followup_search", reasonNoProvider)
	} else {
		results, err := f.provider.Search(ctx, st.Topic+" details", search.Options{
			Depth:      search.DepthBasic,
			MaxResults: researchMaxResults,
		})
		if err != nil {
			f.metrics.observeSearch("followup", SearchError)
			st.Degrade("followup_search", fmt.Sprintf("%s: %v", f.provider.Name(), err))
		} else {
			f.metrics.observeSearch("followup", SearchOK)
			for _, r := range results {
				findings.WriteString("\n- " + textutil.Truncate(r.Content, SnippetBudget))
			}
		}
	}

	req := llm.Request{
		System: followUpSystem,
		Prompt: fmt.Sprintf("QUERY: %s\nCONTEXT: %s\nNEW: %s", st.Topic, prior, findings.String()),
	}
	text, err := llm.GenerateText(ctx, f.llm, req)
	if err != nil {
		st.Degrade("followup", err.Error())
	}
	st.FinalReport = models.FollowUpHeading + "\n\n" + text
}

// latestReport returns the most recent report message, or "".
func latestReport(messages []models.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].IsReport() {
			return messages[i].Content
		}
	}
	return ""
}
