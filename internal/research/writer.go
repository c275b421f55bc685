package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/llm"
	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/models"
)

// Writer synthesizes the gathered findings into the final report.
type Writer struct {
	llm llm.Generator
}

func NewWriter(g llm.Generator) *Writer { return &Writer{llm: g} }

// Write sets st.FinalReport. A model failure is surfaced inline as the
// report text.
func (w *Writer) Write(ctx context.Context, st *models.State) {
	length := "max 700 words"
	if st.SummaryPreference == models.SummaryShort {
		length = "150-200 words"
	}
	req := llm.Request{
		System: fmt.Sprintf("Synthesize findings into a %s report. Focus: %s.", length, st.SourceFocus),
		Prompt: fmt.Sprintf("Topic: %s\nFindings: %s", st.Topic, strings.Join(st.ResearchResults, " ")),
	}
	text, err := llm.GenerateText(ctx, w.llm, req)
	if err != nil {
		st.Degrade("writer", err.Error())
	}
	st.FinalReport = fmt.Sprintf("%s\n*Generated: %s*\n\n%s", models.ReportHeading, st.RunTime, text)
}
