package research

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/models"
)

func plan(t *testing.T, g *fakeLLM, topic string) *models.State {
	t.Helper()
	p, err := NewPlanner(g)
	require.NoError(t, err)
	st := &models.State{Topic: topic}
	p.Plan(context.Background(), st)
	return st
}

func TestPlannerParsesPlan(t *testing.T) {
	g := &fakeLLM{plan: quantumPlan}
	st := plan(t, g, "Impact of quantum computing on cryptography")

	require.NotNil(t, st.StructuredPlan)
	assert.Equal(t, "Survey threats, then mitigations.", st.StructuredPlan.ResearchStrategy)
	assert.Len(t, st.SubQuestions, 4)
	assert.Equal(t, st.StructuredPlan.SubQuestions, st.SubQuestions)
	assert.Empty(t, st.Degradations)

	require.Len(t, g.calls, 1)
	req := g.calls[0]
	assert.True(t, req.JSONMode)
	assert.Equal(t, plannerSystem, req.System)
	assert.Contains(t, req.Prompt, "Topic: Impact of quantum computing on cryptography\nReturn JSON matching ResearchPlan schema.")
	assert.Contains(t, req.Prompt, `"sub_questions"`)
}

func TestPlannerFallback(t *testing.T) {
	tests := []struct {
		name string
		llm  *fakeLLM
	}{
		{"model error", &fakeLLM{err: errors.New("503")}},
		{"sentinel text", &fakeLLM{plan: "LLM_ERROR: upstream"}},
		{"malformed json", &fakeLLM{plan: "{not json"}},
		{"wrong type", &fakeLLM{plan: `{"research_strategy":"s","sub_questions":"one","expected_output_format":"f"}`}},
		{"missing field", &fakeLLM{plan: `{"sub_questions":["a"]}`}},
		{"empty list", &fakeLLM{plan: `{"research_strategy":"s","sub_questions":[],"expected_output_format":"f"}`}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st := plan(t, tc.llm, "solar sails")
			assert.Nil(t, st.StructuredPlan)
			assert.Equal(t, []string{"Analysis of solar sails"}, st.SubQuestions)
			require.Len(t, st.Degradations, 1)
			assert.Equal(t, "planner", st.Degradations[0].Step)
		})
	}
}

func TestPlannerEmptyTopicStillYieldsQuestion(t *testing.T) {
	st := plan(t, &fakeLLM{plan: ""}, "")
	assert.Equal(t, []string{"Analysis of "}, st.SubQuestions)
}
