package research

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"

	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/llm"
	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/models"
)

const plannerSystem = "You are an expert research planner. Decompose the topic into 3-5 sub-questions. Output JSON."

// Planner decomposes a topic into sub-questions.
type Planner struct {
	llm        llm.Generator
	schemaJSON string
	schema     *gojsonschema.Schema
}

// NewPlanner reflects the ResearchPlan schema once; it is both shown to the
// model and used to validate the answer.
func NewPlanner(g llm.Generator) (*Planner, error) {
	reflector := jsonschema.Reflector{
		Anonymous:                 true,
		AllowAdditionalProperties: true,
		ExpandedStruct:            true,
	}
	b, err := json.Marshal(reflector.Reflect(models.ResearchPlan{}))
	if err != nil {
		return nil, fmt.Errorf("planner schema: %w", err)
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(b))
	if err != nil {
		return nil, fmt.Errorf("planner schema: %w", err)
	}
	return &Planner{llm: g, schemaJSON: string(b), schema: schema}, nil
}

// Plan fills st.StructuredPlan and st.SubQuestions. Any failure falls back
// to a single generic sub-question.
func (p *Planner) Plan(ctx context.Context, st *models.State) {
	plan, err := p.plan(ctx, st.Topic)
	if err != nil {
		st.StructuredPlan = nil
		st.SubQuestions = []string{"Analysis of " + st.Topic}
		st.Degrade("planner", err.Error())
		return
	}
	st.StructuredPlan = plan
	st.SubQuestions = plan.SubQuestions
}

func (p *Planner) plan(ctx context.Context, topic string) (*models.ResearchPlan, error) {
	prompt := fmt.Sprintf("Topic: %s\nReturn JSON matching ResearchPlan schema.\n%s", topic, p.schemaJSON)
	raw, err := p.llm.Generate(ctx, llm.Request{Prompt: prompt, System: plannerSystem, JSONMode: true})
	if err != nil {
		return nil, err
	}
	if llm.IsSentinel(raw) {
		return nil, errors.New(raw)
	}

	result, err := p.schema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("planner: invalid JSON: %w", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("planner: schema mismatch: %s", strings.Join(msgs, "; "))
	}

	var plan models.ResearchPlan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return nil, fmt.Errorf("planner: decode: %w", err)
	}
	if len(plan.SubQuestions) == 0 {
		return nil, errors.New("planner: no sub-questions")
	}
	return &plan, nil
}
