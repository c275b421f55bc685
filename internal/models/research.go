package models

import (
	"strings"
	"time"
)

// Report headings. Every full-research output begins with ReportHeading and
// every follow-up output with FollowUpHeading.
const (
	ReportHeading   = "## Research Report"
	FollowUpHeading = "### 💬 Follow-up Analysis"
)

// Role is the speaker of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Kind tags what a message is, so routing never has to sniff content.
type Kind string

const (
	KindUser              Kind = "user"
	KindAssistantReport   Kind = "assistant_report"
	KindAssistantFollowUp Kind = "assistant_followup"
	KindAssistantPlain    Kind = "assistant_plain"
)

// Message is one conversation turn.
type Message struct {
	Role    Role   `json:"role"    bson:"role"`
	Kind    Kind   `json:"kind"    bson:"kind"`
	Content string `json:"content" bson:"content"`
}

// EffectiveKind returns the message kind. Records saved before kinds existed
// carry none; for those the kind is recovered from the leading heading.
func (m Message) EffectiveKind() Kind {
	if m.Kind != "" {
		return m.Kind
	}
	if m.Role == RoleUser {
		return KindUser
	}
	switch {
	case strings.HasPrefix(m.Content, ReportHeading):
		return KindAssistantReport
	case strings.HasPrefix(m.Content, FollowUpHeading):
		return KindAssistantFollowUp
	}
	return KindAssistantPlain
}

// IsReport reports whether the message is a full research report.
func (m Message) IsReport() bool { return m.EffectiveKind() == KindAssistantReport }

// SummaryPreference is the requested report length.
type SummaryPreference string

const (
	SummaryShort SummaryPreference = "Short"
	SummaryLong  SummaryPreference = "Long"
)

// ParseSummaryPreference accepts "short", "Short Summary", "long", ... and
// defaults to Short.
func ParseSummaryPreference(s string) SummaryPreference {
	if f := strings.Fields(strings.ToLower(s)); len(f) > 0 && f[0] == "long" {
		return SummaryLong
	}
	return SummaryShort
}

// SourceFocus frames the search queries.
type SourceFocus string

const (
	FocusScholarly SourceFocus = "Scholarly/Academic"
	FocusGeneral   SourceFocus = "General Web/News"
)

// ParseSourceFocus maps user input onto a focus, defaulting to Scholarly.
func ParseSourceFocus(s string) SourceFocus {
	l := strings.ToLower(strings.TrimSpace(s))
	switch {
	case l == "", strings.HasPrefix(l, "scholar"), strings.HasPrefix(l, "academic"):
		return FocusScholarly
	case strings.HasPrefix(l, "general"), strings.HasPrefix(l, "web"), strings.HasPrefix(l, "news"):
		return FocusGeneral
	}
	return FocusScholarly
}

// ResearchPlan is the planner's decomposition of a topic.
type ResearchPlan struct {
	ResearchStrategy     string   `json:"research_strategy"      bson:"research_strategy"      jsonschema_description:"How the topic will be researched."`
	SubQuestions         []string `json:"sub_questions"          bson:"sub_questions"          jsonschema:"minItems=1" jsonschema_description:"3-5 focused sub-questions."`
	ExpectedOutputFormat string   `json:"expected_output_format" bson:"expected_output_format" jsonschema_description:"Shape of the final report."`
}

// Route is the path a turn takes through the graph.
type Route string

const (
	RouteFullResearch Route = "full_research"
	RouteFollowUp     Route = "follow_up"
)

// Degradation records a failure that was tolerated during a turn.
type Degradation struct {
	Step   string `json:"step"`
	Reason string `json:"reason"`
}

// State is the record threaded through the graph for one turn.
type State struct {
	Topic             string            `json:"topic"`
	StructuredPlan    *ResearchPlan     `json:"structured_plan,omitempty"`
	SubQuestions      []string          `json:"sub_questions"`
	ResearchResults   []string          `json:"research_results"`
	FinalReport       string            `json:"final_report"`
	SummaryPreference SummaryPreference `json:"summary_preference"`
	SourceFocus       SourceFocus       `json:"source_focus"`
	RunTime           string            `json:"run_time"`
	Messages          []Message         `json:"messages"`
	Route             Route             `json:"route"`
	Degradations      []Degradation     `json:"degradations,omitempty"`
}

// Degrade appends a tolerated failure.
func (s *State) Degrade(step, reason string) {
	s.Degradations = append(s.Degradations, Degradation{Step: step, Reason: reason})
}

// RunTimeLayout formats State.RunTime and history timestamps.
const RunTimeLayout = "2006-01-02 15:04:05"

// HistoryEntry is one persisted session.
type HistoryEntry struct {
	SessionID string    `json:"session_id" bson:"_id"`
	Timestamp time.Time `json:"timestamp"  bson:"timestamp"`
	Title     string    `json:"title"      bson:"title"`
	Messages  []Message `json:"messages"   bson:"messages"`
}

// TurnRequest is the JSON body for POST /api/sessions/current/turns.
type TurnRequest struct {
	Prompt string `json:"prompt"`
}

// PreferencesRequest is the JSON body for PUT /api/sessions/current/preferences.
type PreferencesRequest struct {
	SummaryPreference string `json:"summary_preference"`
	SourceFocus       string `json:"source_focus"`
}
