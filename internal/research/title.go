package research

import (
	"context"
	"strings"

	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/llm"
	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/models"
	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/session"
	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/textutil"
)

const (
	titleSystem      = "Concise titling assistant."
	titleInstruction = "Provide a short 3-4 word descriptive title for this chat. No quotes.\n\n"
	titleMessages    = 4
	titleExcerpt     = 200
)

// Titler names a chat from its opening messages.
type Titler struct {
	llm llm.Generator
}

func NewTitler(g llm.Generator) *Titler { return &Titler{llm: g} }

// Title returns a short title, or session.DefaultTitle when the model fails.
func (t *Titler) Title(ctx context.Context, messages []models.Message) (string, error) {
	var b strings.Builder
	b.WriteString(titleInstruction)
	for i, m := range messages {
		if i == titleMessages {
			break
		}
		role := "Assistant"
		if m.Role == models.RoleUser {
			role = "User"
		}
		b.WriteString(role + ": " + textutil.Truncate(m.Content, titleExcerpt) + "\n")
	}

	text, err := llm.GenerateText(ctx, t.llm, llm.Request{Prompt: b.String(), System: titleSystem})
	if err != nil || llm.IsSentinel(text) {
		return session.DefaultTitle, err
	}
	if text = strings.TrimSpace(text); text == "" {
		return session.DefaultTitle, nil
	}
	return text, nil
}
