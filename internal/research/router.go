// Package research runs one conversation turn through the research graph:
// route, then either plan, search and write, or answer a follow-up.
package research

import (
	"strings"

	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/models"
	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/textutil"
)

// detailKeywords mark a query as drilling into an existing report. They
// match as substrings, so "how" also matches "show".
var detailKeywords = []string{"drawback", "limit", "why", "how", "detail", "compare", "paper"}

// followUpWordLimit is the word count below which any query after a report
// is treated as a follow-up.
const followUpWordLimit = 20

// Route picks the path for topic given the conversation so far.
func Route(topic string, messages []models.Message) models.Route {
	if !hasReport(messages) {
		return models.RouteFullResearch
	}
	t := strings.ToLower(topic)
	if textutil.WordCount(t) < followUpWordLimit || isDetailQuery(t) {
		return models.RouteFollowUp
	}
	return models.RouteFullResearch
}

func hasReport(messages []models.Message) bool {
	for _, m := range messages {
		if m.IsReport() {
			return true
		}
	}
	return false
}

func isDetailQuery(lowerTopic string) bool {
	for _, k := range detailKeywords {
		if strings.Contains(lowerTopic, k) {
			return true
		}
	}
	return false
}
