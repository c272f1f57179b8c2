// SPDX-License-Identifier: Apache-2.0

package extractors

import (
	"github.com/torahmcp/torah-mcp/internal/evidence"
	"github.com/torahmcp/torah-mcp/internal/sefaria"
)

// CalendarExtractor reads the daily learning schedule. Titles combine the
// calendar label with its display value, e.g. "Daf Yomi: Menachot 43".
type CalendarExtractor struct{}

func NewCalendarExtractor() *CalendarExtractor {
	return &CalendarExtractor{}
}

func (e *CalendarExtractor) Name() string {
	return "calendar"
}

func (e *CalendarExtractor) CanHandle(capability string) bool {
	return capability == sefaria.CapabilityDailyLearnings
}

func (e *CalendarExtractor) Extract(structured map[string]any) []evidence.Reference {
	items := sefaria.DecodeCalendar(structured).Items
	refs := make([]evidence.Reference, 0, len(items))
	for _, item := range items {
		refs = append(refs, evidence.Reference{Citation: item.Ref, Title: item.DisplayTitle(), URL: item.URL})
	}
	return refs
}
