// SPDX-License-Identifier: Apache-2.0

package extractors

import (
	"github.com/torahmcp/torah-mcp/internal/evidence"
	"github.com/torahmcp/torah-mcp/internal/sefaria"
)

// SearchExtractor reads full-text search hits. The citation is the hit id
// (or title) without its source suffix.
type SearchExtractor struct{}

// NewSearchExtractor creates a new SearchExtractor.
func NewSearchExtractor() *SearchExtractor {
	return &SearchExtractor{}
}

func (e *SearchExtractor) Name() string {
	return "search"
}

func (e *SearchExtractor) CanHandle(capability string) bool {
	return capability == sefaria.CapabilitySearch
}

func (e *SearchExtractor) Extract(structured map[string]any) []evidence.Reference {
	res := sefaria.DecodeSearch(structured)
	refs := make([]evidence.Reference, 0, len(res.Results))
	for _, hit := range res.Results {
		refs = append(refs, evidence.Reference{Citation: hit.Citation(), Title: hit.Title, URL: hit.URL})
	}
	return refs
}
