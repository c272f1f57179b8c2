// SPDX-License-Identifier: Apache-2.0

package extractors

import (
	"github.com/torahmcp/torah-mcp/internal/evidence"
	"github.com/torahmcp/torah-mcp/internal/sefaria"
)

// FindRefsExtractor reads quote-to-citation matches. Matches carry no title,
// so the citation doubles as one.
type FindRefsExtractor struct{}

func NewFindRefsExtractor() *FindRefsExtractor {
	return &FindRefsExtractor{}
}

func (e *FindRefsExtractor) Name() string {
	return "find_refs"
}

func (e *FindRefsExtractor) CanHandle(capability string) bool {
	return capability == sefaria.CapabilityFindRefs
}

func (e *FindRefsExtractor) Extract(structured map[string]any) []evidence.Reference {
	res := sefaria.DecodeRefMatches(structured)
	refs := make([]evidence.Reference, 0, len(res.Matches))
	for _, m := range res.Matches {
		refs = append(refs, evidence.Reference{Citation: m.Ref, Title: m.Ref, URL: m.URL})
	}
	return refs
}
