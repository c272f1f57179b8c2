// SPDX-License-Identifier: Apache-2.0

package extractors

import (
	"github.com/torahmcp/torah-mcp/internal/evidence"
	"github.com/torahmcp/torah-mcp/internal/sefaria"
)

// ParshaExtractor reads the weekly portion and its learning tracks.
type ParshaExtractor struct{}

func NewParshaExtractor() *ParshaExtractor {
	return &ParshaExtractor{}
}

func (e *ParshaExtractor) Name() string {
	return "parsha"
}

func (e *ParshaExtractor) CanHandle(capability string) bool {
	return capability == sefaria.CapabilityParshaPack
}

func (e *ParshaExtractor) Extract(structured map[string]any) []evidence.Reference {
	res := sefaria.DecodeParsha(structured)
	var refs []evidence.Reference
	if res.Parsha != nil {
		refs = append(refs, evidence.Reference{Citation: res.Parsha.Ref, Title: res.Parsha.NameEn, URL: res.Parsha.URL})
	}
	for _, track := range res.LearningTracks {
		refs = append(refs, evidence.Reference{Citation: track.Ref, Title: track.Title, URL: track.URL})
	}
	return refs
}
