// SPDX-License-Identifier: Apache-2.0

package extractors

import (
	"github.com/torahmcp/torah-mcp/internal/evidence"
	"github.com/torahmcp/torah-mcp/internal/sefaria"
)

// TopicsExtractor reads topic search hits, each carrying an explicit ref.
type TopicsExtractor struct{}

func NewTopicsExtractor() *TopicsExtractor {
	return &TopicsExtractor{}
}

func (e *TopicsExtractor) Name() string {
	return "topics"
}

func (e *TopicsExtractor) CanHandle(capability string) bool {
	return capability == sefaria.CapabilityTopicsSearch
}

func (e *TopicsExtractor) Extract(structured map[string]any) []evidence.Reference {
	res := sefaria.DecodeTopics(structured)
	refs := make([]evidence.Reference, 0, len(res.Results))
	for _, hit := range res.Results {
		refs = append(refs, evidence.Reference{Citation: hit.Ref, Title: hit.Title, URL: hit.URL})
	}
	return refs
}
