// SPDX-License-Identifier: Apache-2.0

package extractors

import (
	"github.com/torahmcp/torah-mcp/internal/evidence"
	"github.com/torahmcp/torah-mcp/internal/sefaria"
)

// ExplorerExtractor reads the categorized related sources of sugya_explorer.
type ExplorerExtractor struct{}

func NewExplorerExtractor() *ExplorerExtractor {
	return &ExplorerExtractor{}
}

func (e *ExplorerExtractor) Name() string {
	return "explorer"
}

func (e *ExplorerExtractor) CanHandle(capability string) bool {
	return capability == sefaria.CapabilitySugyaExplorer
}

func (e *ExplorerExtractor) Extract(structured map[string]any) []evidence.Reference {
	var refs []evidence.Reference
	for _, cat := range sefaria.DecodeExplorer(structured).Categories {
		for _, item := range cat.Items {
			refs = append(refs, evidence.Reference{Citation: item.Ref, Title: item.Title, URL: item.URL})
		}
	}
	return refs
}
