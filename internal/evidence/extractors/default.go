// SPDX-License-Identifier: Apache-2.0

// Package extractors holds the capability-specific reference extractors.
package extractors

import (
	"github.com/torahmcp/torah-mcp/internal/evidence"
)

// DefaultPipeline builds a Pipeline with every extractor registered. Commentary
// lists have no extractor: only the comments of named commentators become
// evidence, after they are fetched.
func DefaultPipeline() *evidence.Pipeline {
	return evidence.NewPipeline(
		NewSearchExtractor(),
		NewTopicsExtractor(),
		NewFindRefsExtractor(),
		NewExplorerExtractor(),
		NewCalendarExtractor(),
		NewParshaExtractor(),
	)
}
