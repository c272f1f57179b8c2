// SPDX-License-Identifier: Apache-2.0

// Package sefaria is the client side of the Sefaria MCP server: capability
// discovery, tool invocation, and decoding of the tool payloads.
package sefaria

import (
	"context"
	"errors"
	"strings"
)

// Capability names as exposed by the Sefaria MCP server.
const (
	CapabilityFetch           = "fetch"
	CapabilitySearch          = "search"
	CapabilityTopicsSearch    = "topics_search"
	CapabilityFindRefs        = "find_refs"
	CapabilitySugyaExplorer   = "sugya_explorer"
	CapabilityCompareVersions = "compare_versions"
	CapabilityCommentaries    = "get_commentaries"
	CapabilityDailyLearnings  = "get_daily_learnings"
	CapabilityParshaPack      = "parsha_pack"
	CapabilityInsightLayers   = "insight_layers"
)

// FetchSuffix is appended to a citation to address its primary bilingual text.
const FetchSuffix = "|auto|primary"

// IDSeparator separates a citation from source-specific suffixes in search hit ids.
const IDSeparator = "|"

// ErrCapabilityUnavailable is returned when a capability was not discovered on the server.
var ErrCapabilityUnavailable = errors.New("capability not available")

// Invoker calls named capabilities of the retrieval service.
type Invoker interface {
	// Call invokes capability with args and returns the raw tool result.
	Call(ctx context.Context, capability string, args map[string]any) (any, error)
	// Has reports whether capability was discovered on the server.
	Has(capability string) bool
}

// FetchID builds the lookup id for a citation. Ids that already carry a
// suffix are returned unchanged.
func FetchID(citation string) string {
	citation = strings.TrimSpace(citation)
	if strings.Contains(citation, IDSeparator) {
		return citation
	}
	return citation + FetchSuffix
}

// StripSuffix returns the citation part of a hit id.
func StripSuffix(id string) string {
	before, _, _ := strings.Cut(id, IDSeparator)
	return strings.TrimSpace(before)
}

// FetchArgs are the lookup arguments for a bilingual fetch of id.
func FetchArgs(id string, maxChars int) map[string]any {
	return map[string]any{
		"id":       id,
		"langPref": "bi",
		"maxChars": maxChars,
	}
}

// Fetch looks up id and decodes the returned document. Missing id, ref and
// url fields are not filled in here.
func Fetch(ctx context.Context, svc Invoker, id string, maxChars int) (Document, error) {
	if !svc.Has(CapabilityFetch) {
		return Document{}, ErrCapabilityUnavailable
	}
	raw, err := svc.Call(ctx, CapabilityFetch, FetchArgs(id, maxChars))
	if err != nil {
		return Document{}, err
	}
	doc := DecodeDocument(Normalize(raw))
	if doc.ID == "" {
		doc.ID = id
	}
	return doc, nil
}
