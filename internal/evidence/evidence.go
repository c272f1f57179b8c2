// SPDX-License-Identifier: Apache-2.0

// Package evidence turns retrieval service payloads into deduplicated
// reference candidates.
package evidence

import (
	"net/url"
	"regexp"
	"strings"
)

// ViewerBaseURL is the base of the synthesized viewer links.
const ViewerBaseURL = "https://www.sefaria.org/"

var whitespace = regexp.MustCompile(`\s+`)

// Reference is one citation backed by a display title and a link.
type Reference struct {
	Citation string `json:"ref"`
	Title    string `json:"title"`
	URL      string `json:"url"`
}

// Extractor produces reference candidates from the normalized payload of the
// capabilities it handles.
type Extractor interface {
	CanHandle(capability string) bool
	Extract(structured map[string]any) []Reference
	Name() string
}

// NormalizeCitation collapses runs of whitespace and trims the result.
func NormalizeCitation(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// CitationURL maps a citation to its bilingual viewer link.
func CitationURL(citation string) string {
	joined := strings.ReplaceAll(NormalizeCitation(citation), " ", "_")
	escaped := strings.ReplaceAll(url.QueryEscape(joined), "%2F", "/")
	return ViewerBaseURL + escaped + "?lang=bi"
}

// NewReference normalizes citation and fills in a missing title or a
// non-absolute link. ok is false when the citation is empty.
func NewReference(citation, title, link string) (Reference, bool) {
	norm := NormalizeCitation(citation)
	if norm == "" {
		return Reference{}, false
	}
	if strings.TrimSpace(title) == "" {
		title = norm
	}
	if !strings.HasPrefix(link, "http") {
		link = CitationURL(norm)
	}
	return Reference{Citation: norm, Title: title, URL: link}, true
}
