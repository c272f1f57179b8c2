// SPDX-License-Identifier: Apache-2.0

package sefaria

import (
	"encoding/json"
)

// Document is the payload of a fetch.
type Document struct {
	ID       string           `json:"id"`
	Ref      string           `json:"ref"`
	Title    string           `json:"title"`
	URL      string           `json:"url"`
	Text     string           `json:"text"`
	Metadata DocumentMetadata `json:"metadata"`
}

// DocumentMetadata carries the bilingual parts of a fetched document.
type DocumentMetadata struct {
	// HeRef is the citation in Hebrew script.
	HeRef       string `json:"heRef,omitempty"`
	EnglishText string `json:"english_text,omitempty"`
	HebrewText  string `json:"hebrew_text,omitempty"`
}

// SearchHit is one full-text search result.
type SearchHit struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Citation returns the hit's citation: its id, or title, without suffixes.
func (h SearchHit) Citation() string {
	if h.ID != "" {
		return StripSuffix(h.ID)
	}
	return StripSuffix(h.Title)
}

// SearchResult is the payload of search.
type SearchResult struct {
	Results []SearchHit `json:"results"`
}

// TopicHit is one topics_search result. Ref is used as is.
type TopicHit struct {
	Ref   string `json:"ref"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// TopicResult is the payload of topics_search.
type TopicResult struct {
	Results []TopicHit `json:"results"`
}

// RefMatch is one find_refs match.
type RefMatch struct {
	Ref  string `json:"ref"`
	URL  string `json:"url"`
	Text string `json:"text,omitempty"`
}

// RefMatchResult is the payload of find_refs.
type RefMatchResult struct {
	Matches []RefMatch `json:"matches"`
}

// LinkedItem is a ref/title/url triple, the common item shape of the
// exploration, commentary and portion payloads.
type LinkedItem struct {
	Ref   string `json:"ref"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ExplorerCategory groups related sources returned by sugya_explorer.
type ExplorerCategory struct {
	Name  string       `json:"name"`
	Items []LinkedItem `json:"items"`
}

// ExplorerResult is the payload of sugya_explorer.
type ExplorerResult struct {
	Ref        string             `json:"ref"`
	Text       string             `json:"text"`
	Categories []ExplorerCategory `json:"categories"`
}

// CommentaryResult is the payload of get_commentaries.
type CommentaryResult struct {
	Items []LinkedItem `json:"items"`
}

// LocalizedText is either a plain string or an {en, he} object.
type LocalizedText struct {
	En string `json:"en,omitempty"`
	He string `json:"he,omitempty"`
}

// UnmarshalJSON accepts both a bare string and an {en, he} object.
func (t *LocalizedText) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		t.En = s
		return nil
	}
	type plain LocalizedText
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*t = LocalizedText(p)
	return nil
}

// CalendarItem is one scheduled learning.
type CalendarItem struct {
	Ref          string        `json:"ref"`
	URL          string        `json:"url"`
	Title        LocalizedText `json:"title"`
	DisplayValue LocalizedText `json:"displayValue"`
}

// DisplayTitle composes "<title>: <display value>" when both exist.
func (c CalendarItem) DisplayTitle() string {
	switch {
	case c.Title.En != "" && c.DisplayValue.En != "":
		return c.Title.En + ": " + c.DisplayValue.En
	case c.DisplayValue.En != "":
		return c.DisplayValue.En
	default:
		return c.Title.En
	}
}

// CalendarResult is the payload of get_daily_learnings.
type CalendarResult struct {
	Items []CalendarItem `json:"calendar_items"`
}

// ParshaInfo describes the weekly portion.
type ParshaInfo struct {
	Ref    string `json:"ref"`
	NameEn string `json:"nameEn"`
	NameHe string `json:"nameHe,omitempty"`
	URL    string `json:"url"`
}

// ParshaResult is the payload of parsha_pack.
type ParshaResult struct {
	Parsha         *ParshaInfo  `json:"parsha"`
	LearningTracks []LinkedItem `json:"learningTracks"`
}

// InsightLayer is one commentator entry of insight_layers.
type InsightLayer struct {
	Name      string `json:"name"`
	Ref       string `json:"ref"`
	Available bool   `json:"available"`
	Text      string `json:"text,omitempty"`
}

// InsightLayersResult is the payload of insight_layers.
type InsightLayersResult struct {
	Items []InsightLayer `json:"items"`
}

// DecodeDocument decodes a fetch payload.
func DecodeDocument(m map[string]any) Document {
	var doc Document
	doc.ID, _ = m["id"].(string)
	doc.Ref, _ = m["ref"].(string)
	doc.Title, _ = m["title"].(string)
	doc.URL, _ = m["url"].(string)
	doc.Text, _ = m["text"].(string)
	decodeInto(m["metadata"], &doc.Metadata)
	return doc
}

// DecodeSearch decodes a search payload.
func DecodeSearch(m map[string]any) SearchResult {
	return SearchResult{Results: decodeList[SearchHit](m["results"])}
}

// DecodeTopics decodes a topics_search payload.
func DecodeTopics(m map[string]any) TopicResult {
	return TopicResult{Results: decodeList[TopicHit](m["results"])}
}

// DecodeRefMatches decodes a find_refs payload.
func DecodeRefMatches(m map[string]any) RefMatchResult {
	return RefMatchResult{Matches: decodeList[RefMatch](m["matches"])}
}

// DecodeExplorer decodes a sugya_explorer payload.
func DecodeExplorer(m map[string]any) ExplorerResult {
	var out ExplorerResult
	out.Ref, _ = m["ref"].(string)
	out.Text, _ = m["text"].(string)
	raw, _ := m["categories"].([]any)
	for _, c := range raw {
		cat, ok := c.(map[string]any)
		if !ok {
			continue
		}
		name, _ := cat["name"].(string)
		out.Categories = append(out.Categories, ExplorerCategory{
			Name:  name,
			Items: decodeList[LinkedItem](cat["items"]),
		})
	}
	return out
}

// DecodeCommentaries decodes a get_commentaries payload.
func DecodeCommentaries(m map[string]any) CommentaryResult {
	return CommentaryResult{Items: decodeList[LinkedItem](m["items"])}
}

// DecodeCalendar decodes a get_daily_learnings payload. The items live under
// "schedule" or at the top level.
func DecodeCalendar(m map[string]any) CalendarResult {
	schedule, ok := m["schedule"].(map[string]any)
	if !ok {
		schedule = m
	}
	return CalendarResult{Items: decodeList[CalendarItem](schedule["calendar_items"])}
}

// DecodeParsha decodes a parsha_pack payload.
func DecodeParsha(m map[string]any) ParshaResult {
	var out ParshaResult
	var info ParshaInfo
	if decodeInto(m["parsha"], &info) {
		out.Parsha = &info
	}
	out.LearningTracks = decodeList[LinkedItem](m["learningTracks"])
	return out
}

// DecodeInsightLayers decodes an insight_layers payload.
func DecodeInsightLayers(m map[string]any) InsightLayersResult {
	return InsightLayersResult{Items: decodeList[InsightLayer](m["items"])}
}

// decodeInto converts a generic JSON value into out. Non-objects are rejected.
func decodeInto(v any, out any) bool {
	if _, ok := v.(map[string]any); !ok {
		return false
	}
	b, err := json.Marshal(v)
	if err != nil {
		return false
	}
	return json.Unmarshal(b, out) == nil
}

// decodeList decodes each element of a generic JSON list, skipping elements
// that are not objects of the expected shape.
func decodeList[T any](v any) []T {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]T, 0, len(raw))
	for _, item := range raw {
		var t T
		if decodeInto(item, &t) {
			out = append(out, t)
		}
	}
	return out
}
