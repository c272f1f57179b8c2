// SPDX-License-Identifier: Apache-2.0

package evidence_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torahmcp/torah-mcp/internal/evidence"
	"github.com/torahmcp/torah-mcp/internal/evidence/extractors"
	"github.com/torahmcp/torah-mcp/internal/sefaria"
)

// ---------------------------------------------------------------------------
// Citations and links
// ---------------------------------------------------------------------------

func TestNormalizeCitation(t *testing.T) {
	assert.Equal(t, "Genesis 1:1", evidence.NormalizeCitation("  Genesis \t 1:1\n"))
	assert.Equal(t, "", evidence.NormalizeCitation(" \n "))
}

func TestCitationURL(t *testing.T) {
	tests := []struct {
		citation string
		want     string
	}{
		{"Genesis 1:1", "https://www.sefaria.org/Genesis_1%3A1?lang=bi"},
		{"  Shulchan Arukh,  Orach Chayim 328:2 ", "https://www.sefaria.org/Shulchan_Arukh%2C_Orach_Chayim_328%3A2?lang=bi"},
		{"Rashi on Genesis 1:1:1", "https://www.sefaria.org/Rashi_on_Genesis_1%3A1%3A1?lang=bi"},
		{"בראשית א:א", "https://www.sefaria.org/%D7%91%D7%A8%D7%90%D7%A9%D7%99%D7%AA_%D7%90%3A%D7%90?lang=bi"},
	}
	for _, tt := range tests {
		t.Run(tt.citation, func(t *testing.T) {
			assert.Equal(t, tt.want, evidence.CitationURL(tt.citation))
		})
	}
}

func TestNewReference(t *testing.T) {
	ref, ok := evidence.NewReference(" Exodus  20:8 ", "", "/relative/link")
	require.True(t, ok)
	assert.Equal(t, "Exodus 20:8", ref.Citation)
	assert.Equal(t, "Exodus 20:8", ref.Title)
	assert.Equal(t, "https://www.sefaria.org/Exodus_20%3A8?lang=bi", ref.URL)

	ref, ok = evidence.NewReference("Exodus 20:8", "The Sabbath", "https://example.org/x")
	require.True(t, ok)
	assert.Equal(t, "The Sabbath", ref.Title)
	assert.Equal(t, "https://example.org/x", ref.URL)

	_, ok = evidence.NewReference("   ", "t", "u")
	assert.False(t, ok)
}

// ---------------------------------------------------------------------------
// Map
// ---------------------------------------------------------------------------

func TestMap_FirstWriteWins(t *testing.T) {
	m := evidence.NewMap()
	assert.True(t, m.Add(evidence.Reference{Citation: "Genesis 1:1", Title: "first", URL: "https://a"}))
	assert.False(t, m.Add(evidence.Reference{Citation: " Genesis  1:1", Title: "second", URL: "https://b"}))

	got, ok := m.First()
	require.True(t, ok)
	assert.Equal(t, "Genesis 1:1", got.Citation)
	assert.Equal(t, "first", got.Title)
	assert.Equal(t, "https://a", got.URL)
	assert.Equal(t, 1, m.Len())
}

func TestMap_OrderAndFind(t *testing.T) {
	m := evidence.NewMap()
	added := m.Merge([]evidence.Reference{
		{Citation: "Berakhot 2a", Title: "Berakhot 2a"},
		{Citation: "Daf Yomi", Title: "Daf Yomi: Menachot 43"},
		{Citation: "Berakhot 2a", Title: "dup"},
		{Citation: "", Title: "empty"},
	})
	assert.Equal(t, 2, added)

	first, ok := m.First()
	require.True(t, ok)
	assert.Equal(t, "Berakhot 2a", first.Citation)

	found, ok := m.Find(func(r evidence.Reference) bool { return r.Title == "Daf Yomi: Menachot 43" })
	require.True(t, ok)
	assert.Equal(t, "Daf Yomi", found.Citation)

	var citations []string
	for _, r := range m.List() {
		citations = append(citations, r.Citation)
	}
	assert.Equal(t, []string{"Berakhot 2a", "Daf Yomi"}, citations)
}

func TestMap_Empty(t *testing.T) {
	m := evidence.NewMap()
	_, ok := m.First()
	assert.False(t, ok)
	assert.Empty(t, m.List())
}

// ---------------------------------------------------------------------------
// Pipeline
// ---------------------------------------------------------------------------

func TestPipeline_RegisteredExtractors(t *testing.T) {
	p := evidence.NewPipeline(extractors.NewSearchExtractor(), extractors.NewTopicsExtractor())
	assert.Equal(t, []string{"search", "topics"}, p.RegisteredExtractors())
}

func TestPipeline_Extract(t *testing.T) {
	p := extractors.DefaultPipeline()

	tests := []struct {
		name       string
		capability string
		structured map[string]any
		want       []evidence.Reference
	}{
		{
			name:       "empty payload",
			capability: sefaria.CapabilitySearch,
			structured: map[string]any{},
			want:       nil,
		},
		{
			name:       "generic ref and heRef",
			capability: sefaria.CapabilityFetch,
			structured: map[string]any{
				"ref":      "Genesis 1:1",
				"title":    "Genesis 1:1",
				"url":      "https://www.sefaria.org/Genesis.1.1",
				"metadata": map[string]any{"heRef": "בראשית א׳:א׳"},
			},
			want: []evidence.Reference{
				{Citation: "Genesis 1:1", Title: "Genesis 1:1", URL: "https://www.sefaria.org/Genesis.1.1"},
				{Citation: "בראשית א׳:א׳", Title: "Genesis 1:1", URL: "https://www.sefaria.org/Genesis.1.1"},
			},
		},
		{
			name:       "search strips suffix and synthesizes url",
			capability: sefaria.CapabilitySearch,
			structured: map[string]any{
				"results": []any{
					map[string]any{"id": "Shabbat 21b|en|William Davidson", "title": "Shabbat 21b"},
					map[string]any{"title": "Megillah 29a", "url": "https://www.sefaria.org/Megillah.29a"},
				},
			},
			want: []evidence.Reference{
				{Citation: "Shabbat 21b", Title: "Shabbat 21b", URL: "https://www.sefaria.org/Shabbat_21b?lang=bi"},
				{Citation: "Megillah 29a", Title: "Megillah 29a", URL: "https://www.sefaria.org/Megillah.29a"},
			},
		},
		{
			name:       "topics use ref directly",
			capability: sefaria.CapabilityTopicsSearch,
			structured: map[string]any{
				"results": []any{
					map[string]any{"ref": "Yoma 85b", "title": "Pikuach Nefesh"},
					map[string]any{"title": "no ref"},
				},
			},
			want: []evidence.Reference{
				{Citation: "Yoma 85b", Title: "Pikuach Nefesh", URL: "https://www.sefaria.org/Yoma_85b?lang=bi"},
			},
		},
		{
			name:       "find_refs uses citation as title",
			capability: sefaria.CapabilityFindRefs,
			structured: map[string]any{
				"matches": []any{map[string]any{"ref": "Deuteronomy 30:12", "url": "https://www.sefaria.org/Deuteronomy.30.12"}},
			},
			want: []evidence.Reference{
				{Citation: "Deuteronomy 30:12", Title: "Deuteronomy 30:12", URL: "https://www.sefaria.org/Deuteronomy.30.12"},
			},
		},
		{
			name:       "explorer categories",
			capability: sefaria.CapabilitySugyaExplorer,
			structured: map[string]any{
				"categories": []any{
					map[string]any{"name": "Commentary", "items": []any{map[string]any{"ref": "Rashi on Yoma 85b:1", "title": "Rashi"}}},
					map[string]any{"name": "Halakhah", "items": []any{map[string]any{"ref": "Mishneh Torah, Sabbath 2:1"}}},
				},
			},
			want: []evidence.Reference{
				{Citation: "Rashi on Yoma 85b:1", Title: "Rashi", URL: "https://www.sefaria.org/Rashi_on_Yoma_85b%3A1?lang=bi"},
				{Citation: "Mishneh Torah, Sabbath 2:1", Title: "Mishneh Torah, Sabbath 2:1", URL: "https://www.sefaria.org/Mishneh_Torah%2C_Sabbath_2%3A1?lang=bi"},
			},
		},
		{
			name:       "calendar composes titles",
			capability: sefaria.CapabilityDailyLearnings,
			structured: map[string]any{
				"schedule": map[string]any{
					"calendar_items": []any{
						map[string]any{
							"ref":          "Menachot 43",
							"title":        map[string]any{"en": "Daf Yomi"},
							"displayValue": map[string]any{"en": "Menachot 43"},
							"url":          "https://www.sefaria.org/Menachot.43",
						},
					},
				},
			},
			want: []evidence.Reference{
				{Citation: "Menachot 43", Title: "Daf Yomi: Menachot 43", URL: "https://www.sefaria.org/Menachot.43"},
			},
		},
		{
			name:       "parsha and learning tracks",
			capability: sefaria.CapabilityParshaPack,
			structured: map[string]any{
				"parsha":         map[string]any{"ref": "Genesis 1:1-6:8", "nameEn": "Bereshit"},
				"learningTracks": []any{map[string]any{"ref": "Isaiah 42:5-43:10", "title": "Haftarah"}},
			},
			want: []evidence.Reference{
				{Citation: "Genesis 1:1-6:8", Title: "Bereshit", URL: "https://www.sefaria.org/Genesis_1%3A1-6%3A8?lang=bi"},
				{Citation: "Isaiah 42:5-43:10", Title: "Haftarah", URL: "https://www.sefaria.org/Isaiah_42%3A5-43%3A10?lang=bi"},
			},
		},
		{
			name:       "commentary lists are not evidence",
			capability: sefaria.CapabilityCommentaries,
			structured: map[string]any{
				"items": []any{map[string]any{"ref": "Rashi on Genesis 1:1:1", "title": "Rashi on Genesis"}},
			},
			want: []evidence.Reference{},
		},
		{
			name:       "capability-specific shape ignored for other capabilities",
			capability: sefaria.CapabilityCompareVersions,
			structured: map[string]any{
				"results": []any{map[string]any{"id": "Genesis 1:1"}},
			},
			want: []evidence.Reference{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Extract(tt.capability, tt.structured)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
