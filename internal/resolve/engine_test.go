// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torahmcp/torah-mcp/internal/sefaria"
	"github.com/torahmcp/torah-mcp/internal/sefaria/sefariatest"
)

func sefariaMeta(heRef string) sefaria.DocumentMetadata {
	return sefaria.DocumentMetadata{HeRef: heRef}
}

func doc(ref, title, heRef string) map[string]any {
	d := map[string]any{"ref": ref, "title": title, "text": "text of " + ref}
	if heRef != "" {
		d["metadata"] = map[string]any{"heRef": heRef}
	}
	return d
}

func searchHits(ids ...string) map[string]any {
	results := make([]any, 0, len(ids))
	for _, id := range ids {
		results = append(results, map[string]any{"id": id, "title": sefaria.StripSuffix(id)})
	}
	return map[string]any{"results": results}
}

func TestResolve_Direct(t *testing.T) {
	svc := sefariatest.New().Handle(sefaria.CapabilityFetch, sefariatest.Documents(map[string]map[string]any{
		"Genesis 1:1": doc("Genesis 1:1", "Genesis 1:1", "בראשית א׳:א׳"),
	}))
	e := NewEngine(svc)

	d := e.Resolve(context.Background(), "Genesis 1:1")
	require.False(t, d.Failed())
	assert.Equal(t, []string{StrategyDirect}, d.ResolutionPath)
	assert.Equal(t, "Genesis 1:1", d.Citation)
	assert.Equal(t, "Genesis 1:1", d.Query)
	assert.Equal(t, "בראשית א׳:א׳", d.AltCitation())
	assert.Equal(t, "https://www.sefaria.org/Genesis_1%3A1?lang=bi", d.URL)

	calls := svc.CallsTo(sefaria.CapabilityFetch)
	require.Len(t, calls, 1)
	assert.Equal(t, map[string]any{"id": "Genesis 1:1|auto|primary", "langPref": "bi", "maxChars": 800}, calls[0].Args)
	assert.Empty(t, svc.CallsTo(sefaria.CapabilitySearch))
}

func TestResolve_DirectFetchFailure(t *testing.T) {
	svc := sefariatest.New().Handle(sefaria.CapabilityFetch, sefariatest.Documents(nil))
	d := NewEngine(svc, WithMaxChars(200)).Resolve(context.Background(), "Genesis 1:1")

	assert.True(t, d.Failed())
	assert.Contains(t, d.Error, "Fetch failed")
	assert.Equal(t, []string{StrategyDirect}, d.ResolutionPath)
	assert.Equal(t, 200, svc.CallsTo(sefaria.CapabilityFetch)[0].Args["maxChars"])
}

func TestResolve_Search(t *testing.T) {
	svc := sefariatest.New().
		Reply(sefaria.CapabilitySearch, searchHits("Genesis 1:3|en|The Contemporary Torah")).
		Handle(sefaria.CapabilityFetch, sefariatest.Documents(map[string]map[string]any{
			"Genesis 1:3": doc("Genesis 1:3", "Genesis 1:3", ""),
		}))

	d := NewEngine(svc).Resolve(context.Background(), "Where does the Torah say let there be light?")
	require.False(t, d.Failed())
	assert.Equal(t, []string{StrategySearch}, d.ResolutionPath)
	assert.Equal(t, "Genesis 1:3", d.Citation)
	assert.Len(t, d.SearchResults, 1)
	assert.Empty(t, d.SearchError)

	calls := svc.CallsTo(sefaria.CapabilitySearch)
	require.Len(t, calls, 1)
	assert.Equal(t, 5, calls[0].Args["size"])
	assert.Equal(t, "Genesis 1:3|en|The Contemporary Torah", svc.CallsTo(sefaria.CapabilityFetch)[0].Args["id"])
}

func TestResolve_SimplifiedSearch(t *testing.T) {
	svc := sefariatest.New().
		Handle(sefaria.CapabilitySearch, func(args map[string]any) (any, error) {
			if args["query"] == "torah creation light" {
				return map[string]any{"structuredContent": searchHits("Genesis 1:3|en|Sefaria")}, nil
			}
			return map[string]any{"structuredContent": searchHits()}, nil
		}).
		Handle(sefaria.CapabilityFetch, sefariatest.Documents(map[string]map[string]any{
			"Genesis 1:3": doc("Genesis 1:3", "Genesis 1:3", ""),
		}))

	d := NewEngine(svc).Resolve(context.Background(), "Where does the Torah discuss the creation of light?")
	require.False(t, d.Failed())
	assert.Equal(t, []string{StrategySearch, StrategySearchSimplified}, d.ResolutionPath)
	assert.Len(t, svc.CallsTo(sefaria.CapabilitySearch), 2)
}

func TestResolve_TopicsSearch(t *testing.T) {
	svc := sefariatest.New().
		Reply(sefaria.CapabilitySearch, searchHits()).
		Reply(sefaria.CapabilityTopicsSearch, map[string]any{
			"results": []any{
				map[string]any{"title": "no ref"},
				map[string]any{"ref": "Yoma 85b", "title": "Pikuach Nefesh"},
			},
		}).
		Handle(sefaria.CapabilityFetch, sefariatest.Documents(map[string]map[string]any{
			"Yoma 85b": {"ref": "Yoma 85b", "text": "..."},
		}))

	d := NewEngine(svc).Resolve(context.Background(), "Is saving a life on Shabbat permitted?")
	require.False(t, d.Failed())
	assert.Equal(t, []string{StrategySearch, StrategyTopicsSearch}, d.ResolutionPath)
	assert.Equal(t, "Yoma 85b", d.Citation)
	assert.Equal(t, "Pikuach Nefesh", d.Title)

	topics := svc.CallsTo(sefaria.CapabilityTopicsSearch)
	require.Len(t, topics, 1)
	assert.Equal(t, "saving life shabbat permitted", topics[0].Args["topic"])
}

func TestResolve_QuoteMatchAfterSearchFailure(t *testing.T) {
	svc := sefariatest.New().
		Fail(sefaria.CapabilitySearch, errors.New("connection reset")).
		Reply(sefaria.CapabilityFindRefs, map[string]any{
			"matches": []any{map[string]any{"ref": "Deuteronomy 30:12", "url": "https://www.sefaria.org/Deuteronomy.30.12"}},
		}).
		Handle(sefaria.CapabilityFetch, sefariatest.Documents(map[string]map[string]any{
			"Deuteronomy 30:12": doc("Deuteronomy 30:12", "Deuteronomy 30:12", ""),
		}))

	d := NewEngine(svc).Resolve(context.Background(), "lo bashamayim hi")
	require.Empty(t, d.Error)
	assert.Equal(t, StrategyFindRefs, d.ResolutionPath[len(d.ResolutionPath)-1])
	assert.Equal(t, "connection reset", d.SearchError)
	assert.Equal(t, "Deuteronomy 30:12", d.Citation)
	assert.Len(t, d.RefMatches, 1)
}

func TestResolve_Failures(t *testing.T) {
	t.Run("no sources", func(t *testing.T) {
		svc := sefariatest.New().
			Reply(sefaria.CapabilitySearch, searchHits()).
			Reply(sefaria.CapabilityTopicsSearch, map[string]any{"results": []any{}}).
			Reply(sefaria.CapabilityFindRefs, map[string]any{"matches": []any{}})

		d := NewEngine(svc).Resolve(context.Background(), "quantum chromodynamics of penguins")
		assert.True(t, d.Failed())
		assert.Equal(t, ErrNoSources, d.Error)
		assert.Equal(t, "quantum chromodynamics of penguins", d.Query)
	})

	t.Run("search failed", func(t *testing.T) {
		svc := sefariatest.New().Fail(sefaria.CapabilitySearch, errors.New("connection reset"))

		d := NewEngine(svc).Resolve(context.Background(), "quantum chromodynamics")
		assert.True(t, d.Failed())
		assert.Equal(t, "Search failed: connection reset", d.Error)
	})

	t.Run("absent capabilities are never invoked", func(t *testing.T) {
		svc := sefariatest.New()

		d := NewEngine(svc).Resolve(context.Background(), "anything at all")
		assert.Equal(t, ErrNoSources, d.Error)
		assert.Empty(t, svc.Calls())
	})
}

func TestResolveQuestion(t *testing.T) {
	ctx := context.Background()

	t.Run("richer overlap wins", func(t *testing.T) {
		svc := sefariatest.New().Handle(sefaria.CapabilityFetch, sefariatest.Documents(map[string]map[string]any{
			"Genesis 1:1": doc("Genesis 1:1", "Bereshit", "בראשית א:א"),
			"Exodus 20:8": doc("Exodus 20:8", "Exodus 20:8", "שמות כ:ח"),
		}))

		r := NewEngine(svc).ResolveQuestion(ctx, "Compare Genesis 1:1 with Exodus 20:8")
		require.True(t, r.Found())
		assert.Equal(t, "שמות כ:ח", r.Citation)
		assert.Equal(t, 8, r.Score)
		assert.Equal(t, "Exodus 20:8", r.Detail.Citation)
	})

	t.Run("ties keep the earlier candidate", func(t *testing.T) {
		svc := sefariatest.New().Handle(sefaria.CapabilityFetch, sefariatest.Documents(map[string]map[string]any{
			"Genesis 1:1": doc("Genesis 1:1", "Genesis 1:1", "בראשית א:א"),
			"Exodus 20:8": doc("Exodus 20:8", "Exodus 20:8", "שמות כ:ח"),
		}))

		for range 5 {
			r := NewEngine(svc, WithConcurrency(8)).ResolveQuestion(ctx, "Compare Genesis 1:1 with Exodus 20:8")
			require.True(t, r.Found())
			assert.Equal(t, "בראשית א:א", r.Citation)
		}
	})

	t.Run("whole question fallback", func(t *testing.T) {
		svc := sefariatest.New().
			Reply(sefaria.CapabilitySearch, searchHits("Genesis 1:3|en|Sefaria")).
			Handle(sefaria.CapabilityFetch, sefariatest.Documents(map[string]map[string]any{
				"Genesis 1:3": doc("Genesis 1:3", "Genesis 1:3", "בראשית א׳:ג׳"),
			}))

		r := NewEngine(svc).ResolveQuestion(ctx, "Where does the Torah discuss the creation of light?")
		require.True(t, r.Found())
		assert.Equal(t, "בראשית א׳:ג׳", r.Citation)
		assert.Equal(t, []string{StrategySearch}, r.Detail.ResolutionPath)
	})

	t.Run("book opening fallback", func(t *testing.T) {
		svc := sefariatest.New().Handle(sefaria.CapabilityFetch, sefariatest.Documents(map[string]map[string]any{
			"Ruth 1:1": doc("Ruth 1:1", "Ruth 1:1", ""),
		}))

		r := NewEngine(svc).ResolveQuestion(ctx, "What happens in the book of ruth?")
		require.True(t, r.Found())
		assert.Equal(t, "Ruth 1:1", r.Citation)
		assert.Equal(t, []string{StrategyDirect}, r.Detail.ResolutionPath)
	})

	t.Run("nothing found", func(t *testing.T) {
		svc := sefariatest.New().Handle(sefaria.CapabilityFetch, sefariatest.Documents(nil))

		r := NewEngine(svc).ResolveQuestion(ctx, "quantum chromodynamics of penguins")
		assert.False(t, r.Found())
		assert.Equal(t, ErrNoSources, r.Err)
	})
}
