// SPDX-License-Identifier: Apache-2.0

package answer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torahmcp/torah-mcp/internal/evidence"
	"github.com/torahmcp/torah-mcp/internal/llm"
	"github.com/torahmcp/torah-mcp/internal/question"
	"github.com/torahmcp/torah-mcp/internal/sefaria"
	"github.com/torahmcp/torah-mcp/internal/sefaria/sefariatest"
)

func documents() sefariatest.Handler {
	return sefariatest.Documents(map[string]map[string]any{
		"Deuteronomy 30:12": {
			"ref": "Deuteronomy 30:12",
			"url": "https://www.sefaria.org/Deuteronomy.30.12",
			"metadata": map[string]any{
				"heRef":        "דברים ל׳:י״ב",
				"english_text": "It is not in the heavens. Who among us can go up",
				"hebrew_text":  "לא בשמים הוא. לאמר מי יעלה",
			},
		},
		"Bava Metzia 59b": {"ref": "Bava Metzia 59b", "text": "The oven of Akhnai."},
		"Empty 1:1":       {"ref": "Empty 1:1"},
	})
}

func TestBridge_Synthesis(t *testing.T) {
	var gotUser string
	client := llm.Func(func(_ context.Context, system, user string) (string, error) {
		assert.Contains(t, system, "Torah educator")
		gotUser = user
		return "The Torah is not in heaven.", nil
	})
	svc := sefariatest.New().Handle(sefaria.CapabilityFetch, documents())
	b := NewBridge(svc, client)

	ans := b.Explain(context.Background(), "What is lo bashamayim hi?", []evidence.Reference{
		{Citation: "Deuteronomy 30:12", Title: "Deuteronomy 30:12"},
		{Citation: "Bava Metzia 59b", Title: "Bava Metzia 59b"},
		{Citation: "Missing 1:1", Title: "Missing"},
	})

	assert.False(t, ans.Heuristic)
	assert.Equal(t, "The Torah is not in heaven.", ans.Text)
	require.Len(t, ans.Quotes, 2)
	assert.Equal(t, "דברים ל׳:י״ב", ans.Quotes[0].Ref)
	assert.Equal(t, "https://www.sefaria.org/Deuteronomy.30.12", ans.Quotes[0].URL)
	assert.Equal(t, "Bava Metzia 59b", ans.Quotes[1].Ref)
	assert.Equal(t, "The oven of Akhnai.", ans.Quotes[1].English)

	assert.Contains(t, gotUser, "Question: What is lo bashamayim hi?")
	assert.Contains(t, gotUser, "Level: beginner")
	assert.Contains(t, gotUser, "Ref: דברים ל׳:י״ב\nURL: https://www.sefaria.org/Deuteronomy.30.12")
	assert.Empty(t, svc.CallsTo(sefaria.CapabilitySearch))
}

func TestBridge_Disclaimer(t *testing.T) {
	svc := sefariatest.New().Handle(sefaria.CapabilityFetch, documents())
	seeds := []evidence.Reference{{Citation: "Bava Metzia 59b"}}
	q := "Is it permitted to rely on a heavenly voice?"

	ans := NewBridge(svc, llm.Func(func(context.Context, string, string) (string, error) {
		return "No.", nil
	})).Explain(context.Background(), q, seeds)
	assert.True(t, strings.HasSuffix(ans.Text, question.Disclaimer))

	ans = NewBridge(svc, llm.Func(func(context.Context, string, string) (string, error) {
		return "No. Disclaimer: ask your teacher.", nil
	})).Explain(context.Background(), q, seeds)
	assert.NotContains(t, ans.Text, question.Disclaimer)
}

func TestBridge_HeuristicFallback(t *testing.T) {
	svc := sefariatest.New().Handle(sefaria.CapabilityFetch, documents())
	b := NewBridge(svc, llm.Func(func(context.Context, string, string) (string, error) {
		return "", errors.New("rate limited")
	}))

	ans := b.Explain(context.Background(), "Is it allowed?", []evidence.Reference{
		{Citation: "Deuteronomy 30:12"},
		{Citation: "Empty 1:1"},
	})

	assert.True(t, ans.Heuristic)
	assert.Equal(t, strings.Join([]string{
		HeuristicHeader,
		"Error: rate limited",
		"\nQuoted sources:",
		"- דברים ל׳:י״ב — It is not in the heavens | לא בשמים הוא (https://www.sefaria.org/Deuteronomy.30.12)",
		"- Empty 1:1 —  |  (https://www.sefaria.org/Empty_1%3A1?lang=bi)",
		"\n" + question.Disclaimer,
	}, "\n"), ans.Text)
}

func TestBridge_EmptyCompletionFallsBack(t *testing.T) {
	svc := sefariatest.New().Handle(sefaria.CapabilityFetch, documents())
	b := NewBridge(svc, llm.Func(func(context.Context, string, string) (string, error) {
		return " \n", nil
	}))

	ans := b.Explain(context.Background(), "What is the oven of Akhnai?", []evidence.Reference{{Citation: "Bava Metzia 59b"}})

	assert.True(t, ans.Heuristic)
	require.Len(t, ans.Quotes, 1)
	assert.True(t, strings.HasPrefix(ans.Text, HeuristicHeader))
	assert.Contains(t, ans.Text, "Error: "+llm.ErrEmptyCompletion.Error())
	assert.Contains(t, ans.Text, "- Bava Metzia 59b — The oven of Akhnai.")
}

func TestBridge_SearchTopUp(t *testing.T) {
	svc := sefariatest.New().
		Handle(sefaria.CapabilitySearch, func(args map[string]any) (any, error) {
			if args["query"] == "What is the oven of Akhnai?" {
				return map[string]any{"structuredContent": map[string]any{
					"results": []any{map[string]any{"id": "Bava Metzia 59b|en|William Davidson", "title": "Bava Metzia 59b"}},
				}}, nil
			}
			return nil, errors.New("search down")
		}).
		Handle(sefaria.CapabilityFetch, documents())

	ans := NewBridge(svc, nil, WithMaxSources(1)).Explain(context.Background(), "What is the oven of Akhnai?", nil)
	require.Len(t, ans.Quotes, 1)
	assert.Equal(t, "Bava Metzia 59b", ans.Quotes[0].Ref)
	assert.Len(t, svc.CallsTo(sefaria.CapabilitySearch), 1)
	assert.True(t, strings.HasPrefix(ans.Text, HeuristicHeader))
}

func TestBridge_TopicsFallback(t *testing.T) {
	svc := sefariatest.New().
		Reply(sefaria.CapabilitySearch, map[string]any{"results": []any{}}).
		Handle(sefaria.CapabilityTopicsSearch, func(args map[string]any) (any, error) {
			return map[string]any{"structuredContent": map[string]any{
				"results": []any{map[string]any{"ref": "Bava Metzia 59b", "title": "Tanur shel Akhnai"}},
			}}, nil
		}).
		Handle(sefaria.CapabilityFetch, documents())

	ans := NewBridge(svc, nil).Explain(context.Background(), "akhnai", nil)
	require.Len(t, ans.Quotes, 1)
	assert.Equal(t, "Tanur shel Akhnai", ans.Quotes[0].Ref)
	assert.Len(t, svc.CallsTo(sefaria.CapabilityTopicsSearch), 1)
}

func TestBridge_NoSources(t *testing.T) {
	svc := sefariatest.New().Reply(sefaria.CapabilitySearch, map[string]any{"results": []any{}})
	ans := NewBridge(svc, nil).Explain(context.Background(), "quantum chromodynamics", nil)
	assert.Equal(t, NoSources, ans.Text)
}

func TestSearchQueries(t *testing.T) {
	assert.Equal(t, []string{
		"Where does the Torah discuss light?",
		"Where does the Torah discuss light",
		"does the Torah discuss light",
		"the Torah discuss light",
		"torah light",
	}, searchQueries("  Where does the Torah discuss light?  "))
}
