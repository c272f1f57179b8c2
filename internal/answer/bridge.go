// SPDX-License-Identifier: Apache-2.0

// Package answer turns gathered evidence into the user-facing answer: it
// fetches bilingual text for the evidence, asks the text-generation
// collaborator to synthesize an answer, and falls back to quoting the
// sources directly when that fails.
package answer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/torahmcp/torah-mcp/internal/evidence"
	"github.com/torahmcp/torah-mcp/internal/llm"
	"github.com/torahmcp/torah-mcp/internal/question"
	"github.com/torahmcp/torah-mcp/internal/resolve"
	"github.com/torahmcp/torah-mcp/internal/sefaria"
)

// NoSources is the whole answer when no evidence could be gathered.
const NoSources = "No sources found."

// HeuristicHeader opens the answer rendered without the collaborator.
const HeuristicHeader = "LLM unavailable; presenting sources directly."

const systemPrompt = "You are a Torah educator. Answer succinctly and reference the supplied sources."

const userPrompt = `Question: %s
Level: %s
Sources (Heb/Eng quotations):
%s

Return a markdown response with:
1. 3-5 sentence answer
2. Bulleted list "Quoted sources" with each bullet including ref, English snippet, Hebrew snippet, and link.
3. Add a Halacha disclaimer if the question is practical halacha.
`

// Quote is the fetched text of one source.
type Quote struct {
	Ref     string `json:"ref"`
	URL     string `json:"url"`
	English string `json:"english,omitempty"`
	Hebrew  string `json:"hebrew,omitempty"`
}

// Answer is the bridge output.
type Answer struct {
	Text   string  `json:"text"`
	Quotes []Quote `json:"quotes,omitempty"`
	// Heuristic is true when the text was rendered without the collaborator.
	Heuristic bool `json:"heuristic"`
}

func (a Answer) String() string {
	return a.Text
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithMaxSources sets how many quotes feed the answer.
func WithMaxSources(n int) Option {
	return func(b *Bridge) {
		if n > 0 {
			b.maxSources = n
		}
	}
}

// WithMaxChars bounds each fetched text.
func WithMaxChars(n int) Option {
	return func(b *Bridge) {
		if n > 0 {
			b.maxChars = n
		}
	}
}

// WithLevel sets the audience level passed to the collaborator.
func WithLevel(level string) Option {
	return func(b *Bridge) {
		if level != "" {
			b.level = level
		}
	}
}

// WithLogger sets the bridge logger.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Bridge) { b.logger = logger }
}

// Bridge is the evidence-to-answer bridge.
type Bridge struct {
	svc        sefaria.Invoker
	llm        llm.Client
	logger     *zap.Logger
	maxSources int
	maxChars   int
	level      string
}

// NewBridge creates a Bridge. A nil client behaves as an unconfigured one.
func NewBridge(svc sefaria.Invoker, client llm.Client, opts ...Option) *Bridge {
	if client == nil {
		client = llm.Disabled{}
	}
	b := &Bridge{
		svc:        svc,
		llm:        client,
		logger:     zap.NewNop(),
		maxSources: 3,
		maxChars:   800,
		level:      "beginner",
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// source is one fetch target.
type source struct {
	id    string
	title string
	url   string
}

// Explain answers q from seeds, topping up with searches of the question
// when fewer than the configured number of sources were seeded. It always
// returns non-empty text.
func (b *Bridge) Explain(ctx context.Context, q string, seeds []evidence.Reference) Answer {
	sources := b.gather(ctx, q, seeds)
	if len(sources) == 0 {
		b.logger.Debug("no sources", zap.String("question", q))
		return Answer{Text: NoSources, Heuristic: true}
	}

	quotes := b.quotes(ctx, sources)
	law := question.IsLaw(q)

	var ctxLines []string
	for _, qt := range quotes {
		ctxLines = append(ctxLines, fmt.Sprintf("Ref: %s\nURL: %s\nEnglish: %s\nHebrew: %s\n", qt.Ref, qt.URL, qt.English, qt.Hebrew))
	}
	out, err := b.llm.Complete(ctx, systemPrompt, fmt.Sprintf(userPrompt, q, b.level, strings.Join(ctxLines, "\n")))
	if err == nil && strings.TrimSpace(out) == "" {
		err = llm.ErrEmptyCompletion
	}
	if err != nil {
		b.logger.Debug("synthesis unavailable", zap.Error(err))
		return Answer{Text: Heuristic(quotes, err, law), Quotes: quotes, Heuristic: true}
	}
	if law && !strings.Contains(strings.ToLower(out), "disclaimer") {
		out += "\n\n" + question.Disclaimer
	}
	return Answer{Text: out, Quotes: quotes}
}

// Heuristic renders quotes without the collaborator.
func Heuristic(quotes []Quote, cause error, law bool) string {
	lines := []string{HeuristicHeader}
	if cause != nil {
		lines = append(lines, fmt.Sprintf("Error: %v", cause))
	}
	if len(quotes) > 0 {
		lines = append(lines, "\nQuoted sources:")
		for _, q := range quotes {
			lines = append(lines, fmt.Sprintf("- %s — %s | %s (%s)", q.Ref, firstSentence(q.English), firstSentence(q.Hebrew), q.URL))
		}
	}
	if law {
		lines = append(lines, "\n"+question.Disclaimer)
	}
	return strings.Join(lines, "\n")
}

func firstSentence(s string) string {
	before, _, _ := strings.Cut(s, ". ")
	return strings.TrimSpace(before)
}

// gather collects fetch targets: seeds first, then full-text search and topic
// search of the question until enough sources are known.
func (b *Bridge) gather(ctx context.Context, q string, seeds []evidence.Reference) []source {
	var sources []source
	seen := make(map[string]bool)
	add := func(s source) {
		if s.id == "" || seen[s.id] {
			return
		}
		seen[s.id] = true
		sources = append(sources, s)
	}

	for _, seed := range seeds {
		ref := strings.TrimSpace(seed.Citation)
		if ref == "" {
			continue
		}
		title := seed.Title
		if title == "" {
			title = ref
		}
		link := seed.URL
		if link == "" {
			link = evidence.CitationURL(ref)
		}
		add(source{id: sefaria.FetchID(ref), title: title, url: link})
	}

	queries := searchQueries(q)
	tried := make(map[string]bool)
	for _, query := range queries {
		if len(sources) >= b.maxSources {
			break
		}
		if query == "" || tried[query] {
			continue
		}
		tried[query] = true
		for _, s := range b.search(ctx, query) {
			add(s)
		}
	}

	if len(sources) == 0 && b.svc.Has(sefaria.CapabilityTopicsSearch) {
		topics := append([]string{}, queries...)
		if simplified := resolve.SimplifyQuery(q); simplified != "" {
			topics = append(topics, simplified)
		}
		for _, topic := range dedupe(topics) {
			for _, s := range b.topics(ctx, topic) {
				add(s)
			}
			if len(sources) > 0 {
				break
			}
		}
	}
	return sources
}

// searchQueries derives the question variants to search: as asked, without
// trailing punctuation, without its first word, without its first two words,
// and simplified.
func searchQueries(q string) []string {
	base := strings.TrimSpace(q)
	queries := []string{base}
	trimmed := strings.TrimRight(base, "?.! ")
	if trimmed != "" && trimmed != base {
		queries = append(queries, trimmed)
	}
	words := strings.Fields(trimmed)
	if len(words) > 3 {
		queries = append(queries, strings.Join(words[1:], " "))
	}
	if len(words) > 4 {
		queries = append(queries, strings.Join(words[2:], " "))
	}
	if simplified := resolve.SimplifyQuery(base); simplified != "" {
		queries = append(queries, simplified)
	}
	return dedupe(queries)
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func (b *Bridge) search(ctx context.Context, query string) []source {
	if !b.svc.Has(sefaria.CapabilitySearch) {
		return nil
	}
	raw, err := b.svc.Call(ctx, sefaria.CapabilitySearch, map[string]any{"query": query, "size": 6})
	if err != nil {
		b.logger.Debug("search failed", zap.String("query", query), zap.Error(err))
		return nil
	}
	var out []source
	for _, hit := range sefaria.DecodeSearch(sefaria.Normalize(raw)).Results {
		ref := hit.Citation()
		if ref == "" {
			continue
		}
		title := hit.Title
		if title == "" {
			title = ref
		}
		link := hit.URL
		if link == "" {
			link = evidence.CitationURL(ref)
		}
		out = append(out, source{id: sefaria.FetchID(ref), title: title, url: link})
	}
	return out
}

func (b *Bridge) topics(ctx context.Context, topic string) []source {
	raw, err := b.svc.Call(ctx, sefaria.CapabilityTopicsSearch, map[string]any{"topic": topic})
	if err != nil {
		b.logger.Debug("topic search failed", zap.String("topic", topic), zap.Error(err))
		return nil
	}
	var out []source
	for _, hit := range sefaria.DecodeTopics(sefaria.Normalize(raw)).Results {
		if hit.Ref == "" {
			continue
		}
		title := hit.Title
		if title == "" {
			title = hit.Ref
		}
		link := hit.URL
		if link == "" {
			link = evidence.CitationURL(hit.Ref)
		}
		out = append(out, source{id: sefaria.FetchID(hit.Ref), title: title, url: link})
	}
	return out
}

// quotes fetches up to twice the source budget and keeps the first sources
// with text, padding with textless ones when too few have any.
func (b *Bridge) quotes(ctx context.Context, sources []source) []Quote {
	if len(sources) > 2*b.maxSources {
		sources = sources[:2*b.maxSources]
	}
	var withText, without []Quote
	for _, s := range sources {
		doc, err := sefaria.Fetch(ctx, b.svc, s.id, b.maxChars)
		if err != nil {
			b.logger.Debug("fetch failed", zap.String("id", s.id), zap.Error(err))
			continue
		}
		english := strings.TrimSpace(doc.Metadata.EnglishText)
		if english == "" {
			english = strings.TrimSpace(doc.Text)
		}
		ref := doc.Metadata.HeRef
		if ref == "" {
			ref = s.title
		}
		link := doc.URL
		if link == "" {
			link = s.url
		}
		qt := Quote{Ref: ref, URL: link, English: english, Hebrew: strings.TrimSpace(doc.Metadata.HebrewText)}
		if qt.English != "" || qt.Hebrew != "" {
			withText = append(withText, qt)
		} else {
			without = append(without, qt)
		}
		if len(withText) >= b.maxSources {
			break
		}
	}
	if missing := b.maxSources - len(withText); missing > 0 && len(without) > 0 {
		withText = append(withText, without[:min(missing, len(without))]...)
	}
	return withText
}
