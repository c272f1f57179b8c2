// SPDX-License-Identifier: Apache-2.0

// Package resolve turns a citation, a partial citation or a free-text
// question into one canonical reference backed by fetched text.
package resolve

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/torahmcp/torah-mcp/internal/evidence"
	"github.com/torahmcp/torah-mcp/internal/sefaria"
)

// Strategy names recorded in Detail.ResolutionPath.
const (
	StrategyDirect           = "direct"
	StrategySearch           = "search"
	StrategySearchSimplified = "search_simplified"
	StrategyTopicsSearch     = "topics_search"
	StrategyFindRefs         = "find_refs"
)

// Terminal failure messages.
const (
	ErrNoSources    = "No sources found"
	searchFailedFmt = "Search failed: %v"
)

const (
	defaultMaxChars   = 800
	defaultSearchSize = 5
)

// Detail is the outcome of resolving one input string.
type Detail struct {
	Query          string                   `json:"query"`
	Citation       string                   `json:"ref,omitempty"`
	Title          string                   `json:"title,omitempty"`
	URL            string                   `json:"url,omitempty"`
	Text           string                   `json:"text,omitempty"`
	Metadata       sefaria.DocumentMetadata `json:"metadata,omitempty"`
	ResolutionPath []string                 `json:"resolution_path,omitempty"`
	SearchResults  []sefaria.SearchHit      `json:"search_results,omitempty"`
	RefMatches     []sefaria.RefMatch       `json:"ref_matches,omitempty"`
	SearchError    string                   `json:"search_error,omitempty"`
	Error          string                   `json:"error,omitempty"`
}

// Failed reports a terminal failure: an error and no citation.
func (d Detail) Failed() bool {
	return d.Error != "" && d.Citation == ""
}

// AltCitation is the Hebrew-script citation when known, else the citation.
func (d Detail) AltCitation() string {
	if d.Metadata.HeRef != "" {
		return d.Metadata.HeRef
	}
	return d.Citation
}

// Reference converts a successful detail to an evidence reference keyed on
// its alternate-script citation, falling back to the title.
func (d Detail) Reference() (evidence.Reference, bool) {
	key := d.Metadata.HeRef
	if key == "" {
		key = d.Title
	}
	if key == "" {
		key = d.Citation
	}
	return evidence.NewReference(key, d.Title, d.URL)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMaxChars bounds the fetched text length.
func WithMaxChars(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxChars = n
		}
	}
}

// WithSearchSize sets how many full-text hits are requested.
func WithSearchSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.searchSize = n
		}
	}
}

// WithConcurrency bounds parallel candidate resolution in ResolveQuestion.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// Engine runs the cascading resolution strategies against the retrieval service.
type Engine struct {
	svc         sefaria.Invoker
	logger      *zap.Logger
	maxChars    int
	searchSize  int
	concurrency int
}

// NewEngine creates an Engine over svc.
func NewEngine(svc sefaria.Invoker, opts ...Option) *Engine {
	e := &Engine{
		svc:         svc,
		logger:      zap.NewNop(),
		maxChars:    defaultMaxChars,
		searchSize:  defaultSearchSize,
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxChars returns the fetch length bound.
func (e *Engine) MaxChars() int {
	return e.maxChars
}

// Resolve resolves query, trying in order: a direct fetch of a pure citation,
// full-text search, a simplified search, topic search, and quote matching.
// A failure of any single strategy counts as "no hits" for that strategy.
// The result is never nil; check Detail.Failed.
func (e *Engine) Resolve(ctx context.Context, query string) Detail {
	logger := e.logger.With(zap.String("query", query))
	logger.Debug("resolve start")

	if IsPureCitation(query) {
		detail := e.resolveCitation(ctx, query)
		detail.Query = query
		detail.ResolutionPath = []string{StrategyDirect}
		logger.Debug("resolve direct", zap.Bool("failed", detail.Failed()))
		return detail
	}

	path := []string{StrategySearch}
	var searchErr error

	hits, err := e.search(ctx, query)
	if err != nil {
		searchErr = err
	}

	simplified := ""
	if len(hits) == 0 {
		simplified = SimplifyQuery(query)
		if simplified != "" && simplified != query {
			simplifiedHits, err := e.search(ctx, simplified)
			if err != nil && searchErr == nil {
				searchErr = err
			}
			if len(simplifiedHits) > 0 {
				hits = simplifiedHits
				path = append(path, StrategySearchSimplified)
			}
		}
	}

	if len(hits) == 0 {
		topic := simplified
		if topic == "" {
			topic = query
		}
		if topicHits := e.topics(ctx, topic); len(topicHits) > 0 {
			hits = topicHits
			path = append(path, StrategyTopicsSearch)
		}
	}

	if len(hits) == 0 {
		matches := e.findRefs(ctx, query)
		if len(matches) > 0 && matches[0].Ref != "" {
			detail := e.resolveCitation(ctx, matches[0].Ref)
			detail.Query = query
			detail.RefMatches = matches
			detail.ResolutionPath = append(path, StrategyFindRefs)
			if searchErr != nil {
				detail.SearchError = searchErr.Error()
			}
			logger.Debug("resolve via quote match", zap.Strings("path", detail.ResolutionPath))
			return detail
		}
		if searchErr != nil {
			logger.Debug("resolve failed", zap.Error(searchErr))
			return Detail{Query: query, Error: fmt.Sprintf(searchFailedFmt, searchErr)}
		}
		logger.Debug("resolve found nothing")
		return Detail{Query: query, Error: ErrNoSources}
	}

	detail := e.resolveHit(ctx, hits[0])
	detail.Query = query
	detail.SearchResults = hits
	detail.ResolutionPath = path
	if searchErr != nil {
		detail.SearchError = searchErr.Error()
	}
	logger.Debug("resolve done", zap.Strings("path", path), zap.String("ref", detail.Citation))
	return detail
}

// search runs a full-text search. An absent capability is not an error.
func (e *Engine) search(ctx context.Context, query string) ([]sefaria.SearchHit, error) {
	if !e.svc.Has(sefaria.CapabilitySearch) {
		return nil, nil
	}
	raw, err := e.svc.Call(ctx, sefaria.CapabilitySearch, map[string]any{"query": query, "size": e.searchSize})
	if err != nil {
		return nil, err
	}
	return sefaria.DecodeSearch(sefaria.Normalize(raw)).Results, nil
}

// topics runs a topic search, keeping only hits that carry a ref.
func (e *Engine) topics(ctx context.Context, topic string) []sefaria.SearchHit {
	if !e.svc.Has(sefaria.CapabilityTopicsSearch) {
		return nil
	}
	raw, err := e.svc.Call(ctx, sefaria.CapabilityTopicsSearch, map[string]any{"topic": topic})
	if err != nil {
		e.logger.Debug("topic search failed", zap.Error(err))
		return nil
	}
	var hits []sefaria.SearchHit
	for _, item := range sefaria.DecodeTopics(sefaria.Normalize(raw)).Results {
		if item.Ref == "" {
			continue
		}
		title := item.Title
		if title == "" {
			title = item.Ref
		}
		hits = append(hits, sefaria.SearchHit{ID: item.Ref, Title: title, URL: item.URL})
	}
	return hits
}

func (e *Engine) findRefs(ctx context.Context, text string) []sefaria.RefMatch {
	if !e.svc.Has(sefaria.CapabilityFindRefs) {
		return nil
	}
	raw, err := e.svc.Call(ctx, sefaria.CapabilityFindRefs, map[string]any{"text": text})
	if err != nil {
		e.logger.Debug("quote match failed", zap.Error(err))
		return nil
	}
	return sefaria.DecodeRefMatches(sefaria.Normalize(raw)).Matches
}

// resolveCitation fetches a known citation.
func (e *Engine) resolveCitation(ctx context.Context, citation string) Detail {
	citation = evidence.NormalizeCitation(citation)
	doc, err := sefaria.Fetch(ctx, e.svc, sefaria.FetchID(citation), e.maxChars)
	if err != nil {
		return Detail{Error: fetchError(err)}
	}
	if doc.Ref == "" {
		doc.Ref = citation
	}
	if doc.URL == "" {
		doc.URL = evidence.CitationURL(citation)
	}
	return fromDocument(doc)
}

// resolveHit fetches the source behind a search hit.
func (e *Engine) resolveHit(ctx context.Context, hit sefaria.SearchHit) Detail {
	citation := hit.Citation()
	id := hit.ID
	if id == "" {
		ref := hit.Title
		if ref == "" {
			ref = hit.URL
		}
		if ref == "" {
			ref = "Unknown Ref"
		}
		id = ref
	}
	doc, err := sefaria.Fetch(ctx, e.svc, sefaria.FetchID(id), e.maxChars)
	if err != nil {
		return Detail{Error: fetchError(err)}
	}
	if doc.Ref == "" {
		doc.Ref = citation
	}
	if doc.Title == "" {
		doc.Title = hit.Title
	}
	if doc.URL == "" {
		doc.URL = hit.URL
	}
	if doc.URL == "" && doc.Ref != "" {
		doc.URL = evidence.CitationURL(doc.Ref)
	}
	return fromDocument(doc)
}

func fromDocument(doc sefaria.Document) Detail {
	return Detail{
		Citation: evidence.NormalizeCitation(doc.Ref),
		Title:    doc.Title,
		URL:      doc.URL,
		Text:     doc.Text,
		Metadata: doc.Metadata,
	}
}

func fetchError(err error) string {
	if errors.Is(err, sefaria.ErrCapabilityUnavailable) {
		return "Fetch unavailable"
	}
	return fmt.Sprintf("Fetch failed: %v", err)
}
