// SPDX-License-Identifier: Apache-2.0

// Package chavruta builds a guided study session for a question: the primary
// text, related sources, commentator layers and questions to discuss. It works
// without a text-generation model.
package chavruta

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/torahmcp/torah-mcp/internal/answer"
	"github.com/torahmcp/torah-mcp/internal/evidence"
	"github.com/torahmcp/torah-mcp/internal/resolve"
	"github.com/torahmcp/torah-mcp/internal/sefaria"
)

// Plan is the fixed outline of every session.
const Plan = "Resolve → Explore primary text → Compare insights → Reflect"

const (
	maxSources        = 6
	perCategory       = 2
	explorerTextChars = 1000
	fetchChars        = 900
	snippetRunes      = 260
	namesRunes        = 200
	fallbackSummary   = "Primary sources assembled for chavruta."
)

var baseSteps = []string{
	"Identify the exact reference and retrieve the core text (bilingual)",
	"Explore related sources and sheets for context (sugya_explorer)",
	"Compare commentators' insights and revisit the text",
}

const commentatorStep = "Optional: focus on a commentator whose view you want to understand deeply"

const (
	reflectTheme   = "What problem or theme is this source addressing?"
	reflectCompare = "How do two commentators agree or differ on the key point?"
	reflectSupport = "What in the text supports each interpretation?"
	reflectContext = "How does context before/after the passage change the meaning?"
)

// Session is a guided study plan.
type Session struct {
	Plan                string               `json:"plan"`
	Steps               []string             `json:"steps"`
	Primary             string               `json:"primary,omitempty"`
	Sources             []evidence.Reference `json:"sources"`
	ReflectionQuestions []string             `json:"reflection_questions"`
	Summary             string               `json:"summary"`
}

// Explainer synthesizes an answer from seed sources.
type Explainer interface {
	Explain(ctx context.Context, q string, seeds []evidence.Reference) answer.Answer
}

// Option configures a Guide.
type Option func(*Guide)

// WithExplainer enables synthesized summaries. Without one the summary is
// assembled from the fetched text and the commentator layers.
func WithExplainer(e Explainer) Option {
	return func(g *Guide) { g.explainer = e }
}

// WithLogger sets the guide logger.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Guide) { g.logger = logger }
}

// Guide runs guided study sessions.
type Guide struct {
	svc       sefaria.Invoker
	resolver  *resolve.Engine
	explainer Explainer
	logger    *zap.Logger
}

// NewGuide creates a Guide.
func NewGuide(svc sefaria.Invoker, resolver *resolve.Engine, opts ...Option) *Guide {
	g := &Guide{svc: svc, resolver: resolver, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Run builds a session for q. Capability failures degrade the session; only
// an empty question or a cancelled context is an error.
func (g *Guide) Run(ctx context.Context, q string) (Session, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return Session{}, errors.New("question is empty")
	}
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}

	d := g.resolver.Resolve(ctx, q)
	primary := strings.TrimSpace(firstNonEmpty(d.Metadata.HeRef, d.Citation, d.Title))

	var (
		explorer sefaria.ExplorerResult
		doc      sefaria.Document
		layers   []sefaria.InsightLayer
	)
	if primary != "" {
		explorer = g.explore(ctx, primary)
		if explorer.Text == "" {
			doc = g.fetch(ctx, primary)
		}
		layers = g.layers(ctx, primary)
	}
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}

	sources := collectSources(explorer)
	if len(sources) == 0 && doc.URL != "" {
		ref := firstNonEmpty(primary, doc.Title)
		sources = append(sources, evidence.Reference{
			Citation: ref,
			Title:    firstNonEmpty(doc.Title, primary),
			URL:      doc.URL,
		})
	}

	available := availableLayers(layers)
	s := Session{
		Plan:                Plan,
		Steps:               steps(available),
		Primary:             primary,
		Sources:             sources,
		ReflectionQuestions: reflectionQuestions(available),
		Summary:             g.summarize(ctx, q, sources, doc, available),
	}
	g.logger.Info("chavruta session built",
		zap.String("primary", primary),
		zap.Int("sources", len(sources)),
		zap.Int("layers", len(available)))
	return s, nil
}

func (g *Guide) call(ctx context.Context, capability string, args map[string]any) (map[string]any, bool) {
	if !g.svc.Has(capability) {
		return nil, false
	}
	raw, err := g.svc.Call(ctx, capability, args)
	if err != nil {
		g.logger.Debug("capability failed", zap.String("capability", capability), zap.Error(err))
		return nil, false
	}
	return sefaria.Normalize(raw), true
}

func (g *Guide) explore(ctx context.Context, ref string) sefaria.ExplorerResult {
	structured, ok := g.call(ctx, sefaria.CapabilitySugyaExplorer, map[string]any{
		"ref":            ref,
		"includeText":    true,
		"maxTextChars":   explorerTextChars,
		"maxPerCategory": 6,
	})
	if !ok {
		return sefaria.ExplorerResult{}
	}
	return sefaria.DecodeExplorer(structured)
}

func (g *Guide) fetch(ctx context.Context, ref string) sefaria.Document {
	doc, err := sefaria.Fetch(ctx, g.svc, sefaria.FetchID(ref), fetchChars)
	if err != nil {
		g.logger.Debug("fetch failed", zap.String("ref", ref), zap.Error(err))
		return sefaria.Document{}
	}
	return doc
}

func (g *Guide) layers(ctx context.Context, ref string) []sefaria.InsightLayer {
	structured, ok := g.call(ctx, sefaria.CapabilityInsightLayers, map[string]any{"ref": ref})
	if !ok {
		return nil
	}
	return sefaria.DecodeInsightLayers(structured).Items
}

// collectSources takes the first items of each explorer category that carry
// both a ref and a url.
func collectSources(explorer sefaria.ExplorerResult) []evidence.Reference {
	var out []evidence.Reference
	for _, cat := range explorer.Categories {
		items := cat.Items
		if len(items) > perCategory {
			items = items[:perCategory]
		}
		for _, item := range items {
			if item.Ref == "" || item.URL == "" {
				continue
			}
			out = append(out, evidence.Reference{
				Citation: item.Ref,
				Title:    firstNonEmpty(item.Title, item.Ref),
				URL:      item.URL,
			})
			if len(out) >= maxSources {
				return out
			}
		}
	}
	return out
}

func availableLayers(layers []sefaria.InsightLayer) []sefaria.InsightLayer {
	var out []sefaria.InsightLayer
	for _, l := range layers {
		if l.Available {
			out = append(out, l)
		}
	}
	return out
}

func steps(available []sefaria.InsightLayer) []string {
	out := append([]string(nil), baseSteps...)
	if len(available) > 0 {
		out = append(out, commentatorStep)
	}
	return out
}

func reflectionQuestions(available []sefaria.InsightLayer) []string {
	out := []string{reflectTheme}
	if len(available) >= 2 {
		out = append(out, reflectCompare)
	}
	return append(out, reflectSupport, reflectContext)
}

func (g *Guide) summarize(ctx context.Context, q string, sources []evidence.Reference, doc sefaria.Document, available []sefaria.InsightLayer) string {
	if g.explainer != nil {
		if text := g.explainer.Explain(ctx, q, sources).Text; text != "" {
			return text
		}
	}
	return Summary(firstNonEmpty(doc.Metadata.EnglishText, doc.Text), available)
}

// Summary assembles a summary without a model: the opening sentence of the
// English text and the names of the available commentators.
func Summary(english string, available []sefaria.InsightLayer) string {
	var parts []string
	if en := strings.TrimSpace(english); en != "" {
		first, _, _ := strings.Cut(en, ". ")
		parts = append(parts, truncate(first, snippetRunes))
	}
	var names []string
	for _, l := range available {
		if l.Name != "" {
			names = append(names, l.Name)
		}
	}
	if len(names) > 0 {
		parts = append(parts, "Commentators considered: "+truncate(strings.Join(names, ", "), namesRunes))
	}
	if len(parts) == 0 {
		return fallbackSummary
	}
	return strings.Join(parts, "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
