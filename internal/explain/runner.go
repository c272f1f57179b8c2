// SPDX-License-Identifier: Apache-2.0

package explain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/torahmcp/torah-mcp/internal/answer"
	"github.com/torahmcp/torah-mcp/internal/evidence"
	"github.com/torahmcp/torah-mcp/internal/evidence/extractors"
	"github.com/torahmcp/torah-mcp/internal/question"
	"github.com/torahmcp/torah-mcp/internal/resolve"
	"github.com/torahmcp/torah-mcp/internal/sefaria"
)

// Explainer turns evidence into an answer.
type Explainer interface {
	Explain(ctx context.Context, q string, seeds []evidence.Reference) answer.Answer
}

// Result is the outcome of one run.
type Result struct {
	RunID    string               `json:"run_id"`
	Question string               `json:"question"`
	Plan     []Step               `json:"plan"`
	Primary  resolve.Resolution   `json:"primary"`
	Evidence []evidence.Reference `json:"evidence"`
	Answer   answer.Answer        `json:"answer"`
	Trace    *Trace               `json:"trace"`
}

// String renders the answer followed by the planning notes.
func (r Result) String() string {
	return r.Answer.Text + "\n\n---\n_Planning notes:_\n" + r.Trace.Render()
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithPipeline replaces the default extraction pipeline.
func WithPipeline(p *evidence.Pipeline) Option {
	return func(r *Runner) { r.pipeline = p }
}

// Runner plans, executes and aggregates one question at a time. It holds no
// per-run state and may be shared.
type Runner struct {
	svc      sefaria.Invoker
	resolver *resolve.Engine
	planner  Planner
	bridge   Explainer
	pipeline *evidence.Pipeline
	logger   *zap.Logger
}

// NewRunner creates a Runner. A nil planner plans nothing and relies on the
// vocabulary heuristics alone.
func NewRunner(svc sefaria.Invoker, resolver *resolve.Engine, planner Planner, bridge Explainer, opts ...Option) *Runner {
	r := &Runner{
		svc:      svc,
		resolver: resolver,
		planner:  planner,
		bridge:   bridge,
		pipeline: extractors.DefaultPipeline(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger.Debug("runner ready", zap.Strings("extractors", r.pipeline.RegisteredExtractors()))
	return r
}

// run carries the state of one Run call.
type run struct {
	*Runner
	q       string
	logger  *zap.Logger
	trace   *Trace
	ev      *evidence.Map
	primary string
}

// Run answers q. Capability failures are recorded in the trace and never end
// the run; only a cancelled context or an empty question is an error.
func (r *Runner) Run(ctx context.Context, q string) (Result, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return Result{}, errors.New("question is empty")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	id := uuid.NewString()
	st := &run{
		Runner: r,
		q:      q,
		logger: r.logger.With(zap.String("run_id", id)),
		trace:  &Trace{},
		ev:     evidence.NewMap(),
	}

	steps := st.plan(ctx)

	res := r.resolver.ResolveQuestion(ctx, q)
	if res.Found() {
		st.primary = res.Citation
		st.trace.Add("Resolver", res.Detail)
		if ref, ok := res.Detail.Reference(); ok {
			st.ev.Add(ref)
		}
	} else if res.Err != "" {
		st.trace.Note("Resolver failed: %s", res.Err)
	}

	if st.primary != "" {
		PatchSteps(st.primary, steps)
		if question.IsLaw(q) && !planned(steps, sefaria.CapabilityCommentaries) && r.svc.Has(sefaria.CapabilityCommentaries) {
			steps = append(steps, Step{Capability: sefaria.CapabilityCommentaries, Arguments: map[string]any{"ref": st.primary}})
		}
	}

	for i, step := range steps {
		st.execute(ctx, i+1, step)
	}

	if st.primary != "" {
		st.enrichCommentaries(ctx)
		st.enrichTopics(ctx)
	}
	if question.IsLaw(q) && !st.trace.Executed(sefaria.CapabilitySugyaExplorer) {
		if first, ok := st.ev.First(); ok {
			st.explore(ctx, "Extra: sugya_explorer", first.Citation)
		}
	}
	if question.IsDailyStudy(q) {
		if daf, ok := st.dailyStudyReference(); ok {
			st.explore(ctx, "Extra: daf sugya_explorer", daf.Citation)
		}
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	list := st.ev.List()
	ans := r.bridge.Explain(ctx, q, list)
	st.logger.Info("run complete",
		zap.String("primary", st.primary),
		zap.Int("steps", len(steps)),
		zap.Int("evidence", st.ev.Len()),
		zap.Bool("heuristic_answer", ans.Heuristic))

	return Result{
		RunID:    id,
		Question: q,
		Plan:     steps,
		Primary:  res,
		Evidence: list,
		Answer:   ans,
		Trace:    st.trace,
	}, nil
}

func (st *run) plan(ctx context.Context) []Step {
	var steps []Step
	if st.planner != nil {
		proposed, err := st.planner.Plan(ctx, st.q)
		if err != nil {
			st.logger.Debug("planner fallback", zap.Error(err))
			st.trace.Note("Planner fallback: %v", err)
		} else {
			steps = proposed
		}
	}
	return ApplyHeuristics(st.q, steps, st.svc.Has)
}

// call invokes capability and normalizes its result.
func (st *run) call(ctx context.Context, capability string, args map[string]any) (map[string]any, error) {
	if !st.svc.Has(capability) {
		return nil, fmt.Errorf("%s: %w", capability, sefaria.ErrCapabilityUnavailable)
	}
	raw, err := st.svc.Call(ctx, capability, args)
	if err != nil {
		return nil, err
	}
	return sefaria.Normalize(raw), nil
}

func (st *run) execute(ctx context.Context, idx int, step Step) {
	out := StepOutcome{Index: idx, Capability: step.Capability, Arguments: step.Arguments}
	if !st.svc.Has(step.Capability) {
		out.Skipped = true
		st.trace.Record(out)
		return
	}
	structured, err := st.call(ctx, step.Capability, step.Arguments)
	if err != nil {
		st.logger.Debug("step failed", zap.Int("step", idx), zap.String("capability", step.Capability), zap.Error(err))
		out.Err = err.Error()
		st.trace.Record(out)
		return
	}
	out.Result = structured
	st.trace.Record(out)
	added := st.ev.Merge(st.pipeline.Extract(step.Capability, structured))
	st.logger.Debug("step done", zap.Int("step", idx), zap.String("capability", step.Capability), zap.Int("added", added))
}

// enrichCommentaries fetches the comments of named commentators on the
// primary reference.
func (st *run) enrichCommentaries(ctx context.Context) {
	names := question.NamedCommentators(st.q)
	if len(names) == 0 || !st.svc.Has(sefaria.CapabilityCommentaries) {
		return
	}
	structured, err := st.call(ctx, sefaria.CapabilityCommentaries, map[string]any{"ref": st.primary})
	if err != nil {
		st.trace.Note("Commentary enrichment failed: %v", err)
		return
	}
	st.trace.Add("Commentaries", structured)

	for _, item := range sefaria.DecodeCommentaries(structured).Items {
		if item.Ref == "" || !question.MatchesCommentator(item.Title, names) {
			continue
		}
		doc, err := sefaria.Fetch(ctx, st.svc, sefaria.FetchID(item.Ref), st.resolver.MaxChars())
		if err != nil {
			st.trace.Note("Fetch commentary %s failed: %v", item.Ref, err)
			continue
		}
		title := firstNonEmpty(doc.Title, item.Title, item.Ref)
		if ref, ok := evidence.NewReference(item.Ref, title, firstNonEmpty(doc.URL, item.URL)); ok {
			st.ev.Add(ref)
		}
	}
}

// enrichTopics merges topic hits for the primary reference when an overview
// was asked for.
func (st *run) enrichTopics(ctx context.Context) {
	if !question.WantsOverview(st.q) || !st.svc.Has(sefaria.CapabilityTopicsSearch) {
		return
	}
	structured, err := st.call(ctx, sefaria.CapabilityTopicsSearch, map[string]any{"topic": st.primary})
	if err != nil {
		st.trace.Note("Topic enrichment failed: %v", err)
		return
	}
	st.ev.Merge(st.pipeline.Extract(sefaria.CapabilityTopicsSearch, structured))
}

// explore runs one extra exploration step on ref.
func (st *run) explore(ctx context.Context, label, ref string) {
	if !st.svc.Has(sefaria.CapabilitySugyaExplorer) {
		st.trace.Note("%s skipped: capability not available", label)
		return
	}
	args := explorerArgs(ref)
	args["maxSheets"] = 4
	args["maxTopics"] = 4
	structured, err := st.call(ctx, sefaria.CapabilitySugyaExplorer, args)
	if err != nil {
		st.trace.Note("%s failed: %v", label, err)
		return
	}
	st.trace.Add(label, structured)
	st.ev.Merge(st.pipeline.Extract(sefaria.CapabilitySugyaExplorer, structured))
}

// dailyStudyReference finds the evidence entry for the daily page: by title,
// then by citation prefix.
func (st *run) dailyStudyReference() (evidence.Reference, bool) {
	if ref, ok := st.ev.Find(func(r evidence.Reference) bool {
		return strings.Contains(r.Title, "Daf Yomi")
	}); ok {
		return ref, true
	}
	return st.ev.Find(func(r evidence.Reference) bool {
		return strings.HasPrefix(strings.ToLower(r.Citation), "daf yomi")
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
