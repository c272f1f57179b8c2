// SPDX-License-Identifier: Apache-2.0

// Package explain plans capability calls for a question, runs them, gathers
// evidence into one map and hands it to the answer bridge.
package explain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/torahmcp/torah-mcp/internal/llm"
)

// MaxPlannedSteps caps the steps taken from the planner.
const MaxPlannedSteps = 4

// Step is one planned capability call.
type Step struct {
	Capability string         `json:"tool"`
	Arguments  map[string]any `json:"arguments"`
}

// Planner proposes steps for a question.
type Planner interface {
	Plan(ctx context.Context, question string) ([]Step, error)
}

const planSystemPrompt = `You are a planning assistant for a Torah research agent. Given a user question, decide which Sefaria MCP tools to call (search, fetch, sugya_explorer, compare_versions, etc.).
Return JSON with fields:
- plan: short explanation of your approach (1-2 sentences).
- steps: array where each item is an object {"tool": string, "arguments": object}. Use only valid tool names.
Guidelines:
- Start with search for general topics unless the prompt already looks like an exact ref (e.g., contains chapter:verse).
- Fetch specific refs (via fetch) when you already know the ref.
- Use sugya_explorer for broad questions about a passage.
- Use compare_versions if the question mentions comparison between translations.
- Use parsha_pack for weekly Torah portion questions.
- Use find_refs if text quotes are supplied.
Keep steps under 4 items.`

// planSchema constrains one planned step. Extra fields are tolerated.
const planSchema = `
#Step: {
	tool:      string & =~"^[a-z_]+$"
	arguments: {...}
	...
}
`

// LLMPlanner asks the text-generation collaborator for a plan and validates
// every step against a CUE schema. Invalid steps are dropped.
type LLMPlanner struct {
	client llm.Client
	cue    *cue.Context
	step   cue.Value
}

// NewLLMPlanner creates a planner over client.
func NewLLMPlanner(client llm.Client) *LLMPlanner {
	cctx := cuecontext.New()
	schema := cctx.CompileString(planSchema)
	return &LLMPlanner{
		client: client,
		cue:    cctx,
		step:   schema.LookupPath(cue.ParsePath("#Step")),
	}
}

// Plan implements Planner.
func (p *LLMPlanner) Plan(ctx context.Context, question string) ([]Step, error) {
	out, err := p.client.Complete(ctx, planSystemPrompt, fmt.Sprintf("Question: %s\nAnswer in JSON only.", question))
	if err != nil {
		return nil, err
	}
	return p.Parse(out)
}

// Parse validates raw planner output and returns at most MaxPlannedSteps
// valid steps.
func (p *LLMPlanner) Parse(raw string) ([]Step, error) {
	body := extractJSON(raw)
	if body == "" {
		return nil, errors.New("planner returned no JSON object")
	}
	v := p.cue.CompileString(body)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("planner output: %w", err)
	}
	stepsVal := v.LookupPath(cue.ParsePath("steps"))
	if !stepsVal.Exists() {
		return nil, nil
	}
	iter, err := stepsVal.List()
	if err != nil {
		return nil, fmt.Errorf("planner steps: %w", err)
	}

	var steps []Step
	for iter.Next() {
		item := p.step.Unify(iter.Value())
		if err := item.Validate(cue.Concrete(true)); err != nil {
			continue
		}
		var s Step
		if err := item.Decode(&s); err != nil {
			continue
		}
		if s.Arguments == nil {
			s.Arguments = map[string]any{}
		}
		steps = append(steps, s)
		if len(steps) == MaxPlannedSteps {
			break
		}
	}
	return steps, nil
}

// extractJSON strips markdown fences and surrounding prose from a JSON object.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return ""
	}
	return raw[start : end+1]
}
