// SPDX-License-Identifier: Apache-2.0

package explain

import (
	"strings"

	"github.com/torahmcp/torah-mcp/internal/question"
	"github.com/torahmcp/torah-mcp/internal/resolve"
	"github.com/torahmcp/torah-mcp/internal/sefaria"
)

// explorerArgs are the arguments of an exploration step on ref.
func explorerArgs(ref string) map[string]any {
	return map[string]any{"ref": ref, "includeText": false, "maxPerCategory": 6}
}

// ApplyHeuristics adds the steps the question's vocabulary calls for. A step
// is added only when its capability is available and not already planned.
// An empty result becomes a single broad search.
func ApplyHeuristics(q string, steps []Step, has func(string) bool) []Step {
	ensure := func(capability string, args map[string]any) {
		if !has(capability) || planned(steps, capability) {
			return
		}
		steps = append(steps, Step{Capability: capability, Arguments: args})
	}

	law := question.IsLaw(q)
	if question.IsDailyStudy(q) {
		ensure(sefaria.CapabilityDailyLearnings, map[string]any{"diaspora": true})
	}
	if law {
		ensure(sefaria.CapabilityFindRefs, map[string]any{"text": q})
	}
	ensure(sefaria.CapabilitySearch, map[string]any{"query": q, "size": 6})
	if law {
		ensure(sefaria.CapabilitySugyaExplorer, explorerArgs(q))
	}
	if question.WantsInterpretation(q) {
		ensure(sefaria.CapabilityCompareVersions, map[string]any{"ref": q, "versions": []any{}})
	}

	if len(steps) == 0 {
		steps = append(steps, Step{Capability: sefaria.CapabilitySearch, Arguments: map[string]any{"query": q, "size": 8}})
	}
	return steps
}

func planned(steps []Step, capability string) bool {
	for _, s := range steps {
		if s.Capability == capability {
			return true
		}
	}
	return false
}

// refKeyed capabilities take the passage to work on as "ref".
var refKeyed = map[string]bool{
	sefaria.CapabilitySugyaExplorer:   true,
	sefaria.CapabilityCompareVersions: true,
	sefaria.CapabilityCommentaries:    true,
}

// PatchSteps points steps at the primary reference: a fetch without an id, a
// ref-keyed step whose ref is missing or not a citation, and a quote match
// without text. Steps are modified in place.
func PatchSteps(primary string, steps []Step) {
	for i := range steps {
		args := steps[i].Arguments
		if args == nil {
			args = map[string]any{}
			steps[i].Arguments = args
		}
		switch {
		case steps[i].Capability == sefaria.CapabilityFetch:
			if id, _ := args["id"].(string); id == "" {
				args["id"] = sefaria.FetchID(primary)
			}
		case refKeyed[steps[i].Capability]:
			ref, _ := args["ref"].(string)
			if ref == "" || strings.Contains(ref, "?") || !resolve.IsPureCitation(ref) {
				args["ref"] = primary
			}
		case steps[i].Capability == sefaria.CapabilityFindRefs:
			if text, _ := args["text"].(string); text == "" {
				args["text"] = primary
			}
		}
	}
}
