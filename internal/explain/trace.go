// SPDX-License-Identifier: Apache-2.0

package explain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// maxRenderedEntries bounds the planning notes appended to an answer.
	maxRenderedEntries = 8
	// maxPayloadChars bounds one rendered payload.
	maxPayloadChars = 1500
)

// StepOutcome is the result of running one planned step.
type StepOutcome struct {
	Index      int            `json:"index"`
	Capability string         `json:"tool"`
	Arguments  map[string]any `json:"arguments,omitempty"`
	// Result is the normalized payload of a successful call.
	Result  map[string]any `json:"result,omitempty"`
	Err     string         `json:"error,omitempty"`
	Skipped bool           `json:"skipped,omitempty"`
}

// OK reports whether the step ran and succeeded.
func (o StepOutcome) OK() bool {
	return !o.Skipped && o.Err == ""
}

// Entry is one planning note: a label and an optional payload.
type Entry struct {
	Label   string `json:"label"`
	Payload any    `json:"payload,omitempty"`
}

// Render formats the entry as its label followed by the indented JSON
// payload, cut to a bounded length.
func (e Entry) Render() string {
	if e.Payload == nil {
		return e.Label
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e.Payload); err != nil {
		return e.Label + "\n" + fmt.Sprint(e.Payload)
	}
	return e.Label + "\n" + truncate(strings.TrimSpace(buf.String()), maxPayloadChars)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// Trace accumulates planning notes and step outcomes for one run.
type Trace struct {
	Entries  []Entry       `json:"entries"`
	Outcomes []StepOutcome `json:"steps"`
}

// Note records a plain note.
func (t *Trace) Note(format string, args ...any) {
	t.Entries = append(t.Entries, Entry{Label: fmt.Sprintf(format, args...)})
}

// Add records a labelled payload.
func (t *Trace) Add(label string, payload any) {
	t.Entries = append(t.Entries, Entry{Label: label, Payload: payload})
}

// Record folds a step outcome into the trace.
func (t *Trace) Record(o StepOutcome) {
	t.Outcomes = append(t.Outcomes, o)
	switch {
	case o.Skipped:
		t.Note("Step %d (%s) skipped: capability not available", o.Index, o.Capability)
	case o.Err != "":
		t.Note("Step %d (%s) failed: %s", o.Index, o.Capability, o.Err)
	default:
		t.Add(fmt.Sprintf("Step %d: %s", o.Index, o.Capability), o.Result)
	}
}

// Executed reports whether a step of capability ran successfully.
func (t *Trace) Executed(capability string) bool {
	for _, o := range t.Outcomes {
		if o.Capability == capability && o.OK() {
			return true
		}
	}
	return false
}

// Render joins the first entries into the planning notes block.
func (t *Trace) Render() string {
	if t == nil || len(t.Entries) == 0 {
		return "No tool output available."
	}
	n := min(len(t.Entries), maxRenderedEntries)
	parts := make([]string, 0, n)
	for _, e := range t.Entries[:n] {
		parts = append(parts, e.Render())
	}
	return strings.Join(parts, "\n\n")
}
