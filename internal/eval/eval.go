// SPDX-License-Identifier: Apache-2.0

// Package eval runs a fixed question set through the explain runner and
// checks each output for links, sources, bilingual quotes and the practical
// law disclaimer.
package eval

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"go.uber.org/zap"

	"github.com/torahmcp/torah-mcp/internal/explain"
	"github.com/torahmcp/torah-mcp/internal/question"
)

//go:embed questions.yaml
var seedQuestions []byte

// Question is one evaluation item.
type Question struct {
	ID          string `yaml:"id" json:"id"`
	Question    string `yaml:"question" json:"question"`
	Category    string `yaml:"category" json:"category"`
	Expectation string `yaml:"expectation,omitempty" json:"expectation,omitempty"`
}

type questionSet struct {
	Questions []Question `yaml:"questions"`
}

// SeedQuestions returns the built-in question set.
func SeedQuestions() ([]Question, error) {
	return Parse(seedQuestions)
}

// Parse decodes a question set. Every item needs an id and a question, and
// ids are unique.
func Parse(content []byte) ([]Question, error) {
	var set questionSet
	if err := yaml.Unmarshal(content, &set); err != nil {
		return nil, fmt.Errorf("failed to unmarshal question set: %w", err)
	}
	seen := make(map[string]bool, len(set.Questions))
	var errs []error
	for i, q := range set.Questions {
		switch {
		case strings.TrimSpace(q.ID) == "":
			errs = append(errs, fmt.Errorf("question %d: id is required", i+1))
		case strings.TrimSpace(q.Question) == "":
			errs = append(errs, fmt.Errorf("question %s: text is required", q.ID))
		case seen[q.ID]:
			errs = append(errs, fmt.Errorf("question %s: duplicate id", q.ID))
		}
		seen[q.ID] = true
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return set.Questions, nil
}

// Runner answers one question.
type Runner interface {
	Run(ctx context.Context, q string) (explain.Result, error)
}

// Outcome is the checked result of one question.
type Outcome struct {
	ID                 string `yaml:"id" json:"id"`
	Category           string `yaml:"category" json:"category"`
	Question           string `yaml:"question" json:"question"`
	RunID              string `yaml:"run_id,omitempty" json:"run_id,omitempty"`
	LatencyMS          int64  `yaml:"total_latency_ms" json:"total_latency_ms"`
	EvidenceCount      int    `yaml:"evidence_count" json:"evidence_count"`
	QuotedSources      int    `yaml:"quoted_sources_count" json:"quoted_sources_count"`
	HebrewQuote        bool   `yaml:"hebrew_quote_present" json:"hebrew_quote_present"`
	EnglishQuote       bool   `yaml:"english_quote_present" json:"english_quote_present"`
	LinksPresent       bool   `yaml:"links_present" json:"links_present"`
	DisclaimerRequired bool   `yaml:"disclaimer_required" json:"disclaimer_required"`
	DisclaimerPresent  bool   `yaml:"disclaimer_present" json:"disclaimer_present"`
	Err                string `yaml:"error,omitempty" json:"error,omitempty"`
}

// Passed reports whether the run succeeded with sources, links and, where
// required, the disclaimer.
func (o Outcome) Passed() bool {
	if o.Err != "" || !o.LinksPresent {
		return false
	}
	if o.EvidenceCount == 0 && o.QuotedSources == 0 {
		return false
	}
	return !o.DisclaimerRequired || o.DisclaimerPresent
}

// Report collects the outcomes of one evaluation run.
type Report struct {
	Outcomes []Outcome `yaml:"outcomes" json:"outcomes"`
	Passed   int       `yaml:"passed" json:"passed"`
	Failed   int       `yaml:"failed" json:"failed"`
}

// YAML renders the report.
func (r Report) YAML() ([]byte, error) {
	return yaml.Marshal(r)
}

// Check derives the outcome of q from a run result.
func Check(q Question, res explain.Result) Outcome {
	out := res.String()
	o := Outcome{
		ID:                 q.ID,
		Category:           q.Category,
		Question:           q.Question,
		RunID:              res.RunID,
		EvidenceCount:      len(res.Evidence),
		QuotedSources:      len(res.Answer.Quotes),
		LinksPresent:       strings.Contains(out, "http"),
		DisclaimerRequired: question.IsLaw(q.Question),
		DisclaimerPresent:  strings.Contains(strings.ToLower(res.Answer.Text), "disclaimer"),
	}
	for _, quote := range res.Answer.Quotes {
		if quote.Hebrew != "" {
			o.HebrewQuote = true
		}
		if quote.English != "" {
			o.EnglishQuote = true
		}
	}
	return o
}

// Run evaluates questions in order. A failed question is recorded in its
// outcome; only a cancelled context stops the run.
func Run(ctx context.Context, r Runner, questions []Question, logger *zap.Logger) (Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var report Report
	for _, q := range questions {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		start := time.Now()
		res, err := r.Run(ctx, q.Question)
		var o Outcome
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			o = Outcome{ID: q.ID, Category: q.Category, Question: q.Question, Err: err.Error()}
		} else {
			o = Check(q, res)
		}
		o.LatencyMS = time.Since(start).Milliseconds()

		if o.Passed() {
			report.Passed++
		} else {
			report.Failed++
		}
		report.Outcomes = append(report.Outcomes, o)
		logger.Info("eval question done",
			zap.String("id", q.ID),
			zap.Bool("passed", o.Passed()),
			zap.Int64("latency_ms", o.LatencyMS),
			zap.Int("quoted_sources", o.QuotedSources))
	}
	return report, nil
}
