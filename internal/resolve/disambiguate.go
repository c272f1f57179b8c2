// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"context"
	"slices"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/torahmcp/torah-mcp/internal/evidence"
)

// Resolution is the primary reference chosen for a question.
type Resolution struct {
	// Citation is the primary citation, preferring the alternate-script form.
	Citation string `json:"ref,omitempty"`
	// Detail is the winning resolution, or the last failure when nothing won.
	Detail Detail `json:"detail"`
	// Score of the winning candidate; zero for the fallbacks.
	Score int `json:"score"`
	// Err describes why no primary reference was found.
	Err string `json:"error,omitempty"`
}

// Found reports whether a primary reference was chosen.
func (r Resolution) Found() bool {
	return r.Citation != ""
}

// Score rates how well a successful detail matches the candidate it was
// resolved from. Direct resolution scores 5 and a search hit 1. Each
// alphabetic word of the candidate adds 2 when it appears in the title and 1
// when it appears in the alternate citation; each chapter:verse token adds
// the same 1 and 1.
func Score(candidate string, d Detail) int {
	score := 0
	if slices.Contains(d.ResolutionPath, StrategyDirect) {
		score += 5
	}
	if slices.Contains(d.ResolutionPath, StrategySearch) {
		score += 1
	}

	title := strings.ToLower(d.Title)
	alt := d.AltCitation()
	if alt == "" {
		alt = candidate
	}
	alt = strings.ToLower(alt)

	for _, tok := range strings.Fields(candidate) {
		switch {
		case isAlpha(tok):
			word := strings.ToLower(tok)
			if strings.Contains(title, word) {
				score += 2
			}
			if strings.Contains(alt, word) {
				score++
			}
		case strings.Contains(tok, ":"):
			if strings.Contains(title, tok) {
				score++
			}
			if strings.Contains(alt, tok) {
				score++
			}
		}
	}
	return score
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// ResolveQuestion picks the primary reference for a free-text question. Every
// citation-shaped candidate is resolved concurrently and the best scoring
// success wins, ties going to the earlier candidate. Without a winner the
// whole question is resolved, then "book of <name>" is tried as "<Name> 1:1".
func (e *Engine) ResolveQuestion(ctx context.Context, question string) Resolution {
	candidates := CitationCandidates(question)
	details := make([]Detail, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, cand := range candidates {
		g.Go(func() error {
			details[i] = e.Resolve(gctx, cand)
			return nil
		})
	}
	_ = g.Wait()

	best := -1
	bestScore := -1
	for i, d := range details {
		if d.Error != "" {
			continue
		}
		if s := Score(candidates[i], d); s > bestScore {
			best, bestScore = i, s
		}
	}
	if best >= 0 {
		d := details[best]
		primary := d.Metadata.HeRef
		if primary == "" {
			primary = d.Citation
		}
		if primary == "" {
			primary = candidates[best]
		}
		e.logger.Debug("primary reference chosen",
			zap.String("candidate", candidates[best]),
			zap.Int("score", bestScore),
			zap.Int("candidates", len(candidates)))
		return Resolution{Citation: evidence.NormalizeCitation(primary), Detail: d, Score: bestScore}
	}

	whole := e.Resolve(ctx, question)
	if whole.Error == "" {
		primary := whole.Metadata.HeRef
		if primary == "" {
			primary = whole.Citation
		}
		if primary == "" {
			primary = whole.Title
		}
		if primary != "" {
			return Resolution{Citation: evidence.NormalizeCitation(primary), Detail: whole}
		}
	}

	if opening, ok := BookOpening(question); ok {
		d := e.Resolve(ctx, opening)
		if d.Error == "" {
			primary := d.Metadata.HeRef
			if primary == "" {
				primary = d.Citation
			}
			if primary == "" {
				primary = opening
			}
			return Resolution{Citation: evidence.NormalizeCitation(primary), Detail: d}
		}
	}

	e.logger.Debug("no primary reference", zap.String("error", whole.Error))
	return Resolution{Detail: whole, Err: whole.Error}
}
