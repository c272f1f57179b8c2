// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/torahmcp/torah-mcp/internal/evidence"
)

// Citation shapes. These are heuristics, not a grammar: inputs they miss fall
// through to search.
var (
	// "<words> <chapter>:<verse>", e.g. "Genesis 1:1", "Shulchan Arukh, Orach Chayim 328:2".
	latinRefPattern = regexp.MustCompile(`([\w\s'\-]+\d+:\d+)|(#[\x{0590}-\x{05FF}]+)`)
	// A Hebrew-script book name followed by a number, e.g. "ברכות 2:1".
	hebrewRefPattern = regexp.MustCompile(`[\x{0590}-\x{05FF}]+\s*\d+[:.\s]?\d*`)
	// A Hebrew-script book name followed by Hebrew-letter numerals, e.g. "בראשית א:א".
	hebrewNumeralRefPattern = regexp.MustCompile(`[\x{0590}-\x{05FF}]{2,}\s+[\x{05D0}-\x{05EA}]{1,3}[׳']?[:.][\x{05D0}-\x{05EA}]{1,3}`)

	simplifyTokenizer = regexp.MustCompile(`[\p{L}\p{N}_']+`)
	questionTokenizer = regexp.MustCompile(`[A-Za-z\x{0590}-\x{05FF}]+|\d+[:.]\d+|\S`)
	bookOfPattern     = regexp.MustCompile(`book of ([a-zA-Z\s]+)`)
)

// maxPureCitationWords bounds how long a pure citation may be.
const maxPureCitationWords = 6

// questionWords mark an input as a question about a source, not a citation.
var questionWords = map[string]bool{
	"what": true, "where": true, "who": true, "how": true,
	"why": true, "when": true, "tell": true, "explain": true,
}

// simplifyStopwords are dropped when deriving a simplified search query.
var simplifyStopwords = map[string]bool{
	"where": true, "does": true, "the": true, "and": true, "or": true, "a": true,
	"an": true, "of": true, "to": true, "in": true, "is": true, "about": true,
	"discuss": true, "discusses": true, "discussing": true, "tell": true, "me": true,
	"do": true, "it": true, "on": true, "for": true, "with": true, "by": true,
	"what": true, "which": true, "who": true, "when": true, "how": true, "why": true,
}

// maxSimplifiedTokens caps the simplified query.
const maxSimplifiedTokens = 8

// LooksLikeCitation reports whether s contains a citation-shaped span.
func LooksLikeCitation(s string) bool {
	s = strings.TrimSpace(s)
	return latinRefPattern.MatchString(s) ||
		hebrewRefPattern.MatchString(s) ||
		hebrewNumeralRefPattern.MatchString(s)
}

// IsPureCitation classifies q as directly naming a citation rather than asking
// about one. All of the following must hold:
//   - q is not blank and has no '?' or '!';
//   - its first word is not an interrogative or imperative (what, where, who,
//     how, why, when, tell, explain);
//   - it has at most six words;
//   - it contains a citation shape in Latin or Hebrew script.
//
// The check is best effort and accepts false negatives.
func IsPureCitation(q string) bool {
	q = strings.TrimSpace(q)
	if q == "" {
		return false
	}
	if strings.ContainsAny(q, "?!") {
		return false
	}
	words := strings.Fields(q)
	if questionWords[strings.ToLower(words[0])] {
		return false
	}
	if len(words) > maxPureCitationWords {
		return false
	}
	return LooksLikeCitation(q)
}

// SimplifyQuery lower-cases q, drops stopwords and tokens of two characters or
// less, and keeps at most eight remaining tokens.
func SimplifyQuery(q string) string {
	tokens := simplifyTokenizer.FindAllString(strings.ToLower(q), -1)
	kept := make([]string, 0, maxSimplifiedTokens)
	for _, tok := range tokens {
		if simplifyStopwords[tok] || utf8.RuneCountInString(tok) <= 2 {
			continue
		}
		kept = append(kept, tok)
		if len(kept) == maxSimplifiedTokens {
			break
		}
	}
	return strings.TrimSpace(strings.Join(kept, " "))
}

// maxWindowWords is how many words before a chapter:verse token may belong
// to the book name.
const maxWindowWords = 6

// CitationCandidates lists the citation-shaped substrings of question,
// normalized and de-duplicated, in discovery order: the first Latin-pattern
// match, the first Hebrew-pattern match, then for every "<n>:<n>" token the
// windows of up to six preceding words, longest first.
func CitationCandidates(question string) []string {
	var raw []string
	if m := latinRefPattern.FindString(question); m != "" {
		raw = append(raw, m)
	}
	if m := hebrewRefPattern.FindString(question); m != "" {
		raw = append(raw, m)
	}

	tokens := questionTokenizer.FindAllString(question, -1)
	for idx, token := range tokens {
		verse := trimPunct(token)
		if !strings.Contains(verse, ":") || !strings.ContainsAny(verse, "0123456789") {
			continue
		}
		start := idx - maxWindowWords
		if start < 0 {
			start = 0
		}
		var window []string
		for _, t := range tokens[start:idx] {
			if t = trimPunct(t); t != "" {
				window = append(window, t)
			}
		}
		for n := len(window); n > 0; n-- {
			if name := strings.TrimSpace(strings.Join(window[len(window)-n:], " ")); name != "" {
				raw = append(raw, name+" "+verse)
			}
		}
	}

	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, cand := range raw {
		norm := evidence.NormalizeCitation(cand)
		if norm == "" || seen[norm] {
			continue
		}
		seen[norm] = true
		out = append(out, norm)
	}
	return out
}

// BookOpening maps "... book of <name> ..." to "<Name> 1:1".
func BookOpening(question string) (string, bool) {
	m := bookOfPattern.FindStringSubmatch(strings.ToLower(question))
	if m == nil {
		return "", false
	}
	words := strings.Fields(m[1])
	if len(words) == 0 {
		return "", false
	}
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ") + " 1:1", true
}

func trimPunct(s string) string {
	return strings.Trim(s, ".,;?!")
}
