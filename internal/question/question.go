// SPDX-License-Identifier: Apache-2.0

// Package question classifies what a user question is asking for. The checks
// are vocabulary triggers, matched case-insensitively.
package question

import (
	"regexp"
	"strings"
)

// Disclaimer closes every answer to a practical-law question.
const Disclaimer = "_Disclaimer: For practical halacha, consult your rav._"

// lawTrigger matches law and practice vocabulary in Latin or Hebrew script.
var lawTrigger = regexp.MustCompile(`(?i)(halach|halakh|psak|permitted|allowed|issur|mutar|אסור|מותר|חובה|שבת)`)

// Commentators that get their comments on the primary reference fetched.
var Commentators = []string{"rashi", "ibn ezra", "ramban", "sforno", "malbim", "radak"}

// interpretationWords request a comparison of renderings.
var interpretationWords = []string{"rashi", "ibn ezra", "ramban", "commentary", "explain", "interpret"}

// IsLaw reports whether q asks about practical law.
func IsLaw(q string) bool {
	return lawTrigger.MatchString(q)
}

// IsDailyStudy reports whether q is about the daily page study cycle.
func IsDailyStudy(q string) bool {
	return strings.Contains(strings.ToLower(q), "daf yomi")
}

// WantsInterpretation reports whether q asks how a text is read or rendered.
func WantsInterpretation(q string) bool {
	return containsAny(strings.ToLower(q), interpretationWords)
}

// WantsOverview reports whether q asks for an overview or summary.
func WantsOverview(q string) bool {
	return containsAny(strings.ToLower(q), []string{"overview", "summary"})
}

// NamedCommentators returns the commentators q mentions, in Commentators order.
func NamedCommentators(q string) []string {
	lowered := strings.ToLower(q)
	var out []string
	for _, name := range Commentators {
		if strings.Contains(lowered, name) {
			out = append(out, name)
		}
	}
	return out
}

// MatchesCommentator reports whether a commentary title belongs to one of
// names: the title starts with the name, contains "<name> on", or contains
// the name as a space-delimited word.
func MatchesCommentator(title string, names []string) bool {
	lowered := strings.ToLower(title)
	for _, name := range names {
		if strings.HasPrefix(lowered, name) ||
			strings.Contains(lowered, name+" on") ||
			strings.Contains(lowered, " "+name+" ") {
			return true
		}
	}
	return false
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
