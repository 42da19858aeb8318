// Package review contains the pure transformation layer between a model's
// structured review output and the review that gets posted: filtering and
// anchoring inline comments, carrying QA checklist state across runs, and
// rendering the final review body. Nothing in this package performs I/O.
package review

import (
	"regexp"
	"strings"
)

// MatchOptions tunes the scenario matcher. The overlap threshold has no
// principled derivation; it is exposed here instead of being a buried
// constant so callers can tighten or relax it.
type MatchOptions struct {
	// OverlapThreshold is the minimum ratio of shared words to the smaller
	// word set for two scenarios to be considered the same.
	OverlapThreshold float64
}

// DefaultMatchOptions returns the matcher defaults used in production.
func DefaultMatchOptions() MatchOptions {
	return MatchOptions{OverlapThreshold: 0.7}
}

var nonWordRegex = regexp.MustCompile(`[^\w\s]`)

// normalizeScenario lowercases, strips punctuation, and collapses
// whitespace so that cosmetic rewording does not break matching.
func normalizeScenario(s string) string {
	s = strings.ToLower(s)
	s = nonWordRegex.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// IsCarriedForward reports whether a freshly generated QA scenario matches
// any scenario a human previously checked off. The model rewords scenarios
// between runs, so three rules are tried in order against each checked
// entry: exact equality after normalization, substring containment in
// either direction, then word-set overlap against the smaller set. The
// result does not depend on iteration order over the set: the rules are
// per-element and the function returns true if any element satisfies one.
func IsCarriedForward(candidate string, checked map[string]struct{}, opts MatchOptions) bool {
	if opts.OverlapThreshold <= 0 {
		opts = DefaultMatchOptions()
	}

	a := normalizeScenario(candidate)
	if a == "" {
		return false
	}

	for item := range checked {
		b := normalizeScenario(item)
		if b == "" {
			continue
		}
		if a == b {
			return true
		}
		if strings.Contains(a, b) || strings.Contains(b, a) {
			return true
		}
		if wordOverlap(a, b) >= opts.OverlapThreshold {
			return true
		}
	}
	return false
}

// wordOverlap returns |Wa ∩ Wb| / min(|Wa|, |Wb|) for the word sets of two
// normalized strings, or 0 when either set is empty.
func wordOverlap(a, b string) float64 {
	wa := wordSet(a)
	wb := wordSet(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}

	shared := 0
	for w := range wa {
		if _, ok := wb[w]; ok {
			shared++
		}
	}

	smaller := len(wa)
	if len(wb) < smaller {
		smaller = len(wb)
	}
	return float64(shared) / float64(smaller)
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		set[w] = struct{}{}
	}
	return set
}
