package match

import (
	"strings"

	"github.com/Helchan/Marsunso/internal/pinyin"
	"github.com/Helchan/Marsunso/internal/types"
)

// Score weights for the text matching tiers. The phonetic tier is rescaled
// into the 3..4.5 band so contiguous text matches always outrank it, while
// non-contiguous text matches and phonetic matches compete on merit.
const (
	exactScore        = 10.0
	prefixScore       = 8.0
	substringBase     = 5.0
	nonContiguousBase = 4.0
	phoneticBase      = 3.0
)

// Phonetic score multipliers keyed on match kind.
const (
	fullPhoneticWeight = 1.2
	mixedWeight        = 1.1
	nativeSkipWeight   = 0.9
	initialsWeight     = 0.8
)

// TextMatcher scores a single text field against a single query token.
type TextMatcher struct {
	phonetic *PhoneticMatcher
}

// NewTextMatcher creates a text matcher backed by the given transliterator.
func NewTextMatcher(tr *pinyin.Transliterator) *TextMatcher {
	return &TextMatcher{phonetic: NewPhoneticMatcher(tr)}
}

// Phonetic exposes the underlying phonetic matcher.
func (m *TextMatcher) Phonetic() *PhoneticMatcher {
	return m.phonetic
}

// MatchText scores text against token. Both must be pre-lowercased by the
// caller. The contiguous tiers (exact, prefix, substring) and the
// non-contiguous tier are tried in order, first success wins; when
// romanization data is supplied the phonetic tier is evaluated as well and
// the higher final score is kept, ties going to the text tier.
func (m *TextMatcher) MatchText(text, token string, rom types.Romanization) types.MatchResult {
	textRunes := []rune(text)
	tokenRunes := []rune(token)
	if len(textRunes) == 0 || len(tokenRunes) == 0 {
		return types.NoMatch()
	}

	textResult := matchTextTiers(textRunes, tokenRunes)

	if rom.Empty() {
		return textResult
	}
	phonetic := m.phonetic.Match(token, text, rom)
	if !phonetic.Matched {
		return textResult
	}

	rescaled := types.MatchResult{
		Matched: true,
		Score:   phoneticBase + (phonetic.Score/100.0)*phoneticMultiplier(phonetic.Kind),
		Kind:    phonetic.Kind,
		Ranges:  phonetic.Ranges,
	}
	if textResult.Matched && textResult.Score >= rescaled.Score {
		return textResult
	}
	return rescaled
}

// MatchTarget scores an entry's target locator against token: domain equality,
// domain containment, then full-target containment. Ranges are relative to
// whichever string matched (domain for the domain tiers, target otherwise).
func (m *TextMatcher) MatchTarget(target, domain, token string) types.MatchResult {
	tokenRunes := []rune(token)
	if len(tokenRunes) == 0 {
		return types.NoMatch()
	}

	if domain != "" {
		domainRunes := []rune(strings.ToLower(domain))
		if runesEqual(domainRunes, tokenRunes) {
			return types.MatchResult{
				Matched: true,
				Score:   6,
				Kind:    types.KindExact,
				Field:   types.FieldTarget,
				Ranges:  []types.Range{{Start: 0, End: len(domainRunes)}},
			}
		}
		if idx := runesIndex(domainRunes, tokenRunes); idx >= 0 {
			return types.MatchResult{
				Matched: true,
				Score:   4,
				Kind:    types.KindSubstring,
				Field:   types.FieldTarget,
				Ranges:  []types.Range{{Start: idx, End: idx + len(tokenRunes)}},
			}
		}
	}

	if target != "" {
		targetRunes := []rune(strings.ToLower(target))
		if idx := runesIndex(targetRunes, tokenRunes); idx >= 0 {
			return types.MatchResult{
				Matched: true,
				Score:   2,
				Kind:    types.KindSubstring,
				Field:   types.FieldTarget,
				Ranges:  []types.Range{{Start: idx, End: idx + len(tokenRunes)}},
			}
		}
	}

	return types.NoMatch()
}

// matchTextTiers runs the non-phonetic tiers in order, first success wins.
func matchTextTiers(text, token []rune) types.MatchResult {
	if runesEqual(text, token) {
		return types.MatchResult{
			Matched: true,
			Score:   exactScore,
			Kind:    types.KindExact,
			Ranges:  []types.Range{{Start: 0, End: len(text)}},
		}
	}

	if runesHasPrefix(text, token) {
		return types.MatchResult{
			Matched: true,
			Score:   prefixScore,
			Kind:    types.KindPrefix,
			Ranges:  []types.Range{{Start: 0, End: len(token)}},
		}
	}

	if idx := runesIndex(text, token); idx >= 0 {
		coverage := float64(len(token)) / float64(len(text))
		return types.MatchResult{
			Matched: true,
			Score:   substringBase + 2*coverage,
			Kind:    types.KindSubstring,
			Ranges:  []types.Range{{Start: idx, End: idx + len(token)}},
		}
	}

	return nonContiguousMatch(token, text)
}

// nonContiguousMatch walks token rune by rune, scanning text forward for each
// occurrence. All token runes must be found in order. The ranges are one
// single-rune span per matched position, deliberately unmerged; coalescing
// happens at the highlight boundary.
func nonContiguousMatch(token, text []rune) types.MatchResult {
	if len(token) == 0 || len(text) == 0 {
		return types.NoMatch()
	}

	positions := make([]int, 0, len(token))
	textIndex := 0
	lastPos := -2
	run := 0
	longestRun := 0

	for _, c := range token {
		found := false
		for j := textIndex; j < len(text); j++ {
			if text[j] == c {
				positions = append(positions, j)
				textIndex = j + 1
				if j == lastPos+1 {
					run++
				} else {
					run = 1
				}
				if run > longestRun {
					longestRun = run
				}
				lastPos = j
				found = true
				break
			}
		}
		if !found {
			return types.NoMatch()
		}
	}

	coverage := float64(len(token)) / float64(len(text))
	continuity := float64(longestRun) / float64(len(token))
	ranges := make([]types.Range, len(positions))
	for i, pos := range positions {
		ranges[i] = types.Range{Start: pos, End: pos + 1}
	}

	return types.MatchResult{
		Matched: true,
		Score:   nonContiguousBase + 2*coverage + continuity,
		Kind:    types.KindNonContiguous,
		Ranges:  ranges,
	}
}

func phoneticMultiplier(kind types.MatchKind) float64 {
	switch kind {
	case types.KindFullPhonetic:
		return fullPhoneticWeight
	case types.KindMixed, types.KindMixedSkip:
		return mixedWeight
	case types.KindNativeSkip:
		return nativeSkipWeight
	case types.KindInitials:
		return initialsWeight
	default:
		return 1.0
	}
}

func runesEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func runesHasPrefix(text, prefix []rune) bool {
	if len(prefix) > len(text) {
		return false
	}
	return runesEqual(text[:len(prefix)], prefix)
}

// runesIndex returns the rune offset of the first occurrence of needle in
// haystack, or -1.
func runesIndex(haystack, needle []rune) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if runesEqual(haystack[i:i+len(needle)], needle) {
			return i
		}
	}
	return -1
}

// runesIndexFrom is runesIndex starting the scan at from.
func runesIndexFrom(haystack, needle []rune, from int) int {
	if from < 0 {
		from = 0
	}
	if from >= len(haystack) {
		return -1
	}
	idx := runesIndex(haystack[from:], needle)
	if idx < 0 {
		return -1
	}
	return from + idx
}
