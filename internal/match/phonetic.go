package match

import (
	"unicode/utf8"

	"github.com/Helchan/Marsunso/internal/pinyin"
	"github.com/Helchan/Marsunso/internal/types"
)

// PhoneticMatcher matches a query token against a target's precomputed
// romanization data, mapping matches back to native-script rune offsets.
type PhoneticMatcher struct {
	tr *pinyin.Transliterator
}

// NewPhoneticMatcher creates a phonetic matcher.
func NewPhoneticMatcher(tr *pinyin.Transliterator) *PhoneticMatcher {
	return &PhoneticMatcher{tr: tr}
}

// Transliterator returns the transliterator backing this matcher.
func (m *PhoneticMatcher) Transliterator() *pinyin.Transliterator {
	return m.tr
}

// Match evaluates every applicable phonetic strategy and returns the best
// scoring result. Equal scores keep the earliest strategy in evaluation
// order (mixed, full, initials, sequence, native-skip). A total function:
// no strategy succeeding yields Matched=false, never an error.
func (m *PhoneticMatcher) Match(token, native string, rom types.Romanization) types.MatchResult {
	if token == "" || native == "" {
		return types.NoMatch()
	}

	tokenRunes := []rune(token)
	nativeRunes := []rune(native)
	hasLatin := containsLatin(tokenRunes)
	hasNative := containsHan(tokenRunes)
	isMixed := hasLatin && hasNative

	best := types.NoMatch()
	consider := func(r types.MatchResult) {
		if r.Matched && (!best.Matched || r.Score > best.Score) {
			best = r
		}
	}

	if isMixed {
		consider(m.matchSegments(segmentToken(tokenRunes), nativeRunes, rom))
	}

	fullRunes := []rune(rom.Full)
	if idx := runesIndex(fullRunes, tokenRunes); idx >= 0 {
		consider(types.MatchResult{
			Matched: true,
			Score:   100 - float64(idx),
			Kind:    types.KindFullPhonetic,
			Ranges: []types.Range{{
				Start: m.tr.CharOffset(idx, native),
				End:   m.tr.CharOffset(idx+len(tokenRunes), native),
			}},
		})
	}

	initialsRunes := []rune(rom.Initials)
	if idx := runesIndex(initialsRunes, tokenRunes); idx >= 0 {
		consider(types.MatchResult{
			Matched: true,
			Score:   80 - float64(idx),
			Kind:    types.KindInitials,
			Ranges:  []types.Range{{Start: idx, End: idx + len(tokenRunes)}},
		})
	}

	consider(m.matchSequence(tokenRunes, fullRunes, native))

	if hasNative && !isMixed {
		consider(matchNativeSkip(tokenRunes, nativeRunes))
	}

	return best
}

// matchSequence walks token against the full romanization allowing gaps.
// Every token rune must be consumed in order. Matched romanized positions are
// mapped to their owning native rune and grouped into contiguous rune runs.
func (m *PhoneticMatcher) matchSequence(token, full []rune, native string) types.MatchResult {
	if len(token) == 0 || len(full) == 0 {
		return types.NoMatch()
	}

	matched := make([]int, 0, len(token))
	tokenIdx := 0
	lastPos := -2
	run := 0
	longestRun := 0

	for pos := 0; pos < len(full) && tokenIdx < len(token); pos++ {
		if full[pos] != token[tokenIdx] {
			continue
		}
		if pos == lastPos+1 {
			run++
		} else {
			run = 1
		}
		if run > longestRun {
			longestRun = run
		}
		lastPos = pos
		matched = append(matched, pos)
		tokenIdx++
	}

	if tokenIdx != len(token) {
		return types.NoMatch()
	}

	coverage := float64(len(matched)) / float64(len(full)) * 50
	continuity := float64(longestRun) / float64(len(token)) * 50

	return types.MatchResult{
		Matched: true,
		Score:   coverage + continuity,
		Kind:    types.KindSequence,
		Ranges:  m.groupByOwningRune(matched, native),
	}
}

// groupByOwningRune maps romanized positions to native rune indices and
// coalesces adjacent or repeated indices into ranges.
func (m *PhoneticMatcher) groupByOwningRune(romanizedPositions []int, native string) []types.Range {
	if len(romanizedPositions) == 0 {
		return nil
	}

	first := m.tr.OwningCharIndex(romanizedPositions[0], native)
	start, end := first, first
	var ranges []types.Range
	for _, pos := range romanizedPositions[1:] {
		idx := m.tr.OwningCharIndex(pos, native)
		if idx <= end+1 {
			if idx > end {
				end = idx
			}
			continue
		}
		ranges = append(ranges, types.Range{Start: start, End: end + 1})
		start, end = idx, idx
	}
	return append(ranges, types.Range{Start: start, End: end + 1})
}

// matchNativeSkip applies the non-contiguous algorithm directly against the
// native text using only the Han runes of the token.
func matchNativeSkip(token, native []rune) types.MatchResult {
	inputChars := make([]rune, 0, len(token))
	for _, r := range token {
		if pinyin.IsHan(r) {
			inputChars = append(inputChars, r)
		}
	}
	if len(inputChars) == 0 {
		return types.NoMatch()
	}

	positions := make([]int, 0, len(inputChars))
	nativeIdx := 0
	lastPos := -2
	run := 0
	longestRun := 0

	for _, c := range inputChars {
		found := false
		for j := nativeIdx; j < len(native); j++ {
			if native[j] == c {
				positions = append(positions, j)
				nativeIdx = j + 1
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

	matchedCount := float64(len(inputChars))
	score := 60 +
		20*(matchedCount/float64(len(native))) +
		15*(float64(longestRun)/matchedCount) +
		5*(1-float64(positions[0])/float64(len(native)))

	ranges := make([]types.Range, len(positions))
	for i, pos := range positions {
		ranges[i] = types.Range{Start: pos, End: pos + 1}
	}

	return types.MatchResult{
		Matched: true,
		Score:   score,
		Kind:    types.KindNativeSkip,
		Ranges:  ranges,
	}
}

func containsLatin(runes []rune) bool {
	for _, r := range runes {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}

func containsHan(runes []rune) bool {
	for _, r := range runes {
		if pinyin.IsHan(r) {
			return true
		}
	}
	return false
}

// runeLen is a shorthand for the rune count of a string.
func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
