package match

import (
	"github.com/Helchan/Marsunso/internal/pinyin"
	"github.com/Helchan/Marsunso/internal/types"
)

// Mixed-input matching: a token like "w学xi" is split into maximal runs of
// native-script, Latin, and other runes, then each run is resolved against
// the native text left to right with an advancing rune cursor.

type segmentKind int

const (
	segOther segmentKind = iota
	segNative
	segLatin
)

type tokenSegment struct {
	kind  segmentKind
	runes []rune
}

// segmentToken splits a token into maximal same-kind rune runs.
func segmentToken(token []rune) []tokenSegment {
	var segments []tokenSegment
	for _, r := range token {
		kind := segOther
		switch {
		case pinyin.IsHan(r):
			kind = segNative
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			kind = segLatin
		}
		if n := len(segments); n > 0 && segments[n-1].kind == kind {
			segments[n-1].runes = append(segments[n-1].runes, r)
			continue
		}
		segments = append(segments, tokenSegment{kind: kind, runes: []rune{r}})
	}
	return segments
}

// nativeLocation is a resolved native-script run.
type nativeLocation struct {
	positions  []int
	endPos     int
	continuous bool
}

// latinLocation is a resolved Latin run, in native rune coordinates.
type latinLocation struct {
	kind     types.MatchKind // full-phonetic, sequence, or initials
	startPos int
	endPos   int
}

// matchSegments resolves every segment of a mixed token in order. Any
// unresolvable native or Latin run fails the whole match; "other" runs are
// skipped. The result kind is KindMixed when every resolved run was
// contiguous, KindMixedSkip otherwise.
func (m *PhoneticMatcher) matchSegments(segments []tokenSegment, native []rune, rom types.Romanization) types.MatchResult {
	if len(segments) == 0 || len(native) == 0 {
		return types.NoMatch()
	}

	nativeStr := string(native)
	fullRunes := []rune(rom.Full)
	initialsRunes := []rune(rom.Initials)

	cursor := 0
	contiguous := true
	firstPos := -1
	inputLen := 0
	var ranges []types.Range

	for _, seg := range segments {
		inputLen += len(seg.runes)
		switch seg.kind {
		case segNative:
			loc := locateNativeRun(seg.runes, native, cursor)
			if loc == nil {
				return types.NoMatch()
			}
			for _, pos := range loc.positions {
				ranges = append(ranges, types.Range{Start: pos, End: pos + 1})
			}
			if firstPos < 0 {
				firstPos = loc.positions[0]
			}
			if !loc.continuous {
				contiguous = false
			}
			cursor = loc.endPos

		case segLatin:
			loc := m.locateLatinRun(seg.runes, fullRunes, initialsRunes, cursor, nativeStr)
			if loc == nil {
				return types.NoMatch()
			}
			if loc.endPos > loc.startPos {
				ranges = append(ranges, types.Range{Start: loc.startPos, End: loc.endPos})
			}
			if firstPos < 0 {
				firstPos = loc.startPos
			}
			if loc.kind == types.KindInitials {
				contiguous = false
			}
			cursor = loc.endPos

		default:
			// Unresolvable punctuation or digits pass through silently.
		}
	}

	base := 40.0
	kind := types.KindMixedSkip
	if contiguous {
		base = 70.0
		kind = types.KindMixed
	}
	if firstPos < 0 {
		firstPos = 0
	}
	coverage := float64(inputLen) / float64(len(native)) * 20
	position := (1 - float64(firstPos)/float64(len(native))) * 10

	return types.MatchResult{
		Matched: true,
		Score:   base + coverage + position,
		Kind:    kind,
		Ranges:  ranges,
	}
}

// locateNativeRun finds each rune of run in native, in order, starting at
// startPos. A gap between the cursor and the first matched rune does not
// break continuity; gaps between matched runes do.
func locateNativeRun(run, native []rune, startPos int) *nativeLocation {
	if len(run) == 0 {
		return nil
	}

	positions := make([]int, 0, len(run))
	searchFrom := startPos
	continuous := true
	lastPos := startPos - 1

	for _, c := range run {
		found := false
		for j := searchFrom; j < len(native); j++ {
			if native[j] == c {
				positions = append(positions, j)
				searchFrom = j + 1
				if j != lastPos+1 && lastPos >= startPos {
					continuous = false
				}
				lastPos = j
				found = true
				break
			}
		}
		if !found {
			return nil
		}
	}

	return &nativeLocation{
		positions:  positions,
		endPos:     searchFrom,
		continuous: continuous,
	}
}

// locateLatinRun resolves a Latin run against the romanization, trying full
// containment from the cursor, then a skip-allowed sequence, then initials
// containment from the cursor. All returned offsets are native rune offsets.
func (m *PhoneticMatcher) locateLatinRun(run, full, initials []rune, startCharIndex int, native string) *latinLocation {
	if len(run) == 0 || len(full) == 0 {
		return nil
	}

	romanStart := m.tr.RomanizedPrefixLen(native, startCharIndex)

	if idx := runesIndexFrom(full, run, romanStart); idx >= 0 {
		return &latinLocation{
			kind:     types.KindFullPhonetic,
			startPos: startCharIndex,
			endPos:   m.tr.CharOffset(idx+len(run), native),
		}
	}

	if loc := m.latinSequenceFrom(run, full, romanStart, native); loc != nil {
		return loc
	}

	if idx := runesIndexFrom(initials, run, startCharIndex); idx >= 0 {
		endPos := startCharIndex + len(run)
		if max := runeLen(native); endPos > max {
			endPos = max
		}
		return &latinLocation{
			kind:     types.KindInitials,
			startPos: startCharIndex,
			endPos:   endPos,
		}
	}

	return nil
}

// latinSequenceFrom walks run against the full romanization from romanStart,
// allowing gaps, and maps the matched span back to rune offsets.
func (m *PhoneticMatcher) latinSequenceFrom(run, full []rune, romanStart int, native string) *latinLocation {
	matched := make([]int, 0, len(run))
	runIdx := 0
	for pos := romanStart; pos < len(full) && runIdx < len(run); pos++ {
		if full[pos] == run[runIdx] {
			matched = append(matched, pos)
			runIdx++
		}
	}
	if runIdx != len(run) {
		return nil
	}

	return &latinLocation{
		kind:     types.KindSequence,
		startPos: m.tr.CharOffset(matched[0], native),
		endPos:   m.tr.CharOffset(matched[len(matched)-1]+1, native),
	}
}
