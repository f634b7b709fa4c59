package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Helchan/Marsunso/internal/pinyin"
	"github.com/Helchan/Marsunso/internal/types"
)

func newPhoneticMatcher() (*PhoneticMatcher, *pinyin.Transliterator) {
	tr := pinyin.New(true)
	return NewPhoneticMatcher(tr), tr
}

func TestPhoneticFullContainment(t *testing.T) {
	m, tr := newPhoneticMatcher()
	rom := tr.Transliterate("学习")

	result := m.Match("xuexi", "学习", rom)
	require.True(t, result.Matched)
	assert.Equal(t, types.KindFullPhonetic, result.Kind)
	assert.Equal(t, 100.0, result.Score)
	assert.Equal(t, []types.Range{{Start: 0, End: 2}}, result.Ranges)

	// Offset into the romanization reduces the score and shifts the range.
	result = m.Match("xi", "学习", rom)
	require.True(t, result.Matched)
	assert.Equal(t, types.KindFullPhonetic, result.Kind)
	assert.Equal(t, 97.0, result.Score)
	assert.Equal(t, []types.Range{{Start: 1, End: 2}}, result.Ranges)
}

func TestPhoneticInitials(t *testing.T) {
	m, tr := newPhoneticMatcher()
	rom := tr.Transliterate("书签栏")

	result := m.Match("sq", "书签栏", rom)
	require.True(t, result.Matched)
	assert.Equal(t, types.KindInitials, result.Kind)
	assert.Equal(t, 80.0, result.Score)
	assert.Equal(t, []types.Range{{Start: 0, End: 2}}, result.Ranges)

	result = m.Match("ql", "书签栏", rom)
	require.True(t, result.Matched)
	assert.Equal(t, types.KindInitials, result.Kind)
	assert.Equal(t, 79.0, result.Score)
	assert.Equal(t, []types.Range{{Start: 1, End: 3}}, result.Ranges)
}

func TestPhoneticSequence(t *testing.T) {
	m, tr := newPhoneticMatcher()
	rom := tr.Transliterate("学习")

	// "xei" is neither contained in "xuexi" nor in the initials, but every
	// letter appears in order: x@0, e@2, i@4, longest run 1.
	result := m.Match("xei", "学习", rom)
	require.True(t, result.Matched)
	assert.Equal(t, types.KindSequence, result.Kind)
	assert.InDelta(t, 3.0/5.0*50+1.0/3.0*50, result.Score, 1e-9)
	assert.Equal(t, []types.Range{{Start: 0, End: 2}}, result.Ranges)
}

func TestPhoneticSequenceRequiresAllRunes(t *testing.T) {
	m, tr := newPhoneticMatcher()
	rom := tr.Transliterate("学习")

	assert.False(t, m.Match("xz", "学习", rom).Matched)
}

func TestPhoneticNativeSkip(t *testing.T) {
	m, tr := newPhoneticMatcher()
	rom := tr.Transliterate("我爱学习")

	// Han token against a longer native label: positions 2,3 form one run.
	result := m.Match("学习", "我爱学习", rom)
	require.True(t, result.Matched)
	assert.Equal(t, types.KindNativeSkip, result.Kind)
	want := 60 + 20*(2.0/4.0) + 15*(2.0/2.0) + 5*(1-2.0/4.0)
	assert.InDelta(t, want, result.Score, 1e-9)
	assert.Equal(t, []types.Range{{Start: 2, End: 3}, {Start: 3, End: 4}}, result.Ranges)
}

func TestPhoneticNativeSkipWithGap(t *testing.T) {
	m, tr := newPhoneticMatcher()
	rom := tr.Transliterate("我爱学习")

	result := m.Match("我学", "我爱学习", rom)
	require.True(t, result.Matched)
	assert.Equal(t, types.KindNativeSkip, result.Kind)
	want := 60 + 20*(2.0/4.0) + 15*(1.0/2.0) + 5*(1-0.0/4.0)
	assert.InDelta(t, want, result.Score, 1e-9)
}

func TestPhoneticNoMatch(t *testing.T) {
	m, tr := newPhoneticMatcher()
	rom := tr.Transliterate("学习")

	assert.False(t, m.Match("", "学习", rom).Matched)
	assert.False(t, m.Match("abc", "", rom).Matched)
	assert.False(t, m.Match("天地", "学习", rom).Matched)
}

func TestSegmentToken(t *testing.T) {
	segments := segmentToken([]rune("w学xi7"))
	require.Len(t, segments, 4)
	assert.Equal(t, segLatin, segments[0].kind)
	assert.Equal(t, []rune("w"), segments[0].runes)
	assert.Equal(t, segNative, segments[1].kind)
	assert.Equal(t, []rune("学"), segments[1].runes)
	assert.Equal(t, segLatin, segments[2].kind)
	assert.Equal(t, []rune("xi"), segments[2].runes)
	assert.Equal(t, segOther, segments[3].kind)
}

func TestPhoneticMixedContinuous(t *testing.T) {
	m, tr := newPhoneticMatcher()
	rom := tr.Transliterate("我学习")

	// "w" resolves to 我, 学 literally, "xi" to 习; everything contiguous.
	result := m.Match("w学xi", "我学习", rom)
	require.True(t, result.Matched)
	assert.Equal(t, types.KindMixed, result.Kind)
	want := 70 + 4.0/3.0*20 + 10.0
	assert.InDelta(t, want, result.Score, 1e-9)
	assert.Equal(t,
		[]types.Range{{Start: 0, End: 1}, {Start: 1, End: 2}, {Start: 2, End: 3}},
		result.Ranges)
}

func TestPhoneticMixedOtherRunesIgnored(t *testing.T) {
	m, tr := newPhoneticMatcher()
	rom := tr.Transliterate("我学习")

	// The digit resolves to nothing and breaks nothing, but it still counts
	// toward coverage, so the score exceeds the digit-free token's.
	result := m.Match("w学7xi", "我学习", rom)
	require.True(t, result.Matched)
	assert.Equal(t, types.KindMixed, result.Kind)
	want := 70 + 5.0/3.0*20 + 10.0
	assert.InDelta(t, want, result.Score, 1e-9)
	assert.Equal(t,
		[]types.Range{{Start: 0, End: 1}, {Start: 1, End: 2}, {Start: 2, End: 3}},
		result.Ranges)
}

func TestPhoneticMixedWithSkip(t *testing.T) {
	m, tr := newPhoneticMatcher()
	rom := tr.Transliterate("我爱学习")

	// 我 then 习 skips 爱 and 学, breaking native-run continuity.
	result := m.Match("我习", "我爱学习", rom)
	require.True(t, result.Matched)
	// A purely Han token goes through native-skip, not segment matching.
	assert.Equal(t, types.KindNativeSkip, result.Kind)

	result = m.Match("我x习", "我爱学习", rom)
	require.True(t, result.Matched)
	assert.Contains(t,
		[]types.MatchKind{types.KindMixed, types.KindMixedSkip},
		result.Kind)
}

func TestPhoneticMixedUnresolvableFails(t *testing.T) {
	m, tr := newPhoneticMatcher()
	rom := tr.Transliterate("我学习")

	assert.False(t, m.Match("w天", "我学习", rom).Matched)
}
