package pinyin

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
	gopinyin "github.com/mozillazg/go-pinyin"

	"github.com/Helchan/Marsunso/internal/types"
)

// Transliterator converts text into its pinyin romanization and maps offsets
// between romanized space and rune space. It is safe for concurrent use: the
// memo maps are append-only and recomputing an entry yields the same value,
// so first-write races are harmless.
type Transliterator struct {
	enabled bool
	args    gopinyin.Args

	runeMemo sync.Map // rune -> string (romanized syllable)
	textMemo sync.Map // uint64 (xxhash of text) -> types.Romanization
}

// New creates a transliterator. With enabled=false every rune is treated as
// already-Latin and lowercased, which is also the degraded behavior when the
// pinyin dictionary has no entry for a rune.
func New(enabled bool) *Transliterator {
	return &Transliterator{
		enabled: enabled,
		args:    gopinyin.NewArgs(), // tone-free lowercase syllables
	}
}

// Enabled reports whether phonetic conversion is active.
func (t *Transliterator) Enabled() bool {
	return t.enabled
}

// IsHan reports whether r belongs to the Han script.
func IsHan(r rune) bool {
	return unicode.Is(unicode.Han, r)
}

// RuneRomanization returns the romanized syllable for a single rune and
// whether it came from the pinyin dictionary. Non-Han runes, and Han runes
// the dictionary does not know, pass through lowercased.
func (t *Transliterator) RuneRomanization(r rune) (string, bool) {
	if !t.enabled || !IsHan(r) {
		return strings.ToLower(string(r)), false
	}
	if v, ok := t.runeMemo.Load(r); ok {
		s := v.(string)
		return s, s != strings.ToLower(string(r))
	}
	syllable := strings.ToLower(string(r))
	native := false
	if res := gopinyin.Pinyin(string(r), t.args); len(res) > 0 && len(res[0]) > 0 && res[0][0] != "" {
		syllable = strings.ToLower(res[0][0])
		native = true
	}
	t.runeMemo.LoadOrStore(r, syllable)
	return syllable, native
}

// Transliterate converts text into its full and initials-only romanization.
// Deterministic and pure apart from memoization; never fails.
func (t *Transliterator) Transliterate(text string) types.Romanization {
	if text == "" {
		return types.Romanization{}
	}
	key := xxhash.Sum64String(text)
	if v, ok := t.textMemo.Load(key); ok {
		return v.(types.Romanization)
	}

	var full, initials strings.Builder
	for _, r := range text {
		syllable, native := t.RuneRomanization(r)
		full.WriteString(syllable)
		if native {
			_, size := utf8.DecodeRuneInString(syllable)
			initials.WriteString(syllable[:size])
		} else {
			initials.WriteString(syllable)
		}
	}

	rom := types.Romanization{Full: full.String(), Initials: initials.String()}
	t.textMemo.LoadOrStore(key, rom)
	return rom
}

// CharOffset maps an offset into the romanized string back to a rune offset
// in text, for highlight boundaries. Offsets strictly inside a multi-letter
// syllable snap to the end boundary of the owning rune so a highlight always
// covers whole runes; offset 0 always maps to rune index 0.
func (t *Transliterator) CharOffset(romanizedOffset int, text string) int {
	if romanizedOffset == 0 {
		return 0
	}

	current := 0
	index := 0
	for _, r := range text {
		syllable, _ := t.RuneRomanization(r)
		next := current + utf8.RuneCountInString(syllable)

		if romanizedOffset >= current && romanizedOffset < next {
			if romanizedOffset == current {
				return index
			}
			// Partial syllable: highlight the whole rune.
			return index + 1
		}
		if romanizedOffset == next {
			return index + 1
		}

		current = next
		index++
	}
	return index
}

// OwningCharIndex maps a romanized offset to the rune index whose syllable
// contains it. Unlike CharOffset it never snaps to an end boundary; it is the
// mapping the skip-sequence matcher uses to group matched positions by rune.
func (t *Transliterator) OwningCharIndex(romanizedOffset int, text string) int {
	runeCount := utf8.RuneCountInString(text)
	if runeCount == 0 {
		return 0
	}

	current := 0
	index := 0
	for _, r := range text {
		syllable, _ := t.RuneRomanization(r)
		next := current + utf8.RuneCountInString(syllable)

		if romanizedOffset >= current && romanizedOffset < next {
			return index
		}
		if romanizedOffset == next {
			if index+1 < runeCount {
				return index + 1
			}
			return runeCount - 1
		}

		current = next
		index++
	}
	return runeCount - 1
}

// RomanizedPrefixLen returns the romanized length of the first charCount
// runes of text, i.e. the romanized offset where that rune starts.
func (t *Transliterator) RomanizedPrefixLen(text string, charCount int) int {
	length := 0
	i := 0
	for _, r := range text {
		if i >= charCount {
			break
		}
		syllable, _ := t.RuneRomanization(r)
		length += utf8.RuneCountInString(syllable)
		i++
	}
	return length
}
