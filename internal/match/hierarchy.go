package match

import (
	"strings"

	"github.com/Helchan/Marsunso/internal/types"
)

// Layer scoring weights for hierarchical queries. Tokens further from the
// leaf contribute less, and every matched layer earns a flat bonus so deep
// context still counts.
const (
	lastTokenWeight  = 0.5
	layerDecay       = 0.3
	layerBonus       = 20.0
	maxDepthBonus    = 10.0
	pathSeparatorLen = 1
)

// HierarchyMatcher ranks entries against a multi-token query: the final
// token is matched against the entry itself and every earlier token against
// its ancestor chain, left to right.
type HierarchyMatcher struct {
	text *TextMatcher
}

func NewHierarchyMatcher(text *TextMatcher) *HierarchyMatcher {
	return &HierarchyMatcher{text: text}
}

// Text exposes the underlying text matcher.
func (h *HierarchyMatcher) Text() *TextMatcher {
	return h.text
}

// Match ranks entries against lowercased query tokens. With a single token
// each entry is scored directly; with several, earlier tokens must match the
// entry's ancestors in order. The returned slice is unsorted.
func (h *HierarchyMatcher) Match(entries []types.Entry, tokens []string) []types.RankedEntry {
	if len(tokens) == 0 {
		return nil
	}

	var ranked []types.RankedEntry
	for _, entry := range entries {
		var (
			re types.RankedEntry
			ok bool
		)
		if len(tokens) == 1 {
			re, ok = h.matchSimple(entry, tokens[0])
		} else {
			re, ok = h.matchHierarchy(entry, tokens)
		}
		if ok {
			ranked = append(ranked, re)
		}
	}
	return ranked
}

// matchSimple scores a single-token query against one entry.
func (h *HierarchyMatcher) matchSimple(entry types.Entry, token string) (types.RankedEntry, bool) {
	result := h.matchEntryToken(entry, token)
	if !result.Matched {
		return types.RankedEntry{}, false
	}

	re := types.RankedEntry{
		Entry: entry,
		Score: lastTokenWeight*result.Score + depthBonus(entry.Depth),
	}
	assignFieldRanges(&re, result)
	return re, true
}

// matchHierarchy scores a multi-token query: the last token against the
// entry, every prior token against the ancestor chain with an advancing
// cursor. Any token left without a layer fails the entry.
func (h *HierarchyMatcher) matchHierarchy(entry types.Entry, tokens []string) (types.RankedEntry, bool) {
	last := tokens[len(tokens)-1]
	prior := tokens[:len(tokens)-1]

	lastResult := h.matchEntryToken(entry, last)
	if !lastResult.Matched {
		return types.RankedEntry{}, false
	}

	parentPath := entry.ParentPath()
	if len(prior) > len(parentPath) {
		return types.RankedEntry{}, false
	}

	layerScore, pathRanges, ok := h.matchAncestors(prior, parentPath, entry.PathRomanization)
	if !ok {
		return types.RankedEntry{}, false
	}

	re := types.RankedEntry{
		Entry:      entry,
		Score:      lastTokenWeight*lastResult.Score + layerScore + depthBonus(entry.Depth),
		PathRanges: pathRanges,
	}
	assignFieldRanges(&re, lastResult)
	return re, true
}

// matchEntryToken matches one token against an entry's label and target,
// keeping the better result and preferring the label on ties.
func (h *HierarchyMatcher) matchEntryToken(entry types.Entry, token string) types.MatchResult {
	labelResult := h.text.MatchText(strings.ToLower(entry.Label), token, entry.Romanization)
	targetResult := h.text.MatchTarget(entry.Target, entry.Domain, token)

	if labelResult.Matched && (!targetResult.Matched || labelResult.Score >= targetResult.Score) {
		return labelResult
	}
	return targetResult
}

// matchAncestors walks prior tokens against the ancestor labels in order.
// Each token claims the first layer at or past the cursor that matches it;
// matched-layer ranges are translated into joined-path rune offsets.
func (h *HierarchyMatcher) matchAncestors(tokens, parentPath []string, roms []types.Romanization) (float64, []types.Range, bool) {
	total := float64(len(parentPath))
	cursor := 0
	score := 0.0
	var pathRanges []types.Range

	for _, token := range tokens {
		matched := false
		for layer := cursor; layer < len(parentPath); layer++ {
			var rom types.Romanization
			if layer < len(roms) {
				rom = roms[layer]
			}
			result := h.text.MatchText(strings.ToLower(parentPath[layer]), token, rom)
			if !result.Matched {
				continue
			}

			distFromEnd := float64(len(parentPath) - 1 - layer)
			score += result.Score*(1-layerDecay*distFromEnd/total) + layerBonus
			pathRanges = append(pathRanges, ShiftRanges(result.Ranges, pathLayerOffset(parentPath, layer))...)
			cursor = layer + 1
			matched = true
			break
		}
		if !matched {
			return 0, nil, false
		}
	}

	return score, MergeRanges(pathRanges), true
}

// MatchParentRanges recomputes joined-path highlight ranges for an arbitrary
// ancestor chain, used when results are expanded to the children of a
// matched node. All tokens must be lowercased.
func (h *HierarchyMatcher) MatchParentRanges(tokens, path []string, roms []types.Romanization) ([]types.Range, bool) {
	if len(tokens) == 0 {
		return nil, true
	}
	_, ranges, ok := h.matchAncestors(tokens, path, roms)
	return ranges, ok
}

// pathLayerOffset is the rune offset of layer i in the separator-joined path.
func pathLayerOffset(path []string, layer int) int {
	offset := 0
	for i := 0; i < layer; i++ {
		offset += runeLen(path[i]) + pathSeparatorLen
	}
	return offset
}

func depthBonus(depth int) float64 {
	bonus := maxDepthBonus - float64(depth)
	if bonus < 0 {
		return 0
	}
	return bonus
}

func assignFieldRanges(re *types.RankedEntry, result types.MatchResult) {
	if result.Field == types.FieldTarget {
		re.TargetRanges = result.Ranges
		return
	}
	re.LabelRanges = result.Ranges
}
