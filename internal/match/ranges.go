package match

import (
	"sort"

	"github.com/Helchan/Marsunso/internal/types"
)

// MergeRanges sorts ranges by start and coalesces overlapping or adjacent
// spans. The output covers exactly the same rune indices as the input and
// merging an already-merged list returns an equal list.
func MergeRanges(ranges []types.Range) []types.Range {
	if len(ranges) == 0 {
		return nil
	}

	sorted := make([]types.Range, 0, len(ranges))
	for _, r := range ranges {
		if r.End > r.Start {
			sorted = append(sorted, r)
		}
	}
	if len(sorted) == 0 {
		return nil
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	merged := sorted[:1]
	for _, r := range sorted[1:] {
		last := &merged[len(merged)-1]
		if r.Start <= last.End {
			if r.End > last.End {
				last.End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// ShiftRanges returns a copy of ranges with every offset moved by delta.
func ShiftRanges(ranges []types.Range, delta int) []types.Range {
	if len(ranges) == 0 {
		return nil
	}
	out := make([]types.Range, len(ranges))
	for i, r := range ranges {
		out[i] = types.Range{Start: r.Start + delta, End: r.End + delta}
	}
	return out
}
