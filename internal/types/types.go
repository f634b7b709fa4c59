package types

// Shared data model for the bookmark search engine. Entries are produced once
// per corpus snapshot and never mutated afterwards; per-query annotations live
// on RankedEntry copies.

// Range is a half-open [Start, End) span of rune offsets into a source string.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of runes covered by the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Romanization is the phonetic rendering of a text: the full syllable string
// and the initials-only string, both lowercase and tone-free.
type Romanization struct {
	Full     string `json:"full"`
	Initials string `json:"initials"`
}

// Empty reports whether no romanization data is present.
func (r Romanization) Empty() bool {
	return r.Full == "" && r.Initials == ""
}

// Entry is one node of the flattened bookmark tree.
type Entry struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Target      string `json:"target,omitempty"`
	IsContainer bool   `json:"is_container"`
	Depth       int    `json:"depth"`
	ParentID    string `json:"parent_id,omitempty"`
	Domain      string `json:"domain,omitempty"`

	// Path holds the ancestor labels from depth 1 down to and including the
	// entry's own label. Invariant: len(Path) == Depth.
	Path []string `json:"path"`

	// Precomputed at ingestion so matching never re-romanizes per query.
	Romanization     Romanization   `json:"-"`
	PathRomanization []Romanization `json:"-"`
}

// ParentPath returns the ancestor labels excluding the entry's own label.
func (e *Entry) ParentPath() []string {
	if len(e.Path) == 0 {
		return nil
	}
	return e.Path[:len(e.Path)-1]
}

// MatchKind identifies the strategy that produced a match.
type MatchKind int

const (
	KindNone MatchKind = iota
	KindExact
	KindPrefix
	KindSubstring
	KindNonContiguous
	KindFullPhonetic
	KindInitials
	KindSequence
	KindNativeSkip
	KindMixed
	KindMixedSkip
)

var kindNames = map[MatchKind]string{
	KindNone:          "none",
	KindExact:         "exact",
	KindPrefix:        "prefix",
	KindSubstring:     "substring",
	KindNonContiguous: "non-contiguous",
	KindFullPhonetic:  "full-phonetic",
	KindInitials:      "initials",
	KindSequence:      "sequence",
	KindNativeSkip:    "native-skip",
	KindMixed:         "mixed",
	KindMixedSkip:     "mixed-skip",
}

func (k MatchKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// MatchedField says which entry field a match was computed against.
type MatchedField int

const (
	FieldLabel MatchedField = iota
	FieldTarget
)

// MatchResult is the outcome of scoring one text field against one query
// token. Ranges are relative to the source string the match ran against;
// callers remap them when composing larger strings.
type MatchResult struct {
	Matched bool
	Score   float64
	Kind    MatchKind
	Field   MatchedField
	Ranges  []Range
}

// NoMatch is the zero result shared by all failed strategies. Matching is
// total: failure is a value, never an error.
func NoMatch() MatchResult {
	return MatchResult{Kind: KindNone}
}

// SearchMode is the query dispatch mode chosen by the engine.
type SearchMode string

const (
	ModeDefault SearchMode = "default"
	ModePath    SearchMode = "path"
	ModeFuzzy   SearchMode = "fuzzy"
)

// RankedEntry is an Entry annotated with per-query match metadata.
type RankedEntry struct {
	Entry

	Score float64 `json:"score"`

	// LabelRanges and TargetRanges highlight the matched field; at most one
	// of the two is populated. PathRanges are offsets into the parent-path
	// string (path segments joined by a single separator, excluding the
	// entry's own label).
	LabelRanges  []Range `json:"label_ranges,omitempty"`
	TargetRanges []Range `json:"target_ranges,omitempty"`
	PathRanges   []Range `json:"path_ranges,omitempty"`

	Query string     `json:"query"`
	Mode  SearchMode `json:"mode"`
}
