package display

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Helchan/Marsunso/internal/engine"
	"github.com/Helchan/Marsunso/internal/types"
)

// ResultFormatter renders search results for the terminal.
type ResultFormatter struct {
	options FormatterOptions
}

// FormatterOptions controls result formatting.
type FormatterOptions struct {
	Format    string // "text", "json", "compact"
	Color     bool   // Highlight matched ranges with ANSI codes
	Separator string // Path separator for joined paths
	ShowScore bool   // Append scores in text mode
}

// NewResultFormatter creates a formatter.
func NewResultFormatter(options FormatterOptions) *ResultFormatter {
	if options.Separator == "" {
		options.Separator = "/"
	}
	return &ResultFormatter{options: options}
}

// Format renders a search result in the configured format.
func (f *ResultFormatter) Format(result *engine.Result) string {
	if result == nil {
		return "No results"
	}
	switch f.options.Format {
	case "json":
		return f.formatJSON(result)
	case "compact":
		return f.formatCompact(result)
	default:
		return f.formatText(result)
	}
}

func (f *ResultFormatter) formatJSON(result *engine.Result) string {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(data)
}

// formatCompact emits one line per entry: score, label, target.
func (f *ResultFormatter) formatCompact(result *engine.Result) string {
	var sb strings.Builder
	for _, re := range result.Entries {
		if re.Target != "" {
			fmt.Fprintf(&sb, "%.1f\t%s\t%s\n", re.Score, re.Label, re.Target)
		} else {
			fmt.Fprintf(&sb, "%.1f\t%s%s\n", re.Score, re.Label, f.options.Separator)
		}
	}
	return sb.String()
}

func (f *ResultFormatter) formatText(result *engine.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d result(s) [%s mode]\n", len(result.Entries), result.Mode)

	for i, re := range result.Entries {
		fmt.Fprintf(&sb, "%2d. %s", i+1, f.highlight(re.Label, re.LabelRanges))

		if re.IsContainer {
			sb.WriteString(f.options.Separator)
		}
		if f.options.ShowScore && re.Score > 0 {
			fmt.Fprintf(&sb, "  (%.1f)", re.Score)
		}
		sb.WriteString("\n")

		if parent := re.ParentPath(); len(parent) > 0 {
			joined := strings.Join(parent, f.options.Separator)
			fmt.Fprintf(&sb, "    %s\n", f.highlight(joined, re.PathRanges))
		}
		if re.Target != "" {
			fmt.Fprintf(&sb, "    %s\n", f.highlight(re.Target, re.TargetRanges))
		}
	}
	return sb.String()
}

const (
	ansiHighlight = "\x1b[1;33m"
	ansiReset     = "\x1b[0m"
)

// highlight wraps the matched rune ranges in ANSI codes. Ranges are assumed
// merged and ordered; out-of-bounds ranges are clamped.
func (f *ResultFormatter) highlight(s string, ranges []types.Range) string {
	if !f.options.Color || len(ranges) == 0 {
		return s
	}

	runes := []rune(s)
	var sb strings.Builder
	cursor := 0
	for _, r := range ranges {
		start, end := r.Start, r.End
		if start < cursor {
			start = cursor
		}
		if end > len(runes) {
			end = len(runes)
		}
		if start >= end {
			continue
		}
		sb.WriteString(string(runes[cursor:start]))
		sb.WriteString(ansiHighlight)
		sb.WriteString(string(runes[start:end]))
		sb.WriteString(ansiReset)
		cursor = end
	}
	sb.WriteString(string(runes[cursor:]))
	return sb.String()
}
