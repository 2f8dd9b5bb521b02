// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package citation recognizes the [Source: <filename>] tokens that tie a
// claim to a corpus document, and the bracketed spans that are not such
// tokens.
package citation

import (
	"path/filepath"
	"regexp"
	"strings"
)

// citationPattern matches one well-formed citation token.
var citationPattern = regexp.MustCompile(`\[Source:\s*([^\[\]]*?)\s*\]`)

// nullValues are citation values that name no document.
var nullValues = map[string]bool{
	"n/a":  true,
	"na":   true,
	"none": true,
}

// Citation is one citation token found in text.
type Citation struct {
	// Raw is the token as written, brackets included.
	Raw string

	// Value is the text after "Source:", trimmed.
	Value string
}

// Format renders the citation token for a filename.
func Format(filename string) string {
	return "[Source: " + filename + "]"
}

// IsValid reports whether span is exactly one citation token with a
// non-empty value.
func IsValid(span string) bool {
	m := citationPattern.FindStringSubmatchIndex(span)
	if m == nil || m[0] != 0 || m[1] != len(span) {
		return false
	}
	return strings.TrimSpace(span[m[2]:m[3]]) != ""
}

// Find returns every citation token in text, in order of appearance.
func Find(text string) []Citation {
	var out []Citation
	for _, m := range citationPattern.FindAllStringSubmatch(text, -1) {
		if strings.TrimSpace(m[1]) == "" {
			continue
		}
		out = append(out, Citation{Raw: m[0], Value: strings.TrimSpace(m[1])})
	}
	return out
}

// Has reports whether text carries at least one citation token.
func Has(text string) bool {
	return len(Find(text)) > 0
}

// Sources returns the unique filenames cited in text in order of first
// appearance. A token may name several files separated by ";" or ",".
func Sources(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range Find(text) {
		for _, name := range splitValue(c.Value) {
			key := strings.ToLower(name)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, name)
		}
	}
	return out
}

// Cites reports whether text cites filename. Matching ignores case and any
// directory prefix.
func Cites(text, filename string) bool {
	want := strings.ToLower(filepath.Base(filename))
	for _, name := range Sources(text) {
		if strings.ToLower(filepath.Base(name)) == want {
			return true
		}
	}
	return false
}

// NullValues returns the citation tokens whose value names no document,
// such as [Source: N/A].
func NullValues(text string) []string {
	var out []string
	for _, c := range Find(text) {
		if IsNullValue(c.Value) {
			out = append(out, c.Raw)
		}
	}
	return out
}

// IsNullValue reports whether a citation value is a stand-in for "no source".
func IsNullValue(value string) bool {
	return nullValues[strings.ToLower(strings.TrimSpace(value))]
}

// Placeholders returns every outermost bracketed span in text that is not
// a valid citation token, in order of appearance. A span that wraps a
// citation in other text, such as "[see [Source: a.md]]", is reported
// whole.
func Placeholders(text string) []string {
	var out []string
	for _, sp := range outerSpans(text) {
		if span := text[sp[0]:sp[1]]; !IsValid(span) {
			out = append(out, span)
		}
	}
	return out
}

// StripPlaceholders deletes every outermost bracketed span that is not a
// valid citation token. Citations nested inside a deleted span are kept in
// its place. Deletion repeats until stable.
func StripPlaceholders(text string) string {
	for {
		next := stripOnce(text)
		if next == text {
			return next
		}
		text = next
	}
}

func stripOnce(text string) string {
	var b strings.Builder
	last := 0
	for _, sp := range outerSpans(text) {
		span := text[sp[0]:sp[1]]
		b.WriteString(text[last:sp[0]])
		if IsValid(span) {
			b.WriteString(span)
		} else {
			var kept []string
			for _, c := range Find(span) {
				kept = append(kept, c.Raw)
			}
			b.WriteString(strings.Join(kept, " "))
		}
		last = sp[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

// outerSpans returns the [start, end) offsets of the outermost balanced
// bracket spans in text. An unmatched "[" is treated as plain text and
// scanning resumes after it; an unmatched "]" is ignored.
func outerSpans(text string) [][2]int {
	var out [][2]int
	from := 0
	for from < len(text) {
		var open []int
		for i := from; i < len(text); i++ {
			switch text[i] {
			case '[':
				open = append(open, i)
			case ']':
				if len(open) == 0 {
					continue
				}
				start := open[len(open)-1]
				open = open[:len(open)-1]
				if len(open) == 0 {
					out = append(out, [2]int{start, i + 1})
				}
			}
		}
		if len(open) == 0 {
			break
		}
		from = open[0] + 1
	}
	return out
}

func splitValue(value string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(value, func(r rune) bool { return r == ';' || r == ',' }) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
