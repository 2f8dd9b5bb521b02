// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns retrieved excerpts into atomic research notes. The
// model is asked for one verbatim fact per note with a filename citation,
// or an explicit not-found marker; the response is parsed line by line and
// every cited source is resolved against what was actually retrieved.
package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/groundwork/internal/citation"
	"github.com/pdiddy/groundwork/internal/llm"
	"github.com/pdiddy/groundwork/internal/retrieve"
	"github.com/pdiddy/groundwork/pkg/types"
)

// Extract asks gen for research notes over the scoped context at
// temperature 0, parses them, and resolves their sources.
func Extract(ctx context.Context, gen llm.Generator, plan types.Plan, scoped retrieve.Scoped, logger *zap.Logger) ([]types.Fact, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	prompt, err := renderPrompt(planText(plan), scoped.Context())
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	text, err := gen.Generate(ctx, llm.Request{System: systemPrompt, User: prompt})
	if err != nil {
		return nil, fmt.Errorf("generating notes: %w", err)
	}

	return Resolve(ParseNotes(text), scoped.Sources(), logger), nil
}

// planText renders the plan for the prompt, preferring the generated text.
func planText(p types.Plan) string {
	if strings.TrimSpace(p.Raw) != "" {
		return p.Raw
	}
	var b strings.Builder
	if p.Goal != "" {
		fmt.Fprintf(&b, "GOAL: %s\n", p.Goal)
	}
	for i, s := range p.Steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	return b.String()
}

const (
	fieldFinding   = "FINDING:"
	fieldSource    = "SOURCE:"
	fieldRelevance = "RELEVANCE:"
)

// sourceSeparators split a source descriptor into filename and snippet.
var sourceSeparators = []string{" — ", " – ", " - "}

type note struct {
	finding, source, relevance string
}

// ParseNotes reads FINDING/SOURCE/RELEVANCE records from generated text.
// A FINDING line closes the open note and starts the next; SOURCE and
// RELEVANCE fill the open note; the last note is closed at the end. Lines
// outside any note are ignored. Output order follows the text.
func ParseNotes(text string) []types.Fact {
	var (
		out     []types.Fact
		current *note
	)
	flush := func() {
		if current == nil {
			return
		}
		if f, ok := current.fact(); ok {
			out = append(out, f)
		}
		current = nil
	}

	for _, raw := range strings.Split(text, "\n") {
		field, rest, ok := splitField(strings.TrimSpace(raw))
		if !ok {
			continue
		}
		switch field {
		case fieldFinding:
			flush()
			current = &note{finding: rest}
		case fieldSource:
			if current != nil {
				current.source = rest
			}
		case fieldRelevance:
			if current != nil {
				current.relevance = rest
			}
		}
	}
	flush()
	return out
}

// fact normalizes a parsed note. Findings that mention the not-found
// marker become exactly the marker, with the item text kept as relevance
// when none was given.
func (n note) fact() (types.Fact, bool) {
	content := strings.TrimSpace(n.finding)
	if content == "" {
		return types.Fact{}, false
	}

	f := types.Fact{Content: content, Relevance: strings.TrimSpace(n.relevance)}
	upper := strings.ToUpper(content)
	if i := strings.Index(upper, types.NotFoundMarker); i >= 0 {
		var item string
		if len(upper) == len(content) {
			item = strings.Trim(content[:i]+content[i+len(types.NotFoundMarker):], " :-—")
		}
		f.Content = types.NotFoundMarker
		if f.Relevance == "" {
			f.Relevance = item
		}
	}
	f.Source, f.Snippet = splitSource(n.source)
	return f, true
}

// splitSource separates `file.md — "snippet"` into its parts. It also
// accepts a citation token in place of the bare filename.
func splitSource(s string) (string, string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}

	name, snippet := s, ""
	for _, sep := range sourceSeparators {
		if i := strings.Index(s, sep); i >= 0 {
			name, snippet = s[:i], s[i+len(sep):]
			break
		}
	}

	if c := citation.Find(name); len(c) > 0 {
		name = c[0].Value
	}
	name = strings.Trim(strings.TrimSpace(name), "`'\"*")
	snippet = strings.Trim(strings.TrimSpace(snippet), "\"“”")
	return name, snippet
}

// splitField recognizes a record field, tolerating list markers, markdown
// emphasis and case differences.
func splitField(line string) (string, string, bool) {
	norm := strings.TrimLeft(line, "-*# ")
	upper := strings.ToUpper(norm)
	for _, f := range []string{fieldFinding, fieldSource, fieldRelevance} {
		if strings.HasPrefix(upper, f) {
			return f, strings.Trim(norm[len(f):], "* "), true
		}
	}
	return "", "", false
}

// Resolve matches each note's source against the retrieved filenames,
// ignoring case and directories. A source naming several files resolves
// to the first retrieved one. Unresolvable sources are cleared and logged.
func Resolve(notes []types.Fact, retrieved []string, logger *zap.Logger) []types.Fact {
	if logger == nil {
		logger = zap.NewNop()
	}

	known := make(map[string]string, len(retrieved))
	for _, name := range retrieved {
		known[strings.ToLower(filepath.Base(name))] = filepath.Base(name)
	}

	out := make([]types.Fact, len(notes))
	for i, n := range notes {
		out[i] = n
		if n.Source == "" {
			continue
		}
		out[i].Source = ""
		for _, part := range strings.FieldsFunc(n.Source, func(r rune) bool { return r == ';' || r == ',' }) {
			if canon, ok := known[strings.ToLower(filepath.Base(strings.TrimSpace(part)))]; ok {
				out[i].Source = canon
				break
			}
		}
		if out[i].Source == "" {
			logger.Warn("note cites a document that was not retrieved",
				zap.String("source", n.Source), zap.String("content", truncateForLog(n.Content)))
		}
	}
	return out
}

func truncateForLog(s string) string {
	return retrieve.Truncate(s, 80)
}
