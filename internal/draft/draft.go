// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package draft writes the deliverable from research notes and applies a
// deterministic clean-up pass to whatever the model returns: stray
// bracketed placeholders are removed and, when nothing was found, any
// sources section is dropped.
package draft

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/groundwork/internal/citation"
	"github.com/pdiddy/groundwork/internal/llm"
	"github.com/pdiddy/groundwork/pkg/types"
)

// Deliverable is the kind of document requested.
type Deliverable string

const (
	Email      Deliverable = "EMAIL"
	Summary    Deliverable = "SUMMARY"
	ActionList Deliverable = "ACTION LIST"
	Comparison Deliverable = "COMPARISON"
	Document   Deliverable = "DOCUMENT"
)

// deliverableKeywords is checked in order; the first match wins.
var deliverableKeywords = []struct {
	kind  Deliverable
	words []string
}{
	{Email, []string{"email", "e-mail"}},
	{ActionList, []string{"action list", "action item", "to-do", "todo", "checklist", "task list"}},
	{Comparison, []string{"comparison", "compare", "versus", " vs "}},
	{Document, []string{"confluence", "wiki", "page", "document", "memo", "report"}},
	{Summary, []string{"summary", "summarize", "summarise", "overview", "brief"}},
}

// DetectDeliverable picks the deliverable from the plan's output format,
// then from the request, defaulting to Summary.
func DetectDeliverable(outputFormat, request string) Deliverable {
	for _, text := range []string{outputFormat, request} {
		lower := strings.ToLower(text)
		for _, d := range deliverableKeywords {
			for _, w := range d.words {
				if strings.Contains(lower, w) {
					return d.kind
				}
			}
		}
	}
	return Summary
}

// Input is what the drafter reads from the run.
type Input struct {
	Request string
	Plan    types.Plan
	Notes   []types.Fact
}

// Draft generates the deliverable and returns it sanitized.
func Draft(ctx context.Context, gen llm.Generator, in Input, temperature float32) (string, error) {
	allNotFound := types.AllNotFound(in.Notes)
	prompt, err := renderPrompt(promptData{
		Request:     in.Request,
		Deliverable: DetectDeliverable(in.Plan.OutputFormat, in.Request),
		Plan:        in.Plan.Raw,
		Notes:       FormatNotes(in.Notes),
		AllNotFound: allNotFound,
	})
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}

	text, err := gen.Generate(ctx, llm.Request{System: systemPrompt, User: prompt, Temperature: temperature})
	if err != nil {
		return "", fmt.Errorf("generating draft: %w", err)
	}

	out := Sanitize(text)
	if allNotFound {
		out = StripSources(out)
	}
	return out, nil
}

var (
	spaceRun       = regexp.MustCompile(`(\S)[ \t]{2,}`)
	spaceBeforeEnd = regexp.MustCompile(`[ \t]+([.,;:!?)])`)
	emptyBullet    = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s*$`)
	blankRun       = regexp.MustCompile(`\n{3,}`)
)

// Sanitize deletes every bracketed span that is not a citation token and
// repairs the whitespace the deletion leaves behind: interior space runs,
// spaces before punctuation, trailing spaces, bullets left empty and runs
// of blank lines. Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(text string) string {
	text = citation.StripPlaceholders(strings.ReplaceAll(text, "\r\n", "\n"))

	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = spaceRun.ReplaceAllString(line, "$1 ")
		line = spaceBeforeEnd.ReplaceAllString(line, "$1")
		line = strings.TrimRight(line, " \t")
		if emptyBullet.MatchString(line) {
			continue
		}
		out = append(out, line)
	}

	text = blankRun.ReplaceAllString(strings.Join(out, "\n"), "\n\n")
	return strings.TrimSpace(text)
}

// sourcesHeader matches a "SOURCES" or "References" heading line, with or
// without markdown decoration. A colon may be followed by an inline list.
var sourcesHeader = regexp.MustCompile(`(?i)^\s*(?:#{1,6}\s*)?\**(?:sources?|references)\**(?:\s*:.*|\s*)$`)

// sourceListLine matches lines that belong to a sources list.
var sourceListLine = regexp.MustCompile(`(?i)^\s*(?:[-*•]|\d+[.)])|\.(?:md|txt|pdf)\b|\[Source:`)

// StripSources removes the last sources section: its heading and the list
// lines that follow it, plus a horizontal rule directly above it.
func StripSources(text string) string {
	lines := strings.Split(text, "\n")

	h := -1
	for i := len(lines) - 1; i >= 0; i-- {
		if sourcesHeader.MatchString(lines[i]) {
			h = i
			break
		}
	}
	if h < 0 {
		return text
	}

	end := h + 1
	for end < len(lines) {
		l := strings.TrimSpace(lines[end])
		if l != "" && !sourceListLine.MatchString(l) {
			break
		}
		end++
	}

	start := h
	for start > 0 && strings.TrimSpace(lines[start-1]) == "" {
		start--
	}
	if start > 0 && strings.TrimSpace(lines[start-1]) == "---" {
		start--
	}

	kept := append(append(append([]string{}, lines[:start]...), ""), lines[end:]...)
	return strings.TrimSpace(blankRun.ReplaceAllString(strings.Join(kept, "\n"), "\n\n"))
}
