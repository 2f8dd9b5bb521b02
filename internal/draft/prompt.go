// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package draft

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/groundwork/pkg/types"
)

const systemPrompt = `You are a Writer Agent in a multi-agent research system.

Your job is to create polished, professional deliverables based on research notes.

CRITICAL RULES:
(a) Use ONLY information from the provided research notes.
(b) Every factual sentence, bullet or list item MUST carry a citation in exactly this format: [Source: filename.md]
(c) Do NOT write any other bracketed text: no [Name], [Date], [Insert ...], [TBD] or similar placeholders.
(d) When a note is NOT FOUND IN SOURCES, write the literal phrase NOT FOUND IN SOURCES, cite the document that was checked, and add exactly one short suggestion sentence (for example, who to ask). Do not elaborate further.
(e) Follow the conventions of the requested deliverable type:
    - EMAIL: greeting, body, closing
    - SUMMARY: executive summary with bullet points and sections
    - ACTION LIST: one task per line with owner and deadline when the notes give them
    - COMPARISON: structured comparison with pros and cons and a recommendation
    - DOCUMENT: headed sections suitable for a wiki page
(f) End with a SOURCES section listing each cited filename once, ONLY when at least one note is a real finding. If every note is NOT FOUND IN SOURCES, omit the SOURCES section.

Write in a clear, professional tone.`

var userPromptTmpl = template.Must(template.New("draft").Parse(`Original Request: {{.Request}}

Deliverable Type: {{.Deliverable}}

Plan:
{{.Plan}}

Research Notes:
{{.Notes}}
{{if .AllNotFound}}
Every research note is NOT FOUND IN SOURCES. Acknowledge the gap and do not include a SOURCES section.
{{end}}
Create the final deliverable based on the plan and research. Include citations.`))

type promptData struct {
	Request     string
	Deliverable Deliverable
	Plan        string
	Notes       string
	AllNotFound bool
}

func renderPrompt(d promptData) (string, error) {
	var buf bytes.Buffer
	if err := userPromptTmpl.Execute(&buf, d); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// FormatNotes renders research notes for the drafting prompt.
func FormatNotes(notes []types.Fact) string {
	if len(notes) == 0 {
		return "No research notes available."
	}
	parts := make([]string, 0, len(notes))
	for i, n := range notes {
		source := n.Source
		if source == "" {
			source = "(not cited)"
		}
		parts = append(parts, fmt.Sprintf("Note %d:\n- Finding: %s\n- Source: %s\n- Relevance: %s",
			i+1, n.Content, source, n.Relevance))
	}
	return strings.Join(parts, "\n\n")
}
