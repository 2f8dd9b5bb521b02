// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"strings"

	"github.com/pdiddy/groundwork/pkg/types"
)

// FormatTraceTable renders the trace as a markdown table.
func FormatTraceTable(trace []types.TraceRecord) string {
	if len(trace) == 0 {
		return "No trace entries."
	}
	var b strings.Builder
	b.WriteString("| Step | Agent | Action | Outcome |\n")
	b.WriteString("|------|-------|--------|---------|\n")
	for _, r := range trace {
		fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", r.Step, r.Agent, cell(r.Action), cell(r.Outcome))
	}
	return b.String()
}

func cell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}
