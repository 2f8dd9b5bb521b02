// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/groundwork/internal/llm"
	"github.com/pdiddy/groundwork/pkg/types"
)

// scripted answers each stage by recognizing its system prompt.
type scripted struct {
	plan, notes, draft, audit string
	failOn                    string

	mu    sync.Mutex
	calls []string
}

func (s *scripted) Generate(_ context.Context, req llm.Request) (string, error) {
	var stage, out string
	switch {
	case strings.Contains(req.System, "Planning Agent"):
		stage, out = "plan", s.plan
	case strings.Contains(req.System, "Research Agent"):
		stage, out = "extract", s.notes
	case strings.Contains(req.System, "Writer Agent"):
		stage, out = "draft", s.draft
	case strings.Contains(req.System, "Verifier Agent"):
		stage, out = "verify", s.audit
	}
	s.mu.Lock()
	s.calls = append(s.calls, stage)
	s.mu.Unlock()
	if stage == s.failOn {
		return "", errors.New("boom")
	}
	return out, nil
}

type fakeRetriever struct {
	excerpts []types.Excerpt
	err      error
}

func (f fakeRetriever) Available(context.Context) bool { return len(f.excerpts) > 0 }

func (f fakeRetriever) Search(context.Context, string, int) ([]types.Excerpt, error) {
	return f.excerpts, f.err
}

const planText = `GOAL: Answer the request from the documents

STEPS:
1. Search the documents
2. Extract the facts

OUTPUT FORMAT: summary

RESEARCH QUESTIONS:
- What does the corpus say?`

func newRunner(gen llm.Generator, r fakeRetriever) *Runner {
	return New(gen, r, types.DefaultConfig(), nil)
}

func assertTrace(t *testing.T, trace []types.TraceRecord) {
	t.Helper()
	want := []types.Agent{types.AgentPlanner, types.AgentResearcher, types.AgentWriter, types.AgentVerifier}
	require.Len(t, trace, len(want))
	for i, rec := range trace {
		assert.Equal(t, i+1, rec.Step)
		assert.Equal(t, want[i], rec.Agent)
	}
}

func TestRun_EmptyCorpus(t *testing.T) {
	gen := &scripted{
		plan:  planText,
		draft: "The requested information is NOT FOUND IN SOURCES. Please add documents to the data folder.\n\nSOURCES:\n- none",
		audit: "VERIFICATION STATUS: PASS\nISSUES FOUND:\n- None",
	}

	res, err := newRunner(gen, fakeRetriever{}).Run(context.Background(), "Summarize the project risks")
	require.NoError(t, err)

	assert.Equal(t, []string{"plan", "draft", "verify"}, gen.calls, "extractor is not called")
	assert.Equal(t, []string{ErrNoDocuments}, res.Errors)
	assert.NotNil(t, res.ResearchNotes)
	assert.Empty(t, res.ResearchNotes)
	assert.NotEmpty(t, res.FinalOutput)
	assert.Contains(t, res.FinalOutput, types.NotFoundMarker)
	assert.NotContains(t, res.FinalOutput, "SOURCES:")
	assert.NotEmpty(t, res.RunID)

	assertTrace(t, res.Trace)
	assert.Equal(t, "ERROR: No documents loaded", res.Trace[1].Outcome)
	assert.Equal(t, "Generated 2 steps", res.Trace[0].Outcome)
}

func TestRun_CEOFavoriteColor(t *testing.T) {
	gen := &scripted{
		plan:  planText,
		notes: "FINDING: CEO's favorite color NOT FOUND IN SOURCES\nSOURCE: project_report.md",
		draft: "The CEO's favorite color is NOT FOUND IN SOURCES [Source: project_report.md]. " +
			"Please ask the CEO's office directly.\n\n---\n\nSOURCES:\n- project_report.md",
		audit: "VERIFICATION STATUS: PASS\nISSUES FOUND:\n- None",
	}
	retriever := fakeRetriever{excerpts: []types.Excerpt{
		{Text: "Budget is at 80% of plan.", Source: "data/project_report.md"},
	}}

	res, err := newRunner(gen, retriever).Run(context.Background(), "What is the CEO's favorite color?")
	require.NoError(t, err)

	require.Len(t, res.ResearchNotes, 1)
	assert.Equal(t, types.NotFoundMarker, res.ResearchNotes[0].Content)
	assert.Equal(t, "project_report.md", res.ResearchNotes[0].Source)

	assert.Contains(t, res.FinalOutput, types.NotFoundMarker)
	assert.NotContains(t, res.FinalOutput, "SOURCES:")
	lower := strings.ToLower(res.FinalOutput)
	for _, color := range []string{"red", "blue", "green", "yellow", "purple", "orange", "black", "white"} {
		assert.NotContains(t, lower, " "+color)
	}
	assert.True(t, res.Verification.Passed)
	assert.Empty(t, res.Errors)

	assertTrace(t, res.Trace)
	assert.Equal(t, "1 facts from 2 chunks", res.Trace[1].Outcome, "one excerpt per plan step")
	assert.Equal(t, "PASSED - Found 0 issues", res.Trace[3].Outcome)
}

func nextWeekRun(t *testing.T, cited string) types.Result {
	t.Helper()
	gen := &scripted{
		plan:  planText,
		notes: "FINDING: Finish SSO integration\nSOURCE: weekly_update.md\nFINDING: Hire a PM\nSOURCE: weekly_update.md",
		draft: "- Finish SSO integration [Source: " + cited + "]\n- Hire a PM [Source: " + cited + "]",
		audit: "VERIFICATION STATUS: PASS\nISSUES FOUND:\n- None",
	}
	retriever := fakeRetriever{excerpts: []types.Excerpt{
		{Text: "Next week: finish SSO integration; hire a PM.", Source: "weekly_update.md"},
	}}
	res, err := newRunner(gen, retriever).Run(context.Background(), "What are the next week's planned activities?")
	require.NoError(t, err)
	return res
}

func TestRun_NextWeekCitesWeeklyUpdate(t *testing.T) {
	res := nextWeekRun(t, "weekly_update.md")
	assert.True(t, res.Verification.Passed)
	assert.Contains(t, res.FinalOutput, "[Source: weekly_update.md]")
	assert.False(t, strings.HasPrefix(res.FinalOutput, "⚠️"))
}

func TestRun_NextWeekWithoutWeeklyUpdateFails(t *testing.T) {
	res := nextWeekRun(t, "meeting_notes.md")
	assert.False(t, res.Verification.Passed)
	require.Len(t, res.Verification.Issues, 1)
	assert.Contains(t, res.Verification.Issues[0], "weekly_update.md")
	assert.True(t, strings.HasPrefix(res.FinalOutput, "⚠️ VERIFICATION WARNINGS"))
	assert.Contains(t, res.FinalOutput, "- Finish SSO integration [Source: meeting_notes.md]")
	assert.Equal(t, "FAILED - Found 1 issues", res.Trace[3].Outcome)
}

func TestRun_FailClosed(t *testing.T) {
	draft := "- Budget is at 80% of plan [Source: project_report.md]\n- Two hires pending [Source: project_report.md]"
	gen := &scripted{
		plan:  planText,
		notes: "FINDING: Budget is at 80% of plan\nSOURCE: project_report.md",
		draft: draft,
		audit: "VERIFICATION STATUS: FAIL\nISSUES FOUND:\n- None",
	}
	retriever := fakeRetriever{excerpts: []types.Excerpt{{Text: "Budget is at 80% of plan.", Source: "project_report.md"}}}

	res, err := newRunner(gen, retriever).Run(context.Background(), "How is the budget?")
	require.NoError(t, err)
	assert.False(t, res.Verification.Passed)
	assert.Empty(t, res.Verification.Issues)
	assert.Equal(t, draft, res.FinalOutput)
	assert.Equal(t, "FAILED - Found 0 issues", res.Trace[3].Outcome)
}

func TestRun_GeneratorFailureIsFatal(t *testing.T) {
	tests := []struct {
		failOn, wantPrefix string
	}{
		{"plan", "pipeline: planner: generating plan: boom"},
		{"extract", "pipeline: researcher: generating notes: boom"},
		{"draft", "pipeline: writer: generating draft: boom"},
		{"verify", "pipeline: verifier: generating audit: boom"},
	}
	retriever := fakeRetriever{excerpts: []types.Excerpt{{Text: "x", Source: "a.md"}}}
	for _, tt := range tests {
		t.Run(tt.failOn, func(t *testing.T) {
			gen := &scripted{plan: planText, failOn: tt.failOn}
			_, err := newRunner(gen, retriever).Run(context.Background(), "anything")
			require.Error(t, err)
			assert.Equal(t, tt.wantPrefix, err.Error())
		})
	}
}

func TestRun_SearchErrorIsFatal(t *testing.T) {
	gen := &scripted{plan: planText}
	retriever := fakeRetriever{excerpts: []types.Excerpt{{Text: "x", Source: "a.md"}}, err: errors.New("index closed")}
	_, err := newRunner(gen, retriever).Run(context.Background(), "anything")
	assert.ErrorContains(t, err, "pipeline: researcher: searching for")
	assert.ErrorContains(t, err, "index closed")
}

func TestMerge_Ownership(t *testing.T) {
	var state types.RunState
	m := newMerger(&state)

	p := types.Plan{Goal: "g"}
	require.NoError(t, m.merge(types.AgentPlanner, Delta{Action: "a", Outcome: "o", Plan: &p}))
	p.Goal = "changed"
	assert.Equal(t, "g", state.Plan.Goal, "merged plan is a copy")

	draft := "text"
	assert.ErrorContains(t, m.merge(types.AgentPlanner, Delta{Draft: &draft}), "Planner may not write draft")
	assert.ErrorContains(t, m.merge(types.AgentPlanner, Delta{Plan: &p}), "plan already written")

	notes := []types.Fact{{Content: "f"}}
	require.NoError(t, m.merge(types.AgentResearcher, Delta{Notes: &notes, Chunks: 3, Errors: []string{"e"}}))
	assert.Equal(t, 3, state.Chunks)
	assert.Equal(t, []string{"e"}, state.Errors)

	require.Len(t, state.Trace, 2)
	assert.Equal(t, 2, state.StepCounter)
	assert.Equal(t, types.TraceRecord{Step: 1, Agent: types.AgentPlanner, Action: "a", Outcome: "o"}, state.Trace[0])
}

func TestFormatTraceTable(t *testing.T) {
	assert.Equal(t, "No trace entries.", FormatTraceTable(nil))
	got := FormatTraceTable([]types.TraceRecord{
		{Step: 1, Agent: types.AgentPlanner, Action: "Created execution plan", Outcome: "Generated 3 steps"},
		{Step: 2, Agent: types.AgentVerifier, Action: "Verified draft accuracy", Outcome: "a|b\nc"},
	})
	assert.Equal(t, "| Step | Agent | Action | Outcome |\n"+
		"|------|-------|--------|---------|\n"+
		"| 1 | Planner | Created execution plan | Generated 3 steps |\n"+
		"| 2 | Verifier | Verified draft accuracy | a\\|b c |\n", got)
}
