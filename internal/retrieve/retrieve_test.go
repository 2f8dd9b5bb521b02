// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/groundwork/pkg/types"
)

type fakeRetriever struct {
	available bool
	results   []types.Excerpt
	err       error
	queries   []string
	depths    []int
}

func (f *fakeRetriever) Available(context.Context) bool { return f.available }

func (f *fakeRetriever) Search(_ context.Context, query string, n int) ([]types.Excerpt, error) {
	f.queries = append(f.queries, query)
	f.depths = append(f.depths, n)
	if f.err != nil {
		return nil, f.err
	}
	return f.results[:min(n, len(f.results))], nil
}

func excerpts(n int, source string) []types.Excerpt {
	out := make([]types.Excerpt, n)
	for i := range out {
		out[i] = types.Excerpt{Text: fmt.Sprintf("  excerpt %d  ", i), Source: source}
	}
	return out
}

func TestQuestions(t *testing.T) {
	tests := []struct {
		name string
		plan types.Plan
		want []string
	}{
		{
			"steps win over questions",
			types.Plan{
				Steps:     []string{"Review weekly_update next week plans", "Review roadmap milestones"},
				Questions: []string{"What is planned?"},
				Raw:       "raw",
			},
			[]string{"Review weekly_update next week plans", "Review roadmap milestones"},
		},
		{"steps", types.Plan{Steps: []string{"s1", "s2"}, Raw: "raw"}, []string{"s1", "s2"}},
		{"questions alone fall back to raw", types.Plan{Questions: []string{"q1"}, Raw: "GOAL: g\nRESEARCH QUESTIONS:\n- q1"}, []string{"GOAL: g\nRESEARCH QUESTIONS:\n- q1"}},
		{"raw fallback", types.Plan{Raw: "just text"}, []string{"just text"}},
		{"empty plan", types.Plan{Raw: "  "}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Questions(tt.plan))
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		question string
		want     []string
	}{
		{"What are next week's planned activities?", []string{"weekly-update"}},
		{"Summarize the key project risks", []string{"risk"}},
		{"Compare our competitive strategy", []string{"competitor"}},
		{"Describe the security architecture", []string{"technical"}},
		{"List action items from meeting notes", []string{"meeting"}},
		{"What are the Q1 roadmap milestones?", []string{"roadmap"}},
		{"Top client feedback improvement requests", []string{"feedback"}},
		{"What is the CEO's favorite color?", nil},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			var got []string
			for _, topic := range Classify(tt.question) {
				got = append(got, topic.Name)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpandQuery(t *testing.T) {
	q := ExpandQuery("What is planned for next week?")
	assert.True(t, strings.HasPrefix(q, "What is planned for next week?\n"))
	assert.Contains(t, q, "weekly_update.md")

	assert.Equal(t, "favorite color?\n", ExpandQuery("favorite color?"))
}

func TestExpandQuery_TriggersAreSeparate(t *testing.T) {
	tests := []struct {
		question    string
		contains    []string
		notContains []string
	}{
		{
			question:    "Which metrics improved?",
			contains:    []string{"adoption rate", "daily active users"},
			notContains: []string{"client_feedback.md"},
		},
		{
			question:    "What improvement is most requested?",
			contains:    []string{"feature requests"},
			notContains: []string{"client_feedback.md"},
		},
		{
			question:    "What is our go-to-market strategy?",
			contains:    []string{"positioning", "recommendations"},
			notContains: []string{"competitor_analysis.md"},
		},
		{
			question: "Summarize client feedback",
			contains: []string{"feature requests", "client_feedback.md", "session duration"},
		},
		{
			question: "Who is our main competitor?",
			contains: []string{"recommendations", "competitor_analysis.md"},
		},
		{
			question:    "Key points from the project report",
			contains:    []string{"project_report.md", "key risks"},
			notContains: []string{"mitigation"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			q := ExpandQuery(tt.question)
			for _, want := range tt.contains {
				assert.Contains(t, q, want)
			}
			for _, unwanted := range tt.notContains {
				assert.NotContains(t, q, unwanted)
			}
		})
	}
}

func TestResultCap(t *testing.T) {
	def := NewLimits(types.DefaultRetrievalConfig(), 1)
	wide := def
	wide.Ceiling = 20

	tests := []struct {
		question string
		limits   Limits
		want     int
	}{
		{"Who is our main competitor?", def, 7},
		{"Describe the system architecture", def, 8},
		{"What are the deadlines?", def, 8},
		{"What are the deadlines?", wide, 12},
		{"Recommended strategy against rivals", wide, 7},
		{"Performance targets", wide, 8},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			assert.Equal(t, tt.want, ResultCap(tt.question, tt.limits))
		})
	}
}

func TestNewLimits_ContextWindow(t *testing.T) {
	cfg := types.DefaultRetrievalConfig()
	assert.Equal(t, 8, NewLimits(cfg, 5).Ceiling, "no context window keeps the configured ceiling")

	cfg.ContextTokens = 8000
	cfg.ReservedTokens = 2000
	// 900 chars ~ 225 tokens; 6000 / (5 * 225) = 5.
	assert.Equal(t, 5, NewLimits(cfg, 5).Ceiling)
	assert.Equal(t, 8, NewLimits(cfg, 1).Ceiling, "never above the configured ceiling")

	cfg.ContextTokens = 1000
	cfg.ReservedTokens = 1500
	assert.Equal(t, 1, NewLimits(cfg, 3).Ceiling, "never below one")
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want string
	}{
		{"within limit", "short text", 20, "short text"},
		{"exact limit", "abcd", 4, "abcd"},
		{"cuts at whitespace", "hello world foo", 8, "hello…"},
		{"no whitespace", "abcdefghij", 4, "abcd…"},
		{"multibyte", "héllo wörld ünïcode", 9, "héllo…"},
		{"disabled", "anything", 0, "anything"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.text, tt.max)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestScope(t *testing.T) {
	long := strings.Repeat("word ", 300)
	r := &fakeRetriever{available: true, results: append(
		[]types.Excerpt{{Text: long, Source: "data/weekly_update.md", Score: 0.9}},
		excerpts(19, "/abs/path/project_report.md")...,
	)}

	questions := []string{"What is planned next week?", "Who is the top competitor?"}
	scoped, err := Scope(context.Background(), r, questions, types.DefaultRetrievalConfig())
	require.NoError(t, err)

	require.Len(t, scoped.Blocks, 2)
	assert.Len(t, scoped.Blocks[0].Excerpts, 8, "default cap bounded by ceiling")
	assert.Len(t, scoped.Blocks[1].Excerpts, 7, "competitor cap")
	assert.Equal(t, 15, scoped.Chunks)
	assert.Equal(t, []int{20, 20}, r.depths)
	assert.Contains(t, r.queries[0], "weekly_update.md")

	first := scoped.Blocks[0].Excerpts[0]
	assert.Equal(t, "weekly_update.md", first.Source)
	assert.True(t, strings.HasSuffix(first.Text, Ellipsis))
	assert.LessOrEqual(t, utf8.RuneCountInString(first.Text), 901)
	assert.Equal(t, "excerpt 0", scoped.Blocks[0].Excerpts[1].Text)

	assert.Equal(t, []string{"weekly_update.md", "project_report.md"}, scoped.Sources())

	ctx := scoped.Context()
	assert.Contains(t, ctx, "QUESTION: What is planned next week?\n\n[Document: weekly_update.md]\n")
	assert.Contains(t, ctx, "\n---\n[Document: project_report.md]\nexcerpt 0")
	assert.Contains(t, ctx, "\n\n"+strings.Repeat("=", 70)+"\n\nQUESTION: Who is the top competitor?")
}

func TestScope_CorpusUnavailable(t *testing.T) {
	r := &fakeRetriever{available: false}
	_, err := Scope(context.Background(), r, []string{"q"}, types.DefaultRetrievalConfig())
	assert.ErrorIs(t, err, ErrCorpusUnavailable)
	assert.Empty(t, r.queries)
}

func TestScope_SearchError(t *testing.T) {
	r := &fakeRetriever{available: true, err: errors.New("embedding quota")}
	_, err := Scope(context.Background(), r, []string{"q"}, types.DefaultRetrievalConfig())
	assert.ErrorContains(t, err, "embedding quota")
}

func TestBlockText_UnknownSource(t *testing.T) {
	r := &fakeRetriever{available: true, results: []types.Excerpt{{Text: "x", Source: ""}}}
	scoped, err := Scope(context.Background(), r, []string{"q"}, types.DefaultRetrievalConfig())
	require.NoError(t, err)
	assert.Equal(t, "QUESTION: q\n\n[Document: Unknown]\nx", scoped.Blocks[0].Text())
}
