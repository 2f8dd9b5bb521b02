// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/groundwork/pkg/types"
)

type fakeConverter struct {
	text string
	err  error
}

func (f fakeConverter) Convert(context.Context, string) (string, error) { return f.text, f.err }

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func names(docs []types.Document) []string {
	var out []string
	for _, d := range docs {
		out = append(out, d.Name)
	}
	return out
}

func TestLoad_MissingDirIsCreated(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	docs, err := Load(context.Background(), dir, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.DirExists(t, dir)
}

func TestLoad_ReadsSupportedFiles(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "weekly_update.md", "# Week 12\nFinish SSO integration.")
	write(t, dir, "notes/meeting_notes.txt", "Decision: ship in March.")
	write(t, dir, "empty.md", "   \n")
	write(t, dir, "image.png", "binary")
	write(t, dir, ".hidden/secret.md", "nope")
	write(t, dir, "board.pdf", "%PDF")

	docs, err := Load(context.Background(), dir, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"meeting_notes.txt", "weekly_update.md"}, names(docs))
	assert.Contains(t, docs[1].Text, "Finish SSO integration.")
}

func TestLoad_ConvertsPDFs(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "board.pdf", "%PDF")
	write(t, dir, "bad.pdf", "%PDF")

	docs, err := Load(context.Background(), dir, fakeConverter{text: "# Board\nBudget approved."}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"bad.pdf", "board.pdf"}, names(docs))

	docs, err = Load(context.Background(), dir, fakeConverter{err: errors.New("boom")}, nil)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestLoad_Cancelled(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "a.md", "text")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Load(ctx, dir, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSplit(t *testing.T) {
	short := types.Document{Name: "q1_roadmap.md", Text: "# Roadmap\nLaunch in March."}
	long := types.Document{
		Name: "project_report.txt",
		Text: strings.Repeat("The migration is on schedule and within budget. ", 60),
	}

	chunks, err := Split([]types.Document{short, long}, 200, 40)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 2)

	assert.Equal(t, "q1_roadmap.md", chunks[0].Source)
	assert.Equal(t, "q1_roadmap.md#0000", chunks[0].ID)
	assert.Contains(t, chunks[0].Content, "Launch in March.")

	ordinal := 0
	for _, c := range chunks[1:] {
		assert.Equal(t, "project_report.txt", c.Source)
		assert.Equal(t, ordinal, c.Ordinal)
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Content), 200)
		ordinal++
	}
}

func TestSplit_Empty(t *testing.T) {
	chunks, err := Split(nil, 1000, 200)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
