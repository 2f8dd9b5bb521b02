// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retrieve scopes corpus retrieval to a plan's research questions.
// For each question it expands the query toward the likely source
// document, caps and truncates the excerpts so the whole context fits the
// model, and tags every excerpt with its filename.
package retrieve

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pdiddy/groundwork/pkg/types"
)

// ErrCorpusUnavailable is returned when the retriever has nothing to
// search. Callers treat it as a recorded, non-fatal condition.
var ErrCorpusUnavailable = errors.New("corpus unavailable")

const excerptSeparator = "\n---\n"

var blockRule = strings.Repeat("=", 70)

// Retriever is the corpus-wide similarity search.
type Retriever interface {
	// Available reports whether an index with at least one chunk exists.
	Available(ctx context.Context) bool

	// Search returns up to maxResults excerpts, best first.
	Search(ctx context.Context, query string, maxResults int) ([]types.Excerpt, error)
}

// Block is the retrieved context for one question.
type Block struct {
	Question string          `json:"question" yaml:"question"`
	Excerpts []types.Excerpt `json:"excerpts" yaml:"excerpts"`
}

// Text renders the block: the question, a blank line, then each
// filename-tagged excerpt separated by a "---" line.
func (b Block) Text() string {
	parts := make([]string, 0, len(b.Excerpts))
	for _, e := range b.Excerpts {
		parts = append(parts, "[Document: "+e.Source+"]\n"+e.Text)
	}
	return "QUESTION: " + b.Question + "\n\n" + strings.Join(parts, excerptSeparator)
}

// Scoped is the output of Scope.
type Scoped struct {
	Blocks []Block `json:"blocks" yaml:"blocks"`

	// Chunks counts excerpts across all blocks.
	Chunks int `json:"chunks" yaml:"chunks"`
}

// Context renders every block, separated by a rule of "=" characters.
func (s Scoped) Context() string {
	texts := make([]string, 0, len(s.Blocks))
	for _, b := range s.Blocks {
		texts = append(texts, b.Text())
	}
	return "\n\n" + strings.Join(texts, "\n\n"+blockRule+"\n\n")
}

// Sources returns the distinct filenames retrieved, in first-seen order.
func (s Scoped) Sources() []string {
	seen := make(map[string]bool)
	var out []string
	for _, b := range s.Blocks {
		for _, e := range b.Excerpts {
			if !seen[e.Source] {
				seen[e.Source] = true
				out = append(out, e.Source)
			}
		}
	}
	return out
}

// Questions returns what the scoper searches for: the plan's steps, else
// the raw plan text as a single question. Explicit research questions
// only reach the extractor through the plan text.
func Questions(plan types.Plan) []string {
	if len(plan.Steps) > 0 {
		return plan.Steps
	}
	if strings.TrimSpace(plan.Raw) != "" {
		return []string{plan.Raw}
	}
	return nil
}

// Scope retrieves, caps, truncates and tags excerpts for each question.
// It returns ErrCorpusUnavailable when r has no index.
func Scope(ctx context.Context, r Retriever, questions []string, cfg types.RetrievalConfig) (Scoped, error) {
	if !r.Available(ctx) {
		return Scoped{}, ErrCorpusUnavailable
	}

	limits := NewLimits(cfg, len(questions))
	var out Scoped
	for _, q := range questions {
		results, err := r.Search(ctx, ExpandQuery(q), limits.SearchDepth)
		if err != nil {
			return Scoped{}, fmt.Errorf("searching for %q: %w", q, err)
		}

		if n := ResultCap(q, limits); len(results) > n {
			results = results[:n]
		}

		block := Block{Question: q, Excerpts: make([]types.Excerpt, 0, len(results))}
		for _, e := range results {
			block.Excerpts = append(block.Excerpts, types.Excerpt{
				Text:   Truncate(strings.TrimSpace(e.Text), limits.MaxExcerptChars),
				Source: sourceName(e.Source),
				Score:  e.Score,
			})
		}
		out.Chunks += len(block.Excerpts)
		out.Blocks = append(out.Blocks, block)
	}
	return out, nil
}

func sourceName(path string) string {
	if strings.TrimSpace(path) == "" {
		return "Unknown"
	}
	return filepath.Base(path)
}
