// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package corpus loads the document collection from disk and splits it into
// chunks for indexing.
package corpus

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
	"go.uber.org/zap"

	"github.com/pdiddy/groundwork/internal/convert"
	"github.com/pdiddy/groundwork/pkg/types"
)

var (
	defaultSeparators  = []string{"\n\n", "\n", " ", ""}
	markdownSeparators = []string{
		"\n# ", "\n## ", "\n### ", "\n#### ", "\n##### ", "\n###### ",
		"\n\n", "\n", " ", "",
	}
)

// textExts are read directly; convertExts go through a Converter.
var (
	textExts    = map[string]bool{".md": true, ".markdown": true, ".txt": true}
	convertExts = map[string]bool{".pdf": true}
)

// Load reads every supported document under dir, recursively, sorted by
// path. A missing dir is created and yields no documents. When conv is nil
// PDF files are skipped with a warning. Empty files are skipped.
func Load(ctx context.Context, dir string, conv convert.Converter, logger *zap.Logger) ([]types.Document, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory %s: %w", dir, err)
		}
		logger.Info("created empty data directory", zap.String("dir", dir))
		return nil, nil
	}

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if textExts[ext] || convertExts[ext] {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	sort.Strings(paths)

	var docs []types.Document
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := readDocument(ctx, path, conv)
		if err != nil {
			logger.Warn("skipping document", zap.String("path", path), zap.Error(err))
			continue
		}
		if strings.TrimSpace(text) == "" {
			logger.Debug("skipping empty document", zap.String("path", path))
			continue
		}
		docs = append(docs, types.Document{Name: filepath.Base(path), Path: path, Text: text})
	}

	logger.Info("loaded corpus", zap.String("dir", dir), zap.Int("documents", len(docs)))
	return docs, nil
}

func readDocument(ctx context.Context, path string, conv convert.Converter) (string, error) {
	if convertExts[strings.ToLower(filepath.Ext(path))] {
		if conv == nil {
			return "", fmt.Errorf("no converter configured for %s", filepath.Ext(path))
		}
		return conv.Convert(ctx, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Split cuts each document into overlapping chunks. Markdown documents
// split on headings first.
func Split(docs []types.Document, size, overlap int) ([]types.Chunk, error) {
	var chunks []types.Chunk
	for _, doc := range docs {
		parts, err := splitterFor(doc.Name, size, overlap).SplitText(doc.Text)
		if err != nil {
			return nil, fmt.Errorf("splitting %s: %w", doc.Name, err)
		}
		n := 0
		for _, p := range parts {
			if strings.TrimSpace(p) == "" {
				continue
			}
			chunks = append(chunks, types.Chunk{
				ID:      types.ChunkID(doc.Name, n),
				Source:  doc.Name,
				Ordinal: n,
				Content: p,
			})
			n++
		}
	}
	return chunks, nil
}

func splitterFor(name string, size, overlap int) textsplitter.TextSplitter {
	seps := defaultSeparators
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown", ".pdf":
		seps = markdownSeparators
	}
	return textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(size),
		textsplitter.WithChunkOverlap(overlap),
		textsplitter.WithSeparators(seps),
	)
}
