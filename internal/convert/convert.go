// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns binary documents (PDF) into Markdown text so the
// corpus loader can chunk them alongside .md and .txt files.
package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Converter transforms a document file into Markdown text.
type Converter interface {
	Convert(ctx context.Context, path string) (string, error)
}

// Cached wraps a Converter and keeps its output under Dir, keyed by the
// source file name. A cached file newer than its source is reused.
type Cached struct {
	Inner  Converter
	Dir    string
	Logger *zap.Logger
}

// Convert returns the cached Markdown for path or converts and caches it.
func (c *Cached) Convert(ctx context.Context, path string) (string, error) {
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	src, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	mdPath := filepath.Join(c.Dir, base+".md")

	if st, err := os.Stat(mdPath); err == nil && !st.ModTime().Before(src.ModTime()) {
		data, err := os.ReadFile(mdPath)
		if err == nil {
			logger.Debug("conversion cache hit", zap.String("source", path))
			return string(data), nil
		}
	}

	text, err := c.Inner.Convert(ctx, path)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating conversion cache %s: %w", c.Dir, err)
	}
	if err := os.WriteFile(mdPath, []byte(text), 0o644); err != nil {
		// The conversion itself succeeded; a cache miss next time is fine.
		logger.Warn("writing conversion cache", zap.String("path", mdPath), zap.Error(err))
	}
	logger.Info("converted document", zap.String("source", path), zap.Int("chars", len(text)))
	return text, nil
}
