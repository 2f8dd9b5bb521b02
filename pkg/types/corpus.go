// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// Document is one corpus file loaded as text.
type Document struct {
	// Name is the file's base name; citations refer to documents by it.
	Name string `json:"name" yaml:"name"`
	Path string `json:"path" yaml:"path"`
	Text string `json:"-" yaml:"-"`
}

// Chunk is a contiguous slice of a document's text, the unit the index
// stores and retrieval returns.
type Chunk struct {
	ID      string `json:"id" yaml:"id"`
	Source  string `json:"source" yaml:"source"`
	Ordinal int    `json:"ordinal" yaml:"ordinal"`
	Content string `json:"content" yaml:"content"`
}

// ChunkID formats the stable identifier for the n-th chunk of source.
func ChunkID(source string, n int) string {
	return fmt.Sprintf("%s#%04d", source, n)
}

// IndexStatus describes the persisted index.
type IndexStatus struct {
	Chunks    int       `json:"chunks" yaml:"chunks"`
	Documents int       `json:"documents" yaml:"documents"`
	Model     string    `json:"model,omitempty" yaml:"model,omitempty"`
	BuiltAt   time.Time `json:"built_at,omitempty" yaml:"built_at,omitempty"`
}
