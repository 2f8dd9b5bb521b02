// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm defines the text-generation and embedding collaborators and
// their OpenAI-backed implementations. Pipeline stages depend only on the
// interfaces so tests can supply fakes.
package llm

import "context"

// Request is one generation call: a system instruction, a user message and
// a sampling temperature.
type Request struct {
	System      string
	User        string
	Temperature float32
}

// Generator produces text for a prompt. Calls are synchronous; timeout and
// retry policy belong to the implementation.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Embedder turns texts into vectors, one per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
