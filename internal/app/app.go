// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package app wires the collaborators from configuration: the OpenAI
// client, the persisted index, the optional PDF converter and the
// pipeline. The CLI and the HTTP server share one App.
package app

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/pdiddy/groundwork/internal/container"
	"github.com/pdiddy/groundwork/internal/convert"
	"github.com/pdiddy/groundwork/internal/corpus"
	"github.com/pdiddy/groundwork/internal/index"
	"github.com/pdiddy/groundwork/internal/llm"
	"github.com/pdiddy/groundwork/internal/pipeline"
	"github.com/pdiddy/groundwork/pkg/types"
)

// App holds the live collaborators.
type App struct {
	cfg    types.Config
	logger *zap.Logger
	store  *index.Store
	index  *index.Index
	conv   convert.Converter
	runner *pipeline.Runner
}

// Deps are the collaborators New would otherwise build from config.
// Tests supply fakes; nil fields are built.
type Deps struct {
	Generator llm.Generator
	Embedder  llm.Embedder
	Converter convert.Converter
}

// New opens the index under cfg.Index.Dir, loads whatever was persisted,
// and builds the pipeline. apiKey is only needed for collaborators not
// supplied in deps.
func New(ctx context.Context, cfg types.Config, apiKey string, deps Deps, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if deps.Generator == nil || deps.Embedder == nil {
		client := llm.NewOpenAIClient(apiKey, cfg.AI, logger)
		if deps.Generator == nil {
			deps.Generator = llm.NewGenerator(client, cfg.AI.Model, logger)
		}
		if deps.Embedder == nil {
			deps.Embedder = llm.NewEmbedder(client, cfg.Embedding.Model)
		}
	}

	if deps.Converter == nil && cfg.Corpus.ConvertPDF {
		conv, err := newPDFConverter(ctx, cfg, logger)
		if err != nil {
			logger.Warn("PDF conversion disabled", zap.Error(err))
		} else {
			deps.Converter = conv
		}
	}

	store, err := index.OpenStore(cfg.Index.Dir)
	if err != nil {
		return nil, err
	}
	ix := index.New(store, deps.Embedder, cfg.Embedding, logger)
	if err := ix.Load(ctx); err != nil {
		store.Close()
		return nil, err
	}

	return &App{
		cfg:    cfg,
		logger: logger,
		store:  store,
		index:  ix,
		conv:   deps.Converter,
		runner: pipeline.New(deps.Generator, ix, cfg, logger),
	}, nil
}

func newPDFConverter(ctx context.Context, cfg types.Config, logger *zap.Logger) (convert.Converter, error) {
	rt, err := container.DetectRuntime(ctx, cfg.Corpus.ContainerRuntime)
	if err != nil {
		return nil, err
	}
	md, err := convert.NewContainerConverter(ctx, rt, cfg.Corpus.ConverterImage)
	if err != nil {
		return nil, err
	}
	return &convert.Cached{
		Inner:  md,
		Dir:    filepath.Join(cfg.Index.Dir, "converted"),
		Logger: logger,
	}, nil
}

// Run answers one request.
func (a *App) Run(ctx context.Context, request string) (types.Result, error) {
	return a.runner.Run(ctx, request)
}

// Rebuild reloads the corpus, splits it and rebuilds the index.
func (a *App) Rebuild(ctx context.Context) (types.IndexStatus, error) {
	docs, err := corpus.Load(ctx, a.cfg.Corpus.DataDir, a.conv, a.logger)
	if err != nil {
		return types.IndexStatus{}, err
	}
	chunks, err := corpus.Split(docs, a.cfg.Corpus.ChunkSize, a.cfg.Corpus.ChunkOverlap)
	if err != nil {
		return types.IndexStatus{}, fmt.Errorf("splitting corpus: %w", err)
	}
	a.logger.Info("corpus loaded", zap.Int("documents", len(docs)), zap.Int("chunks", len(chunks)))
	return a.index.Rebuild(ctx, chunks)
}

// Status describes the live index.
func (a *App) Status() types.IndexStatus {
	return a.index.Status()
}

// Close releases the index database.
func (a *App) Close() error {
	return a.store.Close()
}
