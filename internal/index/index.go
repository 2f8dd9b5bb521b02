// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index holds the embedded chunk index that retrieval searches.
// The live index is an immutable in-memory snapshot; a rebuild persists the
// new chunks to SQLite and then swaps the snapshot, so searches running
// during a rebuild keep reading the previous one.
package index

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	cache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/groundwork/internal/llm"
	"github.com/pdiddy/groundwork/internal/metrics"
	"github.com/pdiddy/groundwork/pkg/types"
)

// ErrNotBuilt is returned by Search when the index holds no chunks.
var ErrNotBuilt = errors.New("index not built")

const (
	metaModel     = "model"
	metaBuiltAt   = "built_at"
	metaDocuments = "documents"
)

type snapshot struct {
	chunks []types.Chunk
	vecs   [][]float32
	norms  []float64
	status types.IndexStatus
}

func newSnapshot(chunks []types.Chunk, vecs [][]float32, status types.IndexStatus) *snapshot {
	norms := make([]float64, len(vecs))
	for i, v := range vecs {
		norms[i] = norm(v)
	}
	return &snapshot{chunks: chunks, vecs: vecs, norms: norms, status: status}
}

// Index searches chunks by embedding similarity.
type Index struct {
	store    *Store
	embedder llm.Embedder
	cfg      types.EmbeddingConfig
	logger   *zap.Logger

	snap      atomic.Pointer[snapshot]
	queries   *cache.Cache
	rebuildMu sync.Mutex
	now       func() time.Time
}

// New returns an empty Index. Call Load to pick up a persisted index or
// Rebuild to create one.
func New(store *Store, embedder llm.Embedder, cfg types.EmbeddingConfig, logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 64
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	ttl := cfg.QueryCacheTTL
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	ix := &Index{
		store:    store,
		embedder: embedder,
		cfg:      cfg,
		logger:   logger,
		queries:  cache.New(ttl, 10*time.Minute),
		now:      time.Now,
	}
	ix.snap.Store(newSnapshot(nil, nil, types.IndexStatus{}))
	return ix
}

// Available reports whether the live index has at least one chunk.
func (ix *Index) Available(context.Context) bool {
	return len(ix.snap.Load().chunks) > 0
}

// Status describes the live index.
func (ix *Index) Status() types.IndexStatus {
	return ix.snap.Load().status
}

// Load replaces the live snapshot with the persisted index.
func (ix *Index) Load(ctx context.Context) error {
	chunks, vecs, err := ix.store.All(ctx)
	if err != nil {
		return fmt.Errorf("loading index: %w", err)
	}
	meta, err := ix.store.Meta(ctx)
	if err != nil {
		return fmt.Errorf("loading index: %w", err)
	}

	status := types.IndexStatus{Chunks: len(chunks), Model: meta[metaModel]}
	status.Documents, _ = strconv.Atoi(meta[metaDocuments])
	if ts, err := time.Parse(time.RFC3339Nano, meta[metaBuiltAt]); err == nil {
		status.BuiltAt = ts
	}
	if status.Model != "" && status.Model != ix.cfg.Model {
		ix.logger.Warn("persisted index was built with a different embedding model",
			zap.String("index_model", status.Model), zap.String("configured_model", ix.cfg.Model))
	}

	ix.snap.Store(newSnapshot(chunks, vecs, status))
	metrics.IndexChunks.Set(float64(len(chunks)))
	ix.logger.Info("loaded index", zap.Int("chunks", status.Chunks), zap.Int("documents", status.Documents))
	return nil
}

// Rebuild embeds chunks, persists them and swaps the live snapshot.
// Concurrent rebuilds are serialized. On error the live snapshot is left
// untouched.
func (ix *Index) Rebuild(ctx context.Context, chunks []types.Chunk) (types.IndexStatus, error) {
	ix.rebuildMu.Lock()
	defer ix.rebuildMu.Unlock()

	start := ix.now()
	vecs, err := ix.embedAll(ctx, chunks)
	if err != nil {
		metrics.IndexRebuilds.WithLabelValues("error").Inc()
		return types.IndexStatus{}, fmt.Errorf("embedding chunks: %w", err)
	}

	sources := make(map[string]bool)
	for _, c := range chunks {
		sources[c.Source] = true
	}
	status := types.IndexStatus{
		Chunks:    len(chunks),
		Documents: len(sources),
		Model:     ix.cfg.Model,
		BuiltAt:   ix.now().UTC(),
	}

	meta := map[string]string{
		metaModel:     status.Model,
		metaBuiltAt:   status.BuiltAt.Format(time.RFC3339Nano),
		metaDocuments: strconv.Itoa(status.Documents),
	}
	if err := ix.store.Replace(ctx, chunks, vecs, meta); err != nil {
		metrics.IndexRebuilds.WithLabelValues("error").Inc()
		return types.IndexStatus{}, fmt.Errorf("persisting index: %w", err)
	}

	ix.snap.Store(newSnapshot(chunks, vecs, status))
	metrics.IndexRebuilds.WithLabelValues("ok").Inc()
	metrics.IndexChunks.Set(float64(len(chunks)))
	ix.logger.Info("rebuilt index",
		zap.Int("chunks", status.Chunks),
		zap.Int("documents", status.Documents),
		zap.Duration("elapsed", ix.now().Sub(start)),
	)
	return status, nil
}

func (ix *Index) embedAll(ctx context.Context, chunks []types.Chunk) ([][]float32, error) {
	vecs := make([][]float32, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.cfg.Concurrency)

	for lo := 0; lo < len(chunks); lo += ix.cfg.BatchSize {
		hi := min(lo+ix.cfg.BatchSize, len(chunks))
		g.Go(func() error {
			texts := make([]string, 0, hi-lo)
			for _, c := range chunks[lo:hi] {
				texts = append(texts, c.Content)
			}
			out, err := ix.embedder.Embed(gctx, texts)
			if err != nil {
				return fmt.Errorf("batch %d-%d: %w", lo, hi, err)
			}
			if len(out) != hi-lo {
				return fmt.Errorf("batch %d-%d: got %d vectors", lo, hi, len(out))
			}
			copy(vecs[lo:hi], out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vecs, nil
}

// Search returns up to k excerpts ranked by cosine similarity to query.
// Ties keep corpus order.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]types.Excerpt, error) {
	snap := ix.snap.Load()
	if len(snap.chunks) == 0 {
		return nil, ErrNotBuilt
	}
	if k <= 0 {
		return nil, nil
	}

	qv, err := ix.queryVector(ctx, query)
	if err != nil {
		return nil, err
	}
	qn := norm(qv)

	order := make([]int, len(snap.chunks))
	scores := make([]float64, len(snap.chunks))
	for i := range snap.chunks {
		order[i] = i
		scores[i] = cosine(qv, qn, snap.vecs[i], snap.norms[i])
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })

	k = min(k, len(order))
	out := make([]types.Excerpt, 0, k)
	for _, i := range order[:k] {
		out = append(out, types.Excerpt{
			Text:   snap.chunks[i].Content,
			Source: snap.chunks[i].Source,
			Score:  scores[i],
		})
	}
	return out, nil
}

func (ix *Index) queryVector(ctx context.Context, query string) ([]float32, error) {
	if v, ok := ix.queries.Get(query); ok {
		metrics.QueryCache.WithLabelValues("hit").Inc()
		return v.([]float32), nil
	}
	metrics.QueryCache.WithLabelValues("miss").Inc()

	out, err := ix.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("embedding query: got %d vectors", len(out))
	}
	ix.queries.SetDefault(query, out[0])
	return out[0], nil
}
