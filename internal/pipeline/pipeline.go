// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one request through the planner, researcher,
// writer and verifier in order. Stages read a snapshot of the run state
// and return a Delta; the runner merges deltas, enforcing that each field
// is written once by its owning stage, and appends one trace record per
// stage.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/groundwork/internal/draft"
	"github.com/pdiddy/groundwork/internal/extract"
	"github.com/pdiddy/groundwork/internal/llm"
	"github.com/pdiddy/groundwork/internal/metrics"
	"github.com/pdiddy/groundwork/internal/planner"
	"github.com/pdiddy/groundwork/internal/retrieve"
	"github.com/pdiddy/groundwork/internal/verify"
	"github.com/pdiddy/groundwork/pkg/types"
)

// ErrNoDocuments is the run error recorded when the corpus is unavailable.
const ErrNoDocuments = "No documents found"

// Runner wires the stages to their collaborators. A Runner is safe for
// concurrent use; each Run has its own state.
type Runner struct {
	gen       llm.Generator
	retriever retrieve.Retriever
	verifier  *verify.Verifier
	cfg       types.Config
	logger    *zap.Logger
}

// New builds a Runner.
func New(gen llm.Generator, retriever retrieve.Retriever, cfg types.Config, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		gen:       gen,
		retriever: retriever,
		verifier:  verify.New(gen, cfg.Verifier, logger),
		cfg:       cfg,
		logger:    logger,
	}
}

type stage struct {
	agent types.Agent
	run   func(context.Context, types.RunState) (Delta, error)
}

func (r *Runner) stages(logger *zap.Logger) []stage {
	return []stage{
		{types.AgentPlanner, r.planStage},
		{types.AgentResearcher, func(ctx context.Context, s types.RunState) (Delta, error) {
			return r.researchStage(ctx, s, logger)
		}},
		{types.AgentWriter, r.writeStage},
		{types.AgentVerifier, r.verifyStage},
	}
}

// Run executes the pipeline for request. Generator failures end the run
// with an error; an unavailable corpus is recorded in Result.Errors and
// the run continues with no research notes.
func (r *Runner) Run(ctx context.Context, request string) (types.Result, error) {
	state := types.RunState{RunID: uuid.NewString(), Request: request}
	logger := r.logger.With(zap.String("run_id", state.RunID))
	m := newMerger(&state)

	for _, st := range r.stages(logger) {
		start := time.Now()
		d, err := st.run(ctx, state)
		elapsed := time.Since(start)
		metrics.StageDuration.WithLabelValues(string(st.agent)).Observe(elapsed.Seconds())
		if err != nil {
			metrics.StageErrors.WithLabelValues(string(st.agent)).Inc()
			metrics.Runs.WithLabelValues("error").Inc()
			logger.Error("stage failed", zap.String("agent", string(st.agent)), zap.Error(err))
			return types.Result{}, fmt.Errorf("pipeline: %s: %w", strings.ToLower(string(st.agent)), err)
		}
		if err := m.merge(st.agent, d); err != nil {
			metrics.Runs.WithLabelValues("error").Inc()
			return types.Result{}, fmt.Errorf("pipeline: %w", err)
		}
		logger.Info("stage complete",
			zap.String("agent", string(st.agent)),
			zap.String("outcome", d.Outcome),
			zap.Duration("elapsed", elapsed))
	}

	res := types.Result{
		RunID:         state.RunID,
		FinalOutput:   state.FinalOutput,
		Trace:         state.Trace,
		ResearchNotes: state.ResearchNotes,
		Errors:        state.Errors,
	}
	if state.Plan != nil {
		res.Plan = *state.Plan
	}
	if state.Verification != nil {
		res.Verification = *state.Verification
	}

	outcome := "failed"
	if res.Verification.Passed {
		outcome = "passed"
	}
	metrics.Runs.WithLabelValues(outcome).Inc()
	return res, nil
}

func (r *Runner) planStage(ctx context.Context, s types.RunState) (Delta, error) {
	p, err := planner.Plan(ctx, r.gen, s.Request)
	if err != nil {
		return Delta{}, err
	}
	return Delta{
		Action:  "Created execution plan",
		Outcome: fmt.Sprintf("Generated %d steps", len(p.Steps)),
		Plan:    &p,
	}, nil
}

func (r *Runner) researchStage(ctx context.Context, s types.RunState, logger *zap.Logger) (Delta, error) {
	var plan types.Plan
	if s.Plan != nil {
		plan = *s.Plan
	}

	scoped, err := retrieve.Scope(ctx, r.retriever, retrieve.Questions(plan), r.cfg.Retrieval)
	if errors.Is(err, retrieve.ErrCorpusUnavailable) {
		metrics.StageErrors.WithLabelValues(string(types.AgentResearcher)).Inc()
		logger.Warn("corpus unavailable, continuing without research notes")
		notes := []types.Fact{}
		return Delta{
			Action:  "Attempted document search",
			Outcome: "ERROR: No documents loaded",
			Notes:   &notes,
			Errors:  []string{ErrNoDocuments},
		}, nil
	}
	if err != nil {
		return Delta{}, err
	}
	metrics.ExcerptsRetrieved.Observe(float64(scoped.Chunks))

	notes, err := extract.Extract(ctx, r.gen, plan, scoped, logger)
	if err != nil {
		return Delta{}, err
	}
	if notes == nil {
		notes = []types.Fact{}
	}
	return Delta{
		Action:  "Extracted atomic research facts",
		Outcome: fmt.Sprintf("%d facts from %d chunks", len(notes), scoped.Chunks),
		Notes:   &notes,
		Chunks:  scoped.Chunks,
	}, nil
}

func (r *Runner) writeStage(ctx context.Context, s types.RunState) (Delta, error) {
	var plan types.Plan
	if s.Plan != nil {
		plan = *s.Plan
	}
	text, err := draft.Draft(ctx, r.gen, draft.Input{
		Request: s.Request,
		Plan:    plan,
		Notes:   s.ResearchNotes,
	}, r.cfg.AI.DraftTemperature)
	if err != nil {
		return Delta{}, err
	}
	return Delta{
		Action:  "Generated draft deliverable",
		Outcome: fmt.Sprintf("Created %d character document", utf8.RuneCountInString(text)),
		Draft:   &text,
	}, nil
}

func (r *Runner) verifyStage(ctx context.Context, s types.RunState) (Delta, error) {
	v, out, err := r.verifier.Verify(ctx, verify.Input{
		Request: s.Request,
		Notes:   s.ResearchNotes,
		Draft:   s.Draft,
	})
	if err != nil {
		return Delta{}, err
	}
	verdict := "FAILED"
	if v.Passed {
		verdict = "PASSED"
	}
	return Delta{
		Action:       "Verified draft accuracy",
		Outcome:      fmt.Sprintf("%s - Found %d issues", verdict, len(v.Issues)),
		Verification: &v,
		FinalOutput:  &out,
	}, nil
}
