// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"

	"github.com/pdiddy/groundwork/pkg/types"
)

// Delta is what a stage returns. Set fields are merged into the run state
// by the orchestrator; every field has one owning stage and is written
// once.
type Delta struct {
	Action  string
	Outcome string

	Plan         *types.Plan
	Notes        *[]types.Fact
	Chunks       int
	Draft        *string
	Verification *types.Verification
	FinalOutput  *string

	// Errors are appended to the run's error list.
	Errors []string
}

type field string

const (
	fieldPlan         field = "plan"
	fieldNotes        field = "research_notes"
	fieldDraft        field = "draft"
	fieldVerification field = "verification"
	fieldFinalOutput  field = "final_output"
)

var owners = map[field]types.Agent{
	fieldPlan:         types.AgentPlanner,
	fieldNotes:        types.AgentResearcher,
	fieldDraft:        types.AgentWriter,
	fieldVerification: types.AgentVerifier,
	fieldFinalOutput:  types.AgentVerifier,
}

// merger applies deltas to one run's state.
type merger struct {
	state   *types.RunState
	written map[field]bool
}

func newMerger(state *types.RunState) *merger {
	return &merger{state: state, written: make(map[field]bool)}
}

func (m *merger) claim(agent types.Agent, f field) error {
	if owners[f] != agent {
		return fmt.Errorf("%s may not write %s", agent, f)
	}
	if m.written[f] {
		return fmt.Errorf("%s already written", f)
	}
	m.written[f] = true
	return nil
}

// merge checks ownership, applies d and appends the stage's trace record.
func (m *merger) merge(agent types.Agent, d Delta) error {
	s := m.state
	if d.Plan != nil {
		if err := m.claim(agent, fieldPlan); err != nil {
			return err
		}
		p := *d.Plan
		s.Plan = &p
	}
	if d.Notes != nil {
		if err := m.claim(agent, fieldNotes); err != nil {
			return err
		}
		s.ResearchNotes = append([]types.Fact{}, (*d.Notes)...)
		s.Chunks = d.Chunks
	}
	if d.Draft != nil {
		if err := m.claim(agent, fieldDraft); err != nil {
			return err
		}
		s.Draft = *d.Draft
	}
	if d.Verification != nil {
		if err := m.claim(agent, fieldVerification); err != nil {
			return err
		}
		v := *d.Verification
		s.Verification = &v
	}
	if d.FinalOutput != nil {
		if err := m.claim(agent, fieldFinalOutput); err != nil {
			return err
		}
		s.FinalOutput = *d.FinalOutput
	}
	s.Errors = append(s.Errors, d.Errors...)

	s.StepCounter++
	s.Trace = append(s.Trace, types.TraceRecord{
		Step:    s.StepCounter,
		Agent:   agent,
		Action:  d.Action,
		Outcome: d.Outcome,
	})
	return nil
}
