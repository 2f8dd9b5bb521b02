// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package evalcases runs the built-in evaluation requests through the
// pipeline and scores each final output with mechanical checks. Expected
// behaviors that need human judgment are carried into the report as-is.
package evalcases

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/groundwork/internal/citation"
	"github.com/pdiddy/groundwork/internal/verify"
	"github.com/pdiddy/groundwork/pkg/types"
)

//go:embed cases.yaml
var builtinCases []byte

// Check kinds.
const (
	KindHasCitation  = "has_citation"
	KindCites        = "cites"
	KindNotFound     = "not_found"
	KindExcludes     = "excludes"
	KindMinListItems = "min_list_items"
	KindHasHeaders   = "has_headers"
)

// Case is one evaluation request.
type Case struct {
	ID               int      `yaml:"id"`
	Type             string   `yaml:"type"`
	Input            string   `yaml:"input"`
	ExpectedBehavior []string `yaml:"expected_behavior"`
	Checks           []Check  `yaml:"checks"`
}

// Check is a mechanical assertion on a final output.
type Check struct {
	Kind string   `yaml:"kind"`
	Args []string `yaml:"args,omitempty,flow"`
}

func (c Check) String() string {
	if len(c.Args) == 0 {
		return c.Kind
	}
	return c.Kind + "(" + strings.Join(c.Args, ", ") + ")"
}

var headerLine = regexp.MustCompile(`(?m)^#{1,6}\s+\S`)

// Evaluate reports whether output satisfies the check.
func (c Check) Evaluate(output string) (bool, error) {
	switch c.Kind {
	case KindHasCitation:
		return citation.Has(output), nil
	case KindCites:
		for _, name := range c.Args {
			if !citation.Cites(output, name) {
				return false, nil
			}
		}
		return true, nil
	case KindNotFound:
		return strings.Contains(strings.ToUpper(output), types.NotFoundMarker), nil
	case KindExcludes:
		lower := strings.ToLower(output)
		for _, word := range c.Args {
			re := regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToLower(word)) + `\b`)
			if re.MatchString(lower) {
				return false, nil
			}
		}
		return true, nil
	case KindMinListItems:
		if len(c.Args) != 1 {
			return false, fmt.Errorf("%s takes one argument", c.Kind)
		}
		n, err := strconv.Atoi(c.Args[0])
		if err != nil {
			return false, fmt.Errorf("%s: %w", c.Kind, err)
		}
		return verify.CountListItems(output) >= n, nil
	case KindHasHeaders:
		return headerLine.MatchString(output), nil
	}
	return false, fmt.Errorf("unknown check kind %q", c.Kind)
}

// Builtin returns the embedded cases.
func Builtin() ([]Case, error) {
	return Parse(builtinCases)
}

// Parse decodes cases from YAML and rejects duplicate ids, empty inputs
// and unknown check kinds.
func Parse(data []byte) ([]Case, error) {
	var cases []Case
	if err := yaml.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("parsing eval cases: %w", err)
	}
	seen := make(map[int]bool, len(cases))
	for _, c := range cases {
		if seen[c.ID] {
			return nil, fmt.Errorf("eval case %d: duplicate id", c.ID)
		}
		seen[c.ID] = true
		if strings.TrimSpace(c.Input) == "" {
			return nil, fmt.Errorf("eval case %d: empty input", c.ID)
		}
		for _, ch := range c.Checks {
			if _, err := ch.Evaluate(""); err != nil {
				return nil, fmt.Errorf("eval case %d: %w", c.ID, err)
			}
		}
	}
	return cases, nil
}

// Asker runs one request through the pipeline.
type Asker interface {
	Run(ctx context.Context, request string) (types.Result, error)
}

// Outcome is the result of one case.
type Outcome struct {
	ID               int      `yaml:"id"`
	Type             string   `yaml:"type"`
	Input            string   `yaml:"input"`
	Completed        bool     `yaml:"completed"`
	Verified         bool     `yaml:"verified"`
	Status           string   `yaml:"status,omitempty"`
	ChecksPassed     []string `yaml:"checks_passed,omitempty"`
	ChecksFailed     []string `yaml:"checks_failed,omitempty"`
	ExpectedBehavior []string `yaml:"expected_behavior"`
	Issues           []string `yaml:"issues,omitempty"`
	Output           string   `yaml:"output,omitempty"`
	Error            string   `yaml:"error,omitempty"`
}

// Passed reports whether the case completed with every check satisfied.
func (o Outcome) Passed() bool {
	return o.Completed && len(o.ChecksFailed) == 0
}

// Report summarizes a whole evaluation.
type Report struct {
	GeneratedAt time.Time `yaml:"generated_at"`
	Total       int       `yaml:"total"`
	Completed   int       `yaml:"completed"`
	Verified    int       `yaml:"verified"`
	Passed      int       `yaml:"passed"`
	Outcomes    []Outcome `yaml:"outcomes"`
}

// Run executes every case in order. A pipeline error marks the case
// incomplete and the run moves on.
func Run(ctx context.Context, asker Asker, cases []Case, logger *zap.Logger) Report {
	if logger == nil {
		logger = zap.NewNop()
	}
	rep := Report{GeneratedAt: time.Now().UTC(), Total: len(cases)}

	for _, c := range cases {
		o := Outcome{ID: c.ID, Type: c.Type, Input: c.Input, ExpectedBehavior: c.ExpectedBehavior}

		res, err := asker.Run(ctx, c.Input)
		if err != nil {
			o.Error = err.Error()
			logger.Warn("eval case failed", zap.Int("id", c.ID), zap.Error(err))
			rep.Outcomes = append(rep.Outcomes, o)
			continue
		}

		o.Completed = true
		o.Verified = res.Verification.Passed
		o.Status = string(res.Verification.Status)
		o.Issues = res.Verification.Issues
		o.Output = res.FinalOutput
		for _, ch := range c.Checks {
			if ok, _ := ch.Evaluate(res.FinalOutput); ok {
				o.ChecksPassed = append(o.ChecksPassed, ch.String())
			} else {
				o.ChecksFailed = append(o.ChecksFailed, ch.String())
			}
		}

		rep.Completed++
		if o.Verified {
			rep.Verified++
		}
		if o.Passed() {
			rep.Passed++
		}
		logger.Info("eval case done",
			zap.Int("id", c.ID),
			zap.Bool("verified", o.Verified),
			zap.Strings("checks_failed", o.ChecksFailed))
		rep.Outcomes = append(rep.Outcomes, o)
	}
	return rep
}

// WriteReport writes rep as YAML to path.
func WriteReport(path string, rep Report) error {
	data, err := yaml.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
