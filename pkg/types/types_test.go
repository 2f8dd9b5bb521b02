package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{
			name:    "missing model",
			mutate:  func(c *Config) { c.AI.Model = "" },
			wantSub: "Config.AI.Model",
		},
		{
			name:    "overlap not below chunk size",
			mutate:  func(c *Config) { c.Corpus.ChunkOverlap = c.Corpus.ChunkSize },
			wantSub: "Config.Corpus.ChunkOverlap",
		},
		{
			name:    "zero ceiling",
			mutate:  func(c *Config) { c.Retrieval.Ceiling = 0 },
			wantSub: "Config.Retrieval.Ceiling",
		},
		{
			name:    "unknown container runtime",
			mutate:  func(c *Config) { c.Corpus.ContainerRuntime = "lxc" },
			wantSub: "Config.Corpus.ContainerRuntime",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Log.Level = "verbose" },
			wantSub: "Config.Log.Level",
		},
		{
			name: "required source without triggers",
			mutate: func(c *Config) {
				c.Verifier.RequiredSources = []RequiredSourceRule{{Source: "weekly_update.md"}}
			},
			wantSub: "Triggers",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantSub)
		})
	}
}

func TestAllNotFound(t *testing.T) {
	found := Fact{Content: "Budget is 80% spent", Source: "project_report.md"}
	missing := Fact{Content: NotFoundMarker}

	assert.True(t, AllNotFound(nil))
	assert.True(t, AllNotFound([]Fact{missing, missing}))
	assert.False(t, AllNotFound([]Fact{missing, found}))
	assert.True(t, missing.IsNotFound())
	assert.False(t, Fact{Content: "x " + NotFoundMarker}.IsNotFound())
}

func TestPlanIsEmpty(t *testing.T) {
	assert.True(t, Plan{}.IsEmpty())
	assert.True(t, Plan{Raw: "  \n"}.IsEmpty())
	assert.False(t, Plan{Raw: "GOAL: x"}.IsEmpty())
	assert.False(t, Plan{Steps: []string{"a"}}.IsEmpty())
}
