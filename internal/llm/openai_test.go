// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/groundwork/pkg/types"
)

func testConfig(baseURL string) types.AIConfig {
	return types.AIConfig{
		Model:      "gpt-4o-mini",
		BaseURL:    baseURL,
		MaxRetries: 1,
		Timeout:    5 * time.Second,
	}
}

func TestGenerate(t *testing.T) {
	var got map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"GOAL: x"},"finish_reason":"stop"}],"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`))
	}))
	defer ts.Close()

	client := NewOpenAIClient("sk-test", testConfig(ts.URL+"/v1"), nil)
	g := NewGenerator(client, "gpt-4o-mini", nil)

	out, err := g.Generate(context.Background(), Request{System: "sys", User: "usr"})
	require.NoError(t, err)
	assert.Equal(t, "GOAL: x", out)

	assert.Equal(t, "gpt-4o-mini", got["model"])
	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "usr", msgs[1].(map[string]any)["content"])
	// Zero temperature must still be on the wire.
	assert.Contains(t, got, "temperature")
}

func TestGenerate_NoChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[]}`))
	}))
	defer ts.Close()

	g := NewGenerator(NewOpenAIClient("k", testConfig(ts.URL+"/v1"), nil), "m", nil)
	_, err := g.Generate(context.Background(), Request{User: "u"})
	assert.ErrorContains(t, err, "no choices")
}

func TestGenerate_APIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer ts.Close()

	g := NewGenerator(NewOpenAIClient("k", testConfig(ts.URL+"/v1"), nil), "m", nil)
	_, err := g.Generate(context.Background(), Request{User: "u"})
	assert.ErrorContains(t, err, "chat completion (m)")
}

func TestEmbed_OrdersByIndex(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":1,"embedding":[0,1]},{"object":"embedding","index":0,"embedding":[1,0]}],"model":"e"}`))
	}))
	defer ts.Close()

	e := NewEmbedder(NewOpenAIClient("k", testConfig(ts.URL+"/v1"), nil), "e")
	vecs, err := e.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vecs)
}

func TestEmbed_CountMismatch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[1]}],"model":"e"}`))
	}))
	defer ts.Close()

	e := NewEmbedder(NewOpenAIClient("k", testConfig(ts.URL+"/v1"), nil), "e")
	_, err := e.Embed(context.Background(), []string{"a", "b"})
	assert.ErrorContains(t, err, "got 1 vectors for 2 inputs")
}

func TestEmbed_Empty(t *testing.T) {
	e := NewEmbedder(nil, "e")
	vecs, err := e.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestWireTemperature(t *testing.T) {
	assert.Equal(t, float32(math.SmallestNonzeroFloat32), wireTemperature(0))
	assert.Equal(t, float32(0.3), wireTemperature(0.3))
}

func TestGeneratorFunc(t *testing.T) {
	var g Generator = GeneratorFunc(func(_ context.Context, req Request) (string, error) {
		return req.User + "!", nil
	})
	out, err := g.Generate(context.Background(), Request{User: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi!", out)
}
