// SPDX-License-Identifier: Apache-2.0

package sefaria

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func objectSchema() map[string]interface{} {
	return map[string]interface{}{"type": "object"}
}

// newFakeServer serves a structured search tool, a text-only fetch tool and a
// tool that always reports an error.
func newFakeServer() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "sefaria-fake", Version: "v0.0.1"}, nil)
	server.AddTool(&mcp.Tool{Name: CapabilitySearch, InputSchema: objectSchema()},
		func(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: "1 result"}},
				StructuredContent: map[string]any{
					"results": []any{map[string]any{"id": "Genesis 1:1|en|Sefaria", "title": "Genesis 1:1"}},
				},
			}, nil
		})
	server.AddTool(&mcp.Tool{Name: CapabilityFetch, InputSchema: objectSchema()},
		func(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: `{"ref": "Genesis 1:1", "text": "In the beginning"}`}},
			}, nil
		})
	server.AddTool(&mcp.Tool{Name: CapabilityFindRefs, InputSchema: objectSchema()},
		func(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return &mcp.CallToolResult{
				IsError: true,
				Content: []mcp.Content{&mcp.TextContent{Text: "upstream timeout"}},
			}, nil
		})
	return server
}

func connectFake(t *testing.T, metrics *Metrics) *Client {
	t.Helper()
	ctx := context.Background()
	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	ss, err := newFakeServer().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	c, err := Connect(ctx, clientTransport, Options{Metrics: metrics})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClient_Discovery(t *testing.T) {
	c := connectFake(t, nil)
	assert.Equal(t, []string{CapabilityFetch, CapabilityFindRefs, CapabilitySearch}, c.Capabilities())
	assert.True(t, c.Has(CapabilitySearch))
	assert.False(t, c.Has(CapabilityTopicsSearch))
}

func TestClient_Call(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	c := connectFake(t, metrics)

	t.Run("structured content", func(t *testing.T) {
		raw, err := c.Call(ctx, CapabilitySearch, map[string]any{"query": "light", "size": 5})
		require.NoError(t, err)
		res := DecodeSearch(Normalize(raw))
		require.Len(t, res.Results, 1)
		assert.Equal(t, "Genesis 1:1", res.Results[0].Citation())
	})

	t.Run("text content", func(t *testing.T) {
		doc, err := Fetch(ctx, c, FetchID("Genesis 1:1"), 800)
		require.NoError(t, err)
		assert.Equal(t, "Genesis 1:1", doc.Ref)
		assert.Equal(t, "In the beginning", doc.Text)
		assert.Equal(t, "Genesis 1:1|auto|primary", doc.ID)
	})

	t.Run("tool error", func(t *testing.T) {
		_, err := c.Call(ctx, CapabilityFindRefs, map[string]any{"text": "x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "upstream timeout")
	})

	t.Run("unavailable capability", func(t *testing.T) {
		_, err := c.Call(ctx, CapabilityTopicsSearch, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCapabilityUnavailable)
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.calls.WithLabelValues(CapabilitySearch, OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.calls.WithLabelValues(CapabilityFindRefs, OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.calls.WithLabelValues(CapabilityTopicsSearch, OutcomeUnavailable)))
}

func TestDial_RequiresURL(t *testing.T) {
	_, err := Dial(context.Background(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "url is required")
}
