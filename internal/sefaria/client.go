// SPDX-License-Identifier: Apache-2.0

package sefaria

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// ClientName is the implementation name announced to the server.
const ClientName = "torah-mcp"

// Options configure a Client.
type Options struct {
	// URL is the streamable HTTP endpoint of the Sefaria MCP server.
	URL     string
	Timeout time.Duration
	Version string
	Logger  *zap.Logger
	Metrics *Metrics
}

// Client invokes Sefaria MCP tools over an established session.
// Capabilities are discovered once, at connect time.
type Client struct {
	session *mcp.ClientSession
	tools   map[string]*mcp.Tool
	logger  *zap.Logger
	metrics *Metrics
}

// Dial connects to the server at opts.URL over the streamable HTTP transport
// and discovers its capabilities.
func Dial(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.URL) == "" {
		return nil, fmt.Errorf("sefaria MCP url is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	transport := &mcp.StreamableClientTransport{
		Endpoint:   opts.URL,
		HTTPClient: &http.Client{Timeout: timeout},
	}
	return Connect(ctx, transport, opts)
}

// Connect establishes a session over transport and discovers capabilities.
// A discovery failure is returned as an error; the caller should treat it as fatal.
func Connect(ctx context.Context, transport mcp.Transport, opts Options) (*Client, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	version := opts.Version
	if version == "" {
		version = "dev"
	}

	client := mcp.NewClient(&mcp.Implementation{Name: ClientName, Version: version}, nil)
	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connect to sefaria MCP server: %w", err)
	}

	tools, err := listTools(ctx, session)
	if err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("discover sefaria capabilities: %w", err)
	}

	c := &Client{
		session: session,
		tools:   tools,
		logger:  logger,
		metrics: opts.Metrics,
	}
	logger.Info("sefaria capabilities discovered", zap.Strings("capabilities", c.Capabilities()))
	return c, nil
}

func listTools(ctx context.Context, session *mcp.ClientSession) (map[string]*mcp.Tool, error) {
	tools := make(map[string]*mcp.Tool)
	params := &mcp.ListToolsParams{}
	for {
		res, err := session.ListTools(ctx, params)
		if err != nil {
			return nil, err
		}
		for _, tool := range res.Tools {
			tools[tool.Name] = tool
		}
		if res.NextCursor == "" {
			return tools, nil
		}
		params = &mcp.ListToolsParams{Cursor: res.NextCursor}
	}
}

// Capabilities returns the discovered capability names, sorted.
func (c *Client) Capabilities() []string {
	names := make([]string, 0, len(c.tools))
	for name := range c.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether capability was discovered.
func (c *Client) Has(capability string) bool {
	_, ok := c.tools[capability]
	return ok
}

// Call invokes capability and returns the JSON envelope of the tool result
// as a generic map, ready for Normalize.
func (c *Client) Call(ctx context.Context, capability string, args map[string]any) (any, error) {
	if !c.Has(capability) {
		c.metrics.observe(capability, OutcomeUnavailable, 0)
		return nil, fmt.Errorf("%s: %w", capability, ErrCapabilityUnavailable)
	}
	if args == nil {
		args = map[string]any{}
	}

	start := time.Now()
	res, err := c.session.CallTool(ctx, &mcp.CallToolParams{Name: capability, Arguments: args})
	elapsed := time.Since(start)
	if err == nil && res.IsError {
		err = fmt.Errorf("tool error: %s", resultText(res))
	}
	if err != nil {
		c.metrics.observe(capability, OutcomeError, elapsed.Seconds())
		c.logger.Debug("capability call failed",
			zap.String("capability", capability),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return nil, fmt.Errorf("%s: %w", capability, err)
	}
	c.metrics.observe(capability, OutcomeOK, elapsed.Seconds())
	c.logger.Debug("capability call",
		zap.String("capability", capability),
		zap.Duration("elapsed", elapsed))

	b, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("%s: encode result: %w", capability, err)
	}
	var envelope map[string]any
	if err := json.Unmarshal(b, &envelope); err != nil {
		return nil, fmt.Errorf("%s: decode result: %w", capability, err)
	}
	return envelope, nil
}

// Close ends the session.
func (c *Client) Close() error {
	return c.session.Close()
}

func resultText(res *mcp.CallToolResult) string {
	var parts []string
	for _, content := range res.Content {
		if text, ok := content.(*mcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	if len(parts) == 0 {
		return "unknown error"
	}
	return strings.Join(parts, "; ")
}
