// SPDX-License-Identifier: Apache-2.0

// Package tool exposes the reference engine, the question runner and the
// guided study flow as MCP tools.
package tool

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/torahmcp/torah-mcp/internal/chavruta"
	"github.com/torahmcp/torah-mcp/internal/explain"
	"github.com/torahmcp/torah-mcp/internal/resolve"
)

// ServerName is the implementation name announced to MCP clients.
const ServerName = "torah-mcp"

// ErrInvalidInput is wrapped by handler errors caused by the caller's input.
var ErrInvalidInput = errors.New("invalid input")

// Explainer answers a question.
type Explainer interface {
	Run(ctx context.Context, q string) (explain.Result, error)
}

// Guide builds a study session.
type Guide interface {
	Run(ctx context.Context, q string) (chavruta.Session, error)
}

// Tools holds the handlers' collaborators.
type Tools struct {
	resolver  *resolve.Engine
	explainer Explainer
	guide     Guide
}

// NewTools creates the tool handlers.
func NewTools(resolver *resolve.Engine, explainer Explainer, guide Guide) *Tools {
	return &Tools{resolver: resolver, explainer: explainer, guide: guide}
}

// NewServer registers every tool on a new MCP server.
func NewServer(version string, t *Tools, logger *zap.Logger) *mcp.Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	server := mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: version}, nil)
	mcp.AddTool(server, MetadataResolveReference, t.ResolveReference)
	mcp.AddTool(server, MetadataExplainQuestion, t.ExplainQuestion)
	mcp.AddTool(server, MetadataGuidedChavruta, t.GuidedChavruta)
	logger.Debug("tools registered", zap.Strings("tools", []string{
		MetadataResolveReference.Name,
		MetadataExplainQuestion.Name,
		MetadataGuidedChavruta.Name,
	}))
	return server
}

// ServeStdio serves the tools over stdin/stdout until ctx is done or the
// client disconnects.
func ServeStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}
