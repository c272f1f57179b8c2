// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/torahmcp/torah-mcp/internal/resolve"
)

// MetadataResolveReference describes the resolve_reference tool.
var MetadataResolveReference = &mcp.Tool{
	Name: "resolve_reference",
	Description: "Resolve a citation, a partial citation or a free-text phrase to one canonical text " +
		"reference with its bilingual text. Citations are fetched directly; anything else goes through " +
		"full-text search, a simplified search, topic search and quote matching in that order. " +
		"With question=true every citation found inside the input is resolved and the best match is " +
		"returned as the primary reference.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"query"},
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "Citation (e.g. \"Genesis 1:1\", \"ברכות ב:א\") or free text to resolve",
			},
			"question": map[string]interface{}{
				"type":        "boolean",
				"description": "Treat the query as a question that may mention several citations and pick the primary one.",
			},
		},
	},
}

// InputResolveReference is the input for the ResolveReference tool.
type InputResolveReference struct {
	Query    string `json:"query"`
	Question bool   `json:"question"`
}

// OutputResolveReference is the output for the ResolveReference tool.
type OutputResolveReference struct {
	// Ref is the resolved citation, preferring the Hebrew-script form for questions.
	Ref string `json:"ref"`
	// Score is the disambiguation score when question was set.
	Score int `json:"score"`
	// Detail carries the fetched text and the strategies tried.
	Detail resolve.Detail `json:"detail"`
	// Error explains why nothing was resolved.
	Error string `json:"error,omitempty"`
}

// ResolveReference resolves the query with the reference engine.
func (t *Tools) ResolveReference(ctx context.Context, _ *mcp.CallToolRequest, input InputResolveReference) (*mcp.CallToolResult, OutputResolveReference, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, OutputResolveReference{}, fmt.Errorf("%w: query is required", ErrInvalidInput)
	}

	if input.Question {
		res := t.resolver.ResolveQuestion(ctx, query)
		return nil, OutputResolveReference{
			Ref:    res.Citation,
			Score:  res.Score,
			Detail: res.Detail,
			Error:  res.Err,
		}, nil
	}

	d := t.resolver.Resolve(ctx, query)
	return nil, OutputResolveReference{
		Ref:    d.Citation,
		Detail: d,
		Error:  d.Error,
	}, nil
}
