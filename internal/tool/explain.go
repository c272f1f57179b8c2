// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/torahmcp/torah-mcp/internal/evidence"
)

// MetadataExplainQuestion describes the explain_question tool.
var MetadataExplainQuestion = &mcp.Tool{
	Name: "explain_question",
	Description: "Answer a question about Jewish texts from primary sources. A short plan of retrieval " +
		"steps is executed, the sources found are gathered in discovery order and an answer is composed " +
		"that quotes them with links. Questions about practical law end with a disclaimer. When no " +
		"language model is configured the quoted sources are returned directly.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"question"},
		"properties": map[string]interface{}{
			"question": map[string]interface{}{
				"type":        "string",
				"description": "The question to answer",
			},
		},
	},
}

// InputExplainQuestion is the input for the ExplainQuestion tool.
type InputExplainQuestion struct {
	Question string `json:"question"`
}

// OutputExplainQuestion is the output for the ExplainQuestion tool.
type OutputExplainQuestion struct {
	RunID string `json:"run_id"`
	// Primary is the citation the run was anchored on, if any.
	Primary string `json:"primary,omitempty"`
	// Answer is the composed answer followed by the planning notes.
	Answer string `json:"answer"`
	// Heuristic is set when the answer was rendered without a language model.
	Heuristic bool `json:"heuristic"`
	// Evidence lists the gathered references in discovery order.
	Evidence []evidence.Reference `json:"evidence"`
}

// ExplainQuestion runs the planner/aggregator for one question.
func (t *Tools) ExplainQuestion(ctx context.Context, _ *mcp.CallToolRequest, input InputExplainQuestion) (*mcp.CallToolResult, OutputExplainQuestion, error) {
	if strings.TrimSpace(input.Question) == "" {
		return nil, OutputExplainQuestion{}, fmt.Errorf("%w: question is required", ErrInvalidInput)
	}
	res, err := t.explainer.Run(ctx, input.Question)
	if err != nil {
		return nil, OutputExplainQuestion{}, err
	}

	out := OutputExplainQuestion{
		RunID:     res.RunID,
		Primary:   res.Primary.Citation,
		Answer:    res.String(),
		Heuristic: res.Answer.Heuristic,
		Evidence:  res.Evidence,
	}
	if out.Evidence == nil {
		out.Evidence = []evidence.Reference{}
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: out.Answer}},
	}, out, nil
}
