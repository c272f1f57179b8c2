// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/torahmcp/torah-mcp/internal/chavruta"
	"github.com/torahmcp/torah-mcp/internal/evidence"
)

// MetadataGuidedChavruta describes the guided_chavruta tool.
var MetadataGuidedChavruta = &mcp.Tool{
	Name: "guided_chavruta",
	Description: "Prepare a guided study session for a topic or passage: the primary reference, up to six " +
		"related sources with links, a short summary and reflection questions for study partners. " +
		"Works without a language model.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"question"},
		"properties": map[string]interface{}{
			"question": map[string]interface{}{
				"type":        "string",
				"description": "What to learn about, e.g. \"Help me learn about Shabbat candles\"",
			},
		},
	},
}

// InputGuidedChavruta is the input for the GuidedChavruta tool.
type InputGuidedChavruta struct {
	Question string `json:"question"`
}

// GuidedChavruta builds a study session.
func (t *Tools) GuidedChavruta(ctx context.Context, _ *mcp.CallToolRequest, input InputGuidedChavruta) (*mcp.CallToolResult, chavruta.Session, error) {
	if strings.TrimSpace(input.Question) == "" {
		return nil, chavruta.Session{}, fmt.Errorf("%w: question is required", ErrInvalidInput)
	}
	s, err := t.guide.Run(ctx, input.Question)
	if err != nil {
		return nil, chavruta.Session{}, err
	}
	if s.Sources == nil {
		s.Sources = []evidence.Reference{}
	}
	return nil, s, nil
}
