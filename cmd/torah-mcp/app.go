// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/torahmcp/torah-mcp/internal/answer"
	"github.com/torahmcp/torah-mcp/internal/chavruta"
	"github.com/torahmcp/torah-mcp/internal/config"
	"github.com/torahmcp/torah-mcp/internal/explain"
	"github.com/torahmcp/torah-mcp/internal/llm"
	"github.com/torahmcp/torah-mcp/internal/resolve"
	"github.com/torahmcp/torah-mcp/internal/sefaria"
	"github.com/torahmcp/torah-mcp/internal/tool"
)

// app wires the components for one process.
type app struct {
	client   *sefaria.Client
	registry *prometheus.Registry
	resolver *resolve.Engine
	bridge   *answer.Bridge
	runner   *explain.Runner
	guide    *chavruta.Guide
}

type appOptions struct {
	model    string
	level    string
	maxChars int
}

// newApp connects to the retrieval service and builds the engine. A failed
// capability discovery is fatal.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts appOptions) (*app, error) {
	reg := prometheus.NewRegistry()
	client, err := sefaria.Dial(ctx, sefaria.Options{
		URL:     cfg.Sefaria.URL,
		Timeout: cfg.Sefaria.Timeout,
		Version: version,
		Logger:  logger.Named("sefaria"),
		Metrics: sefaria.NewMetrics(reg),
	})
	if err != nil {
		return nil, err
	}

	maxChars := cfg.Sefaria.MaxChars
	if opts.maxChars > 0 {
		maxChars = opts.maxChars
	}
	resolver := resolve.NewEngine(client,
		resolve.WithLogger(logger.Named("resolve")),
		resolve.WithMaxChars(maxChars),
		resolve.WithSearchSize(cfg.Sefaria.SearchSize),
		resolve.WithConcurrency(cfg.Sefaria.Concurrency),
	)

	gen, err := llm.New(ctx, cfg.LLM, opts.model, logger.Named("llm"))
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("llm: %w", err)
	}

	bridgeOpts := []answer.Option{
		answer.WithLogger(logger.Named("answer")),
		answer.WithMaxSources(cfg.LLM.MaxSources),
		answer.WithMaxChars(maxChars),
	}
	if opts.level != "" {
		bridgeOpts = append(bridgeOpts, answer.WithLevel(opts.level))
	}
	bridge := answer.NewBridge(client, gen, bridgeOpts...)

	runner := explain.NewRunner(client, resolver, explain.NewLLMPlanner(gen), bridge,
		explain.WithLogger(logger.Named("explain")))

	guideOpts := []chavruta.Option{chavruta.WithLogger(logger.Named("chavruta"))}
	if cfg.LLM.Provider != config.ProviderNone {
		guideOpts = append(guideOpts, chavruta.WithExplainer(bridge))
	}

	return &app{
		client:   client,
		registry: reg,
		resolver: resolver,
		bridge:   bridge,
		runner:   runner,
		guide:    chavruta.NewGuide(client, resolver, guideOpts...),
	}, nil
}

func (a *app) tools() *tool.Tools {
	return tool.NewTools(a.resolver, a.runner, a.guide)
}

func (a *app) Close() error {
	return a.client.Close()
}
