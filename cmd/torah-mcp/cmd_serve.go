// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/torahmcp/torah-mcp/internal/eval"
	"github.com/torahmcp/torah-mcp/internal/httpapi"
	"github.com/torahmcp/torah-mcp/internal/tool"
)

var (
	httpAddr      string
	evalQuestions string
	evalStrict    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the tools over MCP stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg, logger, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		logger.Info("serving MCP over stdio")
		return tool.ServeStdio(ctx, tool.NewServer(version, a.tools(), logger.Named("tool")))
	},
}

var httpCmd = &cobra.Command{
	Use:   "http",
	Short: "Serve the tools over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg, logger, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		addr := cfg.HTTP.Address
		if httpAddr != "" {
			addr = httpAddr
		}
		srv := httpapi.New(a.tools(), httpapi.Options{
			Logger:   logger.Named("http"),
			Registry: a.registry,
		})
		return srv.Start(ctx, addr)
	},
}

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Run the evaluation questions and print a YAML report",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		questions, err := loadQuestions()
		if err != nil {
			return err
		}

		a, err := newApp(ctx, cfg, logger, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := eval.Run(ctx, a.runner, questions, logger.Named("eval"))
		if err != nil {
			return err
		}
		out, err := report.YAML()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(out))
		logger.Info("eval complete", zap.Int("passed", report.Passed), zap.Int("failed", report.Failed))
		if evalStrict && report.Failed > 0 {
			return fmt.Errorf("%d of %d questions failed", report.Failed, len(report.Outcomes))
		}
		return nil
	},
}

func init() {
	httpCmd.Flags().StringVar(&httpAddr, "addr", "", "listen address (default from config http.address)")
	evalCmd.Flags().StringVar(&evalQuestions, "questions", "", "question set file (default: built-in seed questions)")
	evalCmd.Flags().BoolVar(&evalStrict, "strict", false, "exit non-zero when a question fails")
}

func loadQuestions() ([]eval.Question, error) {
	if evalQuestions == "" {
		return eval.SeedQuestions()
	}
	content, err := os.ReadFile(evalQuestions)
	if err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}
	return eval.Parse(content)
}
