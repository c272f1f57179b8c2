// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/torahmcp/torah-mcp/internal/resolve"
)

// sampleQueries are resolved when resolve is called without arguments.
var sampleQueries = []string{
	"Genesis 1:1",
	"בראשית א:א",
	"Where does it say to add lights each night of Hanukkah?",
}

var (
	resolveMaxChars int
	resolveQuestion bool

	explainModel string
	explainLevel string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [query]",
	Short: "Resolve a citation or phrase to one canonical reference",
	Long: `Resolves a citation ("Genesis 1:1", "ברכות ב:א") or a free-text phrase
to one reference with its bilingual text. Without a query a few sample
queries are resolved.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResolve,
}

var explainCmd = &cobra.Command{
	Use:   "explain <question>",
	Short: "Answer a question from primary sources",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExplain,
}

var chavrutaCmd = &cobra.Command{
	Use:   "chavruta <question>",
	Short: "Prepare a guided study session (JSON)",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runChavruta,
}

func init() {
	resolveCmd.Flags().IntVar(&resolveMaxChars, "max-chars", 800, "max characters per fetched text")
	resolveCmd.Flags().BoolVar(&resolveQuestion, "question", false, "pick the primary reference among the citations in the query")

	explainCmd.Flags().StringVar(&explainModel, "model", "", "text generation model override")
	explainCmd.Flags().StringVar(&explainLevel, "level", "beginner", "audience level (beginner/intermediate/lamdan)")
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, logger, appOptions{maxChars: resolveMaxChars})
	if err != nil {
		return err
	}
	defer a.Close()

	queries := sampleQueries
	if len(args) == 1 {
		queries = args
	}
	out := cmd.OutOrStdout()
	for _, q := range queries {
		fmt.Fprintln(out, "==============================")
		fmt.Fprintf(out, "Query: %s\n", q)
		if resolveQuestion {
			res := a.resolver.ResolveQuestion(ctx, q)
			if !res.Found() {
				fmt.Fprintf(out, "Error: %s\n", res.Err)
				continue
			}
			fmt.Fprintf(out, "Primary: %s (score %d)\n", res.Citation, res.Score)
			printDetail(out, res.Detail)
			continue
		}
		d := a.resolver.Resolve(ctx, q)
		if d.Failed() {
			fmt.Fprintf(out, "Error: %s\n", d.Error)
			continue
		}
		printDetail(out, d)
	}
	return nil
}

func printDetail(out io.Writer, d resolve.Detail) {
	fmt.Fprintf(out, "Title: %s\n", d.Title)
	fmt.Fprintf(out, "URL: %s\n", d.URL)
	fmt.Fprintf(out, "Path: %s\n", strings.Join(d.ResolutionPath, " → "))
	fmt.Fprintf(out, "Text:\n%s\n", d.Text)
}

func runExplain(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, logger, appOptions{model: explainModel, level: explainLevel})
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.runner.Run(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	logger.Debug("explain done", zap.String("run_id", res.RunID))
	fmt.Fprintln(cmd.OutOrStdout(), res.String())
	return nil
}

func runChavruta(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, logger, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.guide.Run(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
