package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ravi-parthasarathy/causalagent/pkg/analysis"
)

// batchResult is one line of batch output.
type batchResult struct {
	File  string          `json:"file"`
	State *analysis.State `json:"state,omitempty"`
	Error string          `json:"error,omitempty"`
}

func batchCmd(a *app) *cobra.Command {
	var (
		concurrency   int
		diagramFormat string
	)

	cmd := &cobra.Command{
		Use:   "batch <file>...",
		Short: "Analyze each file independently and print one JSON result per line",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormats(formatJSON, diagramFormat); err != nil {
				return err
			}
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("concurrency") {
				cfg.Batch.Concurrency = concurrency
			}
			if cfg.Batch.Concurrency < 1 {
				return fmt.Errorf("concurrency must be at least 1, got %d", cfg.Batch.Concurrency)
			}
			az, err := a.analyzer(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signalContext(cmd.Context(), cmd.ErrOrStderr())
			defer stop()
			results := runBatch(ctx, az, args, cfg.Batch.Concurrency, diagramFormat)
			return writeBatch(cmd.OutOrStdout(), results)
		},
	}

	cmd.Flags().IntVarP(&concurrency, "concurrency", "j", 0, "files analyzed at once (default from config)")
	cmd.Flags().StringVar(&diagramFormat, "diagram", diagramMermaid, "diagram format: mermaid or dot")
	return cmd
}

// runBatch analyzes every file as its own invocation, at most limit at a
// time. Results keep the order of files; one failure does not stop the rest.
func runBatch(ctx context.Context, az *analysis.Analyzer, files []string, limit int, diagramFormat string) []batchResult {
	results := make([]batchResult, len(files))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, f := range files {
		g.Go(func() error {
			results[i] = analyzeFile(ctx, az, f, diagramFormat)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func analyzeFile(ctx context.Context, az *analysis.Analyzer, file, diagramFormat string) batchResult {
	res := batchResult{File: file}
	fail := func(err error) batchResult {
		slog.Warn("batch input failed", "file", file, "error", err)
		res.Error = err.Error()
		return res
	}

	text, err := readFile(file)
	if err != nil {
		return fail(err)
	}
	s, err := az.Run(ctx, text)
	if err != nil {
		return fail(presentError(err))
	}
	if s, err = withDiagramFormat(s, diagramFormat); err != nil {
		return fail(err)
	}
	res.State = &s
	return res
}

// writeBatch prints one JSON document per result and reports whether any
// input failed.
func writeBatch(w io.Writer, results []batchResult) error {
	enc := json.NewEncoder(w)
	failed := 0
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("write result for %s: %w", r.File, err)
		}
		if r.Error != "" {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d inputs failed", failed, len(results))
	}
	return nil
}
