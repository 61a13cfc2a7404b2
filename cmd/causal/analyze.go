package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ravi-parthasarathy/causalagent/pkg/analysis"
)

var errNoInput = errors.New("no input text: pass it as arguments, with --file, or on stdin")

func analyzeCmd(a *app) *cobra.Command {
	var (
		file          string
		format        string
		diagramFormat string
		output        string
	)

	cmd := &cobra.Command{
		Use:   "analyze [text...]",
		Short: "Classify text and extract, summarize or reject it",
		Example: `  causal analyze "Heavy rain causes flooding, which damages crops."
  causal analyze --file report.txt --diagram dot
  echo "The economy grew steadily." | causal analyze --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormats(format, diagramFormat); err != nil {
				return err
			}
			text, err := readInput(cmd.InOrStdin(), args, file)
			if err != nil {
				return err
			}
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			az, err := a.analyzer(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signalContext(cmd.Context(), cmd.ErrOrStderr())
			defer stop()
			s, err := az.Run(ctx, text)
			if err != nil {
				return presentError(err)
			}
			if s, err = withDiagramFormat(s, diagramFormat); err != nil {
				return err
			}
			if err := writeOutput(output, s); err != nil {
				return err
			}
			if s.Partial {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: extraction output could not be parsed, no relationships shown (%s)\n", s.ExtractionError)
			}
			return render(cmd.OutOrStdout(), s, format)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "read input text from file")
	cmd.Flags().StringVar(&format, "format", formatText, "output format: text, json or yaml")
	cmd.Flags().StringVar(&diagramFormat, "diagram", diagramMermaid, "diagram format: mermaid or dot")
	cmd.Flags().StringVarP(&output, "output", "o", "", "also write the result as JSON to this file")
	return cmd
}

// readInput takes text from args, then --file, then stdin. Blank text is
// refused before any model is called.
func readInput(stdin io.Reader, args []string, file string) (string, error) {
	var text string
	switch {
	case len(args) > 0 && file != "":
		return "", errors.New("pass input text as arguments or with --file, not both")
	case len(args) > 0:
		text = strings.Join(args, " ")
	case file != "":
		return readFile(file)
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return "", errNoInput
	}
	return text, nil
}

// readFile reads one input file and refuses blank text.
func readFile(path string) (string, error) {
	if path == "" {
		return "", errors.New("read input: empty file name")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return "", errNoInput
	}
	return text, nil
}

// presentError turns a fatal model failure into the user-facing retry hint.
func presentError(err error) error {
	if errors.Is(err, analysis.ErrModel) {
		return fmt.Errorf("analysis failed, try again: %w", err)
	}
	return err
}
