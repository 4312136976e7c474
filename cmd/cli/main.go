package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/QTest-hq/codescope/internal/analysis"
	"github.com/QTest-hq/codescope/internal/config"
	"github.com/QTest-hq/codescope/internal/lang"
	"github.com/QTest-hq/codescope/internal/swagger"
	"github.com/QTest-hq/codescope/pkg/model"
)

var version = "dev"

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "codescope",
		Short:         "codescope - multi-language code structure analysis",
		Long:          `codescope extracts declarations, complexity, dependencies and API endpoints from source code and normalizes Swagger/OpenAPI documents.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	// Add subcommands
	root.AddCommand(parseCmd())
	root.AddCommand(analyzeCmd())
	root.AddCommand(swaggerCmd())
	root.AddCommand(languagesCmd())

	return root
}

// analysisConfig returns the pipeline limits, honouring ANALYSIS_* variables
func analysisConfig() config.AnalysisConfig {
	cfg, err := config.Load()
	if err != nil {
		return config.DefaultAnalysisConfig()
	}
	return cfg.Analysis
}

func parseCmd() *cobra.Command {
	var (
		filePath string
		language string
		jsonOut  bool
	)

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse a source file and show its structure",
		Example: `  codescope parse -f app.py
  codescope parse -f script --language ruby --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(filePath)
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}

			l := lang.Detect(filePath, string(data), language)
			if !l.IsSupported() {
				log.Warn().Str("file", filePath).Msg("language not recognised; structure is not extracted")
			}

			a := analysis.New(analysisConfig())
			fa, err := a.AnalyzeFile(cmd.Context(), model.NewSourceFile(filePath, string(data), l))
			if err != nil {
				return fmt.Errorf("failed to analyze file: %w", err)
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), fa)
			}
			printFileAnalysis(cmd.OutOrStdout(), fa)
			return nil
		},
	}

	cmd.Flags().StringVarP(&filePath, "file", "f", "", "Source file to parse")
	cmd.Flags().StringVarP(&language, "language", "l", "", "Language override (e.g. python, js, c++)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the full analysis as JSON")
	cmd.MarkFlagRequired("file")

	return cmd
}

func swaggerCmd() *cobra.Command {
	var (
		filePath string
		format   string
		jsonOut  bool
	)

	cmd := &cobra.Command{
		Use:   "swagger",
		Short: "Normalize a Swagger 2.0 or OpenAPI 3.x document",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(filePath)
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}

			f, err := swagger.ParseFormat(format)
			if err != nil {
				return err
			}
			doc, err := swagger.Normalize(string(data), f)
			if err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), doc)
			}
			fmt.Fprintln(cmd.OutOrStdout(), doc.Documentation)
			return nil
		},
	}

	cmd.Flags().StringVarP(&filePath, "file", "f", "", "Swagger/OpenAPI document")
	cmd.Flags().StringVar(&format, "format", "auto", "Document format (auto, json, yaml)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the normalized document as JSON")
	cmd.MarkFlagRequired("file")

	return cmd
}

func languagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported languages",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, info := range lang.Supported() {
				fmt.Fprintf(out, "%-12s %-12s %s\n", info.ID, info.Name, strings.Join(info.Extensions, " "))
			}
			return nil
		},
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printFileAnalysis(w io.Writer, fa *model.FileAnalysis) {
	fmt.Fprintf(w, "File: %s\n", fa.File.Path)
	fmt.Fprintf(w, "Language: %s\n", fa.File.Language)
	if fa.Skipped {
		fmt.Fprintln(w, "Skipped: language not supported")
	}
	fmt.Fprintf(w, "Declarations: %d (documented %d)\n", len(fa.Declarations), fa.Documented())
	fmt.Fprintf(w, "Complexity: total %d, max %d, avg %.2f, %d lines\n\n",
		fa.Complexity.Cyclomatic, fa.Complexity.Max, fa.Complexity.Average, fa.Complexity.Lines)

	for i, d := range fa.Declarations {
		indent := strings.Repeat("  ", d.NestingDepth)
		fmt.Fprintf(w, "%s%d. %s %s [lines %d-%d]", indent, i+1, strings.ToLower(string(d.Kind)), d.Qualified, d.StartLine, d.EndLine)
		if m, ok := fa.Metric(d.ID); ok && d.IsCallable() {
			fmt.Fprintf(w, " cc=%d", m.Cyclomatic)
		}
		fmt.Fprintln(w)
		if len(d.Parameters) > 0 {
			names := make([]string, 0, len(d.Parameters))
			for _, p := range d.Parameters {
				if p.TypeHint != "" {
					names = append(names, p.Name+" "+p.TypeHint)
				} else {
					names = append(names, p.Name)
				}
			}
			fmt.Fprintf(w, "%s   Parameters: %s\n", indent, strings.Join(names, ", "))
		}
	}

	if len(fa.Imports) > 0 {
		fmt.Fprintf(w, "\nImports: %s\n", strings.Join(fa.Imports, ", "))
	}
	for _, ep := range fa.Endpoints {
		fmt.Fprintf(w, "Endpoint: %s %s -> %s\n", ep.Method, ep.Path, ep.Handler)
	}
	for _, pe := range fa.ParseErrors {
		fmt.Fprintf(w, "Warning: line %d: %s\n", pe.Line, pe.Message)
	}
	for _, s := range fa.Suggestions {
		fmt.Fprintf(w, "Suggestion: %s\n", s)
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
