package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/QTest-hq/codescope/internal/analysis"
	"github.com/QTest-hq/codescope/internal/config"
	"github.com/QTest-hq/codescope/internal/github"
	"github.com/QTest-hq/codescope/pkg/model"
)

type analyzeOptions struct {
	path      string
	repoURL   string
	languages []string
	maxDepth  int
	workers   int
}

func analyzeCmd() *cobra.Command {
	var (
		opts       analyzeOptions
		jsonOut    bool
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a local directory or GitHub repository",
		Example: `  codescope analyze -p ./myproject
  codescope analyze -r https://github.com/owner/repo --languages python,go
  codescope analyze -p . -o report.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.repoURL != "" && cmd.Flags().Changed("path") {
				return fmt.Errorf("--path and --repo are mutually exclusive")
			}

			start := time.Now()
			report, err := runAnalyze(cmd.Context(), opts)
			if err != nil {
				return err
			}

			if outputFile != "" {
				f, err := os.Create(outputFile)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				if err := writeJSON(f, report); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", outputFile)
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			printReport(cmd.OutOrStdout(), report)
			fmt.Fprintf(cmd.OutOrStdout(), "\nCompleted in %s\n", formatDuration(time.Since(start)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.path, "path", "p", ".", "Path to repository")
	cmd.Flags().StringVarP(&opts.repoURL, "repo", "r", "", "GitHub repository URL")
	cmd.Flags().StringSliceVar(&opts.languages, "languages", nil, "Only analyze these languages")
	cmd.Flags().IntVar(&opts.maxDepth, "max-depth", 0, "Maximum directory depth for local paths (0 = unlimited)")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "Parallel file workers (default ANALYSIS_WORKERS)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the report as JSON")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write the JSON report to a file")

	return cmd
}

// runAnalyze collects files from a local path or repository URL and reduces them into a report
func runAnalyze(ctx context.Context, opts analyzeOptions) (*model.RepositoryReport, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.workers > 0 {
		cfg.Analysis.Workers = opts.workers
	}

	var overrides *config.ProjectConfig
	if len(opts.languages) > 0 {
		overrides = &config.ProjectConfig{Languages: opts.languages}
	}

	var (
		files   []model.SourceFile
		project *config.ProjectConfig
	)
	if opts.repoURL != "" {
		fetcher := github.NewFetcher(cfg.CloneDir, cfg.GitHubToken, cfg.Analysis.MaxFileBytes)
		checkout, err := fetcher.Fetch(ctx, opts.repoURL, overrides)
		if err != nil {
			return nil, err
		}
		files, project = checkout.Files, checkout.Project
	} else {
		project, err = config.LoadProjectConfig(opts.path)
		if err != nil {
			return nil, fmt.Errorf("failed to load project config: %w", err)
		}
		project.Merge(overrides)
		files, err = github.Discover(ctx, opts.path, github.DiscoverOptions{
			Project:  project,
			MaxDepth: opts.maxDepth,
			MaxBytes: cfg.Analysis.MaxFileBytes,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to discover files: %w", err)
		}
	}
	if project == nil {
		project = config.DefaultProjectConfig()
	}

	a := analysis.New(cfg.Analysis)
	return a.AnalyzeRepository(ctx, files, analysis.RepositoryOptions{
		Languages:  project.LanguageFilter(),
		Thresholds: project.Thresholds,
	})
}

func printReport(w io.Writer, r *model.RepositoryReport) {
	fmt.Fprintf(w, "Report: %s\n", r.ID)
	fmt.Fprintf(w, "Files: %d (analyzed %d, with parse errors %d)\n", r.TotalFiles, r.ComplexitySummary.FilesAnalyzed, r.Failures)

	langs := make([]string, 0, len(r.Languages))
	for l := range r.Languages {
		langs = append(langs, string(l))
	}
	sort.Strings(langs)
	for _, l := range langs {
		fmt.Fprintf(w, "  %-12s %d\n", l, r.Languages[model.Language(l)])
	}

	fmt.Fprintf(w, "Documentation coverage: %.1f%%\n", r.DocumentationCoverage*100)
	fmt.Fprintf(w, "Complexity: total %d, average %.2f, max %d\n",
		r.ComplexitySummary.Total, r.ComplexitySummary.Average, r.ComplexitySummary.Max)
	fmt.Fprintf(w, "Call edges: %d, import edges: %d, endpoints: %d\n", len(r.CallGraph), len(r.Imports), len(r.Endpoints))

	fmt.Fprintln(w, "\nRecommendations:")
	for _, rec := range r.Recommendations {
		fmt.Fprintf(w, "  - %s\n", rec)
	}
	for _, l := range r.Limitations {
		fmt.Fprintf(w, "Note: %s\n", l)
	}
}
