package analysis

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/QTest-hq/codescope/internal/config"
	"github.com/QTest-hq/codescope/internal/deps"
	apperrors "github.com/QTest-hq/codescope/internal/errors"
	"github.com/QTest-hq/codescope/pkg/model"
)

// RepositoryOptions tunes one repository analysis
type RepositoryOptions struct {
	// Languages restricts the batch; nil or empty admits every language
	Languages map[model.Language]bool

	// Thresholds drive the recommendations; the zero value means defaults
	Thresholds config.Thresholds
}

// AnalyzeRepository analyses files in parallel and reduces the results into a
// single report. One failing file never aborts the batch; cancelling ctx does.
func (a *Analyzer) AnalyzeRepository(ctx context.Context, files []model.SourceFile, opts RepositoryOptions) (*model.RepositoryReport, error) {
	if len(files) == 0 {
		return nil, apperrors.New(apperrors.InputError, "no files to analyze")
	}

	selected := files
	if len(opts.Languages) > 0 {
		selected = make([]model.SourceFile, 0, len(files))
		for _, f := range files {
			if opts.Languages[f.Language] {
				selected = append(selected, f)
			}
		}
	}

	start := time.Now()
	results := make([]*model.FileAnalysis, len(selected))
	err := a.pool.Run(ctx, len(selected), func(ctx context.Context, i int) error {
		fa, err := a.AnalyzeFile(ctx, selected[i])
		if err != nil {
			return err
		}
		results[i] = fa
		return nil
	})
	if err != nil {
		return nil, err
	}

	thresholds := opts.Thresholds
	if thresholds == (config.Thresholds{}) {
		thresholds = config.DefaultThresholds()
	}
	report := Reduce(results, thresholds)

	log.Info().
		Str("report_id", report.ID).
		Int("files", report.TotalFiles).
		Int("analyzed", report.ComplexitySummary.FilesAnalyzed).
		Int("failures", report.Failures).
		Dur("duration", time.Since(start)).
		Msg("repository analyzed")
	return report, nil
}

// Reduce folds per-file analyses into a report in input order
func Reduce(results []*model.FileAnalysis, thresholds config.Thresholds) *model.RepositoryReport {
	report := &model.RepositoryReport{
		ID:              uuid.New().String(),
		GeneratedAt:     time.Now().UTC(),
		LanguageCounts:  make(map[model.Language]int),
		Languages:       make(map[model.Language]int),
		CallGraph:       make([]model.DependencyEdge, 0),
		Imports:         make([]model.DependencyEdge, 0),
		Endpoints:       make([]model.ApiEndpoint, 0),
		Recommendations: make([]string, 0),
		Files:           make([]model.FileSummary, 0, len(results)),
		Limitations:     append([]string(nil), deps.Limitations...),
	}

	var (
		declarations int
		documented   int
		metrics      int
		overMax      int
	)
	for _, fa := range results {
		if fa == nil {
			continue
		}
		report.TotalFiles++
		report.LanguageCounts[fa.File.Language]++

		summary := model.FileSummary{
			Path:         fa.File.Path,
			Language:     fa.File.Language,
			Declarations: len(fa.Declarations),
			Documented:   fa.Documented(),
			MaxComplex:   fa.Complexity.Max,
			Skipped:      fa.Skipped,
		}
		if len(fa.ParseErrors) > 0 {
			summary.ParseErrors = fa.ParseErrors
			report.Failures++
		}
		report.Files = append(report.Files, summary)
		if fa.Skipped {
			continue
		}

		report.Languages[fa.File.Language]++
		report.ComplexitySummary.FilesAnalyzed++
		declarations += summary.Declarations
		documented += summary.Documented

		for _, m := range fa.Metrics {
			metrics++
			report.ComplexitySummary.Total += m.Cyclomatic
			if m.Cyclomatic > report.ComplexitySummary.Max {
				report.ComplexitySummary.Max = m.Cyclomatic
			}
			if m.Cyclomatic > thresholds.MaxComplexity {
				overMax++
			}
		}
		for _, e := range fa.Dependencies {
			switch e.Kind {
			case model.EdgeCall:
				report.CallGraph = append(report.CallGraph, e)
			case model.EdgeImport:
				report.Imports = append(report.Imports, e)
			}
		}
		report.Endpoints = append(report.Endpoints, fa.Endpoints...)
	}

	if declarations > 0 {
		report.DocumentationCoverage = round(float64(documented)/float64(declarations), 4)
	}
	if metrics > 0 {
		report.ComplexitySummary.Average = round(float64(report.ComplexitySummary.Total)/float64(metrics), 2)
	}
	report.Recommendations = recommend(report, declarations, overMax, thresholds)
	return report
}

func recommend(r *model.RepositoryReport, declarations, overMax int, th config.Thresholds) []string {
	recs := make([]string, 0)
	if r.ComplexitySummary.FilesAnalyzed == 0 {
		recs = append(recs, "No code files detected - check repository structure")
	}
	if declarations > 0 && r.DocumentationCoverage < th.Coverage {
		recs = append(recs, fmt.Sprintf("Increase docstring coverage: %.0f%% of declarations are documented", r.DocumentationCoverage*100))
	}
	if overMax > 0 {
		recs = append(recs, fmt.Sprintf("Refactor high-complexity functions: %d declarations exceed cyclomatic complexity %d", overMax, th.MaxComplexity))
	}
	if r.ComplexitySummary.Average > th.AvgComplexity {
		recs = append(recs, fmt.Sprintf("High average complexity (%.1f) - consider splitting large functions", r.ComplexitySummary.Average))
	}
	if r.TotalFiles > th.LargeRepoFiles {
		recs = append(recs, "Large codebase - consider organizing into modules")
	}
	if r.Failures > 0 {
		recs = append(recs, fmt.Sprintf("Fix parse errors in %d file(s)", r.Failures))
	}
	if len(recs) == 0 {
		recs = append(recs, "Code analysis completed successfully")
	}
	return recs
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
