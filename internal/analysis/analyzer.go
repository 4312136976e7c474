// Package analysis runs the per-file pipeline (scan, extract, complexity,
// dependencies) and aggregates many files into a repository report.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/QTest-hq/codescope/internal/complexity"
	"github.com/QTest-hq/codescope/internal/config"
	"github.com/QTest-hq/codescope/internal/deps"
	apperrors "github.com/QTest-hq/codescope/internal/errors"
	"github.com/QTest-hq/codescope/internal/lexer"
	"github.com/QTest-hq/codescope/internal/parser"
	"github.com/QTest-hq/codescope/internal/worker"
	"github.com/QTest-hq/codescope/pkg/model"
)

// errFileTimeout marks a file whose budget ran out while the request is still live
var errFileTimeout = errors.New("file analysis budget exceeded")

type pipelineFunc func(ctx context.Context, fa *model.FileAnalysis) error

// Analyzer is safe for concurrent use
type Analyzer struct {
	cfg      config.AnalysisConfig
	cache    *Cache
	pool     *worker.Pool
	pipeline pipelineFunc
}

// New creates an analyzer with the given limits
func New(cfg config.AnalysisConfig) *Analyzer {
	a := &Analyzer{
		cfg:   cfg,
		cache: NewCache(cfg.CacheEntries),
		pool:  worker.NewPool(worker.PoolConfig{Name: "files", Size: cfg.Workers}),
	}
	a.pipeline = a.run
	return a
}

// Cache exposes the analysis cache
func (a *Analyzer) Cache() *Cache {
	return a.cache
}

// AnalyzeFile runs the full pipeline on one file. Malformed code, panics and
// an exhausted per-file budget all end up in ParseErrors; the only error
// returned is the parent context's.
func (a *Analyzer) AnalyzeFile(ctx context.Context, file model.SourceFile) (*model.FileAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fa := model.NewFileAnalysis(file)

	if !file.Language.IsSupported() {
		fa.Skipped = true
		fa.Suggestions = Suggestions(fa)
		return fa, nil
	}
	// Oversized files may arrive without content, carrying only their size
	size := max(file.SizeBytes, len(file.Content))
	if a.cfg.MaxFileBytes > 0 && size > a.cfg.MaxFileBytes {
		fa.ParseErrors = append(fa.ParseErrors, model.ParseError{
			Line:    0,
			Message: fmt.Sprintf("file is %d bytes, larger than the %d byte limit; not analyzed", size, a.cfg.MaxFileBytes),
			Code:    string(apperrors.ParseWarning),
		})
		return fa, nil
	}

	key := CacheKey(file)
	if cached, ok := a.cache.Get(key); ok {
		return cached, nil
	}

	fctx := ctx
	if a.cfg.FileTimeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, a.cfg.FileTimeout)
		defer cancel()
	}

	err := a.safeRun(fctx, fa)
	switch {
	case err == nil:
		a.cache.Put(key, fa)
		return fa, nil
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, errFileTimeout):
		log.Warn().Str("file", file.Path).Str("language", string(file.Language)).Dur("timeout", a.cfg.FileTimeout).Msg("file analysis timed out")
		return partial(fa, model.ParseError{
			Message: fmt.Sprintf("analysis exceeded its %s budget", a.cfg.FileTimeout),
			Code:    string(apperrors.Timeout),
		}), nil
	default:
		log.Warn().Err(err).Str("file", file.Path).Str("language", string(file.Language)).Msg("file analysis failed")
		return partial(fa, model.ParseError{
			Message: err.Error(),
			Code:    string(apperrors.ParseWarning),
		}), nil
	}
}

// partial records why analysis stopped. Each stage of run assigns its output
// only once the stage has finished, so whatever fa holds is complete.
func partial(fa *model.FileAnalysis, cause model.ParseError) *model.FileAnalysis {
	out := *fa
	out.ParseErrors = append(append(make([]model.ParseError, 0, len(fa.ParseErrors)+1), fa.ParseErrors...), cause)
	out.Suggestions = Suggestions(&out)
	return &out
}

// safeRun converts a panic in the pipeline into an error
func (a *Analyzer) safeRun(ctx context.Context, fa *model.FileAnalysis) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.Newf(apperrors.InternalError, "internal error while analysing file: %v", r)
		}
	}()
	return a.pipeline(ctx, fa)
}

func checkBudget(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return errFileTimeout
		}
		return err
	}
	return nil
}

// run is the per-file pipeline. Tokens live only for the duration of this call.
func (a *Analyzer) run(ctx context.Context, fa *model.FileAnalysis) error {
	file := fa.File
	start := time.Now()

	res, err := lexer.Scan(ctx, file.Content, file.Language)
	if err != nil {
		return err
	}
	fa.ParseErrors = append(fa.ParseErrors, res.Errors...)
	if err := checkBudget(ctx); err != nil {
		return err
	}

	pr, err := parser.Extract(ctx, res, file.Language)
	if err != nil {
		return err
	}
	fa.Declarations = pr.Declarations
	fa.ParseErrors = append(fa.ParseErrors, pr.Errors...)
	if err := checkBudget(ctx); err != nil {
		return err
	}

	metrics := complexity.Analyze(res, fa.Declarations, file.Language)
	fa.Metrics, fa.Complexity = metrics, complexity.Summarize(res, metrics)
	if err := checkBudget(ctx); err != nil {
		return err
	}

	d := deps.Extract(res, fa.Declarations, file)
	fa.Dependencies = append(append(fa.Dependencies, d.Imports...), d.Calls...)
	fa.Imports = deps.ModuleNames(d.Imports)
	fa.Endpoints = d.Endpoints
	if err := checkBudget(ctx); err != nil {
		return err
	}

	// The grammar check only adds information when the scanner and the
	// extractor found nothing wrong
	if a.cfg.SyntaxCheck && len(fa.ParseErrors) == 0 {
		diag, err := parser.SyntaxCheck(ctx, file.Path, file.Content, file.Language)
		if err != nil {
			if cerr := checkBudget(ctx); cerr != nil {
				return cerr
			}
			log.Debug().Err(err).Str("file", file.Path).Msg("syntax check failed")
		} else if diag != nil {
			fa.ParseErrors = append(fa.ParseErrors, *diag)
		}
	}

	fa.Suggestions = Suggestions(fa)

	log.Debug().
		Str("file", file.Path).
		Str("language", string(file.Language)).
		Int("declarations", len(fa.Declarations)).
		Dur("duration", time.Since(start)).
		Msg("file analyzed")
	return nil
}
