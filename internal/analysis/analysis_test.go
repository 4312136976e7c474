package analysis

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/QTest-hq/codescope/internal/config"
	apperrors "github.com/QTest-hq/codescope/internal/errors"
	"github.com/QTest-hq/codescope/pkg/model"
)

func testConfig() config.AnalysisConfig {
	return config.AnalysisConfig{
		Workers:      2,
		FileTimeout:  5 * time.Second,
		MaxFileBytes: 1 << 20,
		SyntaxCheck:  false,
		CacheEntries: 16,
	}
}

const addSource = "def add(a, b):\n    if a > 0:\n        return a + b\n    return 0\n"

func TestAnalyzeFile_Python(t *testing.T) {
	a := New(testConfig())

	fa, err := a.AnalyzeFile(context.Background(), model.NewSourceFile("add.py", addSource, model.LanguagePython))
	require.NoError(t, err)

	require.Len(t, fa.Declarations, 1)
	add := fa.Declarations[0]
	assert.Equal(t, "add", add.Name)
	assert.Equal(t, 1, add.StartLine)
	assert.Equal(t, 4, add.EndLine)

	m, ok := fa.Metric(add.ID)
	require.True(t, ok)
	assert.Equal(t, 2, m.Cyclomatic)
	assert.Equal(t, 2, fa.Complexity.Max)
	assert.Empty(t, fa.ParseErrors)
	assert.Equal(t, []string{"Add docstrings to functions for better documentation"}, fa.Suggestions)
}

func TestAnalyzeFile_Dependencies(t *testing.T) {
	a := New(testConfig())
	src := "import os\n\ndef run():\n    os.getcwd()\n"

	fa, err := a.AnalyzeFile(context.Background(), model.NewSourceFile("run.py", src, model.LanguagePython))
	require.NoError(t, err)

	assert.Equal(t, []string{"os"}, fa.Imports)
	var kinds []model.EdgeKind
	for _, e := range fa.Dependencies {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []model.EdgeKind{model.EdgeImport, model.EdgeCall}, kinds)
	assert.Equal(t, "os.getcwd", fa.Dependencies[1].CalleeName)
}

func TestAnalyzeFile_Unsupported(t *testing.T) {
	a := New(testConfig())

	fa, err := a.AnalyzeFile(context.Background(), model.NewSourceFile("README", "hello", model.LanguageUnknown))
	require.NoError(t, err)
	assert.True(t, fa.Skipped)
	assert.Empty(t, fa.Declarations)
	assert.Empty(t, fa.ParseErrors)
	assert.Equal(t, []string{"Consider using language-specific parsers"}, fa.Suggestions)
}

func TestAnalyzeFile_Oversized(t *testing.T) {
	cfg := testConfig()
	cfg.MaxFileBytes = 10
	a := New(cfg)

	fa, err := a.AnalyzeFile(context.Background(), model.NewSourceFile("add.py", addSource, model.LanguagePython))
	require.NoError(t, err)
	assert.Empty(t, fa.Declarations)
	require.Len(t, fa.ParseErrors, 1)
	assert.Equal(t, string(apperrors.ParseWarning), fa.ParseErrors[0].Code)
	assert.Contains(t, fa.ParseErrors[0].Message, "byte limit")
}

func TestAnalyzeFile_OversizedWithoutContent(t *testing.T) {
	a := New(testConfig())
	file := model.NewSourceFile("huge.py", "", model.LanguagePython)
	file.SizeBytes = 2 << 20

	fa, err := a.AnalyzeFile(context.Background(), file)
	require.NoError(t, err)
	require.Len(t, fa.ParseErrors, 1)
	assert.Contains(t, fa.ParseErrors[0].Message, "2097152 bytes")
}

func TestAnalyzeFile_Timeout(t *testing.T) {
	cfg := testConfig()
	cfg.FileTimeout = 20 * time.Millisecond
	a := New(cfg)
	a.pipeline = func(ctx context.Context, fa *model.FileAnalysis) error {
		<-ctx.Done()
		return ctx.Err()
	}

	fa, err := a.AnalyzeFile(context.Background(), model.NewSourceFile("slow.py", addSource, model.LanguagePython))
	require.NoError(t, err)
	require.Len(t, fa.ParseErrors, 1)
	assert.Equal(t, string(apperrors.Timeout), fa.ParseErrors[0].Code)
	assert.Equal(t, 0, a.Cache().Len())
}

// countdownCtx reports an expired deadline once Err has been consulted left times
type countdownCtx struct {
	context.Context
	left int
}

func (c *countdownCtx) Err() error {
	if c.left <= 0 {
		return context.DeadlineExceeded
	}
	c.left--
	return nil
}

func TestAnalyzeFile_TimeoutKeepsFinishedStages(t *testing.T) {
	a := New(testConfig())
	a.pipeline = func(ctx context.Context, fa *model.FileAnalysis) error {
		// The budget holds through scanning and runs out right after extraction
		return a.run(&countdownCtx{Context: ctx, left: 1}, fa)
	}

	fa, err := a.AnalyzeFile(context.Background(), model.NewSourceFile("add.py", addSource, model.LanguagePython))
	require.NoError(t, err)

	require.Len(t, fa.Declarations, 1)
	assert.Equal(t, "add", fa.Declarations[0].Name)
	assert.Empty(t, fa.Metrics)
	assert.Empty(t, fa.Dependencies)
	require.Len(t, fa.ParseErrors, 1)
	assert.Equal(t, string(apperrors.Timeout), fa.ParseErrors[0].Code)
	assert.Equal(t, 0, a.Cache().Len())
}

func TestAnalyzeFile_DeeplyNestedUnclosed(t *testing.T) {
	cfg := testConfig()
	cfg.FileTimeout = 2 * time.Second
	cfg.MaxFileBytes = 0
	a := New(cfg)

	const depth = 40000
	src := strings.Repeat("function f() {\n", depth)

	start := time.Now()
	fa, err := a.AnalyzeFile(context.Background(), model.NewSourceFile("deep.js", src, model.LanguageJavaScript))
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 10*time.Second)

	assert.LessOrEqual(t, len(fa.ParseErrors), 25)
	last := fa.ParseErrors[len(fa.ParseErrors)-1]
	if last.Code == string(apperrors.Timeout) {
		return
	}
	require.Len(t, fa.Declarations, depth)
	assert.Equal(t, "f", fa.Declarations[depth-1].Qualified)
	assert.Len(t, fa.Metrics, depth)
}

func TestAnalyzeFile_PanicIsolated(t *testing.T) {
	a := New(testConfig())
	a.pipeline = func(ctx context.Context, fa *model.FileAnalysis) error {
		panic("boom")
	}

	fa, err := a.AnalyzeFile(context.Background(), model.NewSourceFile("bad.py", addSource, model.LanguagePython))
	require.NoError(t, err)
	require.Len(t, fa.ParseErrors, 1)
	assert.Equal(t, string(apperrors.ParseWarning), fa.ParseErrors[0].Code)
	assert.Contains(t, fa.ParseErrors[0].Message, "boom")
	assert.Empty(t, fa.Declarations)
}

func TestAnalyzeFile_ParentCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	a := New(testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.AnalyzeFile(ctx, model.NewSourceFile("add.py", addSource, model.LanguagePython))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeFile_Cache(t *testing.T) {
	a := New(testConfig())
	file := model.NewSourceFile("add.py", addSource, model.LanguagePython)

	first, err := a.AnalyzeFile(context.Background(), file)
	require.NoError(t, err)
	second, err := a.AnalyzeFile(context.Background(), file)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, a.Cache().Len())
	hits, misses := a.Cache().Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)

	renamed := model.NewSourceFile("other.py", addSource, model.LanguagePython)
	third, err := a.AnalyzeFile(context.Background(), renamed)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}

func TestAnalyzeFile_SyntaxCheck(t *testing.T) {
	cfg := testConfig()
	cfg.SyntaxCheck = true
	a := New(cfg)

	fa, err := a.AnalyzeFile(context.Background(), model.NewSourceFile("add.py", addSource, model.LanguagePython))
	require.NoError(t, err)
	assert.Empty(t, fa.ParseErrors)
}

func TestCache_Eviction(t *testing.T) {
	c := NewCache(2)
	fa := func(p string) *model.FileAnalysis {
		return model.NewFileAnalysis(model.NewSourceFile(p, "", model.LanguageGo))
	}

	c.Put(1, fa("a"))
	c.Put(2, fa("b"))
	c.Put(3, fa("c"))

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get(1)
	assert.False(t, ok)
	got, ok := c.Get(3)
	require.True(t, ok)
	assert.Equal(t, "c", got.File.Path)

	disabled := NewCache(0)
	disabled.Put(1, fa("a"))
	_, ok = disabled.Get(1)
	assert.False(t, ok)
}

func TestCacheKey(t *testing.T) {
	a := model.NewSourceFile("a.py", "x = 1", model.LanguagePython)
	b := model.NewSourceFile("a.py", "x = 1", model.LanguageRuby)
	c := model.NewSourceFile("a.py", "x = 2", model.LanguagePython)

	assert.Equal(t, CacheKey(a), CacheKey(a))
	assert.NotEqual(t, CacheKey(a), CacheKey(b))
	assert.NotEqual(t, CacheKey(a), CacheKey(c))
}

func TestAnalyzeRepository_PartialFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	files := []model.SourceFile{
		model.NewSourceFile("add.py", addSource, model.LanguagePython),
		model.NewSourceFile("broken.py", "def broken():\n    s = \"abc\n    return s\n", model.LanguagePython),
		model.NewSourceFile("mul.js", "function mul(a, b) {\n  return a * b;\n}\n", model.LanguageJavaScript),
	}

	report, err := New(testConfig()).AnalyzeRepository(context.Background(), files, RepositoryOptions{})
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, 3, report.TotalFiles)
	assert.Equal(t, map[model.Language]int{model.LanguagePython: 2, model.LanguageJavaScript: 1}, report.LanguageCounts)
	assert.Equal(t, 3, report.ComplexitySummary.FilesAnalyzed)
	assert.Equal(t, 2, report.ComplexitySummary.Max)
	assert.Equal(t, 1, report.Failures)

	require.Len(t, report.Files, 3)
	assert.Equal(t, "add.py", report.Files[0].Path)
	assert.Equal(t, 1, report.Files[0].Declarations)
	assert.Empty(t, report.Files[0].ParseErrors)
	assert.NotEmpty(t, report.Files[1].ParseErrors)
	assert.Equal(t, 1, report.Files[2].Declarations)
	assert.Empty(t, report.Files[2].ParseErrors)

	assert.Equal(t, 0.0, report.DocumentationCoverage)
	assert.Contains(t, report.Recommendations, "Increase docstring coverage: 0% of declarations are documented")
	assert.Contains(t, report.Recommendations, "Fix parse errors in 1 file(s)")
	assert.NotEmpty(t, report.Limitations)
}

func TestAnalyzeRepository_EmptyInput(t *testing.T) {
	_, err := New(testConfig()).AnalyzeRepository(context.Background(), nil, RepositoryOptions{})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.InputError))
}

func TestAnalyzeRepository_LanguageFilter(t *testing.T) {
	files := []model.SourceFile{
		model.NewSourceFile("add.py", addSource, model.LanguagePython),
		model.NewSourceFile("mul.js", "function mul(a, b) { return a * b; }\n", model.LanguageJavaScript),
	}
	opts := RepositoryOptions{Languages: map[model.Language]bool{model.LanguagePython: true}}

	report, err := New(testConfig()).AnalyzeRepository(context.Background(), files, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalFiles)
	assert.Equal(t, map[model.Language]int{model.LanguagePython: 1}, report.Languages)
}

func TestAnalyzeRepository_Cancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	a := New(testConfig())
	a.pipeline = func(ctx context.Context, fa *model.FileAnalysis) error {
		<-ctx.Done()
		return ctx.Err()
	}

	files := make([]model.SourceFile, 20)
	for i := range files {
		files[i] = model.NewSourceFile(fmt.Sprintf("f%d.py", i), addSource, model.LanguagePython)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	report, err := a.AnalyzeRepository(ctx, files, RepositoryOptions{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, report)
}

func TestAnalyzeRepository_Concurrent(t *testing.T) {
	files := make([]model.SourceFile, 40)
	for i := range files {
		src := fmt.Sprintf("def f%d(x):\n    \"\"\"Doc.\"\"\"\n    return x\n", i)
		files[i] = model.NewSourceFile(fmt.Sprintf("m%02d.py", i), src, model.LanguagePython)
	}

	report, err := New(testConfig()).AnalyzeRepository(context.Background(), files, RepositoryOptions{})
	require.NoError(t, err)
	require.Len(t, report.Files, 40)
	for i, f := range report.Files {
		assert.Equal(t, files[i].Path, f.Path)
	}
	assert.Equal(t, 1.0, report.DocumentationCoverage)
	assert.Equal(t, 40, report.ComplexitySummary.Total)
	assert.Equal(t, 1.0, report.ComplexitySummary.Average)
	assert.Equal(t, []string{"Code analysis completed successfully"}, report.Recommendations)
}
