package model

import "time"

// FileAnalysis is the full result of analysing one file
type FileAnalysis struct {
	File         SourceFile         `json:"file"`
	Declarations []Declaration      `json:"declarations"`
	Metrics      []ComplexityMetric `json:"metrics"`
	Complexity   FileComplexity     `json:"complexity"`
	Imports      []string           `json:"imports"`
	Dependencies []DependencyEdge   `json:"dependencies"`
	Endpoints    []ApiEndpoint      `json:"endpoints"`
	ParseErrors  []ParseError       `json:"parse_errors"`
	Suggestions  []string           `json:"suggestions,omitempty"`
	Skipped      bool               `json:"skipped,omitempty"` // Unsupported language
}

// NewFileAnalysis returns an empty analysis with non-nil collections
func NewFileAnalysis(file SourceFile) *FileAnalysis {
	return &FileAnalysis{
		File:         file,
		Declarations: make([]Declaration, 0),
		Metrics:      make([]ComplexityMetric, 0),
		Imports:      make([]string, 0),
		Dependencies: make([]DependencyEdge, 0),
		Endpoints:    make([]ApiEndpoint, 0),
		ParseErrors:  make([]ParseError, 0),
	}
}

// Metric returns the complexity metric for a declaration ID
func (fa *FileAnalysis) Metric(id string) (ComplexityMetric, bool) {
	for _, m := range fa.Metrics {
		if m.DeclarationID == id {
			return m, true
		}
	}
	return ComplexityMetric{}, false
}

// Documented returns how many declarations carry a docstring
func (fa *FileAnalysis) Documented() int {
	n := 0
	for _, d := range fa.Declarations {
		if d.Docstring != "" {
			n++
		}
	}
	return n
}

// ComplexitySummary aggregates cyclomatic complexity over a repository
type ComplexitySummary struct {
	Total         int     `json:"total_complexity"`
	Average       float64 `json:"avg_complexity"`
	Max           int     `json:"max_complexity"`
	FilesAnalyzed int     `json:"files_analyzed"`
}

// FileSummary is the per-file line of a repository report
type FileSummary struct {
	Path         string       `json:"path"`
	Language     Language     `json:"language"`
	Declarations int          `json:"declarations"`
	Documented   int          `json:"documented"`
	MaxComplex   int          `json:"max_complexity"`
	ParseErrors  []ParseError `json:"parse_errors,omitempty"`
	Skipped      bool         `json:"skipped,omitempty"`
}

// RepositoryReport is built once per analysis request and never mutated afterwards
type RepositoryReport struct {
	ID                    string            `json:"id"`
	GeneratedAt           time.Time         `json:"generated_at"`
	TotalFiles            int               `json:"total_files"`
	LanguageCounts        map[Language]int  `json:"language_counts"`
	DocumentationCoverage float64           `json:"documentation_coverage"`
	ComplexitySummary     ComplexitySummary `json:"complexity_summary"`
	Languages             map[Language]int  `json:"languages"` // Files that went through structural analysis
	CallGraph             []DependencyEdge  `json:"call_graph"`
	Imports               []DependencyEdge  `json:"imports"`
	Endpoints             []ApiEndpoint     `json:"endpoints"`
	Recommendations       []string          `json:"recommendations"`
	Files                 []FileSummary     `json:"files"`
	Failures              int               `json:"failures"`
	Limitations           []string          `json:"limitations"`
}
