package model

// DeclarationKind classifies a declaration
type DeclarationKind string

const (
	KindFunction  DeclarationKind = "FUNCTION"
	KindMethod    DeclarationKind = "METHOD"
	KindClass     DeclarationKind = "CLASS"
	KindInterface DeclarationKind = "INTERFACE"
)

// Declaration is a named, scoped unit of code found in a file
type Declaration struct {
	ID           string          `json:"id"` // Unique within the file: line:qualified-name
	Kind         DeclarationKind `json:"kind"`
	Name         string          `json:"name"`
	Qualified    string          `json:"qualified_name"`
	StartLine    int             `json:"start_line"`
	EndLine      int             `json:"end_line"`
	Parameters   []Parameter     `json:"parameters"`
	Docstring    string          `json:"docstring,omitempty"`
	ParentID     string          `json:"parent,omitempty"`   // Enclosing class for methods
	Receiver     string          `json:"receiver,omitempty"` // Go/Rust receiver type
	Decorators   []string        `json:"decorators,omitempty"`
	NestingDepth int             `json:"nesting_depth"`
}

// IsCallable reports whether the declaration is a function or method
func (d *Declaration) IsCallable() bool {
	return d.Kind == KindFunction || d.Kind == KindMethod
}

// Contains reports whether the line falls inside the declaration span
func (d *Declaration) Contains(line int) bool {
	return line >= d.StartLine && line <= d.EndLine
}

// Parameter is one entry of a declaration's parameter list
type Parameter struct {
	Name     string `json:"name"`
	TypeHint string `json:"type_hint,omitempty"`
}

// ComplexityMetric holds per-declaration complexity
type ComplexityMetric struct {
	DeclarationID string `json:"declaration_id"`
	Cyclomatic    int    `json:"cyclomatic"`
	LinesOfCode   int    `json:"lines_of_code"`
}

// FileComplexity aggregates metrics for one file
type FileComplexity struct {
	Cyclomatic int     `json:"cyclomatic"` // Sum over declarations
	Max        int     `json:"max_cyclomatic"`
	Average    float64 `json:"average_cyclomatic"`
	Lines      int     `json:"lines"` // Non-blank, non-comment lines in the file
}
