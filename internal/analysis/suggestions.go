package analysis

import "github.com/QTest-hq/codescope/pkg/model"

const (
	suggestComplexity = 10
	suggestFunctions  = 20
)

// Suggestions returns improvement hints for a single analysed file
func Suggestions(fa *model.FileAnalysis) []string {
	out := make([]string, 0)
	if fa.Skipped {
		return append(out, "Consider using language-specific parsers")
	}
	if fa.Complexity.Max > suggestComplexity {
		out = append(out, "Consider breaking down complex functions into smaller ones")
	}

	functions, documented := 0, 0
	for _, d := range fa.Declarations {
		if d.Kind != model.KindFunction && d.Kind != model.KindMethod {
			continue
		}
		functions++
		if d.Docstring != "" {
			documented++
		}
	}
	if functions > suggestFunctions {
		out = append(out, "Consider organizing code into modules")
	}
	if functions > 0 && documented == 0 {
		out = append(out, "Add docstrings to functions for better documentation")
	}
	return out
}
