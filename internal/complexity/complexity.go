// Package complexity computes cyclomatic complexity and line counts for the
// declarations of one file. Every decision point belongs to exactly one
// declaration: the innermost one whose span contains it.
package complexity

import (
	"strings"

	"github.com/QTest-hq/codescope/internal/lexer"
	"github.com/QTest-hq/codescope/internal/parser"
	"github.com/QTest-hq/codescope/pkg/model"
)

// decisionTable lists what counts as a decision point in one language
type decisionTable struct {
	keywords  map[string]bool
	operators map[string]bool
	matchArms bool // Rust: each "=>" is a match arm
	softCase  bool // Python: "case" at the start of a line ending in ':'
}

var logical = words("&& ||")

var tables = map[model.Language]*decisionTable{
	model.LanguagePython:     {keywords: words("if elif for while except and or"), softCase: true},
	model.LanguageJavaScript: {keywords: words("if for while case catch"), operators: logical},
	model.LanguageTypeScript: {keywords: words("if for while case catch"), operators: logical},
	model.LanguageJava:       {keywords: words("if for while case catch"), operators: logical},
	model.LanguageC:          {keywords: words("if for while case"), operators: logical},
	model.LanguageCPP:        {keywords: words("if for while case catch and or"), operators: logical},
	model.LanguageGo:         {keywords: words("if for case"), operators: logical},
	model.LanguageRust:       {keywords: words("if for while"), operators: logical, matchArms: true},
	model.LanguagePHP:        {keywords: words("if elseif for foreach while case catch and or"), operators: logical},
	model.LanguageRuby:       {keywords: words("if elsif unless while until for when rescue and or"), operators: logical},
}

func words(list string) map[string]bool {
	m := make(map[string]bool)
	for _, w := range strings.Fields(list) {
		m[w] = true
	}
	return m
}

// Analyze returns one metric per declaration, in declaration order.
// Cyclomatic complexity is 1 plus the decision points the declaration owns;
// lines of code counts non-blank, non-comment lines inside its span.
func Analyze(res *lexer.Result, decls []model.Declaration, lang model.Language) []model.ComplexityMetric {
	metrics := make([]model.ComplexityMetric, len(decls))
	if len(decls) == 0 {
		return metrics
	}

	code := newCodeCounter(res.LineMap())
	for i, d := range decls {
		metrics[i] = model.ComplexityMetric{
			DeclarationID: d.ID,
			Cyclomatic:    1,
			LinesOfCode:   code.between(d.StartLine, d.EndLine),
		}
	}

	table, ok := tables[lang]
	if !ok {
		return metrics
	}
	owner := parser.LineOwners(decls, res.Lines)

	sig := res.Significant()
	lastOnLine := make(map[int]lexer.Token)
	if table.softCase {
		for _, t := range sig {
			lastOnLine[t.Line] = t
		}
	}

	for i, t := range sig {
		if !table.isDecision(sig, i, lastOnLine) {
			continue
		}
		if t.Line < len(owner) && owner[t.Line] >= 0 {
			metrics[owner[t.Line]].Cyclomatic++
		}
	}
	return metrics
}

func (dt *decisionTable) isDecision(sig []lexer.Token, i int, lastOnLine map[int]lexer.Token) bool {
	t := sig[i]
	switch t.Kind {
	case lexer.Keyword:
		return dt.keywords[strings.ToLower(t.Text)] && !(i > 0 && sig[i-1].IsPunct("."))
	case lexer.Operator:
		if dt.matchArms && t.Text == "=>" {
			return true
		}
		return dt.operators[t.Text]
	case lexer.Identifier:
		if !dt.softCase || t.Text != "case" {
			return false
		}
		if i > 0 && sig[i-1].EndLine() >= t.Line {
			return false
		}
		last := lastOnLine[t.Line]
		return last.IsPunct(":") && i+1 < len(sig) && sig[i+1].Line == t.Line && !sig[i+1].IsPunct(":")
	}
	return false
}

// codeCounter answers "how many code lines in [start, end]" in constant time
type codeCounter []int

func newCodeCounter(lines []lexer.LineInfo) codeCounter {
	c := make(codeCounter, len(lines)+1)
	for l := range lines {
		c[l+1] = c[l]
		if l >= 1 && lines[l].Code {
			c[l+1]++
		}
	}
	return c
}

func (c codeCounter) between(start, end int) int {
	if start < 1 {
		start = 1
	}
	if end > len(c)-2 {
		end = len(c) - 2
	}
	if end < start {
		return 0
	}
	return c[end+1] - c[start]
}

// Summarize aggregates per-declaration metrics into the file total
func Summarize(res *lexer.Result, metrics []model.ComplexityMetric) model.FileComplexity {
	var fc model.FileComplexity
	for _, m := range metrics {
		fc.Cyclomatic += m.Cyclomatic
		if m.Cyclomatic > fc.Max {
			fc.Max = m.Cyclomatic
		}
	}
	if len(metrics) > 0 {
		fc.Average = float64(fc.Cyclomatic) / float64(len(metrics))
	}
	if res != nil {
		lines := res.LineMap()
		fc.Lines = newCodeCounter(lines).between(1, len(lines)-1)
	}
	return fc
}
