// Package deps extracts import edges, heuristic call edges and HTTP
// endpoints from one scanned file.
package deps

import (
	"github.com/QTest-hq/codescope/internal/lexer"
	"github.com/QTest-hq/codescope/internal/supplements"
	"github.com/QTest-hq/codescope/pkg/model"
)

// ModuleCaller is the caller ID used for calls outside any declaration
const ModuleCaller = "<module>"

// Limitations describes what the edges produced here do and do not mean.
// Reports carry it so consumers never mistake the call graph for resolved symbols.
var Limitations = []string{
	"call_graph edges are heuristic: an identifier followed by '(' is treated as a call and callee names are not resolved, so shadowed names can produce false positives and dynamic dispatch is missed",
	"import edges carry the raw import text; modules are not resolved against the filesystem or any package manager",
	"calls written without parentheses (Ruby command calls, property getters) are not detected",
}

// Result is everything the extractor found in one file
type Result struct {
	Imports   []model.DependencyEdge
	Calls     []model.DependencyEdge
	Endpoints []model.ApiEndpoint
}

var registry = supplements.NewRegistry()

// Extract runs import, call and endpoint detection over a scanned file.
// Languages without an import table still get call edges and endpoints.
func Extract(res *lexer.Result, decls []model.Declaration, file model.SourceFile) *Result {
	out := &Result{
		Imports:   make([]model.DependencyEdge, 0),
		Calls:     make([]model.DependencyEdge, 0),
		Endpoints: make([]model.ApiEndpoint, 0),
	}
	if res == nil || !file.Language.IsSupported() {
		return out
	}
	sig := res.Significant()

	if fn, ok := importers[file.Language]; ok {
		for _, ref := range fn(sig) {
			if ref.module == "" {
				continue
			}
			out.Imports = append(out.Imports, model.DependencyEdge{
				FromFile: file.Path,
				ToModule: ref.module,
				Kind:     model.EdgeImport,
				Line:     ref.line,
			})
		}
	}

	out.Calls = extractCalls(sig, decls, file)
	out.Endpoints = registry.Analyze(&supplements.File{
		Path:         file.Path,
		Language:     file.Language,
		Content:      file.Content,
		Declarations: decls,
	})
	return out
}

// ModuleNames returns the distinct import targets in first-seen order
func ModuleNames(edges []model.DependencyEdge) []string {
	names := make([]string, 0, len(edges))
	seen := make(map[string]bool)
	for _, e := range edges {
		if e.Kind != model.EdgeImport || seen[e.ToModule] {
			continue
		}
		seen[e.ToModule] = true
		names = append(names, e.ToModule)
	}
	return names
}

func tok(sig []lexer.Token, i int) lexer.Token {
	if i >= 0 && i < len(sig) {
		return sig[i]
	}
	return lexer.Token{Kind: lexer.EOF}
}

// statementStart reports whether sig[i] is the first token of a statement
func statementStart(sig []lexer.Token, i int) bool {
	if i == 0 {
		return true
	}
	prev := sig[i-1]
	return prev.EndLine() < sig[i].Line || prev.IsPunct(";") || prev.IsPunct("{") || prev.IsPunct("}")
}

// concat joins token text without separators, which reproduces dotted
// and path-like source text such as "a.b.c" or "std::io"
func concat(toks []lexer.Token) string {
	n := 0
	for _, t := range toks {
		n += len(t.Text)
	}
	buf := make([]byte, 0, n)
	for _, t := range toks {
		buf = append(buf, t.Text...)
	}
	return string(buf)
}

func unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	first, last := s[0], s[len(s)-1]
	if (first == '"' || first == '\'' || first == '`') && last == first || first == '<' && last == '>' {
		return s[1 : len(s)-1]
	}
	return s
}
