package deps

import (
	"sort"

	"github.com/QTest-hq/codescope/internal/lexer"
	"github.com/QTest-hq/codescope/internal/parser"
	"github.com/QTest-hq/codescope/pkg/model"
)

// definers introduce a name that is followed by a parameter list without
// being a call
var definers = map[string]bool{
	"def": true, "function": true, "fn": true, "func": true, "class": true,
}

type callKey struct {
	caller string
	callee string
	line   int
}

// extractCalls treats every identifier directly followed by '(' as a call.
// Declaration headers, definer keywords and Java annotations are excluded.
func extractCalls(sig []lexer.Token, decls []model.Declaration, file model.SourceFile) []model.DependencyEdge {
	edges := make([]model.DependencyEdge, 0)
	sites := declarationSites(sig, decls)
	owner := ownerIndex(decls)
	seen := make(map[callKey]bool)

	for i, t := range sig {
		if t.Kind != lexer.Identifier || !tok(sig, i+1).IsPunct("(") || sites[i] {
			continue
		}
		start := chainStart(sig, i)
		before := tok(sig, start-1)
		if before.Kind == lexer.Keyword && definers[before.Text] {
			continue
		}
		if file.Language == model.LanguageJava && before.Is(lexer.Operator, "@") {
			continue
		}

		caller := ModuleCaller
		if t.Line < len(owner) && owner[t.Line] != "" {
			caller = owner[t.Line]
		}
		callee := concat(sig[start : i+1])
		key := callKey{caller, callee, t.Line}
		if seen[key] {
			continue
		}
		seen[key] = true

		receiver := ""
		if start < i {
			receiver = concat(sig[start : i-1])
		}
		edges = append(edges, model.DependencyEdge{
			FromFile:   file.Path,
			ToModule:   receiver,
			Kind:       model.EdgeCall,
			Line:       t.Line,
			CallerID:   caller,
			CalleeName: callee,
			Heuristic:  true,
		})
	}
	return edges
}

func isAccessor(t lexer.Token) bool {
	return t.IsPunct(".") || t.Is(lexer.Operator, "::") || t.Is(lexer.Operator, "->") || t.Is(lexer.Operator, "?.")
}

// chainStart walks back over "a.b.c" / "A::b" / "$x->y" receiver chains
func chainStart(sig []lexer.Token, i int) int {
	k := i
	for k >= 2 && isAccessor(sig[k-1]) && sig[k-2].IsWord() {
		k -= 2
	}
	return k
}

// declarationSites marks the name token of each declaration header so the
// parameter list that follows it is not read as a call
func declarationSites(sig []lexer.Token, decls []model.Declaration) map[int]bool {
	sites := make(map[int]bool, len(decls))
	for _, d := range decls {
		k := sort.Search(len(sig), func(j int) bool { return sig[j].Line >= d.StartLine })
		for ; k < len(sig) && sig[k].Line <= d.EndLine; k++ {
			if sig[k].Text != d.Name {
				continue
			}
			next := tok(sig, k+1)
			if isAccessor(next) {
				// Class::method qualifier
				continue
			}
			if next.IsPunct("(") {
				sites[k] = true
			}
			break
		}
	}
	return sites
}

// ownerIndex maps each line to the ID of the innermost declaration covering it
func ownerIndex(decls []model.Declaration) []string {
	idx := parser.LineOwners(decls, 0)
	owner := make([]string, len(idx))
	for line, i := range idx {
		if i >= 0 {
			owner[line] = decls[i].ID
		}
	}
	return owner
}
