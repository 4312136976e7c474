package parser

import (
	"github.com/QTest-hq/codescope/internal/lexer"
	"github.com/QTest-hq/codescope/pkg/model"
)

type keywordBlock struct {
	kind     blockKind
	decl     int
	loopLine int // while/until/for header line still waiting for an optional "do"
	owner    int
	controls int
}

// rubyValueEnd lists keywords that end an expression, so a following
// if/unless/while/until is a statement modifier rather than a block
var rubyValueEnd = words("end self nil true false")

// extractKeyword recognises Ruby def/class/module blocks closed by "end"
func extractKeyword(b *builder) {
	sig := b.sig
	var stack []keywordBlock

	tok := func(i int) lexer.Token {
		if i >= 0 && i < len(sig) {
			return sig[i]
		}
		return lexer.Token{Kind: lexer.EOF}
	}
	stmtStart := func(i int) bool {
		if i == 0 {
			return true
		}
		prev := sig[i-1]
		return prev.EndLine() < sig[i].Line || prev.IsPunct(";")
	}
	// valueContext reports whether an expression may start at i
	valueContext := func(i int) bool {
		if stmtStart(i) {
			return true
		}
		prev := sig[i-1]
		switch prev.Kind {
		case lexer.Operator:
			return true
		case lexer.Punctuation:
			return prev.Text == "(" || prev.Text == "," || prev.Text == "[" || prev.Text == "{"
		case lexer.Keyword:
			return !rubyValueEnd[prev.Text]
		}
		return false
	}
	enclosing := func() (parent, nesting int) {
		if n := len(stack); n > 0 {
			return stack[n-1].owner, stack[n-1].controls
		}
		return -1, 0
	}
	push := func(blk keywordBlock) {
		blk.owner, blk.controls = enclosing()
		switch blk.kind {
		case blockDecl:
			blk.owner = blk.decl
		case blockControl:
			blk.controls++
		}
		stack = append(stack, blk)
	}
	declare := func(i int, kind model.DeclarationKind, name string, params []model.Parameter) int {
		parent, nesting := enclosing()
		if kind == model.KindFunction && len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.kind == blockDecl && b.decls[top.decl].Kind == model.KindClass {
				kind = model.KindMethod
			}
		}
		return b.add(declSpec{
			kind:    kind,
			name:    name,
			params:  params,
			line:    sig[i].Line,
			column:  sig[i].Column,
			docLine: sig[i].Line,
			nesting: nesting,
			parent:  parent,
		})
	}

	for i := 0; i < len(sig); i++ {
		if b.interrupted(i) {
			return
		}
		t := sig[i]
		if t.Kind != lexer.Keyword || tok(i-1).IsPunct(".") {
			continue
		}
		switch t.Text {
		case "def":
			k := i + 1
			if (tok(k).IsKeyword("self") || tok(k).Kind == lexer.Identifier) && tok(k+1).IsPunct(".") {
				k += 2
			}
			nameTok := tok(k)
			if nameTok.Kind == lexer.EOF {
				continue
			}
			name := nameTok.Text
			k++
			// Setter: "def name=(value)"
			if eq := tok(k); eq.Is(lexer.Operator, "=") && eq.Line == nameTok.Line &&
				eq.Column == nameTok.Column+len(nameTok.Text) && tok(k+1).IsPunct("(") {
				name += "="
				k++
			}

			var params []model.Parameter
			if tok(k).IsPunct("(") && tok(k).Line == nameTok.Line {
				if close := matchIn(sig, k); close > k {
					params = parseParams(model.LanguageRuby, sig[k+1:close])
					k = close + 1
				}
			} else if !tok(k).Is(lexer.Operator, "=") {
				// Bare parameters run to the end of the line
				end := k
				for end < len(sig) && sig[end].Line == nameTok.Line && !sig[end].IsPunct(";") {
					end++
				}
				params = parseParams(model.LanguageRuby, sig[k:end])
				k = end
			}

			idx := declare(i, model.KindFunction, name, params)
			if eq := tok(k); eq.Is(lexer.Operator, "=") && eq.Line == nameTok.Line {
				// Endless method: "def name = expr"
				b.closeDecl(idx, lastOnLine(sig, k))
				continue
			}
			push(keywordBlock{kind: blockDecl, decl: idx})
		case "class", "module":
			if tok(i + 1).Is(lexer.Operator, "<<") {
				push(keywordBlock{kind: blockOther})
				continue
			}
			k := i + 1
			for tok(k+1).Is(lexer.Operator, "::") && tok(k+2).Kind == lexer.Identifier {
				k += 2
			}
			if tok(k).Kind != lexer.Identifier {
				continue
			}
			idx := declare(i, model.KindClass, tok(k).Text, nil)
			push(keywordBlock{kind: blockDecl, decl: idx})
		case "if", "unless", "case", "begin":
			if t.Text == "begin" || valueContext(i) {
				push(keywordBlock{kind: blockControl})
			}
		case "while", "until", "for":
			if valueContext(i) {
				push(keywordBlock{kind: blockControl, loopLine: t.Line})
			}
		case "do":
			if n := len(stack); n > 0 && stack[n-1].loopLine == t.Line {
				stack[n-1].loopLine = 0
				continue
			}
			push(keywordBlock{kind: blockOther})
		case "end":
			if len(stack) == 0 {
				b.errorf(t.Line, "unexpected 'end'")
				continue
			}
			blk := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if blk.kind == blockDecl {
				b.closeDecl(blk.decl, t.Line)
			}
		}
	}
}

// lastOnLine returns the last line touched by the statement that starts at k
func lastOnLine(sig []lexer.Token, k int) int {
	line := sig[k].Line
	end := line
	for ; k < len(sig) && sig[k].Line == line; k++ {
		end = sig[k].EndLine()
	}
	return end
}
