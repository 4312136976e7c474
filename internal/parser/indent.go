package parser

import (
	"github.com/QTest-hq/codescope/internal/lexer"
	"github.com/QTest-hq/codescope/pkg/model"
)

// logicalLine is one Python statement line with bracket continuations joined
type logicalLine struct {
	tokens []lexer.Token
	indent int
	end    int
}

func (l logicalLine) first() lexer.Token { return l.tokens[0] }
func (l logicalLine) last() lexer.Token  { return l.tokens[len(l.tokens)-1] }

func logicalLines(tokens []lexer.Token) []logicalLine {
	var out []logicalLine
	var cur []lexer.Token
	depth := 0
	flush := func() {
		if len(cur) == 0 {
			return
		}
		out = append(out, logicalLine{
			tokens: cur,
			indent: cur[0].Column - 1,
			end:    cur[len(cur)-1].EndLine(),
		})
		cur = nil
	}
	for _, t := range tokens {
		switch {
		case t.Kind == lexer.Newline:
			if depth == 0 {
				flush()
			}
			continue
		case t.Kind == lexer.EOF:
			flush()
			continue
		case t.Kind == lexer.Comment:
			continue
		case t.IsPunct("(") || t.IsPunct("[") || t.IsPunct("{"):
			depth++
		case t.IsPunct(")") || t.IsPunct("]") || t.IsPunct("}"):
			if depth > 0 {
				depth--
			}
		}
		cur = append(cur, t)
	}
	flush()
	return out
}

var pythonControl = words("if elif else for while try except finally with")

type indentBlock struct {
	indent   int
	kind     blockKind
	decl     int
	header   int // Line of the block's header
	hasBody  bool
	owner    int // Nearest declaration at or below this block, -1 if none
	controls int
}

// extractIndent recognises Python def/class blocks by indentation
func extractIndent(b *builder) {
	var stack []indentBlock
	var decorators []string
	decoLine := 0
	prevEnd := 0
	awaitingDoc := -1

	push := func(blk indentBlock) {
		blk.owner, blk.controls = -1, 0
		if n := len(stack); n > 0 {
			blk.owner, blk.controls = stack[n-1].owner, stack[n-1].controls
		}
		switch blk.kind {
		case blockDecl:
			blk.owner = blk.decl
		case blockControl:
			blk.controls++
		}
		stack = append(stack, blk)
	}
	pop := func() {
		blk := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !blk.hasBody {
			b.errorf(blk.header, "expected an indented block")
		}
		if blk.kind == blockDecl {
			b.closeDecl(blk.decl, prevEnd)
		}
	}

	for n, ll := range logicalLines(b.res.Tokens) {
		if b.interrupted(n) {
			return
		}
		for len(stack) > 0 && ll.indent <= stack[len(stack)-1].indent {
			pop()
		}
		if len(stack) > 0 {
			stack[len(stack)-1].hasBody = true
		}
		if awaitingDoc >= 0 {
			if len(ll.tokens) == 1 && ll.first().Kind == lexer.String && len(stack) > 0 &&
				stack[len(stack)-1].kind == blockDecl && stack[len(stack)-1].decl == awaitingDoc {
				b.setDoc(awaitingDoc, stringDoc(ll.first()))
			}
			awaitingDoc = -1
		}

		first := ll.first()
		opens := ll.last().IsPunct(":")
		prevEnd = ll.end

		if first.Is(lexer.Operator, "@") {
			decorators = append(decorators, joinTokens(ll.tokens))
			if decoLine == 0 {
				decoLine = first.Line
			}
			continue
		}

		k := 0
		if first.IsKeyword("async") && len(ll.tokens) > 1 {
			k = 1
		}
		head := ll.tokens[k]

		switch {
		case (head.IsKeyword("def") || head.IsKeyword("class")) && len(ll.tokens) > k+1:
			name := ll.tokens[k+1]
			kind := model.KindClass
			var params []model.Parameter
			if head.IsKeyword("def") {
				kind = model.KindFunction
				if open := k + 2; open < len(ll.tokens) && ll.tokens[open].IsPunct("(") {
					if close := matchIn(ll.tokens, open); close > open {
						params = parseParams(model.LanguagePython, ll.tokens[open+1:close])
					}
				}
			}

			parent, nesting := -1, 0
			if len(stack) > 0 {
				parent, nesting = stack[len(stack)-1].owner, stack[len(stack)-1].controls
			}
			if kind == model.KindFunction && len(stack) > 0 {
				top := stack[len(stack)-1]
				if top.kind == blockDecl && b.decls[top.decl].Kind == model.KindClass {
					kind = model.KindMethod
				}
			}

			docLine := first.Line
			if decoLine > 0 {
				docLine = decoLine
			}
			idx := b.add(declSpec{
				kind:       kind,
				name:       name.Text,
				params:     params,
				decorators: decorators,
				line:       first.Line,
				column:     first.Column,
				docLine:    docLine,
				nesting:    nesting,
				parent:     parent,
			})
			if opens {
				push(indentBlock{indent: ll.indent, kind: blockDecl, decl: idx, header: first.Line})
				awaitingDoc = idx
			} else {
				// def f(): return 1
				b.closeDecl(idx, ll.end)
			}
		case opens && (pythonControl[head.Text] && head.Kind == lexer.Keyword ||
			head.Kind == lexer.Identifier && (head.Text == "match" || head.Text == "case")):
			push(indentBlock{indent: ll.indent, kind: blockControl, header: first.Line})
		case opens:
			push(indentBlock{indent: ll.indent, kind: blockOther, header: first.Line})
		}
		decorators = nil
		decoLine = 0
	}

	for len(stack) > 0 {
		pop()
	}
}

// matchIn returns the index of the bracket closing toks[open], or -1
func matchIn(toks []lexer.Token, open int) int {
	depth := 0
	for k := open; k < len(toks); k++ {
		switch {
		case toks[k].IsPunct("(") || toks[k].IsPunct("["):
			depth++
		case toks[k].IsPunct(")") || toks[k].IsPunct("]"):
			depth--
			if depth == 0 {
				return k
			}
		}
	}
	return -1
}
