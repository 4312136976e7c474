// Package parser recognises declarations in a token stream. Three recognisers
// cover the supported languages: brace-delimited blocks, Python indentation
// and Ruby keyword/end blocks.
package parser

import (
	"context"
	"fmt"

	"github.com/QTest-hq/codescope/internal/lexer"
	"github.com/QTest-hq/codescope/pkg/model"
)

// Result holds the declarations found in one file
type Result struct {
	Declarations []model.Declaration
	Errors       []model.ParseError
}

type extractFunc func(b *builder)

var extractors = map[model.Language]extractFunc{
	model.LanguagePython:     extractIndent,
	model.LanguageRuby:       extractKeyword,
	model.LanguageJavaScript: extractBrace,
	model.LanguageTypeScript: extractBrace,
	model.LanguageJava:       extractBrace,
	model.LanguageC:          extractBrace,
	model.LanguageCPP:        extractBrace,
	model.LanguageGo:         extractBrace,
	model.LanguageRust:       extractBrace,
	model.LanguagePHP:        extractBrace,
}

const (
	// ctxCheckInterval is how many tokens or lines a recogniser walks between cancellation checks
	ctxCheckInterval = 4096

	// maxDeclDepth bounds how many enclosing declarations contribute to a qualified name
	maxDeclDepth = 256

	// maxRepeatedErrors caps how often the same kind of warning is reported per file
	maxRepeatedErrors = 10
)

// Extract walks a scan result and returns the declarations it introduces.
// Malformed blocks never abort extraction; they become Result.Errors.
// The only error besides an unknown language is the context's.
func Extract(ctx context.Context, res *lexer.Result, lang model.Language) (*Result, error) {
	fn, ok := extractors[lang]
	if !ok {
		return nil, fmt.Errorf("no extractor for language: %s", lang)
	}
	b := newBuilder(ctx, res, lang)
	fn(b)
	if b.err != nil {
		return nil, b.err
	}
	return b.finish(), nil
}

// declSpec is what a recogniser knows about a declaration when it first sees it
type declSpec struct {
	kind       model.DeclarationKind
	name       string
	params     []model.Parameter
	receiver   string
	decorators []string
	line       int // First non-decorator token of the header
	column     int
	docLine    int // First line of the header, decorators included
	nesting    int
	parent     int // Enclosing declaration index, -1 at top level
}

type builder struct {
	ctx       context.Context
	err       error
	nextCheck int
	lang      model.Language
	res       *lexer.Result
	sig       []lexer.Token
	lines     []lexer.LineInfo
	decls     []model.Declaration
	cols      []int
	open      []bool
	depth     []int // Enclosing declarations above each declaration
	deepLine  int   // First declaration past maxDeclDepth, 0 if none
	errors    []model.ParseError
	repeats   map[string]int
	omitted   int
	ids       map[string]int
}

func newBuilder(ctx context.Context, res *lexer.Result, lang model.Language) *builder {
	return &builder{
		ctx:       ctx,
		nextCheck: ctxCheckInterval,
		lang:      lang,
		res:       res,
		sig:       res.Significant(),
		lines:     res.LineMap(),
		repeats:   make(map[string]int),
		ids:       make(map[string]int),
	}
}

// interrupted reports whether the context ended. Recognisers call it with
// their loop position; the context itself is only consulted every
// ctxCheckInterval steps.
func (b *builder) interrupted(pos int) bool {
	if b.err != nil {
		return true
	}
	if pos < b.nextCheck {
		return false
	}
	b.nextCheck = pos + ctxCheckInterval
	if err := b.ctx.Err(); err != nil {
		b.err = err
		return true
	}
	return false
}

// errorf records a warning. Each format is reported at most maxRepeatedErrors
// times; the rest are counted and summarised by finish.
func (b *builder) errorf(line int, format string, args ...interface{}) {
	if b.repeats[format] >= maxRepeatedErrors {
		b.omitted++
		return
	}
	b.repeats[format]++
	b.errors = append(b.errors, model.ParseError{
		Line:    line,
		Message: fmt.Sprintf(format, args...),
		Code:    "PARSE_WARNING",
	})
}

// add records a declaration and returns its index. The declaration stays open
// until closeDecl sets its end line.
func (b *builder) add(s declSpec) int {
	depth := 0
	if s.parent >= 0 {
		depth = b.depth[s.parent] + 1
	}

	qualified := s.name
	switch {
	case depth > maxDeclDepth:
		// Past the cap a declaration is named on its own
		if b.deepLine == 0 {
			b.deepLine = s.line
			b.errorf(s.line, "declarations nested deeper than %d levels; qualified names are truncated", maxDeclDepth)
		}
	case s.parent >= 0:
		qualified = b.decls[s.parent].Qualified + "." + s.name
	case s.receiver != "":
		qualified = s.receiver + "." + s.name
	}

	id := fmt.Sprintf("%d:%s", s.line, qualified)
	if n := b.ids[id]; n > 0 {
		b.ids[id] = n + 1
		id = fmt.Sprintf("%s#%d", id, n+1)
	} else {
		b.ids[id] = 1
	}

	params := s.params
	if params == nil {
		params = []model.Parameter{}
	}
	d := model.Declaration{
		ID:           id,
		Kind:         s.kind,
		Name:         s.name,
		Qualified:    qualified,
		StartLine:    s.line,
		EndLine:      s.line,
		Parameters:   params,
		Docstring:    b.commentDoc(s.docLine),
		Receiver:     s.receiver,
		Decorators:   s.decorators,
		NestingDepth: s.nesting,
	}
	if s.kind == model.KindMethod && s.parent >= 0 {
		d.ParentID = b.decls[s.parent].ID
	}

	b.decls = append(b.decls, d)
	b.cols = append(b.cols, s.column)
	b.open = append(b.open, true)
	b.depth = append(b.depth, depth)
	return len(b.decls) - 1
}

func (b *builder) closeDecl(idx, line int) {
	if line < b.decls[idx].StartLine {
		line = b.decls[idx].StartLine
	}
	b.decls[idx].EndLine = line
	b.open[idx] = false
}

func (b *builder) setDoc(idx int, doc string) {
	if doc != "" {
		b.decls[idx].Docstring = doc
	}
}

func (b *builder) finish() *Result {
	total := b.res.Lines
	if total < 1 {
		total = 1
	}

	// A declaration whose block never closed runs until the next declaration
	// at the same or lower column, or to the end of the file. The stack holds
	// open declarations in increasing column order.
	var unclosed, stack []int
	for j := range b.decls {
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if b.cols[j] > b.cols[top] || b.decls[j].StartLine <= b.decls[top].StartLine {
				break
			}
			b.closeDecl(top, b.decls[j].StartLine-1)
			stack = stack[:len(stack)-1]
		}
		if b.open[j] {
			unclosed = append(unclosed, j)
			stack = append(stack, j)
		}
	}
	for _, i := range stack {
		b.closeDecl(i, total)
	}
	for _, i := range unclosed {
		b.errorf(b.decls[i].StartLine, "unclosed block for %s %q", kindWord(b.decls[i].Kind), b.decls[i].Name)
	}
	if b.omitted > 0 {
		b.errors = append(b.errors, model.ParseError{
			Line:    0,
			Message: fmt.Sprintf("%d more parse warnings omitted", b.omitted),
			Code:    "PARSE_WARNING",
		})
	}

	for i := range b.decls {
		if b.decls[i].EndLine > total && total >= b.decls[i].StartLine {
			b.decls[i].EndLine = total
		}
	}

	b.resolveReceivers()

	return &Result{Declarations: b.decls, Errors: b.errors}
}

// resolveReceivers turns receiver functions (Go methods, Rust impl items,
// C++ out-of-class definitions) into methods when the receiver type is a
// class declared in the same file
func (b *builder) resolveReceivers() {
	classes := make(map[string]string)
	for _, d := range b.decls {
		if d.Kind == model.KindClass {
			if _, ok := classes[d.Name]; !ok {
				classes[d.Name] = d.ID
			}
		}
	}
	for i := range b.decls {
		d := &b.decls[i]
		if d.Receiver == "" || d.Kind != model.KindFunction {
			continue
		}
		if id, ok := classes[d.Receiver]; ok {
			d.Kind = model.KindMethod
			d.ParentID = id
		}
	}
}

func kindWord(k model.DeclarationKind) string {
	switch k {
	case model.KindClass:
		return "class"
	case model.KindInterface:
		return "interface"
	case model.KindMethod:
		return "method"
	}
	return "function"
}
