package parser

import (
	"strings"

	"github.com/QTest-hq/codescope/internal/lexer"
	"github.com/QTest-hq/codescope/pkg/model"
)

// maxHeaderTokens bounds how far a recogniser looks ahead for a body
const maxHeaderTokens = 512

type blockKind int

const (
	blockOther blockKind = iota
	blockControl
	blockDecl
	blockImpl // Rust impl: not a declaration, but names a receiver
)

type block struct {
	kind     blockKind
	decl     int
	receiver string
	parens   int // Paren depth outside the block, restored on close
	owner    int // Nearest declaration at or below this block, -1 if none
	controls int // Control blocks at or below this block
}

// braceRules is one language's entry in the brace recogniser table
type braceRules struct {
	detect    func(x *braceExtractor, i int)
	control   map[string]bool
	headWords map[string]bool // Modifiers that may precede a declaration
	headAny   bool            // Any type-like token may precede a declaration
	multiLine bool            // A header may span lines (C return types)
	// semicolons end a pending control header (false for Go's "if x := f(); x {")
	semicolonEndsControl bool
}

var (
	scriptControl = words("if else for while do switch try catch finally")
	scriptHead    = words("export default async static get set public private protected readonly abstract declare override accessor")
)

var braceLangs = map[model.Language]*braceRules{
	model.LanguageJavaScript: {detect: detectScript, control: scriptControl, headWords: scriptHead, semicolonEndsControl: true},
	model.LanguageTypeScript: {detect: detectScript, control: scriptControl, headWords: scriptHead, semicolonEndsControl: true},
	model.LanguageJava: {
		detect:               detectJava,
		control:              words("if else for while do switch try catch finally synchronized"),
		headAny:              true,
		semicolonEndsControl: true,
	},
	model.LanguageC: {
		detect:               detectC,
		control:              words("if else for while do switch"),
		headAny:              true,
		multiLine:            true,
		semicolonEndsControl: true,
	},
	model.LanguageCPP: {
		detect:               detectC,
		control:              words("if else for while do switch try catch"),
		headAny:              true,
		multiLine:            true,
		semicolonEndsControl: true,
	},
	model.LanguageGo: {
		detect:  detectGo,
		control: words("if else for switch select"),
	},
	model.LanguageRust: {
		detect:               detectRust,
		control:              words("if else for while loop match"),
		headWords:            words("pub crate super self in async const unsafe extern default"),
		semicolonEndsControl: true,
	},
	model.LanguagePHP: {
		detect:               detectPHP,
		control:              words("if else elseif for foreach while do switch try catch finally"),
		headWords:            words("public private protected static abstract final readonly"),
		semicolonEndsControl: true,
	},
}

func words(list string) map[string]bool {
	m := make(map[string]bool)
	for _, w := range strings.Fields(list) {
		m[w] = true
	}
	return m
}

type goTypeGroup struct {
	active bool
	depth  int
	parens int
}

type braceExtractor struct {
	*builder
	rules   *braceRules
	stack   []block
	parens  int
	pending map[int]int    // Body '{' index -> declaration waiting for it
	impls   map[int]string // Body '{' index -> Rust impl target
	control bool
	ctrlAt  int
	group   goTypeGroup
	ppLines map[int]bool // Lines holding a C preprocessor directive
}

func extractBrace(b *builder) {
	x := &braceExtractor{
		builder: b,
		rules:   braceLangs[b.lang],
		pending: make(map[int]int),
		impls:   make(map[int]string),
		ppLines: make(map[int]bool),
	}
	for _, t := range x.sig {
		if t.Kind == lexer.Keyword && strings.HasPrefix(t.Text, "#") {
			x.ppLines[t.Line] = true
		}
	}
	for i := 0; i < len(x.sig); i++ {
		if x.interrupted(i) {
			return
		}
		t := x.sig[i]
		switch {
		case t.IsPunct("(") || t.IsPunct("["):
			x.parens++
		case t.IsPunct(")") || t.IsPunct("]"):
			if x.parens > 0 {
				x.parens--
			}
		case t.IsPunct("{"):
			x.openBlock(i)
			continue
		case t.IsPunct("}"):
			x.closeBlock(t.Line)
			continue
		case t.IsPunct(";"):
			if x.control && x.parens == x.ctrlAt && x.rules.semicolonEndsControl {
				x.control = false
			}
		case t.Kind == lexer.Keyword && x.rules.control[strings.ToLower(t.Text)]:
			x.control = true
			x.ctrlAt = x.parens
			continue
		}
		if t.IsWord() {
			x.rules.detect(x, i)
		}
	}
}

func (x *braceExtractor) openBlock(i int) {
	blk := block{kind: blockOther, parens: x.parens}
	if idx, ok := x.pending[i]; ok {
		delete(x.pending, i)
		blk.kind, blk.decl = blockDecl, idx
	} else if recv, ok := x.impls[i]; ok {
		delete(x.impls, i)
		blk.kind, blk.receiver = blockImpl, recv
	} else if x.control && x.parens == x.ctrlAt {
		blk.kind = blockControl
	}
	x.control = false
	blk.owner, blk.controls = x.enclosing(), x.nesting()
	switch blk.kind {
	case blockDecl:
		blk.owner = blk.decl
	case blockControl:
		blk.controls++
	}
	x.stack = append(x.stack, blk)
	x.parens = 0
}

func (x *braceExtractor) closeBlock(line int) {
	x.control = false
	if len(x.stack) == 0 {
		return
	}
	blk := x.stack[len(x.stack)-1]
	x.stack = x.stack[:len(x.stack)-1]
	x.parens = blk.parens
	if blk.kind == blockDecl {
		x.closeDecl(blk.decl, line)
	}
}

// enclosing returns the nearest declaration on the block stack, or -1
func (x *braceExtractor) enclosing() int {
	if len(x.stack) == 0 {
		return -1
	}
	return x.stack[len(x.stack)-1].owner
}

// inCallable reports whether the nearest enclosing declaration is a function body
func (x *braceExtractor) inCallable() bool {
	idx := x.enclosing()
	return idx >= 0 && x.decls[idx].IsCallable()
}

// typeBody returns the class or interface whose body is the innermost block, or -1
func (x *braceExtractor) typeBody() int {
	if len(x.stack) == 0 {
		return -1
	}
	top := x.stack[len(x.stack)-1]
	if top.kind != blockDecl {
		return -1
	}
	k := x.decls[top.decl].Kind
	if k == model.KindClass || k == model.KindInterface {
		return top.decl
	}
	return -1
}

func (x *braceExtractor) implReceiver() string {
	if len(x.stack) == 0 {
		return ""
	}
	return x.stack[len(x.stack)-1].receiver
}

func (x *braceExtractor) nesting() int {
	if len(x.stack) == 0 {
		return 0
	}
	return x.stack[len(x.stack)-1].controls
}

func (x *braceExtractor) tok(i int) lexer.Token {
	if i >= 0 && i < len(x.sig) {
		return x.sig[i]
	}
	return lexer.Token{Kind: lexer.EOF}
}

// matchParen returns the index of the bracket closing the one at open, or -1
func (x *braceExtractor) matchParen(open int) int {
	if !x.tok(open).IsPunct("(") && !x.tok(open).IsPunct("[") {
		return -1
	}
	depth := 0
	for k := open; k < len(x.sig) && k < open+maxHeaderTokens*4; k++ {
		t := x.sig[k]
		if t.IsPunct("(") || t.IsPunct("[") {
			depth++
		} else if t.IsPunct(")") || t.IsPunct("]") {
			depth--
			if depth == 0 {
				return k
			}
		}
	}
	return -1
}

// matchBack returns the index of the bracket opening the one at close, or -1
func (x *braceExtractor) matchBack(close int) int {
	depth := 0
	for k := close; k >= 0 && k > close-maxHeaderTokens; k-- {
		t := x.sig[k]
		if t.IsPunct(")") || t.IsPunct("]") {
			depth++
		} else if t.IsPunct("(") || t.IsPunct("[") {
			depth--
			if depth == 0 {
				return k
			}
		}
	}
	return -1
}

// skipAngles steps over a generic parameter list starting at k
func (x *braceExtractor) skipAngles(k int) int {
	if !x.tok(k).Is(lexer.Operator, "<") {
		return k
	}
	depth, start := 0, k
	for ; k < len(x.sig) && k < start+maxHeaderTokens; k++ {
		t := x.sig[k]
		switch {
		case t.Is(lexer.Operator, "<"):
			depth++
		case t.Is(lexer.Operator, ">"):
			depth--
		case t.Is(lexer.Operator, ">>"):
			depth -= 2
		case t.IsPunct("{") || t.IsPunct(";"):
			return k
		}
		if depth <= 0 {
			return k + 1
		}
	}
	return k
}

// findBody returns the index of the '{' that opens the body of a header
// continuing at j, or -1 when the header ends without one
func (x *braceExtractor) findBody(j int, stopOnAssign bool) int {
	depth := 0
	for k := j; k < len(x.sig) && k < j+maxHeaderTokens; k++ {
		t := x.sig[k]
		switch {
		case t.IsPunct("(") || t.IsPunct("["):
			depth++
		case t.IsPunct(")") || t.IsPunct("]"):
			depth--
			if depth < 0 {
				return -1
			}
		case depth > 0:
		case t.IsPunct("{"):
			return k
		case t.IsPunct(";") || t.IsPunct("}"):
			return -1
		case stopOnAssign && t.Is(lexer.Operator, "="):
			return -1
		}
	}
	return -1
}

// statementEnd returns the last line of a bodiless statement starting at j
func (x *braceExtractor) statementEnd(j int) int {
	depth := 0
	line := x.tok(j).Line
	for k := j; k < len(x.sig) && k < j+maxHeaderTokens*4; k++ {
		t := x.sig[k]
		switch {
		case t.IsPunct("(") || t.IsPunct("[") || t.IsPunct("{"):
			depth++
		case t.IsPunct(")") || t.IsPunct("]") || t.IsPunct("}"):
			depth--
			if depth < 0 {
				return line
			}
		case depth == 0 && t.IsPunct(";"):
			return t.Line
		case depth == 0 && k > j && t.Line > x.sig[k-1].EndLine() &&
			x.sig[k-1].Kind != lexer.Operator && t.Kind != lexer.Operator &&
			!x.sig[k-1].IsPunct(",") && !x.sig[k-1].IsPunct(".") && !t.IsPunct("."):
			return line
		}
		line = t.EndLine()
	}
	return line
}

// declare records a declaration introduced at token i. body is the index
// of its opening brace, or -1 with end giving the last line.
func (x *braceExtractor) declare(i int, kind model.DeclarationKind, name string, params []model.Parameter, receiver string, body, end int) {
	head, first, decorators := x.headStart(i)
	parent := x.enclosing()
	if kind == model.KindFunction {
		if cls := x.typeBody(); cls >= 0 && x.decls[cls].Kind == model.KindClass {
			kind = model.KindMethod
		}
	}
	idx := x.add(declSpec{
		kind:       kind,
		name:       name,
		params:     params,
		receiver:   receiver,
		decorators: decorators,
		line:       x.sig[first].Line,
		column:     x.sig[first].Column,
		docLine:    x.sig[head].Line,
		nesting:    x.nesting(),
		parent:     parent,
	})
	if body >= 0 {
		x.pending[body] = idx
		return
	}
	x.closeDecl(idx, end)
}

func (x *braceExtractor) params(open, close int) []model.Parameter {
	if open < 0 || close <= open {
		return nil
	}
	return parseParams(x.lang, x.sig[open+1:close])
}

// headStart walks back from the token that introduced a declaration over
// modifiers and decorators. It returns the first header token, the first
// non-decorator token and the decorators in source order.
func (x *braceExtractor) headStart(i int) (head, first int, decorators []string) {
	head, first = i, i
	for k := i - 1; k >= 0; {
		if from, ok := x.decoratorEndingAt(k); ok {
			decorators = append([]string{joinTokens(x.sig[from : k+1])}, decorators...)
			head = from
			k = from - 1
			continue
		}
		t := x.sig[k]
		if len(decorators) > 0 || !x.isHead(t) {
			break
		}
		if t.EndLine() != x.sig[first].Line && (!x.rules.multiLine || x.ppLines[t.Line]) {
			break
		}
		head, first = k, k
		k--
	}
	return head, first, decorators
}

var headStops = words("return new throw else case goto sizeof delete typedef package import using")

func (x *braceExtractor) isHead(t lexer.Token) bool {
	if x.rules.headWords[strings.ToLower(t.Text)] && t.IsWord() {
		return true
	}
	if x.lang == model.LanguageRust && (t.Kind == lexer.String || t.IsPunct("(") || t.IsPunct(")")) {
		return true
	}
	if !x.rules.headAny {
		return false
	}
	switch t.Kind {
	case lexer.Identifier:
		return true
	case lexer.Keyword:
		return !headStops[t.Text] && !strings.HasPrefix(t.Text, "#")
	case lexer.Operator:
		switch t.Text {
		case "<", ">", ">>", "?", "&", "*", "&&", "::", "~":
			return true
		}
	case lexer.Punctuation:
		return t.Text == "," || t.Text == "." || t.Text == "[" || t.Text == "]"
	}
	return false
}

// decoratorEndingAt recognises @Name, @a.b(...) and #[...] ending at k
func (x *braceExtractor) decoratorEndingAt(k int) (int, bool) {
	t := x.tok(k)
	if t.IsPunct("]") {
		open := x.matchBack(k)
		if open > 0 && x.sig[open-1].Is(lexer.Operator, "#") {
			return open - 1, true
		}
		return 0, false
	}
	j := k
	if t.IsPunct(")") {
		open := x.matchBack(k)
		if open < 1 {
			return 0, false
		}
		j = open - 1
	}
	if !x.tok(j).IsWord() {
		return 0, false
	}
	for j >= 2 && x.sig[j-1].IsPunct(".") && x.sig[j-2].IsWord() {
		j -= 2
	}
	if j >= 1 && x.sig[j-1].Is(lexer.Operator, "@") {
		return j - 1, true
	}
	return 0, false
}

// kw matches a keyword token, case-insensitively for PHP
func kw(t lexer.Token, word string) bool {
	return t.Kind == lexer.Keyword && strings.EqualFold(t.Text, word)
}

func detectScript(x *braceExtractor, i int) {
	t := x.sig[i]
	prev := x.tok(i - 1)
	switch {
	case kw(t, "function"):
		k := i + 1
		if x.tok(k).Is(lexer.Operator, "*") {
			k++
		}
		name := x.tok(k)
		if !name.IsWord() || !x.tok(k+1).IsPunct("(") {
			return
		}
		close := x.matchParen(k + 1)
		if close < 0 {
			return
		}
		if body := x.findBody(close+1, false); body >= 0 {
			x.declare(i, model.KindFunction, name.Text, x.params(k+1, close), "", body, 0)
		}
	case kw(t, "class") && !prev.IsPunct("."):
		name := x.tok(i + 1)
		if name.Kind != lexer.Identifier {
			return
		}
		if body := x.findBody(i+2, false); body >= 0 {
			x.declare(i, model.KindClass, name.Text, nil, "", body, 0)
		}
	case t.Text == "interface" && x.lang == model.LanguageTypeScript && t.Kind == lexer.Keyword:
		name := x.tok(i + 1)
		if name.Kind != lexer.Identifier {
			return
		}
		if body := x.findBody(i+2, false); body >= 0 {
			x.declare(i, model.KindInterface, name.Text, nil, "", body, 0)
		}
	case (kw(t, "const") || kw(t, "let") || kw(t, "var")) && x.parens == 0:
		name := x.tok(i + 1)
		if name.Kind != lexer.Identifier {
			return
		}
		k := i + 2
		if x.tok(k).IsPunct(":") {
			// typed binding: const h: Handler = ...
			for k < len(x.sig) && k < i+maxHeaderTokens && !x.tok(k).Is(lexer.Operator, "=") && !x.tok(k).IsPunct(";") {
				k++
			}
		}
		if x.tok(k).Is(lexer.Operator, "=") {
			x.arrow(i, name.Text, k+1)
		}
	case x.typeBody() >= 0 && x.parens == 0:
		x.classMember(i)
	}
}

// classMember recognises methods and arrow properties in a class body
func (x *braceExtractor) classMember(i int) {
	t := x.sig[i]
	prev := x.tok(i - 1)
	name := t.Text
	if prev.Is(lexer.Operator, "#") {
		name = "#" + name
		prev = x.tok(i - 2)
	}
	boundary := i == 0 || prev.IsPunct("{") || prev.IsPunct("}") || prev.IsPunct(";") ||
		prev.Is(lexer.Operator, "*") || prev.IsPunct(")") || prev.EndLine() < t.Line ||
		(prev.IsWord() && x.rules.headWords[prev.Text])
	if !boundary || !t.IsWord() {
		return
	}
	next := x.tok(i + 1)
	switch {
	case next.IsPunct("("):
		close := x.matchParen(i + 1)
		if close < 0 {
			return
		}
		if body := x.findBody(close+1, true); body >= 0 {
			x.declare(i, model.KindFunction, name, x.params(i+1, close), "", body, 0)
		}
	case next.Is(lexer.Operator, "="):
		x.arrow(i, name, i+2)
	}
}

// arrow recognises a function value assigned at k: "async (a) => {...}",
// "x => x + 1" or "function () {...}"
func (x *braceExtractor) arrow(at int, name string, k int) {
	if x.tok(k).Text == "async" {
		k++
	}
	var open, close int
	switch t := x.tok(k); {
	case kw(t, "function"):
		k++
		if x.tok(k).Is(lexer.Operator, "*") {
			k++
		}
		if x.tok(k).Kind == lexer.Identifier {
			k++
		}
		open, close = k, x.matchParen(k)
		if close < 0 {
			return
		}
		if body := x.findBody(close+1, false); body >= 0 {
			x.declare(at, model.KindFunction, name, x.params(open, close), "", body, 0)
		}
		return
	case t.IsPunct("("):
		open, close = k, x.matchParen(k)
		if close < 0 {
			return
		}
		k = close + 1
		if x.tok(k).IsPunct(":") {
			for k < len(x.sig) && k < close+maxHeaderTokens && !x.tok(k).Is(lexer.Operator, "=>") &&
				!x.tok(k).IsPunct(";") && !x.tok(k).IsPunct("{") {
				k++
			}
		}
	case t.Kind == lexer.Identifier && x.tok(k+1).Is(lexer.Operator, "=>"):
		open, close = -1, -1
		k++
	default:
		return
	}
	if !x.tok(k).Is(lexer.Operator, "=>") {
		return
	}
	params := x.params(open, close)
	if open < 0 {
		params = []model.Parameter{{Name: x.tok(k - 1).Text}}
	}
	if x.tok(k + 1).IsPunct("{") {
		x.declare(at, model.KindFunction, name, params, "", k+1, 0)
		return
	}
	x.declare(at, model.KindFunction, name, params, "", -1, x.statementEnd(k+1))
}

func detectJava(x *braceExtractor, i int) {
	t := x.sig[i]
	prev := x.tok(i - 1)
	if kw(t, "class") || kw(t, "interface") || kw(t, "enum") || kw(t, "record") {
		name := x.tok(i + 1)
		if name.Kind != lexer.Identifier || prev.IsPunct(".") {
			return
		}
		kind := model.KindClass
		if kw(t, "interface") {
			kind = model.KindInterface
		}
		if body := x.findBody(i+2, true); body >= 0 {
			at := i
			if prev.Is(lexer.Operator, "@") {
				at = i - 1
			}
			x.declare(at, kind, name.Text, nil, "", body, 0)
		}
		return
	}
	if t.Kind != lexer.Identifier || !x.tok(i+1).IsPunct("(") || x.parens != 0 || x.typeBody() < 0 {
		return
	}
	switch {
	case prev.Kind == lexer.Identifier, prev.Is(lexer.Operator, ">"), prev.Is(lexer.Operator, ">>"), prev.IsPunct("]"):
	case prev.Kind == lexer.Keyword && !headStops[prev.Text]:
	default:
		return
	}
	close := x.matchParen(i + 1)
	if close < 0 {
		return
	}
	if body := x.findBody(close+1, true); body >= 0 {
		x.declare(i, model.KindFunction, t.Text, x.params(i+1, close), "", body, 0)
	}
}

var cNotTypes = words("return else case goto sizeof new delete throw co_return co_yield")

func detectC(x *braceExtractor, i int) {
	t := x.sig[i]
	if kw(t, "class") || kw(t, "struct") || kw(t, "union") {
		name := x.tok(i + 1)
		next := x.tok(i + 2)
		if name.Kind != lexer.Identifier || x.inCallable() {
			return
		}
		if !next.IsPunct("{") && !next.IsPunct(":") && next.Text != "final" {
			return
		}
		if body := x.findBody(i+2, true); body >= 0 {
			x.declare(i, model.KindClass, name.Text, nil, "", body, 0)
		}
		return
	}

	if t.Kind != lexer.Identifier || !x.tok(i+1).IsPunct("(") || x.parens != 0 || x.inCallable() {
		return
	}
	name := t.Text
	prev := x.tok(i - 1)
	receiver := ""
	if prev.Is(lexer.Operator, "~") {
		name = "~" + name
		prev = x.tok(i - 2)
	}
	if prev.Is(lexer.Operator, "::") {
		// Out-of-class definition: Type::method or ns::Type::method
		j := i - 1
		if strings.HasPrefix(name, "~") {
			j = i - 2
		}
		if q := x.tok(j - 1); q.Kind == lexer.Identifier {
			receiver = q.Text
		}
		prev = x.tok(j - 1)
	}

	cls := x.typeBody()
	switch {
	case prev.Kind == lexer.Identifier:
	case prev.Kind == lexer.Keyword && !cNotTypes[prev.Text] && !strings.HasPrefix(prev.Text, "#"):
	case prev.Is(lexer.Operator, "*") || prev.Is(lexer.Operator, "&") || prev.Is(lexer.Operator, "&&") ||
		prev.Is(lexer.Operator, ">") || prev.Is(lexer.Operator, "::"):
	case cls >= 0 && (name == x.decls[cls].Name || strings.HasPrefix(name, "~")):
		// Constructor or destructor declared in its class
	default:
		return
	}

	close := x.matchParen(i + 1)
	if close < 0 {
		return
	}
	if body := x.findBody(close+1, true); body >= 0 {
		x.declare(x.qualifiedStart(i), model.KindFunction, name, x.params(i+1, close), receiver, body, 0)
	}
}

// qualifiedStart steps back over "A::B::" qualifiers before a name
func (x *braceExtractor) qualifiedStart(i int) int {
	k := i
	if x.tok(k - 1).Is(lexer.Operator, "~") {
		k--
	}
	for x.tok(k-1).Is(lexer.Operator, "::") && x.tok(k-2).Kind == lexer.Identifier {
		k -= 2
	}
	return k
}

func detectGo(x *braceExtractor, i int) {
	t := x.sig[i]
	if x.group.active && (len(x.stack) < x.group.depth || (len(x.stack) == x.group.depth && x.parens < x.group.parens)) {
		x.group.active = false
	}

	switch {
	case kw(t, "func") && x.parens == 0:
		k := i + 1
		receiver := ""
		if x.tok(k).IsPunct("(") {
			close := x.matchParen(k)
			if close < 0 {
				return
			}
			receiver = goReceiver(x.sig[k+1 : close])
			k = close + 1
		}
		name := x.tok(k)
		if name.Kind != lexer.Identifier {
			return
		}
		k++
		if x.tok(k).IsPunct("[") {
			k = x.matchParen(k) + 1
			if k <= 0 {
				return
			}
		}
		close := x.matchParen(k)
		if close < 0 {
			return
		}
		if body := x.findBody(close+1, false); body >= 0 {
			if len(x.stack) > 0 {
				// Named funcs only exist at top level: whatever is still open was never closed
				x.stack = x.stack[:0]
				x.parens = 0
				x.group.active = false
			}
			x.declare(i, model.KindFunction, name.Text, x.params(k, close), receiver, body, 0)
		}
	case kw(t, "type"):
		if x.tok(i + 1).IsPunct("(") {
			x.group = goTypeGroup{active: true, depth: len(x.stack), parens: x.parens + 1}
			return
		}
		x.goType(i, i+1)
	case x.group.active && t.Kind == lexer.Identifier && len(x.stack) == x.group.depth && x.parens == x.group.parens:
		if prev := x.tok(i - 1); prev.IsPunct("(") || prev.EndLine() < t.Line || prev.IsPunct(";") {
			x.goType(i, i)
		}
	}
}

func (x *braceExtractor) goType(at, nameIdx int) {
	name := x.tok(nameIdx)
	if name.Kind != lexer.Identifier {
		return
	}
	k := nameIdx + 1
	if x.tok(k).IsPunct("[") {
		k = x.matchParen(k) + 1
		if k <= 0 {
			return
		}
	}
	var kind model.DeclarationKind
	switch {
	case kw(x.tok(k), "struct"):
		kind = model.KindClass
	case kw(x.tok(k), "interface"):
		kind = model.KindInterface
	default:
		return
	}
	if !x.tok(k + 1).IsPunct("{") {
		return
	}
	x.declare(at, kind, name.Text, nil, "", k+1, 0)
}

// goReceiver returns the type name of a method receiver list "(s *Server[T])"
func goReceiver(toks []lexer.Token) string {
	name, depth := "", 0
	for _, t := range toks {
		switch {
		case t.IsPunct("["):
			depth++
		case t.IsPunct("]"):
			depth--
		case depth == 0 && t.Kind == lexer.Identifier:
			name = t.Text
		}
	}
	return name
}

func detectRust(x *braceExtractor, i int) {
	t := x.sig[i]
	switch {
	case kw(t, "fn"):
		name := x.tok(i + 1)
		if name.Kind != lexer.Identifier {
			return
		}
		k := x.skipAngles(i + 2)
		close := x.matchParen(k)
		if close < 0 {
			return
		}
		body := x.findBody(close+1, false)
		if body < 0 {
			return
		}
		x.declare(i, model.KindFunction, name.Text, x.params(k, close), x.implReceiver(), body, 0)
	case kw(t, "struct") || kw(t, "enum") || (t.Text == "union" && x.tok(i+1).Kind == lexer.Identifier && x.tok(i+2).IsPunct("{")):
		name := x.tok(i + 1)
		if name.Kind != lexer.Identifier || x.inCallable() {
			return
		}
		k := x.skipAngles(i + 2)
		if body := x.findBody(k, true); body >= 0 {
			x.declare(i, model.KindClass, name.Text, nil, "", body, 0)
			return
		}
		// Unit and tuple structs end at their semicolon
		x.declare(i, model.KindClass, name.Text, nil, "", -1, x.statementEnd(k))
	case kw(t, "trait"):
		name := x.tok(i + 1)
		if name.Kind != lexer.Identifier {
			return
		}
		if body := x.findBody(i+2, true); body >= 0 {
			x.declare(i, model.KindInterface, name.Text, nil, "", body, 0)
		}
	case kw(t, "impl"):
		if prev := x.tok(i - 1); i > 0 && !prev.IsPunct("}") && !prev.IsPunct(";") && !prev.IsPunct("{") &&
			!prev.IsPunct("]") && !kw(prev, "unsafe") {
			// impl Trait in type position
			return
		}
		body := x.findBody(i+1, false)
		if body < 0 {
			return
		}
		x.impls[body] = implTarget(x.sig[x.skipAngles(i+1):body])
	}
}

// implTarget returns the type an impl block attaches to:
// "impl<T> Trait for Wrapper<T> where ..." yields Wrapper
func implTarget(toks []lexer.Token) string {
	name, depth := "", 0
	for _, t := range toks {
		switch {
		case t.IsKeyword("for"):
			name = ""
		case t.IsKeyword("where"):
			return name
		case t.Is(lexer.Operator, "<"):
			depth++
		case t.Is(lexer.Operator, ">"):
			depth--
		case t.Is(lexer.Operator, ">>"):
			depth -= 2
		case depth == 0 && t.Kind == lexer.Identifier:
			name = t.Text
		}
	}
	return name
}

func detectPHP(x *braceExtractor, i int) {
	t := x.sig[i]
	prev := x.tok(i - 1)
	switch {
	case kw(t, "function"):
		k := i + 1
		if x.tok(k).Is(lexer.Operator, "&") {
			k++
		}
		name := x.tok(k)
		if !name.IsWord() || !x.tok(k+1).IsPunct("(") {
			return
		}
		close := x.matchParen(k + 1)
		if close < 0 {
			return
		}
		if body := x.findBody(close+1, true); body >= 0 {
			x.declare(i, model.KindFunction, name.Text, x.params(k+1, close), "", body, 0)
		}
	case (kw(t, "class") || kw(t, "interface") || kw(t, "trait")) && !prev.Is(lexer.Operator, "::") && !kw(prev, "new"):
		name := x.tok(i + 1)
		if name.Kind != lexer.Identifier {
			return
		}
		kind := model.KindClass
		if kw(t, "interface") {
			kind = model.KindInterface
		}
		if body := x.findBody(i+2, true); body >= 0 {
			x.declare(i, kind, name.Text, nil, "", body, 0)
		}
	}
}
