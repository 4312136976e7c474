package lexer

import (
	"context"
	"fmt"
	"strings"

	"github.com/QTest-hq/codescope/pkg/model"
)

// ctxCheckInterval is how many input bytes are scanned between cancellation checks
const ctxCheckInterval = 4096

// maxBracketErrors caps bracket diagnostics per file
const maxBracketErrors = 10

// scanFunc is one entry of the dispatch table
type scanFunc func(ctx context.Context, content string) (*Result, error)

// scanners maps each supported language to its scan function
var scanners = func() map[model.Language]scanFunc {
	m := make(map[model.Language]scanFunc, len(syntaxes))
	for lang, syn := range syntaxes {
		syn := syn
		lang := lang
		m[lang] = func(ctx context.Context, content string) (*Result, error) {
			s := newScanner(ctx, content, lang, syn)
			return s.run()
		}
	}
	return m
}()

// Supports reports whether a scanner exists for the language
func Supports(lang model.Language) bool {
	_, ok := scanners[lang]
	return ok
}

// Scan tokenizes content. It never fails on malformed input: problems become
// Result.Errors. The only error returned is the context's, when cancelled.
func Scan(ctx context.Context, content string, lang model.Language) (*Result, error) {
	fn, ok := scanners[lang]
	if !ok {
		return nil, fmt.Errorf("no scanner for language: %s", lang)
	}
	return fn(ctx, content)
}

type bracket struct {
	ch   byte
	line int
}

type scanner struct {
	ctx         context.Context
	src         string
	lang        model.Language
	syn         *syntax
	pos         int
	line        int
	lineStart   int
	nextCheck   int
	tokens      []Token
	errors      []model.ParseError
	brackets    []bracket
	bracketErrs int
}

func newScanner(ctx context.Context, content string, lang model.Language, syn *syntax) *scanner {
	return &scanner{
		ctx:       ctx,
		src:       content,
		lang:      lang,
		syn:       syn,
		line:      1,
		nextCheck: ctxCheckInterval,
		tokens:    make([]Token, 0, len(content)/4+1),
	}
}

func (s *scanner) run() (*Result, error) {
	for s.pos < len(s.src) {
		if s.pos >= s.nextCheck {
			if err := s.ctx.Err(); err != nil {
				return nil, err
			}
			s.nextCheck = s.pos + ctxCheckInterval
		}
		if !s.step() {
			// Unterminated construct: stop with a synthetic EOF
			return s.finish(false), nil
		}
	}
	return s.finish(true), nil
}

func (s *scanner) finish(complete bool) *Result {
	if complete {
		for i, b := range s.brackets {
			if i >= maxBracketErrors {
				break
			}
			s.errorf(b.line, "unclosed '%c'", b.ch)
		}
	}
	s.tokens = append(s.tokens, Token{Kind: EOF, Line: s.line, Column: s.pos - s.lineStart + 1})

	lines := strings.Count(s.src, "\n")
	if len(s.src) > 0 && !strings.HasSuffix(s.src, "\n") {
		lines++
	}
	return &Result{Tokens: s.tokens, Errors: s.errors, Lines: lines}
}

func (s *scanner) errorf(line int, format string, args ...interface{}) {
	s.errors = append(s.errors, model.ParseError{
		Line:    line,
		Message: fmt.Sprintf(format, args...),
		Code:    "PARSE_WARNING",
	})
}

func (s *scanner) peek(offset int) byte {
	if s.pos+offset < len(s.src) {
		return s.src[s.pos+offset]
	}
	return 0
}

func (s *scanner) column(pos int) int {
	return pos - s.lineStart + 1
}

func (s *scanner) emit(kind Kind, start, startLine, startCol int) {
	s.tokens = append(s.tokens, Token{Kind: kind, Text: s.src[start:s.pos], Line: startLine, Column: startCol})
}

// advanceTo moves pos forward, tracking newlines inside the skipped text
func (s *scanner) advanceTo(end int) {
	for s.pos < end {
		if s.src[s.pos] == '\n' {
			s.line++
			s.lineStart = s.pos + 1
		}
		s.pos++
	}
}

// atLineStart reports whether only whitespace precedes pos on the current line
func (s *scanner) atLineStart() bool {
	return strings.TrimLeft(s.src[s.lineStart:s.pos], " \t") == ""
}

// lastSignificant returns the previous non-comment, non-newline token
func (s *scanner) lastSignificant() (Token, bool) {
	for i := len(s.tokens) - 1; i >= 0; i-- {
		if s.tokens[i].Significant() {
			return s.tokens[i], true
		}
	}
	return Token{}, false
}

// step scans one token. It returns false when an unterminated construct ends the scan.
func (s *scanner) step() bool {
	c := s.src[s.pos]
	switch {
	case c == '\n':
		start := s.pos
		s.pos++
		s.tokens = append(s.tokens, Token{Kind: Newline, Text: "\n", Line: s.line, Column: s.column(start)})
		s.line++
		s.lineStart = s.pos
		return true
	case c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
		s.pos++
		return true
	case c == '\\' && (s.peek(1) == '\n' || (s.peek(1) == '\r' && s.peek(2) == '\n')):
		// Line continuation: no Newline token
		s.advanceTo(strings.IndexByte(s.src[s.pos:], '\n') + s.pos + 1)
		return true
	}

	if ok, handled := s.comment(); handled {
		return ok
	}
	if s.syn.preprocessor && c == '#' && s.atLineStart() {
		s.directive()
		return true
	}
	if ok, handled := s.stringLiteral(); handled {
		return ok
	}

	switch {
	case isDigit(c) || (c == '.' && isDigit(s.peek(1))):
		s.number()
	case s.isIdentStart(c):
		s.identifier()
	default:
		s.operator()
	}
	return true
}

// comment scans line and block comments. handled is false when pos is not a comment.
func (s *scanner) comment() (ok, handled bool) {
	rest := s.src[s.pos:]
	start, line, col := s.pos, s.line, s.column(s.pos)

	for _, prefix := range s.syn.lineComments {
		if strings.HasPrefix(rest, prefix) {
			s.skipToEOL()
			s.emit(Comment, start, line, col)
			return true, true
		}
	}
	// PHP 8 attributes start with #[ and are code
	if s.syn.hashComment && rest[0] == '#' && !(s.lang == model.LanguagePHP && strings.HasPrefix(rest, "#[")) {
		s.skipToEOL()
		s.emit(Comment, start, line, col)
		return true, true
	}
	if open := s.syn.blockComment[0]; open != "" && strings.HasPrefix(rest, open) {
		end := strings.Index(rest[len(open):], s.syn.blockComment[1])
		if end < 0 {
			s.advanceTo(len(s.src))
			s.emit(Comment, start, line, col)
			s.errorf(line, "unterminated block comment")
			return false, true
		}
		s.advanceTo(s.pos + len(open) + end + len(s.syn.blockComment[1]))
		s.emit(Comment, start, line, col)
		return true, true
	}
	if s.syn.rubySigils && strings.HasPrefix(rest, "=begin") && s.pos == s.lineStart {
		end := strings.Index(rest, "\n=end")
		if end < 0 {
			s.advanceTo(len(s.src))
			s.emit(Comment, start, line, col)
			s.errorf(line, "unterminated =begin comment")
			return false, true
		}
		s.advanceTo(s.pos + end + len("\n=end"))
		s.skipToEOL()
		s.emit(Comment, start, line, col)
		return true, true
	}
	return true, false
}

func (s *scanner) skipToEOL() {
	if i := strings.IndexByte(s.src[s.pos:], '\n'); i >= 0 {
		s.pos += i
		return
	}
	s.pos = len(s.src)
}

// directive scans a C preprocessor directive name as one keyword ("#include")
// and an angle-bracket include target as a string
func (s *scanner) directive() {
	line, col := s.line, s.column(s.pos)
	s.pos++
	for s.pos < len(s.src) && (s.src[s.pos] == ' ' || s.src[s.pos] == '\t') {
		s.pos++
	}
	nameStart := s.pos
	for s.pos < len(s.src) && isIdentChar(s.src[s.pos]) {
		s.pos++
	}
	name := s.src[nameStart:s.pos]
	s.tokens = append(s.tokens, Token{Kind: Keyword, Text: "#" + name, Line: line, Column: col})

	if name != "include" && name != "import" {
		return
	}
	for s.pos < len(s.src) && (s.src[s.pos] == ' ' || s.src[s.pos] == '\t') {
		s.pos++
	}
	if s.peek(0) == '<' {
		end := strings.IndexAny(s.src[s.pos:], ">\n")
		if end >= 0 && s.src[s.pos+end] == '>' {
			tStart, tCol := s.pos, s.column(s.pos)
			s.pos += end + 1
			s.emit(String, tStart, line, tCol)
		}
	}
}

// stringLiteral scans quoted literals. handled is false when pos does not start a string.
func (s *scanner) stringLiteral() (ok, handled bool) {
	c := s.src[s.pos]
	start, line, col := s.pos, s.line, s.column(s.pos)

	switch {
	case c == '"' || c == '\'':
		if c == '\'' && s.syn.rustStrings && s.isLifetime() {
			s.pos++
			for s.pos < len(s.src) && isIdentChar(s.src[s.pos]) {
				s.pos++
			}
			s.emit(Identifier, start, line, col)
			return true, true
		}
		if s.syn.tripleQuotes && strings.HasPrefix(s.src[s.pos:], strings.Repeat(string(c), 3)) {
			return s.quoted(start, line, col, 3, strings.Repeat(string(c), 3), true, true), true
		}
		multiline := s.syn.multilineQuotes
		if c == '\'' && s.syn.charLiterals {
			multiline = false
		}
		return s.quoted(start, line, col, 1, string(c), multiline, true), true
	case c == '`':
		switch s.syn.backticks {
		case backtickRaw:
			return s.quoted(start, line, col, 1, "`", true, false), true
		case backtickTemplate:
			return s.quoted(start, line, col, 1, "`", true, true), true
		}
	case c == '/' && s.syn.regexLiterals && s.regexAllowed():
		if end, ok := s.regexEnd(); ok {
			s.pos = end
			s.emit(String, start, line, col)
			return true, true
		}
	case c == '<' && s.syn.heredoc && strings.HasPrefix(s.src[s.pos:], "<<<"):
		if s.heredocLiteral() {
			s.emit(String, start, line, col)
			return true, true
		}
		s.pos = start
	}

	// Prefixed strings: Python r"", f"", b""; Rust r#""#, b""; C++ R"()"
	if isIdentStart(c) {
		return s.prefixedString(start, line, col)
	}
	return true, false
}

func (s *scanner) prefixedString(start, line, col int) (ok, handled bool) {
	i := s.pos
	for i < len(s.src) && i-s.pos < 3 && isLetter(s.src[i]) {
		i++
	}
	if i >= len(s.src) {
		return true, false
	}
	prefix := s.src[s.pos:i]
	q := s.src[i]

	switch {
	case s.syn.stringPrefixes != "" && (q == '"' || q == '\'') && allIn(prefix, s.syn.stringPrefixes):
		s.pos = i
		if strings.HasPrefix(s.src[s.pos:], strings.Repeat(string(q), 3)) {
			return s.quoted(start, line, col, 3, strings.Repeat(string(q), 3), true, true), true
		}
		return s.quoted(start, line, col, 1, string(q), false, true), true
	case s.syn.rustStrings && (prefix == "r" || prefix == "br" || prefix == "b") && (q == '"' || q == '#'):
		if prefix == "b" {
			if q != '"' {
				return true, false
			}
			s.pos = i
			return s.quoted(start, line, col, 1, `"`, true, true), true
		}
		hashes := 0
		for i < len(s.src) && s.src[i] == '#' {
			hashes++
			i++
		}
		if i >= len(s.src) || s.src[i] != '"' {
			return true, false
		}
		s.pos = i
		return s.quoted(start, line, col, 1, `"`+strings.Repeat("#", hashes), true, false), true
	case s.lang == model.LanguageCPP && strings.HasSuffix(prefix, "R") && q == '"':
		open := strings.IndexByte(s.src[i:], '(')
		if open < 0 || open > 16 {
			return true, false
		}
		delim := ")" + s.src[i+1:i+open] + `"`
		end := strings.Index(s.src[i+open:], delim)
		if end < 0 {
			s.advanceTo(len(s.src))
			s.emit(String, start, line, col)
			s.errorf(line, "unterminated raw string literal")
			return false, true
		}
		s.advanceTo(i + open + end + len(delim))
		s.emit(String, start, line, col)
		return true, true
	}
	return true, false
}

// quoted scans from pos (at the opening quote run of length openLen) to the closing delimiter
func (s *scanner) quoted(start, line, col, openLen int, closer string, multiline, escapes bool) bool {
	s.pos += openLen
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if escapes && c == '\\' && s.pos+1 < len(s.src) {
			s.advanceTo(s.pos + 2)
			continue
		}
		if strings.HasPrefix(s.src[s.pos:], closer) {
			s.pos += len(closer)
			s.emit(String, start, line, col)
			return true
		}
		if c == '\n' && !multiline {
			break
		}
		s.advanceTo(s.pos + 1)
	}
	s.emit(String, start, line, col)
	s.errorf(line, "unterminated string literal")
	return false
}

// isLifetime distinguishes Rust lifetimes ('a) from char literals ('a')
func (s *scanner) isLifetime() bool {
	i := s.pos + 1
	if i >= len(s.src) || !isIdentStart(s.src[i]) {
		return false
	}
	for i < len(s.src) && isIdentChar(s.src[i]) {
		i++
	}
	return i >= len(s.src) || s.src[i] != '\''
}

// regexAllowed applies the usual JS rule: a slash after an operand is division
func (s *scanner) regexAllowed() bool {
	if s.peek(1) == '/' || s.peek(1) == '*' {
		return false
	}
	prev, ok := s.lastSignificant()
	if !ok {
		return true
	}
	switch prev.Kind {
	case Identifier, Number, String:
		return false
	case Keyword:
		return prev.Text != "this" && prev.Text != "super" && prev.Text != "null" &&
			prev.Text != "true" && prev.Text != "false"
	case Punctuation:
		return prev.Text != ")" && prev.Text != "]" && prev.Text != "}"
	}
	return true
}

// regexEnd finds the end of a regex literal on the current line
func (s *scanner) regexEnd() (int, bool) {
	inClass := false
	for i := s.pos + 1; i < len(s.src); i++ {
		switch s.src[i] {
		case '\\':
			i++
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '\n':
			return 0, false
		case '/':
			if inClass {
				continue
			}
			j := i + 1
			for j < len(s.src) && isLetter(s.src[j]) {
				j++
			}
			return j, true
		}
	}
	return 0, false
}

// heredocLiteral scans a PHP heredoc/nowdoc. It returns false if pos is not one.
func (s *scanner) heredocLiteral() bool {
	i := s.pos + 3
	for i < len(s.src) && (s.src[i] == ' ' || s.src[i] == '\t') {
		i++
	}
	quoted := i < len(s.src) && (s.src[i] == '\'' || s.src[i] == '"')
	if quoted {
		i++
	}
	nameStart := i
	for i < len(s.src) && isIdentChar(s.src[i]) {
		i++
	}
	name := s.src[nameStart:i]
	if name == "" {
		return false
	}
	nl := strings.IndexByte(s.src[i:], '\n')
	if nl < 0 {
		return false
	}
	body := i + nl + 1
	for body <= len(s.src) {
		eol := strings.IndexByte(s.src[body:], '\n')
		lineText := s.src[body:]
		if eol >= 0 {
			lineText = s.src[body : body+eol]
		}
		trimmed := strings.TrimLeft(lineText, " \t")
		if strings.HasPrefix(trimmed, name) && (len(trimmed) == len(name) || !isIdentChar(trimmed[len(name)])) {
			s.advanceTo(body + (len(lineText) - len(trimmed)) + len(name))
			return true
		}
		if eol < 0 {
			break
		}
		body += eol + 1
	}
	return false
}

func (s *scanner) number() {
	start, line, col := s.pos, s.line, s.column(s.pos)
	hex := strings.HasPrefix(s.src[s.pos:], "0x") || strings.HasPrefix(s.src[s.pos:], "0X")
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case isIdentChar(c):
			s.pos++
		case c == '.' && s.peek(1) != '.' && !isIdentStart(s.peek(1)):
			s.pos++
		case (c == '+' || c == '-') && !hex && s.pos > start && (s.src[s.pos-1] == 'e' || s.src[s.pos-1] == 'E'):
			s.pos++
		default:
			s.emit(Number, start, line, col)
			return
		}
	}
	s.emit(Number, start, line, col)
}

func (s *scanner) isIdentStart(c byte) bool {
	if isIdentStart(c) {
		return true
	}
	if c == '$' && (s.syn.dollarIdents || s.syn.rubySigils) {
		return true
	}
	if c == '@' && s.syn.rubySigils && (isIdentStart(s.peek(1)) || s.peek(1) == '@') {
		return true
	}
	return false
}

func (s *scanner) identifier() {
	start, line, col := s.pos, s.line, s.column(s.pos)
	for s.pos < len(s.src) && (s.src[s.pos] == '@' || s.src[s.pos] == '$') {
		s.pos++
	}
	for s.pos < len(s.src) && (isIdentChar(s.src[s.pos]) || (s.syn.dollarIdents && s.src[s.pos] == '$')) {
		s.pos++
	}
	// Ruby predicate and bang methods: empty?, save!
	if s.syn.rubySigils && s.pos < len(s.src) && (s.src[s.pos] == '?' || s.src[s.pos] == '!') && s.peek(1) != '=' {
		s.pos++
	}
	word := s.src[start:s.pos]
	kind := Identifier
	if s.syn.isKeyword(word) {
		kind = Keyword
	}
	s.tokens = append(s.tokens, Token{Kind: kind, Text: word, Line: line, Column: col})
}

func (s *scanner) operator() {
	start, line, col := s.pos, s.line, s.column(s.pos)
	rest := s.src[s.pos:]
	for _, op := range multiCharOperators {
		if strings.HasPrefix(rest, op) {
			s.pos += len(op)
			s.emit(Operator, start, line, col)
			return
		}
	}

	c := s.src[s.pos]
	s.pos++
	if strings.IndexByte(punctuation, c) >= 0 {
		s.emit(Punctuation, start, line, col)
		s.trackBracket(c, line)
		return
	}
	if c >= 0x80 {
		// Stray non-ASCII byte outside identifiers; fold into an identifier-like token
		for s.pos < len(s.src) && s.src[s.pos] >= 0x80 {
			s.pos++
		}
		s.emit(Identifier, start, line, col)
		return
	}
	s.emit(Operator, start, line, col)
}

var closers = map[byte]byte{')': '(', ']': '[', '}': '{'}

func (s *scanner) trackBracket(c byte, line int) {
	switch c {
	case '(', '[', '{':
		s.brackets = append(s.brackets, bracket{ch: c, line: line})
	case ')', ']', '}':
		want := closers[c]
		for i := len(s.brackets) - 1; i >= 0; i-- {
			if s.brackets[i].ch == want {
				if i != len(s.brackets)-1 {
					s.bracketError(s.brackets[len(s.brackets)-1].line, "unclosed '%c' before '%c' on line %d", s.brackets[len(s.brackets)-1].ch, c, line)
				}
				s.brackets = s.brackets[:i]
				return
			}
		}
		s.bracketError(line, "unbalanced '%c'", c)
	}
}

func (s *scanner) bracketError(line int, format string, args ...interface{}) {
	if s.bracketErrs >= maxBracketErrors {
		return
	}
	s.bracketErrs++
	s.errorf(line, format, args...)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isIdentStart(c byte) bool { return isLetter(c) || c == '_' || c >= 0x80 }

func isIdentChar(c byte) bool { return isIdentStart(c) || isDigit(c) }

func allIn(s, set string) bool {
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(set, s[i]) < 0 {
			return false
		}
	}
	return true
}
