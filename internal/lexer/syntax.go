package lexer

import (
	"strings"

	"github.com/QTest-hq/codescope/pkg/model"
)

// backtickMode controls how ` is scanned
type backtickMode int

const (
	backtickOperator backtickMode = iota
	backtickRaw                   // Go raw strings: multi-line, no escapes
	backtickTemplate              // JS/TS template literals and Ruby commands
)

// syntax describes the lexical rules of one language
type syntax struct {
	keywords        map[string]bool
	lineComments    []string
	blockComment    [2]string
	hashComment     bool // '#' starts a line comment
	backticks       backtickMode
	tripleQuotes    bool // """ and ''' strings
	stringPrefixes  string
	charLiterals    bool // single quotes hold one character and cannot span lines
	multilineQuotes bool // "..." may span lines
	preprocessor    bool
	dollarIdents    bool
	rubySigils      bool
	rustStrings     bool
	regexLiterals   bool
	heredoc         bool
	caseInsensitive bool
}

// isKeyword reports whether word is reserved in this syntax
func (s *syntax) isKeyword(word string) bool {
	if s.caseInsensitive {
		word = strings.ToLower(word)
	}
	return s.keywords[word]
}

func words(list string) map[string]bool {
	m := make(map[string]bool)
	for _, w := range strings.Fields(list) {
		m[w] = true
	}
	return m
}

const cKeywords = `auto break case char const continue default do double else enum extern float
	for goto if inline int long register restrict return short signed sizeof static struct switch
	typedef union unsigned void volatile while _Bool`

var syntaxes = map[model.Language]*syntax{
	model.LanguagePython: {
		keywords: words(`False None True and as assert async await break class continue def del elif
			else except finally for from global if import in is lambda nonlocal not or pass raise
			return try while with yield`),
		hashComment:    true,
		tripleQuotes:   true,
		stringPrefixes: "rRbBuUfF",
	},
	model.LanguageJavaScript: {
		keywords: words(`break case catch class const continue debugger default delete do else export
			extends finally for function if import in instanceof let new return super switch this
			throw try typeof var void while with yield async await null true false`),
		lineComments:  []string{"//"},
		blockComment:  [2]string{"/*", "*/"},
		backticks:     backtickTemplate,
		dollarIdents:  true,
		regexLiterals: true,
	},
	model.LanguageTypeScript: {
		keywords: words(`break case catch class const continue debugger default delete do else export
			extends finally for function if import in instanceof let new return super switch this
			throw try typeof var void while with yield async await null true false interface enum
			implements private protected public readonly abstract declare`),
		lineComments:  []string{"//"},
		blockComment:  [2]string{"/*", "*/"},
		backticks:     backtickTemplate,
		dollarIdents:  true,
		regexLiterals: true,
	},
	model.LanguageJava: {
		keywords: words(`abstract assert boolean break byte case catch char class const continue default
			do double else enum extends final finally float for goto if implements import instanceof
			int interface long native new package private protected public return short static
			strictfp super switch synchronized this throw throws transient try void volatile while
			true false null var record`),
		lineComments: []string{"//"},
		blockComment: [2]string{"/*", "*/"},
		tripleQuotes: true,
		charLiterals: true,
	},
	model.LanguageC: {
		keywords:     words(cKeywords),
		lineComments: []string{"//"},
		blockComment: [2]string{"/*", "*/"},
		charLiterals: true,
		preprocessor: true,
	},
	model.LanguageCPP: {
		keywords: words(cKeywords + ` alignas alignof and bool catch class constexpr const_cast decltype
			delete dynamic_cast explicit export false friend mutable namespace new noexcept not nullptr
			operator or private protected public reinterpret_cast static_assert static_cast template
			this thread_local throw true try typeid typename using virtual wchar_t`),
		lineComments: []string{"//"},
		blockComment: [2]string{"/*", "*/"},
		charLiterals: true,
		preprocessor: true,
	},
	model.LanguageGo: {
		keywords: words(`break case chan const continue default defer else fallthrough for func go goto
			if import interface map package range return select struct switch type var nil true false`),
		lineComments: []string{"//"},
		blockComment: [2]string{"/*", "*/"},
		backticks:    backtickRaw,
		charLiterals: true,
	},
	model.LanguageRust: {
		keywords: words(`as async await break const continue crate dyn else enum extern false fn for if
			impl in let loop match mod move mut pub ref return self Self static struct super trait
			true type unsafe use where while`),
		lineComments:    []string{"//"},
		blockComment:    [2]string{"/*", "*/"},
		charLiterals:    true,
		multilineQuotes: true,
		rustStrings:     true,
	},
	model.LanguagePHP: {
		keywords: words(`abstract and as break callable case catch class clone const continue declare
			default do echo else elseif enddeclare endfor endforeach endif endswitch endwhile extends
			final finally fn for foreach function global goto if implements include include_once
			instanceof insteadof interface match namespace new or print private protected public
			readonly require require_once return static switch throw trait try use var while xor
			yield true false null`),
		lineComments:    []string{"//"},
		blockComment:    [2]string{"/*", "*/"},
		hashComment:     true,
		multilineQuotes: true,
		dollarIdents:    true,
		heredoc:         true,
		caseInsensitive: true,
	},
	model.LanguageRuby: {
		keywords: words(`BEGIN END alias and begin break case class def defined? do else elsif end ensure
			false for if in module next nil not or redo rescue retry return self super then true
			undef unless until when while yield`),
		hashComment:     true,
		backticks:       backtickTemplate,
		multilineQuotes: true,
		rubySigils:      true,
	},
}

// IsKeyword reports whether word is a reserved word of the language
func IsKeyword(lang model.Language, word string) bool {
	s, ok := syntaxes[lang]
	if !ok {
		return false
	}
	return s.isKeyword(word)
}

// multiCharOperators is ordered longest first so the scanner takes the longest match
var multiCharOperators = []string{
	"<<=", ">>=", "===", "!==", "**=", "...", "<=>", "??=", "||=", "&&=", "->>",
	"=>", "->", "::", "&&", "||", "==", "!=", "<=", ">=", "++", "--", "+=", "-=", "*=", "/=",
	"%=", "&=", "|=", "^=", "<<", ">>", "**", "//", ":=", "?.", "??", "..", "<-", "|>",
}

const punctuation = "()[]{},;.:"
