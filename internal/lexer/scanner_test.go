package lexer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QTest-hq/codescope/pkg/model"
)

func scan(t *testing.T, src string, lang model.Language) *Result {
	t.Helper()
	res, err := Scan(context.Background(), src, lang)
	require.NoError(t, err)
	return res
}

func texts(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Text
	}
	return out
}

func TestScan_Basic(t *testing.T) {
	res := scan(t, "x := foo(1, \"a\")\n", model.LanguageGo)

	assert.Empty(t, res.Errors)
	assert.Equal(t, 1, res.Lines)
	assert.Equal(t, []string{"x", ":=", "foo", "(", "1", ",", `"a"`, ")"}, texts(res.Significant()))

	kinds := []Kind{Identifier, Operator, Identifier, Punctuation, Number, Punctuation, String, Punctuation, Newline, EOF}
	require.Len(t, res.Tokens, len(kinds))
	for i, k := range kinds {
		assert.Equal(t, k, res.Tokens[i].Kind, "token %d", i)
	}
}

func TestScan_Positions(t *testing.T) {
	res := scan(t, "a\n  bb", model.LanguagePython)
	sig := res.Significant()
	require.Len(t, sig, 2)
	assert.Equal(t, 1, sig[0].Line)
	assert.Equal(t, 1, sig[0].Column)
	assert.Equal(t, 2, sig[1].Line)
	assert.Equal(t, 3, sig[1].Column)
}

func TestScan_LineCount(t *testing.T) {
	tests := []struct {
		src   string
		lines int
	}{
		{"", 0},
		{"a", 1},
		{"a\n", 1},
		{"a\nb", 2},
		{"a\n\n", 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.lines, scan(t, tt.src, model.LanguagePython).Lines, "%q", tt.src)
	}
}

func TestScan_Keywords(t *testing.T) {
	res := scan(t, "def f(): return None", model.LanguagePython)
	sig := res.Significant()
	assert.True(t, sig[0].IsKeyword("def"))
	assert.Equal(t, Identifier, sig[1].Kind)
	assert.True(t, sig[5].IsKeyword("return"))

	// PHP keywords are case-insensitive
	res = scan(t, "FUNCTION foo() {}", model.LanguagePHP)
	assert.Equal(t, Keyword, res.Tokens[0].Kind)

	assert.True(t, IsKeyword(model.LanguageRust, "impl"))
	assert.False(t, IsKeyword(model.LanguageGo, "impl"))
	assert.False(t, IsKeyword(model.LanguageUnknown, "if"))
}

func TestScan_Comments(t *testing.T) {
	tests := []struct {
		name string
		lang model.Language
		src  string
		want string
	}{
		{"go line", model.LanguageGo, "// hi\nx", "// hi"},
		{"c block", model.LanguageC, "/* a\nb */x", "/* a\nb */"},
		{"python hash", model.LanguagePython, "# note\nx", "# note"},
		{"php hash", model.LanguagePHP, "# note\n$x", "# note"},
		{"ruby begin", model.LanguageRuby, "=begin\ndoc\n=end\nx", "=begin\ndoc\n=end"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := scan(t, tt.src, tt.lang)
			require.NotEmpty(t, res.Tokens)
			assert.Equal(t, Comment, res.Tokens[0].Kind)
			assert.Equal(t, tt.want, res.Tokens[0].Text)
			assert.Empty(t, res.Errors)
		})
	}
}

func TestScan_PHPAttributeIsNotComment(t *testing.T) {
	res := scan(t, "#[Route('/x')]\nfunction f() {}", model.LanguagePHP)
	assert.NotEqual(t, Comment, res.Tokens[0].Kind)
}

func TestScan_Strings(t *testing.T) {
	tests := []struct {
		name string
		lang model.Language
		src  string
		want string
	}{
		{"python triple", model.LanguagePython, "\"\"\"doc\nmore\"\"\"", "\"\"\"doc\nmore\"\"\""},
		{"python prefix", model.LanguagePython, `f"x{y}"`, `f"x{y}"`},
		{"escaped quote", model.LanguageJavaScript, `"a\"b"`, `"a\"b"`},
		{"js template", model.LanguageJavaScript, "`a\nb`", "`a\nb`"},
		{"go raw", model.LanguageGo, "`C:\\path\\`", "`C:\\path\\`"},
		{"rust raw", model.LanguageRust, `r#"say "hi""#`, `r#"say "hi""#`},
		{"cpp raw", model.LanguageCPP, `R"x(a)"b)x"`, `R"x(a)"b)x"`},
		{"java text block", model.LanguageJava, "\"\"\"\n  hi\n\"\"\"", "\"\"\"\n  hi\n\"\"\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := scan(t, tt.src, tt.lang)
			assert.Empty(t, res.Errors)
			assert.Equal(t, String, res.Tokens[0].Kind)
			assert.Equal(t, tt.want, res.Tokens[0].Text)
		})
	}
}

func TestScan_MultiLineTokenAdvancesLine(t *testing.T) {
	res := scan(t, "s = \"\"\"a\nb\"\"\"\nx", model.LanguagePython)
	sig := res.Significant()
	last := sig[len(sig)-1]
	assert.Equal(t, "x", last.Text)
	assert.Equal(t, 3, last.Line)
	assert.Equal(t, 2, sig[2].EndLine())
}

func TestScan_RustLifetime(t *testing.T) {
	res := scan(t, "fn f<'a>(x: &'a str) -> char { 'c' }", model.LanguageRust)
	assert.Empty(t, res.Errors)

	var lifetimes, chars int
	for _, tok := range res.Tokens {
		if tok.Text == "'a" && tok.Kind == Identifier {
			lifetimes++
		}
		if tok.Text == "'c'" && tok.Kind == String {
			chars++
		}
	}
	assert.Equal(t, 2, lifetimes)
	assert.Equal(t, 1, chars)
}

func TestScan_JSRegexVersusDivision(t *testing.T) {
	res := scan(t, "const r = /a+\\/b/g;\nconst d = x / y / z;", model.LanguageJavaScript)
	assert.Empty(t, res.Errors)

	var regexes []string
	var divisions int
	for _, tok := range res.Tokens {
		if tok.Kind == String {
			regexes = append(regexes, tok.Text)
		}
		if tok.Is(Operator, "/") {
			divisions++
		}
	}
	assert.Equal(t, []string{`/a+\/b/g`}, regexes)
	assert.Equal(t, 2, divisions)
}

func TestScan_Preprocessor(t *testing.T) {
	res := scan(t, "#include <stdio.h>\n#include \"local.h\"\n", model.LanguageC)
	sig := res.Significant()
	assert.Equal(t, []string{"#include", "<stdio.h>", "#include", `"local.h"`}, texts(sig))
	assert.Equal(t, Keyword, sig[0].Kind)
	assert.Equal(t, String, sig[1].Kind)
}

func TestScan_PHPHeredoc(t *testing.T) {
	src := "$s = <<<EOT\nhello }\nEOT;\n$y = 1;"
	res := scan(t, src, model.LanguagePHP)
	assert.Empty(t, res.Errors)
	assert.Contains(t, texts(res.Tokens), "<<<EOT\nhello }\nEOT")
}

func TestScan_RubyIdentifiers(t *testing.T) {
	res := scan(t, "@name = @@count + $global if empty? && save!", model.LanguageRuby)
	got := texts(res.Significant())
	assert.Contains(t, got, "@name")
	assert.Contains(t, got, "@@count")
	assert.Contains(t, got, "$global")
	assert.Contains(t, got, "empty?")
	assert.Contains(t, got, "save!")
}

func TestScan_Numbers(t *testing.T) {
	res := scan(t, "a = 0x1F + 1.5e-3 + 10_000; for i in 0..10 {}", model.LanguageRust)
	var nums []string
	for _, tok := range res.Tokens {
		if tok.Kind == Number {
			nums = append(nums, tok.Text)
		}
	}
	assert.Equal(t, []string{"0x1F", "1.5e-3", "10_000", "0", "10"}, nums)
}

func TestScan_LongestOperatorMatch(t *testing.T) {
	res := scan(t, "a === b !== c <<= d", model.LanguageJavaScript)
	var ops []string
	for _, tok := range res.Tokens {
		if tok.Kind == Operator {
			ops = append(ops, tok.Text)
		}
	}
	assert.Equal(t, []string{"===", "!==", "<<="}, ops)
}

func TestScan_LineContinuation(t *testing.T) {
	res := scan(t, "x = 1 + \\\n    2\n", model.LanguagePython)
	var newlines int
	for _, tok := range res.Tokens {
		if tok.Kind == Newline {
			newlines++
		}
	}
	assert.Equal(t, 1, newlines)
}

func TestScan_Tolerance(t *testing.T) {
	t.Run("unterminated string", func(t *testing.T) {
		res := scan(t, "x = \"abc\ny = 1", model.LanguagePython)
		require.NotEmpty(t, res.Errors)
		assert.Contains(t, res.Errors[0].Message, "unterminated string")
		assert.Equal(t, 1, res.Errors[0].Line)
		assert.Equal(t, EOF, res.Tokens[len(res.Tokens)-1].Kind)
	})

	t.Run("unterminated block comment", func(t *testing.T) {
		res := scan(t, "int x; /* never closed", model.LanguageC)
		require.Len(t, res.Errors, 1)
		assert.Contains(t, res.Errors[0].Message, "unterminated block comment")
	})

	t.Run("unbalanced closer", func(t *testing.T) {
		res := scan(t, "func f() {\n}\n}\n", model.LanguageGo)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, 3, res.Errors[0].Line)
	})

	t.Run("unclosed opener", func(t *testing.T) {
		res := scan(t, "func f() {\n  x := 1\n", model.LanguageGo)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, 1, res.Errors[0].Line)
		assert.Equal(t, "PARSE_WARNING", res.Errors[0].Code)
	})

	t.Run("bracket errors are capped", func(t *testing.T) {
		res := scan(t, strings.Repeat(")", 50), model.LanguageGo)
		assert.Len(t, res.Errors, maxBracketErrors)
	})
}

func TestScan_UnsupportedLanguage(t *testing.T) {
	_, err := Scan(context.Background(), "x", model.LanguageUnknown)
	assert.Error(t, err)
	assert.False(t, Supports(model.LanguageUnknown))
	assert.True(t, Supports(model.LanguageRuby))
}

func TestScan_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := strings.Repeat("x = 1\n", 2000)
	_, err := Scan(ctx, src, model.LanguagePython)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScan_AllLanguages(t *testing.T) {
	for _, l := range model.Languages {
		t.Run(string(l), func(t *testing.T) {
			assert.True(t, Supports(l))
			res := scan(t, "a(b)\n", l)
			assert.Empty(t, res.Errors)
			assert.Equal(t, []string{"a", "(", "b", ")"}, texts(res.Significant()))
		})
	}
}
