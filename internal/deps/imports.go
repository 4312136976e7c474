package deps

import (
	"strings"

	"github.com/QTest-hq/codescope/internal/lexer"
	"github.com/QTest-hq/codescope/pkg/model"
)

type importRef struct {
	module string
	line   int
}

type importFunc func(sig []lexer.Token) []importRef

var importers = map[model.Language]importFunc{
	model.LanguagePython:     pythonImports,
	model.LanguageJavaScript: scriptImports,
	model.LanguageTypeScript: scriptImports,
	model.LanguageJava:       javaImports,
	model.LanguageGo:         goImports,
	model.LanguageC:          includeImports,
	model.LanguageCPP:        includeImports,
	model.LanguageRust:       rustImports,
	model.LanguagePHP:        phpImports,
	model.LanguageRuby:       rubyImports,
}

// maxStatementTokens bounds the scan for a terminating ';'
const maxStatementTokens = 256

// untilSemicolon returns the tokens from start up to the next ';'
func untilSemicolon(sig []lexer.Token, start int) []lexer.Token {
	end := start
	for end < len(sig) && end-start < maxStatementTokens && !sig[end].IsPunct(";") {
		end++
	}
	return sig[start:end]
}

// import a.b, c as d / from .pkg import x
func pythonImports(sig []lexer.Token) []importRef {
	var refs []importRef
	for i, t := range sig {
		if !statementStart(sig, i) {
			continue
		}
		switch {
		case t.IsKeyword("from"):
			k := i + 1
			for k < len(sig) && sig[k].Line == t.Line && !sig[k].IsKeyword("import") {
				k++
			}
			if tok(sig, k).IsKeyword("import") && k > i+1 {
				refs = append(refs, importRef{concat(sig[i+1 : k]), t.Line})
			}
		case t.IsKeyword("import"):
			start := i + 1
			for k := start; ; k++ {
				if k < len(sig) && sig[k].Line == t.Line && !sig[k].IsPunct(",") && !sig[k].IsPunct(";") {
					continue
				}
				seg := sig[start:k]
				for n, s := range seg {
					if s.IsKeyword("as") {
						seg = seg[:n]
						break
					}
				}
				if len(seg) > 0 {
					refs = append(refs, importRef{concat(seg), t.Line})
				}
				if k >= len(sig) || !sig[k].IsPunct(",") {
					break
				}
				start = k + 1
			}
		}
	}
	return refs
}

// import x from 'm', import 'm', export * from 'm', import('m'), require('m')
func scriptImports(sig []lexer.Token) []importRef {
	var refs []importRef
	for i, t := range sig {
		if t.Kind != lexer.String {
			continue
		}
		prev := tok(sig, i-1)
		switch {
		case prev.Is(lexer.Identifier, "from"), prev.IsKeyword("import"):
		case prev.IsPunct("(") && (tok(sig, i-2).IsKeyword("import") || tok(sig, i-2).Is(lexer.Identifier, "require")):
		default:
			continue
		}
		refs = append(refs, importRef{unquote(t.Text), t.Line})
	}
	return refs
}

// import [static] a.b.C;
func javaImports(sig []lexer.Token) []importRef {
	var refs []importRef
	for i, t := range sig {
		if !t.IsKeyword("import") || !statementStart(sig, i) {
			continue
		}
		start := i + 1
		if tok(sig, start).IsKeyword("static") {
			start++
		}
		refs = append(refs, importRef{concat(untilSemicolon(sig, start)), t.Line})
	}
	return refs
}

// import "fmt" / import ( alias "path" ... )
func goImports(sig []lexer.Token) []importRef {
	var refs []importRef
	for i, t := range sig {
		if !t.IsKeyword("import") {
			continue
		}
		if tok(sig, i+1).IsPunct("(") {
			for k := i + 2; k < len(sig) && !sig[k].IsPunct(")"); k++ {
				if sig[k].Kind == lexer.String {
					refs = append(refs, importRef{unquote(sig[k].Text), sig[k].Line})
				}
			}
			continue
		}
		for k := i + 1; k <= i+2 && k < len(sig); k++ {
			if sig[k].Kind == lexer.String {
				refs = append(refs, importRef{unquote(sig[k].Text), sig[k].Line})
				break
			}
		}
	}
	return refs
}

// #include <x.h> / #include "x.h"
func includeImports(sig []lexer.Token) []importRef {
	var refs []importRef
	for i, t := range sig {
		if !t.IsKeyword("#include") && !t.IsKeyword("#import") {
			continue
		}
		if next := tok(sig, i+1); next.Kind == lexer.String && next.Line == t.Line {
			refs = append(refs, importRef{unquote(next.Text), t.Line})
		}
	}
	return refs
}

// use a::b::{c, d}; / extern crate x;
func rustImports(sig []lexer.Token) []importRef {
	var refs []importRef
	for i, t := range sig {
		switch {
		case t.IsKeyword("use"):
			refs = append(refs, importRef{concat(untilSemicolon(sig, i+1)), t.Line})
		case t.IsKeyword("extern") && tok(sig, i+1).IsKeyword("crate"):
			if name := tok(sig, i+2); name.Kind == lexer.Identifier {
				refs = append(refs, importRef{name.Text, t.Line})
			}
		}
	}
	return refs
}

var phpIncludes = map[string]bool{
	"require": true, "require_once": true, "include": true, "include_once": true,
}

// use A\B; / require_once 'x.php';
func phpImports(sig []lexer.Token) []importRef {
	var refs []importRef
	for i, t := range sig {
		if t.Kind != lexer.Keyword {
			continue
		}
		word := strings.ToLower(t.Text)
		switch {
		case word == "use":
			// closures: function () use ($x)
			if tok(sig, i-1).IsPunct(")") {
				continue
			}
			start := i + 1
			if next := strings.ToLower(tok(sig, start).Text); next == "function" || next == "const" {
				start++
			}
			refs = append(refs, importRef{concat(untilSemicolon(sig, start)), t.Line})
		case phpIncludes[word]:
			stmt := untilSemicolon(sig, i+1)
			module := ""
			for _, s := range stmt {
				if s.Kind == lexer.String {
					module = unquote(s.Text)
					break
				}
			}
			if module == "" {
				module = concat(stmt)
			}
			refs = append(refs, importRef{module, t.Line})
		}
	}
	return refs
}

var rubyLoaders = map[string]bool{"require": true, "require_relative": true, "load": true}

// require 'x' / require_relative('x')
func rubyImports(sig []lexer.Token) []importRef {
	var refs []importRef
	for i, t := range sig {
		if t.Kind != lexer.Identifier || !rubyLoaders[t.Text] || tok(sig, i-1).IsPunct(".") {
			continue
		}
		k := i + 1
		if tok(sig, k).IsPunct("(") {
			k++
		}
		if arg := tok(sig, k); arg.Kind == lexer.String && arg.Line == t.Line {
			refs = append(refs, importRef{unquote(arg.Text), t.Line})
		}
	}
	return refs
}
