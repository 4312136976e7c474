package parser

import (
	"strings"

	"github.com/QTest-hq/codescope/internal/lexer"
	"github.com/QTest-hq/codescope/pkg/model"
)

// parseParams turns the tokens between a parameter list's parentheses into parameters
func parseParams(lang model.Language, toks []lexer.Token) []model.Parameter {
	angles := lang == model.LanguageJava || lang == model.LanguageTypeScript ||
		lang == model.LanguageRust || lang == model.LanguageCPP
	segs := splitArgs(toks, angles)

	if lang == model.LanguageGo {
		return goParams(segs)
	}

	params := make([]model.Parameter, 0, len(segs))
	for _, seg := range segs {
		var p model.Parameter
		var ok bool
		switch lang {
		case model.LanguagePython:
			p, ok = pythonParam(seg)
		case model.LanguageJavaScript, model.LanguageTypeScript:
			p, ok = scriptParam(seg)
		case model.LanguageJava:
			p, ok = javaParam(seg)
		case model.LanguageC, model.LanguageCPP:
			p, ok = cParam(seg)
		case model.LanguageRust:
			p, ok = rustParam(seg)
		case model.LanguagePHP:
			p, ok = phpParam(seg)
		case model.LanguageRuby:
			p, ok = rubyParam(seg)
		}
		if ok {
			params = append(params, p)
		}
	}
	return params
}

// splitArgs splits on top-level commas
func splitArgs(toks []lexer.Token, angles bool) [][]lexer.Token {
	var out [][]lexer.Token
	depth, start := 0, 0
	for i, t := range toks {
		switch {
		case t.IsPunct("(") || t.IsPunct("[") || t.IsPunct("{"):
			depth++
		case t.IsPunct(")") || t.IsPunct("]") || t.IsPunct("}"):
			depth--
		case angles && t.Is(lexer.Operator, "<"):
			depth++
		case angles && t.Is(lexer.Operator, ">"):
			depth--
		case angles && t.Is(lexer.Operator, ">>"):
			depth -= 2
		case t.IsPunct(",") && depth <= 0:
			if i > start {
				out = append(out, toks[start:i])
			}
			start = i + 1
			depth = 0
		}
	}
	if start < len(toks) {
		out = append(out, toks[start:])
	}
	return out
}

// cutDefault drops a "= value" tail
func cutDefault(seg []lexer.Token) []lexer.Token {
	depth := 0
	for i, t := range seg {
		switch {
		case t.IsPunct("(") || t.IsPunct("[") || t.IsPunct("{"):
			depth++
		case t.IsPunct(")") || t.IsPunct("]") || t.IsPunct("}"):
			depth--
		case depth == 0 && t.Is(lexer.Operator, "="):
			return seg[:i]
		}
	}
	return seg
}

// splitType splits "name: type" at the first top-level colon
func splitType(seg []lexer.Token) (name, typ []lexer.Token) {
	depth := 0
	for i, t := range seg {
		switch {
		case t.IsPunct("(") || t.IsPunct("[") || t.IsPunct("{"):
			depth++
		case t.IsPunct(")") || t.IsPunct("]") || t.IsPunct("}"):
			depth--
		case depth == 0 && t.IsPunct(":"):
			return seg[:i], seg[i+1:]
		}
	}
	return seg, nil
}

func pythonParam(seg []lexer.Token) (model.Parameter, bool) {
	seg = cutDefault(seg)
	for len(seg) > 0 && (seg[0].Is(lexer.Operator, "*") || seg[0].Is(lexer.Operator, "**")) {
		seg = seg[1:]
	}
	name, typ := splitType(seg)
	if len(name) == 0 || !name[0].IsWord() {
		// bare * or / markers
		return model.Parameter{}, false
	}
	return model.Parameter{Name: name[0].Text, TypeHint: joinTokens(typ)}, true
}

var scriptModifiers = map[string]bool{
	"public": true, "private": true, "protected": true, "readonly": true, "override": true,
}

func scriptParam(seg []lexer.Token) (model.Parameter, bool) {
	seg = cutDefault(seg)
	if len(seg) > 0 && seg[0].Is(lexer.Operator, "...") {
		seg = seg[1:]
	}
	for len(seg) > 1 && scriptModifiers[seg[0].Text] {
		seg = seg[1:]
	}
	name, typ := splitType(seg)
	if len(name) > 0 && name[len(name)-1].Is(lexer.Operator, "?") {
		name = name[:len(name)-1]
	}
	if len(name) == 0 {
		return model.Parameter{}, false
	}
	return model.Parameter{Name: joinTokens(name), TypeHint: joinTokens(typ)}, true
}

func javaParam(seg []lexer.Token) (model.Parameter, bool) {
	seg = stripAnnotations(seg)
	for len(seg) > 1 && seg[0].IsKeyword("final") {
		seg = seg[1:]
	}
	// "String args[]"
	for len(seg) > 2 && seg[len(seg)-1].IsPunct("]") && seg[len(seg)-2].IsPunct("[") {
		seg = seg[:len(seg)-2]
	}
	if len(seg) == 0 {
		return model.Parameter{}, false
	}
	last := seg[len(seg)-1]
	if len(seg) == 1 {
		return model.Parameter{Name: last.Text}, true
	}
	return model.Parameter{Name: last.Text, TypeHint: joinTokens(seg[:len(seg)-1])}, true
}

// stripAnnotations removes @Name and @Name(...) runs
func stripAnnotations(seg []lexer.Token) []lexer.Token {
	out := make([]lexer.Token, 0, len(seg))
	for i := 0; i < len(seg); i++ {
		if !seg[i].Is(lexer.Operator, "@") {
			out = append(out, seg[i])
			continue
		}
		i++
		for i+2 < len(seg) && seg[i+1].IsPunct(".") {
			i += 2
		}
		if i+1 < len(seg) && seg[i+1].IsPunct("(") {
			depth := 0
			for i++; i < len(seg); i++ {
				if seg[i].IsPunct("(") {
					depth++
				} else if seg[i].IsPunct(")") {
					depth--
					if depth == 0 {
						break
					}
				}
			}
		}
	}
	return out
}

func cParam(seg []lexer.Token) (model.Parameter, bool) {
	seg = cutDefault(seg)
	if len(seg) == 0 || (len(seg) == 1 && seg[0].IsKeyword("void")) {
		return model.Parameter{}, false
	}
	if len(seg) == 1 && seg[0].Is(lexer.Operator, "...") {
		return model.Parameter{Name: "..."}, true
	}
	for len(seg) > 2 && seg[len(seg)-1].IsPunct("]") {
		open := len(seg) - 1
		for open > 0 && !seg[open].IsPunct("[") {
			open--
		}
		seg = seg[:open]
	}
	last := seg[len(seg)-1]
	if len(seg) > 1 && last.Kind == lexer.Identifier {
		return model.Parameter{Name: last.Text, TypeHint: joinTokens(seg[:len(seg)-1])}, true
	}
	return model.Parameter{TypeHint: joinTokens(seg)}, true
}

func rustParam(seg []lexer.Token) (model.Parameter, bool) {
	name, typ := splitType(seg)
	kept := make([]lexer.Token, 0, len(name))
	for _, t := range name {
		if t.IsKeyword("mut") || t.IsKeyword("ref") || t.Is(lexer.Operator, "&") ||
			(t.Kind == lexer.Identifier && strings.HasPrefix(t.Text, "'")) {
			continue
		}
		kept = append(kept, t)
	}
	if len(kept) == 0 {
		return model.Parameter{}, false
	}
	return model.Parameter{Name: joinTokens(kept), TypeHint: joinTokens(typ)}, true
}

var phpModifiers = map[string]bool{
	"public": true, "private": true, "protected": true, "readonly": true,
}

func phpParam(seg []lexer.Token) (model.Parameter, bool) {
	seg = cutDefault(seg)
	var typ []lexer.Token
	for i, t := range seg {
		if strings.HasPrefix(t.Text, "$") {
			return model.Parameter{Name: strings.TrimPrefix(t.Text, "$"), TypeHint: joinTokens(typ)}, true
		}
		if phpModifiers[strings.ToLower(t.Text)] || t.Is(lexer.Operator, "&") || t.Is(lexer.Operator, "...") {
			continue
		}
		typ = append(typ, seg[i])
	}
	return model.Parameter{}, false
}

func rubyParam(seg []lexer.Token) (model.Parameter, bool) {
	seg = cutDefault(seg)
	for len(seg) > 0 && (seg[0].Is(lexer.Operator, "*") || seg[0].Is(lexer.Operator, "**") || seg[0].Is(lexer.Operator, "&")) {
		seg = seg[1:]
	}
	if len(seg) == 0 || !seg[0].IsWord() {
		return model.Parameter{}, false
	}
	return model.Parameter{Name: seg[0].Text}, true
}

// goParams handles Go's grouped form "a, b int": bare names take the type
// of the next typed entry
func goParams(segs [][]lexer.Token) []model.Parameter {
	named := false
	for _, seg := range segs {
		if len(seg) > 1 && seg[0].Kind == lexer.Identifier && !seg[1].IsPunct(".") {
			named = true
			break
		}
	}

	params := make([]model.Parameter, 0, len(segs))
	if !named {
		for _, seg := range segs {
			params = append(params, model.Parameter{TypeHint: joinTokens(seg)})
		}
		return params
	}

	pending := 0
	for _, seg := range segs {
		if len(seg) == 1 {
			params = append(params, model.Parameter{Name: seg[0].Text})
			pending++
			continue
		}
		typ := joinTokens(seg[1:])
		for i := len(params) - pending; i < len(params); i++ {
			params[i].TypeHint = typ
		}
		pending = 0
		params = append(params, model.Parameter{Name: seg[0].Text, TypeHint: typ})
	}
	return params
}
