package parser

import (
	"strings"

	"github.com/QTest-hq/codescope/internal/lexer"
)

// commentDoc returns the comment block that ends on the line right above
// line, with no blank or code line in between
func (b *builder) commentDoc(line int) string {
	var parts []string
	l := line - 1
	for l >= 1 && l < len(b.lines) {
		info := b.lines[l]
		if info.Code || info.Comment < 0 {
			break
		}
		tok := b.res.Tokens[info.Comment]
		parts = append(parts, cleanComment(tok.Text))
		l = tok.Line - 1
	}
	if len(parts) == 0 {
		return ""
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// cleanComment strips comment markers and leading decoration from each line
func cleanComment(text string) string {
	s := text
	switch {
	case strings.HasPrefix(s, "/*"):
		s = strings.TrimSuffix(strings.TrimPrefix(s, "/*"), "*/")
	case strings.HasPrefix(s, "=begin"):
		s = strings.TrimPrefix(s, "=begin")
		if i := strings.LastIndex(s, "=end"); i >= 0 {
			s = s[:i]
		}
	}

	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		for _, marker := range []string{"///", "//!", "//", "#", "**", "*"} {
			if strings.HasPrefix(line, marker) {
				line = strings.TrimSpace(strings.TrimPrefix(line, marker))
				break
			}
		}
		out = append(out, line)
	}
	return trimBlankLines(out)
}

// stringDoc cleans a Python docstring literal
func stringDoc(tok lexer.Token) string {
	s := strings.TrimLeft(tok.Text, "rRbBuUfF")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(s, q) {
			s = strings.TrimSuffix(strings.TrimPrefix(s, q), q)
			break
		}
	}
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return trimBlankLines(lines)
}

func trimBlankLines(lines []string) string {
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// joinTokens renders a token run back to compact source text
func joinTokens(toks []lexer.Token) string {
	var sb strings.Builder
	for i, t := range toks {
		if i > 0 {
			prev := toks[i-1]
			if (isWordy(prev) && isWordy(t)) || prev.IsPunct(",") || (prev.IsPunct(")") && isWordy(t)) {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(t.Text)
	}
	return sb.String()
}

func isWordy(t lexer.Token) bool {
	return t.IsWord() || t.Kind == lexer.Number || t.Kind == lexer.String
}
