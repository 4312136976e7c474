package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/QTest-hq/codescope/pkg/model"
)

var grammars = map[model.Language]func() *sitter.Language{
	model.LanguageGo:         golang.GetLanguage,
	model.LanguagePython:     python.GetLanguage,
	model.LanguageJavaScript: javascript.GetLanguage,
	model.LanguageTypeScript: typescript.GetLanguage,
	model.LanguageJava:       java.GetLanguage,
	model.LanguageC:          c.GetLanguage,
	model.LanguageCPP:        cpp.GetLanguage,
	model.LanguageRust:       rust.GetLanguage,
	model.LanguagePHP:        php.GetLanguage,
	model.LanguageRuby:       ruby.GetLanguage,
}

// SyntaxCheck parses content with the language's tree-sitter grammar and
// reports the first ERROR or MISSING node. A nil error with no diagnostic
// means the grammar accepted the file.
func SyntaxCheck(ctx context.Context, path, content string, lang model.Language) (*model.ParseError, error) {
	grammar, ok := grammars[lang]
	if !ok {
		return nil, nil
	}
	if lang == model.LanguageTypeScript && strings.EqualFold(filepath.Ext(path), ".tsx") {
		grammar = tsx.GetLanguage
	}

	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(grammar())

	source := []byte(content)
	tree, err := p.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return nil, nil
	}
	node := firstError(root)
	if node == nil {
		return &model.ParseError{Line: 1, Message: "syntax error", Code: "PARSE_WARNING"}, nil
	}

	msg := fmt.Sprintf("syntax error near %q", snippet(node.Content(source)))
	if node.IsMissing() {
		msg = fmt.Sprintf("missing %s", node.Type())
	}
	return &model.ParseError{
		Line:    int(node.StartPoint().Row) + 1,
		Message: msg,
		Code:    "PARSE_WARNING",
	}, nil
}

// firstError walks the tree in source order, pruning subtrees without errors
func firstError(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil || !(child.HasError() || child.IsMissing()) {
			continue
		}
		if found := firstError(child); found != nil {
			return found
		}
	}
	return nil
}

func snippet(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 40 {
		s = s[:40]
	}
	return strings.TrimSpace(s)
}
