// Package lang maps files to supported languages. Detection never fails:
// anything that matches no rule is model.LanguageUnknown.
package lang

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/QTest-hq/codescope/pkg/model"
)

// Info describes one supported language for the read-only languages table
type Info struct {
	ID         model.Language `json:"id"`
	Name       string         `json:"name"`
	Extensions []string       `json:"extensions"`
	Parser     string         `json:"parser"` // Scanner family: brace, indent or keyword
}

var table = []Info{
	{model.LanguagePython, "Python", []string{".py", ".pyw"}, "indent"},
	{model.LanguageJavaScript, "JavaScript", []string{".js", ".jsx", ".mjs", ".cjs"}, "brace"},
	{model.LanguageTypeScript, "TypeScript", []string{".ts", ".tsx", ".mts", ".cts"}, "brace"},
	{model.LanguageJava, "Java", []string{".java"}, "brace"},
	{model.LanguageCPP, "C++", []string{".cpp", ".cc", ".cxx", ".hpp", ".hh", ".hxx"}, "brace"},
	{model.LanguageC, "C", []string{".c", ".h"}, "brace"},
	{model.LanguageGo, "Go", []string{".go"}, "brace"},
	{model.LanguageRust, "Rust", []string{".rs"}, "brace"},
	{model.LanguagePHP, "PHP", []string{".php", ".phtml"}, "brace"},
	{model.LanguageRuby, "Ruby", []string{".rb", ".rake", ".gemspec"}, "keyword"},
}

var extensionMap = func() map[string]model.Language {
	m := make(map[string]model.Language)
	for _, info := range table {
		for _, ext := range info.Extensions {
			m[ext] = info.ID
		}
	}
	return m
}()

// aliases accepted as caller-supplied hints, in addition to ids and display names
var aliases = map[string]model.Language{
	"py":      model.LanguagePython,
	"python3": model.LanguagePython,
	"js":      model.LanguageJavaScript,
	"node":    model.LanguageJavaScript,
	"jsx":     model.LanguageJavaScript,
	"ts":      model.LanguageTypeScript,
	"tsx":     model.LanguageTypeScript,
	"golang":  model.LanguageGo,
	"c++":     model.LanguageCPP,
	"cxx":     model.LanguageCPP,
	"rs":      model.LanguageRust,
	"rb":      model.LanguageRuby,
}

// Supported returns the static language table
func Supported() []Info {
	out := make([]Info, len(table))
	copy(out, table)
	return out
}

// Lookup returns the table entry for a language
func Lookup(l model.Language) (Info, bool) {
	for _, info := range table {
		if info.ID == l {
			return info, true
		}
	}
	return Info{}, false
}

// ParseHint resolves a caller-supplied language name. Empty or unrecognised
// hints resolve to LanguageUnknown.
func ParseHint(hint string) model.Language {
	h := strings.ToLower(strings.TrimSpace(hint))
	if h == "" {
		return model.LanguageUnknown
	}
	for _, info := range table {
		if string(info.ID) == h || strings.ToLower(info.Name) == h {
			return info.ID
		}
	}
	if l, ok := aliases[h]; ok {
		return l
	}
	return model.LanguageUnknown
}

// Detect resolves the language of a file. Priority: explicit hint,
// extension, shebang, content heuristics.
func Detect(path, content, hint string) model.Language {
	if l := ParseHint(hint); l != model.LanguageUnknown {
		return l
	}
	if l := FromExtension(path); l != model.LanguageUnknown {
		return l
	}
	if l := FromShebang(content); l != model.LanguageUnknown {
		return l
	}
	return FromContent(content)
}

// FromExtension detects language from the file extension
func FromExtension(path string) model.Language {
	if path == "" {
		return model.LanguageUnknown
	}
	ext := strings.ToLower(filepath.Ext(path))
	if l, ok := extensionMap[ext]; ok {
		return l
	}
	return model.LanguageUnknown
}

var interpreters = map[string]model.Language{
	"python":  model.LanguagePython,
	"python2": model.LanguagePython,
	"python3": model.LanguagePython,
	"node":    model.LanguageJavaScript,
	"nodejs":  model.LanguageJavaScript,
	"deno":    model.LanguageTypeScript,
	"ts-node": model.LanguageTypeScript,
	"ruby":    model.LanguageRuby,
	"php":     model.LanguagePHP,
}

// FromShebang detects language from a #! interpreter line
func FromShebang(content string) model.Language {
	if !strings.HasPrefix(content, "#!") {
		return model.LanguageUnknown
	}
	line := content
	if i := strings.IndexByte(content, '\n'); i >= 0 {
		line = content[:i]
	}
	fields := strings.Fields(strings.TrimPrefix(line, "#!"))
	if len(fields) == 0 {
		return model.LanguageUnknown
	}
	// "/usr/bin/env python3" names the interpreter in the second field
	cmd := filepath.Base(fields[0])
	if cmd == "env" {
		cmd = ""
		for _, f := range fields[1:] {
			if !strings.HasPrefix(f, "-") {
				cmd = filepath.Base(f)
				break
			}
		}
	}
	cmd = strings.TrimRight(cmd, "0123456789.")
	if l, ok := interpreters[cmd]; ok {
		return l
	}
	return model.LanguageUnknown
}

// contentSignals are distinctive fragments per language used as a last resort
var contentSignals = map[model.Language][]*regexp.Regexp{
	model.LanguagePython: {
		regexp.MustCompile(`(?m)^\s*def \w+\(.*\)\s*(->\s*[\w\[\], .]+)?:\s*$`),
		regexp.MustCompile(`(?m)^\s*from [\w.]+ import `),
		regexp.MustCompile(`(?m)^\s*import \w+(\.\w+)*\s*$`),
		regexp.MustCompile(`(?m)^\s*(elif|except)\b.*:\s*$`),
		regexp.MustCompile(`self\.\w+`),
		regexp.MustCompile(`(?m)^if __name__ == ['"]__main__['"]:`),
	},
	model.LanguageJavaScript: {
		regexp.MustCompile(`\bfunction\s+\w+\s*\(`),
		regexp.MustCompile(`\b(const|let)\s+\w+\s*=`),
		regexp.MustCompile(`=>\s*\{`),
		regexp.MustCompile(`\brequire\(['"]`),
		regexp.MustCompile(`\bconsole\.log\(`),
		regexp.MustCompile(`\bmodule\.exports\b`),
	},
	model.LanguageTypeScript: {
		regexp.MustCompile(`\binterface\s+\w+\s*\{`),
		regexp.MustCompile(`:\s*(string|number|boolean|void)\b`),
		regexp.MustCompile(`\bexport\s+(type|interface|enum)\s+\w+`),
		regexp.MustCompile(`\bimport\s+.*\s+from\s+['"]`),
	},
	model.LanguageJava: {
		regexp.MustCompile(`\bpublic\s+(static\s+)?(final\s+)?class\s+\w+`),
		regexp.MustCompile(`\bSystem\.out\.println\(`),
		regexp.MustCompile(`(?m)^package\s+[\w.]+;`),
		regexp.MustCompile(`(?m)^import\s+(static\s+)?[\w.]+(\.\*)?;`),
		regexp.MustCompile(`@Override\b`),
	},
	model.LanguageCPP: {
		regexp.MustCompile(`(?m)^#include\s*<(iostream|vector|string|memory|map)>`),
		regexp.MustCompile(`\bstd::\w+`),
		regexp.MustCompile(`\bnamespace\s+\w+\s*\{`),
		regexp.MustCompile(`\btemplate\s*<`),
		regexp.MustCompile(`\bclass\s+\w+\s*(:\s*public\s+\w+)?\s*\{`),
	},
	model.LanguageC: {
		regexp.MustCompile(`(?m)^#include\s*<(stdio|stdlib|string|unistd)\.h>`),
		regexp.MustCompile(`\bprintf\s*\(`),
		regexp.MustCompile(`\bmalloc\s*\(`),
		regexp.MustCompile(`\bint\s+main\s*\(`),
		regexp.MustCompile(`\bstruct\s+\w+\s*\{`),
	},
	model.LanguageGo: {
		regexp.MustCompile(`(?m)^package\s+\w+\s*$`),
		regexp.MustCompile(`(?m)^func\s+(\(\w+\s+\*?\w+\)\s+)?\w+\(`),
		regexp.MustCompile(`:=`),
		regexp.MustCompile(`\bfmt\.\w+\(`),
		regexp.MustCompile(`\berr\s*!=\s*nil\b`),
	},
	model.LanguageRust: {
		regexp.MustCompile(`\bfn\s+\w+\s*(<[^>]*>)?\s*\(`),
		regexp.MustCompile(`\blet\s+mut\s+\w+`),
		regexp.MustCompile(`\bimpl(\s*<[^>]*>)?\s+\w+`),
		regexp.MustCompile(`(?m)^use\s+[\w:]+`),
		regexp.MustCompile(`\bprintln!\(`),
		regexp.MustCompile(`&self\b`),
	},
	model.LanguagePHP: {
		regexp.MustCompile(`<\?php`),
		regexp.MustCompile(`\$\w+\s*=`),
		regexp.MustCompile(`\bfunction\s+\w+\s*\(\s*(\??\w+\s+)?\$`),
		regexp.MustCompile(`\becho\s+`),
		regexp.MustCompile(`->\w+\(`),
	},
	model.LanguageRuby: {
		regexp.MustCompile(`(?m)^\s*def\s+\w+[?!]?\s*(\(.*\))?\s*$`),
		regexp.MustCompile(`(?m)^\s*end\s*$`),
		regexp.MustCompile(`\bputs\s+`),
		regexp.MustCompile(`(?m)^\s*require\s+['"]`),
		regexp.MustCompile(`\bdo\s*\|[\w, ]+\|`),
		regexp.MustCompile(`(?m)^\s*attr_(reader|accessor|writer)\b`),
	},
}

// minContentScore is the number of distinct signals required before trusting content
const minContentScore = 2

// FromContent scores the content against per-language signals and returns the
// best match, or LanguageUnknown if no language reaches minContentScore.
func FromContent(content string) model.Language {
	if strings.TrimSpace(content) == "" {
		return model.LanguageUnknown
	}
	sample := content
	if len(sample) > 64*1024 {
		sample = sample[:64*1024]
	}

	type scored struct {
		lang  model.Language
		score int
	}
	var scores []scored
	for l, signals := range contentSignals {
		n := 0
		for _, re := range signals {
			if re.MatchString(sample) {
				n++
			}
		}
		if n >= minContentScore {
			scores = append(scores, scored{l, n})
		}
	}
	if len(scores) == 0 {
		return model.LanguageUnknown
	}

	// Highest score wins; ties resolve in table order so results are stable
	order := make(map[model.Language]int, len(table))
	for i, info := range table {
		order[info.ID] = i
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score > scores[j].score
		}
		return order[scores[i].lang] < order[scores[j].lang]
	})
	return scores[0].lang
}
