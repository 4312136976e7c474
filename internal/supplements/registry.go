// Package supplements provides framework-specific analyzers that detect
// HTTP route registrations and turn them into API endpoints.
//
// Supplements are the "plugin" layer of endpoint detection: the parser
// provides the declarations, supplements provide the framework semantics.
package supplements

import (
	"regexp"
	"sort"
	"strings"

	"github.com/QTest-hq/codescope/pkg/model"
)

// File is one analysed source file handed to the supplements
type File struct {
	Path         string
	Language     model.Language
	Content      string
	Declarations []model.Declaration
}

// Supplement recognises one framework family's route registrations
type Supplement interface {
	Name() string
	Languages() []model.Language
	// Detect is a cheap content check run before Analyze
	Detect(f *File) bool
	Analyze(f *File) []model.ApiEndpoint
}

// Registry holds all available supplements
type Registry struct {
	supplements []Supplement
}

// NewRegistry creates a new supplement registry with all built-in supplements
func NewRegistry() *Registry {
	r := &Registry{
		supplements: make([]Supplement, 0),
	}

	r.Register(&ExpressSupplement{})
	r.Register(&NestJSSupplement{})
	r.Register(&FastAPISupplement{})
	r.Register(&DjangoSupplement{})
	r.Register(&GinSupplement{})
	r.Register(&SpringBootSupplement{})
	r.Register(&LaravelSupplement{})
	r.Register(&SinatraSupplement{})
	r.Register(&ActixSupplement{})

	return r
}

// Register adds a supplement to the registry
func (r *Registry) Register(s Supplement) {
	r.supplements = append(r.supplements, s)
}

// GetAll returns all registered supplements
func (r *Registry) GetAll() []Supplement {
	return r.supplements
}

// Detect returns supplements that should run on the given file
func (r *Registry) Detect(f *File) []Supplement {
	var applicable []Supplement
	for _, s := range r.supplements {
		if supports(s, f.Language) && s.Detect(f) {
			applicable = append(applicable, s)
		}
	}
	return applicable
}

// Analyze runs every applicable supplement and returns the endpoints in line order
func (r *Registry) Analyze(f *File) []model.ApiEndpoint {
	endpoints := make([]model.ApiEndpoint, 0)
	for _, s := range r.Detect(f) {
		endpoints = append(endpoints, s.Analyze(f)...)
	}
	sort.SliceStable(endpoints, func(i, j int) bool {
		return endpoints[i].Line < endpoints[j].Line
	})
	return endpoints
}

func supports(s Supplement, lang model.Language) bool {
	for _, l := range s.Languages() {
		if l == lang {
			return true
		}
	}
	return false
}

var httpMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "PATCH": true, "DELETE": true,
	"OPTIONS": true, "HEAD": true, "TRACE": true,
}

// normalizeMethod upper-cases a verb, falling back to UNKNOWN for anything
// that is not an HTTP method (route, all, any, match)
func normalizeMethod(verb string) string {
	m := strings.ToUpper(strings.TrimSpace(verb))
	if httpMethods[m] {
		return m
	}
	return model.MethodUnknown
}

// newEndpoint builds a code-sourced endpoint with path parameters filled in
func newEndpoint(f *File, method, path string, line int, framework string) model.ApiEndpoint {
	return model.ApiEndpoint{
		Method:     normalizeMethod(method),
		Path:       path,
		Parameters: pathParams(path),
		Responses:  make(map[string]model.Response),
		Source:     model.SourceCode,
		File:       f.Path,
		Line:       line,
		Framework:  framework,
	}
}

// pathParamPattern matches {id}, {id:[0-9]+}, :id, <id> and <int:id>
var pathParamPattern = regexp.MustCompile(`\{(\w+)(?::[^}]*)?\}|:(\w+)|<(?:(\w+):)?(\w+)>`)

func pathParams(path string) []model.EndpointParameter {
	params := make([]model.EndpointParameter, 0)
	for _, m := range pathParamPattern.FindAllStringSubmatch(path, -1) {
		p := model.EndpointParameter{Location: model.LocationPath, Required: true}
		switch {
		case m[1] != "":
			p.Name = m[1]
		case m[2] != "":
			p.Name = m[2]
		default:
			p.Name = m[4]
			p.SchemaType = m[3]
		}
		if strings.Trim(p.Name, "0123456789") == "" {
			// regex quantifier such as {4}
			continue
		}
		params = append(params, p)
	}
	return params
}

// joinPath joins a controller prefix and a route path with exactly one slash
func joinPath(prefix, path string) string {
	prefix = strings.Trim(prefix, "/")
	path = strings.Trim(path, "/")
	switch {
	case prefix == "" && path == "":
		return "/"
	case prefix == "":
		return "/" + path
	case path == "":
		return "/" + prefix
	}
	return "/" + prefix + "/" + path
}

// maxDecoratorGap bounds how far below a decorator its handler may start
const maxDecoratorGap = 15

// declarationAfter returns the first declaration starting below line
func declarationAfter(f *File, line int, callable bool) *model.Declaration {
	var best *model.Declaration
	for i := range f.Declarations {
		d := &f.Declarations[i]
		if d.StartLine <= line || d.StartLine > line+maxDecoratorGap {
			continue
		}
		if callable && !d.IsCallable() {
			continue
		}
		if best == nil || d.StartLine < best.StartLine {
			best = d
		}
	}
	return best
}

// declarationNamed returns the first callable declaration with the given
// name or qualified name
func declarationNamed(f *File, name string) *model.Declaration {
	if name == "" {
		return nil
	}
	short := name
	if i := strings.LastIndexAny(name, ".:"); i >= 0 {
		short = name[i+1:]
	}
	for i := range f.Declarations {
		d := &f.Declarations[i]
		if d.IsCallable() && (d.Qualified == name || d.Name == short) {
			return d
		}
	}
	return nil
}

// attachHandler records the handler and, when the route has no summary,
// uses the first line of the handler's docstring
func attachHandler(ep *model.ApiEndpoint, d *model.Declaration) {
	if d == nil {
		return
	}
	if ep.Handler == "" {
		ep.Handler = d.Qualified
	}
	if ep.Summary == "" && d.Docstring != "" {
		ep.Summary = strings.TrimSpace(strings.SplitN(d.Docstring, "\n", 2)[0])
	}
}

var commentPrefixes = map[model.Language][]string{
	model.LanguagePython: {"#"},
	model.LanguageRuby:   {"#"},
	model.LanguagePHP:    {"//", "#", "/*", "*"},
	model.LanguageRust:   {"//", "/*", "*"},
}

var defaultCommentPrefixes = []string{"//", "/*", "*"}

// sourceLines splits the file into lines, blanking lines that only hold a comment
func sourceLines(f *File) []string {
	prefixes, ok := commentPrefixes[f.Language]
	if !ok {
		prefixes = defaultCommentPrefixes
	}
	lines := strings.Split(f.Content, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		for _, p := range prefixes {
			// PHP and Rust attributes start with "#["
			if strings.HasPrefix(trimmed, p) && !strings.HasPrefix(trimmed, "#[") {
				lines[i] = ""
				break
			}
		}
	}
	return lines
}

// maxStatementLines bounds how many lines a call or decorator may span
const maxStatementLines = 10

// statement joins lines starting at i until parentheses balance
func statement(lines []string, i int) string {
	var sb strings.Builder
	depth := 0
	for j := i; j < len(lines) && j < i+maxStatementLines; j++ {
		if j > i {
			sb.WriteByte(' ')
		}
		sb.WriteString(strings.TrimSpace(lines[j]))
		depth += strings.Count(lines[j], "(") - strings.Count(lines[j], ")")
		if depth <= 0 {
			break
		}
	}
	return sb.String()
}

// handlerArgPattern captures the last plain identifier argument of a call
var handlerArgPattern = regexp.MustCompile(`,\s*([\w.:$]+)\s*\)\s*;?\s*$`)

// lastArgument returns the final identifier argument of a registration call,
// or "anonymous" for inline handlers
func lastArgument(call string) string {
	if m := handlerArgPattern.FindStringSubmatch(call); m != nil {
		return m[1]
	}
	return "anonymous"
}
