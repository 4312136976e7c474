package supplements

import (
	"regexp"
	"strings"

	"github.com/QTest-hq/codescope/pkg/model"
)

// GinSupplement detects Go router registrations: Gin and Echo (upper-case
// verbs), chi (title-case verbs) and net/http method patterns
type GinSupplement struct{}

func (s *GinSupplement) Name() string {
	return "gin"
}

func (s *GinSupplement) Languages() []model.Language {
	return []model.Language{model.LanguageGo}
}

// Detect checks for any of the registration styles
func (s *GinSupplement) Detect(f *File) bool {
	return ginRoute.MatchString(f.Content) || chiRoute.MatchString(f.Content) || stdRoute.MatchString(f.Content)
}

var (
	// r.GET("/path", handler), e.POST("/path", h), g.Any("/path", h)
	ginRoute = regexp.MustCompile(`(\w+)\.(GET|POST|PUT|PATCH|DELETE|HEAD|OPTIONS|Any)\s*\(\s*"([^"]*)"`)
	// r.Get("/path", handler)
	chiRoute = regexp.MustCompile(`(\w+)\.(Get|Post|Put|Patch|Delete|Head|Options)\s*\(\s*"(/[^"]*)"`)
	// mux.HandleFunc("GET /items/{id}", h), http.Handle("/path", h)
	stdRoute = regexp.MustCompile(`\b(HandleFunc|Handle)\s*\(\s*"(?:([A-Z]+)\s+)?(/[^"]*)"`)
)

// Analyze finds route registrations line by line
func (s *GinSupplement) Analyze(f *File) []model.ApiEndpoint {
	upper := "gin"
	if strings.Contains(f.Content, "labstack/echo") {
		upper = "echo"
	}

	lines := sourceLines(f)
	endpoints := make([]model.ApiEndpoint, 0)
	add := func(method, path string, i int, framework string) {
		ep := newEndpoint(f, method, path, i+1, framework)
		ep.Handler = lastArgument(statement(lines, i))
		attachHandler(&ep, declarationNamed(f, ep.Handler))
		endpoints = append(endpoints, ep)
	}

	for i, line := range lines {
		for _, m := range ginRoute.FindAllStringSubmatch(line, -1) {
			add(m[2], m[3], i, upper)
		}
		for _, m := range chiRoute.FindAllStringSubmatch(line, -1) {
			add(m[2], m[3], i, "chi")
		}
		for _, m := range stdRoute.FindAllStringSubmatch(line, -1) {
			add(m[2], m[3], i, "net/http")
		}
	}
	return endpoints
}
