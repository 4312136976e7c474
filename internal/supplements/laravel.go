package supplements

import (
	"regexp"
	"strings"

	"github.com/QTest-hq/codescope/pkg/model"
)

// LaravelSupplement detects Laravel route facades (PHP)
type LaravelSupplement struct{}

func (s *LaravelSupplement) Name() string {
	return "laravel"
}

func (s *LaravelSupplement) Languages() []model.Language {
	return []model.Language{model.LanguagePHP}
}

// Detect checks for the Route facade
func (s *LaravelSupplement) Detect(f *File) bool {
	return strings.Contains(f.Content, "Route::")
}

var (
	// Route::get('/users', [UserController::class, 'index'])
	// Route::match(['get', 'post'], '/users', ...)
	laravelRoute   = regexp.MustCompile(`Route::(get|post|put|patch|delete|options|any|match)\s*\(\s*(?:\[([^\]]*)\]\s*,\s*)?['"]([^'"]*)['"](.*)`)
	laravelAction  = regexp.MustCompile(`\[\s*([\w\\]+)::class\s*,\s*['"](\w+)['"]\s*\]`)
	laravelAtStyle = regexp.MustCompile(`['"]([\w\\]+)@(\w+)['"]`)
)

// Analyze finds facade registrations line by line
func (s *LaravelSupplement) Analyze(f *File) []model.ApiEndpoint {
	lines := sourceLines(f)
	endpoints := make([]model.ApiEndpoint, 0)
	for i, line := range lines {
		m := laravelRoute.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		verbs := []string{m[1]}
		if m[1] == "match" {
			verbs = verbs[:0]
			for _, q := range quoted.FindAllStringSubmatch(m[2], -1) {
				verbs = append(verbs, q[1])
			}
		}

		handler := "anonymous"
		if am := laravelAction.FindStringSubmatch(m[4]); am != nil {
			handler = classBase(am[1]) + "." + am[2]
		} else if am := laravelAtStyle.FindStringSubmatch(m[4]); am != nil {
			handler = classBase(am[1]) + "." + am[2]
		}

		for _, v := range verbs {
			ep := newEndpoint(f, v, joinPath("", m[3]), i+1, "laravel")
			ep.Handler = handler
			attachHandler(&ep, declarationNamed(f, handler))
			endpoints = append(endpoints, ep)
		}
	}
	return endpoints
}

func classBase(name string) string {
	if i := strings.LastIndex(name, `\`); i >= 0 {
		return name[i+1:]
	}
	return name
}
