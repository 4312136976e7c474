package supplements

import (
	"regexp"
	"strings"

	"github.com/QTest-hq/codescope/pkg/model"
)

// DjangoSupplement detects Django URL patterns (Python)
type DjangoSupplement struct{}

func (s *DjangoSupplement) Name() string {
	return "django"
}

func (s *DjangoSupplement) Languages() []model.Language {
	return []model.Language{model.LanguagePython}
}

// Detect checks for a urlpatterns list
func (s *DjangoSupplement) Detect(f *File) bool {
	return strings.Contains(f.Content, "urlpatterns")
}

// path('users/<int:pk>/', views.detail, name='detail')
// re_path(r'^articles/(?P<year>[0-9]{4})/$', views.year_archive)
var djangoRoute = regexp.MustCompile(`\b(path|re_path|url)\s*\(\s*r?['"]([^'"]*)['"]\s*,\s*([\w.]+)`)

// Analyze finds URL pattern entries. Django routes do not name a verb.
func (s *DjangoSupplement) Analyze(f *File) []model.ApiEndpoint {
	lines := sourceLines(f)
	endpoints := make([]model.ApiEndpoint, 0)
	for i, line := range lines {
		for _, m := range djangoRoute.FindAllStringSubmatch(line, -1) {
			path := m[2]
			if m[1] != "path" {
				path = strings.TrimSuffix(strings.TrimPrefix(path, "^"), "$")
			}
			ep := newEndpoint(f, "", joinPath("", path), i+1, "django")
			ep.Handler = m[3]
			attachHandler(&ep, declarationNamed(f, m[3]))
			endpoints = append(endpoints, ep)
		}
	}
	return endpoints
}
