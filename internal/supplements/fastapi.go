package supplements

import (
	"regexp"
	"strings"

	"github.com/QTest-hq/codescope/pkg/model"
)

// FastAPISupplement detects decorator routes of FastAPI and Flask (Python)
type FastAPISupplement struct{}

func (s *FastAPISupplement) Name() string {
	return "fastapi"
}

func (s *FastAPISupplement) Languages() []model.Language {
	return []model.Language{model.LanguagePython}
}

// Detect checks for any route decorator
func (s *FastAPISupplement) Detect(f *File) bool {
	return strings.Contains(f.Content, "@")
}

var (
	// @app.get("/path"), @router.post("/path", summary="...")
	// @app.route("/path", methods=["GET", "POST"])
	pyRoute   = regexp.MustCompile(`^@([\w.]+)\.(get|post|put|patch|delete|options|head|route|api_route)\s*\(\s*(?:path\s*=\s*)?[rf]?['"]([^'"]*)['"](.*)`)
	pyMethods = regexp.MustCompile(`methods\s*=\s*[\[(]([^\])]*)[\])]`)
	pySummary = regexp.MustCompile(`summary\s*=\s*['"]([^'"]*)['"]`)
	quoted    = regexp.MustCompile(`['"](\w+)['"]`)
)

// Analyze finds route decorators and binds each to the function below it
func (s *FastAPISupplement) Analyze(f *File) []model.ApiEndpoint {
	framework := "fastapi"
	if strings.Contains(f.Content, "flask") || strings.Contains(f.Content, "Flask") {
		framework = "flask"
	}

	lines := sourceLines(f)
	endpoints := make([]model.ApiEndpoint, 0)
	for i, line := range lines {
		if !strings.HasPrefix(strings.TrimSpace(line), "@") {
			continue
		}
		lineNum := i + 1
		m := pyRoute.FindStringSubmatch(statement(lines, i))
		if m == nil {
			continue
		}
		verb, path, rest := m[2], m[3], m[4]

		verbs := []string{verb}
		if verb == "route" || verb == "api_route" {
			verbs = []string{model.MethodUnknown}
			if mm := pyMethods.FindStringSubmatch(rest); mm != nil {
				verbs = verbs[:0]
				for _, q := range quoted.FindAllStringSubmatch(mm[1], -1) {
					verbs = append(verbs, q[1])
				}
			}
		}

		handler := declarationAfter(f, lineNum, true)
		for _, v := range verbs {
			ep := newEndpoint(f, v, path, lineNum, framework)
			if sm := pySummary.FindStringSubmatch(rest); sm != nil {
				ep.Summary = sm[1]
			}
			attachHandler(&ep, handler)
			endpoints = append(endpoints, ep)
		}
	}
	return endpoints
}
