package supplements

import (
	"regexp"
	"strings"

	"github.com/QTest-hq/codescope/pkg/model"
)

// ActixSupplement detects actix-web route attributes and axum/actix
// .route() builders (Rust)
type ActixSupplement struct{}

func (s *ActixSupplement) Name() string {
	return "actix"
}

func (s *ActixSupplement) Languages() []model.Language {
	return []model.Language{model.LanguageRust}
}

// Detect checks for an attribute route or a route builder
func (s *ActixSupplement) Detect(f *File) bool {
	return rustAttr.MatchString(f.Content) || strings.Contains(f.Content, ".route(")
}

var (
	// #[get("/users/{id}")]
	rustAttr = regexp.MustCompile(`#\[(get|post|put|patch|delete|head|options)\s*\(\s*"([^"]*)"`)
	// .route("/users", get(list).post(create))
	rustBuilder = regexp.MustCompile(`\.route\s*\(\s*"([^"]*)"\s*,(.*)`)
	rustVerb    = regexp.MustCompile(`\b(get|post|put|patch|delete|head|options|any)\s*\(\s*([\w:]*)\s*\)`)
)

// Analyze finds attribute routes and builder registrations line by line
func (s *ActixSupplement) Analyze(f *File) []model.ApiEndpoint {
	framework := "actix"
	if strings.Contains(f.Content, "axum") {
		framework = "axum"
	}

	lines := sourceLines(f)
	endpoints := make([]model.ApiEndpoint, 0)
	for i, line := range lines {
		lineNum := i + 1
		if m := rustAttr.FindStringSubmatch(line); m != nil {
			ep := newEndpoint(f, m[1], m[2], lineNum, "actix")
			attachHandler(&ep, declarationAfter(f, lineNum, true))
			endpoints = append(endpoints, ep)
			continue
		}
		m := rustBuilder.FindStringSubmatch(statement(lines, i))
		if m == nil || !strings.Contains(line, ".route") {
			continue
		}
		for _, vm := range rustVerb.FindAllStringSubmatch(m[2], -1) {
			ep := newEndpoint(f, vm[1], m[1], lineNum, framework)
			if vm[2] != "" {
				ep.Handler = vm[2]
				attachHandler(&ep, declarationNamed(f, vm[2]))
			}
			endpoints = append(endpoints, ep)
		}
	}
	return endpoints
}
