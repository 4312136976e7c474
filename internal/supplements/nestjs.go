package supplements

import (
	"regexp"
	"strings"

	"github.com/QTest-hq/codescope/pkg/model"
)

// NestJSSupplement detects NestJS controller routes (TypeScript)
type NestJSSupplement struct{}

func (s *NestJSSupplement) Name() string {
	return "nestjs"
}

func (s *NestJSSupplement) Languages() []model.Language {
	return []model.Language{model.LanguageTypeScript, model.LanguageJavaScript}
}

// Detect checks for the controller decorator
func (s *NestJSSupplement) Detect(f *File) bool {
	return strings.Contains(f.Content, "@Controller")
}

var (
	// @Controller('users') or @Controller({ path: 'users' })
	nestController = regexp.MustCompile(`@Controller\s*\(\s*(?:\{\s*path\s*:\s*)?(?:['"]([^'"]*)['"])?`)
	// @Get(':id'), @Post()
	nestRoute = regexp.MustCompile(`@(Get|Post|Put|Patch|Delete|Options|Head|All)\s*\(\s*(?:['"]([^'"]*)['"])?\s*\)`)
)

// Analyze finds method decorators and prefixes them with the controller path
func (s *NestJSSupplement) Analyze(f *File) []model.ApiEndpoint {
	lines := sourceLines(f)
	endpoints := make([]model.ApiEndpoint, 0)
	prefix := ""

	for i, line := range lines {
		lineNum := i + 1
		if m := nestController.FindStringSubmatch(line); m != nil {
			prefix = m[1]
			continue
		}
		m := nestRoute.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		ep := newEndpoint(f, m[1], joinPath(prefix, m[2]), lineNum, "nestjs")
		attachHandler(&ep, declarationAfter(f, lineNum, true))
		endpoints = append(endpoints, ep)
	}
	return endpoints
}
