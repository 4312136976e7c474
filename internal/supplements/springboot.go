package supplements

import (
	"regexp"
	"strings"

	"github.com/QTest-hq/codescope/pkg/model"
)

// SpringBootSupplement detects Spring Boot REST endpoints (Java)
type SpringBootSupplement struct{}

func (s *SpringBootSupplement) Name() string {
	return "springboot"
}

func (s *SpringBootSupplement) Languages() []model.Language {
	return []model.Language{model.LanguageJava}
}

// Detect checks for a mapping annotation
func (s *SpringBootSupplement) Detect(f *File) bool {
	return strings.Contains(f.Content, "Mapping")
}

var (
	// @GetMapping("/path"), @PostMapping, @RequestMapping(value = "/path", method = RequestMethod.GET)
	springMapping = regexp.MustCompile(`@(Get|Post|Put|Patch|Delete|Request)Mapping\b\s*(\((.*)\))?`)
	springPath    = regexp.MustCompile(`(?:(?:value|path)\s*=\s*)?\{?\s*"([^"]*)"`)
	springMethod  = regexp.MustCompile(`RequestMethod\.(\w+)`)
)

// Analyze binds each mapping annotation to the declaration below it. A
// @RequestMapping on a class sets the prefix for that class's methods.
func (s *SpringBootSupplement) Analyze(f *File) []model.ApiEndpoint {
	lines := sourceLines(f)
	prefixes := make(map[string]string) // class declaration ID -> base path
	endpoints := make([]model.ApiEndpoint, 0)

	for i, line := range lines {
		m := springMapping.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		lineNum := i + 1
		args := m[3]
		path := ""
		if pm := springPath.FindStringSubmatch(args); pm != nil {
			path = pm[1]
		}

		target := declarationAfter(f, lineNum, false)
		if target != nil && (target.Kind == model.KindClass || target.Kind == model.KindInterface) {
			if m[1] == "Request" {
				prefixes[target.ID] = path
			}
			continue
		}

		methods := []string{m[1]}
		if m[1] == "Request" {
			methods = methods[:0]
			for _, mm := range springMethod.FindAllStringSubmatch(args, -1) {
				methods = append(methods, mm[1])
			}
			if len(methods) == 0 {
				methods = append(methods, model.MethodUnknown)
			}
		}

		prefix := ""
		if target != nil {
			prefix = prefixes[target.ParentID]
		}
		for _, method := range methods {
			ep := newEndpoint(f, method, joinPath(prefix, path), lineNum, "springboot")
			attachHandler(&ep, target)
			endpoints = append(endpoints, ep)
		}
	}
	return endpoints
}
