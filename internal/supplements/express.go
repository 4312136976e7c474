package supplements

import (
	"regexp"
	"strings"

	"github.com/QTest-hq/codescope/pkg/model"
)

// ExpressSupplement detects call-style routes of Express and its lookalikes
// (Koa router, Fastify, Hono)
type ExpressSupplement struct{}

func (s *ExpressSupplement) Name() string {
	return "express"
}

func (s *ExpressSupplement) Languages() []model.Language {
	return []model.Language{model.LanguageJavaScript, model.LanguageTypeScript}
}

// Detect checks for a verb call on some receiver
func (s *ExpressSupplement) Detect(f *File) bool {
	return expressRoute.MatchString(f.Content) || expressChain.MatchString(f.Content)
}

var (
	// app.get('/path', handler)
	// router.post('/path', middleware, handler)
	expressRoute = regexp.MustCompile("(\\w+)\\.(get|post|put|patch|delete|options|head|all)\\s*\\(\\s*['\"`](/[^'\"`]*)['\"`]")
	// router.route('/path').get(list).post(create)
	expressChain = regexp.MustCompile("\\.route\\s*\\(\\s*['\"`](/[^'\"`]*)['\"`]\\s*\\)")
	chainVerb    = regexp.MustCompile(`\.(get|post|put|patch|delete|options|head|all)\s*\(\s*([\w.$]*)`)
)

// Analyze finds route registrations line by line
func (s *ExpressSupplement) Analyze(f *File) []model.ApiEndpoint {
	framework := s.framework(f)
	lines := sourceLines(f)
	endpoints := make([]model.ApiEndpoint, 0)

	for i, line := range lines {
		lineNum := i + 1

		if expressChain.MatchString(line) {
			stmt := statement(lines, i)
			m := expressChain.FindStringSubmatchIndex(stmt)
			path := stmt[m[2]:m[3]]
			for _, cm := range chainVerb.FindAllStringSubmatch(stmt[m[1]:], -1) {
				ep := newEndpoint(f, cm[1], path, lineNum, framework)
				ep.Handler = "anonymous"
				if cm[2] != "" {
					ep.Handler = cm[2]
				}
				attachHandler(&ep, declarationNamed(f, ep.Handler))
				endpoints = append(endpoints, ep)
			}
			continue
		}

		for _, m := range expressRoute.FindAllStringSubmatchIndex(line, -1) {
			receiver := line[m[2]:m[3]]
			if receiver == "axios" || receiver == "http" || receiver == "request" || receiver == "fetch" {
				// HTTP clients, not servers
				continue
			}
			ep := newEndpoint(f, line[m[4]:m[5]], line[m[6]:m[7]], lineNum, framework)
			call := statement(lines, i)
			ep.Handler = lastArgument(call)
			attachHandler(&ep, declarationNamed(f, ep.Handler))
			endpoints = append(endpoints, ep)
		}
	}
	return endpoints
}

func (s *ExpressSupplement) framework(f *File) string {
	switch {
	case strings.Contains(f.Content, "fastify"):
		return "fastify"
	case strings.Contains(f.Content, "hono"):
		return "hono"
	case strings.Contains(f.Content, "koa"):
		return "koa"
	}
	return "express"
}
