package supplements

import (
	"regexp"
	"strings"

	"github.com/QTest-hq/codescope/pkg/model"
)

// SinatraSupplement detects bare-verb routes of Sinatra and Rails routes.rb (Ruby)
type SinatraSupplement struct{}

func (s *SinatraSupplement) Name() string {
	return "sinatra"
}

func (s *SinatraSupplement) Languages() []model.Language {
	return []model.Language{model.LanguageRuby}
}

// Detect checks for a verb at the start of any line
func (s *SinatraSupplement) Detect(f *File) bool {
	return rubyRoute.MatchString(f.Content)
}

var (
	// get '/users/:id' do ... end
	// post 'photos', to: 'photos#create'
	rubyRoute = regexp.MustCompile(`(?m)^\s*(get|post|put|patch|delete|options)\s*\(?\s*['"]([^'"]*)['"](.*)`)
	railsTo   = regexp.MustCompile(`to:\s*['"]([\w/]+)#(\w+)['"]`)
)

// Analyze finds verb routes line by line
func (s *SinatraSupplement) Analyze(f *File) []model.ApiEndpoint {
	framework := "sinatra"
	if strings.Contains(f.Content, "routes.draw") {
		framework = "rails"
	}

	lines := sourceLines(f)
	endpoints := make([]model.ApiEndpoint, 0)
	for i, line := range lines {
		m := rubyRoute.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		ep := newEndpoint(f, m[1], joinPath("", m[2]), i+1, framework)
		ep.Handler = "anonymous"
		if tm := railsTo.FindStringSubmatch(m[3]); tm != nil {
			ep.Handler = tm[1] + "#" + tm[2]
		}
		endpoints = append(endpoints, ep)
	}
	return endpoints
}
