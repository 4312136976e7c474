package swagger

import (
	"fmt"
	"strings"

	"github.com/QTest-hq/codescope/pkg/model"
)

// Render produces the markdown summary of a normalized document
func Render(doc *model.SwaggerDocument) string {
	var sections []string
	sections = append(sections,
		"# API Documentation for "+orDefault(doc.Title, "API"),
		"**Version:** "+orDefault(doc.Version, "Unknown"),
		"**Base URL:** "+orDefault(doc.BaseURL, "Not specified"),
		"",
		"## Endpoints",
	)
	for _, ep := range doc.Endpoints {
		sections = append(sections, fmt.Sprintf("### %s %s\n%s\n", ep.Method, ep.Path, orDefault(ep.Summary, "No description")))
	}

	if len(doc.Models) > 0 {
		sections = append(sections, "", "## Data Models")
		for _, m := range doc.Models {
			sections = append(sections, fmt.Sprintf("### %s\nType: %s", m.Name, m.Type))
		}
	}
	return strings.Join(sections, "\n")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
