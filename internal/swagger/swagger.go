// Package swagger normalizes Swagger 2.0 and OpenAPI 3.x documents into the
// endpoint and model shapes produced by code analysis.
package swagger

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"sigs.k8s.io/yaml"

	apperrors "github.com/QTest-hq/codescope/internal/errors"
	"github.com/QTest-hq/codescope/pkg/model"
)

// Format is the declared encoding of a document
type Format string

const (
	FormatAuto Format = "auto"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts auto, json or yaml in any case; empty means auto
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", apperrors.Newf(apperrors.InputError, "unknown document format %q (want auto, json or yaml)", s)
}

// methodOrder is the order operations are emitted within one path
var methodOrder = []string{"get", "put", "post", "delete", "options", "head", "patch", "trace"}

// Normalize parses raw content and returns the normalized document
func Normalize(content string, format Format) (*model.SwaggerDocument, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.New(apperrors.InputError, "swagger_content is required")
	}

	data, err := toJSON([]byte(content), format)
	if err != nil {
		return nil, err
	}

	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil || root == nil {
		return nil, apperrors.New(apperrors.FormatError, "document root must be a mapping")
	}

	var doc *model.SwaggerDocument
	if _, ok := root["swagger"]; ok {
		doc, err = normalizeV2(data)
	} else {
		doc, err = normalizeV3(data)
	}
	if err != nil {
		return nil, err
	}

	if doc.Endpoints == nil {
		doc.Endpoints = make([]model.ApiEndpoint, 0)
	}
	if doc.Models == nil {
		doc.Models = make([]model.DataModel, 0)
	}
	sort.SliceStable(doc.Models, func(i, j int) bool { return doc.Models[i].Name < doc.Models[j].Name })
	doc.Documentation = Render(doc)

	log.Debug().
		Str("spec_version", doc.SpecVersion).
		Int("endpoints", len(doc.Endpoints)).
		Int("models", len(doc.Models)).
		Msg("api document normalized")
	return doc, nil
}

// toJSON returns content as JSON bytes, converting from YAML when allowed
func toJSON(content []byte, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		if !json.Valid(content) {
			return nil, apperrors.New(apperrors.FormatError, "content is not valid JSON")
		}
		return content, nil
	case FormatYAML:
		data, err := yaml.YAMLToJSON(content)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.FormatError, "content is not valid YAML", err)
		}
		return data, nil
	case FormatAuto, "":
		if json.Valid(content) {
			return content, nil
		}
		data, err := yaml.YAMLToJSON(content)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.FormatError, "content is neither valid JSON nor YAML", err)
		}
		return data, nil
	}
	return nil, apperrors.Newf(apperrors.InputError, "unknown document format %q", format)
}

// refName returns the last segment of a JSON reference
func refName(ref string) string {
	if i := strings.LastIndexByte(ref, '/'); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

// location maps an OpenAPI "in" value onto a parameter location
func location(in string) model.ParamLocation {
	switch strings.ToLower(in) {
	case "path":
		return model.LocationPath
	case "header", "cookie":
		return model.LocationHeader
	case "body", "formdata":
		return model.LocationBody
	}
	return model.LocationQuery
}

// mergeParams overlays operation parameters on path-level ones; a parameter
// is identified by name and location
func mergeParams(pathLevel, opLevel []model.EndpointParameter) []model.EndpointParameter {
	out := make([]model.EndpointParameter, 0, len(pathLevel)+len(opLevel))
	index := make(map[string]int)
	key := func(p model.EndpointParameter) string { return string(p.Location) + "\x00" + p.Name }

	for _, p := range pathLevel {
		index[key(p)] = len(out)
		out = append(out, p)
	}
	for _, p := range opLevel {
		if i, ok := index[key(p)]; ok {
			out[i] = p
			continue
		}
		index[key(p)] = len(out)
		out = append(out, p)
	}
	return out
}

// knownRequired drops duplicate names and names that are not properties
func knownRequired[V any](required []string, props map[string]V) []string {
	out := make([]string, 0, len(required))
	seen := make(map[string]bool, len(required))
	for _, name := range required {
		if _, ok := props[name]; !ok || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
