package swagger

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/go-openapi/spec"

	apperrors "github.com/QTest-hq/codescope/internal/errors"
	"github.com/QTest-hq/codescope/pkg/model"
)

func normalizeV2(data []byte) (*model.SwaggerDocument, error) {
	var sw spec.Swagger
	if err := json.Unmarshal(data, &sw); err != nil {
		return nil, apperrors.Wrap(apperrors.FormatError, "invalid Swagger 2.0 document", err)
	}

	doc := &model.SwaggerDocument{
		SpecVersion: sw.Swagger,
		BaseURL:     baseURLV2(&sw),
	}
	if sw.Info != nil {
		doc.Title = sw.Info.Title
		doc.Version = sw.Info.Version
		doc.Description = sw.Info.Description
	}

	if sw.Paths != nil {
		for _, path := range sortedKeys(sw.Paths.Paths) {
			item := sw.Paths.Paths[path]
			shared := paramsV2(&sw, item.Parameters)
			ops := map[string]*spec.Operation{
				"get":     item.Get,
				"put":     item.Put,
				"post":    item.Post,
				"delete":  item.Delete,
				"options": item.Options,
				"head":    item.Head,
				"patch":   item.Patch,
			}
			for _, method := range methodOrder {
				op := ops[method]
				if op == nil {
					continue
				}
				doc.Endpoints = append(doc.Endpoints, model.ApiEndpoint{
					Method:      strings.ToUpper(method),
					Path:        path,
					Summary:     op.Summary,
					Description: op.Description,
					Parameters:  mergeParams(shared, paramsV2(&sw, op.Parameters)),
					Responses:   responsesV2(op.Responses),
					Source:      model.SourceSpec,
				})
			}
		}
	}

	for _, name := range sortedKeys(sw.Definitions) {
		doc.Models = append(doc.Models, dataModelV2(name, sw.Definitions[name]))
	}
	return doc, nil
}

// baseURLV2 builds scheme://host/basePath; without a host only basePath is known
func baseURLV2(sw *spec.Swagger) string {
	if sw.Host == "" {
		return sw.BasePath
	}
	scheme := "https"
	if len(sw.Schemes) > 0 && sw.Schemes[0] != "" {
		scheme = sw.Schemes[0]
	}
	return scheme + "://" + sw.Host + sw.BasePath
}

func paramsV2(sw *spec.Swagger, params []spec.Parameter) []model.EndpointParameter {
	out := make([]model.EndpointParameter, 0, len(params))
	for _, p := range params {
		if ref := p.Ref.String(); ref != "" {
			shared, ok := sw.Parameters[refName(ref)]
			if !ok {
				continue
			}
			p = shared
		}
		out = append(out, model.EndpointParameter{
			Name:       p.Name,
			Location:   location(p.In),
			Required:   p.Required || p.In == "path",
			SchemaType: paramTypeV2(p),
		})
	}
	return out
}

func paramTypeV2(p spec.Parameter) string {
	if p.Schema != nil {
		return schemaTypeV2(p.Schema)
	}
	return p.Type
}

func schemaTypeV2(s *spec.Schema) string {
	if s == nil {
		return ""
	}
	if ref := s.Ref.String(); ref != "" {
		return refName(ref)
	}
	if len(s.Type) > 0 {
		return s.Type[0]
	}
	return ""
}

func responsesV2(r *spec.Responses) map[string]model.Response {
	out := make(map[string]model.Response)
	if r == nil {
		return out
	}
	for code, resp := range r.StatusCodeResponses {
		out[strconv.Itoa(code)] = model.Response{Description: resp.Description}
	}
	if r.Default != nil {
		out["default"] = model.Response{Description: r.Default.Description}
	}
	return out
}

func dataModelV2(name string, s spec.Schema) model.DataModel {
	m := model.DataModel{
		Name:       name,
		Type:       "object",
		Properties: make(map[string]model.ModelProperty, len(s.Properties)),
	}
	if len(s.Type) > 0 {
		m.Type = s.Type[0]
	}
	for prop, ps := range s.Properties {
		ps := ps
		m.Properties[prop] = model.ModelProperty{Type: schemaTypeV2(&ps), Description: ps.Description}
	}
	m.Required = knownRequired(s.Required, m.Properties)
	return m
}
