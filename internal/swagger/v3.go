package swagger

import (
	"encoding/json"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	apperrors "github.com/QTest-hq/codescope/internal/errors"
	"github.com/QTest-hq/codescope/pkg/model"
)

// components is the part of an OpenAPI 3.x document that $refs point into.
// References are resolved by name here rather than by the kin-openapi loader,
// so a dangling $ref drops one parameter instead of failing the document.
type components struct {
	*openapi3.Components
}

func schemaTypeV3(s *openapi3.SchemaRef) string {
	if s == nil {
		return ""
	}
	if s.Ref != "" {
		return refName(s.Ref)
	}
	if s.Value == nil || s.Value.Type == nil {
		return ""
	}
	for _, t := range *s.Value.Type {
		if t != "null" {
			return t
		}
	}
	return ""
}

// normalizeV3 also handles documents that declare neither openapi nor swagger
func normalizeV3(data []byte) (*model.SwaggerDocument, error) {
	var api openapi3.T
	if err := json.Unmarshal(data, &api); err != nil {
		return nil, apperrors.Wrap(apperrors.FormatError, "invalid OpenAPI document", err)
	}

	doc := &model.SwaggerDocument{SpecVersion: api.OpenAPI}
	if api.Info != nil {
		doc.Title = api.Info.Title
		doc.Version = api.Info.Version
		doc.Description = api.Info.Description
	}
	if len(api.Servers) > 0 && api.Servers[0] != nil {
		doc.BaseURL = api.Servers[0].URL
	}

	c := components{api.Components}
	if c.Components == nil {
		c.Components = &openapi3.Components{}
	}

	if api.Paths != nil {
		paths := api.Paths.Map()
		for _, path := range sortedKeys(paths) {
			item := paths[path]
			if item == nil {
				continue
			}
			shared := c.params(item.Parameters)
			ops := map[string]*openapi3.Operation{
				"get":     item.Get,
				"put":     item.Put,
				"post":    item.Post,
				"delete":  item.Delete,
				"options": item.Options,
				"head":    item.Head,
				"patch":   item.Patch,
				"trace":   item.Trace,
			}
			for _, method := range methodOrder {
				op := ops[method]
				if op == nil {
					continue
				}
				params := mergeParams(shared, c.params(op.Parameters))
				if body := c.body(op.RequestBody); body != nil {
					params = append(params, *body)
				}
				doc.Endpoints = append(doc.Endpoints, model.ApiEndpoint{
					Method:      strings.ToUpper(method),
					Path:        path,
					Summary:     op.Summary,
					Description: op.Description,
					Parameters:  params,
					Responses:   c.responses(op.Responses),
					Source:      model.SourceSpec,
				})
			}
		}
	}

	for _, name := range sortedKeys(c.Schemas) {
		ref := c.Schemas[name]
		m := model.DataModel{
			Name:       name,
			Type:       "object",
			Properties: make(map[string]model.ModelProperty),
			Required:   make([]string, 0),
		}
		if ref == nil || ref.Value == nil {
			doc.Models = append(doc.Models, m)
			continue
		}
		s := ref.Value
		if t := schemaTypeV3(ref); t != "" && ref.Ref == "" {
			m.Type = t
		}
		for prop, ps := range s.Properties {
			p := model.ModelProperty{Type: schemaTypeV3(ps)}
			if ps != nil && ps.Value != nil {
				p.Description = ps.Value.Description
			}
			m.Properties[prop] = p
		}
		m.Required = knownRequired(s.Required, m.Properties)
		doc.Models = append(doc.Models, m)
	}
	return doc, nil
}

func (c components) params(params openapi3.Parameters) []model.EndpointParameter {
	out := make([]model.EndpointParameter, 0, len(params))
	for _, ref := range params {
		if ref == nil {
			continue
		}
		p := ref.Value
		if ref.Ref != "" {
			shared, ok := c.Parameters[refName(ref.Ref)]
			if !ok || shared == nil {
				continue
			}
			p = shared.Value
		}
		if p == nil {
			continue
		}
		out = append(out, model.EndpointParameter{
			Name:       p.Name,
			Location:   location(p.In),
			Required:   p.Required || p.In == "path",
			SchemaType: schemaTypeV3(p.Schema),
		})
	}
	return out
}

// body turns a requestBody into the single BODY parameter "body"
func (c components) body(ref *openapi3.RequestBodyRef) *model.EndpointParameter {
	if ref == nil {
		return nil
	}
	rb := ref.Value
	if ref.Ref != "" {
		shared, ok := c.RequestBodies[refName(ref.Ref)]
		if !ok || shared == nil {
			return nil
		}
		rb = shared.Value
	}
	if rb == nil {
		return nil
	}

	p := &model.EndpointParameter{Name: "body", Location: model.LocationBody, Required: rb.Required}
	for _, ct := range sortedKeys(rb.Content) {
		if mt := rb.Content[ct]; mt != nil {
			if t := schemaTypeV3(mt.Schema); t != "" {
				p.SchemaType = t
				break
			}
		}
	}
	return p
}

func (c components) responses(r *openapi3.Responses) map[string]model.Response {
	out := make(map[string]model.Response)
	if r == nil {
		return out
	}
	for code, ref := range r.Map() {
		if ref == nil {
			continue
		}
		resp := ref.Value
		if ref.Ref != "" {
			if shared, ok := c.Responses[refName(ref.Ref)]; ok && shared != nil {
				resp = shared.Value
			}
		}
		var desc string
		if resp != nil && resp.Description != nil {
			desc = *resp.Description
		}
		out[code] = model.Response{Description: desc}
	}
	return out
}
