package model

// EdgeKind distinguishes import edges from call edges
type EdgeKind string

const (
	EdgeImport EdgeKind = "IMPORT"
	EdgeCall   EdgeKind = "CALL"
)

// DependencyEdge is an unresolved import or heuristic call relationship.
// ToModule and CalleeName are raw source text; no symbol resolution happens.
type DependencyEdge struct {
	FromFile   string   `json:"from_file"`
	ToModule   string   `json:"to_module"`
	Kind       EdgeKind `json:"kind"`
	Line       int      `json:"line"`
	CallerID   string   `json:"caller_declaration_id,omitempty"`
	CalleeName string   `json:"callee_name,omitempty"`
	Heuristic  bool     `json:"heuristic,omitempty"`
}

// EndpointSource records where an endpoint was discovered
type EndpointSource string

const (
	SourceCode EndpointSource = "CODE"
	SourceSpec EndpointSource = "SPEC"
)

// ParamLocation is where an endpoint parameter is carried
type ParamLocation string

const (
	LocationPath   ParamLocation = "PATH"
	LocationQuery  ParamLocation = "QUERY"
	LocationBody   ParamLocation = "BODY"
	LocationHeader ParamLocation = "HEADER"
)

// MethodUnknown is used when the HTTP verb cannot be determined
const MethodUnknown = "UNKNOWN"

// EndpointParameter describes one endpoint input
type EndpointParameter struct {
	Name       string        `json:"name"`
	Location   ParamLocation `json:"location"`
	Required   bool          `json:"required"`
	SchemaType string        `json:"schema_type,omitempty"`
}

// Response describes one documented response
type Response struct {
	Description string `json:"description"`
}

// ApiEndpoint is an HTTP endpoint found in code or in an API document.
// Method/path pairs are not unique; overloads and versions are kept.
type ApiEndpoint struct {
	Method      string              `json:"method"`
	Path        string              `json:"path"`
	Summary     string              `json:"summary,omitempty"`
	Description string              `json:"description,omitempty"`
	Parameters  []EndpointParameter `json:"parameters"`
	Responses   map[string]Response `json:"responses"`
	Source      EndpointSource      `json:"source"`

	// Code-derived context
	Handler   string `json:"handler,omitempty"`
	File      string `json:"file,omitempty"`
	Line      int    `json:"line,omitempty"`
	Framework string `json:"framework,omitempty"`
}

// DataModel is a schema definition taken from an API document
type DataModel struct {
	Name       string                   `json:"name"`
	Type       string                   `json:"type"`
	Properties map[string]ModelProperty `json:"properties"`
	Required   []string                 `json:"required"`
}

// ModelProperty describes one property of a DataModel
type ModelProperty struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// SwaggerDocument is the normalized form of an OpenAPI/Swagger document
type SwaggerDocument struct {
	Title         string        `json:"title"`
	Version       string        `json:"version"`
	Description   string        `json:"description,omitempty"`
	BaseURL       string        `json:"base_url"`
	SpecVersion   string        `json:"spec_version"`
	Endpoints     []ApiEndpoint `json:"endpoints"`
	Models        []DataModel   `json:"models"`
	Documentation string        `json:"documentation"`
}
