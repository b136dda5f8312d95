// Package openapi produces the OpenAPI 3.0 document for the API by
// reflecting on registered request and response types.
package openapi

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
)

// =============================================================================
// Generator
// =============================================================================

// Generator produces OpenAPI 3.0 specifications from registered resources
// and operations.
type Generator struct {
	title       string
	version     string
	description string
	servers     []string
	resources   []ResourceInfo
	operations  []OperationInfo
	mu          sync.RWMutex
	cachedSpec  *openapi3.T
}

// ResourceInfo describes a tenant-scoped collection served at
// /api/{Name} and /api/{Name}/{id}.
type ResourceInfo struct {
	Name   string // Collection name, e.g. "posts"
	Model  any    // Response type
	Create any    // Create request body; nil disables POST /{Name}
	Update any    // Update request body; nil disables PATCH /{Name}/{id}

	SupportsDelete bool     // DELETE /{Name}/{id}
	Actions        []string // POST /{Name}/{id}/{action}
	Filters        []string // string query parameters of the list operation
}

// OperationInfo describes a single endpoint outside the resource pattern.
type OperationInfo struct {
	Method      string
	Path        string
	OperationID string
	Summary     string
	Tag         string
	Query       []string // required string query parameters
	Request     any      // request body type, if any
	Response    any      // 200 response type
	Status      int      // success status; 200 if zero
}

// Option configures the generator.
type Option func(*Generator)

// WithTitle sets the API title.
func WithTitle(title string) Option {
	return func(g *Generator) {
		g.title = title
	}
}

// WithVersion sets the API version.
func WithVersion(version string) Option {
	return func(g *Generator) {
		g.version = version
	}
}

// WithDescription sets the API description.
func WithDescription(description string) Option {
	return func(g *Generator) {
		g.description = description
	}
}

// WithServer adds a server URL.
func WithServer(url string) Option {
	return func(g *Generator) {
		g.servers = append(g.servers, url)
	}
}

// NewGenerator creates a new OpenAPI generator.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		title:       "Pint API",
		version:     "1.0.0",
		description: "Multi-tenant blogging platform API",
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// RegisterResource adds a resource collection.
func (g *Generator) RegisterResource(info ResourceInfo) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resources = append(g.resources, info)
	g.cachedSpec = nil
}

// RegisterOperation adds a single endpoint.
func (g *Generator) RegisterOperation(info OperationInfo) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.operations = append(g.operations, info)
	g.cachedSpec = nil
}

// Generate produces the complete OpenAPI 3.0 specification.
func (g *Generator) Generate() *openapi3.T {
	g.mu.RLock()
	if g.cachedSpec != nil {
		spec := g.cachedSpec
		g.mu.RUnlock()
		return spec
	}
	g.mu.RUnlock()

	g.mu.Lock()
	defer g.mu.Unlock()

	// Double-check after acquiring write lock
	if g.cachedSpec != nil {
		return g.cachedSpec
	}

	spec := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       g.title,
			Version:     g.version,
			Description: g.description,
		},
		Servers: make(openapi3.Servers, 0, len(g.servers)),
		Paths:   &openapi3.Paths{},
		Components: &openapi3.Components{
			Schemas: make(openapi3.Schemas),
		},
	}

	for _, url := range g.servers {
		spec.Servers = append(spec.Servers, &openapi3.Server{URL: url})
	}

	g.addCommonSchemas(spec)

	for _, res := range g.resources {
		g.addResourceToSpec(spec, res)
	}
	for _, op := range g.operations {
		g.addOperationToSpec(spec, op)
	}

	g.cachedSpec = spec
	return spec
}

// Handler returns an HTTP handler that serves the OpenAPI specification.
func (g *Generator) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		spec := g.Generate()

		w.Header().Set("Content-Type", "application/json")

		if err := json.NewEncoder(w).Encode(spec); err != nil {
			http.Error(w, "Failed to encode OpenAPI spec", http.StatusInternalServerError)
		}
	}
}

// =============================================================================
// Schema Generation
// =============================================================================

func (g *Generator) addCommonSchemas(spec *openapi3.T) {
	str := func() *openapi3.SchemaRef {
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}}
	}

	spec.Components.Schemas["Error"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"error": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type: &openapi3.Types{"object"},
						Properties: openapi3.Schemas{
							"code":    str(),
							"message": str(),
							"details": &openapi3.SchemaRef{
								Value: &openapi3.Schema{
									Type: &openapi3.Types{"array"},
									Items: &openapi3.SchemaRef{
										Value: &openapi3.Schema{
											Type: &openapi3.Types{"object"},
											Properties: openapi3.Schemas{
												"path":    str(),
												"message": str(),
											},
										},
									},
								},
							},
						},
						Required: []string{"code", "message"},
					},
				},
			},
			Required: []string{"error"},
		},
	}
}

// addResourceToSpec adds paths and schemas for a resource.
func (g *Generator) addResourceToSpec(spec *openapi3.T, res ResourceInfo) {
	basePath := "/api/" + res.Name
	schemaName := capitalize(singularize(res.Name))
	tag := capitalize(res.Name)

	model := g.register(spec, schemaName, res.Model)

	listRef := g.registerSchema(spec, schemaName+"List", &openapi3.Schema{
		Type: &openapi3.Types{"object"},
		Properties: openapi3.Schemas{
			res.Name: &openapi3.SchemaRef{
				Value: &openapi3.Schema{Type: &openapi3.Types{"array"}, Items: model},
			},
			"limit":  &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}}},
			"offset": &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}}},
		},
	})

	// Collection path
	collectionPath := &openapi3.PathItem{}

	listParams := openapi3.Parameters{
		queryParam("limit", "integer", false),
		queryParam("offset", "integer", false),
	}
	for _, f := range res.Filters {
		listParams = append(listParams, queryParam(f, "string", false))
	}
	collectionPath.Get = &openapi3.Operation{
		OperationID: "list" + tag,
		Summary:     "List " + res.Name,
		Tags:        []string{tag},
		Parameters:  listParams,
		Responses:   responses(spec, http.StatusOK, listRef),
	}

	if res.Create != nil {
		collectionPath.Post = &openapi3.Operation{
			OperationID: "create" + schemaName,
			Summary:     "Create a " + singularize(res.Name),
			Tags:        []string{tag},
			RequestBody: requestBody(g.register(spec, "Create"+schemaName+"Request", res.Create)),
			Responses:   responses(spec, http.StatusCreated, model),
		}
	}

	spec.Paths.Set(basePath, collectionPath)

	// Item path
	itemPath := &openapi3.PathItem{
		Parameters: openapi3.Parameters{idParam()},
		Get: &openapi3.Operation{
			OperationID: "get" + schemaName,
			Summary:     "Get a " + singularize(res.Name),
			Tags:        []string{tag},
			Responses:   responses(spec, http.StatusOK, model),
		},
	}
	if res.Update != nil {
		itemPath.Patch = &openapi3.Operation{
			OperationID: "update" + schemaName,
			Summary:     "Update a " + singularize(res.Name),
			Tags:        []string{tag},
			RequestBody: requestBody(g.register(spec, "Update"+schemaName+"Request", res.Update)),
			Responses:   responses(spec, http.StatusOK, model),
		}
	}
	if res.SupportsDelete {
		itemPath.Delete = &openapi3.Operation{
			OperationID: "delete" + schemaName,
			Summary:     "Delete a " + singularize(res.Name),
			Tags:        []string{tag},
			Responses:   responses(spec, http.StatusOK, nil),
		}
	}
	spec.Paths.Set(basePath+"/{id}", itemPath)

	for _, action := range res.Actions {
		spec.Paths.Set(basePath+"/{id}/"+action, &openapi3.PathItem{
			Parameters: openapi3.Parameters{idParam()},
			Post: &openapi3.Operation{
				OperationID: action + schemaName,
				Summary:     capitalize(action) + " a " + singularize(res.Name),
				Tags:        []string{tag},
				Responses:   responses(spec, http.StatusOK, model),
			},
		})
	}
}

// addOperationToSpec adds a single endpoint.
func (g *Generator) addOperationToSpec(spec *openapi3.T, info OperationInfo) {
	op := &openapi3.Operation{
		OperationID: info.OperationID,
		Summary:     info.Summary,
	}
	if info.Tag != "" {
		op.Tags = []string{info.Tag}
	}
	if strings.Contains(info.Path, "{id}") {
		op.Parameters = append(op.Parameters, idParam())
	}
	for _, q := range info.Query {
		op.Parameters = append(op.Parameters, queryParam(q, "string", true))
	}
	if info.Request != nil {
		op.RequestBody = requestBody(g.register(spec, capitalize(info.OperationID)+"Request", info.Request))
	}

	var resp *openapi3.SchemaRef
	if info.Response != nil {
		resp = g.register(spec, capitalize(info.OperationID)+"Response", info.Response)
	}
	status := info.Status
	if status == 0 {
		status = http.StatusOK
	}
	op.Responses = responses(spec, status, resp)

	item := spec.Paths.Value(info.Path)
	if item == nil {
		item = &openapi3.PathItem{}
		spec.Paths.Set(info.Path, item)
	}
	item.SetOperation(strings.ToUpper(info.Method), op)
}

// register stores model's schema under name and returns a resolved
// reference to it.
func (g *Generator) register(spec *openapi3.T, name string, model any) *openapi3.SchemaRef {
	return g.registerSchema(spec, name, g.extractSchema(model).Value)
}

func (g *Generator) registerSchema(spec *openapi3.T, name string, schema *openapi3.Schema) *openapi3.SchemaRef {
	spec.Components.Schemas[name] = &openapi3.SchemaRef{Value: schema}
	return &openapi3.SchemaRef{Ref: "#/components/schemas/" + name, Value: schema}
}

var (
	timeType       = reflect.TypeOf(time.Time{})
	rawMessageType = reflect.TypeOf(json.RawMessage{})
)

// extractSchema extracts an OpenAPI schema from a Go struct.
func (g *Generator) extractSchema(model any) *openapi3.SchemaRef {
	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	schema := &openapi3.Schema{
		Type:       &openapi3.Types{"object"},
		Properties: make(openapi3.Schemas),
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		name := field.Name
		if tagName, _, _ := strings.Cut(jsonTag, ","); tagName != "" {
			name = tagName
		}

		if propSchema := g.goTypeToSchema(field.Type); propSchema != nil {
			schema.Properties[name] = propSchema
		}
		if strings.Contains(field.Tag.Get("validate"), "required") {
			schema.Required = append(schema.Required, name)
		}
	}

	return &openapi3.SchemaRef{Value: schema}
}

// goTypeToSchema converts a Go type to an OpenAPI schema.
func (g *Generator) goTypeToSchema(t reflect.Type) *openapi3.SchemaRef {
	switch t {
	case timeType:
		return &openapi3.SchemaRef{
			Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "date-time"},
		}
	case rawMessageType:
		// Arbitrary JSON document.
		return &openapi3.SchemaRef{Value: &openapi3.Schema{}}
	}

	switch t.Kind() {
	case reflect.String:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32"}}

	case reflect.Int64:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int64"}}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}}}

	case reflect.Float32, reflect.Float64:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"number"}}}

	case reflect.Bool:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}}

	case reflect.Slice, reflect.Array:
		return &openapi3.SchemaRef{
			Value: &openapi3.Schema{
				Type:  &openapi3.Types{"array"},
				Items: g.goTypeToSchema(t.Elem()),
			},
		}

	case reflect.Map:
		return &openapi3.SchemaRef{
			Value: &openapi3.Schema{
				Type:                 &openapi3.Types{"object"},
				AdditionalProperties: openapi3.AdditionalProperties{Schema: g.goTypeToSchema(t.Elem())},
			},
		}

	case reflect.Ptr:
		schema := g.goTypeToSchema(t.Elem())
		if schema != nil && schema.Value != nil {
			schema.Value.Nullable = true
		}
		return schema

	case reflect.Struct:
		return g.extractSchema(reflect.New(t).Interface())

	default:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{}}
	}
}

// =============================================================================
// Helpers
// =============================================================================

func responses(spec *openapi3.T, status int, body *openapi3.SchemaRef) *openapi3.Responses {
	ok := openapi3.NewResponse().WithDescription(http.StatusText(status))
	if body != nil {
		ok.WithJSONSchemaRef(body)
	}

	errRef := &openapi3.SchemaRef{
		Ref:   "#/components/schemas/Error",
		Value: spec.Components.Schemas["Error"].Value,
	}
	errResp := openapi3.NewResponse().WithDescription("Error").WithJSONSchemaRef(errRef)

	resp := openapi3.NewResponsesWithCapacity(2)
	resp.Set(strconv.Itoa(status), &openapi3.ResponseRef{Value: ok})
	resp.Set("default", &openapi3.ResponseRef{Value: errResp})
	return resp
}

func requestBody(schema *openapi3.SchemaRef) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{
		Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchemaRef(schema),
	}
}

func idParam() *openapi3.ParameterRef {
	return &openapi3.ParameterRef{
		Value: openapi3.NewPathParameter("id").WithSchema(openapi3.NewStringSchema()),
	}
}

func queryParam(name, typ string, required bool) *openapi3.ParameterRef {
	return &openapi3.ParameterRef{
		Value: &openapi3.Parameter{
			Name:     name,
			In:       openapi3.ParameterInQuery,
			Required: required,
			Schema:   &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{typ}}},
		},
	}
}

// capitalize returns the string with the first letter capitalized.
func capitalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// singularize performs basic singularization (removes trailing 's').
func singularize(s string) string {
	if strings.HasSuffix(s, "ies") {
		return s[:len(s)-3] + "y"
	}
	if strings.HasSuffix(s, "s") {
		return s[:len(s)-1]
	}
	return s
}
