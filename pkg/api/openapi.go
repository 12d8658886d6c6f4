package api

import (
	"encoding/json"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/pagescope/pagescope/pkg/httputil"
)

// buildOpenAPIDocument constructs the OpenAPI 3 description of the API once
// at startup. The document is served verbatim by the /openapi.json and
// /openapi.yaml handlers and rendered interactively at /docs.
func (a *API) buildOpenAPIDocument() {
	doc := a.openAPIDocument()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		a.log.Error("failed to marshal OpenAPI document", "error", err)
		return
	}
	a.openapiJSON = append(data, '\n')

	// yaml.Marshal on the kin-openapi types would ignore their JSON field
	// names, so the YAML flavor goes through a generic decode first.
	var obj map[string]interface{}
	if err := json.Unmarshal(data, &obj); err != nil {
		a.log.Error("failed to rebuild OpenAPI document for YAML", "error", err)
		return
	}
	yamlData, err := yaml.Marshal(obj)
	if err != nil {
		a.log.Error("failed to marshal OpenAPI document as YAML", "error", err)
		return
	}
	a.openapiYAML = yamlData
}

func (a *API) openAPIDocument() *openapi3.T {
	schemas := openapi3.Schemas{
		"Page":           {Value: pageSchema()},
		"PageSummary":    {Value: pageSummarySchema()},
		"PageCreate":     {Value: pageCreateSchema()},
		"PageUpdate":     {Value: pageUpdateSchema()},
		"CommentCreate":  {Value: commentCreateSchema()},
		"DeleteResponse": {Value: deleteResponseSchema()},
		"HealthResponse": {Value: healthResponseSchema()},
		"ErrorResponse":  {Value: errorResponseSchema()},
		"SearchResponse": {Value: searchResponseSchema()},
		"CommentList":    {Value: openapi3.NewObjectSchema()},
	}

	paths := openapi3.NewPaths()

	paths.Set("/health", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "getHealth",
			Summary:     "Service liveness",
			Tags:        []string{"service"},
			Responses: openapi3.NewResponses(
				openapi3.WithStatus(200, jsonResponse("Service is up", compRef("HealthResponse"))),
			),
		},
	})

	pages := openapi3.NewArraySchema()
	pages.Items = compRef("PageSummary")
	paths.Set("/pages", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "listPages",
			Summary:     "List pages",
			Description: "Lists the pages of the configured space, confined to the configured parent page when a restriction is set.",
			Tags:        []string{"pages"},
			Responses: openapi3.NewResponses(
				openapi3.WithStatus(200, jsonResponse("Page summaries", &openapi3.SchemaRef{Value: pages})),
			),
		},
		Post: &openapi3.Operation{
			OperationID: "createPage",
			Summary:     "Create page",
			Description: "Creates a page under the given parent. Without an explicit parent the configured restriction is used; a parent outside the restriction is rejected.",
			Tags:        []string{"pages"},
			RequestBody: jsonRequestBody("PageCreate"),
			Responses: openapi3.NewResponses(
				openapi3.WithStatus(201, jsonResponse("Created page", compRef("Page"))),
				openapi3.WithStatus(400, errorResponse("Invalid request")),
				openapi3.WithStatus(403, errorResponse("Parent outside the configured scope")),
			),
		},
	})

	paths.Set("/pages/{id}", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "readPage",
			Summary:     "Read page",
			Tags:        []string{"pages"},
			Parameters: openapi3.Parameters{
				pathIDParam("Page ID"),
				queryParam("include_children", "Include the whole child subtree", openapi3.NewBoolSchema()),
			},
			Responses: openapi3.NewResponses(
				openapi3.WithStatus(200, jsonResponse("Page summary", compRef("PageSummary"))),
				openapi3.WithStatus(404, errorResponse("Page not found")),
			),
		},
		Put: &openapi3.Operation{
			OperationID: "updatePage",
			Summary:     "Update page",
			Description: "Writes a new version of the page. At least one of title or content must be provided; omitted fields keep their current value.",
			Tags:        []string{"pages"},
			Parameters:  openapi3.Parameters{pathIDParam("Page ID")},
			RequestBody: jsonRequestBody("PageUpdate"),
			Responses: openapi3.NewResponses(
				openapi3.WithStatus(200, jsonResponse("Updated page", compRef("Page"))),
				openapi3.WithStatus(400, errorResponse("Invalid request")),
				openapi3.WithStatus(403, errorResponse("Page outside the configured scope")),
				openapi3.WithStatus(404, errorResponse("Page not found")),
			),
		},
		Delete: &openapi3.Operation{
			OperationID: "deletePage",
			Summary:     "Delete page",
			Tags:        []string{"pages"},
			Parameters:  openapi3.Parameters{pathIDParam("Page ID")},
			Responses: openapi3.NewResponses(
				openapi3.WithStatus(200, jsonResponse("Deletion acknowledged", compRef("DeleteResponse"))),
				openapi3.WithStatus(403, errorResponse("Page outside the configured scope")),
				openapi3.WithStatus(404, errorResponse("Page not found")),
			),
		},
	})

	paths.Set("/search", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "searchPages",
			Summary:     "Search pages",
			Description: "Runs a raw CQL query against Confluence, following cursor pagination up to the requested limit.",
			Tags:        []string{"search"},
			Parameters: openapi3.Parameters{
				requiredQueryParam("cql", "CQL query", openapi3.NewStringSchema()),
				queryParam("limit", "Maximum number of results", openapi3.NewIntegerSchema().WithDefault(defaultSearchLimit)),
			},
			Responses: openapi3.NewResponses(
				openapi3.WithStatus(200, jsonResponse("Search results", compRef("SearchResponse"))),
				openapi3.WithStatus(400, errorResponse("Missing or invalid parameters")),
			),
		},
	})

	paths.Set("/pages/{id}/inline-comments", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "listInlineComments",
			Summary:     "List inline comments for a page",
			Tags:        []string{"comments"},
			Parameters: openapi3.Parameters{
				pathIDParam("Page ID"),
				queryParam("body_format", "Comment body representation", openapi3.NewStringSchema().WithDefault("storage")),
			},
			Responses: openapi3.NewResponses(
				openapi3.WithStatus(200, jsonResponse("Inline comments", compRef("CommentList"))),
				openapi3.WithStatus(404, errorResponse("Page not found")),
			),
		},
	})

	paths.Set("/inline-comments/{id}/reply", &openapi3.PathItem{
		Post: &openapi3.Operation{
			OperationID: "replyInlineComment",
			Summary:     "Reply to an inline comment",
			Tags:        []string{"comments"},
			Parameters:  openapi3.Parameters{pathIDParam("Comment ID")},
			RequestBody: jsonRequestBody("CommentCreate"),
			Responses: openapi3.NewResponses(
				openapi3.WithStatus(200, jsonResponse("Created reply", compRef("CommentList"))),
				openapi3.WithStatus(400, errorResponse("Invalid request")),
				openapi3.WithStatus(404, errorResponse("Comment not found")),
			),
		},
	})

	paths.Set("/pages/{id}/footer-comments", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "listFooterComments",
			Summary:     "List footer comments for a page",
			Tags:        []string{"comments"},
			Parameters: openapi3.Parameters{
				pathIDParam("Page ID"),
				queryParam("body_format", "Comment body representation", openapi3.NewStringSchema().WithDefault("storage")),
			},
			Responses: openapi3.NewResponses(
				openapi3.WithStatus(200, jsonResponse("Footer comments", compRef("CommentList"))),
				openapi3.WithStatus(404, errorResponse("Page not found")),
			),
		},
		Post: &openapi3.Operation{
			OperationID: "addFooterComment",
			Summary:     "Add a footer comment to a page",
			Tags:        []string{"comments"},
			Parameters:  openapi3.Parameters{pathIDParam("Page ID")},
			RequestBody: jsonRequestBody("CommentCreate"),
			Responses: openapi3.NewResponses(
				openapi3.WithStatus(200, jsonResponse("Created comment", compRef("CommentList"))),
				openapi3.WithStatus(400, errorResponse("Invalid request")),
				openapi3.WithStatus(404, errorResponse("Page not found")),
			),
		},
	})

	return &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title: "pagescope",
			Description: "A confined proxy for the Confluence Cloud REST API. " +
				"Agents can list, read, create, update and delete pages through a simplified surface; " +
				"when a parent page restriction is configured, writes only work under that page.",
			Version: a.version,
		},
		Paths:      paths,
		Components: &openapi3.Components{Schemas: schemas},
	}
}

func compRef(name string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Ref: "#/components/schemas/" + name}
}

func jsonResponse(description string, schema *openapi3.SchemaRef) *openapi3.ResponseRef {
	return &openapi3.ResponseRef{
		Value: openapi3.NewResponse().WithDescription(description).WithJSONSchemaRef(schema),
	}
}

func errorResponse(description string) *openapi3.ResponseRef {
	return jsonResponse(description, compRef("ErrorResponse"))
}

func jsonRequestBody(schemaName string) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{
		Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchemaRef(compRef(schemaName)),
	}
}

func pathIDParam(description string) *openapi3.ParameterRef {
	return &openapi3.ParameterRef{
		Value: openapi3.NewPathParameter("id").
			WithDescription(description).
			WithSchema(openapi3.NewStringSchema()),
	}
}

func queryParam(name, description string, schema *openapi3.Schema) *openapi3.ParameterRef {
	return &openapi3.ParameterRef{
		Value: openapi3.NewQueryParameter(name).
			WithDescription(description).
			WithSchema(schema),
	}
}

func requiredQueryParam(name, description string, schema *openapi3.Schema) *openapi3.ParameterRef {
	ref := queryParam(name, description, schema)
	ref.Value.Required = true
	return ref
}

// schemaWithDescription sets Description on a schema; openapi3.Schema has no
// WithDescription builder method.
func schemaWithDescription(s *openapi3.Schema, description string) *openapi3.Schema {
	s.Description = description
	return s
}

func pageSchema() *openapi3.Schema {
	s := openapi3.NewObjectSchema().
		WithProperty("id", openapi3.NewStringSchema()).
		WithProperty("title", openapi3.NewStringSchema()).
		WithProperty("version", openapi3.NewIntegerSchema()).
		WithProperty("url", openapi3.NewStringSchema())
	s.Required = []string{"id", "title", "version"}
	return s
}

func pageSummarySchema() *openapi3.Schema {
	children := openapi3.NewArraySchema()
	children.Items = compRef("PageSummary")

	s := openapi3.NewObjectSchema().
		WithProperty("id", openapi3.NewStringSchema()).
		WithProperty("title", openapi3.NewStringSchema()).
		WithProperty("content", schemaWithDescription(openapi3.NewStringSchema(), "Page body converted to Markdown")).
		WithProperty("url", openapi3.NewStringSchema()).
		WithProperty("last_modified", openapi3.NewStringSchema()).
		WithProperty("parent_page_id", openapi3.NewStringSchema()).
		WithProperty("parent_page_title", openapi3.NewStringSchema()).
		WithProperty("modifier", openapi3.NewStringSchema())
	s.Properties["children"] = &openapi3.SchemaRef{Value: children}
	s.Required = []string{"id", "title", "content"}
	return s
}

func pageCreateSchema() *openapi3.Schema {
	s := openapi3.NewObjectSchema().
		WithProperty("title", openapi3.NewStringSchema().WithMaxLength(255)).
		WithProperty("content", schemaWithDescription(openapi3.NewStringSchema(), "Body in Confluence storage format")).
		WithProperty("parent_id", schemaWithDescription(openapi3.NewStringSchema(), "Parent page ID; defaults to the configured restriction"))
	s.Required = []string{"title", "content"}
	return s
}

func pageUpdateSchema() *openapi3.Schema {
	return openapi3.NewObjectSchema().
		WithProperty("title", schemaWithDescription(openapi3.NewStringSchema().WithMaxLength(255), "New title")).
		WithProperty("content", schemaWithDescription(openapi3.NewStringSchema(), "New content in storage format"))
}

func commentCreateSchema() *openapi3.Schema {
	s := openapi3.NewObjectSchema().
		WithProperty("body", schemaWithDescription(openapi3.NewStringSchema(), "Comment body in storage format"))
	s.Required = []string{"body"}
	return s
}

func deleteResponseSchema() *openapi3.Schema {
	s := openapi3.NewObjectSchema().
		WithProperty("status", openapi3.NewStringSchema())
	s.Required = []string{"status"}
	return s
}

func healthResponseSchema() *openapi3.Schema {
	s := openapi3.NewObjectSchema().
		WithProperty("status", openapi3.NewStringSchema()).
		WithProperty("uptime", schemaWithDescription(openapi3.NewIntegerSchema(), "Seconds since start"))
	s.Required = []string{"status"}
	return s
}

func errorResponseSchema() *openapi3.Schema {
	s := openapi3.NewObjectSchema().
		WithProperty("error", schemaWithDescription(openapi3.NewStringSchema(), "Stable error code")).
		WithProperty("message", openapi3.NewStringSchema()).
		WithProperty("details", openapi3.NewObjectSchema())
	s.Required = []string{"error", "message"}
	return s
}

func searchResponseSchema() *openapi3.Schema {
	results := openapi3.NewArraySchema()
	results.Items = &openapi3.SchemaRef{Value: openapi3.NewObjectSchema()}

	s := openapi3.NewObjectSchema().
		WithProperty("size", openapi3.NewIntegerSchema()).
		WithProperty("totalSize", openapi3.NewIntegerSchema())
	s.Properties["results"] = &openapi3.SchemaRef{Value: results}
	return s
}

const docsPage = `<!DOCTYPE html>
<html>
<head>
  <title>pagescope API</title>
  <meta charset="utf-8"/>
  <meta name="viewport" content="width=device-width, initial-scale=1"/>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css"/>
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.onload = function() {
      SwaggerUIBundle({
        url: "/openapi.json",
        dom_id: "#swagger-ui"
      });
    };
  </script>
</body>
</html>
`

// handleOpenAPIJSON serves the OpenAPI document as JSON.
func (a *API) handleOpenAPIJSON(w http.ResponseWriter, r *http.Request) {
	if a.openapiJSON == nil {
		httputil.WriteError(w, http.StatusInternalServerError, "internal_error", ErrMsgInternalError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(a.openapiJSON)
}

// handleOpenAPIYAML serves the OpenAPI document as YAML.
func (a *API) handleOpenAPIYAML(w http.ResponseWriter, r *http.Request) {
	if a.openapiYAML == nil {
		httputil.WriteError(w, http.StatusInternalServerError, "internal_error", ErrMsgInternalError)
		return
	}
	w.Header().Set("Content-Type", "application/x-yaml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(a.openapiYAML)
}

// handleDocs serves the interactive API documentation.
func (a *API) handleDocs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(docsPage))
}
