package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the catalog service.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg gin.IRouter) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>catalog-service Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "catalog-service", "version": "v0.1.0" },
  "components": {
    "schemas": {
      "Error": { "type": "object", "properties": { "error": { "type": "string" } } },
      "Resource": {
        "type": "object",
        "properties": {
          "id": { "type": "string", "format": "uuid" },
          "title": { "type": "string" },
          "type": { "type": "string" },
          "description": { "type": "string" },
          "authorId": { "type": "string" },
          "createdAt": { "type": "string", "format": "date-time" },
          "updatedAt": { "type": "string", "format": "date-time" }
        }
      },
      "ResourceSummary": {
        "allOf": [
          { "$ref": "#/components/schemas/Resource" },
          { "type": "object", "properties": { "averageRating": { "type": "number" } } }
        ]
      },
      "ResourceDetail": {
        "allOf": [
          { "$ref": "#/components/schemas/ResourceSummary" },
          { "type": "object", "properties": { "feedback": { "type": "array", "items": { "$ref": "#/components/schemas/Feedback" } } } }
        ]
      },
      "Rating": {
        "type": "object",
        "properties": {
          "id": { "type": "string" },
          "resourceId": { "type": "string" },
          "ratingValue": { "type": "number", "minimum": 1, "maximum": 5 },
          "userId": { "type": "string" },
          "timestamp": { "type": "string", "format": "date-time" }
        }
      },
      "Feedback": {
        "type": "object",
        "properties": {
          "id": { "type": "string" },
          "resourceId": { "type": "string" },
          "feedbackText": { "type": "string" },
          "userId": { "type": "string" },
          "timestamp": { "type": "string", "format": "date-time" }
        }
      }
    }
  },
  "paths": {
    "/api/resources": {
      "get": {
        "summary": "List resources with their average rating",
        "parameters": [
          { "name": "type", "in": "query", "schema": { "type": "string" } },
          { "name": "authorId", "in": "query", "schema": { "type": "string" } }
        ],
        "responses": { "200": { "description": "OK", "content": { "application/json": { "schema": { "type": "array", "items": { "$ref": "#/components/schemas/ResourceSummary" } } } } } }
      },
      "post": {
        "summary": "Create a resource",
        "requestBody": { "content": { "application/json": { "schema": { "type": "object", "required": ["title", "type"], "properties": { "title": {"type":"string"}, "type": {"type":"string"}, "description": {"type":"string"}, "authorId": {"type":"string"} } } } } },
        "responses": { "201": { "description": "Created" }, "400": { "description": "Validation error" } }
      }
    },
    "/api/resources/{id}": {
      "parameters": [ { "name": "id", "in": "path", "required": true, "schema": { "type": "string" } } ],
      "get": { "summary": "Get a resource with average rating and feedback", "responses": { "200": { "description": "OK", "content": { "application/json": { "schema": { "$ref": "#/components/schemas/ResourceDetail" } } } }, "404": { "description": "Not found" } } },
      "patch": { "summary": "Update resource fields", "responses": { "200": { "description": "OK" }, "400": { "description": "Validation error" }, "404": { "description": "Not found" } } },
      "put": { "summary": "Update resource fields", "responses": { "200": { "description": "OK" }, "400": { "description": "Validation error" }, "404": { "description": "Not found" } } },
      "delete": { "summary": "Delete a resource with its ratings and feedback", "responses": { "204": { "description": "Deleted" }, "404": { "description": "Not found" } } }
    },
    "/api/resources/{id}/ratings": {
      "parameters": [ { "name": "id", "in": "path", "required": true, "schema": { "type": "string" } } ],
      "get": { "summary": "List ratings of a resource", "responses": { "200": { "description": "OK" }, "404": { "description": "Not found" } } },
      "post": {
        "summary": "Rate a resource (1 to 5)",
        "requestBody": { "content": { "application/json": { "schema": { "type": "object", "required": ["ratingValue"], "properties": { "ratingValue": {"type":"number"}, "userId": {"type":"string"} } } } } },
        "responses": { "201": { "description": "Created" }, "400": { "description": "Validation error" }, "404": { "description": "Not found" } }
      }
    },
    "/api/resources/{id}/feedback": {
      "parameters": [ { "name": "id", "in": "path", "required": true, "schema": { "type": "string" } } ],
      "get": { "summary": "List feedback of a resource", "responses": { "200": { "description": "OK" }, "404": { "description": "Not found" } } },
      "post": {
        "summary": "Leave feedback on a resource",
        "requestBody": { "content": { "application/json": { "schema": { "type": "object", "required": ["feedbackText"], "properties": { "feedbackText": {"type":"string"}, "userId": {"type":"string"} } } } } },
        "responses": { "201": { "description": "Created" }, "400": { "description": "Validation error" }, "404": { "description": "Not found" } }
      }
    },
    "/api/resources/{id}/feedback/{feedbackId}": {
      "parameters": [
        { "name": "id", "in": "path", "required": true, "schema": { "type": "string" } },
        { "name": "feedbackId", "in": "path", "required": true, "schema": { "type": "string" } }
      ],
      "put": { "summary": "Edit feedback text", "responses": { "200": { "description": "OK" }, "400": { "description": "Validation error" }, "404": { "description": "Not found" } } },
      "delete": { "summary": "Delete feedback", "responses": { "204": { "description": "Deleted" }, "404": { "description": "Not found" } } }
    },
    "/health": { "get": { "summary": "Liveness", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness of the configured store", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
