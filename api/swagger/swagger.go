package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "LMS Content API",
        "description": "Topic, content and collection catalogue with hierarchical tree resolution",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Hierarchy", "description": "Tree and subject resolution"},
        {"name": "Topics", "description": "Topic catalogue"},
        {"name": "Content", "description": "Content items"},
        {"name": "Collections", "description": "Curated collections and their mappings"},
        {"name": "FilterRules", "description": "Per-level filter rules"},
        {"name": "Observability", "description": "Health and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Observability"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ready": {
            "get": {
                "tags": ["Observability"],
                "summary": "Readiness check",
                "responses": {"200": {"description": "Ready"}, "503": {"description": "Dependency unavailable"}}
            }
        },
        "/api/v1/hierarchy": {
            "get": {
                "tags": ["Hierarchy"],
                "summary": "Resolve the topic and content tree",
                "parameters": [
                    {"name": "level", "in": "query", "type": "integer", "required": false},
                    {"name": "parent", "in": "query", "type": "string", "required": false},
                    {"name": "collection", "in": "query", "type": "string", "required": false},
                    {"name": "expand", "in": "query", "type": "boolean", "required": false},
                    {"name": "unassigned", "in": "query", "type": "boolean", "required": false}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/hierarchy/subjects": {
            "get": {
                "tags": ["Hierarchy"],
                "summary": "Group content under virtual subject topics",
                "parameters": [
                    {"name": "subjects", "in": "query", "type": "string", "required": false},
                    {"name": "collection", "in": "query", "type": "string", "required": false}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/hierarchy/check": {
            "get": {
                "tags": ["Hierarchy"],
                "summary": "Scan stored data for cycles, orphans and malformed mappings",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/hierarchy/filter-rules/evaluate": {
            "post": {
                "tags": ["Hierarchy"],
                "summary": "Evaluate a filter rule against one entity",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/topics": {
            "get": {
                "tags": ["Topics"],
                "summary": "List topics",
                "parameters": [
                    {"name": "parent", "in": "query", "type": "string", "required": false},
                    {"name": "subject", "in": "query", "type": "string", "required": false},
                    {"name": "search", "in": "query", "type": "string", "required": false},
                    {"name": "page", "in": "query", "type": "integer", "required": false},
                    {"name": "limit", "in": "query", "type": "integer", "required": false}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Topics"],
                "summary": "Create topic",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {"201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/topics/{id}": {
            "get": {
                "tags": ["Topics"],
                "summary": "Get topic",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Topics"],
                "summary": "Update topic",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Topics"],
                "summary": "Delete topic",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/api/v1/content": {
            "get": {
                "tags": ["Content"],
                "summary": "List content items",
                "parameters": [
                    {"name": "topic", "in": "query", "type": "string", "required": false},
                    {"name": "subject", "in": "query", "type": "string", "required": false},
                    {"name": "search", "in": "query", "type": "string", "required": false},
                    {"name": "page", "in": "query", "type": "integer", "required": false},
                    {"name": "limit", "in": "query", "type": "integer", "required": false}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Content"],
                "summary": "Create content item",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {"201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/content/{id}": {
            "get": {
                "tags": ["Content"],
                "summary": "Get content item",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Content"],
                "summary": "Update content item",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Content"],
                "summary": "Delete content item",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/api/v1/collections": {
            "get": {
                "tags": ["Collections"],
                "summary": "List collections",
                "parameters": [
                    {"name": "include_inactive", "in": "query", "type": "boolean", "required": false},
                    {"name": "route", "in": "query", "type": "string", "required": false},
                    {"name": "search", "in": "query", "type": "string", "required": false},
                    {"name": "page", "in": "query", "type": "integer", "required": false},
                    {"name": "limit", "in": "query", "type": "integer", "required": false}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Collections"],
                "summary": "Create collection",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {"201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/collections/{id}": {
            "get": {
                "tags": ["Collections"],
                "summary": "Get collection",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Collections"],
                "summary": "Update collection",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Collections"],
                "summary": "Deactivate collection",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/api/v1/collections/{id}/mappings": {
            "get": {
                "tags": ["Collections"],
                "summary": "List collection mappings",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Collections"],
                "summary": "Place a topic, content item or group card in a collection",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {"201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/collections/{id}/mappings/order": {
            "put": {
                "tags": ["Collections"],
                "summary": "Reorder collection mappings",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/collections/{id}/mappings/{mappingId}": {
            "delete": {
                "tags": ["Collections"],
                "summary": "Remove a collection mapping",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "mappingId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/api/v1/collections/{id}/outline.csv": {
            "get": {
                "tags": ["Collections"],
                "summary": "Download a collection outline as CSV",
                "produces": ["text/csv"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {"200": {"description": "File"}}
            }
        },
        "/api/v1/collections/{id}/outline.pdf": {
            "get": {
                "tags": ["Collections"],
                "summary": "Download a collection outline as PDF",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {"200": {"description": "File"}}
            }
        },
        "/api/v1/filter-rules": {
            "get": {
                "tags": ["FilterRules"],
                "summary": "List filter rules",
                "parameters": [
                    {"name": "level", "in": "query", "type": "integer", "required": false},
                    {"name": "active", "in": "query", "type": "boolean", "required": false}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["FilterRules"],
                "summary": "Create filter rule",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {"201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/filter-rules/{id}": {
            "get": {
                "tags": ["FilterRules"],
                "summary": "Get filter rule",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["FilterRules"],
                "summary": "Update filter rule",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["FilterRules"],
                "summary": "Delete filter rule",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/api/v1/metrics/summary": {
            "get": {
                "tags": ["Observability"],
                "summary": "Aggregated service metrics",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "definitions": {
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
