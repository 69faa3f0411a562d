// Package docs registers the OpenAPI document served by swaggerkit.
// Keep it in step with the @Router annotations on the handlers.
package docs

import "github.com/swaggo/swag/v2"

const docTemplate = `{
  "openapi": "3.0.3",
  "info": {
    "title": "{{.Title}}",
    "description": "{{escape .Description}}",
    "version": "{{.Version}}"
  },
  "paths": {
    "/leads/score": {
      "post": {
        "tags": ["Leads"],
        "summary": "Score a lead without storing it",
        "requestBody": {"required": true, "content": {"application/json": {"schema": {"$ref": "#/components/schemas/LeadInput"}}}},
        "responses": {"200": {"description": "ok", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/ScoreOutput"}}}}}
      }
    },
    "/leads": {
      "post": {
        "tags": ["Leads"],
        "summary": "Sanitize, score and store a lead",
        "requestBody": {"required": true, "content": {"application/json": {"schema": {"$ref": "#/components/schemas/LeadInput"}}}},
        "responses": {"201": {"description": "created", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/CreateOutput"}}}}}
      }
    },
    "/leads/lookup": {
      "post": {
        "tags": ["Leads"],
        "summary": "Fetch a stored lead by id",
        "requestBody": {"required": true, "content": {"application/json": {"schema": {"$ref": "#/components/schemas/LookupInput"}}}},
        "responses": {"200": {"description": "ok"}, "404": {"description": "not found"}}
      }
    },
    "/sessions/summaries": {
      "post": {
        "tags": ["Sessions"],
        "summary": "Store a sealed session summary",
        "responses": {"202": {"description": "accepted"}}
      }
    },
    "/sessions/samples": {
      "post": {
        "tags": ["Sessions"],
        "summary": "Append heatmap samples",
        "responses": {"202": {"description": "accepted"}, "413": {"description": "batch over 5000 samples"}}
      }
    },
    "/sessions/heatmap": {
      "post": {
        "tags": ["Sessions"],
        "summary": "Aggregate stored samples for a page",
        "responses": {"200": {"description": "ok"}}
      }
    },
    "/meta/health": {"get": {"tags": ["Meta"], "summary": "Health check", "responses": {"200": {"description": "ok"}}}},
    "/meta/ready": {"get": {"tags": ["Meta"], "summary": "Readiness with dependency checks", "responses": {"200": {"description": "ok"}}}},
    "/meta/version": {"get": {"tags": ["Meta"], "summary": "Build info", "responses": {"200": {"description": "ok"}}}},
    "/meta/capture": {"get": {"tags": ["Meta"], "summary": "Client capture configuration", "responses": {"200": {"description": "ok"}}}},
    "/meta/consent": {
      "get": {"tags": ["Meta"], "summary": "Stored consent for the calling visitor", "responses": {"200": {"description": "ok"}}},
      "post": {"tags": ["Meta"], "summary": "Store consent for a visitor", "responses": {"200": {"description": "ok"}}}
    }
  },
  "components": {
    "schemas": {
      "LeadInput": {
        "type": "object",
        "required": ["email"],
        "properties": {
          "first_name": {"type": "string"},
          "last_name": {"type": "string"},
          "email": {"type": "string", "format": "email"},
          "company": {"type": "string"},
          "website": {"type": "string"},
          "phone": {"type": "string"},
          "service": {"type": "string", "example": "growth"},
          "message": {"type": "string"},
          "source": {"type": "string", "example": "pricing_inquiry"}
        }
      },
      "ScoreOutput": {
        "type": "object",
        "properties": {
          "total": {"type": "integer"},
          "breakdown": {"type": "object"},
          "tags": {"type": "array", "items": {"type": "string"}},
          "priority": {"type": "string", "enum": ["urgent", "high", "medium", "low"]},
          "industry": {"type": "string"}
        }
      },
      "CreateOutput": {
        "type": "object",
        "properties": {
          "id": {"type": "string", "format": "uuid"},
          "score": {"$ref": "#/components/schemas/ScoreOutput"}
        }
      },
      "LookupInput": {
        "type": "object",
        "required": ["id"],
        "properties": {"id": {"type": "string", "format": "uuid"}}
      }
    }
  }
}`

// SwaggerInfo holds the exported document metadata
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	BasePath:         "/api/v1",
	Title:            "leadfunnel API",
	Description:      "Lead scoring and behavioral capture ingest.",
	InfoInstanceName: "api",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
