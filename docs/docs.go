// Package docs registers the OpenAPI document served under /swagger/ when the server is
// built with -tags=swagger. Regenerate with `swag init -g cmd/tierd/docs.go`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {"name": "tierd maintainers"},
        "license": {"name": "MIT", "url": "https://opensource.org/licenses/MIT"},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/v1/generate": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Generate text, selecting and loading a model when needed",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/types.GenerateRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.GenerateResponse"}},
                    "400": {"description": "InvalidRequest", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "422": {"description": "NoSuitableModel or ExceedsTierCeiling", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "429": {"description": "Busy", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "507": {"description": "InsufficientCapacity", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/v1/models": {
            "get": {"produces": ["application/json"], "summary": "List catalog models", "responses": {"200": {"description": "OK"}}}
        },
        "/v1/models/{id}": {
            "get": {
                "produces": ["application/json"],
                "summary": "Model info with residency",
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "UnknownModel", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}}
            }
        },
        "/v1/select": {"post": {"consumes": ["application/json"], "produces": ["application/json"], "summary": "Select a model without loading it", "responses": {"200": {"description": "OK"}}}},
        "/v1/manage": {"post": {"consumes": ["application/json"], "produces": ["application/json"], "summary": "Load, unload, hot swap or report status", "responses": {"200": {"description": "OK"}}}},
        "/v1/hot-swap": {"post": {"consumes": ["application/json"], "produces": ["application/json"], "summary": "Unload one model and load another", "responses": {"200": {"description": "OK"}}}},
        "/v1/batch": {"post": {"consumes": ["application/json"], "produces": ["application/json"], "summary": "Generate for many prompts", "responses": {"200": {"description": "OK"}}}},
        "/v1/sessions": {"post": {"consumes": ["application/json"], "produces": ["application/json"], "summary": "Create an agent session", "responses": {"200": {"description": "OK"}}}},
        "/v1/memory": {"get": {"produces": ["application/json"], "summary": "Tier usage and residents", "responses": {"200": {"description": "OK"}}}},
        "/v1/system": {"get": {"produces": ["application/json"], "summary": "System status", "responses": {"200": {"description": "OK"}}}},
        "/v1/optimize": {"post": {"consumes": ["application/json"], "produces": ["application/json"], "summary": "Rebalance residents across tiers", "responses": {"200": {"description": "OK"}}}}
    },
    "definitions": {
        "types.GenerateRequest": {
            "type": "object",
            "properties": {
                "prompt": {"type": "string", "example": "Plan a three-day trip to Kyoto."},
                "thinking_mode": {"type": "string", "example": "strategic"},
                "model": {"type": "string", "example": "gpt2-small"},
                "priority": {"type": "string", "example": "balanced"},
                "max_tokens": {"type": "integer", "example": 128}
            }
        },
        "types.GenerateResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "text": {"type": "string"},
                "model": {"type": "string", "example": "gpt-j-6b"},
                "tier": {"type": "string", "example": "swap"},
                "elapsed_ms": {"type": "number"},
                "token_count": {"type": "integer"},
                "loaded": {"type": "boolean"},
                "justification": {"type": "string"}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "code": {"type": "integer", "example": 507},
                "kind": {"type": "string", "example": "InsufficientCapacity"},
                "retryable": {"type": "boolean"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "tierd API",
	Description:      "HTTP API for tiered model memory management and inference.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
