// Package docs registers the OpenAPI document served under /swagger.
// Regenerate with `swag init -g cmd/api/main.go` after changing handler
// annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {"tags": ["health"], "summary": "Liveness probe", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/health/ready": {
            "get": {"tags": ["health"], "summary": "Readiness probe", "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}
        },
        "/api/register": {
            "post": {
                "tags": ["auth"], "summary": "Register a new user",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.registerRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.Envelope"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.Envelope"}}}
            }
        },
        "/api/login": {
            "post": {
                "tags": ["auth"], "summary": "Login",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.loginRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Envelope"}}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.Envelope"}}}
            }
        },
        "/api/session": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["auth"], "summary": "Create a session code",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.sessionRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.Envelope"}}, "401": {"description": "Unauthorized"}, "403": {"description": "Forbidden"}}
            }
        },
        "/api/tables/{table}/listview": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["tables"], "summary": "Filtered, paginated listing of any table",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "table", "in": "path", "required": true},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"in": "body", "name": "body", "schema": {"$ref": "#/definitions/handler.listViewRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Envelope"}}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/tables/{table}/detail": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["tables"], "summary": "Single row of any table",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "table", "in": "path", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.detailRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Envelope"}}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/tables/{table}/{id}/detail": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["tables"], "summary": "Single row of any table, id in the path",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "table", "in": "path", "required": true},
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Envelope"}}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/{collection}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["records"], "summary": "List active rows of an entity",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "collection", "in": "path", "required": true},
                    {"type": "integer", "name": "page", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Envelope"}}, "403": {"description": "Forbidden"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["records"], "summary": "Create a row",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "collection", "in": "path", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.Envelope"}}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}}
            }
        },
        "/api/{collection}/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["records"], "summary": "Get one active row by id",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "collection", "in": "path", "required": true},
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Envelope"}}, "404": {"description": "Not Found"}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["records"], "summary": "Update a row",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "collection", "in": "path", "required": true},
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Envelope"}}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["records"], "summary": "Delete a row",
                "parameters": [
                    {"type": "string", "name": "collection", "in": "path", "required": true},
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {"204": {"description": "No Content"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}
            }
        }
    },
    "definitions": {
        "handler.Envelope": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "success"},
                "message": {"type": "string"},
                "data": {},
                "errors": {}
            }
        },
        "handler.registerRequest": {
            "type": "object",
            "required": ["email", "firstName", "lastName", "password"],
            "properties": {
                "firstName": {"type": "string", "maxLength": 50},
                "lastName": {"type": "string", "maxLength": 50},
                "email": {"type": "string"},
                "username": {"type": "string", "maxLength": 50},
                "password": {"type": "string", "minLength": 8},
                "profileName": {"type": "string", "example": "USER"},
                "role": {"type": "string"}
            }
        },
        "handler.loginRequest": {
            "type": "object",
            "required": ["email_or_username", "password"],
            "properties": {
                "email_or_username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "handler.sessionRequest": {
            "type": "object",
            "required": ["action"],
            "properties": {"action": {"type": "string", "maxLength": 255}}
        },
        "handler.listViewRequest": {
            "type": "object",
            "properties": {
                "filters": {"type": "object", "additionalProperties": {}},
                "page": {"type": "integer"}
            }
        },
        "handler.detailRequest": {
            "type": "object",
            "properties": {"id": {"type": "string"}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "TableHub API",
	Description:      "Multi-tenant CRUD backend with a generic, policy checked table dispatcher.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
