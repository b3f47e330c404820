// Package docs registers the OpenAPI description served at /swagger/doc.json.
// Regenerate with: swag init -g cmd/chatbot-backend/main.go
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
        "/health": {"get": {"tags": ["health"], "summary": "Health check", "responses": {"200": {"description": "OK"}}}},
        "/ready": {"get": {"tags": ["health"], "summary": "Readiness check", "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}},
        "/version": {"get": {"tags": ["health"], "summary": "Get API version", "responses": {"200": {"description": "OK"}}}},
        "/chat-bot/": {
            "post": {
                "tags": ["chat"],
                "summary": "Ask the chatbot",
                "description": "Anonymous callers are answered from public documents only. Authenticated callers also get private documents and database answers.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/http.ChatRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/http.ChatResponse"}}, "400": {"description": "Bad Request"}, "429": {"description": "Too Many Requests"}}
            }
        },
        "/doc/upload": {"post": {"security": [{"BearerAuth": []}], "tags": ["documents"], "summary": "Upload a document", "consumes": ["multipart/form-data"], "responses": {"201": {"description": "Created"}, "202": {"description": "Accepted"}, "400": {"description": "Bad Request"}, "413": {"description": "Request Entity Too Large"}}}},
        "/doc/url/upload": {"post": {"security": [{"BearerAuth": []}], "tags": ["documents"], "summary": "Ingest a web page", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}},
        "/doc/list": {"get": {"security": [{"BearerAuth": []}], "tags": ["documents"], "summary": "List documents", "responses": {"200": {"description": "OK"}}}},
        "/doc/{id}": {"delete": {"security": [{"BearerAuth": []}], "tags": ["documents"], "summary": "Delete a document", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/employee/signup": {"post": {"tags": ["employees"], "summary": "Create new employee", "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}}},
        "/employee/login": {"post": {"tags": ["employees"], "summary": "Employee login", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/employee/logout": {"post": {"security": [{"BearerAuth": []}], "tags": ["employees"], "summary": "Logout", "responses": {"200": {"description": "OK"}}}},
        "/employee/logout-all": {"post": {"security": [{"BearerAuth": []}], "tags": ["employees"], "summary": "Logout everywhere", "responses": {"200": {"description": "OK"}, "500": {"description": "Internal Server Error"}}}},
        "/employee": {"get": {"security": [{"BearerAuth": []}], "tags": ["employees"], "summary": "Get current employee", "responses": {"200": {"description": "OK"}}}},
        "/employee/list": {"get": {"security": [{"BearerAuth": []}], "tags": ["employees"], "summary": "List employees", "responses": {"200": {"description": "OK"}}}},
        "/employee/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["employees"], "summary": "Get employee", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["employees"], "summary": "Update employee", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["employees"], "summary": "Delete employee", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}
        },
        "/employee/{id}/address": {"post": {"security": [{"BearerAuth": []}], "tags": ["employees"], "summary": "Create employee address", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"201": {"description": "Created"}}}},
        "/employee/{id}/address/list": {"get": {"security": [{"BearerAuth": []}], "tags": ["employees"], "summary": "List employee addresses", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/employee/address/{id}": {"delete": {"security": [{"BearerAuth": []}], "tags": ["employees"], "summary": "Delete employee address", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/whatsapp/webhook": {
            "get": {"tags": ["channels"], "summary": "Verify WhatsApp webhook", "produces": ["text/plain"], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}},
            "post": {"tags": ["channels"], "summary": "Receive WhatsApp messages", "responses": {"200": {"description": "OK"}}}
        },
        "/telegram/webhook": {"post": {"tags": ["channels"], "summary": "Receive Telegram updates", "responses": {"200": {"description": "OK"}}}}
    },
    "definitions": {
        "http.ChatRequest": {"type": "object", "properties": {"query": {"type": "string"}}},
        "http.ChatResponse": {"type": "object", "properties": {"answer": {"type": "string"}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"description": "JWT Bearer token. Format: \"Bearer {token}\"", "type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8000",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Chatbot Backend API",
	Description:      "Retrieval-augmented chatbot over company documents and the employee database.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
