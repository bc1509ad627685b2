// Package docs registra a especificação OpenAPI servida em /swagger.
// Regenerar com: swag init -g cmd/api/docs.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Autentica um usuário",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "login", "required": true, "schema": {"$ref": "#/definitions/dto.LoginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.LoginResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["auth"],
                "summary": "Usuário autenticado",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.UserResponse"}}
                }
            }
        },
        "/commands": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["commands"],
                "summary": "Executa um comando",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "command", "required": true, "schema": {"$ref": "#/definitions/dto.CommandRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/engine.Response"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/engine.Response"}}
                }
            }
        },
        "/commands/confirm/{id}": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["commands"],
                "summary": "Confirma uma ação destrutiva",
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/engine.Response"}}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["commands"],
                "summary": "Cancela uma ação pendente",
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/engine.Response"}}}
            }
        },
        "/commands/suggestions": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["commands"],
                "summary": "Sugestões de comandos",
                "parameters": [
                    {"in": "query", "name": "q", "type": "string"},
                    {"in": "query", "name": "limit", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/commands/quick-actions": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["commands"],
                "summary": "Atalhos por papel",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/commands/help/{action}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["commands"],
                "summary": "Ajuda de uma ação",
                "parameters": [{"in": "path", "name": "action", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/commands/history": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["commands"],
                "summary": "Histórico de comandos",
                "parameters": [{"in": "query", "name": "limit", "type": "integer"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ws": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["broadcast"],
                "summary": "Canal de atualizações",
                "parameters": [{"in": "query", "name": "token", "type": "string"}],
                "responses": {"101": {"description": "Switching Protocols"}}
            }
        }
    },
    "definitions": {
        "dto.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "message": {"type": "string"},
                "details": {"type": "string"}
            }
        },
        "dto.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "dto.UserResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "role": {"type": "string"},
                "shop_id": {"type": "integer"}
            }
        },
        "dto.LoginResponse": {
            "type": "object",
            "properties": {
                "user": {"$ref": "#/definitions/dto.UserResponse"},
                "access_token": {"type": "string"},
                "session_id": {"type": "string"},
                "expires_at": {"type": "string"}
            }
        },
        "dto.CommandRequest": {
            "type": "object",
            "required": ["text"],
            "properties": {
                "text": {"type": "string"},
                "confirmation_id": {"type": "string"}
            }
        },
        "engine.Response": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "action": {"type": "string"},
                "message": {"type": "string"},
                "requires_confirmation": {"type": "boolean"},
                "confirmation_id": {"type": "string"},
                "expires_at": {"type": "string"},
                "data": {"type": "object"},
                "error_kind": {"type": "string"},
                "missing": {"type": "array", "items": {"type": "string"}},
                "field": {"type": "string"},
                "expected": {"type": "string"},
                "steps": {"type": "array", "items": {"type": "object"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo guarda as informações exportadas da especificação
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Kommand API",
	Description:      "Interpretação e execução de comandos em inglês, hindi e hinglish para o marketplace",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
