// Package docs registers the OpenAPI description served under /swagger.
// Regenerate the full document with `swag init -g cmd/api/main.go`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "Growen",
            "email": "suporte@growen.ao"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "User login",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid credentials"}}
            }
        },
        "/auth/register": {
            "post": {
                "tags": ["Auth"],
                "summary": "User registration",
                "responses": {"200": {"description": "OK"}, "409": {"description": "Email already registered"}}
            }
        },
        "/plans/available": {
            "get": {
                "tags": ["Plans"],
                "summary": "List plans",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/payments/upload-proof": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Payments"],
                "summary": "Upload payment proof",
                "consumes": ["multipart/form-data"],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid file"}}
            }
        },
        "/admin/payments/{id}/review": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "Review proof",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Already reviewed"}}
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

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Growen API",
	Description:      "Consultoria empresarial, CRM e faturação para PMEs angolanas.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
