// Package docs registers the Swagger document served at /swagger/*.
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
        "/admin/dashboard/stats": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Dashboard statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"allOf": [{"$ref": "#/definitions/handler.successResponse"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/handler.dashboardData"}}}]}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorBody"}}
                }
            }
        },
        "/admin/users": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "List users",
                "parameters": [
                    {"type": "integer", "description": "Page number (1-based)", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size (max 100)", "name": "limit", "in": "query"},
                    {"type": "string", "description": "Substring of first name, last name or email", "name": "search", "in": "query"},
                    {"type": "string", "description": "admin | user", "name": "role", "in": "query"},
                    {"type": "string", "description": "active | inactive", "name": "status", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"allOf": [{"$ref": "#/definitions/handler.successResponse"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/handler.userListData"}}}]}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorBody"}}
                }
            }
        },
        "/admin/users/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Get user",
                "parameters": [{"type": "string", "description": "User ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"allOf": [{"$ref": "#/definitions/handler.successResponse"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/handler.userData"}}}]}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorBody"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Delete user",
                "parameters": [{"type": "string", "description": "User ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.successResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorBody"}}
                }
            }
        },
        "/admin/users/{id}/role": {
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Set user role",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "id", "in": "path", "required": true},
                    {"description": "New role", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.updateRoleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"allOf": [{"$ref": "#/definitions/handler.successResponse"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/handler.userData"}}}]}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorBody"}}
                }
            }
        },
        "/admin/users/{id}/status": {
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Set user status",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "id", "in": "path", "required": true},
                    {"description": "New status", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.updateStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"allOf": [{"$ref": "#/definitions/handler.successResponse"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/handler.userData"}}}]}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorBody"}}
                }
            }
        },
        "/auth/change-password": {
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Change password",
                "parameters": [{"description": "Current and new password", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.changePasswordRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.successResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorBody"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login",
                "parameters": [{"description": "Login credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.loginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"allOf": [{"$ref": "#/definitions/handler.successResponse"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/handler.authData"}}}]}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/handler.errorBody"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Logout",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.successResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorBody"}}
                }
            }
        },
        "/auth/profile": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Get profile",
                "responses": {
                    "200": {"description": "OK", "schema": {"allOf": [{"$ref": "#/definitions/handler.successResponse"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/handler.userData"}}}]}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorBody"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Update profile",
                "parameters": [{"description": "Fields to change", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.updateProfileRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"allOf": [{"$ref": "#/definitions/handler.successResponse"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/handler.userData"}}}]}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.errorBody"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Refresh access token",
                "parameters": [{"description": "Refresh token when no cookie is sent", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/handler.refreshRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"allOf": [{"$ref": "#/definitions/handler.successResponse"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/handler.authData"}}}]}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/handler.errorBody"}}
                }
            }
        },
        "/auth/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register a new user",
                "parameters": [{"description": "User registration details", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.registerRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"allOf": [{"$ref": "#/definitions/handler.successResponse"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/handler.authData"}}}]}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/handler.errorBody"}}
                }
            }
        }
    },
    "definitions": {
        "handler.authData": {
            "type": "object",
            "properties": {
                "accessToken": {"type": "string"},
                "user": {"$ref": "#/definitions/handler.userResponse"}
            }
        },
        "handler.changePasswordRequest": {
            "type": "object",
            "required": ["currentPassword", "newPassword"],
            "properties": {
                "currentPassword": {"type": "string"},
                "newPassword": {"type": "string"}
            }
        },
        "handler.dashboardData": {
            "type": "object",
            "properties": {
                "recentUsers": {"type": "array", "items": {"$ref": "#/definitions/handler.userResponse"}},
                "stats": {"$ref": "#/definitions/handler.dashboardStats"}
            }
        },
        "handler.dashboardStats": {
            "type": "object",
            "properties": {
                "active": {"type": "integer"},
                "admins": {"type": "integer"},
                "inactive": {"type": "integer"},
                "regularUsers": {"type": "integer"},
                "total": {"type": "integer"}
            }
        },
        "handler.errorBody": {
            "type": "object",
            "properties": {
                "errors": {"type": "array", "items": {"type": "string"}},
                "message": {"type": "string", "example": "Validation failed"},
                "success": {"type": "boolean", "example": false}
            }
        },
        "handler.loginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string", "example": "ada@example.com"},
                "password": {"type": "string", "example": "Abcdef1!"}
            }
        },
        "handler.pagination": {
            "type": "object",
            "properties": {
                "currentPage": {"type": "integer"},
                "hasNext": {"type": "boolean"},
                "hasPrev": {"type": "boolean"},
                "totalPages": {"type": "integer"},
                "totalUsers": {"type": "integer"}
            }
        },
        "handler.refreshRequest": {
            "type": "object",
            "properties": {
                "refreshToken": {"type": "string"}
            }
        },
        "handler.registerRequest": {
            "type": "object",
            "required": ["email", "firstName", "lastName", "password"],
            "properties": {
                "email": {"type": "string", "example": "ada@example.com"},
                "firstName": {"type": "string", "maxLength": 50, "example": "Ada"},
                "lastName": {"type": "string", "maxLength": 50, "example": "Lovelace"},
                "password": {"type": "string", "example": "Abcdef1!"},
                "role": {"type": "string", "enum": ["admin", "user"], "example": "user"}
            }
        },
        "handler.successResponse": {
            "type": "object",
            "properties": {
                "data": {},
                "message": {"type": "string"},
                "success": {"type": "boolean", "example": true}
            }
        },
        "handler.updateProfileRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "firstName": {"type": "string", "maxLength": 50},
                "lastName": {"type": "string", "maxLength": 50}
            }
        },
        "handler.updateRoleRequest": {
            "type": "object",
            "required": ["role"],
            "properties": {
                "role": {"type": "string", "enum": ["admin", "user"], "example": "admin"}
            }
        },
        "handler.updateStatusRequest": {
            "type": "object",
            "required": ["isActive"],
            "properties": {
                "isActive": {"type": "boolean"}
            }
        },
        "handler.userData": {
            "type": "object",
            "properties": {
                "user": {"$ref": "#/definitions/handler.userResponse"}
            }
        },
        "handler.userListData": {
            "type": "object",
            "properties": {
                "pagination": {"$ref": "#/definitions/handler.pagination"},
                "users": {"type": "array", "items": {"$ref": "#/definitions/handler.userResponse"}}
            }
        },
        "handler.userResponse": {
            "type": "object",
            "properties": {
                "createdAt": {"type": "string"},
                "email": {"type": "string"},
                "firstName": {"type": "string"},
                "id": {"type": "string"},
                "isActive": {"type": "boolean"},
                "lastLogin": {"type": "string"},
                "lastName": {"type": "string"},
                "lockUntil": {"type": "string"},
                "loginAttempts": {"type": "integer"},
                "role": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and the access token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:5000",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "User Auth API",
	Description:      "Username/password authentication with role-based access control and an admin user-management API.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
