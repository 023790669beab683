// Package docs registers the Swagger document served under /swagger/. It follows
// the layout of `swag init` output and is kept in step with the handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "email": "support@example.com"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/v1/users/change-password": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Replaces the password of the authenticated user after checking the current one.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Change password",
                "parameters": [
                    {
                        "description": "Current and new password",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/model.ChangePasswordRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.MessageResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/common.AppError"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/common.AppError"}}
                }
            }
        },
        "/api/v1/users/channel/{username}": {
            "get": {
                "description": "Returns a channel with its subscriber counts. isSubscribed reflects the caller and is false for anonymous requests.",
                "produces": ["application/json"],
                "tags": ["channels"],
                "summary": "Channel profile",
                "parameters": [
                    {"type": "string", "description": "Channel username", "name": "username", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.ChannelProfile"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/common.AppError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/common.AppError"}}
                }
            }
        },
        "/api/v1/users/history": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns the videos watched by the authenticated user, in history order, with owner summaries.",
                "produces": ["application/json"],
                "tags": ["channels"],
                "summary": "Watch history",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.WatchHistoryEntry"}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/common.AppError"}}
                }
            }
        },
        "/api/v1/users/login": {
            "post": {
                "description": "Authenticates with a username or email and a password. Sets the accessToken and refreshToken cookies.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Log in",
                "parameters": [
                    {
                        "description": "Login credentials",
                        "name": "credentials",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/model.LoginRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.LoginResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/common.AppError"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/common.AppError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/common.AppError"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/common.AppError"}}
                }
            }
        },
        "/api/v1/users/logout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Revokes the stored refresh token and clears both token cookies.",
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Log out",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.MessageResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/common.AppError"}}
                }
            }
        },
        "/api/v1/users/profile": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns the authenticated user.",
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.PublicUser"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/common.AppError"}}
                }
            }
        },
        "/api/v1/users/refresh": {
            "get": {
                "description": "Redeems the refresh token from the refreshToken cookie or the request body for a new token pair. A refresh token can be redeemed once.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Rotate tokens",
                "parameters": [
                    {
                        "description": "Refresh token, when not sent as a cookie",
                        "name": "body",
                        "in": "body",
                        "schema": {"$ref": "#/definitions/model.RefreshRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.LoginResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/common.AppError"}}
                }
            },
            "post": {
                "description": "Redeems the refresh token from the refreshToken cookie or the request body for a new token pair. A refresh token can be redeemed once.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Rotate tokens",
                "parameters": [
                    {
                        "description": "Refresh token, when not sent as a cookie",
                        "name": "body",
                        "in": "body",
                        "schema": {"$ref": "#/definitions/model.RefreshRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.LoginResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/common.AppError"}}
                }
            }
        },
        "/api/v1/users/register": {
            "post": {
                "description": "Creates an account from a multipart form. The avatar file is required, the cover image is optional.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Register a new user",
                "parameters": [
                    {"type": "string", "description": "Full name", "name": "fullname", "in": "formData", "required": true},
                    {"type": "string", "description": "Email", "name": "email", "in": "formData", "required": true},
                    {"type": "string", "description": "Username", "name": "username", "in": "formData", "required": true},
                    {"type": "string", "description": "Password", "name": "password", "in": "formData", "required": true},
                    {"type": "file", "description": "Avatar image", "name": "avatar", "in": "formData", "required": true},
                    {"type": "file", "description": "Cover image", "name": "coverImage", "in": "formData"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.PublicUser"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/common.AppError"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/common.AppError"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/common.AppError"}}
                }
            }
        },
        "/health": {
            "get": {
                "description": "get the status of server",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Show the status of server",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "common.AppError": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "details": {"type": "object", "additionalProperties": {"type": "string"}},
                "message": {"type": "string"}
            }
        },
        "handler.MessageResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"}
            }
        },
        "model.ChangePasswordRequest": {
            "type": "object",
            "required": ["currentPassword", "newPassword"],
            "properties": {
                "confirmNewPassword": {"type": "string"},
                "currentPassword": {"type": "string"},
                "newPassword": {"type": "string", "minLength": 8}
            }
        },
        "model.ChannelProfile": {
            "type": "object",
            "properties": {
                "avatar": {"type": "string"},
                "coverImage": {"type": "string"},
                "email": {"type": "string"},
                "fullname": {"type": "string"},
                "id": {"type": "string"},
                "isSubscribed": {"type": "boolean"},
                "subscribedToCount": {"type": "integer"},
                "subscribersCount": {"type": "integer"},
                "username": {"type": "string"}
            }
        },
        "model.LoginRequest": {
            "type": "object",
            "required": ["password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "username": {"type": "string"},
                "usernameOrEmail": {"type": "string"}
            }
        },
        "model.LoginResponse": {
            "type": "object",
            "properties": {
                "accessToken": {"type": "string"},
                "refreshToken": {"type": "string"},
                "user": {"$ref": "#/definitions/model.PublicUser"}
            }
        },
        "model.OwnerSummary": {
            "type": "object",
            "properties": {
                "avatar": {"type": "string"},
                "fullname": {"type": "string"},
                "id": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "model.PublicUser": {
            "type": "object",
            "properties": {
                "avatar": {"type": "string"},
                "coverImage": {"type": "string"},
                "createdAt": {"type": "string"},
                "email": {"type": "string"},
                "fullname": {"type": "string"},
                "id": {"type": "string"},
                "updatedAt": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "model.RefreshRequest": {
            "type": "object",
            "properties": {
                "refreshToken": {"type": "string"}
            }
        },
        "model.WatchHistoryEntry": {
            "type": "object",
            "properties": {
                "description": {"type": "string"},
                "duration": {"type": "number"},
                "id": {"type": "string"},
                "owner": {"$ref": "#/definitions/model.OwnerSummary"},
                "thumbnail": {"type": "string"},
                "title": {"type": "string"},
                "videoFile": {"type": "string"},
                "views": {"type": "integer"}
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
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "VidTube API",
	Description:      "Accounts, sessions and channel views of the VidTube video platform.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
