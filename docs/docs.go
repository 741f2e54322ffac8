// Package docs registers the OpenAPI description served under /swagger/.
// Regenerate with: swag init -g cmd/server/main.go
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
        "/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["posts"],
                "summary": "List posts",
                "parameters": [
                    {"type": "string", "description": "Substring to search for in post text", "name": "search", "in": "query"},
                    {"type": "integer", "description": "1-based page number", "name": "page", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/group/{slug}/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["posts"],
                "summary": "List a group's posts",
                "parameters": [
                    {"type": "string", "description": "Group slug", "name": "slug", "in": "path", "required": true},
                    {"type": "integer", "description": "1-based page number", "name": "page", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}
            }
        },
        "/profile/{username}/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["posts"],
                "summary": "A user's posts",
                "parameters": [
                    {"type": "string", "description": "Username", "name": "username", "in": "path", "required": true},
                    {"type": "integer", "description": "1-based page number", "name": "page", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}
            }
        },
        "/profile/{username}/follow/": {
            "post": {
                "tags": ["follows"],
                "summary": "Follow an author",
                "parameters": [{"type": "string", "description": "Username", "name": "username", "in": "path", "required": true}],
                "responses": {"302": {"description": "Redirect to the profile"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}
            }
        },
        "/profile/{username}/unfollow/": {
            "post": {
                "tags": ["follows"],
                "summary": "Unfollow an author",
                "parameters": [{"type": "string", "description": "Username", "name": "username", "in": "path", "required": true}],
                "responses": {"302": {"description": "Redirect to the profile"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}
            }
        },
        "/follow/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["follows"],
                "summary": "Follow feed",
                "parameters": [{"type": "integer", "description": "1-based page number", "name": "page", "in": "query"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/posts/{id}/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["posts"],
                "summary": "Post detail",
                "parameters": [{"type": "integer", "description": "Post ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}
            }
        },
        "/create/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["posts"],
                "summary": "New post form",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "consumes": ["multipart/form-data", "application/x-www-form-urlencoded", "application/json"],
                "tags": ["posts"],
                "summary": "Create a post",
                "parameters": [
                    {"type": "string", "description": "Post text", "name": "text", "in": "formData", "required": true},
                    {"type": "integer", "description": "Group ID", "name": "group", "in": "formData"},
                    {"type": "file", "description": "Optional image", "name": "image", "in": "formData"}
                ],
                "responses": {"302": {"description": "Redirect to the author's profile"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}
            }
        },
        "/posts/{id}/edit/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["posts"],
                "summary": "Edit post form",
                "parameters": [{"type": "integer", "description": "Post ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "302": {"description": "Non-authors are sent back to the post"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}
            },
            "post": {
                "consumes": ["multipart/form-data", "application/x-www-form-urlencoded", "application/json"],
                "tags": ["posts"],
                "summary": "Edit a post",
                "parameters": [
                    {"type": "integer", "description": "Post ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Post text", "name": "text", "in": "formData", "required": true},
                    {"type": "integer", "description": "Group ID", "name": "group", "in": "formData"},
                    {"type": "file", "description": "Replacement image", "name": "image", "in": "formData"}
                ],
                "responses": {"302": {"description": "Redirect to the post"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}
            }
        },
        "/posts/delete/{id}": {
            "post": {
                "tags": ["posts"],
                "summary": "Delete a post",
                "parameters": [{"type": "integer", "description": "Post ID", "name": "id", "in": "path", "required": true}],
                "responses": {"302": {"description": "Redirect to the author's profile, or to the index for non-authors"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}
            }
        },
        "/posts/like/{id}/": {
            "post": {
                "tags": ["posts"],
                "summary": "Toggle a like on a post",
                "parameters": [{"type": "integer", "description": "Post ID", "name": "id", "in": "path", "required": true}],
                "responses": {"302": {"description": "Redirect to the post"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}
            }
        },
        "/posts/like_comment/{id}/": {
            "post": {
                "tags": ["comments"],
                "summary": "Toggle a like on a comment",
                "parameters": [{"type": "integer", "description": "Comment ID", "name": "id", "in": "path", "required": true}],
                "responses": {"302": {"description": "Redirect to the comment's post"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}
            }
        },
        "/posts/{id}/comment/": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded", "application/json"],
                "tags": ["comments"],
                "summary": "Comment on a post",
                "parameters": [
                    {"type": "integer", "description": "Post ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Comment text", "name": "text", "in": "formData", "required": true}
                ],
                "responses": {"302": {"description": "Redirect to the post"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}
            }
        },
        "/users/{id}/edit/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Profile edit form",
                "parameters": [{"type": "integer", "description": "User ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}
            },
            "post": {
                "consumes": ["application/x-www-form-urlencoded", "application/json"],
                "tags": ["users"],
                "summary": "Update the profile",
                "parameters": [
                    {"type": "integer", "description": "User ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "First name", "name": "first_name", "in": "formData"},
                    {"type": "string", "description": "Last name", "name": "last_name", "in": "formData"},
                    {"type": "string", "description": "Email", "name": "email", "in": "formData", "required": true},
                    {"type": "string", "description": "Bio", "name": "bio", "in": "formData"},
                    {"type": "string", "description": "Avatar URL", "name": "avatar", "in": "formData"}
                ],
                "responses": {"302": {"description": "Redirect back to the form"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}
            }
        },
        "/auth/signup/": {
            "get": {"produces": ["application/json"], "tags": ["auth"], "summary": "Signup form", "responses": {"200": {"description": "OK"}}},
            "post": {
                "consumes": ["application/x-www-form-urlencoded", "application/json"],
                "tags": ["auth"],
                "summary": "User signup",
                "parameters": [
                    {"type": "string", "description": "Username", "name": "username", "in": "formData", "required": true},
                    {"type": "string", "description": "Email", "name": "email", "in": "formData", "required": true},
                    {"type": "string", "description": "Password", "name": "password", "in": "formData", "required": true}
                ],
                "responses": {"302": {"description": "Redirect to the index with the session cookie set"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}
            }
        },
        "/auth/login/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login form",
                "parameters": [{"type": "string", "description": "Local path to return to", "name": "next", "in": "query"}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "consumes": ["application/x-www-form-urlencoded", "application/json"],
                "tags": ["auth"],
                "summary": "User login",
                "parameters": [
                    {"type": "string", "description": "Username", "name": "username", "in": "formData", "required": true},
                    {"type": "string", "description": "Password", "name": "password", "in": "formData", "required": true},
                    {"type": "string", "description": "Local path to return to", "name": "next", "in": "formData"}
                ],
                "responses": {"302": {"description": "Redirect to next with the session cookie set"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}
            }
        },
        "/auth/logout/": {
            "post": {"tags": ["auth"], "summary": "Logout", "responses": {"302": {"description": "Redirect to the index"}}}
        },
        "/ws": {
            "get": {
                "tags": ["notifications"],
                "summary": "Notification stream",
                "responses": {"101": {"description": "Switching protocols"}, "426": {"description": "Upgrade Required", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}
            }
        }
    },
    "definitions": {
        "models.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "details": {"type": "string"},
                "error": {"type": "string"},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Scribble API",
	Description:      "Posts, groups, comments, likes and follows.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
