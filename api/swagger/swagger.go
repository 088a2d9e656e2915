package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "TripSync API",
        "description": "Event coordination backend: trips, shared schedules and live attendance",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Auth", "description": "Accounts and sessions"},
        {"name": "Users", "description": "Profile management"},
        {"name": "Events", "description": "Trips and events"},
        {"name": "Attendance", "description": "Travel plan submissions"},
        {"name": "Schedule", "description": "Day-by-day schedule and exports"}
    ],
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["Auth"],
                "summary": "Create an account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Account created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed or weak password"},
                    "409": {"description": "Email already registered"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate with email and password",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Token pair issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Rotate a refresh token",
                "responses": {
                    "200": {"description": "New token pair"},
                    "401": {"description": "Token expired or revoked"}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "Revoke all sessions",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "Sessions revoked"}
                }
            }
        },
        "/auth/change-password": {
            "post": {
                "tags": ["Auth"],
                "summary": "Change password",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "Password changed"},
                    "400": {"description": "New password does not meet requirements"}
                }
            }
        },
        "/users/me": {
            "get": {
                "tags": ["Users"],
                "summary": "Current user's profile",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Profile", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "patch": {
                "tags": ["Users"],
                "summary": "Update profile",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Updated profile"}
                }
            }
        },
        "/events": {
            "get": {
                "tags": ["Events"],
                "summary": "List events the user owns or participates in",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Events", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Events"],
                "summary": "Create an event",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Event created"}
                }
            }
        },
        "/events/{id}": {
            "get": {
                "tags": ["Events"],
                "summary": "View an event through the share link",
                "description": "Anonymous viewers receive a public summary only",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Event or public summary, view mode in meta"},
                    "404": {"description": "Event not found"}
                }
            },
            "patch": {
                "tags": ["Events"],
                "summary": "Update an event (owner only)",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Updated event"},
                    "403": {"description": "Not the owner"}
                }
            },
            "delete": {
                "tags": ["Events"],
                "summary": "Delete an event (owner only)",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "Event deleted"},
                    "403": {"description": "Not the owner"}
                }
            }
        },
        "/events/{id}/calendar.ics": {
            "get": {
                "tags": ["Events"],
                "summary": "Download the event as an iCalendar file",
                "security": [{"BearerAuth": []}],
                "produces": ["text/calendar"],
                "responses": {
                    "200": {"description": "iCalendar document"}
                }
            }
        },
        "/events/{id}/attendance": {
            "put": {
                "tags": ["Attendance"],
                "summary": "Submit or replace the caller's travel plan",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Travel plan saved"},
                    "400": {"description": "Malformed instants or out-of-range dates"},
                    "409": {"description": "Submissions closed"}
                }
            },
            "get": {
                "tags": ["Attendance"],
                "summary": "List every travel plan for the event",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Attendance entries with display names"}
                }
            },
            "delete": {
                "tags": ["Attendance"],
                "summary": "Withdraw the caller's travel plan",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "Plan withdrawn"}
                }
            }
        },
        "/events/{id}/attendance/me": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Fetch the caller's own travel plan",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Travel plan"},
                    "404": {"description": "No plan submitted"}
                }
            }
        },
        "/events/{id}/attendance/stream": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Live attendance snapshots over server-sent events",
                "security": [{"BearerAuth": []}],
                "produces": ["text/event-stream"],
                "responses": {
                    "200": {"description": "SSE stream of attendance snapshots"}
                }
            }
        },
        "/events/{id}/schedule": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Day-by-day arrival and departure schedule",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Day buckets covering the event span plus travel days"}
                }
            }
        },
        "/events/{id}/schedule/export": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Download the schedule as CSV or PDF",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Rendered document"}
                }
            }
        }
    },
    "definitions": {
        "RegisterRequest": {
            "type": "object",
            "required": ["email", "password", "first_name"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "first_name": {"type": "string"},
                "last_name": {"type": "string"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
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
