package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Timetable API",
        "description": "Weekly timetable generation for sections, faculty and rooms.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Timetable", "description": "Generation, listing, locking and export of timetable entries"},
        {"name": "Catalog", "description": "Read-only scheduling inputs and dashboard counts"}
    ],
    "paths": {
        "/generate-timetable": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Generate the weekly timetable",
                "description": "generate requires that no unlocked entries exist; regenerate replaces unlocked entries and keeps locked ones. Configuration problems return success=false with HTTP 200.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/GenerateTimetableEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Another generation is running", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Unlocked entries exist, use regenerate", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/generate-timetable/jobs": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Queue a background timetable generation",
                "parameters": [
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/GenerationJobEnvelope"}},
                    "409": {"description": "Queue full", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/generate-timetable/jobs/{id}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Get a background generation job",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/GenerationJobEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable": {
            "get": {
                "tags": ["Timetable"],
                "summary": "List timetable entries",
                "parameters": [
                    {"name": "section_id", "in": "query", "type": "string"},
                    {"name": "faculty_id", "in": "query", "type": "string"},
                    {"name": "room_id", "in": "query", "type": "string"},
                    {"name": "day_of_week", "in": "query", "type": "integer", "minimum": 1, "maximum": 5},
                    {"name": "locked", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/{id}/toggle-lock": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Lock or unlock a timetable entry",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/ToggleLockRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/conflicts": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Audit persisted entries for double bookings and broken lab spans",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/export": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Download the timetable as CSV or PDF",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "section_id", "in": "query", "type": "string"},
                    {"name": "faculty_id", "in": "query", "type": "string"},
                    {"name": "room_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}}
                }
            }
        },
        "/sections": {
            "get": {"tags": ["Catalog"], "summary": "List sections", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/faculty": {
            "get": {"tags": ["Catalog"], "summary": "List faculty", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/subjects": {
            "get": {"tags": ["Catalog"], "summary": "List subjects", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/rooms": {
            "get": {"tags": ["Catalog"], "summary": "List rooms", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/time-slots": {
            "get": {"tags": ["Catalog"], "summary": "List the daily time slots", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/stats": {
            "get": {"tags": ["Catalog"], "summary": "Dashboard counts and generation metrics", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        }
    },
    "definitions": {
        "GenerateTimetableRequest": {
            "type": "object",
            "properties": {
                "action": {"type": "string", "enum": ["generate", "regenerate"]},
                "seed": {"type": "integer", "format": "int64"}
            }
        },
        "ToggleLockRequest": {
            "type": "object",
            "properties": {
                "is_locked": {"type": "boolean"}
            }
        },
        "ShortfallSummary": {
            "type": "object",
            "properties": {
                "section_id": {"type": "string"},
                "subject_id": {"type": "string"},
                "subject_code": {"type": "string"},
                "faculty_id": {"type": "string"},
                "session_type": {"type": "string"},
                "required": {"type": "integer"},
                "placed": {"type": "integer"}
            }
        },
        "GenerateTimetableResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "entries_count": {"type": "integer"},
                "deleted_count": {"type": "integer"},
                "locked_count": {"type": "integer"},
                "score": {"type": "integer"},
                "score_breakdown": {"type": "object"},
                "shortfalls": {"type": "array", "items": {"$ref": "#/definitions/ShortfallSummary"}},
                "skipped": {"type": "array", "items": {"type": "object"}},
                "locked_collisions": {"type": "array", "items": {"$ref": "#/definitions/LockedCollision"}}
            }
        },
        "LockedCollision": {
            "type": "object",
            "properties": {
                "entry_id": {"type": "string"},
                "resource": {"type": "string", "enum": ["FACULTY", "SECTION", "ROOM"]},
                "resource_id": {"type": "string"},
                "cell": {"type": "object", "properties": {"day": {"type": "integer"}, "slot": {"type": "integer"}}}
            }
        },
        "GenerationJob": {
            "type": "object",
            "properties": {
                "job_id": {"type": "string"},
                "action": {"type": "string"},
                "status": {"type": "string", "enum": ["queued", "running", "succeeded", "failed"]},
                "attempts": {"type": "integer"},
                "error": {"type": "string"},
                "result": {"$ref": "#/definitions/GenerateTimetableResponse"},
                "enqueued_at": {"type": "string", "format": "date-time"},
                "started_at": {"type": "string", "format": "date-time"},
                "finished_at": {"type": "string", "format": "date-time"}
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
                "meta": {"type": "object"}
            }
        },
        "GenerateTimetableEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/GenerateTimetableResponse"}
            }
        },
        "GenerationJobEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/GenerationJob"}
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
