package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Timetable API",
        "description": "Study timetable conflict detection, analysis and generation",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Timetable", "description": "Conflict checks, analysis, alternatives and generation"},
        {"name": "Observability", "description": "Health and metrics"}
    ],
    "paths": {
        "/timetable/conflicts": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Detect overlapping sessions in a selection",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CheckConflictsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown course or slot", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/analyze": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Report per-day load, gaps and suggestions",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SlotList"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/alternatives": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Suggest other units of a course ranked by fit",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SuggestAlternativesRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown course", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/generate": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Generate a semester timetable for a study plan",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown study plan", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/export": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Download chosen sessions as CSV or PDF",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "required": true, "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SlotList"}}
                ],
                "responses": {
                    "200": {"description": "Rendered document"},
                    "501": {"description": "Export disabled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics/summary": {
            "get": {
                "tags": ["Observability"],
                "summary": "Aggregated request and generation counters",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "TimetableSlot": {
            "type": "object",
            "properties": {
                "course_id": {"type": "integer"},
                "course_ident": {"type": "string"},
                "unit_id": {"type": "integer"},
                "unit_type": {"type": "string", "enum": ["lecture", "exercise", "seminar"]},
                "slot_id": {"type": "integer"},
                "day": {"type": "string", "enum": ["monday", "tuesday", "wednesday", "thursday", "friday"]},
                "time_from": {"type": "integer", "description": "minutes after midnight"},
                "time_to": {"type": "integer", "description": "minutes after midnight"},
                "location": {"type": "string"},
                "lecturer": {"type": "string"}
            },
            "required": ["course_id", "unit_id", "slot_id", "day", "time_from", "time_to"]
        },
        "SlotList": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "slots": {"type": "array", "items": {"$ref": "#/definitions/TimetableSlot"}}
            }
        },
        "SlotSelection": {
            "type": "object",
            "properties": {
                "course_id": {"type": "integer"},
                "slot_id": {"type": "integer"}
            },
            "required": ["course_id", "slot_id"]
        },
        "CheckConflictsRequest": {
            "type": "object",
            "properties": {
                "selections": {"type": "array", "items": {"$ref": "#/definitions/SlotSelection"}}
            },
            "required": ["selections"]
        },
        "SuggestAlternativesRequest": {
            "type": "object",
            "properties": {
                "course_id": {"type": "integer"},
                "current_slots": {"type": "array", "items": {"$ref": "#/definitions/TimetableSlot"}},
                "limit": {"type": "integer"}
            },
            "required": ["course_id"]
        },
        "GenerateTimetableRequest": {
            "type": "object",
            "properties": {
                "study_plan_id": {"type": "integer"},
                "semester": {"type": "string", "enum": ["winter", "summer"]},
                "year": {"type": "integer"},
                "preferred_days": {"type": "array", "items": {"type": "string"}},
                "preferred_time_from": {"type": "integer"},
                "preferred_time_to": {"type": "integer"},
                "max_ects": {"type": "integer"},
                "include_electives": {"type": "boolean"}
            },
            "required": ["study_plan_id", "semester", "year"]
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
