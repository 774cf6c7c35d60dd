package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Timetable API",
        "description": "Generates, edits and publishes school-wide weekly timetables.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Timetables", "description": "Generation, draft editing and saved versions"},
        {"name": "Generation Jobs", "description": "Asynchronous timetable generation"},
        {"name": "Ops", "description": "Health, readiness and metrics"}
    ],
    "paths": {
        "/timetables": {
            "get": {
                "tags": ["Timetables"],
                "summary": "List saved timetable versions of a term",
                "parameters": [
                    {"name": "termId", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/{id}": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Get a saved timetable with its lessons",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Timetables"],
                "summary": "Delete a draft version",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "409": {"description": "Published or archived versions cannot be deleted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/{id}/drafts": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Open a saved timetable as an editable draft",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Catalog no longer matches the saved lessons", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/drafts": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Generate a school-wide timetable draft",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "504": {"description": "Generation timed out", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/drafts/{draftId}": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Get a draft",
                "parameters": [
                    {"name": "draftId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Draft not found or expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Timetables"],
                "summary": "Discard a draft",
                "parameters": [
                    {"name": "draftId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Discarded"}
                }
            }
        },
        "/timetables/drafts/{draftId}/can-place": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Check whether a teacher, class or room is free at a slot",
                "parameters": [
                    {"name": "draftId", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CanPlaceRequest"}}
                ],
                "responses": {
                    "200": {"description": "Verdict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/drafts/{draftId}/placeable-subjects": {
            "get": {
                "tags": ["Timetables"],
                "summary": "List subjects a class could take at a slot",
                "parameters": [
                    {"name": "draftId", "in": "path", "type": "string", "required": true},
                    {"name": "classId", "in": "query", "type": "string", "required": true},
                    {"name": "day", "in": "query", "type": "string", "required": true},
                    {"name": "start", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/drafts/{draftId}/lessons": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Add a lesson to a draft",
                "parameters": [
                    {"name": "draftId", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddLessonRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Scheduling conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Outside the grid", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/drafts/{draftId}/lessons/{lessonId}": {
            "delete": {
                "tags": ["Timetables"],
                "summary": "Delete a lesson from a draft",
                "parameters": [
                    {"name": "draftId", "in": "path", "type": "string", "required": true},
                    {"name": "lessonId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Lesson not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/drafts/{draftId}/lessons/{lessonId}/move": {
            "patch": {
                "tags": ["Timetables"],
                "summary": "Move a lesson to another slot",
                "parameters": [
                    {"name": "draftId", "in": "path", "type": "string", "required": true},
                    {"name": "lessonId", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MoveLessonRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Scheduling conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/drafts/{draftId}/lessons/{lessonId}/room": {
            "patch": {
                "tags": ["Timetables"],
                "summary": "Change or clear the room of a lesson",
                "parameters": [
                    {"name": "draftId", "in": "path", "type": "string", "required": true},
                    {"name": "lessonId", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChangeRoomRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Room occupied", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/drafts/{draftId}/lessons/{lessonId}/extend": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Extend a lesson by one session",
                "parameters": [
                    {"name": "draftId", "in": "path", "type": "string", "required": true},
                    {"name": "lessonId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Scheduling conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "No further session on that day", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/drafts/{draftId}/save": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Save a draft as a new timetable version",
                "parameters": [
                    {"name": "draftId", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/SaveTimetableRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/generation-jobs": {
            "post": {
                "tags": ["Generation Jobs"],
                "summary": "Queue an asynchronous generation",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/generation-jobs/{id}": {
            "get": {
                "tags": ["Generation Jobs"],
                "summary": "Get generation job status",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/{id}/exports": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Export the week of a class or teacher",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportTimetableRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/exports/{token}": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Download an exported file",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "token", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "403": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "GenerateTimetableRequest": {
            "type": "object",
            "properties": {
                "termId": {"type": "string"},
                "classIds": {"type": "array", "items": {"type": "string"}},
                "days": {"type": "array", "items": {"type": "string"}},
                "referenceClassId": {"type": "string"},
                "strictQuota": {"type": "boolean"},
                "maxBacktracks": {"type": "integer"}
            },
            "required": ["termId"]
        },
        "CanPlaceRequest": {
            "type": "object",
            "properties": {
                "day": {"type": "string"},
                "start": {"type": "string"},
                "end": {"type": "string"},
                "teacherId": {"type": "string"},
                "classId": {"type": "string"},
                "roomId": {"type": "string"},
                "ignoreLessonId": {"type": "string"}
            },
            "required": ["day", "start"]
        },
        "AddLessonRequest": {
            "type": "object",
            "properties": {
                "subjectId": {"type": "string"},
                "classId": {"type": "string"},
                "day": {"type": "string"},
                "start": {"type": "string"}
            },
            "required": ["subjectId", "classId", "day", "start"]
        },
        "MoveLessonRequest": {
            "type": "object",
            "properties": {
                "day": {"type": "string"},
                "start": {"type": "string"}
            },
            "required": ["day", "start"]
        },
        "ChangeRoomRequest": {
            "type": "object",
            "properties": {
                "roomId": {"type": "string"}
            }
        },
        "SaveTimetableRequest": {
            "type": "object",
            "properties": {
                "publish": {"type": "boolean"},
                "note": {"type": "string"}
            }
        },
        "ExportTimetableRequest": {
            "type": "object",
            "properties": {
                "format": {"type": "string", "enum": ["csv", "pdf"]},
                "classId": {"type": "string"},
                "teacherId": {"type": "string"}
            },
            "required": ["format"]
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
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
