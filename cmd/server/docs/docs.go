// Package docs registers the OpenAPI document served under /swagger.
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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Service health",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.HealthResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.HealthResponse"}}
                }
            }
        },
        "/api/v1/dimensions": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Active value dimensions",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ListResponse"}}
                }
            }
        },
        "/api/v1/dimensions/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Answer statistics per dimension",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ListResponse"}}
                }
            }
        },
        "/api/v1/questions/{key}/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Answer statistics of one question",
                "parameters": [
                    {"type": "string", "description": "Question key", "name": "key", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/database.QuestionStats"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.AppError"}}
                }
            }
        },
        "/api/v1/actors/{actor}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Actor with its portrait and recent interventions",
                "parameters": [
                    {"type": "string", "description": "Actor id", "name": "actor", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/compass.ActorDetail"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.AppError"}}
                }
            }
        },
        "/api/v1/questions": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Questions asked in a country",
                "parameters": [
                    {"type": "string", "description": "Country filter; universal questions are always included", "name": "country", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ListResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.AppError"}}
                }
            }
        },
        "/api/v1/actors": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Active political actors",
                "parameters": [
                    {"type": "string", "description": "Country filter", "name": "country", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ListResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.AppError"}}
                }
            }
        },
        "/api/v1/normalize": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["scoring"],
                "summary": "Normalize one raw answer",
                "parameters": [
                    {"description": "Answer", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.NormalizeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.NormalizeResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.AppError"}}
                }
            }
        },
        "/api/v1/alignment/dimension": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["scoring"],
                "summary": "Alignment of two positions on one dimension",
                "parameters": [
                    {"description": "Positions in [-100,100]", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.DimensionAlignmentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.DimensionAlignmentResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.AppError"}}
                }
            }
        },
        "/api/v1/portraits/preview": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["portraits"],
                "summary": "Portrait of an unsaved answer sheet",
                "parameters": [
                    {"description": "Answer sheet", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.PreviewRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.PreviewResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.AppError"}}
                }
            }
        },
        "/api/v1/subjects/{id}": {
            "delete": {
                "tags": ["subjects"],
                "summary": "Delete every answer and the portrait of a subject",
                "parameters": [
                    {"type": "string", "description": "Subject id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.AppError"}}
                }
            }
        },
        "/api/v1/subjects/{id}/answers": {
            "post": {
                "description": "Stores the answers and returns the rebuilt portrait. A question can be answered once per subject.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["subjects"],
                "summary": "Submit answers for a subject",
                "parameters": [
                    {"type": "string", "description": "Subject id", "name": "id", "in": "path", "required": true},
                    {"description": "Answers", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.SubmitAnswersRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.PortraitResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.AppError"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/errors.AppError"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/errors.AppError"}}
                }
            }
        },
        "/api/v1/subjects/{id}/portrait": {
            "get": {
                "produces": ["application/json"],
                "tags": ["subjects"],
                "summary": "Stored portrait of a subject",
                "parameters": [
                    {"type": "string", "description": "Subject id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.PortraitResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.AppError"}}
                }
            }
        },
        "/api/v1/subjects/{id}/actors/{actor}/alignment": {
            "get": {
                "produces": ["application/json"],
                "tags": ["alignment"],
                "summary": "Compare a subject with an actor",
                "parameters": [
                    {"type": "string", "description": "Subject id", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Actor id", "name": "actor", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/compass.Alignment"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.AppError"}}
                }
            }
        },
        "/api/v1/subjects/{id}/rankings": {
            "get": {
                "produces": ["application/json"],
                "tags": ["alignment"],
                "summary": "Actors ranked by alignment with a subject",
                "parameters": [
                    {"type": "string", "description": "Subject id", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "default": 10, "description": "Maximum rows (1-100)", "name": "limit", "in": "query"},
                    {"type": "string", "description": "Country filter", "name": "country", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ListResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.AppError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.AppError"}}
                }
            }
        }
    },
    "definitions": {
        "errors.AppError": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "VALIDATION_ERROR"},
                "message": {"type": "string"},
                "category": {"type": "string", "example": "validation"},
                "http_status": {"type": "integer", "example": 400},
                "timestamp": {"type": "string"},
                "request_id": {"type": "string"}
            }
        },
        "types.ListResponse": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"type": "object"}},
                "total": {"type": "integer"}
            }
        },
        "types.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "ok"},
                "version": {"type": "string", "example": "1.0.0"},
                "timestamp": {"type": "string"},
                "database": {"type": "object"},
                "cache": {"type": "object"},
                "rate_limit": {"type": "object"},
                "metrics": {"type": "object"},
                "compression": {"type": "object"},
                "privacy": {"type": "object"}
            }
        },
        "types.NormalizeRequest": {
            "type": "object",
            "required": ["kind"],
            "properties": {
                "kind": {"type": "string", "enum": ["direct_value", "tradeoff_slider", "policy_preference", "dilemma"]},
                "value": {"type": "string", "example": "4"}
            }
        },
        "types.NormalizeResponse": {
            "type": "object",
            "properties": {
                "kind": {"type": "string"},
                "normalized": {"type": "number", "example": 50}
            }
        },
        "types.DimensionAlignmentRequest": {
            "type": "object",
            "required": ["user_position", "other_position"],
            "properties": {
                "user_position": {"type": "number", "example": 40},
                "other_position": {"type": "number", "example": -20}
            }
        },
        "types.DimensionAlignmentResponse": {
            "type": "object",
            "properties": {
                "alignment": {"type": "integer", "example": 70},
                "label": {"type": "string", "example": "Moderate Alignment"},
                "color": {"type": "string", "example": "blue"}
            }
        },
        "compass.Answer": {
            "type": "object",
            "properties": {
                "question_key": {"type": "string"},
                "kind": {"type": "string"},
                "value": {"type": "string"}
            }
        },
        "types.PreviewRequest": {
            "type": "object",
            "properties": {
                "country": {"type": "string", "example": "United States"},
                "answers": {"type": "array", "items": {"$ref": "#/definitions/compass.Answer"}},
                "skipped": {"type": "array", "items": {"type": "string"}}
            }
        },
        "types.SubmitAnswersRequest": {
            "type": "object",
            "required": ["answers"],
            "properties": {
                "country": {"type": "string", "example": "United States"},
                "answers": {"type": "array", "items": {"$ref": "#/definitions/compass.Answer"}}
            }
        },
        "types.PortraitEntryView": {
            "type": "object",
            "properties": {
                "dimension": {"type": "string"},
                "position": {"type": "number"},
                "intensity": {"type": "number"},
                "confidence": {"type": "number"},
                "position_only": {"type": "boolean"},
                "label": {"type": "string"},
                "lean": {"type": "string"},
                "strength": {"type": "string"},
                "high_confidence": {"type": "boolean"},
                "low_confidence": {"type": "boolean"}
            }
        },
        "types.PortraitResponse": {
            "type": "object",
            "properties": {
                "subject_id": {"type": "string"},
                "entries": {"type": "array", "items": {"$ref": "#/definitions/types.PortraitEntryView"}}
            }
        },
        "types.PreviewResponse": {
            "type": "object",
            "properties": {
                "subject_id": {"type": "string"},
                "entries": {"type": "array", "items": {"$ref": "#/definitions/types.PortraitEntryView"}},
                "answered": {"type": "integer"},
                "skipped": {"type": "integer"},
                "total": {"type": "integer"},
                "progress": {"type": "integer"}
            }
        },
        "database.QuestionStats": {
            "type": "object",
            "properties": {
                "key": {"type": "string"},
                "dimension": {"type": "string"},
                "kind": {"type": "string"},
                "answer_count": {"type": "integer"},
                "average_answer_value": {"type": "number"}
            }
        },
        "database.Intervention": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["tweet", "video", "declaration", "speech", "article", "interview"]},
                "platform": {"type": "string", "example": "twitter"},
                "content": {"type": "string"},
                "published_at": {"type": "string"},
                "source_url": {"type": "string"}
            }
        },
        "compass.ActorDetail": {
            "type": "object",
            "properties": {
                "actor": {"type": "object"},
                "source": {"type": "string", "enum": ["structured", "value_positions", "none"]},
                "portrait": {"type": "object"},
                "interventions": {"type": "array", "items": {"$ref": "#/definitions/database.Intervention"}}
            }
        },
        "compass.Alignment": {
            "type": "object",
            "properties": {
                "actor": {"type": "object"},
                "source": {"type": "string", "enum": ["structured", "value_positions", "none"]},
                "comparison": {"type": "object"}
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
	Title:            "Value Compass API",
	Description:      "Scores political value questionnaires and compares the resulting portraits with political actors.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
