// Package docs registers the swagger document of the sensor hub API.
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
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/health": {
            "get": {"tags": ["ops"], "summary": "Health check", "responses": {"200": {"description": "OK"}, "503": {"description": "Database unavailable"}}}
        },
        "/metrics": {
            "get": {"tags": ["ops"], "summary": "Counter snapshot", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/sensors/": {
            "get": {
                "tags": ["sensors"], "summary": "List sensors", "security": [{"BearerAuth": []}],
                "parameters": [
                    {"type": "string", "name": "search", "in": "query"},
                    {"type": "string", "name": "ordering", "in": "query"},
                    {"type": "integer", "name": "offset", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}}}
            },
            "post": {
                "tags": ["sensors"], "summary": "Create a new sensor", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "sensor", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.Sensor"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Sensor"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}}}
            }
        },
        "/sensors/{id}/": {
            "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
            "get": {"tags": ["sensors"], "summary": "Get a sensor by ID", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Sensor"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.APIError"}}}},
            "put": {"tags": ["sensors"], "summary": "Replace a sensor", "security": [{"BearerAuth": []}], "parameters": [{"name": "sensor", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.Sensor"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Sensor"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.APIError"}}}},
            "patch": {"tags": ["sensors"], "summary": "Partially update a sensor", "security": [{"BearerAuth": []}], "parameters": [{"name": "sensor", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.Sensor"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Sensor"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.APIError"}}}},
            "delete": {"tags": ["sensors"], "summary": "Delete a sensor and its events", "security": [{"BearerAuth": []}], "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.APIError"}}}}
        },
        "/sensors/{id}/events/": {
            "get": {
                "tags": ["sensors"], "summary": "List the events of a sensor", "security": [{"BearerAuth": []}],
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "name": "offset", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.APIError"}}}
            }
        },
        "/events/": {
            "get": {
                "tags": ["events"], "summary": "List events", "security": [{"BearerAuth": []}],
                "parameters": [
                    {"type": "integer", "name": "sensor_id", "in": "query"},
                    {"type": "number", "name": "temperature_min", "in": "query"},
                    {"type": "number", "name": "temperature_max", "in": "query"},
                    {"type": "number", "name": "humidity_min", "in": "query"},
                    {"type": "number", "name": "humidity_max", "in": "query"},
                    {"type": "string", "name": "ordering", "in": "query"},
                    {"type": "integer", "name": "offset", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}}}
            },
            "post": {
                "tags": ["events"], "summary": "Create an event", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "event", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.Event"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Event"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}}}
            }
        },
        "/events/{id}/": {
            "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
            "get": {"tags": ["events"], "summary": "Get an event by ID", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Event"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.APIError"}}}},
            "put": {"tags": ["events"], "summary": "Replace an event", "security": [{"BearerAuth": []}], "parameters": [{"name": "event", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.Event"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Event"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.APIError"}}}},
            "patch": {"tags": ["events"], "summary": "Partially update an event", "security": [{"BearerAuth": []}], "parameters": [{"name": "event", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.Event"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Event"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.APIError"}}}},
            "delete": {"tags": ["events"], "summary": "Delete an event", "security": [{"BearerAuth": []}], "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.APIError"}}}}
        },
        "/load-events/": {
            "post": {
                "tags": ["events"], "summary": "Bulk load events", "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [{"type": "file", "name": "json_file", "in": "formData", "required": true}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ingest.Report"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ingest.Report"}},
                    "500": {"description": "Internal Server Error"}
                }
            }
        }
    },
    "definitions": {
        "errors.APIError": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "message": {"type": "string"},
                "code": {"type": "integer"},
                "request_id": {"type": "string"},
                "details": {"type": "object"}
            }
        },
        "models.Sensor": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string", "maxLength": 500},
                "sensor_type": {"type": "integer", "enum": [1, 2, 3]},
                "created_at": {"type": "string", "format": "date-time"}
            }
        },
        "models.Event": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "sensor": {"type": "integer"},
                "name": {"type": "string", "maxLength": 255},
                "temperature": {"type": "number", "minimum": -200, "maximum": 200},
                "humidity": {"type": "number", "minimum": 0, "maximum": 100},
                "created_at": {"type": "string", "format": "date-time"}
            }
        },
        "ingest.Report": {
            "type": "object",
            "properties": {
                "total_input": {"type": "integer"},
                "valid_events": {"type": "integer"},
                "created": {"type": "integer"},
                "skipped_events_to_missing_sensor": {"type": "integer"},
                "parse_errors": {"type": "integer"},
                "error_details": {"type": "array", "items": {"type": "string"}}
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
	Title:            "Sensor Hub API",
	Description:      "Sensors, their events and bulk event ingestion.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
