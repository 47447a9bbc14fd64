package httpapi

import (
	"net/http"

	"github.com/Guilhem-Bonnet/radiko-planner/internal/httpjson"
)

// handleOpenAPI renvoie la description OpenAPI de l'API v1.
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	httpjson.Write(w, http.StatusOK, openAPIDocument())
}

func openAPIDocument() map[string]any {
	jsonOK := func(schemaRef string) map[string]any {
		return map[string]any{
			"description": "OK",
			"content": map[string]any{
				"application/json": map[string]any{
					"schema": map[string]any{"$ref": schemaRef},
				},
			},
		}
	}
	jsonBody := func(schemaRef string) map[string]any {
		return map[string]any{
			"required": true,
			"content": map[string]any{
				"application/json": map[string]any{
					"schema": map[string]any{"$ref": schemaRef},
				},
			},
		}
	}
	jsonErr := map[string]any{
		"description": "Error",
		"content": map[string]any{
			"application/json": map[string]any{
				"schema": map[string]any{"$ref": "#/components/schemas/Error"},
			},
		},
	}
	noContent := map[string]any{"description": "No Content"}
	listOf := func(schemaRef string) map[string]any {
		return map[string]any{"type": "array", "items": map[string]any{"$ref": schemaRef}}
	}
	str := map[string]any{"type": "string"}
	dateTime := map[string]any{"type": "string", "format": "date-time"}

	return map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":   "radiko planner API",
			"version": "v1",
		},
		"components": map[string]any{
			"schemas": map[string]any{
				"Error": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"error":   str,
						"code":    str,
						"details": map[string]any{"type": "array", "items": map[string]any{"type": "object"}},
					},
					"required": []any{"error"},
				},
				"Station": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"oid":         str,
						"callSign":    map[string]any{"type": "string", "maxLength": 32},
						"stationName": str,
						"version":     map[string]any{"type": "integer"},
						"createdAt":   dateTime,
						"updatedAt":   dateTime,
					},
					"required": []any{"oid", "callSign"},
				},
				"StationRequest": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"callSign":    str,
						"stationName": str,
					},
				},
				"WeekDay": map[string]any{
					"type": "string",
					"enum": []any{"MON", "TUE", "WED", "THU", "FRI", "SAT", "SUN"},
				},
				"Schedule": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"oid":          str,
						"stationOid":   str,
						"callSign":     str,
						"programName":  str,
						"weekDay":      map[string]any{"$ref": "#/components/schemas/WeekDay"},
						"weekDayLabel": str,
						"startTime":    map[string]any{"type": "string", "example": "01:00:00"},
						"notes":        str,
						"favoRate":     map[string]any{"type": "integer"},
						"programs":     map[string]any{"type": "array", "items": str},
						"version":      map[string]any{"type": "integer"},
						"createdAt":    dateTime,
						"updatedAt":    dateTime,
					},
					"required": []any{"oid", "programName", "weekDay", "startTime"},
				},
				"ScheduleInput": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"stationOid":  str,
						"callSign":    str,
						"programName": str,
						"weekDay":     map[string]any{"$ref": "#/components/schemas/WeekDay"},
						"startTime":   map[string]any{"type": "string", "example": "01:00"},
						"notes":       str,
						"favoRate":    map[string]any{"type": "integer"},
					},
					"required": []any{"programName", "weekDay", "startTime"},
				},
				"Program": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"oid":           str,
						"scheduleOid":   str,
						"stationOid":    str,
						"callSign":      str,
						"stationName":   str,
						"programName":   str,
						"startDatetime": dateTime,
						"note":          str,
						"radikoUrl":     str,
						"deadline":      dateTime,
						"listenStatus":  map[string]any{"type": "string", "enum": []any{"unlistened", "listened", "expired"}},
						"version":       map[string]any{"type": "integer"},
					},
					"required": []any{"oid", "programName", "startDatetime"},
				},
				"ReserveInput": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"callSign":      str,
						"programName":   str,
						"startDatetime": dateTime,
						"note":          str,
					},
					"required": []any{"callSign", "programName", "startDatetime"},
				},
				"StatusRequest": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"listenStatus": map[string]any{"type": "string", "enum": []any{"unlistened", "listened", "expired"}},
					},
					"required": []any{"listenStatus"},
				},
				"PlanResult": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"created": map[string]any{"type": "integer"},
						"expired": map[string]any{"type": "integer"},
					},
				},
				"StationList":  listOf("#/components/schemas/Station"),
				"ScheduleList": listOf("#/components/schemas/Schedule"),
				"ProgramList":  listOf("#/components/schemas/Program"),
			},
		},
		"paths": map[string]any{
			"/api/v1/health": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": map[string]any{"description": "OK"}}},
			},
			"/api/v1/version": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": map[string]any{"description": "OK"}}},
			},
			"/api/v1/events": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": map[string]any{"description": "SSE (entity.inserted, entity.updated, entity.deleted)"}}},
			},
			"/api/v1/stations": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": jsonOK("#/components/schemas/StationList"), "500": jsonErr}},
				"post": map[string]any{
					"requestBody": jsonBody("#/components/schemas/StationRequest"),
					"responses":   map[string]any{"201": jsonOK("#/components/schemas/Station"), "400": jsonErr, "409": jsonErr},
				},
			},
			"/api/v1/stations/by-call-sign/{callSign}": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": jsonOK("#/components/schemas/Station"), "404": jsonErr}},
			},
			"/api/v1/stations/{oid}": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": jsonOK("#/components/schemas/Station"), "404": jsonErr}},
				"patch": map[string]any{
					"requestBody": jsonBody("#/components/schemas/StationRequest"),
					"responses":   map[string]any{"200": jsonOK("#/components/schemas/Station"), "404": jsonErr, "409": jsonErr},
				},
				"delete": map[string]any{"responses": map[string]any{"204": noContent, "404": jsonErr}},
			},
			"/api/v1/schedules": map[string]any{
				"get": map[string]any{
					"parameters": []any{
						map[string]any{"name": "weekDay", "in": "query", "schema": map[string]any{"$ref": "#/components/schemas/WeekDay"}},
						map[string]any{"name": "limit", "in": "query", "schema": map[string]any{"type": "integer"}},
					},
					"responses": map[string]any{"200": jsonOK("#/components/schemas/ScheduleList"), "400": jsonErr},
				},
				"post": map[string]any{
					"requestBody": jsonBody("#/components/schemas/ScheduleInput"),
					"responses":   map[string]any{"201": jsonOK("#/components/schemas/Schedule"), "400": jsonErr, "404": jsonErr},
				},
			},
			"/api/v1/schedules/{oid}": map[string]any{
				"get":    map[string]any{"responses": map[string]any{"200": jsonOK("#/components/schemas/Schedule"), "404": jsonErr}},
				"delete": map[string]any{"responses": map[string]any{"204": noContent, "404": jsonErr}},
			},
			"/api/v1/schedules/{oid}/programs": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": jsonOK("#/components/schemas/ProgramList"), "404": jsonErr}},
			},
			"/api/v1/schedules/{oid}/plan": map[string]any{
				"post": map[string]any{"responses": map[string]any{"200": jsonOK("#/components/schemas/PlanResult"), "404": jsonErr}},
			},
			"/api/v1/programs": map[string]any{
				"get": map[string]any{
					"parameters": []any{
						map[string]any{"name": "from", "in": "query", "schema": dateTime},
						map[string]any{"name": "to", "in": "query", "schema": dateTime},
					},
					"responses": map[string]any{"200": jsonOK("#/components/schemas/ProgramList"), "400": jsonErr},
				},
				"post": map[string]any{
					"requestBody": jsonBody("#/components/schemas/ReserveInput"),
					"responses":   map[string]any{"201": jsonOK("#/components/schemas/Program"), "400": jsonErr, "404": jsonErr},
				},
			},
			"/api/v1/programs/expire": map[string]any{
				"post": map[string]any{"responses": map[string]any{"200": map[string]any{"description": "OK"}}},
			},
			"/api/v1/programs/{oid}": map[string]any{
				"get":    map[string]any{"responses": map[string]any{"200": jsonOK("#/components/schemas/Program"), "404": jsonErr}},
				"delete": map[string]any{"responses": map[string]any{"204": noContent, "404": jsonErr}},
			},
			"/api/v1/programs/{oid}/status": map[string]any{
				"put": map[string]any{
					"requestBody": jsonBody("#/components/schemas/StatusRequest"),
					"responses":   map[string]any{"200": jsonOK("#/components/schemas/Program"), "400": jsonErr, "404": jsonErr, "409": jsonErr},
				},
			},
			"/api/v1/programs/{oid}/listened": map[string]any{
				"post": map[string]any{"responses": map[string]any{"200": jsonOK("#/components/schemas/Program"), "404": jsonErr, "409": jsonErr}},
			},
		},
	}
}
