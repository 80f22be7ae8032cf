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
        "/tournaments/{tournamentID}/teams": {
            "get": {
                "tags": ["roster"],
                "summary": "List teams",
                "parameters": [{"type": "integer", "name": "tournamentID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["roster"],
                "summary": "Register a team",
                "parameters": [
                    {"type": "integer", "name": "tournamentID", "in": "path", "required": true},
                    {"name": "input", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {"201": {"description": "Created"}, "409": {"description": "team name taken"}}
            }
        },
        "/tournaments/{tournamentID}/judges": {
            "get": {
                "tags": ["roster"],
                "summary": "List judges",
                "parameters": [{"type": "integer", "name": "tournamentID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["roster"],
                "summary": "Register a judge",
                "parameters": [
                    {"type": "integer", "name": "tournamentID", "in": "path", "required": true},
                    {"name": "input", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/tournaments/{tournamentID}/rounds/{round}/draw": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["tabulation"],
                "summary": "Generate the draw of a preliminary round",
                "parameters": [
                    {"type": "integer", "name": "tournamentID", "in": "path", "required": true},
                    {"type": "integer", "name": "round", "in": "path", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "round already drawn or previous round missing"},
                    "422": {"description": "no valid pairing exists"}
                }
            }
        },
        "/tournaments/{tournamentID}/pairings": {
            "get": {
                "tags": ["tabulation"],
                "summary": "List pairings, optionally narrowed by stage and round",
                "parameters": [
                    {"type": "integer", "name": "tournamentID", "in": "path", "required": true},
                    {"type": "string", "name": "stage", "in": "query"},
                    {"type": "integer", "name": "round", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/tournaments/{tournamentID}/rounds/{round}/allocations": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["tabulation"],
                "summary": "Propose judge assignments for a drawn round",
                "parameters": [
                    {"type": "integer", "name": "tournamentID", "in": "path", "required": true},
                    {"type": "integer", "name": "round", "in": "path", "required": true}
                ],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/tournaments/{tournamentID}/rounds/{round}/allocations/{proposalID}/commit": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["tabulation"],
                "summary": "Commit a proposal with manual overrides",
                "parameters": [
                    {"type": "integer", "name": "tournamentID", "in": "path", "required": true},
                    {"type": "integer", "name": "round", "in": "path", "required": true},
                    {"type": "string", "name": "proposalID", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "proposal expired or unknown"}}
            }
        },
        "/tournaments/{tournamentID}/bracket": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["tabulation"],
                "summary": "Seed the elimination bracket from the current standings",
                "parameters": [{"type": "integer", "name": "tournamentID", "in": "path", "required": true}],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/tournaments/{tournamentID}/pairings/{stage}/{uid}/result": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["tabulation"],
                "summary": "Record the result of a debated room",
                "parameters": [
                    {"type": "integer", "name": "tournamentID", "in": "path", "required": true},
                    {"type": "string", "name": "stage", "in": "path", "required": true},
                    {"type": "string", "name": "uid", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/tournaments/{tournamentID}/standings": {
            "get": {
                "tags": ["tabulation"],
                "summary": "Current standings",
                "parameters": [{"type": "integer", "name": "tournamentID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/tournaments/{tournamentID}/standings/publish": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["tabulation"],
                "summary": "Write back team records and release the standings",
                "parameters": [{"type": "integer", "name": "tournamentID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Tabroom API",
	Description:      "Draws, judge allocation, elimination brackets and standings for debate tournaments.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
