package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Running Event Directory API",
        "description": "Public directory and back-office authoring for running events",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {
            "name": "Events",
            "description": "Public event directory"
        },
        {
            "name": "Series",
            "description": "Event series"
        },
        {
            "name": "Distances",
            "description": "Master distances"
        },
        {
            "name": "RaceTypes",
            "description": "Master race types"
        },
        {
            "name": "AdminEvents",
            "description": "Back-office event list and deletion"
        },
        {
            "name": "Authoring",
            "description": "Event authoring sessions"
        }
    ],
    "paths": {
        "/events": {
            "get": {
                "tags": [
                    "Events"
                ],
                "summary": "List published events",
                "parameters": [
                    {
                        "name": "filter",
                        "in": "query",
                        "type": "string",
                        "enum": [
                            "upcoming",
                            "this_year",
                            "finished",
                            "all"
                        ]
                    },
                    {
                        "name": "search",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "type": "integer"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/events/export.csv": {
            "get": {
                "tags": [
                    "Events"
                ],
                "summary": "Download the filtered directory as CSV",
                "produces": [
                    "text/csv"
                ],
                "parameters": [
                    {
                        "name": "filter",
                        "in": "query",
                        "type": "string",
                        "enum": [
                            "upcoming",
                            "this_year",
                            "finished",
                            "all"
                        ]
                    },
                    {
                        "name": "search",
                        "in": "query",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "CSV file"
                    }
                }
            }
        },
        "/events/{id}": {
            "get": {
                "tags": [
                    "Events"
                ],
                "summary": "Get a published event",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/events/{id}/neighbors": {
            "get": {
                "tags": [
                    "Events"
                ],
                "summary": "Previous and next events of the same series",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/events/{id}/calendar.ics": {
            "get": {
                "tags": [
                    "Events"
                ],
                "summary": "Download an event as iCalendar",
                "produces": [
                    "text/calendar"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "iCalendar file"
                    }
                }
            }
        },
        "/events/{id}/sheet.pdf": {
            "get": {
                "tags": [
                    "Events"
                ],
                "summary": "Download a printable event sheet",
                "produces": [
                    "application/pdf"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "PDF file"
                    }
                }
            }
        },
        "/admin/series": {
            "get": {
                "tags": [
                    "Series"
                ],
                "summary": "List series",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "post": {
                "tags": [
                    "Series"
                ],
                "summary": "Create series",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SeriesRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/admin/series/{id}": {
            "get": {
                "tags": [
                    "Series"
                ],
                "summary": "Get series",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "put": {
                "tags": [
                    "Series"
                ],
                "summary": "Update series",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SeriesRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "delete": {
                "tags": [
                    "Series"
                ],
                "summary": "Delete series",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/admin/distances": {
            "get": {
                "tags": [
                    "Distances"
                ],
                "summary": "List distances in display order",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "post": {
                "tags": [
                    "Distances"
                ],
                "summary": "Create distance",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/DistanceRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/admin/distances/{id}": {
            "put": {
                "tags": [
                    "Distances"
                ],
                "summary": "Update distance",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/DistanceRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "delete": {
                "tags": [
                    "Distances"
                ],
                "summary": "Delete distance",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/admin/distances/{id}/move": {
            "post": {
                "tags": [
                    "Distances"
                ],
                "summary": "Swap a distance with its neighbour",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/MoveRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/admin/race-types": {
            "get": {
                "tags": [
                    "RaceTypes"
                ],
                "summary": "List race types in display order",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "post": {
                "tags": [
                    "RaceTypes"
                ],
                "summary": "Create race type",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/RaceTypeRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/admin/race-types/{id}": {
            "put": {
                "tags": [
                    "RaceTypes"
                ],
                "summary": "Update race type",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/RaceTypeRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "delete": {
                "tags": [
                    "RaceTypes"
                ],
                "summary": "Delete race type",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/admin/race-types/{id}/move": {
            "post": {
                "tags": [
                    "RaceTypes"
                ],
                "summary": "Swap a race type with its neighbour",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/MoveRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/admin/events": {
            "get": {
                "tags": [
                    "AdminEvents"
                ],
                "summary": "List all events including drafts",
                "parameters": [
                    {
                        "name": "seriesId",
                        "in": "query",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/admin/events/{id}/delete-intent": {
            "post": {
                "tags": [
                    "AdminEvents"
                ],
                "summary": "Request a confirmation token for deleting an event",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/admin/events/{id}": {
            "delete": {
                "tags": [
                    "AdminEvents"
                ],
                "summary": "Delete an event with its distances and race types",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "confirm",
                        "in": "query",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "412": {
                        "description": "Missing or expired confirmation",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/admin/authoring": {
            "post": {
                "tags": [
                    "Authoring"
                ],
                "summary": "Open an authoring session",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/OpenAuthoringRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/admin/authoring/{session}": {
            "get": {
                "tags": [
                    "Authoring"
                ],
                "summary": "Get an authoring session",
                "parameters": [
                    {
                        "name": "session",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "patch": {
                "tags": [
                    "Authoring"
                ],
                "summary": "Apply one edit to the session form",
                "parameters": [
                    {
                        "name": "session",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/AuthoringOperation"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "delete": {
                "tags": [
                    "Authoring"
                ],
                "summary": "Discard an authoring session",
                "parameters": [
                    {
                        "name": "session",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    }
                }
            }
        },
        "/admin/authoring/{session}/validate": {
            "post": {
                "tags": [
                    "Authoring"
                ],
                "summary": "Validate the session form without saving",
                "parameters": [
                    {
                        "name": "session",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/admin/authoring/{session}/submit": {
            "post": {
                "tags": [
                    "Authoring"
                ],
                "summary": "Persist the session form",
                "parameters": [
                    {
                        "name": "session",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation failed",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "500": {
                        "description": "Partial write",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "502": {
                        "description": "Parent write rejected",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/admin/authoring/{session}/distances/{slot}/route-image": {
            "post": {
                "tags": [
                    "Authoring"
                ],
                "summary": "Upload the route image of a distance slot",
                "consumes": [
                    "multipart/form-data"
                ],
                "parameters": [
                    {
                        "name": "session",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "slot",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "file",
                        "in": "formData",
                        "required": true,
                        "type": "file"
                    }
                ],
                "responses": {
                    "202": {
                        "description": "Accepted",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "413": {
                        "description": "Too large"
                    },
                    "415": {
                        "description": "Unsupported media type"
                    }
                }
            }
        }
    },
    "definitions": {
        "SeriesRequest": {
            "type": "object",
            "properties": {
                "series_name": {
                    "type": "string"
                },
                "organizer": {
                    "type": "string"
                },
                "location_city_main": {
                    "type": "string"
                },
                "series_official_url": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                }
            },
            "required": [
                "series_name",
                "organizer"
            ]
        },
        "DistanceRequest": {
            "type": "object",
            "properties": {
                "distance_name": {
                    "type": "string"
                },
                "distance_km": {
                    "type": "number"
                }
            },
            "required": [
                "distance_name",
                "distance_km"
            ]
        },
        "RaceTypeRequest": {
            "type": "object",
            "properties": {
                "type_name": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                }
            },
            "required": [
                "type_name"
            ]
        },
        "MoveRequest": {
            "type": "object",
            "properties": {
                "direction": {
                    "type": "string",
                    "enum": [
                        "up",
                        "down"
                    ]
                }
            },
            "required": [
                "direction"
            ]
        },
        "OpenAuthoringRequest": {
            "type": "object",
            "properties": {
                "mode": {
                    "type": "string",
                    "enum": [
                        "add",
                        "edit"
                    ]
                },
                "event_id": {
                    "type": "string"
                },
                "series_id": {
                    "type": "string"
                }
            },
            "required": [
                "mode"
            ]
        },
        "AuthoringOperation": {
            "type": "object",
            "properties": {
                "op": {
                    "type": "string"
                },
                "field": {
                    "type": "string"
                },
                "value": {
                    "type": "string"
                },
                "selected": {
                    "type": "boolean"
                },
                "type_id": {
                    "type": "string"
                },
                "slot_id": {
                    "type": "string"
                },
                "point_id": {
                    "type": "string"
                },
                "location_id": {
                    "type": "string"
                },
                "date_id": {
                    "type": "string"
                },
                "list": {
                    "type": "string"
                },
                "link_id": {
                    "type": "string"
                },
                "label": {
                    "type": "string"
                }
            },
            "required": [
                "op"
            ]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {
                    "type": "integer"
                },
                "page_size": {
                    "type": "integer"
                },
                "total_count": {
                    "type": "integer"
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                },
                "details": {
                    "type": "object"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "pagination": {
                    "$ref": "#/definitions/Pagination"
                },
                "meta": {
                    "type": "object"
                }
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
