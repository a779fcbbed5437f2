// Package docs registra la especificación OpenAPI que sirve /swagger/*.
// Se mantiene a la par de las anotaciones godoc de los handlers.
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
		"/session": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"session"
				],
				"summary": "Estado de sesión",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/sessionResponse"
						}
					}
				}
			}
		},
		"/auth/register": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"auth"
				],
				"summary": "Registrar usuario",
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "payload",
						"name": "payload",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/registerRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/authResponse"
						}
					},
					"400": {
						"description": "invalid_email / weak_password / missing_field",
						"schema": {
							"$ref": "#/definitions/errorResponse"
						}
					},
					"409": {
						"description": "email_in_use",
						"schema": {
							"$ref": "#/definitions/errorResponse"
						}
					},
					"502": {
						"description": "write_error",
						"schema": {
							"$ref": "#/definitions/errorResponse"
						}
					}
				}
			}
		},
		"/auth/login": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"auth"
				],
				"summary": "Iniciar sesión",
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "payload",
						"name": "payload",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/loginRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/authResponse"
						}
					},
					"400": {
						"description": "missing_field",
						"schema": {
							"$ref": "#/definitions/errorResponse"
						}
					},
					"401": {
						"description": "invalid_credentials",
						"schema": {
							"$ref": "#/definitions/errorResponse"
						}
					}
				}
			}
		},
		"/auth/logout": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"auth"
				],
				"summary": "Cerrar sesión",
				"responses": {
					"204": {
						"description": "No Content"
					}
				}
			}
		},
		"/me/profile": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"profile"
				],
				"summary": "Perfil del usuario actual",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/profileResponse"
						}
					},
					"401": {
						"description": "no_session",
						"schema": {
							"$ref": "#/definitions/errorResponse"
						}
					},
					"502": {
						"description": "load_error",
						"schema": {
							"$ref": "#/definitions/errorResponse"
						}
					}
				}
			},
			"patch": {
				"produces": [
					"application/json"
				],
				"tags": [
					"profile"
				],
				"summary": "Actualizar perfil",
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "payload",
						"name": "payload",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/updateProfileRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/profileResponse"
						}
					},
					"400": {
						"description": "missing_field",
						"schema": {
							"$ref": "#/definitions/errorResponse"
						}
					},
					"401": {
						"description": "no_session",
						"schema": {
							"$ref": "#/definitions/errorResponse"
						}
					},
					"502": {
						"description": "write_error",
						"schema": {
							"$ref": "#/definitions/errorResponse"
						}
					}
				}
			}
		},
		"/me": {
			"delete": {
				"produces": [
					"application/json"
				],
				"tags": [
					"profile"
				],
				"summary": "Eliminar cuenta",
				"responses": {
					"204": {
						"description": "No Content"
					},
					"401": {
						"description": "no_session",
						"schema": {
							"$ref": "#/definitions/errorResponse"
						}
					},
					"502": {
						"description": "write_error",
						"schema": {
							"$ref": "#/definitions/errorResponse"
						}
					}
				}
			}
		},
		"/pets": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"pets"
				],
				"summary": "Listar mis mascotas",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/petListResponse"
						}
					},
					"401": {
						"description": "no_session",
						"schema": {
							"$ref": "#/definitions/errorResponse"
						}
					}
				}
			},
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"pets"
				],
				"summary": "Registrar mascota",
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "payload",
						"name": "payload",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/createPetRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/petResponse"
						}
					},
					"400": {
						"description": "missing_field / invalid_field",
						"schema": {
							"$ref": "#/definitions/errorResponse"
						}
					},
					"401": {
						"description": "no_session",
						"schema": {
							"$ref": "#/definitions/errorResponse"
						}
					},
					"502": {
						"description": "write_error",
						"schema": {
							"$ref": "#/definitions/errorResponse"
						}
					}
				}
			}
		},
		"/pets/{petID}": {
			"patch": {
				"produces": [
					"application/json"
				],
				"tags": [
					"pets"
				],
				"summary": "Actualizar mascota",
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "ID de la mascota",
						"name": "petID",
						"in": "path",
						"required": true
					},
					{
						"description": "payload",
						"name": "payload",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/updatePetRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/petResponse"
						}
					},
					"400": {
						"description": "missing_field / invalid_field",
						"schema": {
							"$ref": "#/definitions/errorResponse"
						}
					},
					"401": {
						"description": "no_session",
						"schema": {
							"$ref": "#/definitions/errorResponse"
						}
					},
					"404": {
						"description": "pet not found",
						"schema": {
							"$ref": "#/definitions/errorResponse"
						}
					}
				}
			},
			"delete": {
				"produces": [
					"application/json"
				],
				"tags": [
					"pets"
				],
				"summary": "Eliminar mascota",
				"parameters": [
					{
						"type": "string",
						"description": "ID de la mascota",
						"name": "petID",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"401": {
						"description": "no_session",
						"schema": {
							"$ref": "#/definitions/errorResponse"
						}
					},
					"404": {
						"description": "pet not found",
						"schema": {
							"$ref": "#/definitions/errorResponse"
						}
					}
				}
			}
		},
		"/services": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"bookings"
				],
				"summary": "Catálogo de servicios",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/offering"
							}
						}
					}
				}
			}
		},
		"/bookings": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"bookings"
				],
				"summary": "Historial de servicios",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/bookingListResponse"
						}
					},
					"401": {
						"description": "no_session",
						"schema": {
							"$ref": "#/definitions/errorResponse"
						}
					}
				}
			},
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"bookings"
				],
				"summary": "Reservar servicio",
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "payload",
						"name": "payload",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/submitBookingRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/bookingResponse"
						}
					},
					"400": {
						"description": "missing_field / invalid_field / invalid_date",
						"schema": {
							"$ref": "#/definitions/errorResponse"
						}
					},
					"401": {
						"description": "no_session",
						"schema": {
							"$ref": "#/definitions/errorResponse"
						}
					},
					"502": {
						"description": "write_error",
						"schema": {
							"$ref": "#/definitions/errorResponse"
						}
					}
				}
			}
		}
	},
	"definitions": {
		"errorResponse": {
			"type": "object",
			"properties": {
				"error": {
					"type": "string"
				},
				"field": {
					"type": "string"
				},
				"message": {
					"type": "string"
				}
			}
		},
		"registerRequest": {
			"type": "object",
			"properties": {
				"email": {
					"type": "string"
				},
				"password": {
					"type": "string"
				},
				"first_name": {
					"type": "string"
				},
				"last_name": {
					"type": "string"
				},
				"phone": {
					"type": "string"
				}
			}
		},
		"loginRequest": {
			"type": "object",
			"properties": {
				"email": {
					"type": "string"
				},
				"password": {
					"type": "string"
				}
			}
		},
		"authResponse": {
			"type": "object",
			"properties": {
				"user_id": {
					"type": "string"
				}
			}
		},
		"updateProfileRequest": {
			"type": "object",
			"properties": {
				"first_name": {
					"type": "string"
				},
				"last_name": {
					"type": "string"
				},
				"phone": {
					"type": "string"
				},
				"address": {
					"type": "string"
				},
				"city": {
					"type": "string"
				},
				"postal_code": {
					"type": "string"
				},
				"bio": {
					"type": "string"
				},
				"extra": {
					"type": "object",
					"additionalProperties": true
				}
			}
		},
		"profileResponse": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"email": {
					"type": "string"
				},
				"first_name": {
					"type": "string"
				},
				"last_name": {
					"type": "string"
				},
				"phone": {
					"type": "string"
				},
				"address": {
					"type": "string"
				},
				"city": {
					"type": "string"
				},
				"postal_code": {
					"type": "string"
				},
				"bio": {
					"type": "string"
				},
				"extra": {
					"type": "object",
					"additionalProperties": true
				},
				"created_at": {
					"type": "string"
				},
				"updated_at": {
					"type": "string"
				}
			}
		},
		"createPetRequest": {
			"type": "object",
			"properties": {
				"name": {
					"type": "string"
				},
				"species": {
					"type": "string"
				},
				"breed": {
					"type": "string"
				},
				"age": {
					"type": "integer"
				},
				"weight_kg": {
					"type": "number"
				},
				"notes": {
					"type": "string"
				}
			}
		},
		"updatePetRequest": {
			"type": "object",
			"properties": {
				"name": {
					"type": "string"
				},
				"species": {
					"type": "string"
				},
				"breed": {
					"type": "string"
				},
				"age": {
					"type": "integer"
				},
				"weight_kg": {
					"type": "number"
				},
				"notes": {
					"type": "string"
				}
			}
		},
		"petResponse": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"owner_id": {
					"type": "string"
				},
				"name": {
					"type": "string"
				},
				"species": {
					"type": "string",
					"enum": [
						"dog",
						"cat",
						"other"
					]
				},
				"breed": {
					"type": "string"
				},
				"age": {
					"type": "integer"
				},
				"weight_kg": {
					"type": "number"
				},
				"notes": {
					"type": "string"
				},
				"created_at": {
					"type": "string"
				},
				"updated_at": {
					"type": "string"
				}
			}
		},
		"petListResponse": {
			"type": "object",
			"properties": {
				"status": {
					"type": "string"
				},
				"error": {
					"type": "string"
				},
				"items": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/petResponse"
					}
				}
			}
		},
		"offering": {
			"type": "object",
			"properties": {
				"type": {
					"type": "string"
				},
				"title": {
					"type": "string"
				},
				"description": {
					"type": "string"
				},
				"price": {
					"type": "number"
				}
			}
		},
		"submitBookingRequest": {
			"type": "object",
			"properties": {
				"pet_id": {
					"type": "string"
				},
				"service_type": {
					"type": "string"
				},
				"scheduled_at": {
					"type": "string"
				},
				"date": {
					"type": "string"
				},
				"time": {
					"type": "string"
				},
				"notes": {
					"type": "string"
				}
			}
		},
		"bookingResponse": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"pet_id": {
					"type": "string"
				},
				"pet_name": {
					"type": "string"
				},
				"service_type": {
					"type": "string",
					"enum": [
						"walk",
						"grooming",
						"veterinary",
						"daycare",
						"nutrition"
					]
				},
				"title": {
					"type": "string"
				},
				"price": {
					"type": "number"
				},
				"scheduled_at": {
					"type": "string"
				},
				"notes": {
					"type": "string"
				},
				"status": {
					"type": "string",
					"enum": [
						"pending",
						"completed",
						"cancelled"
					]
				},
				"created_at": {
					"type": "string"
				}
			}
		},
		"bookingListResponse": {
			"type": "object",
			"properties": {
				"status": {
					"type": "string"
				},
				"error": {
					"type": "string"
				},
				"items": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/bookingResponse"
					}
				}
			}
		},
		"sessionResponse": {
			"type": "object",
			"properties": {
				"user": {
					"type": "object",
					"properties": {
						"user_id": {
							"type": "string"
						},
						"email": {
							"type": "string"
						},
						"is_authenticated": {
							"type": "boolean"
						}
					}
				},
				"loading": {
					"type": "boolean"
				},
				"route": {
					"type": "object",
					"properties": {
						"tree": {
							"type": "string"
						},
						"entry": {
							"type": "string"
						},
						"screens": {
							"type": "array",
							"items": {
								"type": "string"
							}
						}
					}
				}
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
	Title:            "Pawtastic API",
	Description:      "App shell local del core de Pawtastic: sesión, mascotas y reservas.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
