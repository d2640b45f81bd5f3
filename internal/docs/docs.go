// Package docs is generated by swaggo/swag from the handler annotations.
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
        "/items": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["items"],
                "summary": "Create inventory item",
                "parameters": [
                    {"description": "item", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateItemRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ItemView"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/items/sku/{sku}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["items"],
                "summary": "Get item by SKU",
                "parameters": [
                    {"type": "string", "description": "SKU", "name": "sku", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ItemView"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/items/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["items"],
                "summary": "Get item by id",
                "parameters": [
                    {"type": "string", "description": "Item ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ItemView"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/items/{id}/inventory/adjust": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["items"],
                "summary": "Add delta to stock",
                "parameters": [
                    {"type": "string", "description": "Item ID", "name": "id", "in": "path", "required": true},
                    {"description": "delta", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AdjustRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ItemView"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "409": {"description": "Stock would go below zero", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/orders": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Create order",
                "description": "Prices every line from the ledger, stores the order as PENDING and debits stock.",
                "parameters": [
                    {"description": "order", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateOrderRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/OrderView"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "503": {"description": "Ledger unavailable", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/orders/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Get order",
                "parameters": [
                    {"type": "string", "description": "Order ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/OrderView"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/orders/{id}/cancel": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Cancel order and restock",
                "parameters": [
                    {"type": "string", "description": "Order ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/OrderView"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/orders/{id}/confirm": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Confirm order",
                "parameters": [
                    {"type": "string", "description": "Order ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/OrderView"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/payments": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["payments"],
                "summary": "Pay an order",
                "description": "A declined capture answers 201 with status FAILED after the order is canceled.",
                "parameters": [
                    {"description": "payment", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PayRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/PaymentView"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "503": {"description": "Order service unavailable", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/payments/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["payments"],
                "summary": "Get payment",
                "parameters": [
                    {"type": "string", "description": "Payment ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/PaymentView"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        }
    },
    "definitions": {
        "AdjustRequest": {
            "type": "object",
            "required": ["delta"],
            "properties": {"delta": {"type": "integer", "example": -2}}
        },
        "CreateItemRequest": {
            "type": "object",
            "required": ["name", "price", "sku"],
            "properties": {
                "active": {"type": "boolean"},
                "description": {"type": "string", "example": "RGB 60%"},
                "name": {"type": "string", "example": "Mechanical Keyboard"},
                "picture_url": {"type": "string", "example": "https://cdn.example.com/kb.png"},
                "price": {"type": "string", "example": "199.90"},
                "sku": {"type": "string", "example": "SKU1"},
                "stock": {"type": "integer", "example": 10}
            }
        },
        "CreateOrderRequest": {
            "type": "object",
            "required": ["account_id"],
            "properties": {
                "account_id": {"type": "string", "example": "b2f5ff47-2b1e-4f22-8a96-5f3c1f2f2e7b"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/LineRequest"}}
            }
        },
        "ErrorBody": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "NOT_FOUND"},
                "message": {"type": "string", "example": "order not found"}
            }
        },
        "ItemView": {
            "type": "object",
            "properties": {
                "active": {"type": "boolean"},
                "created_at": {"type": "string"},
                "description": {"type": "string"},
                "id": {"type": "string"},
                "name": {"type": "string"},
                "picture_url": {"type": "string"},
                "price": {"type": "string", "example": "10.00"},
                "sku": {"type": "string"},
                "stock": {"type": "integer"},
                "updated_at": {"type": "string"}
            }
        },
        "LineRequest": {
            "type": "object",
            "properties": {
                "quantity": {"type": "integer", "example": 2},
                "sku": {"type": "string", "example": "SKU1"}
            }
        },
        "LineView": {
            "type": "object",
            "properties": {
                "line_total": {"type": "string", "example": "20.00"},
                "name": {"type": "string"},
                "picture_ref": {"type": "string"},
                "quantity": {"type": "integer"},
                "sku": {"type": "string"},
                "unit_price": {"type": "string", "example": "10.00"}
            }
        },
        "OrderView": {
            "type": "object",
            "properties": {
                "account_id": {"type": "string"},
                "created_at": {"type": "string"},
                "id": {"type": "string"},
                "lines": {"type": "array", "items": {"$ref": "#/definitions/LineView"}},
                "status": {"type": "string", "example": "PENDING"},
                "total": {"type": "string", "example": "20.00"}
            }
        },
        "PayRequest": {
            "type": "object",
            "required": ["order_id"],
            "properties": {
                "amount": {"type": "string", "example": "20.00"},
                "order_id": {"type": "string"}
            }
        },
        "PaymentView": {
            "type": "object",
            "properties": {
                "amount": {"type": "string", "example": "20.00"},
                "created_at": {"type": "string"},
                "id": {"type": "string"},
                "order_id": {"type": "string"},
                "provider_txn_ref": {"type": "string"},
                "status": {"type": "string", "example": "CAPTURED"},
                "updated_at": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Ordenes Saga API",
	Description:      "Order, payment and inventory services of the checkout saga.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
