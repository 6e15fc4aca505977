package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Affiliate Back Office API",
        "description": "Affiliate registration, referral tracking, commission and payout management",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Account registration and authentication"},
        {"name": "Programs", "description": "Sellable program catalog"},
        {"name": "Registrations", "description": "Student signups via affiliate links"},
        {"name": "Tracking", "description": "Link clicks and affiliate statistics"},
        {"name": "Payouts", "description": "Commission payout requests"},
        {"name": "Affiliates", "description": "Affiliate directory"},
        {"name": "Reports", "description": "Admin exports"}
    ],
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["Auth"],
                "summary": "Register account",
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Email already exists"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Login",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/programs": {
            "get": {
                "tags": ["Programs"],
                "summary": "List active programs",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Programs"],
                "summary": "Create program",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/programs/{id}": {
            "get": {
                "tags": ["Programs"],
                "summary": "Get program by id",
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Programs"],
                "summary": "Update program",
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "tags": ["Programs"],
                "summary": "Soft delete program",
                "responses": {"204": {"description": "No content"}}
            }
        },
        "/registrations": {
            "get": {
                "tags": ["Registrations"],
                "summary": "List registrations",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Registrations"],
                "summary": "Create registration",
                "responses": {
                    "201": {"description": "Created"},
                    "404": {"description": "Affiliate or program not found"}
                }
            }
        },
        "/registrations/{id}/verify": {
            "put": {
                "tags": ["Registrations"],
                "summary": "Verify payment",
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/track/click": {
            "post": {
                "tags": ["Tracking"],
                "summary": "Track link click",
                "responses": {
                    "201": {"description": "Created"},
                    "404": {"description": "Affiliate not found"}
                }
            }
        },
        "/affiliates/{id}/stats": {
            "get": {
                "tags": ["Tracking"],
                "summary": "Affiliate statistics",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/payouts": {
            "get": {
                "tags": ["Payouts"],
                "summary": "List payout requests",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Payouts"],
                "summary": "Create payout request",
                "responses": {
                    "201": {"description": "Created"},
                    "422": {"description": "Insufficient balance"}
                }
            }
        },
        "/payouts/{id}/status": {
            "put": {
                "tags": ["Payouts"],
                "summary": "Update payout status",
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/reports/payouts": {
            "get": {
                "tags": ["Reports"],
                "summary": "Export payout requests",
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "Envelope": {
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
