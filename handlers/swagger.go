package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the routing service.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.JSON(http.StatusOK, swaggerJSON)
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>call-routing-backend — Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

var swaggerJSON = gin.H{
	"openapi": "3.0.0",
	"info": gin.H{
		"title":   "call-routing-backend",
		"version": "1.0.0",
	},
	"paths": gin.H{
		"/api/events/incoming-call": gin.H{
			"post": gin.H{
				"summary": "Webhook delivery of an event batch (subscription validation, incoming calls)",
				"responses": gin.H{
					"200": gin.H{"description": "Batch acknowledged; echoes validationResponse for a handshake"},
					"502": gin.H{"description": "Redirect of an incoming call failed"},
				},
			},
		},
		"/api/users": gin.H{
			"get": gin.H{
				"summary": "List all user registry records",
				"responses": gin.H{
					"200": gin.H{"description": "JSON array of user records"},
				},
			},
		},
		"/api/users/{upn}": gin.H{
			"get": gin.H{
				"summary": "Fetch a user record, creating identity and token on first access",
				"responses": gin.H{
					"200": gin.H{"description": "User record"},
					"500": gin.H{"description": "Platform or persistence failure (empty array body)"},
					"503": gin.H{"description": "Registry file lock timeout (empty array body)"},
				},
			},
		},
		"/api/users/delete/{upn}": gin.H{
			"get": gin.H{
				"summary": "Delete a user record and revoke its platform identity",
				"responses": gin.H{
					"200": gin.H{"description": "Deleted record, or empty array when absent"},
				},
			},
		},
	},
}
