package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoot serves the static liveness/info page.
func RegisterRoot(r *gin.Engine) {
	r.GET("/", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, rootHTML)
	})
}

const rootHTML = `<html>
    <head>
        <title>Communication Service Backend API</title>
    </head>
    <body>
        <h1>Communication Service Backend API Ready !</h1>
    </body>
</html>
`
