package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func Help(c *gin.Context) {
	c.String(http.StatusOK, `
	WasteMap API:
	Civic waste reporting server, version 2.0, 2026.
	`)
}
