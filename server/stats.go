package server

import (
	"net/http"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"wastemap/api"
	"wastemap/db"
)

func GetStats(c *gin.Context) {
	var ba api.BaseArgs

	if err := c.BindJSON(&ba); err != nil {
		log.Errorf("Failed to get the argument in /get_stats call: %v", err)
		c.String(http.StatusBadRequest, "Could not read JSON input.")
		return
	}

	if ba.Version != api.CurrentVersion {
		log.Errorf("Bad version in /get_stats, expected: 2.0, got: %v", ba.Version)
		c.String(http.StatusNotAcceptable, "Bad API version, expecting 2.0.") // 406
		return
	}

	dbc, err := getServerDB()
	if err != nil {
		log.Errorf("Error connecting to DB: %v", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	r, err := db.GetStats(dbc, ba.Id)
	if err != nil {
		log.Errorf("Failed to get stats with %v", err)
		c.Status(http.StatusInternalServerError) // 500
		return
	}

	c.IndentedJSON(http.StatusOK, r) // 200
}
