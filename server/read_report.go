package server

import (
	"net/http"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"wastemap/api"
	"wastemap/db"
)

func ReadReport(c *gin.Context) {
	var args api.ReadReportArgs

	if err := c.BindJSON(&args); err != nil {
		log.Errorf("Failed to get the argument in /read_report call: %v", err)
		c.String(http.StatusBadRequest, "Could not read JSON input.")
		return
	}

	if args.Version != api.CurrentVersion {
		log.Errorf("Bad version in /read_report, expected: 2.0, got: %v", args.Version)
		c.String(http.StatusNotAcceptable, "Bad API version, expecting 2.0.") // 406
		return
	}

	dbc, err := getServerDB()
	if err != nil {
		log.Errorf("Error connecting to DB: %v", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	resp, err := db.ReadReport(dbc, &args)
	if err != nil {
		log.Errorf("Failed to read report %d with %v", args.Seq, err)
		c.String(http.StatusNotFound, "No such report.")
		return
	}

	c.JSON(http.StatusOK, resp)
}
