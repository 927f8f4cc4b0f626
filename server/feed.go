package server

import (
	"net/http"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"wastemap/api"
	"wastemap/db"
)

func GetFeed(c *gin.Context) {
	var args api.FeedArgs

	if err := c.BindJSON(&args); err != nil {
		log.Errorf("Failed to get the argument in /get_feed call: %v", err)
		c.String(http.StatusBadRequest, "Could not read JSON input.")
		return
	}

	if args.Version != api.CurrentVersion {
		log.Errorf("Bad version in /get_feed, expected: 2.0, got: %v", args.Version)
		c.String(http.StatusNotAcceptable, "Bad API version, expecting 2.0.") // 406
		return
	}

	dbc, err := getServerDB()
	if err != nil {
		log.Errorf("Error connecting to DB: %v", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	records, err := db.ListReports(dbc, args.Limit)
	if err != nil {
		log.Errorf("Failed to read the feed with %v", err)
		c.Status(http.StatusInternalServerError) // 500
		return
	}

	c.JSON(http.StatusOK, api.FeedResponse{Records: records})
}
