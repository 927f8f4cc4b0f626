package server

import (
	"net/http"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"wastemap/api"
	"wastemap/db"
)

func CreateOrUpdateUser(c *gin.Context) {
	var user api.UserArgs

	if err := c.BindJSON(&user); err != nil {
		log.Errorf("Failed to get the argument in /update_or_create_user call: %v", err)
		c.String(http.StatusBadRequest, "Could not read JSON input.")
		return
	}

	if user.Version != api.CurrentVersion {
		log.Errorf("Bad version in /update_or_create_user, expected: 2.0, got: %v", user.Version)
		c.String(http.StatusNotAcceptable, "Bad API version, expecting 2.0.") // 406
		return
	}
	if user.Id == "" || user.Avatar == "" {
		c.String(http.StatusBadRequest, "Both id and avatar are required.")
		return
	}

	dbc, err := getServerDB()
	if err != nil {
		log.Errorf("Error connecting to DB: %v", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	resp, err := db.CreateOrUpdateUser(dbc, &user)
	if err != nil {
		if resp != nil && resp.DupAvatar {
			// The avatar is taken; the client prompts for another one.
			c.JSON(http.StatusConflict, resp)
			return
		}
		log.Errorf("Failed to update user with %v", err)
		c.Status(http.StatusInternalServerError) // 500
		return
	}

	c.JSON(http.StatusOK, resp)
}
