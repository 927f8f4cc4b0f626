package server

import (
	"errors"
	"net/http"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"wastemap/api"
	"wastemap/capture"
	"wastemap/classify"
	"wastemap/image"
)

// Analyze classifies an image without persisting anything. Clients use it
// to preview the severity before submitting.
func Analyze(c *gin.Context) {
	var args api.AnalyzeArgs

	if err := c.BindJSON(&args); err != nil {
		log.Errorf("Failed to get the argument in /analyze call: %v", err)
		c.String(http.StatusBadRequest, "Could not read JSON input.")
		return
	}

	if args.Version != api.CurrentVersion {
		log.Errorf("Bad version in /analyze, expected: 2.0, got: %v", args.Version)
		c.String(http.StatusNotAcceptable, "Bad API version, expecting 2.0.") // 406
		return
	}
	if len(args.Image) == 0 {
		c.String(http.StatusBadRequest, "Nothing to analyze.")
		return
	}

	normalized, err := image.Normalize(&capture.EncodedImage{
		Data:     args.Image,
		MimeType: args.MimeType,
	})
	if err != nil {
		c.String(http.StatusBadRequest, "The image could not be decoded.")
		return
	}

	cls, err := classifier.Classify(c.Request.Context(), normalized)
	if err != nil {
		log.Errorf("Analysis failed in /analyze: %v", err)
		if errors.Is(err, classify.ErrMalformed) {
			c.String(http.StatusBadGateway, "The analysis service returned garbage, please retry.")
		} else {
			c.String(http.StatusBadGateway, "The analysis service is unavailable, please retry.")
		}
		return
	}

	c.JSON(http.StatusOK, cls)
}
