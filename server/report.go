package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wastemap/api"
	"wastemap/capture"
	"wastemap/classify"
	"wastemap/db"
	"wastemap/image"
	"wastemap/locate"
	"wastemap/store"
)

func Report(c *gin.Context) {
	var args api.ReportArgs

	if err := c.BindJSON(&args); err != nil {
		log.Errorf("Failed to get the argument in /report call: %v", err)
		c.String(http.StatusBadRequest, "Could not read JSON input.")
		return
	}

	if args.Version != api.CurrentVersion {
		log.Errorf("Bad version in /report, expected: 2.0, got: %v", args.Version)
		c.String(http.StatusNotAcceptable, "Bad API version, expecting 2.0.") // 406
		return
	}
	if (args.Latitude == nil) != (args.Longitude == nil) {
		c.String(http.StatusBadRequest, "Latitude and longitude must be provided together.")
		return
	}
	if len(args.Image) == 0 {
		c.String(http.StatusBadRequest, "A report requires an image.")
		return
	}

	normalized, err := image.Normalize(&capture.EncodedImage{
		Data:     args.Image,
		MimeType: args.MimeType,
	})
	if err != nil {
		log.Errorf("Rejecting report from %s, bad image: %v", args.Id, err)
		c.String(http.StatusBadRequest, "The image could not be decoded.")
		return
	}

	cls, err := classifier.Classify(c.Request.Context(), normalized)
	if err != nil {
		// Nothing is persisted on a failed analysis; the client retries
		// with the same capture.
		log.Errorf("Analysis failed for report from %s: %v", args.Id, err)
		if errors.Is(err, classify.ErrMalformed) {
			c.String(http.StatusBadGateway, "The analysis service returned garbage, please retry.")
		} else {
			c.String(http.StatusBadGateway, "The analysis service is unavailable, please retry.")
		}
		return
	}

	r := &store.Report{
		ID:             uuid.NewString(),
		CapturedAt:     time.Now(),
		Image:          normalized,
		Classification: cls,
		Status:         store.StatusPending,
	}
	if args.Latitude != nil {
		r.Location = &locate.Coordinate{Latitude: *args.Latitude, Longitude: *args.Longitude}
	}

	dbc, err := getServerDB()
	if err != nil {
		log.Errorf("Error connecting to DB: %v", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	seq, err := db.SaveReport(dbc, args.Id, args.Annotation, r)
	if err != nil {
		log.Errorf("Failed to write report with %v", err)
		c.String(http.StatusInternalServerError, "Failed to save the report.") // 500
		return
	}

	if cls.Severity == classify.SeverityHigh && notifier != nil {
		go notifier.ReportAlert(seq, cls, r.Location)
	}

	c.JSON(http.StatusOK, api.ReportResponse{
		Seq:            seq,
		ReportId:       r.ID,
		Classification: cls,
	})
}
