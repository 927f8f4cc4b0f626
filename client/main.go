// Dev/test client for dev/test/troubleshooting. Drives the full reporting
// pipeline against a locally running server: capture from a file, locate
// from flags, classify through /analyze, submit through /report.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"

	"github.com/apex/log"

	"wastemap/api"
	"wastemap/capture"
	"wastemap/classify"
	"wastemap/locate"
	"wastemap/pipeline"
	"wastemap/store"
)

const contentType = "application/json"

var (
	serviceUrl = flag.String("service_url", "http://127.0.0.1:8080", "The server to talk to.")
	imagePath  = flag.String("image", "", "The image file to report.")
	avatar     = flag.String("avatar", "La Puch da Vinchi", "The avatar to register.")
	latitude   = flag.Float64("lat", 35.1293548, "Report latitude.")
	longitude  = flag.Float64("lon", -90.1222609, "Report longitude.")
	skipLoc    = flag.Bool("skip_location", false, "Submit the report without a location.")
	annotation = flag.String("annotation", "", "Free-form note attached to the report.")
)

var userID = fmt.Sprintf("%X", rand.Uint64())

func post(endpoint, buf string) {
	resp, err := http.Post(*serviceUrl+endpoint, contentType, bytes.NewBufferString(buf))
	if err != nil {
		log.Errorf("Failed to call the server with %v", err)
		return
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	log.Infof("Done, %s: %v", resp.Status, string(body))
}

func doUser() {
	log.Info("doUser()")
	post(api.UserEndpoint, `
{
	"version": "2.0",
	"id": "`+userID+`",
	"avatar": "`+*avatar+`"
}`)
}

// remoteClassifier previews the severity through the server's /analyze
// endpoint, the same way the mobile app does before submitting.
type remoteClassifier struct{}

func (remoteClassifier) Classify(ctx context.Context, img *capture.EncodedImage) (*classify.Classification, error) {
	args := api.AnalyzeArgs{Version: api.CurrentVersion, Image: img.Data, MimeType: img.MimeType}
	buf, _ := json.Marshal(args)

	resp, err := http.Post(*serviceUrl+api.AnalyzeEndpoint, contentType, bytes.NewBuffer(buf))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", classify.ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: /analyze returned %s", classify.ErrUnavailable, resp.Status)
	}

	cls := &classify.Classification{}
	if err := json.NewDecoder(resp.Body).Decode(cls); err != nil {
		return nil, fmt.Errorf("%w: %v", classify.ErrMalformed, err)
	}
	return cls, nil
}

// apiStore submits completed reports through /report and mirrors them into
// an in-memory store so the session's view of them keeps working.
type apiStore struct {
	mem *store.MemoryStore
}

func (s *apiStore) Append(ctx context.Context, r *store.Report) error {
	args := api.ReportArgs{
		Version:    api.CurrentVersion,
		Id:         userID,
		Image:      r.Image.Data,
		MimeType:   r.Image.MimeType,
		Annotation: *annotation,
	}
	if r.Location != nil {
		args.Latitude = &r.Location.Latitude
		args.Longitude = &r.Location.Longitude
	}
	buf, _ := json.Marshal(args)

	resp, err := http.Post(*serviceUrl+api.ReportEndpoint, contentType, bytes.NewBuffer(buf))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("/report returned %s: %s", resp.Status, string(body))
	}
	log.Infof("Report accepted: %s", string(body))
	return s.mem.Append(ctx, r)
}

func (s *apiStore) List(ctx context.Context) ([]*store.Report, error) {
	return s.mem.List(ctx)
}

func doReport() {
	log.Info("doReport()")
	if *imagePath == "" {
		log.Error("No -image given, skipping the report")
		return
	}

	session := pipeline.NewSession(pipeline.Deps{
		Source: capture.NewFileSource(*imagePath),
		Locator: &locate.StaticProvider{
			Coord: locate.Coordinate{Latitude: *latitude, Longitude: *longitude},
		},
		Picker:     &locate.StaticPicker{Cancel: true},
		Classifier: remoteClassifier{},
		Store:      &apiStore{mem: store.NewMemoryStore()},
	})

	ctx := context.Background()
	if err := session.Capture(ctx); err != nil {
		log.Errorf("Capture failed: %v", err)
		return
	}
	var err error
	if *skipLoc {
		err = session.SkipLocation(ctx)
	} else {
		err = session.UseAutoLocation(ctx)
	}
	if err != nil {
		log.Errorf("Submission failed: %v (state %s)", err, session.State())
		return
	}
	log.Infof("Session complete, report %s", session.Report().ID)
}

func doFeed() {
	log.Info("doFeed()")
	post(api.GetFeedEndpoint, `
{
	"version": "2.0",
	"id": "`+userID+`",
	"limit": 10
}`)
}

func doMap() {
	log.Info("doMap()")
	post(api.GetMapEndpoint, `
{
	"version": "2.0",
	"id": "`+userID+`",
	"vport": {
		"latmin": 34.0,
		"lonmin": -95.0,
		"latmax": 36.0,
		"lonmax": -85.0
	},
	"center": {"lat": 35.0, "lon": -90.0}
}`)
}

func doStats() {
	log.Info("doStats()")
	post(api.GetStatsEndpoint, `
{
	"version": "2.0",
	"id": "`+userID+`"
}`)
}

func doTopScores() {
	log.Info("doTopScores()")
	post(api.GetTopScoresEndpoint, `
{
	"version": "2.0",
	"id": "`+userID+`"
}`)
}

func main() {
	flag.Parse()

	doUser()
	doReport()
	doFeed()
	doMap()
	doStats()
	doTopScores()
}
