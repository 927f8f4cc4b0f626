package server

import (
	"flag"
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"wastemap/api"
	"wastemap/classify"
	"wastemap/notify"
)

var (
	serverPort     = flag.Int("port", 8080, "The port used by the service.")
	authServiceURL = flag.String("auth_service_url", "", "Optional token validation service. Empty disables auth.")
)

var (
	classifier classify.Classifier
	notifier   *notify.Slack // nil disables alerts.
)

// StartService wires the routes and blocks serving them. The classifier is
// required; the notifier may be nil.
func StartService(cl classify.Classifier, n *notify.Slack) {
	log.Info("Starting the service...")
	classifier = cl
	notifier = n

	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowOrigins:     []string{"*"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if *authServiceURL != "" {
		router.Use(AuthMiddleware(*authServiceURL))
	}

	router.GET(api.HelpEndpoint, Help)
	router.GET(api.GetMapGeoJSONEndpoint, GetMapGeoJSON)
	router.POST(api.UserEndpoint, CreateOrUpdateUser)
	router.POST(api.ReportEndpoint, Report)
	router.POST(api.AnalyzeEndpoint, Analyze)
	router.POST(api.GetFeedEndpoint, GetFeed)
	router.POST(api.ReadReportEndpoint, ReadReport)
	router.POST(api.GetMapEndpoint, GetMap)
	router.POST(api.GetStatsEndpoint, GetStats)
	router.POST(api.GetTopScoresEndpoint, GetTopScores)

	router.Run(fmt.Sprintf(":%d", *serverPort))
	log.Info("Finished the service. Should not ever being seen.")
}
