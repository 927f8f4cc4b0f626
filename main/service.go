package main

import (
	"flag"

	"github.com/apex/log"

	"wastemap/classify"
	"wastemap/common"
	"wastemap/db"
	"wastemap/notify"
	"wastemap/rewards"
	"wastemap/server"
)

var (
	classifierBackend = flag.String("classifier", "openai", "The analysis backend, openai or anthropic.")
	openAIKey         = flag.String("openai_api_key", "", "The OpenAI API key.")
	openAIModel       = flag.String("openai_model", "", "Overrides the default OpenAI vision model.")
	anthropicKey      = flag.String("anthropic_api_key", "", "The Anthropic API key.")
	anthropicModel    = flag.String("anthropic_model", "", "Overrides the default Anthropic vision model.")

	slackToken   = flag.String("slack_token", "", "Slack bot token for high severity alerts. Empty disables alerts.")
	slackChannel = flag.String("slack_channel", "", "Slack channel for high severity alerts.")

	ethNetworkUrl    = flag.String("eth_network_url", "", "Ethereum network address for kitn disbursement. Empty disables it.")
	ethPrivateKey    = flag.String("eth_private_key", "", "The private key of the disbursing wallet.")
	disburseSchedule = flag.String("disburse_schedule", "0 2 * * *", "Cron schedule of the daily kitn disbursement, UTC.")
)

func main() {
	flag.Parse()
	log.Info("Hello!")

	dbc, err := common.DBConnect()
	if err != nil {
		log.Fatalf("Failed to connect to the DB: %v", err)
	}
	defer dbc.Close()
	if err := db.InitSchema(dbc); err != nil {
		log.Fatalf("Failed to init the DB schema: %v", err)
	}

	var classifier classify.Classifier
	switch *classifierBackend {
	case "anthropic":
		classifier = classify.NewAnthropicClient(*anthropicKey, *anthropicModel)
	case "openai":
		classifier = classify.NewOpenAIClient(*openAIKey, *openAIModel)
	default:
		log.Fatalf("Unknown classifier backend %q", *classifierBackend)
	}

	var notifier *notify.Slack
	if *slackToken != "" && *slackChannel != "" {
		notifier = notify.NewSlack(*slackToken, *slackChannel)
	}

	if *ethNetworkUrl != "" {
		disburser, err := rewards.NewDisburser(*ethNetworkUrl, *ethPrivateKey)
		if err != nil {
			log.Fatalf("Failed to create the kitn disburser: %v", err)
		}
		scheduler := rewards.NewScheduler(dbc, disburser)
		if err := scheduler.Start(*disburseSchedule); err != nil {
			log.Fatalf("Failed to schedule kitn disbursement: %v", err)
		}
		defer scheduler.Stop()
	}

	server.StartService(classifier, notifier)
	log.Info("Bye!")
}
