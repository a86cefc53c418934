package main

import (
	"log"

	"github.com/slack-go/slack"
)

// NewSlackClient returns a client when Slack delivery is configured,
// nil otherwise.
func NewSlackClient(cfg Config) *slack.Client {
	if !cfg.SlackConfigured() {
		return nil
	}
	return slack.New(cfg.SlackBotToken)
}

// PostReportToSlack pushes the operational report text to the report
// channel. Delivery failures are logged, never fatal: the report files
// on disk are the durable copy.
func PostReportToSlack(api *slack.Client, channelID, report string) {
	_, _, err := api.PostMessage(channelID, slack.MsgOptionText(report, false))
	if err != nil {
		log.Printf("Error posting report to %s: %v", channelID, err)
		return
	}
	log.Printf("Posted daily report to %s", channelID)
}
