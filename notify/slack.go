// Package notify pushes high severity report alerts to a Slack channel.
package notify

import (
	"fmt"
	"strings"

	"github.com/apex/log"
	"github.com/slack-go/slack"

	"wastemap/classify"
	"wastemap/locate"
)

type Slack struct {
	client  *slack.Client
	channel string
}

func NewSlack(token, channel string, opts ...slack.Option) *Slack {
	return &Slack{
		client:  slack.New(token, opts...),
		channel: channel,
	}
}

// ReportAlert posts one message per report. Failures are logged and
// dropped; alerting never blocks report intake.
func (s *Slack) ReportAlert(seq int64, cls *classify.Classification, loc *locate.Coordinate) {
	_, _, err := s.client.PostMessage(s.channel,
		slack.MsgOptionText(formatAlert(seq, cls, loc), false))
	if err != nil {
		log.Errorf("Failed to post alert for report %d: %v", seq, err)
	}
}

func formatAlert(seq int64, cls *classify.Classification, loc *locate.Coordinate) string {
	var b strings.Builder
	fmt.Fprintf(&b, ":rotating_light: %s severity waste report #%d\n", cls.Severity, seq)
	fmt.Fprintf(&b, "%s (%s, confidence %.2f)", cls.Reason, strings.Join(cls.WasteTypes, ", "), cls.Confidence)
	if loc != nil {
		fmt.Fprintf(&b, "\nhttps://maps.google.com/?q=%f,%f", loc.Latitude, loc.Longitude)
	} else {
		b.WriteString("\nNo location attached.")
	}
	return b.String()
}
