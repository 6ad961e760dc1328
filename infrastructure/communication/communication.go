// Package communication posts operational notifications to Slack. All sends
// are best-effort: a failed post is logged by the caller, never propagated.
package communication

import (
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"vks.la/patrol/model"
)

type Notifier struct {
	client       *slack.Client
	alertChannel string
}

func NewNotifier(token, alertChannel string) *Notifier {
	return &Notifier{
		client:       slack.New(token),
		alertChannel: alertChannel,
	}
}

func (n *Notifier) postMessage(channelID, message string) error {
	_, _, err := n.client.PostMessage(
		channelID,
		slack.MsgOptionText(message, false),
		slack.MsgOptionAsUser(true),
	)
	if err != nil {
		return fmt.Errorf("failed to post message to Slack: %w", err)
	}
	return nil
}

// AlertSites posts a summary of sites classified as alert after an
// aggregation run. No-op when nothing is alerting.
func (n *Notifier) AlertSites(aggregates []model.SiteAggregate) error {
	var lines []string
	for _, a := range aggregates {
		if a.Status != model.SiteStatusAlert {
			continue
		}
		lines = append(lines, fmt.Sprintf("• %s (%s): %d issue visits, %d sleeping incidents",
			a.Code, a.NameEN, a.IssueCount, a.Discipline.Sleeping.Count))
	}
	if len(lines) == 0 {
		return nil
	}

	message := fmt.Sprintf(":rotating_light: %d site(s) in alert state\n%s",
		len(lines), strings.Join(lines, "\n"))
	return n.postMessage(n.alertChannel, message)
}
