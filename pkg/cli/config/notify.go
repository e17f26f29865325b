package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/trustflow/pkg/domain/interfaces"
	"github.com/secmon-lab/trustflow/pkg/service/notify"
	"github.com/urfave/cli/v3"
)

// Notify holds CLI flags for chat notifications
type Notify struct {
	slackWebhookURL string
	slackChannel    string
	teamsWebhookURL string
}

func (x *Notify) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-webhook-url",
			Category:    "Notification",
			Usage:       "Slack incoming webhook URL for issue notifications",
			Sources:     cli.EnvVars("TRUSTFLOW_SLACK_WEBHOOK_URL"),
			Destination: &x.slackWebhookURL,
		},
		&cli.StringFlag{
			Name:        "slack-channel",
			Category:    "Notification",
			Usage:       "Override the channel of the Slack webhook",
			Sources:     cli.EnvVars("TRUSTFLOW_SLACK_CHANNEL"),
			Destination: &x.slackChannel,
		},
		&cli.StringFlag{
			Name:        "teams-webhook-url",
			Category:    "Notification",
			Usage:       "Microsoft Teams incoming webhook URL for issue notifications",
			Sources:     cli.EnvVars("TRUSTFLOW_TEAMS_WEBHOOK_URL"),
			Destination: &x.teamsWebhookURL,
		},
	}
}

func (x Notify) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("slack", x.slackWebhookURL != ""),
		slog.String("slack_channel", x.slackChannel),
		slog.Bool("teams", x.teamsWebhookURL != ""),
	)
}

// Configure returns the notifier of every configured channel, or nil when none is configured
func (x *Notify) Configure() (interfaces.Notifier, error) {
	var notifiers notify.Multi

	if x.slackWebhookURL != "" {
		n, err := notify.NewSlack(x.slackWebhookURL, notify.WithSlackChannel(x.slackChannel))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to configure slack notifier")
		}
		notifiers = append(notifiers, n)
	}

	if x.teamsWebhookURL != "" {
		n, err := notify.NewTeams(x.teamsWebhookURL)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to configure teams notifier")
		}
		notifiers = append(notifiers, n)
	}

	if len(notifiers) == 0 {
		return nil, nil
	}
	return notifiers, nil
}
