package notify

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/trustflow/pkg/domain/interfaces"
	"github.com/secmon-lab/trustflow/pkg/domain/model"
	"github.com/slack-go/slack"
)

// Slack posts notifications to a Slack incoming webhook
type Slack struct {
	webhookURL string
	channel    string
}

var _ interfaces.Notifier = &Slack{}

type SlackOption func(*Slack)

// WithSlackChannel overrides the webhook's default channel
func WithSlackChannel(channel string) SlackOption {
	return func(s *Slack) {
		s.channel = channel
	}
}

func NewSlack(webhookURL string, opts ...SlackOption) (*Slack, error) {
	if webhookURL == "" {
		return nil, goerr.New("Slack webhook URL is required")
	}

	s := &Slack{webhookURL: webhookURL}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Slack) IssueCreated(ctx context.Context, issue *model.IssueView) error {
	return s.post(ctx, issue, createdText(issue))
}

func (s *Slack) IssueStatusChanged(ctx context.Context, issue *model.IssueView, oldStatus, newStatus string) error {
	return s.post(ctx, issue, statusChangedText(issue, oldStatus, newStatus))
}

func (s *Slack) post(ctx context.Context, issue *model.IssueView, text string) error {
	var fields []*slack.TextBlockObject
	for _, f := range issueFacts(issue) {
		fields = append(fields, slack.NewTextBlockObject(slack.MarkdownType, "*"+f[0]+"*\n"+f[1], false, false))
	}

	blocks := []slack.Block{
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, "*"+text+"*", false, false), nil, nil),
		slack.NewSectionBlock(nil, fields, nil),
	}

	msg := &slack.WebhookMessage{
		Channel: s.channel,
		Text:    text,
		Blocks:  &slack.Blocks{BlockSet: blocks},
	}

	if err := slack.PostWebhookContext(ctx, s.webhookURL, msg); err != nil {
		return goerr.Wrap(err, "failed to post Slack webhook", goerr.V("issue", issue.HumanID))
	}
	return nil
}
