package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/trustflow/pkg/domain/interfaces"
	"github.com/secmon-lab/trustflow/pkg/domain/model"
	"github.com/secmon-lab/trustflow/pkg/utils/safe"
)

// Teams posts MessageCard notifications to a Microsoft Teams incoming webhook
type Teams struct {
	webhookURL string
	client     *http.Client
}

var _ interfaces.Notifier = &Teams{}

type TeamsOption func(*Teams)

// WithTeamsHTTPClient replaces the default HTTP client
func WithTeamsHTTPClient(client *http.Client) TeamsOption {
	return func(t *Teams) {
		t.client = client
	}
}

func NewTeams(webhookURL string, opts ...TeamsOption) (*Teams, error) {
	if webhookURL == "" {
		return nil, goerr.New("Teams webhook URL is required")
	}

	t := &Teams{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

type messageCard struct {
	Type       string        `json:"@type"`
	Context    string        `json:"@context"`
	Summary    string        `json:"summary"`
	ThemeColor string        `json:"themeColor"`
	Title      string        `json:"title"`
	Sections   []cardSection `json:"sections"`
}

type cardSection struct {
	ActivityTitle string     `json:"activityTitle"`
	Facts         []cardFact `json:"facts"`
}

type cardFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (t *Teams) IssueCreated(ctx context.Context, issue *model.IssueView) error {
	return t.post(ctx, issue, createdText(issue))
}

func (t *Teams) IssueStatusChanged(ctx context.Context, issue *model.IssueView, oldStatus, newStatus string) error {
	return t.post(ctx, issue, statusChangedText(issue, oldStatus, newStatus))
}

func (t *Teams) post(ctx context.Context, issue *model.IssueView, text string) error {
	card := messageCard{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		Summary:    text,
		ThemeColor: "0076D7",
		Title:      text,
		Sections:   []cardSection{{ActivityTitle: issue.Title}},
	}
	for _, f := range issueFacts(issue) {
		card.Sections[0].Facts = append(card.Sections[0].Facts, cardFact{Name: f[0], Value: f[1]})
	}

	body, err := json.Marshal(card)
	if err != nil {
		return goerr.Wrap(err, "failed to encode Teams message card")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.webhookURL, bytes.NewReader(body))
	if err != nil {
		return goerr.Wrap(err, "failed to create Teams webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return goerr.Wrap(err, "failed to post Teams webhook", goerr.V("issue", issue.HumanID))
	}
	defer safe.DrainClose(ctx, resp.Body, "target", "teams")

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return goerr.New("Teams webhook rejected message",
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(msg)),
			goerr.V("issue", issue.HumanID))
	}
	return nil
}
