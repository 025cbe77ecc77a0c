package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// slackAPI is the slice of the slack client the sender needs.
type slackAPI interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackSender posts alert messages into the tenant's configured channel.
type SlackSender struct {
	api slackAPI
}

func NewSlackSender(botToken string) *SlackSender {
	return &SlackSender{api: slack.New(botToken)}
}

func (s *SlackSender) Send(ctx context.Context, m Message) error {
	if m.SlackChannel == "" {
		return fmt.Errorf("notify: message %s has no slack channel", m.ID)
	}
	text := fmt.Sprintf("*%s*\n%s", m.Subject, m.Body)
	_, _, err := s.api.PostMessageContext(ctx, m.SlackChannel,
		slack.MsgOptionText(text, false),
	)
	if err != nil {
		return fmt.Errorf("notify: slack post to %s: %w", m.SlackChannel, err)
	}
	return nil
}
