// Package slack implements the notify.Notifier for Slack.
package slack

import (
	"context"
	"fmt"

	"github.com/askelund/storyrank/internal/notify"
	slackapi "github.com/slack-go/slack"
)

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Notifier posts backlog events to a Slack channel.
type Notifier struct {
	client  slackClient
	channel string
}

// New creates a Slack notifier for the given bot token and channel.
func New(token, channel string) *Notifier {
	return &Notifier{
		client:  slackapi.New(token),
		channel: channel,
	}
}

// Send posts the event as a colored attachment.
func (n *Notifier) Send(ctx context.Context, ev notify.Event) error {
	attachment := slackapi.Attachment{
		Color: ev.Color(),
		Title: ev.Headline(),
		Text:  ev.Body(),
	}
	_, _, err := n.client.PostMessageContext(ctx, n.channel,
		slackapi.MsgOptionAttachments(attachment))
	if err != nil {
		return fmt.Errorf("slack: post message: %w", err)
	}
	return nil
}

// SendDigest posts the digest as plain text.
func (n *Notifier) SendDigest(ctx context.Context, d *notify.Digest) error {
	_, _, err := n.client.PostMessageContext(ctx, n.channel,
		slackapi.MsgOptionText(d.Text(), false))
	if err != nil {
		return fmt.Errorf("slack: post digest: %w", err)
	}
	return nil
}

// Close is a no-op; the Slack client is stateless HTTP.
func (n *Notifier) Close() error { return nil }
