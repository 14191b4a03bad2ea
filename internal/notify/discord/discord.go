// Package discord implements the notify.Notifier for Discord.
package discord

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/askelund/storyrank/internal/notify"
	"github.com/bwmarrin/discordgo"
)

// discordSession abstracts the discordgo methods we use, enabling test mocks.
type discordSession interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	Close() error
}

// Notifier posts backlog events to a Discord channel.
type Notifier struct {
	session   discordSession
	channelID string
}

// New creates a Discord notifier for the given bot token and channel.
// The session sends over REST only; no gateway connection is opened.
func New(token, channelID string) (*Notifier, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord: session: %w", err)
	}
	return &Notifier{session: session, channelID: channelID}, nil
}

// Send posts the event as an embed.
func (n *Notifier) Send(ctx context.Context, ev notify.Event) error {
	embed := &discordgo.MessageEmbed{
		Title:       ev.Headline(),
		Description: ev.Body(),
		Color:       embedColor(ev.Color()),
	}
	if _, err := n.session.ChannelMessageSendEmbed(n.channelID, embed, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: send embed: %w", err)
	}
	return nil
}

// SendDigest posts the digest as plain text.
func (n *Notifier) SendDigest(ctx context.Context, d *notify.Digest) error {
	if _, err := n.session.ChannelMessageSend(n.channelID, d.Text(), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: send digest: %w", err)
	}
	return nil
}

// Close shuts down the session.
func (n *Notifier) Close() error { return n.session.Close() }

// embedColor converts a "#rrggbb" hint to Discord's integer color.
func embedColor(hex string) int {
	v, err := strconv.ParseInt(strings.TrimPrefix(hex, "#"), 16, 32)
	if err != nil {
		return 0
	}
	return int(v)
}
