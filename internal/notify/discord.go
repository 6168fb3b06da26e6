package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/sadopc/pomofocus/internal/timer"
)

// MessageSender is the part of a discordgo session the sink needs.
type MessageSender interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Discord posts boundaries to a channel.
type Discord struct {
	sender    MessageSender
	channelID string
}

// NewDiscord builds a sink around an existing sender.
func NewDiscord(sender MessageSender, channelID string) *Discord {
	return &Discord{sender: sender, channelID: channelID}
}

// DialDiscord creates a bot session for token. Sending a channel message
// goes through the REST API, so no gateway connection is opened.
func DialDiscord(token, channelID string) (*Discord, error) {
	if token == "" || channelID == "" {
		return nil, errors.New("discord token and channel are required")
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return NewDiscord(session, channelID), nil
}

func (d *Discord) OnSessionBoundary(ctx context.Context, next timer.SessionType) error {
	msg := MessageFor(next)
	content := fmt.Sprintf("**%s** %s", msg.Title, msg.Body)
	if _, err := d.sender.ChannelMessageSend(d.channelID, content, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send discord message: %w", err)
	}
	return nil
}
