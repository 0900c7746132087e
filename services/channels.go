package services

import (
	"context"
	"fmt"

	"github.com/arturocano02/FarmDirect-sub000/models"
	"github.com/arturocano02/FarmDirect-sub000/sender"
)

// Channels routes a rendered notification to the provider for its channel.
// A nil provider means the channel is not configured.
type Channels struct {
	Email sender.EmailSender
	SMS   sender.SMSSender
}

func (c Channels) Configured(channel string) bool {
	switch channel {
	case models.ChannelEmail:
		return c.Email != nil
	case models.ChannelSMS:
		return c.SMS != nil
	}
	return false
}

// ConfiguredChannels lists the channels that have a provider.
func (c Channels) ConfiguredChannels() []string {
	var out []string
	for _, ch := range []string{models.ChannelEmail, models.ChannelSMS} {
		if c.Configured(ch) {
			out = append(out, ch)
		}
	}
	return out
}

func (c Channels) Send(ctx context.Context, channel, to, subject, body string) (sender.SendResult, error) {
	switch channel {
	case models.ChannelEmail:
		if c.Email == nil {
			return sender.SendResult{}, sender.ErrProviderNotConfigured
		}
		return c.Email.SendEmail(ctx, to, subject, body)
	case models.ChannelSMS:
		if c.SMS == nil {
			return sender.SendResult{}, sender.ErrProviderNotConfigured
		}
		return c.SMS.SendSMS(ctx, to, body)
	}
	return sender.SendResult{}, fmt.Errorf("unsupported channel %q", channel)
}
