// Package dispatch delivers due reminders to chat channels.
package dispatch

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Outcome is the result of one delivery attempt.
type Outcome int

const (
	Delivered Outcome = iota
	// TargetGone means the server no longer exists or the bot left it.
	TargetGone
	// ChannelGone means the server exists but the channel does not.
	ChannelGone
	// Failed means the platform rejected or dropped the message.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case TargetGone:
		return "target_gone"
	case ChannelGone:
		return "channel_gone"
	default:
		return "failed"
	}
}

// Gateway is what a chat platform offers for outbound notifications.
type Gateway interface {
	ServerExists(ctx context.Context, serverID string) (bool, error)
	ChannelExists(ctx context.Context, serverID, channelID string) (bool, error)
	Mention(userID string) string
	Send(ctx context.Context, channelID, text string) error
}

// Dispatcher formats reminder notifications and sends them once, without retry.
type Dispatcher struct {
	gw  Gateway
	log *zap.Logger
}

func New(gw Gateway, log *zap.Logger) *Dispatcher {
	return &Dispatcher{gw: gw, log: log.Named("dispatch")}
}

// Deliver resolves the server and channel, then sends the reminder text
// mentioning userID. Missing targets are reported through the outcome, not
// as errors.
func (d *Dispatcher) Deliver(ctx context.Context, serverID, channelID, userID, text string) (Outcome, error) {
	ok, err := d.gw.ServerExists(ctx, serverID)
	if err != nil {
		return Failed, fmt.Errorf("resolve server %s: %w", serverID, err)
	}
	if !ok {
		d.log.Debug("server gone", zap.String("server", serverID))
		return TargetGone, nil
	}

	ok, err = d.gw.ChannelExists(ctx, serverID, channelID)
	if err != nil {
		return Failed, fmt.Errorf("resolve channel %s: %w", channelID, err)
	}
	if !ok {
		d.log.Debug("channel gone", zap.String("server", serverID), zap.String("channel", channelID))
		return ChannelGone, nil
	}

	if err := d.gw.Send(ctx, channelID, Format(d.gw.Mention(userID), text)); err != nil {
		return Failed, fmt.Errorf("send to %s: %w", channelID, err)
	}
	return Delivered, nil
}

// Format builds the notification body: "⏰ <mention> <text>".
func Format(mention, text string) string {
	parts := []string{"⏰"}
	if mention != "" {
		parts = append(parts, mention)
	}
	parts = append(parts, text)
	return strings.Join(parts, " ")
}
