package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ServerExists reports whether the bot can still see the chat.
func (r *Router) ServerExists(ctx context.Context, serverID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	id, err := strconv.ParseInt(serverID, 10, 64)
	if err != nil {
		return false, nil
	}
	_, err = r.bot.GetChat(tgbotapi.ChatInfoConfig{ChatConfig: tgbotapi.ChatConfig{ChatID: id}})
	if err == nil {
		return true, nil
	}
	if isGone(err) {
		return false, nil
	}
	return false, fmt.Errorf("get chat %d: %w", id, err)
}

// ChannelExists holds when the channel is the chat itself; chats have no
// sub-channels here.
func (r *Router) ChannelExists(_ context.Context, serverID, channelID string) (bool, error) {
	return serverID == channelID, nil
}

// Mention is empty: plain-text messages cannot address a user by id.
func (r *Router) Mention(string) string { return "" }

func (r *Router) Send(ctx context.Context, channelID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id, err := strconv.ParseInt(channelID, 10, 64)
	if err != nil {
		return fmt.Errorf("chat id %q: %w", channelID, err)
	}
	return r.SendMessage(id, text)
}

// isGone recognizes "chat not found" and "bot was kicked" API answers.
func isGone(err error) bool {
	var code int
	var ptr *tgbotapi.Error
	var val tgbotapi.Error
	switch {
	case errors.As(err, &ptr):
		code = ptr.Code
	case errors.As(err, &val):
		code = val.Code
	default:
		return false
	}
	return code == http.StatusBadRequest || code == http.StatusForbidden
}
