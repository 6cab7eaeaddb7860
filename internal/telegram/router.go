package telegram

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/AresAzdan/reminderbotancrouxiety/internal/command"
)

// maxMessageLen is Telegram's limit for one text message.
const maxMessageLen = 4096

// Router wires Telegram updates to the command handler. A Telegram chat plays
// the role of both server and channel.
type Router struct {
	bot     *tgbotapi.BotAPI
	log     *zap.Logger
	handler *command.Handler
}

// NewRouter creates a new Telegram router.
func NewRouter(bot *tgbotapi.BotAPI, log *zap.Logger, handler *command.Handler) *Router {
	return &Router{
		bot:     bot,
		log:     log.Named("telegram"),
		handler: handler,
	}
}

// Run registers the command menu and long-polls updates until ctx is done.
func (r *Router) Run(ctx context.Context) error {
	if _, err := r.bot.Request(tgbotapi.NewSetMyCommands(menuCommands()...)); err != nil {
		r.log.Warn("set commands failed", zap.Error(err))
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := r.bot.GetUpdatesChan(u)
	r.log.Info("polling updates", zap.String("bot", r.bot.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			r.bot.StopReceivingUpdates()
			return nil
		case upd, ok := <-updCh:
			if !ok {
				return nil
			}
			r.HandleUpdate(ctx, upd)
		}
	}
}

// HandleUpdate routes a single update. Anything but a known command is ignored.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || msg.Chat == nil || !msg.IsCommand() {
		return
	}
	if msg.From != nil && msg.From.IsBot {
		return
	}

	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	req := command.Request{
		ServerID:  chatID,
		ChannelID: chatID,
		Name:      strings.ToLower(msg.Command()),
		Args:      strings.TrimSpace(msg.CommandArguments()),
	}
	if msg.From != nil {
		req.AuthorID = strconv.FormatInt(msg.From.ID, 10)
	}

	reply, ok := r.handler.Handle(ctx, req)
	if !ok {
		return
	}
	for _, chunk := range command.Chunks(reply, maxMessageLen) {
		if err := r.SendMessage(msg.Chat.ID, chunk); err != nil {
			r.log.Warn("reply failed", zap.Int64("chat", msg.Chat.ID), zap.Error(err))
			return
		}
	}
}

// SendMessage sends a plain text message to the given chat.
func (r *Router) SendMessage(chatID int64, text string) error {
	_, err := r.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}
