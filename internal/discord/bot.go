// Package discord connects the reminder commands and notifications to a
// Discord bot session.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/AresAzdan/reminderbotancrouxiety/internal/command"
)

// maxMessageLen is Discord's limit for one message.
const maxMessageLen = 2000

// Bot owns the gateway session.
type Bot struct {
	s        *discordgo.Session
	log      *zap.Logger
	handler  *command.Handler
	prefixes []string
}

// New prepares a session; nothing connects until Run.
func New(token string, log *zap.Logger, handler *command.Handler, prefixes []string) (*Bot, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	b := &Bot{s: s, log: log.Named("discord"), handler: handler, prefixes: prefixes}
	s.AddHandler(b.onMessage)
	s.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		b.log.Info("connected", zap.String("user", r.User.Username), zap.Int("guilds", len(r.Guilds)))
	})
	return b, nil
}

// Run opens the gateway and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.s.Open(); err != nil {
		return fmt.Errorf("discord open: %w", err)
	}
	<-ctx.Done()
	if err := b.s.Close(); err != nil {
		b.log.Warn("discord close", zap.Error(err))
	}
	return nil
}

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	reply, ok := b.replyFor(context.Background(), m.Message)
	if !ok {
		return
	}
	for _, chunk := range command.Chunks(reply, maxMessageLen) {
		if _, err := s.ChannelMessageSend(m.ChannelID, chunk); err != nil {
			b.log.Warn("reply failed", zap.String("channel", m.ChannelID), zap.Error(err))
			return
		}
	}
}

// replyFor decides the answer to a message; ok is false when the bot stays
// silent.
func (b *Bot) replyFor(ctx context.Context, m *discordgo.Message) (string, bool) {
	if m == nil || m.Author == nil || m.Author.Bot {
		return "", false
	}
	name, args, ok := command.ParseCommand(m.Content, b.prefixes)
	if !ok {
		return "", false
	}
	if m.GuildID == "" {
		return command.TextServerOnly, true
	}
	return b.handler.Handle(ctx, command.Request{
		ServerID:  m.GuildID,
		ChannelID: m.ChannelID,
		AuthorID:  m.Author.ID,
		Name:      name,
		Args:      args,
	})
}

// ServerExists reports whether the bot is still a member of the guild.
func (b *Bot) ServerExists(ctx context.Context, serverID string) (bool, error) {
	if g, err := b.s.State.Guild(serverID); err == nil && g != nil {
		return true, nil
	}
	_, err := b.s.Guild(serverID, discordgo.WithContext(ctx))
	if err == nil {
		return true, nil
	}
	if isGone(err, discordgo.ErrCodeUnknownGuild) {
		return false, nil
	}
	return false, fmt.Errorf("guild %s: %w", serverID, err)
}

// ChannelExists reports whether the channel exists and belongs to the guild.
func (b *Bot) ChannelExists(ctx context.Context, serverID, channelID string) (bool, error) {
	ch, err := b.s.State.Channel(channelID)
	if err != nil {
		ch, err = b.s.Channel(channelID, discordgo.WithContext(ctx))
	}
	if err != nil {
		if isGone(err, discordgo.ErrCodeUnknownChannel) {
			return false, nil
		}
		return false, fmt.Errorf("channel %s: %w", channelID, err)
	}
	return ch.GuildID == serverID, nil
}

func (b *Bot) Mention(userID string) string { return "<@" + userID + ">" }

func (b *Bot) Send(ctx context.Context, channelID, text string) error {
	_, err := b.s.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx))
	return err
}

// isGone recognizes REST answers meaning the target no longer exists or the
// bot lost access to it.
func isGone(err error, unknownCode int) bool {
	var rest *discordgo.RESTError
	if !errors.As(err, &rest) {
		return false
	}
	if rest.Message != nil {
		switch rest.Message.Code {
		case unknownCode, discordgo.ErrCodeMissingAccess:
			return true
		}
	}
	if rest.Response == nil {
		return false
	}
	return rest.Response.StatusCode == http.StatusNotFound || rest.Response.StatusCode == http.StatusForbidden
}
