// Package command turns chat commands into reminder store operations and
// reply texts. It knows nothing about the chat platform.
package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AresAzdan/reminderbotancrouxiety/assets"
	"github.com/AresAzdan/reminderbotancrouxiety/internal/domain"
	"github.com/AresAzdan/reminderbotancrouxiety/internal/store"
)

// Request is one inbound command, already stripped of its prefix.
type Request struct {
	ServerID  string
	ChannelID string
	AuthorID  string
	Name      string
	Args      string
}

// Handler executes commands against the store.
type Handler struct {
	repo   store.Repo
	log    *zap.Logger
	loc    *time.Location
	now    func() time.Time
	prefix string
}

// Option customizes a Handler.
type Option func(*Handler)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// WithPrefix sets the prefix shown in usage hints and help.
func WithPrefix(p string) Option {
	return func(h *Handler) { h.prefix = p }
}

func NewHandler(repo store.Repo, log *zap.Logger, loc *time.Location, opts ...Option) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	h := &Handler{
		repo:   repo,
		log:    log.Named("command"),
		loc:    loc,
		now:    time.Now,
		prefix: "rem!",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle runs the request and returns the reply. ok is false for commands
// this bot does not know, which should be ignored silently.
func (h *Handler) Handle(ctx context.Context, req Request) (reply string, ok bool) {
	log := h.log.With(
		zap.String("req", uuid.NewString()),
		zap.String("cmd", req.Name),
		zap.String("server", req.ServerID),
		zap.String("author", req.AuthorID),
	)

	switch req.Name {
	case "rem":
		return h.create(ctx, log, req), true
	case "list", "show", "all":
		return h.list(ctx, log, req), true
	case "edit":
		return h.edit(ctx, log, req), true
	case "hapus", "del", "delete", "remove":
		return h.remove(ctx, log, req), true
	case "bantuan", "help", "start":
		return assets.Help(h.prefix), true
	default:
		return "", false
	}
}

func (h *Handler) create(ctx context.Context, log *zap.Logger, req Request) string {
	if strings.TrimSpace(req.Args) == "" {
		return fmt.Sprintf(textCreateUsage, h.prefix)
	}
	in, err := domain.Resolve(req.Args, h.now().In(h.loc))
	if err != nil {
		log.Debug("unrecognized schedule", zap.String("args", req.Args))
		return fmt.Sprintf(textUnrecognized, h.prefix)
	}

	rem := &domain.Reminder{
		ServerID:  req.ServerID,
		ChannelID: req.ChannelID,
		AuthorID:  req.AuthorID,
		Text:      in.Message(req.Args),
		Schedule:  in.Schedule,
	}
	id, err := h.repo.Create(ctx, rem)
	if err != nil {
		log.Error("create reminder failed", zap.Error(err))
		return textStoreFailure
	}
	log.Info("reminder created", zap.Int64("id", id), zap.Stringer("kind", rem.Schedule.Kind))

	if rem.Schedule.Kind == domain.KindWeekly {
		return fmt.Sprintf(textCreatedWeekly, id, rem.Schedule.Describe(h.loc), rem.Text)
	}
	return fmt.Sprintf(textCreatedOnce, id, rem.Schedule.Describe(h.loc), rem.Text)
}

func (h *Handler) list(ctx context.Context, log *zap.Logger, req Request) string {
	rems, err := h.repo.ListByServer(ctx, req.ServerID)
	if err != nil {
		log.Error("list reminders failed", zap.Error(err))
		if len(rems) == 0 {
			return textStoreFailure
		}
	}
	if len(rems) == 0 {
		return textNoReminders
	}

	lines := make([]string, 0, len(rems)+1)
	lines = append(lines, textListHeader)
	for _, r := range rems {
		lines = append(lines, FormatLine(r, h.loc))
	}
	return strings.Join(lines, "\n")
}

// FormatLine renders one reminder for the list reply.
func FormatLine(r domain.Reminder, loc *time.Location) string {
	s := r.Schedule
	if s.Kind == domain.KindWeekly {
		return fmt.Sprintf("%d. (weekly) %s — %s on %s",
			r.ID, r.Text, domain.FormatClock(s.Hour, s.Minute), domain.FormatDays(s.Days))
	}
	return fmt.Sprintf("%d. (once) %s — %s", r.ID, r.Text, domain.FormatInstant(s.At, loc))
}

func (h *Handler) edit(ctx context.Context, log *zap.Logger, req Request) string {
	idText, rest := splitFirst(req.Args)
	id, err := strconv.ParseInt(idText, 10, 64)
	if err != nil || rest == "" {
		return fmt.Sprintf(textEditUsage, h.prefix)
	}

	if _, err := h.repo.Get(ctx, req.ServerID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Sprintf(textNotFound, id)
		}
		log.Error("get reminder failed", zap.Error(err), zap.Int64("id", id))
		return textStoreFailure
	}

	in, err := domain.Resolve(rest, h.now().In(h.loc))
	if err != nil {
		return fmt.Sprintf(textUnrecognized, h.prefix)
	}
	text := in.Message(rest)

	if err := h.repo.Update(ctx, req.ServerID, id, text, in.Schedule); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Sprintf(textNotFound, id)
		}
		log.Error("update reminder failed", zap.Error(err), zap.Int64("id", id))
		return textStoreFailure
	}
	log.Info("reminder updated", zap.Int64("id", id), zap.Stringer("kind", in.Schedule.Kind))
	return fmt.Sprintf(textUpdated, id, in.Schedule.Describe(h.loc), text)
}

func (h *Handler) remove(ctx context.Context, log *zap.Logger, req Request) string {
	id, err := strconv.ParseInt(strings.TrimSpace(req.Args), 10, 64)
	if err != nil {
		return fmt.Sprintf(textDeleteUsage, h.prefix)
	}
	deleted, err := h.repo.Delete(ctx, req.ServerID, id)
	if err != nil {
		log.Error("delete reminder failed", zap.Error(err), zap.Int64("id", id))
		return textStoreFailure
	}
	if !deleted {
		return fmt.Sprintf(textNotFound, id)
	}
	log.Info("reminder deleted", zap.Int64("id", id))
	return fmt.Sprintf(textDeleted, id)
}
