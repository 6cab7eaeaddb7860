package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/AresAzdan/reminderbotancrouxiety/internal/command"
	"github.com/AresAzdan/reminderbotancrouxiety/internal/config"
	"github.com/AresAzdan/reminderbotancrouxiety/internal/discord"
	"github.com/AresAzdan/reminderbotancrouxiety/internal/dispatch"
	"github.com/AresAzdan/reminderbotancrouxiety/internal/keepalive"
	"github.com/AresAzdan/reminderbotancrouxiety/internal/scheduler"
	"github.com/AresAzdan/reminderbotancrouxiety/internal/store"
	"github.com/AresAzdan/reminderbotancrouxiety/internal/telegram"
)

// Platform is a chat connection: it receives commands while Run blocks and
// delivers notifications through the Gateway methods.
type Platform interface {
	dispatch.Gateway
	Run(ctx context.Context) error
}

type App struct {
	cfg      config.Config
	log      *zap.Logger
	repo     store.Repo
	platform Platform
	sched    *scheduler.Scheduler
	httpSrv  *keepalive.Server
}

// New opens the store and builds every component. Nothing runs until Run.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	repo, err := OpenStore(ctx, cfg, loc)
	if err != nil {
		return nil, err
	}
	log.Info("store ready", zap.String("driver", cfg.StoreDriver))

	platform, err := newPlatform(cfg, log, repo, loc)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}

	sched := scheduler.New(repo, log, dispatch.New(platform, log), loc,
		scheduler.WithInterval(cfg.SweepInterval),
		scheduler.WithDeliveryTimeout(cfg.DeliveryTimeout),
	)

	a := &App{cfg: cfg, log: log, repo: repo, platform: platform, sched: sched}
	if cfg.HTTPAddr != "" {
		a.httpSrv = keepalive.NewServer(cfg.HTTPAddr, log)
	}
	return a, nil
}

// OpenStore opens the configured reminder store.
func OpenStore(ctx context.Context, cfg config.Config, loc *time.Location) (store.Repo, error) {
	switch cfg.StoreDriver {
	case "memory":
		return store.NewMemory(loc), nil
	case "sqlite", "":
		repo, err := store.OpenSQLite(ctx, cfg.DBPath, loc)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.DBPath, err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrStoreDriver, cfg.StoreDriver)
	}
}

func newPlatform(cfg config.Config, log *zap.Logger, repo store.Repo, loc *time.Location) (Platform, error) {
	switch cfg.Platform {
	case "telegram":
		bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
		if err != nil {
			return nil, fmt.Errorf("telegram: %w", err)
		}
		bot.Debug = false
		h := command.NewHandler(repo, log, loc, command.WithPrefix(telegram.Prefix))
		return telegram.NewRouter(bot, log, h), nil
	case "discord":
		prefixes := cfg.Prefixes()
		h := command.NewHandler(repo, log, loc, command.WithPrefix(prefixes[0]))
		return discord.New(cfg.BotToken, log, h, prefixes)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrPlatform, cfg.Platform)
	}
}

// Run serves until ctx is canceled or SIGINT/SIGTERM arrives.
func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting reminder bot",
		zap.String("platform", a.cfg.Platform),
		zap.String("timezone", a.cfg.Timezone),
		zap.String("http", a.cfg.HTTPAddr),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.httpSrv != nil {
		a.httpSrv.Start()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.sched.Run(ctx)
	}()

	runErr := a.platform.Run(ctx)
	if runErr != nil {
		a.log.Error("platform stopped", zap.Error(runErr))
	} else {
		a.log.Info("shutdown signal received")
	}
	stop()
	wg.Wait()

	if a.httpSrv != nil {
		// Create a short-lived shutdown context and cancel it immediately after use.
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := a.httpSrv.Shutdown(shCtx)
		cancel()
		if err != nil {
			a.log.Warn("http server shutdown error", zap.Error(err))
		}
	}
	if err := a.repo.Close(); err != nil {
		a.log.Warn("store close error", zap.Error(err))
	}
	return runErr
}
