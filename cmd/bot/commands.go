package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AresAzdan/reminderbotancrouxiety/internal/app"
	"github.com/AresAzdan/reminderbotancrouxiety/internal/command"
	"github.com/AresAzdan/reminderbotancrouxiety/internal/config"
	"github.com/AresAzdan/reminderbotancrouxiety/internal/domain"
	"github.com/AresAzdan/reminderbotancrouxiety/internal/export"
	"github.com/AresAzdan/reminderbotancrouxiety/internal/logger"
	"github.com/AresAzdan/reminderbotancrouxiety/internal/store"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Connect to the chat platform and deliver reminders (default)",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("%w: %v", errConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", errConfig, err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("%w: logger init: %v", errConfig, err)
	}
	// Ensure logger flush; ignore sync error (common on some platforms).
	defer func() { _ = log.Sync() }()

	application, err := app.New(cmd.Context(), cfg, log)
	if err != nil {
		log.Error("app init failed", zap.Error(err))
		return err
	}
	if err := application.Run(cmd.Context()); err != nil {
		log.Error("app run failed", zap.Error(err))
		return err
	}
	return nil
}

func parseCmd() *cobra.Command {
	var nowFlag string
	cmd := &cobra.Command{
		Use:   "parse [text]",
		Short: "Show how a reminder text would be scheduled",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := location()
			if err != nil {
				return err
			}
			now := time.Now().In(loc)
			if nowFlag != "" {
				if now, err = time.ParseInLocation("2006-01-02 15:04", nowFlag, loc); err != nil {
					return fmt.Errorf("--now: %w", err)
				}
			}
			return describe(cmd.OutOrStdout(), strings.Join(args, " "), now, loc)
		},
	}
	cmd.Flags().StringVar(&nowFlag, "now", "", `reference time "YYYY-MM-DD HH:MM" in the bot timezone`)
	return cmd
}

func describe(w io.Writer, text string, now time.Time, loc *time.Location) error {
	in, err := domain.Resolve(text, now)
	if err != nil {
		return fmt.Errorf("%q: %w", text, err)
	}
	fmt.Fprintf(w, "kind:    %s\n", in.Schedule.Kind)
	fmt.Fprintf(w, "when:    %s\n", in.Schedule.Describe(loc))
	fmt.Fprintf(w, "message: %s\n", in.Message(text))
	return nil
}

func listCmd() *cobra.Command {
	var server string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print stored reminders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), func(repo store.Repo, loc *time.Location) error {
				var (
					rems []domain.Reminder
					err  error
				)
				if server != "" {
					rems, err = repo.ListByServer(cmd.Context(), server)
				} else {
					rems, err = repo.ListAll(cmd.Context())
				}
				if err := tolerateCorrupt(cmd, err); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, r := range rems {
					fmt.Fprintf(out, "[%s] %s\n", r.ServerID, command.FormatLine(r, loc))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&server, "server", "s", "", "only reminders of this server/chat id")
	return cmd
}

func exportCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Dump all reminders as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), func(repo store.Repo, loc *time.Location) error {
				rems, err := repo.ListAll(cmd.Context())
				if err := tolerateCorrupt(cmd, err); err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if outPath != "" {
					f, err := os.Create(outPath)
					if err != nil {
						return err
					}
					defer f.Close()
					w = f
				}
				return export.Write(w, export.Build(rems, loc, time.Now()))
			})
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write to file instead of stdout")
	return cmd
}

// withStore opens the configured store for an offline command.
func withStore(ctx context.Context, fn func(store.Repo, *time.Location) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("%w: %v", errConfig, err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("%w: %v", errConfig, err)
	}
	repo, err := app.OpenStore(ctx, cfg, loc)
	if err != nil {
		return err
	}
	defer repo.Close()
	return fn(repo, loc)
}

func location() (*time.Location, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errConfig, err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errConfig, err)
	}
	return loc, nil
}

// tolerateCorrupt lets listing go on past undecodable rows.
func tolerateCorrupt(cmd *cobra.Command, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrCorrupt) {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", err)
		return nil
	}
	return err
}
