package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/maximgrinin/todolist/internal/bot"
	"github.com/maximgrinin/todolist/internal/logutil"
	"github.com/maximgrinin/todolist/internal/store"
	"github.com/maximgrinin/todolist/internal/tgapi"
)

func newBotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot dispatch loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			token := strings.TrimSpace(flagOrViperString(cmd, "telegram-bot-token", "telegram.bot_token"))
			if token == "" {
				return fmt.Errorf("missing telegram.bot_token (set via --telegram-bot-token or TODOLIST_TELEGRAM_BOT_TOKEN)")
			}
			baseURL := strings.TrimSpace(flagOrViperString(cmd, "telegram-base-url", "telegram.base_url"))
			if baseURL == "" {
				baseURL = "https://api.telegram.org"
			}
			pollTimeout := flagOrViperDuration(cmd, "telegram-poll-timeout", "telegram.poll_timeout")
			if pollTimeout <= 0 {
				pollTimeout = 30 * time.Second
			}

			logger, err := logutil.LoggerFromViper()
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			gdb, err := openDatabase()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			httpClient := &http.Client{Timeout: pollTimeout + 30*time.Second}
			api := tgapi.New(httpClient, baseURL, token)

			me, err := api.GetMe(ctx)
			if err != nil {
				return err
			}
			logger.Info("telegram_start",
				"base_url", baseURL,
				"bot_username", me.Username,
				"bot_id", me.ID,
				"poll_timeout", pollTimeout.String(),
			)

			b, err := bot.New(bot.Options{
				Transport:   api,
				Sessions:    store.NewSessions(gdb),
				Tasks:       store.NewTasks(gdb),
				Logger:      logger,
				PollTimeout: pollTimeout,
			})
			if err != nil {
				return err
			}
			if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().String("telegram-bot-token", "", "Telegram bot token.")
	cmd.Flags().String("telegram-base-url", "https://api.telegram.org", "Telegram Bot API base URL.")
	cmd.Flags().Duration("telegram-poll-timeout", 30*time.Second, "Long polling timeout for getUpdates.")

	return cmd
}
