package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/maximgrinin/todolist/internal/logutil"
	"github.com/maximgrinin/todolist/internal/store"
	"github.com/maximgrinin/todolist/internal/tgapi"
	"github.com/maximgrinin/todolist/internal/web"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the account-linking HTTP endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			bind := strings.TrimSpace(flagOrViperString(cmd, "server-bind", "server.bind"))
			port := flagOrViperInt(cmd, "server-port", "server.port")
			auth := strings.TrimSpace(flagOrViperString(cmd, "server-auth-token", "server.auth_token"))
			if auth == "" {
				return fmt.Errorf("missing server.auth_token (set via --server-auth-token or TODOLIST_SERVER_AUTH_TOKEN)")
			}
			token := strings.TrimSpace(flagOrViperString(cmd, "telegram-bot-token", "telegram.bot_token"))
			if token == "" {
				return fmt.Errorf("missing telegram.bot_token (set via --telegram-bot-token or TODOLIST_TELEGRAM_BOT_TOKEN)")
			}
			baseURL := strings.TrimSpace(flagOrViperString(cmd, "telegram-base-url", "telegram.base_url"))
			if baseURL == "" {
				baseURL = "https://api.telegram.org"
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

			api := tgapi.New(&http.Client{Timeout: 60 * time.Second}, baseURL, token)

			srv, err := web.New(web.Options{
				Bind:      bind,
				Port:      port,
				AuthToken: auth,
				Linker:    store.NewSessions(gdb),
				Notifier:  api,
				Logger:    logger,
			})
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().String("server-bind", "127.0.0.1", "Bind address for the linking endpoint.")
	cmd.Flags().Int("server-port", 8787, "Port for the linking endpoint.")
	cmd.Flags().String("server-auth-token", "", "Bearer token required by the linking endpoint.")
	cmd.Flags().String("telegram-bot-token", "", "Telegram bot token (used to notify linked chats).")
	cmd.Flags().String("telegram-base-url", "https://api.telegram.org", "Telegram Bot API base URL.")

	return cmd
}
