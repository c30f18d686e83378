package bot

import (
	"context"
	"fmt"
	"strings"
)

// Run polls for updates until ctx is canceled or the transport fails. The
// offset advances past every update before it is handled, so a failing
// message is never reprocessed. Transport errors propagate out and end the
// loop; restart is an operational concern.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("bot_start", "poll_timeout", b.pollTimeout.String())

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		updates, err := b.transport.GetUpdates(ctx, b.offset, b.pollTimeout)
		if err != nil {
			return fmt.Errorf("fetch updates: %w", err)
		}

		for _, u := range updates {
			if u.UpdateID >= b.offset {
				b.offset = u.UpdateID + 1
			}
			msg := u.Message
			if msg == nil || msg.Chat == nil {
				b.logger.Warn("malformed_update", "update_id", u.UpdateID)
				continue
			}
			if err := b.handleMessage(ctx, msg.Chat.ID, msg.Text); err != nil {
				b.logger.Error("handle_message_error",
					"chat_id", msg.Chat.ID,
					"update_id", u.UpdateID,
					"error", err.Error(),
				)
			}
		}
	}
}

// Offset reports the next unconsumed update position.
func (b *Bot) Offset() int64 {
	return b.offset
}

func (b *Bot) handleMessage(ctx context.Context, chatID int64, text string) error {
	sess, created, err := b.sessions.GetOrCreate(ctx, chatID)
	if err != nil {
		return fmt.Errorf("resolve session: %w", err)
	}
	if created {
		b.logger.Info("chat_session_created", "chat_id", chatID)
		if err := b.transport.SendMessage(ctx, chatID, replyGreeting); err != nil {
			return fmt.Errorf("send greeting: %w", err)
		}
	}

	// Unlinked chats only ever get a fresh verification code; their text is
	// never treated as a command. Regenerating on every message invalidates
	// any previously issued code.
	if !sess.Linked {
		code, err := b.sessions.SetVerificationCode(ctx, chatID)
		if err != nil {
			return fmt.Errorf("set verification code: %w", err)
		}
		return b.transport.SendMessage(ctx, chatID, replyVerificationCode+code)
	}

	return b.dispatch(ctx, sess, strings.TrimSpace(text))
}
