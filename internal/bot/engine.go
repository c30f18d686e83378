package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/maximgrinin/todolist/internal/store"
)

const (
	replyGreeting         = "Hello!"
	replyVerificationCode = "Your verification code is: "
	replyEmptyGoals       = "goals list is empty"
	replyNoCategories     = "you have no categories"
	replyChooseCategory   = "choose a category:"
	replyAskGoalTitle     = "send a title for the new goal"
	replyBadCategory      = "category does not exist"
	replyCanceled         = "operation was canceled"
	replyUnknownCommand   = "unknown command, send /goals or /create"
	replyUsage            = "send /goals or /create"
	replyEmptyTitle       = "goal title must not be empty"
	replyCategoryGone     = "category no longer available"
	replyInternalError    = "internal error, try again later"
)

type stateKind int

const (
	stateIdle stateKind = iota
	stateAwaitingCategory
	stateAwaitingTitle
)

// convState is the per-chat dialog position. The zero value is Idle; the
// category snapshot is taken when /create starts and never re-read from the
// store mid-dialog.
type convState struct {
	kind       stateKind
	categories []store.Category
	selected   store.Category
}

// dispatch routes one message from a linked chat through the chat's own
// dialog state. Every chat is keyed by its chat_id here, so a dialog in one
// chat can never consume another chat's messages.
func (b *Bot) dispatch(ctx context.Context, sess store.Session, text string) error {
	cmdWord, _ := splitCommand(text)
	if normalizeSlashCommand(cmdWord) == "/cancel" {
		delete(b.states, sess.ChatID)
		return b.transport.SendMessage(ctx, sess.ChatID, replyCanceled)
	}

	st := b.states[sess.ChatID]
	switch st.kind {
	case stateAwaitingCategory:
		return b.handleCategoryChoice(ctx, sess, st, text)
	case stateAwaitingTitle:
		return b.handleGoalTitle(ctx, sess, st, text)
	default:
		return b.routeCommand(ctx, sess, text)
	}
}

func (b *Bot) routeCommand(ctx context.Context, sess store.Session, text string) error {
	cmdWord, _ := splitCommand(text)
	switch normalizeSlashCommand(cmdWord) {
	case "/goals":
		return b.listGoals(ctx, sess)
	case "/create":
		return b.startCreate(ctx, sess)
	default:
		if strings.HasPrefix(text, "/") {
			return b.transport.SendMessage(ctx, sess.ChatID, replyUnknownCommand)
		}
		return b.transport.SendMessage(ctx, sess.ChatID, replyUsage)
	}
}

func (b *Bot) listGoals(ctx context.Context, sess store.Session) error {
	goals, err := b.tasks.ListOpenGoals(ctx, sess.AccountID)
	if err != nil {
		b.logger.Error("list_goals_error", "chat_id", sess.ChatID, "error", err.Error())
		return b.transport.SendMessage(ctx, sess.ChatID, replyInternalError)
	}
	if len(goals) == 0 {
		return b.transport.SendMessage(ctx, sess.ChatID, replyEmptyGoals)
	}

	var sb strings.Builder
	for i, g := range goals {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(formatGoalLine(g))
	}
	return b.transport.SendMessage(ctx, sess.ChatID, sb.String())
}

func (b *Bot) startCreate(ctx context.Context, sess store.Session) error {
	cats, err := b.tasks.ListCategories(ctx, sess.AccountID)
	if err != nil {
		b.logger.Error("list_categories_error", "chat_id", sess.ChatID, "error", err.Error())
		return b.transport.SendMessage(ctx, sess.ChatID, replyInternalError)
	}
	if len(cats) == 0 {
		return b.transport.SendMessage(ctx, sess.ChatID, replyNoCategories)
	}

	var sb strings.Builder
	sb.WriteString(replyChooseCategory)
	for _, c := range cats {
		sb.WriteByte('\n')
		sb.WriteString(c.Title)
	}
	if err := b.transport.SendMessage(ctx, sess.ChatID, sb.String()); err != nil {
		return err
	}
	b.states[sess.ChatID] = convState{kind: stateAwaitingCategory, categories: cats}
	return nil
}

func (b *Bot) handleCategoryChoice(ctx context.Context, sess store.Session, st convState, text string) error {
	for _, c := range st.categories {
		if c.Title == text {
			b.states[sess.ChatID] = convState{kind: stateAwaitingTitle, selected: c}
			return b.transport.SendMessage(ctx, sess.ChatID, replyAskGoalTitle)
		}
	}
	// No match: stay in the dialog without re-listing the candidates.
	return b.transport.SendMessage(ctx, sess.ChatID, replyBadCategory)
}

func (b *Bot) handleGoalTitle(ctx context.Context, sess store.Session, st convState, text string) error {
	title := strings.TrimSpace(text)
	if title == "" {
		return b.transport.SendMessage(ctx, sess.ChatID, replyEmptyTitle)
	}

	created, err := b.tasks.CreateGoal(ctx, st.selected.ID, sess.AccountID, title)
	if err != nil {
		delete(b.states, sess.ChatID)
		if errors.Is(err, store.ErrNotFound) {
			// The snapshot is not revalidated mid-dialog, so the category may
			// have been deleted after it was offered.
			return b.transport.SendMessage(ctx, sess.ChatID, replyCategoryGone)
		}
		b.logger.Error("create_goal_error", "chat_id", sess.ChatID, "error", err.Error())
		return b.transport.SendMessage(ctx, sess.ChatID, replyInternalError)
	}

	delete(b.states, sess.ChatID)
	return b.transport.SendMessage(ctx, sess.ChatID,
		fmt.Sprintf("created goal %q in %q", created.Title, created.Category))
}

func formatGoalLine(g store.Goal) string {
	due := "not set"
	if g.DueDate != nil {
		due = g.DueDate.Format(time.DateOnly)
	}
	return fmt.Sprintf("%s | %s | %s | %s", g.Title, g.Category, g.Priority, due)
}

func splitCommand(text string) (cmd string, rest string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ""
	}
	i := strings.IndexAny(text, " \n\t")
	if i == -1 {
		return text, ""
	}
	return text[:i], strings.TrimSpace(text[i:])
}

func normalizeSlashCommand(cmd string) string {
	cmd = strings.TrimSpace(cmd)
	if cmd == "" || !strings.HasPrefix(cmd, "/") {
		return ""
	}
	// Allow "/cmd@BotName" variants by stripping "@...".
	if at := strings.IndexByte(cmd, '@'); at >= 0 {
		cmd = cmd[:at]
	}
	return strings.ToLower(cmd)
}
