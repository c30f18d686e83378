// Package bot is the conversational core: the update-dispatch loop, the
// per-chat dialog state machine, and the verification handshake for chats not
// yet linked to an account.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/maximgrinin/todolist/internal/store"
	"github.com/maximgrinin/todolist/internal/tgapi"
)

// Transport delivers updates and carries replies. Fetch errors are fatal to
// the dispatch loop; send errors are per-chat and only logged.
type Transport interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]tgapi.Update, error)
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// SessionStore persists chat sessions. GetOrCreate must be atomic: two
// concurrent calls for an unseen chat yield exactly one record.
type SessionStore interface {
	GetOrCreate(ctx context.Context, chatID int64) (store.Session, bool, error)
	SetVerificationCode(ctx context.Context, chatID int64) (string, error)
}

// TaskStore reads categories and goals visible to an account and creates
// goals. CreateGoal returns store.ErrNotFound when the category vanished
// between selection and creation.
type TaskStore interface {
	ListOpenGoals(ctx context.Context, accountID int64) ([]store.Goal, error)
	ListCategories(ctx context.Context, accountID int64) ([]store.Category, error)
	CreateGoal(ctx context.Context, categoryID, accountID int64, title string) (store.CreatedGoal, error)
}

type Options struct {
	Transport   Transport
	Sessions    SessionStore
	Tasks       TaskStore
	Logger      *slog.Logger
	PollTimeout time.Duration
}

// Bot owns the offset cursor and the per-chat dialog states. It is driven by
// a single goroutine (Run); none of its state is safe for concurrent use.
type Bot struct {
	transport   Transport
	sessions    SessionStore
	tasks       TaskStore
	logger      *slog.Logger
	pollTimeout time.Duration

	offset int64
	states map[int64]convState
}

func New(opts Options) (*Bot, error) {
	if opts.Transport == nil {
		return nil, fmt.Errorf("transport is required")
	}
	if opts.Sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if opts.Tasks == nil {
		return nil, fmt.Errorf("task store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pollTimeout := opts.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = 30 * time.Second
	}
	return &Bot{
		transport:   opts.Transport,
		sessions:    opts.Sessions,
		tasks:       opts.Tasks,
		logger:      logger,
		pollTimeout: pollTimeout,
		states:      make(map[int64]convState),
	}, nil
}
