package bot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/maximgrinin/todolist/internal/store"
	"github.com/maximgrinin/todolist/internal/tgapi"
)

// fakeTransport replays scripted batches and records every send. Once the
// script runs out GetUpdates fails, which ends Bot.Run.
type fakeTransport struct {
	batches      [][]tgapi.Update
	fetchOffsets []int64
	sent         []sentMessage
	fetchErr     error
	sendErr      error
}

type sentMessage struct {
	chatID int64
	text   string
}

var errScriptDone = fmt.Errorf("script done")

func (f *fakeTransport) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]tgapi.Update, error) {
	f.fetchOffsets = append(f.fetchOffsets, offset)
	if len(f.batches) == 0 {
		if f.fetchErr != nil {
			return nil, f.fetchErr
		}
		return nil, errScriptDone
	}
	b := f.batches[0]
	f.batches = f.batches[1:]
	return b, nil
}

func (f *fakeTransport) SendMessage(ctx context.Context, chatID int64, text string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func (f *fakeTransport) sentTexts() []string {
	out := make([]string, 0, len(f.sent))
	for _, m := range f.sent {
		out = append(out, m.text)
	}
	return out
}

type fakeSessions struct {
	linked       map[int64]int64 // chatID -> accountID
	known        map[int64]bool
	codes        []string
	codeCalls    int
	getOrCreate  int
	getOrCreateE error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{
		linked: make(map[int64]int64),
		known:  make(map[int64]bool),
	}
}

func (f *fakeSessions) GetOrCreate(ctx context.Context, chatID int64) (store.Session, bool, error) {
	f.getOrCreate++
	if f.getOrCreateE != nil {
		return store.Session{}, false, f.getOrCreateE
	}
	created := !f.known[chatID]
	f.known[chatID] = true
	sess := store.Session{ChatID: chatID}
	if acc, ok := f.linked[chatID]; ok {
		sess.AccountID = acc
		sess.Linked = true
	}
	return sess, created, nil
}

func (f *fakeSessions) SetVerificationCode(ctx context.Context, chatID int64) (string, error) {
	f.codeCalls++
	code := fmt.Sprintf("code-%d", f.codeCalls)
	f.codes = append(f.codes, code)
	return code, nil
}

type fakeTasks struct {
	goals      []store.Goal
	categories []store.Category
	created    []createdCall
	listCalls  int
	listErr    error
	catsErr    error
	createErr  error
}

type createdCall struct {
	categoryID int64
	accountID  int64
	title      string
}

func (f *fakeTasks) ListOpenGoals(ctx context.Context, accountID int64) ([]store.Goal, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.goals, nil
}

func (f *fakeTasks) ListCategories(ctx context.Context, accountID int64) ([]store.Category, error) {
	if f.catsErr != nil {
		return nil, f.catsErr
	}
	return f.categories, nil
}

func (f *fakeTasks) CreateGoal(ctx context.Context, categoryID, accountID int64, title string) (store.CreatedGoal, error) {
	if f.createErr != nil {
		return store.CreatedGoal{}, f.createErr
	}
	f.created = append(f.created, createdCall{categoryID: categoryID, accountID: accountID, title: title})
	var catTitle string
	for _, c := range f.categories {
		if c.ID == categoryID {
			catTitle = c.Title
		}
	}
	return store.CreatedGoal{Title: title, Category: catTitle}, nil
}

type fixture struct {
	bot       *Bot
	transport *fakeTransport
	sessions  *fakeSessions
	tasks     *fakeTasks
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tr := &fakeTransport{}
	sess := newFakeSessions()
	tasks := &fakeTasks{}
	b, err := New(Options{
		Transport: tr,
		Sessions:  sess,
		Tasks:     tasks,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return &fixture{bot: b, transport: tr, sessions: sess, tasks: tasks}
}

func (f *fixture) link(chatID, accountID int64) {
	f.sessions.linked[chatID] = accountID
	f.sessions.known[chatID] = true
}

func (f *fixture) say(t *testing.T, chatID int64, text string) {
	t.Helper()
	if err := f.bot.handleMessage(context.Background(), chatID, text); err != nil {
		t.Fatalf("handleMessage(%q) error = %v", text, err)
	}
}
