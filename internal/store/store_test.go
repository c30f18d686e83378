package store

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/maximgrinin/todolist/internal/db"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

// seedBoard creates a board with one participant, one category, and returns
// the category id.
func seedBoard(t *testing.T, gdb *gorm.DB, accountID int64, categoryTitle string) int64 {
	t.Helper()
	board := db.Board{Title: "board"}
	if err := gdb.Create(&board).Error; err != nil {
		t.Fatalf("seed board: %v", err)
	}
	part := db.BoardParticipant{BoardID: board.ID, AccountID: accountID, Role: db.RoleOwner}
	if err := gdb.Create(&part).Error; err != nil {
		t.Fatalf("seed participant: %v", err)
	}
	cat := db.GoalCategory{BoardID: board.ID, AccountID: accountID, Title: categoryTitle}
	if err := gdb.Create(&cat).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return int64(cat.ID)
}

func TestGetOrCreateIdempotent(t *testing.T) {
	t.Parallel()

	gdb := openTestDB(t)
	s := NewSessions(gdb)
	ctx := context.Background()

	first, created, err := s.GetOrCreate(ctx, 42)
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if !created {
		t.Fatal("first call should create")
	}
	if first.Linked {
		t.Fatal("fresh session must be unlinked")
	}

	second, created, err := s.GetOrCreate(ctx, 42)
	if err != nil {
		t.Fatalf("GetOrCreate() second error = %v", err)
	}
	if created {
		t.Fatal("second call must not create")
	}
	if second.ChatID != 42 {
		t.Fatalf("ChatID = %d, want 42", second.ChatID)
	}

	var count int64
	if err := gdb.Model(&db.ChatSession{}).Where("chat_id = ?", 42).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("sessions for chat 42 = %d, want 1", count)
	}
}

func TestSetVerificationCodeRegenerates(t *testing.T) {
	t.Parallel()

	gdb := openTestDB(t)
	s := NewSessions(gdb)
	ctx := context.Background()

	if _, _, err := s.GetOrCreate(ctx, 42); err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}

	first, err := s.SetVerificationCode(ctx, 42)
	if err != nil {
		t.Fatalf("SetVerificationCode() error = %v", err)
	}
	second, err := s.SetVerificationCode(ctx, 42)
	if err != nil {
		t.Fatalf("SetVerificationCode() second error = %v", err)
	}
	if first == second {
		t.Fatalf("codes must differ, both %q", first)
	}
	if len(second) != 24 {
		t.Fatalf("code length = %d, want 24 hex chars", len(second))
	}

	// Only the latest code can link.
	if _, err := s.LinkByCode(ctx, first, 7); err != ErrNotFound {
		t.Fatalf("LinkByCode(old code) error = %v, want ErrNotFound", err)
	}
	chatID, err := s.LinkByCode(ctx, second, 7)
	if err != nil {
		t.Fatalf("LinkByCode(latest) error = %v", err)
	}
	if chatID != 42 {
		t.Fatalf("linked chat = %d, want 42", chatID)
	}

	sess, _, err := s.GetOrCreate(ctx, 42)
	if err != nil {
		t.Fatalf("GetOrCreate() after link error = %v", err)
	}
	if !sess.Linked || sess.AccountID != 7 {
		t.Fatalf("session after link = %+v, want linked to account 7", sess)
	}
}

func TestSetVerificationCodeUnknownChat(t *testing.T) {
	t.Parallel()

	gdb := openTestDB(t)
	s := NewSessions(gdb)

	if _, err := s.SetVerificationCode(context.Background(), 999); err != ErrNotFound {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestListOpenGoalsScoping(t *testing.T) {
	t.Parallel()

	gdb := openTestDB(t)
	tasks := NewTasks(gdb)
	ctx := context.Background()

	catID := seedBoard(t, gdb, 7, "Work")
	otherCat := seedBoard(t, gdb, 8, "Private")

	due := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	goals := []db.Goal{
		{Title: "Write report", CategoryID: uint(catID), AccountID: 7, Status: db.GoalStatusToDo, Priority: db.GoalPriorityHigh, DueDate: &due},
		{Title: "Old stuff", CategoryID: uint(catID), AccountID: 7, Status: db.GoalStatusArchived, Priority: db.GoalPriorityLow},
		{Title: "Not mine", CategoryID: uint(otherCat), AccountID: 8, Status: db.GoalStatusToDo, Priority: db.GoalPriorityLow},
	}
	for i := range goals {
		if err := gdb.Create(&goals[i]).Error; err != nil {
			t.Fatalf("seed goal: %v", err)
		}
	}

	got, err := tasks.ListOpenGoals(ctx, 7)
	if err != nil {
		t.Fatalf("ListOpenGoals() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("goals = %+v, want only the open visible one", got)
	}
	g := got[0]
	if g.Title != "Write report" || g.Category != "Work" || g.Priority != "high" {
		t.Fatalf("goal = %+v", g)
	}
	if g.DueDate == nil || !g.DueDate.Equal(due) {
		t.Fatalf("due date = %v, want %v", g.DueDate, due)
	}
}

func TestListCategoriesSkipsDeleted(t *testing.T) {
	t.Parallel()

	gdb := openTestDB(t)
	tasks := NewTasks(gdb)
	ctx := context.Background()

	catID := seedBoard(t, gdb, 7, "Work")

	var work db.GoalCategory
	if err := gdb.First(&work, catID).Error; err != nil {
		t.Fatalf("load category: %v", err)
	}
	deleted := db.GoalCategory{BoardID: work.BoardID, AccountID: 7, Title: "Gone", IsDeleted: true}
	if err := gdb.Create(&deleted).Error; err != nil {
		t.Fatalf("seed deleted category: %v", err)
	}

	got, err := tasks.ListCategories(ctx, 7)
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	if len(got) != 1 || got[0].Title != "Work" || got[0].ID != catID {
		t.Fatalf("categories = %+v, want only Work", got)
	}
}

func TestCreateGoal(t *testing.T) {
	t.Parallel()

	gdb := openTestDB(t)
	tasks := NewTasks(gdb)
	ctx := context.Background()

	catID := seedBoard(t, gdb, 7, "Work")

	created, err := tasks.CreateGoal(ctx, catID, 7, "Buy milk")
	if err != nil {
		t.Fatalf("CreateGoal() error = %v", err)
	}
	if created.Title != "Buy milk" || created.Category != "Work" {
		t.Fatalf("created = %+v", created)
	}

	var goal db.Goal
	if err := gdb.Where("title = ?", "Buy milk").First(&goal).Error; err != nil {
		t.Fatalf("load goal: %v", err)
	}
	if goal.Status != db.GoalStatusToDo || goal.Priority != db.GoalPriorityMedium {
		t.Fatalf("goal defaults = status %d priority %d", goal.Status, goal.Priority)
	}
	if goal.AccountID != 7 || goal.CategoryID != uint(catID) {
		t.Fatalf("goal ownership = %+v", goal)
	}
}

func TestCreateGoalVanishedCategory(t *testing.T) {
	t.Parallel()

	gdb := openTestDB(t)
	tasks := NewTasks(gdb)
	ctx := context.Background()

	catID := seedBoard(t, gdb, 7, "Work")
	if err := gdb.Model(&db.GoalCategory{}).
		Where("id = ?", catID).
		Update("is_deleted", true).Error; err != nil {
		t.Fatalf("mark deleted: %v", err)
	}

	if _, err := tasks.CreateGoal(ctx, catID, 7, "Buy milk"); err != ErrNotFound {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestCreateGoalForeignCategory(t *testing.T) {
	t.Parallel()

	gdb := openTestDB(t)
	tasks := NewTasks(gdb)
	ctx := context.Background()

	otherCat := seedBoard(t, gdb, 8, "Private")

	if _, err := tasks.CreateGoal(ctx, otherCat, 7, "Sneaky"); err != ErrNotFound {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}
