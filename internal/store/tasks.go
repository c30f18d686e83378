package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/maximgrinin/todolist/internal/db"
)

type Tasks struct {
	db *gorm.DB
}

func NewTasks(gdb *gorm.DB) *Tasks {
	return &Tasks{db: gdb}
}

type goalRow struct {
	Title    string
	Category string
	Priority int16
	DueDate  *time.Time
}

// ListOpenGoals returns every non-archived goal in a live category on a board
// the account participates in, oldest first.
func (t *Tasks) ListOpenGoals(ctx context.Context, accountID int64) ([]Goal, error) {
	var rows []goalRow
	err := t.db.WithContext(ctx).
		Table("goals").
		Select("goals.title AS title, goal_categories.title AS category, goals.priority AS priority, goals.due_date AS due_date").
		Joins("JOIN goal_categories ON goal_categories.id = goals.category_id").
		Joins("JOIN boards ON boards.id = goal_categories.board_id").
		Joins("JOIN board_participants ON board_participants.board_id = boards.id").
		Where("board_participants.account_id = ?", accountID).
		Where("goals.status <> ?", db.GoalStatusArchived).
		Where("goal_categories.is_deleted = ?", false).
		Where("boards.is_deleted = ?", false).
		Order("goals.id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list open goals: %w", err)
	}

	out := make([]Goal, 0, len(rows))
	for _, r := range rows {
		out = append(out, Goal{
			Title:    r.Title,
			Category: r.Category,
			Priority: db.PriorityLabel(r.Priority),
			DueDate:  r.DueDate,
		})
	}
	return out, nil
}

// ListCategories returns the non-deleted categories visible to the account.
func (t *Tasks) ListCategories(ctx context.Context, accountID int64) ([]Category, error) {
	var rows []struct {
		ID    uint
		Title string
	}
	err := t.db.WithContext(ctx).
		Table("goal_categories").
		Select("goal_categories.id AS id, goal_categories.title AS title").
		Joins("JOIN boards ON boards.id = goal_categories.board_id").
		Joins("JOIN board_participants ON board_participants.board_id = boards.id").
		Where("board_participants.account_id = ?", accountID).
		Where("goal_categories.is_deleted = ?", false).
		Where("boards.is_deleted = ?", false).
		Order("goal_categories.id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	out := make([]Category, 0, len(rows))
	for _, r := range rows {
		out = append(out, Category{ID: int64(r.ID), Title: r.Title})
	}
	return out, nil
}

// CreateGoal revalidates the category against the store before inserting:
// the bot's dialog snapshot may be stale by the time the title arrives.
func (t *Tasks) CreateGoal(ctx context.Context, categoryID, accountID int64, title string) (CreatedGoal, error) {
	var cat db.GoalCategory
	err := t.db.WithContext(ctx).
		Select("goal_categories.*").
		Joins("JOIN boards ON boards.id = goal_categories.board_id AND boards.is_deleted = ?", false).
		Joins("JOIN board_participants ON board_participants.board_id = boards.id AND board_participants.account_id = ?", accountID).
		Where("goal_categories.id = ?", categoryID).
		Where("goal_categories.is_deleted = ?", false).
		First(&cat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return CreatedGoal{}, ErrNotFound
	}
	if err != nil {
		return CreatedGoal{}, fmt.Errorf("load category: %w", err)
	}

	goal := db.Goal{
		Title:      title,
		CategoryID: cat.ID,
		AccountID:  accountID,
		Status:     db.GoalStatusToDo,
		Priority:   db.GoalPriorityMedium,
	}
	if err := t.db.WithContext(ctx).Create(&goal).Error; err != nil {
		return CreatedGoal{}, fmt.Errorf("create goal: %w", err)
	}
	return CreatedGoal{Title: goal.Title, Category: cat.Title}, nil
}
