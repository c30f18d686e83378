package db

import "time"

// Goal lifecycle. Archived goals are hidden from the bot but kept in the
// table.
const (
	GoalStatusToDo       int16 = 1
	GoalStatusInProgress int16 = 2
	GoalStatusDone       int16 = 3
	GoalStatusArchived   int16 = 4
)

const (
	GoalPriorityLow      int16 = 1
	GoalPriorityMedium   int16 = 2
	GoalPriorityHigh     int16 = 3
	GoalPriorityCritical int16 = 4
)

// Board participant roles.
const (
	RoleOwner  int16 = 1
	RoleWriter int16 = 2
	RoleReader int16 = 3
)

// PriorityLabel maps a stored priority to its user-facing name.
func PriorityLabel(p int16) string {
	switch p {
	case GoalPriorityLow:
		return "low"
	case GoalPriorityMedium:
		return "medium"
	case GoalPriorityHigh:
		return "high"
	case GoalPriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ChatSession links a Telegram chat to an account. AccountID is set exactly
// once by the verification endpoint; the bot only ever rewrites the code.
type ChatSession struct {
	ID               uint `gorm:"primaryKey"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ChatID           int64  `gorm:"uniqueIndex;not null"`
	AccountID        *int64 `gorm:"index"`
	VerificationCode string `gorm:"size:50;index"`
}

type Board struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Title     string `gorm:"size:255;not null"`
	IsDeleted bool   `gorm:"not null;default:false"`
}

type BoardParticipant struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	BoardID   uint  `gorm:"not null;uniqueIndex:idx_board_account"`
	AccountID int64 `gorm:"not null;uniqueIndex:idx_board_account"`
	Role      int16 `gorm:"not null;default:1"`
}

type GoalCategory struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	BoardID   uint   `gorm:"not null;index"`
	AccountID int64  `gorm:"not null"`
	Title     string `gorm:"size:255;not null"`
	IsDeleted bool   `gorm:"not null;default:false"`
}

type Goal struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Title       string `gorm:"size:255;not null"`
	Description string
	CategoryID  uint  `gorm:"not null;index"`
	AccountID   int64 `gorm:"not null;index"`
	Status      int16 `gorm:"not null;default:1"`
	Priority    int16 `gorm:"not null;default:2"`
	DueDate     *time.Time
}
