package store

import "time"

// Session is the durable record for one Telegram chat.
type Session struct {
	ChatID    int64
	AccountID int64 // meaningful only when Linked
	Linked    bool
}

// Category is a goal category visible to an account.
type Category struct {
	ID    int64
	Title string
}

// Goal is one row of a goal listing.
type Goal struct {
	Title    string
	Category string
	Priority string
	DueDate  *time.Time
}

// CreatedGoal is what CreateGoal reports back for the confirmation reply.
type CreatedGoal struct {
	Title    string
	Category string
}
