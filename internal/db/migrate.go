package db

import (
	"fmt"

	"gorm.io/gorm"
)

func AutoMigrate(gdb *gorm.DB) error {
	if gdb == nil {
		return fmt.Errorf("nil gorm db")
	}
	return gdb.AutoMigrate(
		&ChatSession{},
		&Board{},
		&BoardParticipant{},
		&GoalCategory{},
		&Goal{},
	)
}
