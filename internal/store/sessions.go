// Package store implements the session and task stores on top of gorm.
package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/maximgrinin/todolist/internal/db"
)

type Sessions struct {
	db *gorm.DB
}

func NewSessions(gdb *gorm.DB) *Sessions {
	return &Sessions{db: gdb}
}

// GetOrCreate inserts with ON CONFLICT DO NOTHING, so two racing calls for
// the same unseen chat produce exactly one row and exactly one caller sees
// created=true.
func (s *Sessions) GetOrCreate(ctx context.Context, chatID int64) (Session, bool, error) {
	rec := db.ChatSession{ChatID: chatID}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chat_id"}},
			DoNothing: true,
		}).
		Create(&rec)
	if res.Error != nil {
		return Session{}, false, fmt.Errorf("create chat session: %w", res.Error)
	}
	created := res.RowsAffected > 0
	if !created {
		if err := s.db.WithContext(ctx).Where("chat_id = ?", chatID).First(&rec).Error; err != nil {
			return Session{}, false, fmt.Errorf("load chat session: %w", err)
		}
	}
	return toSession(rec), created, nil
}

// SetVerificationCode stores a fresh random code for the chat, overwriting
// any previous one. Only the stored code can complete a link.
func (s *Sessions) SetVerificationCode(ctx context.Context, chatID int64) (string, error) {
	code, err := generateVerificationCode()
	if err != nil {
		return "", err
	}
	res := s.db.WithContext(ctx).
		Model(&db.ChatSession{}).
		Where("chat_id = ?", chatID).
		Update("verification_code", code)
	if res.Error != nil {
		return "", fmt.Errorf("set verification code: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return "", ErrNotFound
	}
	return code, nil
}

// LinkByCode attaches an account to the session holding code and reports the
// linked chat id. The code is single-use in effect: it is overwritten on the
// chat's next unlinked message, and a linked chat never issues codes again.
func (s *Sessions) LinkByCode(ctx context.Context, code string, accountID int64) (int64, error) {
	if code == "" {
		return 0, ErrNotFound
	}
	var rec db.ChatSession
	err := s.db.WithContext(ctx).Where("verification_code = ?", code).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("find session by code: %w", err)
	}

	if err := s.db.WithContext(ctx).
		Model(&db.ChatSession{}).
		Where("id = ?", rec.ID).
		Update("account_id", accountID).Error; err != nil {
		return 0, fmt.Errorf("link session: %w", err)
	}
	return rec.ChatID, nil
}

func toSession(rec db.ChatSession) Session {
	out := Session{ChatID: rec.ChatID}
	if rec.AccountID != nil {
		out.AccountID = *rec.AccountID
		out.Linked = true
	}
	return out
}

// 12 random bytes as hex; collisions are negligible at this size.
func generateVerificationCode() (string, error) {
	var buf [12]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return hex.EncodeToString(buf[:]), nil
}
