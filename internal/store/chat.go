package store

import (
	"time"

	"gorm.io/gorm"

	"astral-server/internal/model"
)

func (s *Store) CreateSession(session *model.ChatSession) error {
	return s.db.Create(session).Error
}

// ListSessions returns the caller's sessions, most recently active first.
func (s *Store) ListSessions(userID uint) ([]model.ChatSession, error) {
	var sessions []model.ChatSession
	err := s.db.Where("user_id = ?", userID).Order("updated_at DESC").Find(&sessions).Error
	return sessions, err
}

func (s *Store) GetSession(userID, sessionID uint) (model.ChatSession, error) {
	var session model.ChatSession
	err := s.db.Where("id = ? AND user_id = ?", sessionID, userID).First(&session).Error
	return session, err
}

// TouchSession bumps the session's updated timestamp after a new message.
func (s *Store) TouchSession(sessionID uint, now time.Time) error {
	return s.db.Model(&model.ChatSession{}).Where("id = ?", sessionID).Update("updated_at", now).Error
}

// DeleteSessionCascade removes all messages of the session, then the
// session row, in one transaction.
func (s *Store) DeleteSessionCascade(userID, sessionID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var session model.ChatSession
		if err := tx.Where("id = ? AND user_id = ?", sessionID, userID).First(&session).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", sessionID).Delete(&model.ChatMessage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&session).Error
	})
}

func (s *Store) CreateMessage(message *model.ChatMessage) error {
	return s.db.Create(message).Error
}

func (s *Store) ListMessages(sessionID uint) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	err := s.db.Where("session_id = ?", sessionID).Order("created_at ASC, id ASC").Find(&messages).Error
	return messages, err
}

func (s *Store) CountMessages(sessionID uint) (int64, error) {
	var count int64
	err := s.db.Model(&model.ChatMessage{}).Where("session_id = ?", sessionID).Count(&count).Error
	return count, err
}
