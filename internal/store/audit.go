package store

import (
	"log"

	"astral-server/internal/model"
)

// AppendAudit writes an action log entry. Audit failures are logged and
// swallowed; they never fail the request that triggered them.
func (s *Store) AppendAudit(entry model.AuditLog) {
	if err := s.db.Create(&entry).Error; err != nil {
		log.Printf("audit: append failed (user=%d action=%s): %v", entry.UserID, entry.Action, err)
	}
}
