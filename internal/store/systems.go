package store

import (
	"astral-server/internal/model"
)

func (s *Store) CreateSystem(system *model.System) error {
	return s.db.Create(system).Error
}

// ListSystems returns the caller's active systems only.
func (s *Store) ListSystems(userID uint) ([]model.System, error) {
	var systems []model.System
	err := s.db.Where("user_id = ? AND is_active = ?", userID, true).Find(&systems).Error
	return systems, err
}

// GetSystem is owner-scoped; a system is never visible to another account.
func (s *Store) GetSystem(userID, systemID uint) (model.System, error) {
	var system model.System
	err := s.db.Where("id = ? AND user_id = ?", systemID, userID).First(&system).Error
	return system, err
}

// GetActiveSystem additionally requires the active flag, the precondition
// for any SQL execution.
func (s *Store) GetActiveSystem(userID, systemID uint) (model.System, error) {
	var system model.System
	err := s.db.Where("id = ? AND user_id = ? AND is_active = ?", systemID, userID, true).First(&system).Error
	return system, err
}

func (s *Store) UpdateSystem(system *model.System) error {
	return s.db.Save(system).Error
}

func (s *Store) DeactivateSystem(userID, systemID uint) error {
	result := s.db.Model(&model.System{}).
		Where("id = ? AND user_id = ?", systemID, userID).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
