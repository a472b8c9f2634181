package store

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"astral-server/internal/model"
)

var ErrNotFound = gorm.ErrRecordNotFound

func (s *Store) CreateUser(user *model.User) error {
	return s.db.Create(user).Error
}

func (s *Store) GetUserByID(id uint) (model.User, error) {
	var user model.User
	err := s.db.First(&user, id).Error
	return user, err
}

func (s *Store) GetUserByUsername(username string) (model.User, error) {
	var user model.User
	err := s.db.Where("username = ?", username).First(&user).Error
	return user, err
}

// EmailTaken and UsernameTaken back the registration duplicate checks.
func (s *Store) EmailTaken(email string) (bool, error) {
	return s.userExists("email = ?", email)
}

func (s *Store) UsernameTaken(username string) (bool, error) {
	return s.userExists("username = ?", username)
}

func (s *Store) userExists(query string, arg string) (bool, error) {
	var user model.User
	err := s.db.Select("id").Where(query, arg).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RecordLogin bumps the login telemetry on a successful authentication.
func (s *Store) RecordLogin(userID uint, now time.Time) error {
	return s.db.Model(&model.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"last_login":  now,
		"login_count": gorm.Expr("login_count + 1"),
	}).Error
}

func (s *Store) ListUsers(skip, limit int, activeOnly bool) ([]model.User, error) {
	query := s.db.Model(&model.User{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if skip > 0 {
		query = query.Offset(skip)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	var users []model.User
	err := query.Find(&users).Error
	return users, err
}

func (s *Store) UpdateUser(user *model.User) error {
	return s.db.Save(user).Error
}

// DeactivateUser is the only removal path; accounts are never hard-deleted.
func (s *Store) DeactivateUser(id uint) error {
	return s.db.Model(&model.User{}).Where("id = ?", id).Update("is_active", false).Error
}
