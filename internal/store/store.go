package store

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"astral-server/internal/model"
)

// Store wraps the relational database. All queries in the API go through it.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Open connects to the database named by url. Postgres DSNs are used as-is;
// "sqlite://<path>" opens a SQLite file, which also serves local development.
func Open(url string) (*gorm.DB, error) {
	switch {
	case strings.HasPrefix(url, "sqlite://"):
		return gorm.Open(sqlite.Open(strings.TrimPrefix(url, "sqlite://")), &gorm.Config{})
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"), strings.Contains(url, "host="):
		return gorm.Open(postgres.Open(url), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unsupported DATABASE_URL: %s", url)
	}
}

func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(
		&model.User{},
		&model.System{},
		&model.ChatSession{},
		&model.ChatMessage{},
		&model.AuditLog{},
	)
}

// Ping verifies the underlying connection, for health checks.
func (s *Store) Ping() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
