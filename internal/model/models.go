package model

import (
	"time"

	"gorm.io/datatypes"
)

// User is an account row. Accounts are never hard-deleted; admin removal
// flips IsActive instead.
type User struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Email          string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Username       string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	HashedPassword string     `gorm:"type:varchar(255);not null" json:"-"`
	FullName       string     `gorm:"type:varchar(255)" json:"full_name"`
	IsActive       bool       `gorm:"default:true" json:"is_active"`
	IsAdmin        bool       `gorm:"default:false" json:"is_admin"`
	IsSuperadmin   bool       `gorm:"default:false" json:"is_superadmin"`
	LastLogin      *time.Time `json:"last_login"`
	LoginCount     int        `gorm:"default:0" json:"login_count"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (User) TableName() string { return "users" }

// System is a saved connection profile for one external database plus the
// bridge parameters used to reach it. DBPassword is encrypted at rest.
// The mapping columns are opaque passthrough configuration; nothing in the
// chat pipeline interprets them.
type System struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	UserID     uint   `gorm:"not null;index" json:"user_id"`
	SystemName string `gorm:"type:varchar(255);not null" json:"system_name"`
	SystemType string `gorm:"type:varchar(50);not null" json:"system_type"`
	DBHost     string `gorm:"type:varchar(255);not null" json:"db_host"`
	DBPort     int    `gorm:"not null" json:"db_port"`
	DBName     string `gorm:"type:varchar(255);not null" json:"db_name"`
	DBUsername string `gorm:"type:varchar(255);not null" json:"db_username"`
	DBPassword string `gorm:"type:varchar(512);not null" json:"-"`

	ConnectionParams datatypes.JSONMap `json:"connection_params"`
	TableMappings    datatypes.JSONMap `json:"table_mappings"`
	FieldAliases     datatypes.JSONMap `json:"field_aliases"`
	BusinessRules    datatypes.JSONMap `json:"business_rules"`

	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (System) TableName() string { return "user_systems" }

// ChatSession groups messages. SystemID is the optional system binding and
// may change per message.
type ChatSession struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	SystemID    *uint     `json:"system_id"`
	SessionName string    `gorm:"type:varchar(255)" json:"session_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (ChatSession) TableName() string { return "chat_sessions" }

type ChatMessage struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SessionID   uint      `gorm:"not null;index" json:"session_id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Message     string    `gorm:"type:text;not null" json:"message"`
	IsUser      bool      `gorm:"default:true" json:"is_user"`
	SQLQuery    *string   `gorm:"type:text" json:"sql_query"`
	QueryResult *string   `gorm:"type:text" json:"query_result"`
	CreatedAt   time.Time `json:"created_at"`
}

func (ChatMessage) TableName() string { return "chat_messages" }

// AuditLog is append-only.
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index" json:"user_id"`
	Action    string    `gorm:"type:varchar(255);not null" json:"action"`
	Details   string    `gorm:"type:text" json:"details"`
	IPAddress string    `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent string    `gorm:"type:text" json:"user_agent"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (AuditLog) TableName() string { return "system_logs" }
