package store

import (
	"time"

	"astral-server/internal/model"
)

type UserStats struct {
	Total       int64 `json:"total"`
	Active      int64 `json:"active"`
	Admins      int64 `json:"admins"`
	ActiveToday int64 `json:"active_today"`
	NewThisWeek int64 `json:"new_this_week"`
}

type SystemStats struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"`
}

type ChatStats struct {
	TotalSessions     int64 `json:"total_sessions"`
	TotalMessages     int64 `json:"total_messages"`
	RecentMessages24h int64 `json:"recent_messages_24h"`
}

type DashboardStats struct {
	Users     UserStats   `json:"users"`
	Systems   SystemStats `json:"systems"`
	Chat      ChatStats   `json:"chat"`
	Timestamp time.Time   `json:"timestamp"`
}

// DashboardStats aggregates the counters shown on the admin dashboard.
func (s *Store) DashboardStats(now time.Time) (DashboardStats, error) {
	stats := DashboardStats{Timestamp: now}

	type countQuery struct {
		dest  *int64
		model interface{}
		conds []interface{}
	}

	today := now.Truncate(24 * time.Hour)
	weekAgo := now.AddDate(0, 0, -7)
	dayAgo := now.Add(-24 * time.Hour)

	queries := []countQuery{
		{&stats.Users.Total, &model.User{}, nil},
		{&stats.Users.Active, &model.User{}, []interface{}{"is_active = ?", true}},
		{&stats.Users.Admins, &model.User{}, []interface{}{"is_admin = ?", true}},
		{&stats.Users.ActiveToday, &model.User{}, []interface{}{"last_login >= ? AND is_active = ?", today, true}},
		{&stats.Users.NewThisWeek, &model.User{}, []interface{}{"created_at >= ?", weekAgo}},
		{&stats.Systems.Total, &model.System{}, nil},
		{&stats.Systems.Active, &model.System{}, []interface{}{"is_active = ?", true}},
		{&stats.Chat.TotalSessions, &model.ChatSession{}, nil},
		{&stats.Chat.TotalMessages, &model.ChatMessage{}, nil},
		{&stats.Chat.RecentMessages24h, &model.ChatMessage{}, []interface{}{"created_at >= ?", dayAgo}},
	}

	for _, q := range queries {
		query := s.db.Model(q.model)
		if len(q.conds) > 0 {
			query = query.Where(q.conds[0], q.conds[1:]...)
		}
		if err := query.Count(q.dest).Error; err != nil {
			return DashboardStats{}, err
		}
	}

	return stats, nil
}

type UserActivity struct {
	ID           uint       `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	FullName     string     `json:"full_name"`
	LastLogin    *time.Time `json:"last_login"`
	LoginCount   int        `json:"login_count"`
	CreatedAt    time.Time  `json:"created_at"`
	SessionCount int64      `json:"session_count"`
	MessageCount int64      `json:"message_count"`
}

// UserActivityReport lists every user with their session and message counts
// over the lookback window, most recently seen first.
func (s *Store) UserActivityReport(now time.Time, days int) ([]UserActivity, error) {
	start := now.AddDate(0, 0, -days)

	var users []model.User
	if err := s.db.Order("last_login DESC").Find(&users).Error; err != nil {
		return nil, err
	}

	sessionCounts, err := s.groupedCounts(&model.ChatSession{}, start)
	if err != nil {
		return nil, err
	}
	messageCounts, err := s.groupedCounts(&model.ChatMessage{}, start)
	if err != nil {
		return nil, err
	}

	report := make([]UserActivity, 0, len(users))
	for _, u := range users {
		report = append(report, UserActivity{
			ID:           u.ID,
			Username:     u.Username,
			Email:        u.Email,
			FullName:     u.FullName,
			LastLogin:    u.LastLogin,
			LoginCount:   u.LoginCount,
			CreatedAt:    u.CreatedAt,
			SessionCount: sessionCounts[u.ID],
			MessageCount: messageCounts[u.ID],
		})
	}
	return report, nil
}

func (s *Store) groupedCounts(m interface{}, since time.Time) (map[uint]int64, error) {
	type row struct {
		UserID uint
		N      int64
	}
	var rows []row
	err := s.db.Model(m).
		Select("user_id, COUNT(*) AS n").
		Where("created_at >= ?", since).
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[uint]int64, len(rows))
	for _, r := range rows {
		counts[r.UserID] = r.N
	}
	return counts, nil
}

// SystemUsage is one row of the per-profile usage report. Owner columns are
// scanned flat; the handler nests them for the response.
type SystemUsage struct {
	ID         uint      `json:"id"`
	SystemName string    `json:"system_name"`
	SystemType string    `json:"system_type"`
	DBHost     string    `json:"db_host"`
	DBName     string    `json:"db_name"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	Username   string    `json:"-"`
	Email      string    `json:"-"`
	UsageCount int64     `json:"usage_count"`
}

// SystemUsageReport lists every connection profile with its owner and the
// number of chat sessions bound to it, most used first.
func (s *Store) SystemUsageReport() ([]SystemUsage, error) {
	var rows []SystemUsage
	err := s.db.Model(&model.System{}).
		Select(`user_systems.id, user_systems.system_name, user_systems.system_type,
			user_systems.db_host, user_systems.db_name, user_systems.is_active,
			user_systems.created_at, users.username, users.email,
			COUNT(chat_sessions.id) AS usage_count`).
		Joins("JOIN users ON users.id = user_systems.user_id").
		Joins("LEFT JOIN chat_sessions ON chat_sessions.system_id = user_systems.id").
		Group("user_systems.id, users.username, users.email").
		Order("usage_count DESC").
		Scan(&rows).Error
	return rows, err
}
