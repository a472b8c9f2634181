package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"astral-server/internal/auth"
	"astral-server/internal/middleware"
	"astral-server/internal/model"
	"astral-server/internal/store"
)

type AdminHandler struct {
	Store *store.Store
}

func (h *AdminHandler) DashboardStats(c *gin.Context) {
	stats, err := h.Store.DashboardStats(time.Now())
	if err != nil {
		log.Printf("admin: dashboard stats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving dashboard statistics"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
		"message": "Dashboard stats retrieved successfully",
	})
}

func (h *AdminHandler) UserActivity(c *gin.Context) {
	days := 7
	if raw := c.Query("days"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid days"})
			return
		}
		days = v
	}

	activity, err := h.Store.UserActivityReport(time.Now(), days)
	if err != nil {
		log.Printf("admin: user activity: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving user activity"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    activity,
		"message": fmt.Sprintf("User activity for last %d days retrieved successfully", days),
	})
}

func (h *AdminHandler) SystemUsage(c *gin.Context) {
	usage, err := h.Store.SystemUsageReport()
	if err != nil {
		log.Printf("admin: system usage: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving system usage data"})
		return
	}

	resp := make([]gin.H, 0, len(usage))
	for _, row := range usage {
		resp = append(resp, gin.H{
			"id":          row.ID,
			"system_name": row.SystemName,
			"system_type": row.SystemType,
			"db_host":     row.DBHost,
			"db_name":     row.DBName,
			"is_active":   row.IsActive,
			"created_at":  row.CreatedAt,
			"user":        gin.H{"username": row.Username, "email": row.Email},
			"usage_count": row.UsageCount,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    resp,
		"message": "System usage data retrieved successfully",
	})
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	activeOnly := c.DefaultQuery("active_only", "true") == "true"

	users, err := h.Store.ListUsers(skip, limit, activeOnly)
	if err != nil {
		internalError(c, "admin list users", err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *AdminHandler) GetUser(c *gin.Context) {
	userID, ok := idParam(c)
	if !ok {
		return
	}

	user, err := h.Store.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		internalError(c, "admin get user", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type adminCreateUserBody struct {
	Email        string `json:"email" binding:"required,email"`
	Username     string `json:"username" binding:"required"`
	Password     string `json:"password" binding:"required"`
	FullName     string `json:"full_name"`
	IsActive     *bool  `json:"is_active"`
	IsAdmin      bool   `json:"is_admin"`
	IsSuperadmin bool   `json:"is_superadmin"`
}

func (h *AdminHandler) CreateUser(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)

	var body adminCreateUserBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if taken, err := h.Store.EmailTaken(body.Email); err != nil {
		internalError(c, "admin create user", err)
		return
	} else if taken {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
		return
	}
	if taken, err := h.Store.UsernameTaken(body.Username); err != nil {
		internalError(c, "admin create user", err)
		return
	} else if taken {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username already taken"})
		return
	}

	hashed, err := auth.HashPassword(body.Password)
	if err != nil {
		internalError(c, "admin create user", err)
		return
	}

	user := model.User{
		Email:          body.Email,
		Username:       body.Username,
		HashedPassword: hashed,
		FullName:       body.FullName,
		IsActive:       body.IsActive == nil || *body.IsActive,
		IsAdmin:        body.IsAdmin,
		IsSuperadmin:   body.IsSuperadmin,
	}
	if err := h.Store.CreateUser(&user); err != nil {
		internalError(c, "admin create user", err)
		return
	}

	log.Printf("admin %s created user: %s", actor.Username, user.Username)
	h.Store.AppendAudit(model.AuditLog{
		UserID: actor.ID, Action: "admin_user_create",
		Details:   fmt.Sprintf("created user %s", user.Username),
		IPAddress: c.ClientIP(), UserAgent: c.Request.UserAgent(),
	})
	c.JSON(http.StatusOK, user)
}

type adminUpdateUserBody struct {
	Email        *string `json:"email"`
	FullName     *string `json:"full_name"`
	Password     *string `json:"password"`
	IsActive     *bool   `json:"is_active"`
	IsAdmin      *bool   `json:"is_admin"`
	IsSuperadmin *bool   `json:"is_superadmin"`
}

func (h *AdminHandler) UpdateUser(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)

	userID, ok := idParam(c)
	if !ok {
		return
	}

	user, err := h.Store.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		internalError(c, "admin update user", err)
		return
	}

	var body adminUpdateUserBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if body.Email != nil {
		user.Email = *body.Email
	}
	if body.FullName != nil {
		user.FullName = *body.FullName
	}
	if body.Password != nil {
		hashed, err := auth.HashPassword(*body.Password)
		if err != nil {
			internalError(c, "admin update user", err)
			return
		}
		user.HashedPassword = hashed
	}
	if body.IsActive != nil {
		user.IsActive = *body.IsActive
	}
	if body.IsAdmin != nil {
		user.IsAdmin = *body.IsAdmin
	}
	if body.IsSuperadmin != nil {
		user.IsSuperadmin = *body.IsSuperadmin
	}

	if err := h.Store.UpdateUser(&user); err != nil {
		internalError(c, "admin update user", err)
		return
	}

	log.Printf("admin %s updated user: %s", actor.Username, user.Username)
	c.JSON(http.StatusOK, user)
}

// DeleteUser deactivates; accounts are never hard-deleted.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)

	userID, ok := idParam(c)
	if !ok {
		return
	}
	if userID == actor.ID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot deactivate your own account"})
		return
	}

	if _, err := h.Store.GetUserByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		internalError(c, "admin delete user", err)
		return
	}

	if err := h.Store.DeactivateUser(userID); err != nil {
		internalError(c, "admin delete user", err)
		return
	}

	log.Printf("admin %s deactivated user %d", actor.Username, userID)
	h.Store.AppendAudit(model.AuditLog{
		UserID: actor.ID, Action: "admin_user_deactivate",
		Details:   fmt.Sprintf("deactivated user %d", userID),
		IPAddress: c.ClientIP(), UserAgent: c.Request.UserAgent(),
	})
	c.JSON(http.StatusOK, gin.H{"message": "User deactivated successfully"})
}
