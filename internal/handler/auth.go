package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"astral-server/internal/auth"
	"astral-server/internal/middleware"
	"astral-server/internal/model"
	"astral-server/internal/store"
)

type AuthHandler struct {
	Store        *store.Store
	TokenConfig  auth.TokenConfig
	LoginLimiter *middleware.RateLimiter
}

type registerBody struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name"`
}

type loginBody struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var body registerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if h.LoginLimiter != nil && !h.LoginLimiter.Allow(c.ClientIP()) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
		return
	}

	if !auth.ValidatePasswordStrength(body.Password) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Password must be at least 8 characters long and contain uppercase, lowercase letters and numbers",
		})
		return
	}

	if taken, err := h.Store.EmailTaken(body.Email); err != nil {
		internalError(c, "register", err)
		return
	} else if taken {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
		return
	}
	if taken, err := h.Store.UsernameTaken(body.Username); err != nil {
		internalError(c, "register", err)
		return
	} else if taken {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username already taken"})
		return
	}

	hashed, err := auth.HashPassword(body.Password)
	if err != nil {
		internalError(c, "register", err)
		return
	}

	user := model.User{
		Email:          body.Email,
		Username:       body.Username,
		HashedPassword: hashed,
		FullName:       body.FullName,
		IsActive:       true,
	}
	if err := h.Store.CreateUser(&user); err != nil {
		internalError(c, "register", err)
		return
	}

	h.audit(c, user.ID, "register", fmt.Sprintf("registered account %s", user.Username))
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var body loginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if h.LoginLimiter != nil && !h.LoginLimiter.Allow(c.ClientIP()) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
		return
	}

	user, err := h.Store.GetUserByUsername(body.Username)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			internalError(c, "login", err)
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect username or password"})
		return
	}
	if !auth.CheckPassword(body.Password, user.HashedPassword) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect username or password"})
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Inactive user"})
		return
	}

	if err := h.Store.RecordLogin(user.ID, time.Now()); err != nil {
		log.Printf("login: record stats for user %d: %v", user.ID, err)
	}

	token, err := auth.CreateToken(user.Username, h.TokenConfig)
	if err != nil {
		internalError(c, "login", err)
		return
	}

	h.setTokenCookie(c, token)
	h.audit(c, user.ID, "login", "")
	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	token, err := auth.CreateToken(user.Username, h.TokenConfig)
	if err != nil {
		internalError(c, "refresh", err)
		return
	}

	h.setTokenCookie(c, token)
	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) setTokenCookie(c *gin.Context, token string) {
	maxAge := int(h.TokenConfig.Expiry.Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, token, maxAge, "/", "", false, true)
}

func (h *AuthHandler) audit(c *gin.Context, userID uint, action, details string) {
	h.Store.AppendAudit(model.AuditLog{
		UserID:    userID,
		Action:    action,
		Details:   details,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
}

func internalError(c *gin.Context, op string, err error) {
	user, _ := middleware.CurrentUser(c)
	log.Printf("%s: user=%d: %v", op, user.ID, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
