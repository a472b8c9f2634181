package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"astral-server/internal/middleware"
	"astral-server/internal/store"
)

type UserHandler struct {
	Store *store.Store
}

func (h *UserHandler) List(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	if !user.IsAdmin && !user.IsSuperadmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not enough permissions"})
		return
	}

	users, err := h.Store.ListUsers(0, 0, false)
	if err != nil {
		internalError(c, "list users", err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// Get allows users to see their own profile; admins can see anyone's.
func (h *UserHandler) Get(c *gin.Context) {
	current, _ := middleware.CurrentUser(c)

	userID, ok := idParam(c)
	if !ok {
		return
	}

	if !current.IsAdmin && !current.IsSuperadmin && current.ID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not enough permissions"})
		return
	}

	user, err := h.Store.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		internalError(c, "get user", err)
		return
	}
	c.JSON(http.StatusOK, user)
}
