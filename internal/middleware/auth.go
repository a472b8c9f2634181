package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"astral-server/internal/auth"
	"astral-server/internal/model"
	"astral-server/internal/store"
)

const userContextKey = "currentUser"

const AccessTokenCookie = "access_token"

func CurrentUser(c *gin.Context) (model.User, bool) {
	value, ok := c.Get(userContextKey)
	if !ok {
		return model.User{}, false
	}
	user, ok := value.(model.User)
	return user, ok
}

// tokenFromRequest accepts a bearer header first, the session cookie second.
func tokenFromRequest(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil {
		return cookie
	}
	return ""
}

// RequireAuth resolves the acting account from the request token and rejects
// inactive accounts. Handlers downstream read it via CurrentUser.
func RequireAuth(st *store.Store, cfg auth.TokenConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			c.Abort()
			return
		}

		claims, err := auth.VerifyToken(token, cfg)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Could not validate credentials"})
			c.Abort()
			return
		}

		user, err := st.GetUserByUsername(claims.Username)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Could not validate credentials"})
			c.Abort()
			return
		}
		if !user.IsActive {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Inactive user"})
			c.Abort()
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// RequireAdmin runs after RequireAuth; superadmins pass as well.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok || (!user.IsAdmin && !user.IsSuperadmin) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not enough permissions. Admin access required."})
			c.Abort()
			return
		}
		c.Next()
	}
}

func RequireSuperadmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok || !user.IsSuperadmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not enough permissions. Superadmin access required."})
			c.Abort()
			return
		}
		c.Next()
	}
}
