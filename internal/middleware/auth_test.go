package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"astral-server/internal/auth"
	"astral-server/internal/model"
	"astral-server/internal/store"
)

var testTokenConfig = auth.TokenConfig{Secret: "test-secret", Expiry: time.Hour, Issuer: "astral-server"}

func testStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	st := store.New(db)
	if err := st.AutoMigrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return st
}

func seedUser(t *testing.T, st *store.Store, username string, active, admin, superadmin bool) model.User {
	t.Helper()
	user := model.User{
		Email:          username + "@example.com",
		Username:       username,
		HashedPassword: "hashed",
		IsActive:       active,
		IsAdmin:        admin,
		IsSuperadmin:   superadmin,
	}
	if err := st.CreateUser(&user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func probeRouter(st *store.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	requireAuth := RequireAuth(st, testTokenConfig)
	r.GET("/probe", requireAuth, func(c *gin.Context) {
		user, _ := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"username": user.Username})
	})
	r.GET("/admin-probe", requireAuth, RequireAdmin(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{})
	})
	r.GET("/super-probe", requireAuth, RequireSuperadmin(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{})
	})
	return r
}

func get(r *gin.Engine, path string, decorate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if decorate != nil {
		decorate(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth_MissingToken(t *testing.T) {
	r := probeRouter(testStore(t))
	if w := get(r, "/probe", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	r := probeRouter(testStore(t))
	w := get(r, "/probe", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer not-a-token")
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireAuth_BearerAndCookie(t *testing.T) {
	st := testStore(t)
	seedUser(t, st, "alice", true, false, false)
	r := probeRouter(st)

	token, err := auth.CreateToken("alice", testTokenConfig)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	w := get(r, "/probe", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	})
	if w.Code != http.StatusOK {
		t.Fatalf("bearer: expected 200, got %d %s", w.Code, w.Body.String())
	}

	w = get(r, "/probe", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
	})
	if w.Code != http.StatusOK {
		t.Fatalf("cookie: expected 200, got %d %s", w.Code, w.Body.String())
	}
}

func TestRequireAuth_UnknownUser(t *testing.T) {
	r := probeRouter(testStore(t))
	token, err := auth.CreateToken("ghost", testTokenConfig)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	w := get(r, "/probe", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireAuth_InactiveUser(t *testing.T) {
	st := testStore(t)
	seedUser(t, st, "alice", false, false, false)
	r := probeRouter(st)

	token, err := auth.CreateToken("alice", testTokenConfig)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	w := get(r, "/probe", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for inactive user, got %d", w.Code)
	}
}

func TestPrivilegeTiers(t *testing.T) {
	st := testStore(t)
	seedUser(t, st, "plain", true, false, false)
	seedUser(t, st, "admin", true, true, false)
	seedUser(t, st, "super", true, false, true)
	r := probeRouter(st)

	cases := []struct {
		username string
		path     string
		want     int
	}{
		{"plain", "/admin-probe", http.StatusForbidden},
		{"plain", "/super-probe", http.StatusForbidden},
		{"admin", "/admin-probe", http.StatusOK},
		{"admin", "/super-probe", http.StatusForbidden},
		{"super", "/admin-probe", http.StatusOK},
		{"super", "/super-probe", http.StatusOK},
	}
	for _, tc := range cases {
		token, err := auth.CreateToken(tc.username, testTokenConfig)
		if err != nil {
			t.Fatalf("CreateToken: %v", err)
		}
		w := get(r, tc.path, func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+token)
		})
		if w.Code != tc.want {
			t.Fatalf("%s %s: expected %d, got %d", tc.username, tc.path, tc.want, w.Code)
		}
	}
}
