package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"expensetracker/config"
	"expensetracker/database"
	"expensetracker/logging"
	"expensetracker/middleware"
	"expensetracker/repository"
	"expensetracker/service"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

const testPassword = "password123"

type testServer struct {
	router *gin.Engine
	store  *repository.Store
}

// newTestServer 基于内存 SQLite 组装全部处理器
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(config.DatabaseConfig{URL: "sqlite://:memory:", LogLevel: "silent"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	jwt, err := middleware.NewJWT(config.JWTConfig{Secret: "test-secret", Algorithm: "HS256", ExpireTime: time.Hour})
	require.NoError(t, err)

	log := logging.Discard()
	store := repository.New(db)
	auth := service.NewAuthService(store, jwt, log)
	authH := NewAuthHandler(auth)
	expenseH := NewExpenseHandler(service.NewExpenseService(store, nil, nil, log), "USD")
	budgetH := NewBudgetHandler(service.NewBudgetService(store, log))

	r := gin.New()
	r.GET("/", Root)
	r.GET("/health", Health)
	r.POST("/auth/register", authH.Register)
	r.POST("/auth/login", authH.Login)

	protected := r.Group("", jwt.Auth(auth, log))
	protected.GET("/auth/me", authH.Me)
	protected.POST("/expense/", expenseH.Create)
	protected.GET("/expense/", expenseH.List)
	protected.GET("/expense/balance", expenseH.Balance)
	protected.GET("/expense/export", expenseH.Export)
	protected.PATCH("/expense/:id", expenseH.Update)
	protected.DELETE("/expense/:id", expenseH.Delete)
	protected.POST("/budget/", budgetH.Create)
	protected.GET("/budget/", budgetH.List)

	return &testServer{router: r, store: store}
}

func (s *testServer) do(method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(t *testing.T, username, password string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// signup 注册并登录，返回令牌
func (s *testServer) signup(t *testing.T, username string, bank, cash int64) string {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"username":     username,
		"password":     testPassword,
		"initial_bank": bank,
		"initial_cash": cash,
	})
	require.NoError(t, err)
	w := s.do(http.MethodPost, "/auth/register", string(body), "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.login(t, username, testPassword)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var tok TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tok))
	return tok.AccessToken
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func setUserIDMiddleware(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	}
}

// setupMockDB 基于 sqlmock 的 MySQL 连接，用于模拟数据库故障
func setupMockDB(t *testing.T) (*repository.Store, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return repository.New(gormDB), mock
}
