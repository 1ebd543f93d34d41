package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/entity"
	sqlrepo "storefront/internal/model/sql"
	"storefront/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	cfg     config.Config
	handler *HTTPHandler
	router  *gin.Engine
	repo    *sqlrepo.GormRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entity.User{}, &entity.Product{}, &entity.Deal{}))

	repo := sqlrepo.NewGormRepository(db)

	store, err := storage.NewLocalStorage(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	cfg := config.Config{
		JWTSecret:            "test-secret",
		JWTIssuer:            "storefront-test",
		SessionDurationHours: 1,
		ResetTokenMinutes:    30,
		CookieName:           "storefront_session",
		CookieSecure:         false,
		StoragePublicBaseURL: "/files",
	}

	handler, err := NewHTTPHandler(cfg, repo, store)
	require.NoError(t, err)

	return &testEnv{
		cfg:     cfg,
		handler: handler,
		router:  newTestRouter(handler),
		repo:    repo,
	}
}

// newTestRouter 挂载与服务入口一致的路由表。
func newTestRouter(h *HTTPHandler) *gin.Engine {
	r := gin.New()

	apiGroup := r.Group("/api")

	authGroup := apiGroup.Group("/auth")
	authGroup.POST("/register", h.Register)
	authGroup.POST("/login", h.Login)
	authGroup.POST("/logout", h.Logout)
	authGroup.POST("/forgot-password", h.ForgotPassword)
	authGroup.POST("/reset-password", h.ResetPassword)

	meGroup := authGroup.Group("/me")
	meGroup.Use(h.AuthMiddleware())
	meGroup.GET("", h.Me)
	meGroup.PATCH("", h.UpdateProfile)
	meGroup.DELETE("", h.DeleteAccount)
	meGroup.POST("/password", h.ChangePassword)
	meGroup.POST("/avatar", h.UploadAvatar)

	catalog := apiGroup.Group("")
	catalog.Use(h.OptionalAuthMiddleware())
	catalog.GET("/products", h.ListProducts)
	catalog.GET("/products/:slug", h.GetProduct)
	catalog.GET("/deals", h.ListDeals)

	admin := apiGroup.Group("/admin")
	admin.Use(h.AuthMiddleware(), h.RequireAdmin())
	admin.GET("/users", h.ListUsers)
	admin.POST("/users/:id/promote", h.PromoteUser)
	admin.POST("/users/:id/demote", h.DemoteUser)
	admin.PUT("/users/:id/status", h.SetUserStatus)

	productAdmin := apiGroup.Group("/products")
	productAdmin.Use(h.AuthMiddleware(), h.RequireAdmin())
	productAdmin.POST("", h.CreateProduct)
	productAdmin.PUT("/:id", h.UpdateProduct)
	productAdmin.DELETE("/:id", h.DeleteProduct)

	dealAdmin := apiGroup.Group("/deals")
	dealAdmin.Use(h.AuthMiddleware(), h.RequireAdmin())
	dealAdmin.POST("", h.CreateDeal)
	dealAdmin.PUT("/:id", h.UpdateDeal)
	dealAdmin.DELETE("/:id", h.DeleteDeal)

	return r
}

func (e *testEnv) createUser(t *testing.T, email, password string, role entity.Role, active bool) *entity.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	user := &entity.User{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  "Test User",
		Role:         role,
		IsActive:     active,
	}
	require.NoError(t, e.repo.CreateUser(context.Background(), user))
	return user
}

// jsonRequest 发送 JSON 请求，cookie 可为 nil。
func (e *testEnv) jsonRequest(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// newRequest 构造未发送的请求，便于调用方补充请求头。
func (e *testEnv) newRequest(t *testing.T, method, path string, body any) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return req, httptest.NewRecorder()
}

// login 执行登录并返回会话 Cookie。
func (e *testEnv) login(t *testing.T, email, password string) *http.Cookie {
	t.Helper()
	w := e.jsonRequest(t, http.MethodPost, "/api/auth/login", entity.AuthLoginRequest{
		Email:    email,
		Password: password,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	cookie := sessionCookie(e.cfg.CookieName, w)
	require.NotNil(t, cookie, "expected login to set session cookie")
	return cookie
}

func sessionCookie(name string, w *httptest.ResponseRecorder) *http.Cookie {
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func decodeAPIError(t *testing.T, w *httptest.ResponseRecorder) APIError {
	t.Helper()
	var apiErr APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	return apiErr
}
