package api

import (
	"net/http"
	"strings"
	"time"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/entity"
	"storefront/internal/model"
	"storefront/internal/storage"

	"github.com/gin-gonic/gin"
)

// HTTPHandler HTTP 请求处理器
type HTTPHandler struct {
	cfg               config.Config
	repo              model.Repository
	storage           storage.Storage
	storagePublicBase string
	authManager       *auth.Manager
	sessionDuration   time.Duration
}

// NewHTTPHandler 创建 HTTP 处理器实例
func NewHTTPHandler(cfg config.Config, repo model.Repository, store storage.Storage) (*HTTPHandler, error) {
	sessionExpiry := time.Duration(cfg.SessionDurationHours) * time.Hour
	resetExpiry := time.Duration(cfg.ResetTokenMinutes) * time.Minute
	authManager, err := auth.NewManager(cfg.JWTSecret, cfg.JWTIssuer, sessionExpiry, resetExpiry)
	if err != nil {
		return nil, err
	}
	if sessionExpiry <= 0 {
		sessionExpiry = time.Hour * 24 * 7
	}

	handler := &HTTPHandler{
		cfg:               cfg,
		repo:              repo,
		storage:           store,
		storagePublicBase: normalisePublicBase(cfg.StoragePublicBaseURL),
		authManager:       authManager,
		sessionDuration:   sessionExpiry,
	}

	return handler, nil
}

// normalisePublicBase 规范化公共 URL 基础路径
func normalisePublicBase(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		trimmed = "/files"
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return strings.TrimRight(trimmed, "/")
	}
	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}
	return strings.TrimRight(trimmed, "/")
}

// sessionCookieName 返回会话 Cookie 名称
func (h *HTTPHandler) sessionCookieName() string {
	name := strings.TrimSpace(h.cfg.CookieName)
	if name == "" {
		name = "storefront_session"
	}
	return name
}

// setSessionCookie 写入 HttpOnly 会话 Cookie。
func (h *HTTPHandler) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		h.sessionCookieName(),
		token,
		int(h.sessionDuration/time.Second),
		"/",
		h.cfg.CookieDomain,
		h.cfg.CookieSecure,
		true,
	)
}

// clearSessionCookie 清除会话 Cookie。属性必须与写入时一致，否则浏览器可能不会删除。
func (h *HTTPHandler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		h.sessionCookieName(),
		"",
		-1,
		"/",
		h.cfg.CookieDomain,
		h.cfg.CookieSecure,
		true,
	)
}

func makeUserSummary(user *entity.User) entity.UserSummary {
	if user == nil {
		return entity.UserSummary{}
	}
	return entity.UserSummary{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Surname:     user.Surname,
		Phone:       user.Phone,
		BirthDate:   user.BirthDate,
		Gender:      user.Gender,
		Avatar:      user.Avatar,
		Newsletter:  user.Newsletter,
		Role:        user.Role,
		IsActive:    user.IsActive,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}
