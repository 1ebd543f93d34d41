package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/auth"
	"storefront/internal/entity"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	currentUserContextKey = "current-user"
)

// RequestUser 存储请求上下文中的认证用户信息
type RequestUser struct {
	ID          uint
	Email       string
	DisplayName string
	Role        entity.Role
}

// IsAdmin 判断用户是否具有管理员权限
func (u *RequestUser) IsAdmin() bool {
	return u != nil && u.Role == entity.RoleAdmin
}

// extractToken 优先从会话 Cookie 读取令牌，缺失时回退到 Authorization 头。
func (h *HTTPHandler) extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(h.sessionCookieName()); err == nil {
		if trimmed := strings.TrimSpace(cookie); trimmed != "" {
			return trimmed
		}
	}

	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// resolveSession 验证令牌并加载对应的活跃用户。
func (h *HTTPHandler) resolveSession(c *gin.Context, tokenString string) (*RequestUser, *APIError) {
	claims, err := h.authManager.ParseSessionToken(tokenString)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, &APIError{Code: ErrCodeSessionExpired, Message: "session expired, please re-authenticate"}
		}
		return nil, &APIError{Code: ErrCodeUnauthorized, Message: "invalid token"}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	user, err := h.repo.GetActiveUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 已停用或已删除的账户：签名有效也不放行
			return nil, &APIError{Code: ErrCodeUserNotFound, Message: "user not found or inactive"}
		}
		logrus.WithError(err).WithField("user_id", claims.UserID).Error("failed to load user")
		return nil, &APIError{Code: ErrCodeInternalError, Message: "failed to verify user"}
	}

	return &RequestUser{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
	}, nil
}

// AuthMiddleware 会话认证中间件
func (h *HTTPHandler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := h.extractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, APIError{
				Code:    ErrCodeUnauthorized,
				Message: "authentication required",
			})
			return
		}

		requestUser, apiErr := h.resolveSession(c, tokenString)
		if apiErr != nil {
			status := http.StatusUnauthorized
			if apiErr.Code == ErrCodeInternalError {
				status = http.StatusInternalServerError
			}
			c.AbortWithStatusJSON(status, *apiErr)
			return
		}

		c.Set(currentUserContextKey, requestUser)
		c.Next()
	}
}

// OptionalAuthMiddleware 可选认证中间件：对匿名请求不拦截，仅在令牌有效时附加身份。
func (h *HTTPHandler) OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := h.extractToken(c)
		if tokenString != "" {
			if requestUser, apiErr := h.resolveSession(c, tokenString); apiErr == nil {
				c.Set(currentUserContextKey, requestUser)
			}
		}
		c.Next()
	}
}

// RequireRole 角色守卫中间件，必须在 AuthMiddleware 之后运行。
func (h *HTTPHandler) RequireRole(role entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, APIError{
				Code:    ErrCodeUnauthorized,
				Message: "authentication required",
			})
			return
		}
		if user.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, APIError{
				Code:    ErrCodeForbidden,
				Message: "insufficient privilege",
			})
			return
		}
		c.Next()
	}
}

// RequireAdmin 管理员权限守卫中间件
func (h *HTTPHandler) RequireAdmin() gin.HandlerFunc {
	return h.RequireRole(entity.RoleAdmin)
}

// CurrentUser 从上下文获取当前认证用户
func CurrentUser(c *gin.Context) *RequestUser {
	value, exists := c.Get(currentUserContextKey)
	if !exists {
		return nil
	}
	user, ok := value.(*RequestUser)
	if !ok {
		return nil
	}
	return user
}
