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

// ForgotPassword 签发密码重置令牌。无论邮箱是否存在都返回相同的成功响应。
// 令牌的带外投递（邮件等）不在本服务范围内。
func (h *HTTPHandler) ForgotPassword(c *gin.Context) {
	if h.repo == nil {
		ServiceUnavailable(c, "user repository not available")
		return
	}

	var req entity.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	accepted := func() {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}

	email := entity.NormalizeEmail(req.Email)
	if email == "" {
		accepted()
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	user, err := h.repo.GetActiveUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logrus.WithError(err).Error("failed to load user for password reset")
		}
		accepted()
		return
	}

	token, expiresAt, err := h.authManager.GenerateResetToken(user)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to issue reset token")
		accepted()
		return
	}

	logrus.WithFields(logrus.Fields{
		"user_id":    user.ID,
		"expires_at": expiresAt,
		"token":      token,
	}).Debug("issued password reset token")

	accepted()
}

// ResetPassword 验证重置令牌并写入新密码哈希。
func (h *HTTPHandler) ResetPassword(c *gin.Context) {
	if h.repo == nil {
		ServiceUnavailable(c, "user repository not available")
		return
	}

	var req entity.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	newPassword := strings.TrimSpace(req.NewPassword)
	if len(newPassword) < auth.MinPasswordLength {
		BadRequest(c, ErrCodeWeakPassword, "password is too short")
		return
	}

	// 过期、签名错误、会话令牌误用都归为同一种拒绝
	claims, err := h.authManager.ParseResetToken(strings.TrimSpace(req.Token))
	if err != nil {
		BadRequest(c, ErrCodeResetTokenInvalid, "invalid or expired reset token")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	user, err := h.repo.GetActiveUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			BadRequest(c, ErrCodeResetTokenInvalid, "invalid or expired reset token")
			return
		}
		logrus.WithError(err).WithField("user_id", claims.UserID).Error("failed to load user for password reset")
		InternalError(c, "failed to reset password")
		return
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		logrus.WithError(err).Error("failed to hash reset password")
		InternalError(c, "failed to reset password")
		return
	}

	if err := h.repo.UpdateUser(ctx, user.ID, entity.UserUpdates{PasswordHash: &hash}); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to store reset password hash")
		InternalError(c, "failed to reset password")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
