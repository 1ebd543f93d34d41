package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"storefront/internal/auth"
	"storefront/internal/entity"
	"storefront/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// maxAvatarBytes 限制头像上传大小
const maxAvatarBytes = 5 << 20

// UpdateProfile 更新当前用户的个人资料。邮箱和角色不可通过此接口修改。
func (h *HTTPHandler) UpdateProfile(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	var req entity.ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	updates := entity.UserUpdates{}

	if req.DisplayName != nil {
		trimmed := strings.TrimSpace(*req.DisplayName)
		if trimmed == "" {
			MissingField(c, "display_name")
			return
		}
		updates.DisplayName = &trimmed
	}
	if req.Surname != nil {
		trimmed := strings.TrimSpace(*req.Surname)
		updates.Surname = &trimmed
	}
	if req.Phone != nil {
		trimmed := strings.TrimSpace(*req.Phone)
		updates.Phone = &trimmed
	}
	if req.BirthDate != nil {
		updates.BirthDate = req.BirthDate
	}
	if req.Gender != nil {
		trimmed := strings.TrimSpace(*req.Gender)
		updates.Gender = &trimmed
	}
	if req.Newsletter != nil {
		updates.Newsletter = req.Newsletter
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if !updates.IsEmpty() {
		if err := h.repo.UpdateUser(ctx, user.ID, updates); err != nil {
			logrus.WithError(err).WithField("user_id", user.ID).Error("failed to update profile")
			InternalError(c, "failed to update profile")
			return
		}
	}

	updated, err := h.repo.GetUserByID(ctx, user.ID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to reload user after update")
		InternalError(c, "failed to load updated profile")
		return
	}

	c.JSON(http.StatusOK, makeUserSummary(updated))
}

// ChangePassword 修改当前用户密码，需验证旧密码。
func (h *HTTPHandler) ChangePassword(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	var req entity.PasswordChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	newPassword := strings.TrimSpace(req.NewPassword)
	if len(newPassword) < auth.MinPasswordLength {
		BadRequest(c, ErrCodeWeakPassword, "password is too short")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	dbUser, err := h.repo.GetUserByID(ctx, user.ID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to load user for password change")
		InternalError(c, "failed to change password")
		return
	}

	if err := auth.VerifyPassword(dbUser.PasswordHash, req.CurrentPassword); err != nil {
		BadRequest(c, ErrCodeWrongCurrentPassword, "current password does not match")
		return
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		logrus.WithError(err).Error("failed to hash new password")
		InternalError(c, "failed to change password")
		return
	}

	if err := h.repo.UpdateUser(ctx, user.ID, entity.UserUpdates{PasswordHash: &hash}); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to store new password hash")
		InternalError(c, "failed to change password")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// UploadAvatar 上传头像（multipart），旧头像对象会被丢弃。
func (h *HTTPHandler) UploadAvatar(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}
	if h.storage == nil {
		ServiceUnavailable(c, "storage not available")
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		MissingField(c, "avatar")
		return
	}
	if fileHeader.Size > maxAvatarBytes {
		BadRequest(c, ErrCodeInvalidRequest, "avatar file too large")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		logrus.WithError(err).Error("failed to open uploaded avatar")
		InternalError(c, "failed to store avatar")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAvatarBytes+1))
	if err != nil {
		logrus.WithError(err).Error("failed to read uploaded avatar")
		InternalError(c, "failed to store avatar")
		return
	}
	if len(data) == 0 || len(data) > maxAvatarBytes {
		BadRequest(c, ErrCodeInvalidRequest, "invalid avatar payload")
		return
	}

	ext := strings.TrimPrefix(filepath.Ext(fileHeader.Filename), ".")
	if ext == "" {
		ext = "jpg"
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	dbUser, err := h.repo.GetUserByID(ctx, user.ID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to load user for avatar upload")
		InternalError(c, "failed to store avatar")
		return
	}

	key, err := h.storage.Save(ctx, data, storage.SaveOptions{
		Category:  "avatars",
		Extension: ext,
		BaseName:  uuid.NewString(),
	})
	if err != nil {
		logrus.WithError(err).Error("failed to save avatar")
		InternalError(c, "failed to store avatar")
		return
	}

	if err := h.repo.UpdateUser(ctx, user.ID, entity.UserUpdates{Avatar: &key}); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to persist avatar reference")
		InternalError(c, "failed to store avatar")
		return
	}

	// 旧对象清理失败不影响本次上传
	if old := strings.TrimSpace(dbUser.Avatar); old != "" && old != key {
		if err := h.storage.Delete(ctx, old); err != nil {
			logrus.WithError(err).WithField("key", old).Warn("failed to delete previous avatar")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"avatar":     key,
		"avatar_url": h.storagePublicBase + "/" + strings.TrimLeft(key, "/"),
	})
}

// DeleteAccount 永久删除当前账户，并丢弃已存储的头像对象。
func (h *HTTPHandler) DeleteAccount(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	dbUser, err := h.repo.GetUserByID(ctx, user.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to load user for deletion")
		InternalError(c, "failed to delete account")
		return
	}

	if dbUser != nil && h.storage != nil {
		if avatar := strings.TrimSpace(dbUser.Avatar); avatar != "" {
			if err := h.storage.Delete(ctx, avatar); err != nil {
				logrus.WithError(err).WithField("key", avatar).Warn("failed to delete avatar during account removal")
			}
		}
	}

	if err := h.repo.DeleteUser(ctx, user.ID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to delete user")
		InternalError(c, "failed to delete account")
		return
	}

	h.clearSessionCookie(c)
	c.Status(http.StatusNoContent)
}
