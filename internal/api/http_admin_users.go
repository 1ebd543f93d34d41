package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"storefront/internal/entity"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func (h *HTTPHandler) ListUsers(c *gin.Context) {
	if h.repo == nil {
		ServiceUnavailable(c, "user repository not available")
		return
	}

	var query entity.UserQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "invalid query parameters")
		return
	}
	if trimmed := strings.TrimSpace(query.Role); trimmed != "" {
		role := entity.ParseRole(trimmed)
		if role == "" {
			BadRequest(c, ErrCodeInvalidRequest, "invalid role filter")
			return
		}
		query.Role = string(role)
	}
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.PageSize <= 0 {
		query.PageSize = 20
	}
	if query.PageSize > 100 {
		query.PageSize = 100
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	users, meta, err := h.repo.ListUsers(ctx, &query)
	if err != nil {
		logrus.WithError(err).Error("failed to list users")
		InternalError(c, "failed to load users")
		return
	}

	response := entity.UserListResponse{
		Users: make([]entity.UserSummary, 0, len(users)),
		Meta:  meta,
	}
	for idx := range users {
		response.Users = append(response.Users, makeUserSummary(&users[idx]))
	}

	c.JSON(http.StatusOK, response)
}

// PromoteUser 将目标用户提升为管理员。重复提升按错误拒绝而非静默接受。
func (h *HTTPHandler) PromoteUser(c *gin.Context) {
	target, ok := h.loadTargetUser(c)
	if !ok {
		return
	}

	if target.Role == entity.RoleAdmin {
		BadRequest(c, ErrCodeAlreadyAdmin, "user is already an admin")
		return
	}

	role := entity.RoleAdmin
	h.applyUserUpdate(c, target, entity.UserUpdates{Role: &role})
}

// DemoteUser 将目标管理员降级为普通用户。管理员不能降级自己。
func (h *HTTPHandler) DemoteUser(c *gin.Context) {
	target, ok := h.loadTargetUser(c)
	if !ok {
		return
	}

	requestUser := CurrentUser(c)
	if requestUser != nil && requestUser.ID == target.ID {
		BadRequest(c, ErrCodeSelfTarget, "cannot demote current user")
		return
	}
	if target.Role != entity.RoleAdmin {
		BadRequest(c, ErrCodeNotAdmin, "user is not an admin")
		return
	}

	role := entity.RoleUser
	h.applyUserUpdate(c, target, entity.UserUpdates{Role: &role})
}

// SetUserStatus 启用或停用目标用户。管理员不能停用自己。
func (h *HTTPHandler) SetUserStatus(c *gin.Context) {
	target, ok := h.loadTargetUser(c)
	if !ok {
		return
	}

	requestUser := CurrentUser(c)
	if requestUser != nil && requestUser.ID == target.ID {
		BadRequest(c, ErrCodeSelfTarget, "cannot change status of current user")
		return
	}

	var req entity.UserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
		InvalidPayload(c)
		return
	}

	h.applyUserUpdate(c, target, entity.UserUpdates{IsActive: req.IsActive})
}

// loadTargetUser 解析 :id 参数并加载目标用户，处理统一的错误响应。
func (h *HTTPHandler) loadTargetUser(c *gin.Context) (*entity.User, bool) {
	if h.repo == nil {
		ServiceUnavailable(c, "user repository not available")
		return nil, false
	}

	idValue := strings.TrimSpace(c.Param("id"))
	id, err := strconv.ParseUint(idValue, 10, 64)
	if err != nil || id == 0 {
		BadRequest(c, ErrCodeInvalidRequest, "invalid user id")
		return nil, false
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	user, err := h.repo.GetUserByID(ctx, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeUserNotFound, "user not found")
			return nil, false
		}
		logrus.WithError(err).WithField("user_id", id).Error("failed to load target user")
		InternalError(c, "failed to load user")
		return nil, false
	}
	return user, true
}

func (h *HTTPHandler) applyUserUpdate(c *gin.Context, target *entity.User, updates entity.UserUpdates) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.UpdateUser(ctx, target.ID, updates); err != nil {
		logrus.WithError(err).WithField("user_id", target.ID).Error("failed to update user")
		InternalError(c, "failed to update user")
		return
	}

	updated, err := h.repo.GetUserByID(ctx, target.ID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", target.ID).Error("failed to reload user after update")
		InternalError(c, "failed to load updated user")
		return
	}

	c.JSON(http.StatusOK, makeUserSummary(updated))
}
