package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 错误码定义
const (
	// 通用错误码 (1xxx)
	ErrCodeInvalidRequest     = "ERR_INVALID_REQUEST"
	ErrCodeUnauthorized       = "ERR_UNAUTHORIZED"
	ErrCodeForbidden          = "ERR_FORBIDDEN"
	ErrCodeNotFound           = "ERR_NOT_FOUND"
	ErrCodeInternalError      = "ERR_INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "ERR_SERVICE_UNAVAILABLE"

	// 认证错误码 (2xxx)
	ErrCodeInvalidCredentials   = "ERR_INVALID_CREDENTIALS"
	ErrCodeEmailTaken           = "ERR_EMAIL_TAKEN"
	ErrCodeInvalidEmail         = "ERR_INVALID_EMAIL"
	ErrCodeWeakPassword         = "ERR_WEAK_PASSWORD"
	ErrCodeSessionExpired       = "ERR_SESSION_EXPIRED"
	ErrCodeUserNotFound         = "ERR_USER_NOT_FOUND"
	ErrCodeWrongCurrentPassword = "ERR_WRONG_CURRENT_PASSWORD"
	ErrCodeResetTokenInvalid    = "ERR_INVALID_OR_EXPIRED_RESET_TOKEN"

	// 管理操作错误码 (3xxx)
	ErrCodeAlreadyAdmin = "ERR_ALREADY_ADMIN"
	ErrCodeNotAdmin     = "ERR_NOT_ADMIN"
	ErrCodeSelfTarget   = "ERR_SELF_TARGET"

	// 目录错误码 (4xxx)
	ErrCodeProductNotFound = "ERR_PRODUCT_NOT_FOUND"
	ErrCodeDealNotFound    = "ERR_DEAL_NOT_FOUND"
	ErrCodeSlugTaken       = "ERR_SLUG_TAKEN"

	// 业务逻辑错误码 (5xxx)
	ErrCodeMissingField = "ERR_MISSING_FIELD"
)

// APIError 统一的 API 错误响应结构
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse 返回统一格式的错误响应
func ErrorResponse(c *gin.Context, status int, code string, message string) {
	c.JSON(status, APIError{
		Code:    code,
		Message: message,
	})
}

// ErrorResponseWithDetails 返回带详情的错误响应
func ErrorResponseWithDetails(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, APIError{
		Code:    code,
		Message: message,
		Details: details,
	})
}

// 常用错误响应快捷函数

// BadRequest 400 错误请求
func BadRequest(c *gin.Context, code string, message string) {
	ErrorResponse(c, http.StatusBadRequest, code, message)
}

// Unauthorized 401 未授权
func Unauthorized(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// Forbidden 403 禁止访问
func Forbidden(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusForbidden, ErrCodeForbidden, message)
}

// NotFound 404 资源不存在
func NotFound(c *gin.Context, code string, message string) {
	ErrorResponse(c, http.StatusNotFound, code, message)
}

// Conflict 409 资源冲突
func Conflict(c *gin.Context, code string, message string) {
	ErrorResponse(c, http.StatusConflict, code, message)
}

// InternalError 500 服务器内部错误
func InternalError(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusInternalServerError, ErrCodeInternalError, message)
}

// ServiceUnavailable 503 服务不可用
func ServiceUnavailable(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, message)
}

// MissingField 缺少必填字段
func MissingField(c *gin.Context, field string) {
	ErrorResponseWithDetails(c, http.StatusBadRequest, ErrCodeMissingField, field+" is required", gin.H{"field": field})
}

// InvalidPayload 无效的请求体
func InvalidPayload(c *gin.Context) {
	ErrorResponse(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request payload")
}
