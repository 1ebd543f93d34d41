package entity

import (
	"net/mail"
	"strings"
	"time"
)

// Role 是封闭的用户权限枚举。
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole normalises a raw role value, returning "" for anything outside
// the closed set.
func ParseRole(value string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleUser:
		return RoleUser
	default:
		return ""
	}
}

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents a persisted user account.
type User struct {
	ID           uint       `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Email        string     `gorm:"column:email;type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"column:password_hash;type:varchar(255);not null" json:"-"`
	DisplayName  string     `gorm:"column:display_name;type:varchar(255)" json:"display_name"`
	Surname      string     `gorm:"column:surname;type:varchar(255)" json:"surname"`
	Phone        string     `gorm:"column:phone;type:varchar(50)" json:"phone"`
	BirthDate    *time.Time `gorm:"column:birth_date" json:"birth_date"`
	Gender       string     `gorm:"column:gender;type:varchar(20)" json:"gender"`
	Avatar       string     `gorm:"column:avatar;type:varchar(512)" json:"avatar"`
	Newsletter   bool       `gorm:"column:newsletter;not null;default:false" json:"newsletter"`
	Role         Role       `gorm:"column:role;type:varchar(50);index;not null" json:"role"`
	IsActive     bool       `gorm:"column:is_active;not null;default:true" json:"is_active"`
}

// TableName overrides default pluralised name.
func (User) TableName() string {
	return "users"
}

// IsAdmin 判断用户是否具有管理员权限
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// NormalizeEmail trims, lowercases, and validates an email address. Empty
// result means the address is unusable.
func NormalizeEmail(value string) string {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return ""
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil {
		return ""
	}
	// 只接受裸地址；name-addr 形式（"Bob <bob@x.com>"）会让同一邮箱
	// 以不同原始串绕过唯一索引
	if addr.Address != trimmed {
		return ""
	}
	return addr.Address
}

// UserSummary is a lightweight user description returned to clients.
type UserSummary struct {
	ID          uint       `json:"id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	Surname     string     `json:"surname,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	BirthDate   *time.Time `json:"birth_date,omitempty"`
	Gender      string     `json:"gender,omitempty"`
	Avatar      string     `json:"avatar,omitempty"`
	Newsletter  bool       `json:"newsletter"`
	Role        Role       `json:"role"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// UserQuery supports listing users with pagination.
type UserQuery struct {
	BaseParams
	Role    string `json:"role" form:"role" query:"role"`
	Keyword string `json:"keyword" form:"keyword" query:"keyword"`
}

type AuthLoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthRegisterRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name" binding:"required"`
	Surname     string `json:"surname"`
	Phone       string `json:"phone"`
	Newsletter  bool   `json:"newsletter"`
}

type AuthResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      UserSummary `json:"user"`
}

// ProfileUpdateRequest mutates profile fields only. Email and role are not
// reachable through this payload.
type ProfileUpdateRequest struct {
	DisplayName *string    `json:"display_name,omitempty"`
	Surname     *string    `json:"surname,omitempty"`
	Phone       *string    `json:"phone,omitempty"`
	BirthDate   *time.Time `json:"birth_date,omitempty"`
	Gender      *string    `json:"gender,omitempty"`
	Newsletter  *bool      `json:"newsletter,omitempty"`
}

type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

type UserStatusRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

type UserListResponse struct {
	Users []UserSummary `json:"users"`
	Meta  *Meta         `json:"meta"`
}

// UserUpdates 用户更新字段
type UserUpdates struct {
	DisplayName  *string
	Surname      *string
	Phone        *string
	BirthDate    *time.Time
	Gender       *string
	Avatar       *string
	Newsletter   *bool
	Role         *Role
	PasswordHash *string
	IsActive     *bool
}

// ToMap 转换为 GORM 更新 map（内部使用）
func (u UserUpdates) ToMap() map[string]interface{} {
	updates := make(map[string]interface{})
	if u.DisplayName != nil {
		updates["display_name"] = *u.DisplayName
	}
	if u.Surname != nil {
		updates["surname"] = *u.Surname
	}
	if u.Phone != nil {
		updates["phone"] = *u.Phone
	}
	if u.BirthDate != nil {
		updates["birth_date"] = *u.BirthDate
	}
	if u.Gender != nil {
		updates["gender"] = *u.Gender
	}
	if u.Avatar != nil {
		updates["avatar"] = *u.Avatar
	}
	if u.Newsletter != nil {
		updates["newsletter"] = *u.Newsletter
	}
	if u.Role != nil {
		updates["role"] = string(*u.Role)
	}
	if u.PasswordHash != nil {
		updates["password_hash"] = *u.PasswordHash
	}
	if u.IsActive != nil {
		updates["is_active"] = *u.IsActive
	}
	return updates
}

// IsEmpty 检查是否没有任何更新字段
func (u UserUpdates) IsEmpty() bool {
	return len(u.ToMap()) == 0
}
