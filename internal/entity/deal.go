package entity

import "time"

// Deal represents a time-boxed discount attached to a product.
type Deal struct {
	ID              uint       `gorm:"primarykey" json:"id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	ProductID       uint       `gorm:"column:product_id;index;not null" json:"product_id"`
	Title           string     `gorm:"column:title;type:varchar(255);not null" json:"title"`
	DiscountPercent int        `gorm:"column:discount_percent;not null;default:0" json:"discount_percent"`
	CouponCode      string     `gorm:"column:coupon_code;type:varchar(100)" json:"coupon_code"`
	StartsAt        *time.Time `gorm:"column:starts_at" json:"starts_at"`
	EndsAt          *time.Time `gorm:"column:ends_at" json:"ends_at"`
	IsActive        bool       `gorm:"column:is_active;not null;default:true;index" json:"is_active"`
}

// TableName overrides default pluralised name.
func (Deal) TableName() string {
	return "deals"
}

// DealQuery supports listing deals with pagination.
type DealQuery struct {
	BaseParams
	ProductID uint  `json:"product_id" form:"product_id" query:"product_id"`
	Active    *bool `json:"active" form:"active" query:"active"`
}

type DealCreateRequest struct {
	ProductID       uint       `json:"product_id" binding:"required"`
	Title           string     `json:"title" binding:"required"`
	DiscountPercent int        `json:"discount_percent" binding:"min=0,max=100"`
	CouponCode      string     `json:"coupon_code"`
	StartsAt        *time.Time `json:"starts_at"`
	EndsAt          *time.Time `json:"ends_at"`
	IsActive        *bool      `json:"is_active"`
}

type DealUpdateRequest struct {
	Title           *string    `json:"title,omitempty"`
	DiscountPercent *int       `json:"discount_percent,omitempty"`
	CouponCode      *string    `json:"coupon_code,omitempty"`
	StartsAt        *time.Time `json:"starts_at,omitempty"`
	EndsAt          *time.Time `json:"ends_at,omitempty"`
	IsActive        *bool      `json:"is_active,omitempty"`
}

type DealListResponse struct {
	Deals []Deal `json:"deals"`
	Meta  *Meta  `json:"meta"`
}

// DealUpdates 优惠更新字段
type DealUpdates struct {
	Title           *string
	DiscountPercent *int
	CouponCode      *string
	StartsAt        *time.Time
	EndsAt          *time.Time
	IsActive        *bool
}

// ToMap 转换为 GORM 更新 map（内部使用）
func (u DealUpdates) ToMap() map[string]interface{} {
	updates := make(map[string]interface{})
	if u.Title != nil {
		updates["title"] = *u.Title
	}
	if u.DiscountPercent != nil {
		updates["discount_percent"] = *u.DiscountPercent
	}
	if u.CouponCode != nil {
		updates["coupon_code"] = *u.CouponCode
	}
	if u.StartsAt != nil {
		updates["starts_at"] = *u.StartsAt
	}
	if u.EndsAt != nil {
		updates["ends_at"] = *u.EndsAt
	}
	if u.IsActive != nil {
		updates["is_active"] = *u.IsActive
	}
	return updates
}

// IsEmpty 检查是否没有任何更新字段
func (u DealUpdates) IsEmpty() bool {
	return len(u.ToMap()) == 0
}
