package entity

import "time"

// Product represents a catalog entry with its affiliate link.
type Product struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Slug         string    `gorm:"column:slug;type:varchar(255);uniqueIndex;not null" json:"slug"`
	Title        string    `gorm:"column:title;type:varchar(255);not null" json:"title"`
	Description  string    `gorm:"column:description;type:text" json:"description"`
	PriceCents   int64     `gorm:"column:price_cents;not null;default:0" json:"price_cents"`
	Currency     string    `gorm:"column:currency;type:varchar(10);not null;default:'EUR'" json:"currency"`
	AffiliateURL string    `gorm:"column:affiliate_url;type:varchar(1024)" json:"affiliate_url"`
	Image        string    `gorm:"column:image;type:varchar(512)" json:"image"`
	Published    bool      `gorm:"column:published;not null;default:false;index" json:"published"`
}

// TableName overrides default pluralised name.
func (Product) TableName() string {
	return "products"
}

// ProductQuery supports listing products with pagination.
type ProductQuery struct {
	BaseParams
	Keyword   string `json:"keyword" form:"keyword" query:"keyword"`
	Published *bool  `json:"published" form:"published" query:"published"`
}

type ProductCreateRequest struct {
	Slug         string `json:"slug" binding:"required"`
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description"`
	PriceCents   int64  `json:"price_cents"`
	Currency     string `json:"currency"`
	AffiliateURL string `json:"affiliate_url"`
	Image        string `json:"image"`
	Published    bool   `json:"published"`
}

type ProductUpdateRequest struct {
	Title        *string `json:"title,omitempty"`
	Description  *string `json:"description,omitempty"`
	PriceCents   *int64  `json:"price_cents,omitempty"`
	Currency     *string `json:"currency,omitempty"`
	AffiliateURL *string `json:"affiliate_url,omitempty"`
	Image        *string `json:"image,omitempty"`
	Published    *bool   `json:"published,omitempty"`
}

type ProductListResponse struct {
	Products []Product `json:"products"`
	Meta     *Meta     `json:"meta"`
}

// ProductUpdates 商品更新字段
type ProductUpdates struct {
	Title        *string
	Description  *string
	PriceCents   *int64
	Currency     *string
	AffiliateURL *string
	Image        *string
	Published    *bool
}

// ToMap 转换为 GORM 更新 map（内部使用）
func (u ProductUpdates) ToMap() map[string]interface{} {
	updates := make(map[string]interface{})
	if u.Title != nil {
		updates["title"] = *u.Title
	}
	if u.Description != nil {
		updates["description"] = *u.Description
	}
	if u.PriceCents != nil {
		updates["price_cents"] = *u.PriceCents
	}
	if u.Currency != nil {
		updates["currency"] = *u.Currency
	}
	if u.AffiliateURL != nil {
		updates["affiliate_url"] = *u.AffiliateURL
	}
	if u.Image != nil {
		updates["image"] = *u.Image
	}
	if u.Published != nil {
		updates["published"] = *u.Published
	}
	return updates
}

// IsEmpty 检查是否没有任何更新字段
func (u ProductUpdates) IsEmpty() bool {
	return len(u.ToMap()) == 0
}
