package model

import (
	"context"

	"storefront/internal/entity"
)

// Repository 定义数据库操作接口
type Repository interface {
	// 用户管理
	CreateUser(ctx context.Context, user *entity.User) error
	UpdateUser(ctx context.Context, id uint, updates entity.UserUpdates) error
	GetActiveUserByEmail(ctx context.Context, email string) (*entity.User, error)
	GetUserByID(ctx context.Context, id uint) (*entity.User, error)
	GetActiveUserByID(ctx context.Context, id uint) (*entity.User, error)
	ListUsers(ctx context.Context, params *entity.UserQuery) ([]entity.User, *entity.Meta, error)
	DeleteUser(ctx context.Context, id uint) error
	CountUsers(ctx context.Context) (int64, error)

	// 商品目录
	CreateProduct(ctx context.Context, product *entity.Product) error
	UpdateProduct(ctx context.Context, id uint, updates entity.ProductUpdates) error
	GetProductByID(ctx context.Context, id uint) (*entity.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*entity.Product, error)
	ListProducts(ctx context.Context, params *entity.ProductQuery) ([]entity.Product, *entity.Meta, error)
	DeleteProduct(ctx context.Context, id uint) error

	// 优惠
	CreateDeal(ctx context.Context, deal *entity.Deal) error
	UpdateDeal(ctx context.Context, id uint, updates entity.DealUpdates) error
	GetDealByID(ctx context.Context, id uint) (*entity.Deal, error)
	ListDeals(ctx context.Context, params *entity.DealQuery) ([]entity.Deal, *entity.Meta, error)
	DeleteDeal(ctx context.Context, id uint) error
}
