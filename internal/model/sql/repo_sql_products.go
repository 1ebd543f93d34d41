package sql

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/entity"

	"gorm.io/gorm"
)

// CreateProduct persists a new product record.
func (r *GormRepository) CreateProduct(ctx context.Context, product *entity.Product) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if product == nil {
		return fmt.Errorf("product is nil")
	}
	return r.db.WithContext(ctx).Create(product).Error
}

// UpdateProduct updates an existing product entry.
func (r *GormRepository) UpdateProduct(ctx context.Context, id uint, updates entity.ProductUpdates) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid product id")
	}
	if updates.IsEmpty() {
		return nil
	}
	return r.db.WithContext(ctx).Model(&entity.Product{}).Where("id = ?", id).Updates(updates.ToMap()).Error
}

// GetProductByID loads a product by ID.
func (r *GormRepository) GetProductByID(ctx context.Context, id uint) (*entity.Product, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return nil, fmt.Errorf("invalid product id")
	}
	var product entity.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductBySlug loads a product by its unique slug.
func (r *GormRepository) GetProductBySlug(ctx context.Context, slug string) (*entity.Product, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	trimmed := strings.TrimSpace(slug)
	if trimmed == "" {
		return nil, fmt.Errorf("slug is empty")
	}
	var product entity.Product
	if err := r.db.WithContext(ctx).Where("slug = ?", trimmed).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// ListProducts returns paginated products.
func (r *GormRepository) ListProducts(ctx context.Context, params *entity.ProductQuery) ([]entity.Product, *entity.Meta, error) {
	if r == nil || r.db == nil {
		return nil, nil, fmt.Errorf("repository not initialised")
	}

	query := r.db.WithContext(ctx).Model(&entity.Product{})
	if params != nil {
		if keyword := strings.TrimSpace(params.Keyword); keyword != "" {
			kw := "%" + strings.ToLower(keyword) + "%"
			query = query.Where("LOWER(title) LIKE ? OR LOWER(slug) LIKE ?", kw, kw)
		}
		if params.Published != nil {
			query = query.Where("published = ?", *params.Published)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, nil, err
	}

	page, pageSize := 1, 20
	if params != nil {
		page, pageSize = normalisePage(params.Page, params.PageSize)
	}

	offset := (page - 1) * pageSize
	if offset < 0 {
		offset = 0
	}

	var products []entity.Product
	if err := query.Order("id DESC").Offset(offset).Limit(pageSize).Find(&products).Error; err != nil {
		return nil, nil, err
	}

	meta := r.calculatePagination(total, page, pageSize)
	return products, meta, nil
}

// DeleteProduct removes a product by ID.
func (r *GormRepository) DeleteProduct(ctx context.Context, id uint) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid product id")
	}
	result := r.db.WithContext(ctx).Delete(&entity.Product{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
