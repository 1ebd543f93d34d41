package sql

import (
	"context"
	"fmt"

	"storefront/internal/entity"

	"gorm.io/gorm"
)

// CreateDeal persists a new deal record.
func (r *GormRepository) CreateDeal(ctx context.Context, deal *entity.Deal) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if deal == nil {
		return fmt.Errorf("deal is nil")
	}
	return r.db.WithContext(ctx).Create(deal).Error
}

// UpdateDeal updates an existing deal entry.
func (r *GormRepository) UpdateDeal(ctx context.Context, id uint, updates entity.DealUpdates) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid deal id")
	}
	if updates.IsEmpty() {
		return nil
	}
	return r.db.WithContext(ctx).Model(&entity.Deal{}).Where("id = ?", id).Updates(updates.ToMap()).Error
}

// GetDealByID loads a deal by ID.
func (r *GormRepository) GetDealByID(ctx context.Context, id uint) (*entity.Deal, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return nil, fmt.Errorf("invalid deal id")
	}
	var deal entity.Deal
	if err := r.db.WithContext(ctx).First(&deal, id).Error; err != nil {
		return nil, err
	}
	return &deal, nil
}

// ListDeals returns paginated deals.
func (r *GormRepository) ListDeals(ctx context.Context, params *entity.DealQuery) ([]entity.Deal, *entity.Meta, error) {
	if r == nil || r.db == nil {
		return nil, nil, fmt.Errorf("repository not initialised")
	}

	query := r.db.WithContext(ctx).Model(&entity.Deal{})
	if params != nil {
		if params.ProductID != 0 {
			query = query.Where("product_id = ?", params.ProductID)
		}
		if params.Active != nil {
			query = query.Where("is_active = ?", *params.Active)
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

	var deals []entity.Deal
	if err := query.Order("id DESC").Offset(offset).Limit(pageSize).Find(&deals).Error; err != nil {
		return nil, nil, err
	}

	meta := r.calculatePagination(total, page, pageSize)
	return deals, meta, nil
}

// DeleteDeal removes a deal by ID.
func (r *GormRepository) DeleteDeal(ctx context.Context, id uint) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid deal id")
	}
	result := r.db.WithContext(ctx).Delete(&entity.Deal{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
