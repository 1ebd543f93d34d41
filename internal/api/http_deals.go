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

// ListDeals 返回优惠列表。匿名请求只看到生效中的优惠。
func (h *HTTPHandler) ListDeals(c *gin.Context) {
	if h.repo == nil {
		ServiceUnavailable(c, "deal repository not available")
		return
	}

	var query entity.DealQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "invalid query parameters")
		return
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

	user := CurrentUser(c)
	if !user.IsAdmin() {
		active := true
		query.Active = &active
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	deals, meta, err := h.repo.ListDeals(ctx, &query)
	if err != nil {
		logrus.WithError(err).Error("failed to list deals")
		InternalError(c, "failed to load deals")
		return
	}

	c.JSON(http.StatusOK, entity.DealListResponse{Deals: deals, Meta: meta})
}

func (h *HTTPHandler) CreateDeal(c *gin.Context) {
	if h.repo == nil {
		ServiceUnavailable(c, "deal repository not available")
		return
	}

	var req entity.DealCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	// 优惠必须挂在存在的商品上
	if _, err := h.repo.GetProductByID(ctx, req.ProductID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeProductNotFound, "product not found")
			return
		}
		logrus.WithError(err).WithField("product_id", req.ProductID).Error("failed to load product for deal")
		InternalError(c, "failed to create deal")
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	deal := &entity.Deal{
		ProductID:       req.ProductID,
		Title:           strings.TrimSpace(req.Title),
		DiscountPercent: req.DiscountPercent,
		CouponCode:      strings.TrimSpace(req.CouponCode),
		StartsAt:        req.StartsAt,
		EndsAt:          req.EndsAt,
		IsActive:        isActive,
	}

	if err := h.repo.CreateDeal(ctx, deal); err != nil {
		logrus.WithError(err).Error("failed to create deal")
		InternalError(c, "failed to create deal")
		return
	}

	c.JSON(http.StatusCreated, deal)
}

func (h *HTTPHandler) UpdateDeal(c *gin.Context) {
	deal, ok := h.loadDealByID(c)
	if !ok {
		return
	}

	var req entity.DealUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	updates := entity.DealUpdates{
		DiscountPercent: req.DiscountPercent,
		StartsAt:        req.StartsAt,
		EndsAt:          req.EndsAt,
		IsActive:        req.IsActive,
	}
	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		if trimmed == "" {
			MissingField(c, "title")
			return
		}
		updates.Title = &trimmed
	}
	if req.CouponCode != nil {
		trimmed := strings.TrimSpace(*req.CouponCode)
		updates.CouponCode = &trimmed
	}
	if req.DiscountPercent != nil && (*req.DiscountPercent < 0 || *req.DiscountPercent > 100) {
		BadRequest(c, ErrCodeInvalidRequest, "discount percent out of range")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.UpdateDeal(ctx, deal.ID, updates); err != nil {
		logrus.WithError(err).WithField("deal_id", deal.ID).Error("failed to update deal")
		InternalError(c, "failed to update deal")
		return
	}

	updated, err := h.repo.GetDealByID(ctx, deal.ID)
	if err != nil {
		logrus.WithError(err).WithField("deal_id", deal.ID).Error("failed to reload deal")
		InternalError(c, "failed to load updated deal")
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (h *HTTPHandler) DeleteDeal(c *gin.Context) {
	deal, ok := h.loadDealByID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.DeleteDeal(ctx, deal.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeDealNotFound, "deal not found")
			return
		}
		logrus.WithError(err).WithField("deal_id", deal.ID).Error("failed to delete deal")
		InternalError(c, "failed to delete deal")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) loadDealByID(c *gin.Context) (*entity.Deal, bool) {
	if h.repo == nil {
		ServiceUnavailable(c, "deal repository not available")
		return nil, false
	}

	idValue := strings.TrimSpace(c.Param("id"))
	id, err := strconv.ParseUint(idValue, 10, 64)
	if err != nil || id == 0 {
		BadRequest(c, ErrCodeInvalidRequest, "invalid deal id")
		return nil, false
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	deal, err := h.repo.GetDealByID(ctx, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeDealNotFound, "deal not found")
			return nil, false
		}
		logrus.WithError(err).WithField("deal_id", id).Error("failed to load deal")
		InternalError(c, "failed to load deal")
		return nil, false
	}
	return deal, true
}
