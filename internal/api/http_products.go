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

// ListProducts 返回商品列表。匿名请求只看到已发布的商品，管理员可查看全部。
func (h *HTTPHandler) ListProducts(c *gin.Context) {
	if h.repo == nil {
		ServiceUnavailable(c, "product repository not available")
		return
	}

	var query entity.ProductQuery
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
		published := true
		query.Published = &published
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	products, meta, err := h.repo.ListProducts(ctx, &query)
	if err != nil {
		logrus.WithError(err).Error("failed to list products")
		InternalError(c, "failed to load products")
		return
	}

	c.JSON(http.StatusOK, entity.ProductListResponse{Products: products, Meta: meta})
}

// GetProduct 按 slug 返回单个商品。
func (h *HTTPHandler) GetProduct(c *gin.Context) {
	if h.repo == nil {
		ServiceUnavailable(c, "product repository not available")
		return
	}

	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		BadRequest(c, ErrCodeInvalidRequest, "invalid product slug")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	product, err := h.repo.GetProductBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeProductNotFound, "product not found")
			return
		}
		logrus.WithError(err).WithField("slug", slug).Error("failed to load product")
		InternalError(c, "failed to load product")
		return
	}

	// 未发布商品仅管理员可见
	if !product.Published && !CurrentUser(c).IsAdmin() {
		NotFound(c, ErrCodeProductNotFound, "product not found")
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *HTTPHandler) CreateProduct(c *gin.Context) {
	if h.repo == nil {
		ServiceUnavailable(c, "product repository not available")
		return
	}

	var req entity.ProductCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if slug == "" {
		MissingField(c, "slug")
		return
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "EUR"
	}

	product := &entity.Product{
		Slug:         slug,
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		PriceCents:   req.PriceCents,
		Currency:     currency,
		AffiliateURL: strings.TrimSpace(req.AffiliateURL),
		Image:        strings.TrimSpace(req.Image),
		Published:    req.Published,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.CreateProduct(ctx, product); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			Conflict(c, ErrCodeSlugTaken, "product slug already in use")
			return
		}
		logrus.WithError(err).Error("failed to create product")
		InternalError(c, "failed to create product")
		return
	}

	c.JSON(http.StatusCreated, product)
}

func (h *HTTPHandler) UpdateProduct(c *gin.Context) {
	product, ok := h.loadProductByID(c)
	if !ok {
		return
	}

	var req entity.ProductUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	updates := entity.ProductUpdates{
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Image:       req.Image,
		Published:   req.Published,
	}
	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		if trimmed == "" {
			MissingField(c, "title")
			return
		}
		updates.Title = &trimmed
	}
	if req.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*req.Currency))
		updates.Currency = &currency
	}
	if req.AffiliateURL != nil {
		trimmed := strings.TrimSpace(*req.AffiliateURL)
		updates.AffiliateURL = &trimmed
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.UpdateProduct(ctx, product.ID, updates); err != nil {
		logrus.WithError(err).WithField("product_id", product.ID).Error("failed to update product")
		InternalError(c, "failed to update product")
		return
	}

	updated, err := h.repo.GetProductByID(ctx, product.ID)
	if err != nil {
		logrus.WithError(err).WithField("product_id", product.ID).Error("failed to reload product")
		InternalError(c, "failed to load updated product")
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (h *HTTPHandler) DeleteProduct(c *gin.Context) {
	product, ok := h.loadProductByID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.DeleteProduct(ctx, product.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeProductNotFound, "product not found")
			return
		}
		logrus.WithError(err).WithField("product_id", product.ID).Error("failed to delete product")
		InternalError(c, "failed to delete product")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) loadProductByID(c *gin.Context) (*entity.Product, bool) {
	if h.repo == nil {
		ServiceUnavailable(c, "product repository not available")
		return nil, false
	}

	idValue := strings.TrimSpace(c.Param("id"))
	id, err := strconv.ParseUint(idValue, 10, 64)
	if err != nil || id == 0 {
		BadRequest(c, ErrCodeInvalidRequest, "invalid product id")
		return nil, false
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	product, err := h.repo.GetProductByID(ctx, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeProductNotFound, "product not found")
			return nil, false
		}
		logrus.WithError(err).WithField("product_id", id).Error("failed to load product")
		InternalError(c, "failed to load product")
		return nil, false
	}
	return product, true
}
