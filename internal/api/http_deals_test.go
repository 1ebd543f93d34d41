package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"storefront/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedDeal(t *testing.T, env *testEnv, productID uint, title string, active bool) *entity.Deal {
	t.Helper()
	deal := &entity.Deal{
		ProductID:       productID,
		Title:           title,
		DiscountPercent: 15,
		IsActive:        active,
	}
	require.NoError(t, env.repo.CreateDeal(context.Background(), deal))
	return deal
}

func TestListDealsVisibility(t *testing.T) {
	env := newTestEnv(t)
	product := seedProduct(t, env, "deal-host", true)
	seedDeal(t, env, product.ID, "Running", true)
	seedDeal(t, env, product.ID, "Paused", false)

	w := env.jsonRequest(t, http.MethodGet, "/api/deals", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp entity.DealListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Deals, 1)
	assert.Equal(t, "Running", resp.Deals[0].Title)

	_, cookie := adminSession(t, env)
	w = env.jsonRequest(t, http.MethodGet, "/api/deals", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Deals, 2)
}

func TestCreateDeal(t *testing.T) {
	env := newTestEnv(t)
	_, cookie := adminSession(t, env)
	product := seedProduct(t, env, "discounted", true)

	w := env.jsonRequest(t, http.MethodPost, "/api/deals", entity.DealCreateRequest{
		ProductID:       product.ID,
		Title:           "Summer Sale",
		DiscountPercent: 25,
		CouponCode:      "SUMMER25",
	}, cookie)
	require.Equal(t, http.StatusCreated, w.Code)

	var deal entity.Deal
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &deal))
	assert.Equal(t, product.ID, deal.ProductID)
	assert.True(t, deal.IsActive)

	// 挂在不存在商品上的优惠被拒绝
	w = env.jsonRequest(t, http.MethodPost, "/api/deals", entity.DealCreateRequest{
		ProductID: 9999,
		Title:     "Ghost Sale",
	}, cookie)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, ErrCodeProductNotFound, decodeAPIError(t, w).Code)
}

func TestUpdateAndDeleteDeal(t *testing.T) {
	env := newTestEnv(t)
	_, cookie := adminSession(t, env)
	product := seedProduct(t, env, "deal-edit", true)
	deal := seedDeal(t, env, product.ID, "Editable", true)

	over := 150
	w := env.jsonRequest(t, http.MethodPut, fmt.Sprintf("/api/deals/%d", deal.ID), entity.DealUpdateRequest{
		DiscountPercent: &over,
	}, cookie)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.jsonRequest(t, http.MethodPut, fmt.Sprintf("/api/deals/%d", deal.ID), entity.DealUpdateRequest{
		Title:    stringPtr("Flash Sale"),
		IsActive: boolPtr(false),
	}, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	var updated entity.Deal
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "Flash Sale", updated.Title)
	assert.False(t, updated.IsActive)

	w = env.jsonRequest(t, http.MethodDelete, fmt.Sprintf("/api/deals/%d", deal.ID), nil, cookie)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = env.jsonRequest(t, http.MethodPut, fmt.Sprintf("/api/deals/%d", deal.ID), entity.DealUpdateRequest{}, cookie)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, ErrCodeDealNotFound, decodeAPIError(t, w).Code)
}
