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

func seedProduct(t *testing.T, env *testEnv, slug string, published bool) *entity.Product {
	t.Helper()
	product := &entity.Product{
		Slug:       slug,
		Title:      "Product " + slug,
		PriceCents: 1999,
		Currency:   "EUR",
		Published:  published,
	}
	require.NoError(t, env.repo.CreateProduct(context.Background(), product))
	return product
}

func TestListProductsVisibility(t *testing.T) {
	env := newTestEnv(t)
	seedProduct(t, env, "visible-one", true)
	seedProduct(t, env, "hidden-one", false)

	// 匿名请求只看到已发布商品
	w := env.jsonRequest(t, http.MethodGet, "/api/products", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp entity.ProductListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Products, 1)
	assert.Equal(t, "visible-one", resp.Products[0].Slug)

	// 管理员看到全部
	_, cookie := adminSession(t, env)
	w = env.jsonRequest(t, http.MethodGet, "/api/products", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Products, 2)
}

func TestGetProductBySlug(t *testing.T) {
	env := newTestEnv(t)
	seedProduct(t, env, "public-item", true)
	seedProduct(t, env, "draft-item", false)

	w := env.jsonRequest(t, http.MethodGet, "/api/products/public-item", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var product entity.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &product))
	assert.Equal(t, "public-item", product.Slug)

	// 未发布商品对匿名请求按不存在处理
	w = env.jsonRequest(t, http.MethodGet, "/api/products/draft-item", nil, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, ErrCodeProductNotFound, decodeAPIError(t, w).Code)

	// 管理员可以看到草稿
	_, cookie := adminSession(t, env)
	w = env.jsonRequest(t, http.MethodGet, "/api/products/draft-item", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.jsonRequest(t, http.MethodGet, "/api/products/no-such-slug", nil, cookie)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateProduct(t *testing.T) {
	env := newTestEnv(t)
	_, cookie := adminSession(t, env)

	w := env.jsonRequest(t, http.MethodPost, "/api/products", entity.ProductCreateRequest{
		Slug:       "Mixed-Case-Slug",
		Title:      "New Product",
		PriceCents: 4999,
	}, cookie)
	require.Equal(t, http.StatusCreated, w.Code)

	var product entity.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &product))
	assert.Equal(t, "mixed-case-slug", product.Slug)
	assert.Equal(t, "EUR", product.Currency)

	// slug 冲突
	w = env.jsonRequest(t, http.MethodPost, "/api/products", entity.ProductCreateRequest{
		Slug:  "mixed-case-slug",
		Title: "Duplicate",
	}, cookie)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, ErrCodeSlugTaken, decodeAPIError(t, w).Code)
}

func TestProductMutationRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "shopper@example.com", "password123", entity.RoleUser, true)
	cookie := env.login(t, "shopper@example.com", "password123")

	req := entity.ProductCreateRequest{Slug: "nope", Title: "Nope"}

	w := env.jsonRequest(t, http.MethodPost, "/api/products", req, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.jsonRequest(t, http.MethodPost, "/api/products", req, cookie)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateAndDeleteProduct(t *testing.T) {
	env := newTestEnv(t)
	_, cookie := adminSession(t, env)
	product := seedProduct(t, env, "editable", false)

	w := env.jsonRequest(t, http.MethodPut, fmt.Sprintf("/api/products/%d", product.ID), entity.ProductUpdateRequest{
		Title:     stringPtr("Renamed Product"),
		Published: boolPtr(true),
	}, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	var updated entity.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "Renamed Product", updated.Title)
	assert.True(t, updated.Published)
	// slug 不随更新变化
	assert.Equal(t, "editable", updated.Slug)

	w = env.jsonRequest(t, http.MethodDelete, fmt.Sprintf("/api/products/%d", product.ID), nil, cookie)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = env.jsonRequest(t, http.MethodGet, "/api/products/editable", nil, cookie)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = env.jsonRequest(t, http.MethodPut, "/api/products/9999", entity.ProductUpdateRequest{Title: stringPtr("Ghost")}, cookie)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, ErrCodeProductNotFound, decodeAPIError(t, w).Code)
}
