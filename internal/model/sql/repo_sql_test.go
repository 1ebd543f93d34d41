package sql

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"storefront/internal/entity"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepository(t *testing.T) *GormRepository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.AutoMigrate(&entity.User{}, &entity.Product{}, &entity.Deal{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return NewGormRepository(db)
}

func newUser(email string, role entity.Role, active bool) *entity.User {
	return &entity.User{
		Email:        email,
		PasswordHash: "$2a$10$fakefakefakefakefakefake",
		DisplayName:  "User " + email,
		Role:         role,
		IsActive:     active,
	}
}

func TestUserLookupActiveFilter(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	active := newUser("active@example.com", entity.RoleUser, true)
	inactive := newUser("inactive@example.com", entity.RoleUser, false)
	for _, u := range []*entity.User{active, inactive} {
		if err := repo.CreateUser(ctx, u); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	if _, err := repo.GetActiveUserByEmail(ctx, "active@example.com"); err != nil {
		t.Errorf("active user should be found: %v", err)
	}
	if _, err := repo.GetActiveUserByEmail(ctx, "inactive@example.com"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("inactive user must not pass active lookup, got %v", err)
	}
	// 不过滤激活状态的 ID 查询仍能找到
	if _, err := repo.GetUserByID(ctx, inactive.ID); err != nil {
		t.Errorf("plain lookup should find inactive user: %v", err)
	}

	if _, err := repo.GetActiveUserByID(ctx, inactive.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("inactive user must not pass active ID lookup, got %v", err)
	}

	// 邮箱匹配大小写不敏感
	if _, err := repo.GetActiveUserByEmail(ctx, "ACTIVE@Example.Com"); err != nil {
		t.Errorf("email lookup should be case-insensitive: %v", err)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.CreateUser(ctx, newUser("dup@example.com", entity.RoleUser, true)); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	err := repo.CreateUser(ctx, newUser("dup@example.com", entity.RoleUser, true))
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Errorf("expected ErrDuplicatedKey, got %v", err)
	}
}

func TestListUsersFiltersAndPagination(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.CreateUser(ctx, newUser("boss@example.com", entity.RoleAdmin, true)); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		if err := repo.CreateUser(ctx, newUser(email, entity.RoleUser, true)); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	users, meta, err := repo.ListUsers(ctx, &entity.UserQuery{Role: "admin"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(users) != 1 || users[0].Email != "boss@example.com" {
		t.Errorf("role filter returned wrong users: %+v", users)
	}
	if meta.Total != 1 {
		t.Errorf("expected total 1, got %d", meta.Total)
	}

	query := &entity.UserQuery{}
	query.Page = 2
	query.PageSize = 2
	users, meta, err = repo.ListUsers(ctx, query)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("expected 2 users on page 2, got %d", len(users))
	}
	if meta.Total != 4 {
		t.Errorf("expected total 4, got %d", meta.Total)
	}

	users, _, err = repo.ListUsers(ctx, &entity.UserQuery{Keyword: "BOSS"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(users) != 1 {
		t.Errorf("keyword filter should be case-insensitive, got %d users", len(users))
	}
}

func TestDeleteUser(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	user := newUser("gone@example.com", entity.RoleUser, true)
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := repo.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := repo.DeleteUser(ctx, user.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound on repeat delete, got %v", err)
	}
}

func TestProductSlugLookup(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	product := &entity.Product{Slug: "test-item", Title: "Test Item", Currency: "EUR", Published: true}
	if err := repo.CreateProduct(ctx, product); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	found, err := repo.GetProductBySlug(ctx, "test-item")
	if err != nil {
		t.Fatalf("slug lookup failed: %v", err)
	}
	if found.ID != product.ID {
		t.Errorf("wrong product returned: %+v", found)
	}

	if _, err := repo.GetProductBySlug(ctx, "missing"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}

	err = repo.CreateProduct(ctx, &entity.Product{Slug: "test-item", Title: "Duplicate", Currency: "EUR"})
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Errorf("expected ErrDuplicatedKey for duplicate slug, got %v", err)
	}
}

func TestListProductsPublishedFilter(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	published := true
	for _, p := range []*entity.Product{
		{Slug: "live", Title: "Live", Currency: "EUR", Published: true},
		{Slug: "draft", Title: "Draft", Currency: "EUR", Published: false},
	} {
		if err := repo.CreateProduct(ctx, p); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	products, meta, err := repo.ListProducts(ctx, &entity.ProductQuery{Published: &published})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(products) != 1 || products[0].Slug != "live" {
		t.Errorf("published filter returned wrong products: %+v", products)
	}
	if meta.Total != 1 {
		t.Errorf("expected total 1, got %d", meta.Total)
	}
}

func TestDealActiveFilter(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	product := &entity.Product{Slug: "host", Title: "Host", Currency: "EUR", Published: true}
	if err := repo.CreateProduct(ctx, product); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	for _, d := range []*entity.Deal{
		{ProductID: product.ID, Title: "On", DiscountPercent: 10, IsActive: true},
		{ProductID: product.ID, Title: "Off", DiscountPercent: 10, IsActive: false},
	} {
		if err := repo.CreateDeal(ctx, d); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	active := true
	deals, _, err := repo.ListDeals(ctx, &entity.DealQuery{Active: &active})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(deals) != 1 || deals[0].Title != "On" {
		t.Errorf("active filter returned wrong deals: %+v", deals)
	}

	byProduct, _, err := repo.ListDeals(ctx, &entity.DealQuery{ProductID: product.ID})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(byProduct) != 2 {
		t.Errorf("expected 2 deals for product, got %d", len(byProduct))
	}
}
