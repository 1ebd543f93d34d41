package model

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/entity"

	"github.com/sirupsen/logrus"
)

// SeedBootstrapAdmin 在用户表为空时创建初始管理员账户。
//
// The seed only runs against an empty users table so a redeploy can never
// overwrite or duplicate an existing account.
func SeedBootstrapAdmin(ctx context.Context, repo Repository, cfg config.Config) error {
	if repo == nil {
		return nil
	}

	email := entity.NormalizeEmail(cfg.BootstrapAdminEmail)
	password := strings.TrimSpace(cfg.BootstrapAdminPassword)
	if email == "" || password == "" {
		return nil
	}
	if len(password) < auth.MinPasswordLength {
		return fmt.Errorf("bootstrap admin password must be at least %d characters", auth.MinPasswordLength)
	}

	count, err := repo.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash bootstrap password: %w", err)
	}

	admin := &entity.User{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  "Administrator",
		Role:         entity.RoleAdmin,
		IsActive:     true,
	}
	if err := repo.CreateUser(ctx, admin); err != nil {
		return fmt.Errorf("create bootstrap admin: %w", err)
	}

	logrus.WithField("email", email).Info("seeded bootstrap admin account")
	return nil
}
