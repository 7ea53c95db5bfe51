package repository

import (
	"context"

	"app/internal/domain/model"
)

// 保存・取得を約束
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID int64) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	UpdateShippingAddress(ctx context.Context, userID int64, addr model.User) error
	UpdatePasswordHash(ctx context.Context, userID int64, passwordHash string) error
}
