package repository

import (
	"context"

	"app/internal/domain/model"
)

type CartItemRepository interface {
	ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error)
	// 同一商品は数量加算
	UpsertByUserAndProduct(ctx context.Context, userID int64, productID int64, addQty int64) error
	DeleteByUserAndProduct(ctx context.Context, userID int64, productID int64) error
	//注文確定時のカート消費
	ClearByUserID(ctx context.Context, userID int64) error
}
