package usecase

import (
	"context"
	"errors"

	repo "app/internal/repository"
)

type CartUsecase struct {
	tx repo.TransactionManager
}

func NewCartUsecase(tx repo.TransactionManager) *CartUsecase {
	return &CartUsecase{tx: tx}
}

type AddToCartInput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

// カート1行分の表示用。価格は現在の商品価格（スナップショットは注文時のみ）。
type CartLineOutput struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	UnitPrice   int64  `json:"unit_price"`
	Quantity    int64  `json:"quantity"`
	LineTotal   int64  `json:"line_total"`
	ImageURL    string `json:"image_url"`
	Stock       int64  `json:"stock"`
}

type CartOutput struct {
	Items    []CartLineOutput `json:"items"`
	Subtotal int64            `json:"subtotal"`
}

// カート取得。商品が消えている行は読み飛ばす。
func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartOutput, error) {
	if userID <= 0 {
		return CartOutput{}, newUnauthorizedError()
	}

	out := CartOutput{Items: []CartLineOutput{}}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		items, err := r.CartItems().ListByUserID(ctx, userID)
		if err != nil {
			return newPersistenceError()
		}

		for _, it := range items {
			p, err := r.Products().FindByID(ctx, it.ProductID)
			if errors.Is(err, repo.ErrNotFound) {
				continue
			}
			if err != nil {
				return newPersistenceError()
			}

			line := CartLineOutput{
				ProductID:   p.ID,
				ProductName: p.Name,
				UnitPrice:   p.Price,
				Quantity:    it.Quantity,
				LineTotal:   p.Price * it.Quantity,
				ImageURL:    p.ImageURL,
				Stock:       p.Stock,
			}
			out.Items = append(out.Items, line)
			out.Subtotal += line.LineTotal
		}
		return nil
	})

	if err != nil {
		return CartOutput{}, err
	}
	return out, nil
}

// カート追加。同一商品は数量加算、在庫超過は弾く。
func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, in AddToCartInput) error {
	if userID <= 0 {
		return newUnauthorizedError()
	}
	if in.ProductID <= 0 {
		return newValidationError("invalid product_id")
	}
	if in.Quantity <= 0 {
		return newValidationError("quantity must be positive")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByID(ctx, in.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			return newNotFoundError("product not found")
		}
		if err != nil {
			return newPersistenceError()
		}

		//加算後の数量が在庫を超えないこと
		current := int64(0)
		items, err := r.CartItems().ListByUserID(ctx, userID)
		if err != nil {
			return newPersistenceError()
		}
		for _, it := range items {
			if it.ProductID == in.ProductID {
				current = it.Quantity
				break
			}
		}
		if current+in.Quantity > p.Stock {
			return newInsufficientStockError(p.Name, current+in.Quantity, p.Stock)
		}

		if err := r.CartItems().UpsertByUserAndProduct(ctx, userID, in.ProductID, in.Quantity); err != nil {
			return newPersistenceError()
		}
		return nil
	})
}

// カートから1商品を丸ごと削除。なければそのまま成功。
func (u *CartUsecase) RemoveFromCart(ctx context.Context, userID int64, productID int64) error {
	if userID <= 0 {
		return newUnauthorizedError()
	}
	if productID <= 0 {
		return newValidationError("invalid product_id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.CartItems().DeleteByUserAndProduct(ctx, userID, productID); err != nil {
			return newPersistenceError()
		}
		return nil
	})
}
