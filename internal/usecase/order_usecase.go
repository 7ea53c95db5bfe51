package usecase

import (
	"context"
	"errors"
	"time"

	"app/internal/domain/model"
	"app/internal/notifier"
	"app/internal/payment"
	repo "app/internal/repository"
)

// 注文の中核。カート消費・在庫減算・台帳書き込み・決済方法の分岐を
// 1つのトランザクションにまとめる。
type OrderUsecase struct {
	tx         repo.TransactionManager
	users      repo.UserRepository
	gateways   *payment.Registry
	dispatcher *notifier.Dispatcher
	adminEmail string
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	users repo.UserRepository,
	gateways *payment.Registry,
	dispatcher *notifier.Dispatcher,
	adminEmail string,
) *OrderUsecase {
	return &OrderUsecase{
		tx:         tx,
		users:      users,
		gateways:   gateways,
		dispatcher: dispatcher,
		adminEmail: adminEmail,
	}
}

type PlaceOrderInput struct {
	PaymentMethod string `json:"payment_method"`
}

type OrderItemOutput struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
}

type OrderOutput struct {
	ID            int64             `json:"id"`
	UserID        int64             `json:"user_id"`
	Subtotal      int64             `json:"subtotal"`
	Shipping      int64             `json:"shipping"`
	Total         int64             `json:"total"`
	Status        string            `json:"status"`
	PaymentMethod string            `json:"payment_method"`
	CancelledBy   string            `json:"cancelled_by,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	Items         []OrderItemOutput `json:"items"`
}

// PlaceOrder はカートから注文を作る。
// 在庫チェック〜カート消費までは全て同一トランザクション。
// どこかで失敗したら在庫・カート・台帳は一切変更されない。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, newUnauthorizedError()
	}

	method := model.PaymentMethod(in.PaymentMethod)
	gw, ok := u.gateways.ForMethod(method)
	if !ok {
		return OrderOutput{}, newValidationError("invalid payment_method")
	}

	//配送先が揃っているかを書き込み前に確認する
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return OrderOutput{}, newNotFoundError("user not found")
		}
		return OrderOutput{}, newPersistenceError()
	}
	if !user.HasCompleteShippingAddress() {
		return OrderOutput{}, newValidationError("shipping address incomplete")
	}

	var out OrderOutput

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cartItems, err := r.CartItems().ListByUserID(ctx, userID)
		if err != nil {
			return newPersistenceError()
		}
		if len(cartItems) == 0 {
			return newValidationError("cart is empty")
		}

		//行ごとに在庫を確認しつつ減算。足りない行があれば全てロールバック。
		orderItems := make([]model.OrderItem, 0, len(cartItems))
		var subtotal int64 = 0
		now := time.Now()

		for _, ci := range cartItems {
			p, err := r.Products().FindByID(ctx, ci.ProductID)
			if errors.Is(err, repo.ErrNotFound) {
				return newValidationError("invalid product in cart")
			}
			if err != nil {
				return newPersistenceError()
			}

			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, ci.ProductID, ci.Quantity)
			if err != nil {
				return newPersistenceError()
			}
			if !ok {
				return newInsufficientStockError(p.Name, ci.Quantity, p.Stock)
			}

			//価格と名前はこの瞬間のスナップショット
			orderItems = append(orderItems, model.OrderItem{
				ProductID:           ci.ProductID,
				ProductNameSnapshot: p.Name,
				UnitPriceSnapshot:   p.Price,
				Quantity:            ci.Quantity,
				CreatedAt:           now,
			})

			subtotal += p.Price * ci.Quantity
		}

		//送料は今のところ無料
		var shipping int64 = 0
		total := subtotal + shipping

		order := model.Order{
			UserID:        userID,
			Subtotal:      subtotal,
			Shipping:      shipping,
			Total:         total,
			Status:        model.OrderStatusPending,
			PaymentMethod: method,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		order.SnapshotShippingAddress(user)

		orderID, err := r.Orders().Create(ctx, order)
		if err != nil {
			return newPersistenceError()
		}

		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return newPersistenceError()
		}

		//CODはここでカート消費が確定。
		//UPIは支払い確定（webhook）までカートを残す。離脱しても再試行できる。
		if !gw.SettlesAsync() {
			if err := r.CartItems().ClearByUserID(ctx, userID); err != nil {
				return newPersistenceError()
			}
		}

		order.ID = orderID
		out = toOrderOutput(order, orderItems)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}

	//メールはレスポンスを待たせない。失敗してもログだけ。
	u.dispatcher.Dispatch(user.Email, buildNotification(out, "Thanks for your order!"))
	u.dispatcher.Dispatch(u.adminEmail, buildNotification(out, "New order received."))

	return out, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, newUnauthorizedError()
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListByUserID(ctx, userID, 1, 50)
		if err != nil {
			return newPersistenceError()
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return newPersistenceError()
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, newUnauthorizedError()
	}
	if orderID <= 0 {
		return OrderOutput{}, newValidationError("invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return newNotFoundError("order not found")
		}
		if err != nil {
			return newPersistenceError()
		}
		if o.UserID != userID {
			//他人の注文は「存在しない扱い」にする
			return newNotFoundError("order not found")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return newPersistenceError()
		}

		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// Cancel はpendingの自分の注文だけキャンセルできる。
// 在庫は戻す（商品は棚に返る）。
func (u *OrderUsecase) Cancel(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, newUnauthorizedError()
	}
	if orderID <= 0 {
		return OrderOutput{}, newValidationError("invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return newNotFoundError("order not found")
		}
		if err != nil {
			return newPersistenceError()
		}
		if o.UserID != userID {
			return newNotFoundError("order not found")
		}
		if o.Status != model.OrderStatusPending {
			return newInvalidStateError("only pending orders can be cancelled")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return newPersistenceError()
		}
		for _, it := range items {
			if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
				return newPersistenceError()
			}
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, model.OrderStatusCancelled, model.CancelActorUser); err != nil {
			return newPersistenceError()
		}

		o.Status = model.OrderStatusCancelled
		o.CancelledBy = model.CancelActorUser
		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}

	u.dispatcher.Dispatch(u.adminEmail, buildNotification(out, "Order cancelled by customer."))

	return out, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Name:      it.ProductNameSnapshot,
			Price:     it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
		})
	}

	return OrderOutput{
		ID:            o.ID,
		UserID:        o.UserID,
		Subtotal:      o.Subtotal,
		Shipping:      o.Shipping,
		Total:         o.Total,
		Status:        string(o.Status),
		PaymentMethod: string(o.PaymentMethod),
		CancelledBy:   string(o.CancelledBy),
		CreatedAt:     o.CreatedAt,
		Items:         outItems,
	}
}

func buildNotification(o OrderOutput, message string) notifier.OrderNotification {
	lines := make([]notifier.Line, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, notifier.Line{
			Name:     it.Name,
			Price:    it.Price,
			Quantity: it.Quantity,
		})
	}

	return notifier.OrderNotification{
		OrderID:       o.ID,
		Total:         o.Total,
		Status:        model.OrderStatus(o.Status),
		PaymentMethod: model.PaymentMethod(o.PaymentMethod),
		Message:       message,
		Items:         lines,
	}
}
