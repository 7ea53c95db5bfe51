package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

type AdminOrderUsecase struct {
	tx        repo.TransactionManager
	auditRepo repo.AuditLogRepository
}

func NewAdminOrderUsecase(tx repo.TransactionManager, auditRepo repo.AuditLogRepository) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, auditRepo: auditRepo}
}

type AdminUpdateOrderStatusInput struct {
	Status string `json:"status"`
}

// 配送先スナップショット付きの管理者向け出力
type ShippingOutput struct {
	Name       string `json:"shipping_name"`
	Mobile     string `json:"shipping_mobile"`
	Line1      string `json:"shipping_line1"`
	Line2      string `json:"shipping_line2"`
	City       string `json:"shipping_city"`
	State      string `json:"shipping_state"`
	PostalCode string `json:"shipping_postal_code"`
	Country    string `json:"shipping_country"`
}

type AdminOrderOutput struct {
	OrderOutput
	Shipping ShippingOutput `json:"shipping"`
}

// 注文一覧
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) ([]AdminOrderOutput, error) {
	// page/limitの最低限チェック
	if f.Page < 1 {
		return []AdminOrderOutput{}, newValidationError("invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return []AdminOrderOutput{}, newValidationError("invalid limit")
	}

	var outs []AdminOrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return newPersistenceError()
		}

		outs = make([]AdminOrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return newPersistenceError()
			}
			outs = append(outs, toAdminOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return []AdminOrderOutput{}, err
	}
	return outs, nil
}

// 注文詳細（所有チェックなし、管理者用）
func (u *AdminOrderUsecase) Detail(ctx context.Context, orderID int64) (AdminOrderOutput, error) {
	if orderID <= 0 {
		return AdminOrderOutput{}, newValidationError("invalid id")
	}

	var out AdminOrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return newNotFoundError("order not found")
		}
		if err != nil {
			return newPersistenceError()
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return newPersistenceError()
		}

		out = toAdminOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return AdminOrderOutput{}, err
	}
	return out, nil
}

// 許される遷移だけtrue。
// CODはpaidを経ずにpending→shippedへ進めるのが正。
func canTransition(from model.OrderStatus, to model.OrderStatus) bool {
	if from.IsTerminal() {
		return false
	}
	switch from {
	case model.OrderStatusPending:
		return to == model.OrderStatusPaid ||
			to == model.OrderStatusFailed ||
			to == model.OrderStatusCancelled ||
			to == model.OrderStatusShipped
	case model.OrderStatusPaid:
		return to == model.OrderStatusShipped || to == model.OrderStatusCancelled
	case model.OrderStatusShipped:
		return to == model.OrderStatusDelivered || to == model.OrderStatusCancelled
	}
	return false
}

// ステータス更新。cancelledへの遷移は在庫を戻す。
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorAdminUserID int64, orderID int64, in AdminUpdateOrderStatusInput) error {
	if actorAdminUserID <= 0 {
		return newUnauthorizedError()
	}
	if orderID <= 0 {
		return newValidationError("invalid id")
	}

	newStatus := model.OrderStatus(strings.TrimSpace(in.Status))
	switch newStatus {
	case model.OrderStatusPending, model.OrderStatusPaid, model.OrderStatusFailed,
		model.OrderStatusCancelled, model.OrderStatusShipped, model.OrderStatusDelivered:
		// OK
	default:
		return newValidationError("invalid status")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return newNotFoundError("order not found")
		}
		if err != nil {
			return newPersistenceError()
		}

		// すでに同じなら何もしない（200）
		if o.Status == newStatus {
			return nil
		}
		if !canTransition(o.Status, newStatus) {
			return NewHTTPError(http.StatusBadRequest, KindInvalidState,
				fmt.Sprintf("cannot change %s order to %s", o.Status, newStatus))
		}

		//キャンセルのときだけ在庫戻し。出荷前（pending/paid）に限る。
		if newStatus == model.OrderStatusCancelled {
			if o.Status == model.OrderStatusPending || o.Status == model.OrderStatusPaid {
				items, err := r.OrderItems().ListByOrderID(ctx, orderID)
				if err != nil {
					return newPersistenceError()
				}
				for _, it := range items {
					if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
						return newPersistenceError()
					}
				}
			}
		}

		var cancelledBy model.CancelActor
		if newStatus == model.OrderStatusCancelled {
			cancelledBy = model.CancelActorAdmin
		}

		beforeStatus := string(o.Status)
		if err := r.Orders().UpdateStatus(ctx, orderID, newStatus, cancelledBy); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return newNotFoundError("order not found")
			}
			return newPersistenceError()
		}

		//監査ログ（UPDATE_ORDER_STATUS）
		beforeJSON := `{"status":"` + beforeStatus + `"}`
		afterJSON := `{"status":"` + string(newStatus) + `"}`
		if err := u.auditRepo.Create(ctx, model.AuditLog{
			ActorUserID:  actorAdminUserID,
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   beforeJSON,
			AfterJSON:    afterJSON,
			CreatedAt:    time.Now(),
		}); err != nil {
			return newPersistenceError()
		}

		return nil
	})
}

// 監査ログ一覧。注文ID等で絞り込める。
func (u *AdminOrderUsecase) ListAuditLogs(ctx context.Context, page int, limit int, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	if page < 1 {
		return nil, newValidationError("invalid page")
	}
	if limit < 1 || limit > 100 {
		return nil, newValidationError("invalid limit")
	}
	f.Limit = limit
	f.Offset = (page - 1) * limit

	logs, err := u.auditRepo.List(ctx, f)
	if err != nil {
		return nil, newPersistenceError()
	}
	if logs == nil {
		logs = []model.AuditLog{}
	}
	return logs, nil
}

func toAdminOrderOutput(o model.Order, items []model.OrderItem) AdminOrderOutput {
	return AdminOrderOutput{
		OrderOutput: toOrderOutput(o, items),
		Shipping: ShippingOutput{
			Name:       o.ShippingName,
			Mobile:     o.ShippingMobile,
			Line1:      o.ShippingLine1,
			Line2:      o.ShippingLine2,
			City:       o.ShippingCity,
			State:      o.ShippingState,
			PostalCode: o.ShippingPostalCode,
			Country:    o.ShippingCountry,
		},
	}
}
