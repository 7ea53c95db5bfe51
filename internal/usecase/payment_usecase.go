package usecase

import (
	"context"
	"errors"
	"log/slog"

	"app/internal/domain/model"
	"app/internal/notifier"
	"app/internal/payment"
	repo "app/internal/repository"
)

// 決済の開始と、webhookによる突き合わせ（reconciliation）。
type PaymentUsecase struct {
	tx         repo.TransactionManager
	orders     repo.OrderRepository
	gateways   *payment.Registry
	dispatcher *notifier.Dispatcher
	adminEmail string
	log        *slog.Logger
}

func NewPaymentUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	gateways *payment.Registry,
	dispatcher *notifier.Dispatcher,
	adminEmail string,
	log *slog.Logger,
) *PaymentUsecase {
	return &PaymentUsecase{
		tx:         tx,
		orders:     orders,
		gateways:   gateways,
		dispatcher: dispatcher,
		adminEmail: adminEmail,
		log:        log,
	}
}

type InitiateOutput struct {
	GatewayOrderID string           `json:"gateway_order_id"`
	Redirect       payment.Redirect `json:"redirect"`
}

// Initiate はUPI注文の決済リクエストを作ってリダイレクト先を返す。
// 注文ステータスは変えない。ゲートウェイのタイムアウトは
// リトライ可能なエラーとして返し、注文はpendingのまま残す。
func (u *PaymentUsecase) Initiate(ctx context.Context, userID int64, orderID int64) (InitiateOutput, error) {
	if userID <= 0 {
		return InitiateOutput{}, newUnauthorizedError()
	}
	if orderID <= 0 {
		return InitiateOutput{}, newValidationError("invalid order id")
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return InitiateOutput{}, newNotFoundError("order not found")
	}
	if err != nil {
		return InitiateOutput{}, newPersistenceError()
	}
	if o.UserID != userID {
		return InitiateOutput{}, newNotFoundError("order not found")
	}

	gw, ok := u.gateways.ForMethod(o.PaymentMethod)
	if !ok || !gw.SettlesAsync() {
		return InitiateOutput{}, newValidationError("payment method does not require initiation")
	}
	if o.Status != model.OrderStatusPending {
		return InitiateOutput{}, newInvalidStateError("order is not pending")
	}

	//外部呼び出しはDBトランザクションの外
	gatewayOrderID, redirect, err := gw.Initiate(ctx, o)
	if err != nil {
		u.log.Warn("payment initiation failed", "order_id", orderID, "err", err)
		return InitiateOutput{}, newGatewayError("payment initiation failed, try again")
	}

	//照合キーを保存。webhookはこのIDで注文を逆引きする。
	if err := u.orders.SetGatewayOrderID(ctx, orderID, gatewayOrderID); err != nil {
		return InitiateOutput{}, newPersistenceError()
	}

	return InitiateOutput{GatewayOrderID: gatewayOrderID, Redirect: redirect}, nil
}

// Reconcile はゲートウェイのwebhookを処理する。
// 署名不一致→KindSignature（呼び出し側が400）。
// 注文が見つからない場合はログだけ残して成功扱い（ゲートウェイは再送してくる）。
// 同じ通知が二度来ても結果は変わらない。
func (u *PaymentUsecase) Reconcile(ctx context.Context, rawBody []byte, signature string) error {
	gw, ok := u.gateways.Async()
	if !ok {
		return newValidationError("no gateway configured for webhooks")
	}

	if err := gw.VerifyWebhook(rawBody, signature); err != nil {
		return newSignatureError()
	}

	cb, err := gw.ParseCallback(rawBody)
	if err != nil {
		return newValidationError("malformed webhook payload")
	}

	var (
		orderUnknown bool
		becamePaid   bool
		out          OrderOutput
		userEmail    string
	)

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByGatewayOrderID(ctx, cb.GatewayOrderID)
		if errors.Is(err, repo.ErrNotFound) {
			//開始処理との競合。ここで失敗にするとゲートウェイが無限に再送する。
			orderUnknown = true
			return nil
		}
		if err != nil {
			return newPersistenceError()
		}

		//すでにpendingでなければ何もしない（webhookはat-least-once）
		if o.Status != model.OrderStatusPending {
			return nil
		}

		if cb.Amount != 0 && cb.Amount != o.Total {
			u.log.Warn("webhook amount mismatch",
				"order_id", o.ID, "expected", o.Total, "got", cb.Amount)
		}

		newStatus := model.OrderStatusFailed
		if cb.Succeeded {
			newStatus = model.OrderStatusPaid
		}

		if err := r.Orders().UpdateStatus(ctx, o.ID, newStatus, ""); err != nil {
			return newPersistenceError()
		}
		if cb.GatewayPaymentID != "" {
			if err := r.Orders().SetGatewayPaymentID(ctx, o.ID, cb.GatewayPaymentID); err != nil {
				return newPersistenceError()
			}
		}

		if cb.Succeeded {
			//支払い確定でカート消費が確定。失敗時は残して再試行させる。
			if err := r.CartItems().ClearByUserID(ctx, o.UserID); err != nil {
				return newPersistenceError()
			}

			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return newPersistenceError()
			}
			user, err := r.Users().FindByID(ctx, o.UserID)
			if err == nil {
				userEmail = user.Email
			}

			o.Status = newStatus
			o.GatewayPaymentID = cb.GatewayPaymentID
			out = toOrderOutput(o, items)
			becamePaid = true
		}

		return nil
	})

	if err != nil {
		return err
	}

	if orderUnknown {
		u.log.Warn("webhook for unknown order", "gateway_order_id", cb.GatewayOrderID)
		return nil
	}

	//メールはステータスが実際に遷移した1回だけ
	if becamePaid {
		u.dispatcher.Dispatch(userEmail, buildNotification(out, "Payment received, your order is confirmed."))
		u.dispatcher.Dispatch(u.adminEmail, buildNotification(out, "Order payment confirmed."))
	}

	return nil
}
