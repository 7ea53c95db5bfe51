package payment

import (
	"context"
	"errors"

	"app/internal/domain/model"
)

var (
	//webhook署名の検証失敗
	ErrInvalidSignature = errors.New("invalid signature")
	//同期決済（COD）にはない操作
	ErrNotSupported = errors.New("operation not supported for this payment method")
)

// リダイレクト先の記述。Methodは GET か POST（自動送信フォーム）。
type Redirect struct {
	URL    string `json:"url"`
	Method string `json:"method"`
}

// webhookから取り出した確定結果
type Callback struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Succeeded        bool
	Amount           int64
}

// 決済方法ごとの実装。Usecaseはこのinterfaceだけを見る。
type Gateway interface {
	Method() model.PaymentMethod
	// trueなら確定はwebhook待ち。カートは支払い確定まで消費しない。
	SettlesAsync() bool
	// 署名済み決済リクエストを作ってゲートウェイに送る。
	// 返すIDがwebhookとの照合キーになる。
	Initiate(ctx context.Context, order model.Order) (string, Redirect, error)
	// webhook本文の署名を検証。不一致は ErrInvalidSignature。
	VerifyWebhook(rawBody []byte, signature string) error
	ParseCallback(rawBody []byte) (Callback, error)
}

// payment_methodからGatewayを引く
type Registry struct {
	gateways map[model.PaymentMethod]Gateway
}

func NewRegistry(gws ...Gateway) *Registry {
	m := make(map[model.PaymentMethod]Gateway, len(gws))
	for _, g := range gws {
		m[g.Method()] = g
	}
	return &Registry{gateways: m}
}

func (r *Registry) ForMethod(method model.PaymentMethod) (Gateway, bool) {
	g, ok := r.gateways[method]
	return g, ok
}

// webhookで確定する方の実装を返す（現状はUPIの1つだけ）
func (r *Registry) Async() (Gateway, bool) {
	for _, g := range r.gateways {
		if g.SettlesAsync() {
			return g, true
		}
	}
	return nil, false
}
