package payment

import (
	"context"

	"app/internal/domain/model"
)

// 代金引換。外部呼び出しなし、注文はそのまま有効。
type CODGateway struct{}

func NewCODGateway() *CODGateway {
	return &CODGateway{}
}

func (g *CODGateway) Method() model.PaymentMethod {
	return model.PaymentMethodCOD
}

func (g *CODGateway) SettlesAsync() bool {
	return false
}

func (g *CODGateway) Initiate(ctx context.Context, order model.Order) (string, Redirect, error) {
	return "", Redirect{}, ErrNotSupported
}

func (g *CODGateway) VerifyWebhook(rawBody []byte, signature string) error {
	return ErrNotSupported
}

func (g *CODGateway) ParseCallback(rawBody []byte) (Callback, error) {
	return Callback{}, ErrNotSupported
}
