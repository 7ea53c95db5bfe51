package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"app/internal/domain/model"

	"github.com/google/uuid"
)

// 署名ヘッダ名。webhook側も同じ。
const SignatureHeader = "X-Signature"

const defaultTimeout = 10 * time.Second

type UPIConfig struct {
	MerchantID  string
	Secret      string
	BaseURL     string
	RedirectURL string
	CallbackURL string
}

// UPIリダイレクト型ゲートウェイ。
// リクエスト本文をHMAC-SHA256で署名して送り、確定はwebhookで受ける。
// シークレット自体は決して送らない。
type UPIGateway struct {
	cfg    UPIConfig
	client *http.Client
}

func NewUPIGateway(cfg UPIConfig) *UPIGateway {
	return &UPIGateway{
		cfg: cfg,
		client: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

func (g *UPIGateway) Method() model.PaymentMethod {
	return model.PaymentMethodUPI
}

func (g *UPIGateway) SettlesAsync() bool {
	return true
}

// ゲートウェイへの決済リクエスト
type initiateRequest struct {
	MerchantID            string `json:"merchant_id"`
	MerchantTransactionID string `json:"merchant_transaction_id"`
	Amount                int64  `json:"amount"` // paise
	Currency              string `json:"currency"`
	Receipt               string `json:"receipt"`
	RedirectURL           string `json:"redirect_url"`
	CallbackURL           string `json:"callback_url"`
}

type initiateResponse struct {
	RedirectURL string `json:"redirect_url"`
}

// webhookの本文
type webhookPayload struct {
	MerchantTransactionID string `json:"merchant_transaction_id"`
	TransactionID         string `json:"transaction_id"`
	State                 string `json:"state"` // COMPLETED / FAILED
	Amount                int64  `json:"amount"`
}

func (g *UPIGateway) Initiate(ctx context.Context, order model.Order) (string, Redirect, error) {
	//金額は最初からpaiseで持っているので換算は不要
	txnID := uuid.NewString()

	payload := initiateRequest{
		MerchantID:            g.cfg.MerchantID,
		MerchantTransactionID: txnID,
		Amount:                order.Total,
		Currency:              "INR",
		Receipt:               fmt.Sprintf("order_rcptid_%d", order.ID),
		RedirectURL:           g.cfg.RedirectURL,
		CallbackURL:           g.cfg.CallbackURL,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", Redirect{}, fmt.Errorf("marshal initiate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+"/v1/pay", bytes.NewReader(body))
	if err != nil {
		return "", Redirect{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, g.sign(body))

	resp, err := g.client.Do(req)
	if err != nil {
		return "", Redirect{}, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", Redirect{}, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", Redirect{}, err
	}

	var out initiateResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", Redirect{}, fmt.Errorf("decode gateway response: %w", err)
	}
	if out.RedirectURL == "" {
		return "", Redirect{}, fmt.Errorf("gateway response missing redirect_url")
	}

	return txnID, Redirect{URL: out.RedirectURL, Method: http.MethodGet}, nil
}

// 受信本文に同じHMACをかけて比較する。比較は定数時間。
func (g *UPIGateway) VerifyWebhook(rawBody []byte, signature string) error {
	if signature == "" {
		return ErrInvalidSignature
	}
	expected := g.sign(rawBody)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}

func (g *UPIGateway) ParseCallback(rawBody []byte) (Callback, error) {
	var p webhookPayload
	if err := json.Unmarshal(rawBody, &p); err != nil {
		return Callback{}, fmt.Errorf("decode webhook payload: %w", err)
	}
	if p.MerchantTransactionID == "" || p.State == "" {
		return Callback{}, fmt.Errorf("webhook payload missing required fields")
	}

	return Callback{
		GatewayOrderID:   p.MerchantTransactionID,
		GatewayPaymentID: p.TransactionID,
		Succeeded:        p.State == "COMPLETED",
		Amount:           p.Amount,
	}, nil
}

func (g *UPIGateway) sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(g.cfg.Secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
