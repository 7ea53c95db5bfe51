package notifier

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"app/internal/domain/model"
)

// 通知に載せる明細
type Line struct {
	Name     string
	Price    int64
	Quantity int64
}

type OrderNotification struct {
	OrderID       int64
	Total         int64
	Status        model.OrderStatus
	PaymentMethod model.PaymentMethod
	Message       string
	Items         []Line
	ShippingName  string
	ShippingCity  string
}

// メール送信。失敗しても呼び出し元の処理には影響させないこと（呼び出し側の責務）。
type Notifier interface {
	SendOrderNotification(ctx context.Context, toEmail string, n OrderNotification) error
	// OTPなどの定型文メール
	SendMail(ctx context.Context, toEmail string, subject string, body string) error
}

type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

type SMTPNotifier struct {
	cfg SMTPConfig
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg}
}

func (s *SMTPNotifier) SendOrderNotification(ctx context.Context, toEmail string, n OrderNotification) error {
	subject := fmt.Sprintf("Order Confirmation #%d", n.OrderID)
	return s.SendMail(ctx, toEmail, subject, buildBody(n))
}

func (s *SMTPNotifier) SendMail(ctx context.Context, toEmail string, subject string, body string) error {
	// 未設定ならスキップ
	if s.cfg.Host == "" || s.cfg.User == "" {
		return nil
	}

	msg := strings.Join([]string{
		"From: " + s.cfg.From,
		"To: " + toEmail,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, s.cfg.Host)

	return smtp.SendMail(addr, auth, s.cfg.From, []string{toEmail}, []byte(msg))
}

func buildBody(n OrderNotification) string {
	var b strings.Builder

	if n.Message != "" {
		b.WriteString(n.Message)
	} else {
		b.WriteString("Thanks for your order!")
	}
	b.WriteString(fmt.Sprintf("\nOrder #: %d\nStatus: %s\nPayment: %s\n", n.OrderID, n.Status, n.PaymentMethod))

	for _, it := range n.Items {
		b.WriteString(fmt.Sprintf("- %s x%d (%d)\n", it.Name, it.Quantity, it.Price))
	}
	b.WriteString(fmt.Sprintf("Total: %d\n", n.Total))

	if n.ShippingName != "" {
		b.WriteString(fmt.Sprintf("\nShip to: %s, %s\n", n.ShippingName, n.ShippingCity))
	}
	b.WriteString("\nWe'll update you when it's shipped.")

	return b.String()
}
