package notifier

import (
	"context"
	"log/slog"
	"time"
)

const dispatchTimeout = 15 * time.Second

// 送信をHTTPレスポンスから切り離す。
// 失敗はログに残すだけで、呼び出し元には伝えない。リトライもしない。
type Dispatcher struct {
	notifier Notifier
	log      *slog.Logger
}

func NewDispatcher(n Notifier, log *slog.Logger) *Dispatcher {
	return &Dispatcher{notifier: n, log: log}
}

// 非同期で1通送る。toが空なら何もしない。
func (d *Dispatcher) Dispatch(toEmail string, n OrderNotification) {
	if toEmail == "" || d.notifier == nil {
		return
	}

	go func() {
		//リクエストのctxには紐付けない（レスポンス後も送り切る）
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()

		if err := d.notifier.SendOrderNotification(ctx, toEmail, n); err != nil {
			d.log.Error("order notification failed",
				"order_id", n.OrderID,
				"to", toEmail,
				"err", err,
			)
		}
	}()
}

// 定型文メールを非同期で送る。
func (d *Dispatcher) DispatchMail(toEmail string, subject string, body string) {
	if toEmail == "" || d.notifier == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()

		if err := d.notifier.SendMail(ctx, toEmail, subject, body); err != nil {
			d.log.Error("mail send failed",
				"to", toEmail,
				"subject", subject,
				"err", err,
			)
		}
	}()
}
