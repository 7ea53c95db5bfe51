package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"app/internal/notifier"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/stretchr/testify/assert"
)

// =====================
// 共通ヘルパ
// =====================

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func assertHTTPErr(t *testing.T, err error, wantStatus int, wantKind string) {
	t.Helper()
	if assert.Error(t, err) {
		he, ok := usecase.AsHTTPError(err)
		if assert.True(t, ok, "expected HTTPError, got: %v", err) {
			assert.Equal(t, wantStatus, he.Status)
			assert.Equal(t, wantKind, he.Kind)
		}
	}
}

func assertErrContains(t *testing.T, err error, substr string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), substr),
			"error %q does not contain %q", err.Error(), substr)
	}
}

// =====================
// TxManager / TxRepos mocks
// =====================

// TxManagerStub は WithinTx の中で渡す repos を固定して unit テストを回す
type TxManagerStub struct {
	Repos repo.TxRepos
}

func (m *TxManagerStub) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(m.Repos)
}

type TxReposStub struct {
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	cartItems  repo.CartItemRepository
	inventory  repo.InventoryRepository
	products   repo.ProductRepository
	users      repo.UserRepository
}

func (r *TxReposStub) Orders() repo.OrderRepository         { return r.orders }
func (r *TxReposStub) OrderItems() repo.OrderItemRepository { return r.orderItems }
func (r *TxReposStub) CartItems() repo.CartItemRepository   { return r.cartItems }
func (r *TxReposStub) Inventory() repo.InventoryRepository  { return r.inventory }
func (r *TxReposStub) Products() repo.ProductRepository     { return r.products }
func (r *TxReposStub) Users() repo.UserRepository           { return r.users }

// =====================
// 送信の記録だけするNotifier（goroutineから触られるのでlock必須）
// =====================

type recordingNotifier struct {
	mu   sync.Mutex
	sent []string // 宛先
}

func (n *recordingNotifier) SendOrderNotification(ctx context.Context, toEmail string, _ notifier.OrderNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, toEmail)
	return nil
}

func (n *recordingNotifier) SendMail(ctx context.Context, toEmail string, subject string, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, toEmail)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}
