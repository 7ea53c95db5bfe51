package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

// 安定したエラー種別。クライアントはKindで分岐できる。
const (
	KindValidation        = "validation"
	KindInsufficientStock = "insufficient_stock"
	KindNotFound          = "not_found"
	KindInvalidState      = "invalid_state"
	KindSignature         = "signature"
	KindGateway           = "gateway"
	KindConflict          = "conflict"
	KindQuota             = "quota_exceeded"
	KindUnavailable       = "unavailable"
	KindPersistence       = "persistence"
)

type HTTPError struct {
	Status  int
	Kind    string
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Kind, e.Message)
}

func NewHTTPError(status int, kind string, message string) error {
	return &HTTPError{
		Status:  status,
		Kind:    kind,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// よく使う組（生のDB/HTTPエラーはここで握りつぶして安定した形にする）

func newValidationError(message string) error {
	return NewHTTPError(http.StatusBadRequest, KindValidation, message)
}

func newInsufficientStockError(productName string, requested int64, available int64) error {
	return NewHTTPError(http.StatusBadRequest, KindInsufficientStock,
		fmt.Sprintf("insufficient stock for %s: requested %d, available %d", productName, requested, available))
}

func newNotFoundError(message string) error {
	return NewHTTPError(http.StatusNotFound, KindNotFound, message)
}

func newInvalidStateError(message string) error {
	return NewHTTPError(http.StatusBadRequest, KindInvalidState, message)
}

func newSignatureError() error {
	return NewHTTPError(http.StatusBadRequest, KindSignature, "invalid signature")
}

func newGatewayError(message string) error {
	return NewHTTPError(http.StatusBadGateway, KindGateway, message)
}

func newConflictError(message string) error {
	return NewHTTPError(http.StatusConflict, KindConflict, message)
}

func newPersistenceError() error {
	return NewHTTPError(http.StatusInternalServerError, KindPersistence, "db error")
}

func newUnauthorizedError() error {
	return NewHTTPError(http.StatusUnauthorized, KindValidation, "unauthorized")
}
