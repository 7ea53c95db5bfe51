package handler

import (
	"io"
	"net/http"
	"strconv"

	"app/internal/payment"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

type PaymentHandler struct {
	uc *usecase.PaymentUsecase
}

func NewPaymentHandler(uc *usecase.PaymentUsecase) *PaymentHandler {
	return &PaymentHandler{uc: uc}
}

// 認証必須（決済開始）
func (h *PaymentHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/payments/orders/:id/initiate", h.initiate)
}

// webhookは認証なし。署名検証だけが守り。
func (h *PaymentHandler) RegisterWebhookRoutes(e *echo.Echo) {
	e.POST("/payments/webhook", h.webhook)
}

func (h *PaymentHandler) initiate(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.Initiate(c.Request().Context(), userID, orderID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PaymentHandler) webhook(c echo.Context) error {
	//署名は生のbodyに対して検証するのでBindは使わない
	rawBody, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	signature := c.Request().Header.Get(payment.SignatureHeader)

	if err := h.uc.Reconcile(c.Request().Context(), rawBody, signature); err != nil {
		return writeError(c, err)
	}

	//対象不明・重複配送でもここに到達して200を返す
	return c.JSON(http.StatusOK, SuccessResponse{Message: "ok"})
}
