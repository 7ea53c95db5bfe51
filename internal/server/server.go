package server

import (
	"log/slog"
	"net/http"

	"app/internal/config"
	"app/internal/handler"
	appmw "app/internal/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

type Handlers struct {
	Auth       *handler.AuthHandler
	User       *handler.UserHandler
	Product    *handler.ProductHandler
	Cart       *handler.CartHandler
	Order      *handler.OrderHandler
	Payment    *handler.PaymentHandler
	AdminOrder *handler.AdminOrderHandler
	Chatbot    *handler.ChatbotHandler
}

// ルーティングとミドルウェアをまとめて組み立てる。
func New(cfg config.Config, log *slog.Logger, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(requestLogger(log))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	//認証不要
	h.Auth.RegisterRoutes(e)
	h.Product.RegisterRoutes(e)
	//webhookは署名検証のみ（JWTなし）
	h.Payment.RegisterWebhookRoutes(e)

	//ログイン必須
	authed := e.Group("", appmw.AuthJWT(cfg))
	h.Auth.RegisterProtectedRoutes(authed)
	h.User.RegisterRoutes(authed)
	h.Cart.RegisterRoutes(authed)
	h.Order.RegisterRoutes(authed)
	h.Payment.RegisterRoutes(authed)
	h.Chatbot.RegisterRoutes(authed)

	//管理者のみ
	admin := e.Group("/admin", appmw.AuthJWT(cfg), appmw.AdminRoleGuard())
	h.AdminOrder.RegisterRoutes(admin)

	return e
}

// 1リクエスト1行のアクセスログ
func requestLogger(log *slog.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency.String(),
			}
			if v.Error != nil {
				attrs = append(attrs, "err", v.Error)
				log.Error("request", attrs...)
				return nil
			}
			log.Info("request", attrs...)
			return nil
		},
	})
}
