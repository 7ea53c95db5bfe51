package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"app/internal/chatbot"
	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/handler"
	"app/internal/infra/db"
	infraRepo "app/internal/infra/repository"
	"app/internal/logging"
	"app/internal/notifier"
	"app/internal/payment"
	"app/internal/ratelimit"
	"app/internal/server"
	"app/internal/usecase"
)

func main() {
	//.envはあれば読む（本番は環境変数だけで動く）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel)

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.Otp{},
		&model.AuditLog{},
	); err != nil {
		log.Error("migration failed", "err", err)
		os.Exit(1)
	}

	//Repository（GORM実装）生成
	txManager := infraRepo.NewTxManagerGorm(gormDB)
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	otpRepo := infraRepo.NewOtpGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)

	//決済ゲートウェイ
	gateways := payment.NewRegistry(
		payment.NewCODGateway(),
		payment.NewUPIGateway(payment.UPIConfig{
			MerchantID:  cfg.GatewayMerchantID,
			Secret:      cfg.GatewaySecret,
			BaseURL:     cfg.GatewayBaseURL,
			RedirectURL: cfg.GatewayRedirectURL,
			CallbackURL: cfg.GatewayCallbackURL,
		}),
	)

	//メール通知（非同期）
	smtp := notifier.NewSMTPNotifier(notifier.SMTPConfig{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
		From: cfg.FromEmail,
	})
	dispatcher := notifier.NewDispatcher(smtp, log)

	//チャットボット（キー未設定なら無効のまま起動）
	var chatClient chatbot.Client
	if cfg.GeminiAPIKey != "" {
		gc, err := chatbot.NewGeminiClient(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Warn("gemini client init failed, chatbot disabled", "err", err)
		} else {
			defer gc.Close()
			chatClient = gc
		}
	}

	//回数制限カウンタ（Redis未設定なら制限なし扱いにはせず、quota checkが失敗ログを出す）
	var counterStore ratelimit.CounterStore
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		counterStore = ratelimit.NewRedisCounterStore(rdb)
	}
	quota := ratelimit.NewDailyQuota(counterStore, cfg.ChatbotDailyLimit, "chat")

	//Usecase生成
	authUC := usecase.NewAuthUsecase(cfg, userRepo)
	otpUC := usecase.NewOtpUsecase(userRepo, otpRepo, dispatcher)
	userUC := usecase.NewUserUsecase(userRepo)
	productUC := usecase.NewProductUsecase(productRepo)
	cartUC := usecase.NewCartUsecase(txManager)
	orderUC := usecase.NewOrderUsecase(txManager, userRepo, gateways, dispatcher, cfg.AdminEmail)
	paymentUC := usecase.NewPaymentUsecase(txManager, orderRepo, gateways, dispatcher, cfg.AdminEmail, log)
	adminOrderUC := usecase.NewAdminOrderUsecase(txManager, auditRepo)
	chatbotUC := usecase.NewChatbotUsecase(chatClient, quota, log)

	//Handler生成
	handlers := server.Handlers{
		Auth:       handler.NewAuthHandler(authUC, otpUC),
		User:       handler.NewUserHandler(userUC),
		Product:    handler.NewProductHandler(productUC),
		Cart:       handler.NewCartHandler(cartUC),
		Order:      handler.NewOrderHandler(orderUC),
		Payment:    handler.NewPaymentHandler(paymentUC),
		AdminOrder: handler.NewAdminOrderHandler(adminOrderUC),
		Chatbot:    handler.NewChatbotHandler(chatbotUC),
	}

	e := server.New(cfg, log, handlers)

	log.Info("starting server", "port", cfg.Port, "env", cfg.GoEnv)
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
