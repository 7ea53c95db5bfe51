package config

import (
	"fmt"
	"os"
	"strconv"
)

// Configはアプリ全体の設定
type Config struct {
	Port     string // サーバーポート（8080）
	GoEnv    string // dev/prod
	LogLevel string // info/warn/error

	JWTSecret string // JWT署名シークレット

	// 決済ゲートウェイ（UPIリダイレクト型）
	GatewayMerchantID  string // マーチャントID
	GatewaySecret      string // 署名用シークレット（リクエスト署名とwebhook検証の両方に使う）
	GatewayBaseURL     string // ゲートウェイAPIのベースURL
	GatewayRedirectURL string // 決済後にユーザーを戻すURL
	GatewayCallbackURL string // webhookの受け口URL

	// メール（未設定なら通知はスキップ）
	SMTPHost   string
	SMTPPort   int
	SMTPUser   string
	SMTPPass   string
	FromEmail  string
	AdminEmail string // 管理者通知先（任意）

	// チャットボット（未設定なら無効）
	GeminiAPIKey      string
	GeminiModel       string
	RedisAddr         string
	ChatbotDailyLimit int64 // 1ユーザー1日あたりの質問数上限
}

// Loadは環境変数から設定を読む
func Load() (Config, error) {
	cfg := Config{
		Port:     getenv("PORT", "8080"),
		GoEnv:    getenv("GO_ENV", "dev"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		GatewayMerchantID:  os.Getenv("GATEWAY_MERCHANT_ID"),
		GatewaySecret:      os.Getenv("GATEWAY_SECRET"),
		GatewayBaseURL:     os.Getenv("GATEWAY_BASE_URL"),
		GatewayRedirectURL: os.Getenv("GATEWAY_REDIRECT_URL"),
		GatewayCallbackURL: os.Getenv("GATEWAY_CALLBACK_URL"),

		SMTPHost:   os.Getenv("SMTP_HOST"),
		SMTPUser:   os.Getenv("SMTP_USER"),
		SMTPPass:   os.Getenv("SMTP_PASS"),
		FromEmail:  os.Getenv("FROM_EMAIL"),
		AdminEmail: os.Getenv("ADMIN_EMAIL"),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getenv("GEMINI_MODEL", "gemini-1.5-flash"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
	}

	smtpPort, err := atoiDefault("SMTP_PORT", 587)
	if err != nil {
		return Config{}, err
	}
	cfg.SMTPPort = smtpPort

	limit, err := atoiDefault("CHATBOT_DAILY_LIMIT", 50)
	if err != nil {
		return Config{}, err
	}
	cfg.ChatbotDailyLimit = int64(limit)

	//必須チェック
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.GatewayMerchantID == "" {
		return Config{}, fmt.Errorf("GATEWAY_MERCHANT_ID is required")
	}
	if cfg.GatewaySecret == "" {
		return Config{}, fmt.Errorf("GATEWAY_SECRET is required")
	}
	if cfg.GatewayBaseURL == "" {
		return Config{}, fmt.Errorf("GATEWAY_BASE_URL is required")
	}

	return cfg, nil
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoiDefault(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}
