package usecase

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"app/internal/chatbot"
	"app/internal/ratelimit"
)

// LLM呼び出しの上限時間
const chatbotTimeout = 10 * time.Second

const maxChatMessageLen = 2000

type ChatbotUsecase struct {
	client chatbot.Client
	quota  *ratelimit.DailyQuota
	log    *slog.Logger
}

func NewChatbotUsecase(client chatbot.Client, quota *ratelimit.DailyQuota, log *slog.Logger) *ChatbotUsecase {
	return &ChatbotUsecase{client: client, quota: quota, log: log}
}

type ChatInput struct {
	Message string `json:"message"`
}

type ChatOutput struct {
	Reply string `json:"reply"`
	Model string `json:"model"`
}

// 1ユーザー1日あたりの回数制限つきでLLMに問い合わせる。
func (u *ChatbotUsecase) Chat(ctx context.Context, userID int64, in ChatInput) (ChatOutput, error) {
	if userID <= 0 {
		return ChatOutput{}, newUnauthorizedError()
	}

	msg := strings.TrimSpace(in.Message)
	if msg == "" {
		return ChatOutput{}, newValidationError("message is required")
	}
	if len(msg) > maxChatMessageLen {
		return ChatOutput{}, newValidationError("message too long")
	}

	//APIキー未設定なら機能ごと停止
	if u.client == nil {
		return ChatOutput{}, NewHTTPError(http.StatusServiceUnavailable, KindUnavailable, "chatbot is disabled")
	}

	ok, err := u.quota.Allow(ctx, userID, time.Now())
	if err != nil {
		//Redis障害で機能全体を落とさない。通すがログは残す。
		u.log.Warn("chat quota check failed", "user_id", userID, "err", err)
	} else if !ok {
		return ChatOutput{}, NewHTTPError(http.StatusTooManyRequests, KindQuota, "daily chat limit reached")
	}

	cctx, cancel := context.WithTimeout(ctx, chatbotTimeout)
	defer cancel()

	reply, err := u.client.Reply(cctx, msg)
	if err != nil {
		u.log.Warn("chatbot reply failed", "user_id", userID, "err", err)
		return ChatOutput{}, newGatewayError("chatbot is temporarily unavailable")
	}

	return ChatOutput{Reply: reply, Model: u.client.ModelName()}, nil
}
