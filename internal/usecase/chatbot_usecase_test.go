package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"app/internal/ratelimit"
	"app/internal/usecase"

	"github.com/stretchr/testify/assert"
)

type fakeChatClient struct {
	reply string
	err   error
}

func (c *fakeChatClient) Reply(ctx context.Context, message string) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	return c.reply, nil
}

func (c *fakeChatClient) ModelName() string { return "test-model" }

type chatCounterStub struct {
	n   int64
	err error
}

func (s *chatCounterStub) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.n++
	return s.n, nil
}

func newChatUC(client *fakeChatClient, store *chatCounterStub, limit int64) *usecase.ChatbotUsecase {
	quota := ratelimit.NewDailyQuota(store, limit, "chat")
	if client == nil {
		return usecase.NewChatbotUsecase(nil, quota, discardLogger())
	}
	return usecase.NewChatbotUsecase(client, quota, discardLogger())
}

func TestChatbotUsecase_Reply(t *testing.T) {
	uc := newChatUC(&fakeChatClient{reply: "hello!"}, &chatCounterStub{}, 5)

	out, err := uc.Chat(context.Background(), 1, usecase.ChatInput{Message: "hi"})

	assert.NoError(t, err)
	assert.Equal(t, "hello!", out.Reply)
	assert.Equal(t, "test-model", out.Model)
}

func TestChatbotUsecase_EmptyMessage(t *testing.T) {
	uc := newChatUC(&fakeChatClient{reply: "x"}, &chatCounterStub{}, 5)

	_, err := uc.Chat(context.Background(), 1, usecase.ChatInput{Message: "   "})
	assertHTTPErr(t, err, http.StatusBadRequest, usecase.KindValidation)
}

func TestChatbotUsecase_DisabledWithoutClient(t *testing.T) {
	uc := newChatUC(nil, &chatCounterStub{}, 5)

	_, err := uc.Chat(context.Background(), 1, usecase.ChatInput{Message: "hi"})
	assertHTTPErr(t, err, http.StatusServiceUnavailable, usecase.KindUnavailable)
}

func TestChatbotUsecase_DailyLimit(t *testing.T) {
	uc := newChatUC(&fakeChatClient{reply: "x"}, &chatCounterStub{}, 2)

	for i := 0; i < 2; i++ {
		_, err := uc.Chat(context.Background(), 1, usecase.ChatInput{Message: "hi"})
		assert.NoError(t, err)
	}

	_, err := uc.Chat(context.Background(), 1, usecase.ChatInput{Message: "hi"})
	assertHTTPErr(t, err, http.StatusTooManyRequests, usecase.KindQuota)
}

func TestChatbotUsecase_QuotaStoreDownStillAnswers(t *testing.T) {
	uc := newChatUC(&fakeChatClient{reply: "hello"}, &chatCounterStub{err: errors.New("redis down")}, 2)

	//カウンタ障害でチャット全体を落とさない
	out, err := uc.Chat(context.Background(), 1, usecase.ChatInput{Message: "hi"})
	assert.NoError(t, err)
	assert.Equal(t, "hello", out.Reply)
}

func TestChatbotUsecase_UpstreamError(t *testing.T) {
	uc := newChatUC(&fakeChatClient{err: errors.New("api quota exhausted")}, &chatCounterStub{}, 5)

	_, err := uc.Chat(context.Background(), 1, usecase.ChatInput{Message: "hi"})
	assertHTTPErr(t, err, http.StatusBadGateway, usecase.KindGateway)
}
