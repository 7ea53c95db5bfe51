package chatbot

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// 生成APIへの薄いプロキシ。Usecaseはこのinterfaceだけに依存する。
type Client interface {
	Reply(ctx context.Context, message string) (string, error)
	ModelName() string
}

type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, apiKey string, model string) (*GeminiClient, error) {
	c, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &GeminiClient{client: c, model: model}, nil
}

func (c *GeminiClient) ModelName() string {
	return c.model
}

func (c *GeminiClient) Reply(ctx context.Context, message string) (string, error) {
	m := c.client.GenerativeModel(c.model)
	m.SetMaxOutputTokens(500)
	m.SetTemperature(0.7)

	resp, err := m.GenerateContent(ctx, genai.Text(message))
	if err != nil {
		return "", err
	}

	//最初のテキストパートを取り出す
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok && string(t) != "" {
				return string(t), nil
			}
		}
	}

	return "", fmt.Errorf("no text candidate in response")
}

func (c *GeminiClient) Close() error {
	return c.client.Close()
}
