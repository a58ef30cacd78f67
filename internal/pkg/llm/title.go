package llm

import (
	"AgentVendor/internal/api/config"
	"context"
	"errors"
	log "log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// GenerateTitle 根据首条用户消息生成会话标题
func GenerateTitle(ctx context.Context, firstMessage string) (string, error) {
	if err := TextSem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer TextSem.Release(1)

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(titlePrompt)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(firstMessage)},
		},
	}

	log.InfoContext(ctx, "正在请求AI大模型生成标题")
	resp, err := llmClient.GenerateContent(ctx, messages,
		llms.WithModel(config.Cfg.LLM.TitleModel),
		llms.WithTemperature(0.3),
		llms.WithMaxTokens(60),
	)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("模型未返回标题")
	}

	title := strings.TrimSpace(resp.Choices[0].Content)
	title = strings.Trim(title, "\"“”「」")
	if title == "" {
		return "", errors.New("模型返回空标题")
	}

	runes := []rune(title)
	if len(runes) > 50 {
		title = string(runes[:50])
	}
	return title, nil
}
