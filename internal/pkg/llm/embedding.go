package llm

import (
	"context"
	"errors"
	log "log/slog"
)

// Embed 计算文本向量，受信号量保护
func Embed(ctx context.Context, s string) ([]float32, error) {
	if err := EmbedSem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer EmbedSem.Release(1)

	log.Info("正在请求向量模型")

	vectors, err := embedClient.CreateEmbedding(ctx, []string{s})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, errors.New("vector is empty")
	}
	return vectors[0], nil
}
