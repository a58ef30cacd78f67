package llm

import (
	"golang.org/x/sync/semaphore"
)

// 上游供应商的并发额度：对话/标题生成共用文本额度，embedding 单独一档
var (
	TextWeight  = int64(8)
	TextSem     = semaphore.NewWeighted(TextWeight)
	EmbedWeight = int64(32)
	EmbedSem    = semaphore.NewWeighted(EmbedWeight)
)
