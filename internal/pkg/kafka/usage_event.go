package kafka

import "time"

// UsageEvent 计费流水落库后投递的用量事件，消费端按日聚合
type UsageEvent struct {
	TransactionID    string    `json:"transactionId"`
	UserID           uint64    `json:"userId"`
	AgentID          uint64    `json:"agentId"`
	ModelID          uint64    `json:"modelId"`
	ChatID           string    `json:"chatId"`
	Type             string    `json:"type"`
	PromptTokens     int64     `json:"promptTokens"`
	CompletionTokens int64     `json:"completionTokens"`
	Cost             float64   `json:"cost"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Day 事件归属的自然日
func (e *UsageEvent) Day() string {
	return e.CreatedAt.Format("2006-01-02")
}
