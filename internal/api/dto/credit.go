package dto

import "time"

// BalanceDTO 余额
type BalanceDTO struct {
	Balance float64 `json:"balance"`
}

// TransactionDTO 计费流水
type TransactionDTO struct {
	ID               string    `json:"id"`
	AgentID          uint64    `json:"agentId"`
	ChatID           string    `json:"chatId"`
	MessageID        string    `json:"messageId"`
	ModelID          uint64    `json:"modelId"`
	Type             string    `json:"type"`
	PromptTokens     int64     `json:"promptTokens"`
	CompletionTokens int64     `json:"completionTokens"`
	Cost             float64   `json:"cost"`
	Description      string    `json:"description,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// UsageDailyDTO 按日聚合用量
type UsageDailyDTO struct {
	Day              string  `json:"day"`
	ModelID          uint64  `json:"modelId"`
	Requests         int64   `json:"requests"`
	PromptTokens     int64   `json:"promptTokens"`
	CompletionTokens int64   `json:"completionTokens"`
	Cost             float64 `json:"cost"`
}
