package model

import "time"

// UsageTransaction 一次生成产生的计费流水，费率在入账时快照
type UsageTransaction struct {
	ID               string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID           uint64    `gorm:"index;not null" json:"userId"`
	AgentID          uint64    `gorm:"index" json:"agentId"`
	ChatID           string    `gorm:"type:varchar(36);index" json:"chatId"`
	MessageID        string    `gorm:"type:varchar(36)" json:"messageId"`
	ModelID          uint64    `gorm:"not null" json:"modelId"`
	Type             string    `gorm:"type:varchar(20);not null" json:"type"` // usage / self_usage
	PromptTokens     int64     `gorm:"not null" json:"promptTokens"`
	CompletionTokens int64     `gorm:"not null" json:"completionTokens"`
	InputRate        float64   `gorm:"type:decimal(20,6);not null" json:"inputRate"`
	OutputRate       float64   `gorm:"type:decimal(20,6);not null" json:"outputRate"`
	Cost             float64   `gorm:"type:decimal(20,6);not null" json:"cost"`
	Description      string    `gorm:"type:varchar(255)" json:"description"` // 出错提前结算时记录原因
	CreatedAt        time.Time `gorm:"index" json:"createdAt"`
}

func (UsageTransaction) TableName() string { return "usage_transactions" }
