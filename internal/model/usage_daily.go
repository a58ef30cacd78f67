package model

import "time"

// UsageDaily 按 用户 x 模型 x 日 聚合的用量，由 Kafka 消费者增量累加
type UsageDaily struct {
	ID               uint64    `gorm:"primaryKey" json:"id"`
	UserID           uint64    `gorm:"uniqueIndex:idx_usage_daily,priority:1;not null" json:"userId"`
	ModelID          uint64    `gorm:"uniqueIndex:idx_usage_daily,priority:2;not null" json:"modelId"`
	Day              string    `gorm:"type:varchar(10);uniqueIndex:idx_usage_daily,priority:3;not null" json:"day"` // YYYY-MM-DD
	Requests         int64     `gorm:"not null" json:"requests"`
	PromptTokens     int64     `gorm:"not null" json:"promptTokens"`
	CompletionTokens int64     `gorm:"not null" json:"completionTokens"`
	Cost             float64   `gorm:"type:decimal(20,6);not null" json:"cost"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func (UsageDaily) TableName() string { return "usage_daily" }
