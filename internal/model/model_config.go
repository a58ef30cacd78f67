package model

import "time"

// ModelConfig 模型目录与计费行，价格单位为每百万 token 的积分数
type ModelConfig struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_model_name" json:"name"` // 上游模型名
	DisplayName string    `gorm:"type:varchar(100)" json:"displayName"`
	InputRate   float64   `gorm:"type:decimal(20,6);not null" json:"inputRate"`  // 积分 / 百万输入 token
	OutputRate  float64   `gorm:"type:decimal(20,6);not null" json:"outputRate"` // 积分 / 百万输出 token
	ToolCapable bool      `gorm:"not null;default:true" json:"toolCapable"`
	Enabled     bool      `gorm:"not null;default:true" json:"enabled"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (ModelConfig) TableName() string { return "model_configs" }
