package model

import (
	"database/sql/driver"
	"strings"
	"time"
)

const (
	AgentVisibilityPublic  = "public"
	AgentVisibilityPrivate = "private"
)

// Agent 用户创建的智能体（人设 + 模型 + 工具 + 知识）
type Agent struct {
	ID           uint64     `gorm:"primaryKey" json:"id"`
	CreatorID    uint64     `gorm:"index;not null" json:"creatorId"`
	Name         string     `gorm:"type:varchar(100);not null" json:"name"`
	Handle       string     `gorm:"type:varchar(100);uniqueIndex:idx_agent_handle" json:"handle"` // 群聊中 @提及 用的短名
	Description  string     `gorm:"type:varchar(500)" json:"description"`
	SystemPrompt string     `gorm:"type:text" json:"systemPrompt"`
	ModelID      uint64     `gorm:"not null" json:"modelId"` // 默认模型
	Tools        StringList `gorm:"type:varchar(500)" json:"tools"`
	Visibility   string     `gorm:"type:varchar(20);not null;default:'public'" json:"visibility"` // public / private
	AvatarURL    string     `gorm:"type:varchar(255)" json:"avatarUrl"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (Agent) TableName() string { return "agents" }

// StringList 逗号分隔持久化的字符串列表
type StringList []string

func (s *StringList) Scan(value interface{}) error {
	*s = nil
	var raw string
	switch v := value.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return nil
	}
	if raw == "" {
		return nil
	}
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			*s = append(*s, item)
		}
	}
	return nil
}

func (s StringList) Value() (driver.Value, error) {
	return strings.Join(s, ","), nil
}

func (s StringList) Contains(name string) bool {
	for _, item := range s {
		if item == name {
			return true
		}
	}
	return false
}
