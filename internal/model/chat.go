package model

import "time"

// Chat 会话，主键由客户端生成（UUID），重复创建按已存在处理
type Chat struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID    uint64    `gorm:"index;not null" json:"userId"`
	AgentID   uint64    `gorm:"index" json:"agentId"` // 0 表示个人助手会话
	Title     string    `gorm:"type:varchar(200);not null" json:"title"`
	GroupChat bool      `gorm:"not null;default:false" json:"groupChat"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `gorm:"index" json:"updatedAt"`
}

func (Chat) TableName() string { return "chats" }
