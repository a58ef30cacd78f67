package dto

import (
	"AgentVendor/internal/pkg/llm"
	"time"
)

// ChatRequest 聊天接口请求体
type ChatRequest struct {
	ChatID   string            `json:"chatId" validate:"required,uuid4"`
	Messages []IncomingMessage `json:"messages" validate:"required,min=1"`

	// 模型选择：name 面向上游，modelId 面向计费行
	ModelName string `json:"modelName" validate:"required"`
	ModelID   uint64 `json:"modelId" validate:"required"`

	AgentID   uint64 `json:"agentId"`
	CreatorID uint64 `json:"creatorId"`

	// 三态：nil 与 true 均视为启用搜索，仅显式 false 剔除
	SearchEnabled *bool `json:"searchEnabled"`

	SystemPromptOverride string   `json:"systemPromptOverride"`
	KnowledgeSnippets    []string `json:"knowledgeSnippets"`

	Params llm.GenerationParams `json:"params"`

	GroupChat bool          `json:"groupChat"`
	Roster    []RosterAgent `json:"roster"`
}

// IncomingMessage 请求携带的单条历史消息
type IncomingMessage struct {
	ID          string          `json:"id"`
	Role        string          `json:"role" validate:"required,oneof=user assistant"`
	Parts       []MessagePart   `json:"parts"`
	Attachments []AttachmentDTO `json:"attachments"`
}

// MessagePart 消息内容分段
type MessagePart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`

	SourceURL   string `json:"sourceUrl,omitempty"`
	SourceTitle string `json:"sourceTitle,omitempty"`

	ToolName   string `json:"toolName,omitempty"`
	ToolArgs   string `json:"toolArgs,omitempty"`
	ToolResult string `json:"toolResult,omitempty"`
}

// AttachmentDTO 消息附件
type AttachmentDTO struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	URL      string `json:"url"`
}

// RosterAgent 群聊参与者
type RosterAgent struct {
	ID     uint64 `json:"id"`
	Handle string `json:"handle"`
}

// ChatDTO 会话列表项
type ChatDTO struct {
	ID        string    `json:"id"`
	AgentID   uint64    `json:"agentId"`
	Title     string    `json:"title"`
	GroupChat bool      `json:"groupChat"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MessageDTO 历史消息响应
type MessageDTO struct {
	ID          string          `json:"id"`
	ChatID      string          `json:"chatId"`
	Role        string          `json:"role"`
	Parts       []MessagePart   `json:"parts"`
	Attachments []AttachmentDTO `json:"attachments,omitempty"`
	ModelID     uint64          `json:"modelId,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}
