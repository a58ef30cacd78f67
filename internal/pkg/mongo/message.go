package mongo

import (
	"time"
)

// Message 会话消息明细，主键由调用方生成（UUID），正常流程只插入不更新
type Message struct {
	ID          string       `bson:"_id" json:"id"`
	ChatID      string       `bson:"chat_id" json:"chatId"`
	Role        string       `bson:"role" json:"role"` // user / assistant
	Parts       []Part       `bson:"parts" json:"parts"`
	Attachments []Attachment `bson:"attachments,omitempty" json:"attachments,omitempty"`
	ModelID     uint64       `bson:"model_id,omitempty" json:"modelId,omitempty"` // 用户消息为 0
	AgentID     uint64       `bson:"agent_id,omitempty" json:"agentId,omitempty"`
	CreatedAt   time.Time    `bson:"created_at" json:"createdAt"`
}

// Part 消息内容分段：文本 / 引用来源 / 工具调用
type Part struct {
	Type string `bson:"type" json:"type"`

	Text string `bson:"text,omitempty" json:"text,omitempty"`

	// type = source
	SourceURL   string `bson:"source_url,omitempty" json:"sourceUrl,omitempty"`
	SourceTitle string `bson:"source_title,omitempty" json:"sourceTitle,omitempty"`

	// type = tool_call
	ToolName   string `bson:"tool_name,omitempty" json:"toolName,omitempty"`
	ToolArgs   string `bson:"tool_args,omitempty" json:"toolArgs,omitempty"`
	ToolResult string `bson:"tool_result,omitempty" json:"toolResult,omitempty"`
}

// Attachment 随消息上传的文件引用
type Attachment struct {
	Name     string `bson:"name" json:"name"`
	MimeType string `bson:"mime_type" json:"mimeType"`
	URL      string `bson:"url" json:"url"`
}
