package es

import "time"

// KnowledgeChunkES 知识库分块文档，按智能体隔离
type KnowledgeChunkES struct {
	ID            string    `json:"id"`
	AgentID       uint64    `json:"agent_id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	ContentVector []float32 `json:"content_vector,omitempty"`
	SourceURL     string    `json:"source_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Sort []interface{} `json:"-"`
}
