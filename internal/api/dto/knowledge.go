package dto

// KnowledgeChunkDTO 知识库分块
type KnowledgeChunkDTO struct {
	ID        string `json:"id"`
	AgentID   uint64 `json:"agentId"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	SourceURL string `json:"sourceUrl,omitempty"`
}

// IndexKnowledgeDTO 写入知识库
type IndexKnowledgeDTO struct {
	AgentID   uint64 `json:"agentId" validate:"required"`
	Title     string `json:"title" validate:"required,max=200"`
	Content   string `json:"content" validate:"required"`
	SourceURL string `json:"sourceUrl"`
}
