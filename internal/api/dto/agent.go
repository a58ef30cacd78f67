package dto

import "time"

// AgentDTO 智能体
type AgentDTO struct {
	ID           uint64    `json:"id"`
	CreatorID    uint64    `json:"creatorId"`
	Name         string    `json:"name"`
	Handle       string    `json:"handle"`
	Description  string    `json:"description"`
	SystemPrompt string    `json:"systemPrompt,omitempty"`
	ModelID      uint64    `json:"modelId"`
	Tools        []string  `json:"tools"`
	Visibility   string    `json:"visibility"`
	AvatarURL    string    `json:"avatarUrl"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CreateAgentDTO 创建智能体
type CreateAgentDTO struct {
	Name         string   `json:"name" validate:"required,min=1,max=100"`
	Handle       string   `json:"handle" validate:"required,min=1,max=100,alphanum"`
	Description  string   `json:"description" validate:"max=500"`
	SystemPrompt string   `json:"systemPrompt"`
	ModelID      uint64   `json:"modelId" validate:"required"`
	Tools        []string `json:"tools"`
	Visibility   string   `json:"visibility" validate:"omitempty,oneof=public private"`
	AvatarURL    string   `json:"avatarUrl"`
}

// UpdateAgentDTO 更新智能体
type UpdateAgentDTO struct {
	Name         *string  `json:"name" validate:"omitempty,min=1,max=100"`
	Description  *string  `json:"description" validate:"omitempty,max=500"`
	SystemPrompt *string  `json:"systemPrompt"`
	ModelID      *uint64  `json:"modelId"`
	Tools        []string `json:"tools"`
	Visibility   *string  `json:"visibility" validate:"omitempty,oneof=public private"`
	AvatarURL    *string  `json:"avatarUrl"`
}
