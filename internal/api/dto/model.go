package dto

// ModelDTO 模型目录项
type ModelDTO struct {
	ID          uint64  `json:"id"`
	Name        string  `json:"name"`
	DisplayName string  `json:"displayName"`
	InputRate   float64 `json:"inputRate"`
	OutputRate  float64 `json:"outputRate"`
	ToolCapable bool    `json:"toolCapable"`
}
