package api

import "AgentVendor/internal/api/handler"

// HandlersGroup 封装了所有已初始化的 Handler 实例
type HandlersGroup struct {
	ChatHandler      *handler.ChatHandler
	UserHandler      *handler.UserHandler
	AgentHandler     *handler.AgentHandler
	CreditHandler    *handler.CreditHandler
	KnowledgeHandler *handler.KnowledgeHandler
	MediaHandler     *handler.MediaHandler
}
