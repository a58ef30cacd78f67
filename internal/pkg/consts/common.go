package consts

type ctxKey string

// AgentIDKey Context 中当前会话绑定的智能体 ID，知识库工具按其隔离检索
const AgentIDKey ctxKey = "agent_id"

const (
	MimePrefixImage = "image"
)

// 消息角色
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// 消息内容分片类型
const (
	PartTypeText     = "text"
	PartTypeSource   = "source"
	PartTypeToolCall = "tool_call"
)

// 计费流水类型
const (
	TransactionUsage     = "usage"
	TransactionSelfUsage = "self_usage"
)

// DefaultChatTitle 新会话的占位标题
const DefaultChatTitle = "New Chat"

// 工具名称（闭合枚举，注册表成员必须出自这里）
const (
	ToolWebSearch       = "web_search"
	ToolWebFetch        = "web_fetch"
	ToolKnowledgeSearch = "knowledge_search"
)
