package llm

// 事件类型，同时作为 SSE 帧的 type 字段
const (
	EventText       = "text"
	EventReasoning  = "reasoning"
	EventSource     = "source"
	EventToolCall   = "tool_call"
	EventToolResult = "tool_result"
	EventError      = "error"
	EventDone       = "done"
)

// Event 生成过程中的单个流事件
type Event struct {
	Type string `json:"type"`

	Text string `json:"text,omitempty"`

	Source *Source `json:"source,omitempty"`

	ToolName   string `json:"toolName,omitempty"`
	ToolArgs   string `json:"toolArgs,omitempty"`
	ToolResult string `json:"toolResult,omitempty"`
}

// Source 工具检索到的引用来源
type Source struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Usage 单次模型调用消耗的 token 数
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

// Add 累加另一次调用的消耗
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// IsZero 是否完全没有消耗
func (u *Usage) IsZero() bool {
	return u.PromptTokens == 0 && u.CompletionTokens == 0 && u.TotalTokens == 0
}
