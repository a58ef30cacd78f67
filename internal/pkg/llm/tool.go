package llm

import (
	"AgentVendor/internal/pkg/consts"

	"github.com/tmc/langchaingo/llms"
)

// DefineWebSearchTool 互联网搜索工具元数据
func DefineWebSearchTool() llms.Tool {
	return llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        consts.ToolWebSearch,
			Description: "在互联网上搜索实时信息。当用户的问题涉及时效性内容、新闻、价格或你不确定的事实时，请调用此工具。",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "搜索关键词，例如：'2026年日本旅游签证政策'、'最新显卡价格对比'",
					},
				},
				"required": []string{"query"},
			},
		},
	}
}

// DefineWebFetchTool 网页正文提取工具元数据
func DefineWebFetchTool() llms.Tool {
	return llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        consts.ToolWebFetch,
			Description: "抓取指定网页并提取正文内容。通常在 web_search 返回链接后，需要阅读某个链接的完整内容时调用。",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"url": map[string]any{
						"type":        "string",
						"description": "要抓取的完整网页地址",
					},
				},
				"required": []string{"url"},
			},
		},
	}
}

// DefineKnowledgeSearchTool 智能体私有知识库检索工具元数据
func DefineKnowledgeSearchTool() llms.Tool {
	return llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        consts.ToolKnowledgeSearch,
			Description: "检索当前智能体绑定的私有知识库。当用户的问题可能与预置领域资料相关时，优先调用此工具。",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "检索关键词或问题原文",
					},
				},
				"required": []string{"query"},
			},
		},
	}
}

// registry 闭集：只有这里登记过的工具才可能被暴露给模型
var registry = map[string]llms.Tool{
	consts.ToolWebSearch:       DefineWebSearchTool(),
	consts.ToolWebFetch:        DefineWebFetchTool(),
	consts.ToolKnowledgeSearch: DefineKnowledgeSearchTool(),
}

// BuildToolset 取智能体启用工具与已实现工具的交集。
// searchEnabled 为三态：显式 false 时剔除搜索与抓取工具，true 或未传保持启用。
// 模型不支持工具调用时返回空集。
func BuildToolset(enabled []string, searchEnabled *bool, toolCapable bool) []llms.Tool {
	if !toolCapable {
		return nil
	}

	searchOff := searchEnabled != nil && !*searchEnabled

	toolset := make([]llms.Tool, 0, len(enabled))
	for _, name := range enabled {
		def, ok := registry[name]
		if !ok {
			continue
		}
		if searchOff && (name == consts.ToolWebSearch || name == consts.ToolWebFetch) {
			continue
		}
		toolset = append(toolset, def)
	}
	return toolset
}
