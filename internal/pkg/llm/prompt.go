package llm

import (
	"strconv"
	"strings"
)

// ComposeSystemPrompt 合成最终系统提示词：
// 基础提示词 + 智能体人设 + 预置知识片段 + 搜索能力说明。
func ComposeSystemPrompt(agentPrompt string, knowledge []string, searchActive bool) string {
	var builder strings.Builder

	if systemPromptTpl != "" {
		builder.WriteString(systemPromptTpl)
		builder.WriteString("\n\n")
	}

	if agentPrompt != "" {
		builder.WriteString(agentPrompt)
		builder.WriteString("\n\n")
	}

	if len(knowledge) > 0 {
		builder.WriteString("以下是与本次对话相关的背景资料：\n")
		for i, snippet := range knowledge {
			builder.WriteString("- [")
			builder.WriteString(strconv.Itoa(i + 1))
			builder.WriteString("] ")
			builder.WriteString(snippet)
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	if searchActive {
		builder.WriteString("你可以调用搜索与网页抓取工具获取实时信息，引用外部内容时注明来源。")
	} else {
		builder.WriteString("本次对话未开启联网搜索，仅依据既有知识与背景资料回答。")
	}

	return builder.String()
}
