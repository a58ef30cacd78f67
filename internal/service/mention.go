package service

import (
	"AgentVendor/internal/api/dto"
	"strings"
)

// DetectMentions 在消息文本中匹配群聊参与者，大小写不敏感的包含匹配。
// 纯函数：空文本或空名册直接返回空集，不产生副作用。
func DetectMentions(texts []string, roster []dto.RosterAgent) map[uint64]struct{} {
	mentioned := make(map[uint64]struct{})
	if len(texts) == 0 || len(roster) == 0 {
		return mentioned
	}

	lowered := make([]string, 0, len(texts))
	for _, t := range texts {
		if t != "" {
			lowered = append(lowered, strings.ToLower(t))
		}
	}

	for _, agent := range roster {
		if agent.Handle == "" {
			continue
		}
		handle := strings.ToLower(agent.Handle)
		for _, text := range lowered {
			if strings.Contains(text, handle) {
				mentioned[agent.ID] = struct{}{}
				break
			}
		}
	}
	return mentioned
}
