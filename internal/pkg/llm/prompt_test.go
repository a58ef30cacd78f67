package llm

import (
	"strings"
	"testing"
)

func TestComposeSystemPromptIncludesKnowledge(t *testing.T) {
	prompt := ComposeSystemPrompt("你是一位诗人。", []string{"李白生于701年", "杜甫生于712年"}, true)

	if !strings.Contains(prompt, "你是一位诗人。") {
		t.Fatalf("agent persona missing from prompt")
	}
	if !strings.Contains(prompt, "[1] 李白生于701年") || !strings.Contains(prompt, "[2] 杜甫生于712年") {
		t.Fatalf("knowledge snippets must be numbered in order:\n%s", prompt)
	}
	if !strings.Contains(prompt, "搜索") {
		t.Fatalf("search capability note missing")
	}
}

func TestComposeSystemPromptSearchOff(t *testing.T) {
	prompt := ComposeSystemPrompt("", nil, false)
	if !strings.Contains(prompt, "未开启联网搜索") {
		t.Fatalf("search-off note missing:\n%s", prompt)
	}
}
