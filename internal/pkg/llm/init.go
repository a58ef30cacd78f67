package llm

import (
	"AgentVendor/internal/api/config"
	log "log/slog"
	"os"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

var llmClient llms.Model
var embedClient *openai.LLM

var systemPromptTpl string
var titlePrompt string

func InitLLM() error {
	cfg := config.Cfg.LLM

	llm, err := NewCompatClient(cfg.ApiKey, cfg.URL, cfg.DefaultModel)
	if err != nil {
		log.Error("AI大模型初始化失败", "err", err)
		return err
	}

	llmClient = llm
	embedClient = llm

	// 从prompt txt文件中读取prompt
	systemPromptTpl = readPrompt(cfg.PromptsPath.System)
	titlePrompt = readPrompt(cfg.PromptsPath.Title)

	return nil
}

func readPrompt(file string) string {
	data, err := os.ReadFile(file)
	if err != nil {
		log.Error("读取prompt文件失败", "file", file, "err", err)
		return ""
	}
	return string(data)
}
