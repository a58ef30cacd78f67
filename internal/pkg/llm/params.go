package llm

import "github.com/tmc/langchaingo/llms"

// Float64Param 显式标记过修改的浮点参数，未修改时不下发以免覆盖模型默认值
type Float64Param struct {
	Value   float64 `json:"value"`
	Changed bool    `json:"changed"`
}

// IntParam 显式标记过修改的整型参数
type IntParam struct {
	Value   int  `json:"value"`
	Changed bool `json:"changed"`
}

// GenerationParams 调用方可覆盖的生成参数
type GenerationParams struct {
	Temperature      Float64Param `json:"temperature"`
	TopP             Float64Param `json:"topP"`
	MaxTokens        IntParam     `json:"maxTokens"`
	FrequencyPenalty Float64Param `json:"frequencyPenalty"`
	PresencePenalty  Float64Param `json:"presencePenalty"`
}

// callOptions 只把标记过修改的参数转成调用选项
func (p *GenerationParams) callOptions() []llms.CallOption {
	opts := make([]llms.CallOption, 0, 5)
	if p.Temperature.Changed {
		opts = append(opts, llms.WithTemperature(p.Temperature.Value))
	}
	if p.TopP.Changed {
		opts = append(opts, llms.WithTopP(p.TopP.Value))
	}
	if p.MaxTokens.Changed {
		opts = append(opts, llms.WithMaxTokens(p.MaxTokens.Value))
	}
	if p.FrequencyPenalty.Changed {
		opts = append(opts, llms.WithFrequencyPenalty(p.FrequencyPenalty.Value))
	}
	if p.PresencePenalty.Changed {
		opts = append(opts, llms.WithPresencePenalty(p.PresencePenalty.Value))
	}
	return opts
}
