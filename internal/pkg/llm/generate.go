package llm

import (
	"context"
	"fmt"
	log "log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"golang.org/x/sync/errgroup"
)

// 单次请求内 ReAct 循环的最大轮数
const maxAgentIterations = 6

// 平滑输出的单个分片上限（按 rune 计）
const smoothChunkRunes = 64

// StreamRequest 一次流式生成的全部输入
type StreamRequest struct {
	Model        string
	SystemPrompt string
	Messages     []llms.MessageContent
	Tools        []llms.Tool
	Params       GenerationParams
	// OnUsage 每轮模型调用结束后回调一次，调用方据此维护请求级累计
	OnUsage func(Usage)
}

// StreamResult 生成结束后的汇总
type StreamResult struct {
	Text    string
	Sources []Source
	Usage   Usage
}

// Generator 流式生成器，事件同时供转发与落库两个消费方使用
type Generator struct {
	handler *ToolHandler
}

func NewGenerator(handler *ToolHandler) *Generator {
	return &Generator{handler: handler}
}

// Stream 执行带工具的流式生成，过程事件推入 out，调用方负责消费。
// 出错时返回 error，已推送的事件不回收。
func (g *Generator) Stream(ctx context.Context, req *StreamRequest, out chan<- Event) (*StreamResult, error) {
	messages := make([]llms.MessageContent, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, llms.MessageContent{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(req.SystemPrompt)},
		})
	}
	messages = append(messages, req.Messages...)

	result := &StreamResult{}
	var textBuilder strings.Builder

	for i := 0; i < maxAgentIterations; i++ {
		var contentBuffer strings.Builder

		streamFunc := func(ctx context.Context, reasoningChunk []byte, chunk []byte) error {
			if len(reasoningChunk) > 0 {
				emitSmoothed(ctx, out, EventReasoning, string(reasoningChunk))
			}
			str := string(chunk)
			if str == "" || strings.HasPrefix(str, "[{") || strings.Contains(str, "\"tool_calls\"") {
				return nil
			}
			contentBuffer.WriteString(str)
			emitSmoothed(ctx, out, EventText, str)
			return nil
		}

		resp, err := g.fetchCall(ctx, req, messages, streamFunc)
		if err != nil {
			// 中断轮已经流给客户端的文本也要带回去，否则部分输出无处落库
			textBuilder.WriteString(contentBuffer.String())
			result.Text = textBuilder.String()
			return result, err
		}

		choice := resp.Choices[0]

		usage := extractUsage(choice.GenerationInfo)
		result.Usage.Add(usage)
		if req.OnUsage != nil {
			req.OnUsage(usage)
		}

		// 模型决定直接回复文本
		if len(choice.ToolCalls) == 0 {
			if contentBuffer.Len() > 0 {
				textBuilder.WriteString(contentBuffer.String())
				result.Text = textBuilder.String()
				return result, nil
			}
			if choice.Content != "" {
				textBuilder.WriteString(choice.Content)
				emitSmoothed(ctx, out, EventText, choice.Content)
				result.Text = textBuilder.String()
				return result, nil
			}
			continue
		}

		// 工具轮产生的过渡文本也计入最终回复
		if contentBuffer.Len() > 0 {
			textBuilder.WriteString(contentBuffer.String())
		}

		// 模型决定调用工具 - 向客户端同步动作
		for _, tc := range choice.ToolCalls {
			emit(ctx, out, Event{
				Type:     EventToolCall,
				ToolName: tc.FunctionCall.Name,
				ToolArgs: tc.FunctionCall.Arguments,
			})
		}

		// 记录模型意图
		messages = append(messages, llms.MessageContent{
			Role:  llms.ChatMessageTypeAI,
			Parts: convertToolCallsToParts(choice.ToolCalls),
		})

		// 并行执行工具并同步响应
		toolMsgs, sources, err := g.executeTools(ctx, choice.ToolCalls, out)
		if err != nil {
			result.Text = textBuilder.String()
			return result, err
		}
		result.Sources = append(result.Sources, sources...)
		messages = append(messages, toolMsgs...)
	}

	fallback := "抱歉，由于检索轮次过多，我无法在安全时间内为您总结结果。"
	emit(ctx, out, Event{Type: EventText, Text: fallback})
	textBuilder.WriteString(fallback)
	result.Text = textBuilder.String()
	return result, nil
}

func (g *Generator) fetchCall(ctx context.Context, req *StreamRequest, messages []llms.MessageContent, streamFunc func(context.Context, []byte, []byte) error) (*llms.ContentResponse, error) {
	if err := TextSem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer TextSem.Release(1)

	opts := []llms.CallOption{
		llms.WithModel(req.Model),
		llms.WithStreamingReasoningFunc(streamFunc),
	}
	if len(req.Tools) > 0 {
		opts = append(opts, llms.WithTools(req.Tools))
	}
	opts = append(opts, req.Params.callOptions()...)

	log.InfoContext(ctx, "正在请求AI大模型", "model", req.Model, "tools", len(req.Tools))
	resp, err := llmClient.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("模型未返回任何候选")
	}
	return resp, nil
}

// executeTools 通用的并行工具执行器
func (g *Generator) executeTools(ctx context.Context, toolCalls []llms.ToolCall, out chan<- Event) ([]llms.MessageContent, []Source, error) {
	eg, gCtx := errgroup.WithContext(ctx)
	toolResponses := make([]llms.ToolCallResponse, len(toolCalls))
	toolSources := make([][]Source, len(toolCalls))

	for idx, tc := range toolCalls {
		i, toolCall := idx, tc
		eg.Go(func() error {
			handler := g.handler.GetHandleFunction(toolCall.FunctionCall.Name)
			if handler == nil {
				return fmt.Errorf("未定义的工具: %s", toolCall.FunctionCall.Name)
			}

			result, sources, err := handler(gCtx, toolCall.FunctionCall.Arguments)
			if err != nil {
				result = fmt.Sprintf("执行失败: %v", err)
			}

			toolResponses[i] = llms.ToolCallResponse{
				ToolCallID: toolCall.ID,
				Name:       toolCall.FunctionCall.Name,
				Content:    result,
			}
			toolSources[i] = sources
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}

	var msgs []llms.MessageContent
	var allSources []Source
	for i, tr := range toolResponses {
		emit(ctx, out, Event{
			Type:       EventToolResult,
			ToolName:   tr.Name,
			ToolResult: tr.Content,
		})
		for _, src := range toolSources[i] {
			s := src
			emit(ctx, out, Event{Type: EventSource, Source: &s})
			allSources = append(allSources, s)
		}
		msgs = append(msgs, llms.MessageContent{
			Role:  llms.ChatMessageTypeTool,
			Parts: []llms.ContentPart{tr},
		})
	}
	return msgs, allSources, nil
}

// convertToolCallsToParts 将工具调用转换为 ContentPart
func convertToolCallsToParts(tcs []llms.ToolCall) []llms.ContentPart {
	parts := make([]llms.ContentPart, len(tcs))
	for i, tc := range tcs {
		parts[i] = tc
	}
	return parts
}

// emit 推送单个事件。调用方上下文取消后事件直接丢弃，
// 客户端断开时不允许任何发送把生成协程卡死
func emit(ctx context.Context, out chan<- Event, ev Event) {
	select {
	case out <- ev:
	case <-ctx.Done():
	}
}

// emitSmoothed 把大块文本切成小片推送，避免客户端收到突发长段
func emitSmoothed(ctx context.Context, out chan<- Event, eventType string, text string) {
	runes := []rune(text)
	for len(runes) > 0 {
		n := smoothChunkRunes
		if n > len(runes) {
			n = len(runes)
		}
		emit(ctx, out, Event{Type: eventType, Text: string(runes[:n])})
		runes = runes[n:]
	}
}

// extractUsage 从模型返回的 GenerationInfo 中取 token 统计
func extractUsage(info map[string]any) Usage {
	return Usage{
		PromptTokens:     asInt64(info["PromptTokens"]),
		CompletionTokens: asInt64(info["CompletionTokens"]),
		TotalTokens:      asInt64(info["TotalTokens"]),
	}
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	default:
		return 0
	}
}
