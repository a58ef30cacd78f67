package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tmc/langchaingo/llms"
)

type stubModel struct {
	generate func(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

func (s *stubModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	return s.generate(ctx, messages, options...)
}

func (s *stubModel) Call(_ context.Context, _ string, _ ...llms.CallOption) (string, error) {
	return "", errors.New("not implemented")
}

func swapModel(t *testing.T, stub llms.Model) {
	t.Helper()
	old := llmClient
	llmClient = stub
	t.Cleanup(func() { llmClient = old })
}

func streamFuncFromOptions(options []llms.CallOption) func(context.Context, []byte, []byte) error {
	opts := llms.CallOptions{}
	for _, o := range options {
		o(&opts)
	}
	return opts.StreamingReasoningFunc
}

func drain(out <-chan Event) {
	go func() {
		for range out {
		}
	}()
}

// 上游中途断流时，已经推给客户端的文本必须带回结果，供落库结算
func TestStreamkeepsPartialTextOnProviderError(t *testing.T) {
	partial := "你好，这是断流前的部分输出"

	swapModel(t, &stubModel{
		generate: func(ctx context.Context, _ []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
			streamFunc := streamFuncFromOptions(options)
			if streamFunc == nil {
				t.Fatal("streaming func not passed through")
			}
			_ = streamFunc(ctx, nil, []byte(partial))
			return nil, errors.New("上游连接被重置")
		},
	})

	g := NewGenerator(&ToolHandler{})
	out := make(chan Event, 64)
	drain(out)

	result, err := g.Stream(context.Background(), &StreamRequest{
		Model:    "glm-4",
		Messages: []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, "你好")},
	}, out)
	close(out)

	if err == nil {
		t.Fatal("expected stream error")
	}
	if result == nil || result.Text != partial {
		t.Fatalf("partial text lost: got %q, want %q", resultText(result), partial)
	}
}

// 客户端断开后无人消费通道，生成协程必须随上下文取消退出而不是卡死
func TestStreamReturnsAfterCancelWithoutConsumer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	streaming := make(chan struct{})
	swapModel(t, &stubModel{
		generate: func(ctx context.Context, _ []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
			streamFunc := streamFuncFromOptions(options)
			for i := 0; i < 128; i++ {
				if i == 0 {
					close(streaming)
				}
				_ = streamFunc(ctx, nil, []byte("块"))
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
			}
			return nil, ctx.Err()
		},
	})

	g := NewGenerator(&ToolHandler{})
	out := make(chan Event) // 无缓冲且无人消费

	done := make(chan error, 1)
	go func() {
		_, err := g.Stream(ctx, &StreamRequest{
			Model:    "glm-4",
			Messages: []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, "你好")},
		}, out)
		done <- err
	}()

	select {
	case <-streaming:
	case <-time.After(2 * time.Second):
		t.Fatal("model stub never started streaming")
	}
	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected cancellation error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Stream still blocked after cancellation, events must be dropped when nobody consumes")
	}
}

func resultText(r *StreamResult) string {
	if r == nil {
		return "<nil>"
	}
	return r.Text
}
