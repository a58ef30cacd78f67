package llm

import (
	"AgentVendor/internal/api/config"
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/tmc/langchaingo/llms/openai"
)

// CompatMiddleware 通用中间件：根据 API 路径自动补全厂商私有参数
type CompatMiddleware struct {
	Base http.RoundTripper
}

func (m *CompatMiddleware) RoundTrip(req *http.Request) (*http.Response, error) {
	body, err := io.ReadAll(req.Body)
	if err != nil || len(body) == 0 {
		return m.Base.RoundTrip(req)
	}

	var data map[string]interface{}
	if err = json.Unmarshal(body, &data); err != nil {
		req.Body = io.NopCloser(bytes.NewBuffer(body))
		return m.Base.RoundTrip(req)
	}

	modified := false
	cfg := config.Cfg.LLM

	if strings.Contains(req.URL.Path, "embeddings") {
		data["dimensions"] = cfg.Dimensions
		data["model"] = cfg.EmbeddingModel
		modified = true
	}

	if modified {
		newBody, _ := json.Marshal(data)
		req.Body = io.NopCloser(bytes.NewBuffer(newBody))
		req.ContentLength = int64(len(newBody))
	} else {
		req.Body = io.NopCloser(bytes.NewBuffer(body))
	}

	return m.Base.RoundTrip(req)
}

// NewCompatClient 创建带参数补全中间件的 OpenAI 兼容客户端
func NewCompatClient(apiKey string, baseURL string, model string) (*openai.LLM, error) {
	return openai.New(
		openai.WithToken(apiKey),
		openai.WithBaseURL(baseURL),
		openai.WithModel(model),
		openai.WithHTTPClient(&http.Client{
			Transport: &CompatMiddleware{Base: http.DefaultTransport},
		}),
	)
}
