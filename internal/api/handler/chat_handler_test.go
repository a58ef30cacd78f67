package handler

import (
	"AgentVendor/internal/api/dto"
	"AgentVendor/internal/model"
	"AgentVendor/internal/pkg/llm"
	"AgentVendor/internal/service"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

type stubChatService struct {
	startErr  error
	events    []llm.Event
	deleteErr error
}

func (s *stubChatService) StartChat(_ context.Context, _ uint64, _ *dto.ChatRequest) (<-chan llm.Event, error) {
	if s.startErr != nil {
		return nil, s.startErr
	}
	out := make(chan llm.Event, len(s.events))
	for _, event := range s.events {
		out <- event
	}
	close(out)
	return out, nil
}

func (s *stubChatService) DeleteChat(_ context.Context, _ uint64, _ string) error {
	return s.deleteErr
}

func (s *stubChatService) ListChats(_ context.Context, _ uint64, _, _ int) (*dto.PageDTO, error) {
	return &dto.PageDTO{}, nil
}

func (s *stubChatService) GetHistory(_ context.Context, _ uint64, _, _ string, _ int) ([]*dto.MessageDTO, error) {
	return nil, nil
}

func (s *stubChatService) RefreshTitle(_ context.Context, _ *model.Chat) error { return nil }

func newChatRouter(svc service.ChatService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewChatHandler(svc)
	auth := func(c *gin.Context) { c.Set("user_id", uint64(1)) }
	r.POST("/api/chat", auth, h.Chat)
	r.DELETE("/api/chat", auth, h.DeleteChat)
	return r
}

const validChatBody = `{
	"chatId": "3db7f4cc-0000-4000-8000-000000000001",
	"modelName": "glm-4-flash",
	"modelId": 10,
	"messages": [{"role": "user", "parts": [{"type": "text", "text": "hi"}]}]
}`

func postChat(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// streamRecorder 补上 CloseNotify，c.Stream 对底层 writer 有此断言
type streamRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func newStreamRecorder() *streamRecorder {
	return &streamRecorder{
		ResponseRecorder: httptest.NewRecorder(),
		closed:           make(chan bool, 1),
	}
}

func (r *streamRecorder) CloseNotify() <-chan bool { return r.closed }

func TestChatRejectsMalformedBody(t *testing.T) {
	r := newChatRouter(&stubChatService{})
	if w := postChat(r, `{"chatId": }`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", w.Code)
	}
}

func TestChatRejectsMissingFields(t *testing.T) {
	r := newChatRouter(&stubChatService{})
	if w := postChat(r, `{"chatId": "not-a-uuid", "modelName": "m", "modelId": 1, "messages": [{"role":"user"}]}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid chat id, got %d", w.Code)
	}
}

func TestChatStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{service.ErrInsufficientCredits, http.StatusPaymentRequired},
		{service.ErrNoUserMessage, http.StatusBadRequest},
		{service.ErrModelNotFound, http.StatusBadRequest},
		{service.ErrChatForbidden, http.StatusUnauthorized},
		{service.ErrChatCreateFailed, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		r := newChatRouter(&stubChatService{startErr: tc.err})
		if w := postChat(r, validChatBody); w.Code != tc.want {
			t.Fatalf("error %v: expected %d, got %d", tc.err, tc.want, w.Code)
		}
	}
}

func TestChatStreamsEvents(t *testing.T) {
	svc := &stubChatService{events: []llm.Event{
		{Type: llm.EventText, Text: "你好"},
		{Type: llm.EventDone},
	}}
	r := newChatRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(validChatBody))
	req.Header.Set("Content-Type", "application/json")
	w := newStreamRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Fatalf("expected SSE content type, got %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"type":"text"`) || !strings.Contains(body, `"type":"done"`) {
		t.Fatalf("expected text and done frames in body:\n%s", body)
	}
}

func TestDeleteChatStatuses(t *testing.T) {
	cases := []struct {
		name  string
		query string
		err   error
		want  int
	}{
		{"missing id", "", nil, http.StatusNotFound},
		{"not found", "?id=c1", service.ErrChatNotFound, http.StatusNotFound},
		{"foreign chat", "?id=c1", service.ErrChatForbidden, http.StatusUnauthorized},
		{"ok", "?id=c1", nil, http.StatusOK},
	}
	for _, tc := range cases {
		r := newChatRouter(&stubChatService{deleteErr: tc.err})
		req := httptest.NewRequest(http.MethodDelete, "/api/chat"+tc.query, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, w.Code)
		}
	}
}
