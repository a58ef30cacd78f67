package service

import (
	"AgentVendor/internal/api/dto"
	"AgentVendor/internal/model"
	"AgentVendor/internal/pkg/consts"
	"AgentVendor/internal/pkg/llm"
	"AgentVendor/internal/pkg/mongo"
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeChatRepo struct {
	mu         sync.Mutex
	chats      map[string]*model.Chat
	created    int
	titles     map[string]string
	titleSaved chan struct{}
	touched    []string
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{
		chats:      make(map[string]*model.Chat),
		titles:     make(map[string]string),
		titleSaved: make(chan struct{}, 8),
	}
}

func (f *fakeChatRepo) CreateChatIfAbsent(_ context.Context, chat *model.Chat) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.chats[chat.ID]; ok {
		return false, nil
	}
	f.chats[chat.ID] = chat
	f.created++
	return true, nil
}

func (f *fakeChatRepo) GetChatById(_ context.Context, id string) (*model.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.chats[id], nil
}

func (f *fakeChatRepo) ListChatsByUser(_ context.Context, userID uint64, _, _ int) ([]*model.Chat, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := make([]*model.Chat, 0)
	for _, chat := range f.chats {
		if chat.UserID == userID {
			list = append(list, chat)
		}
	}
	return list, int64(len(list)), nil
}

func (f *fakeChatRepo) UpdateTitle(_ context.Context, id string, title string) error {
	f.mu.Lock()
	f.titles[id] = title
	f.mu.Unlock()
	f.titleSaved <- struct{}{}
	return nil
}

func (f *fakeChatRepo) TouchChat(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = append(f.touched, id)
	return nil
}

func (f *fakeChatRepo) DeleteChat(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.chats, id)
	return nil
}

func (f *fakeChatRepo) ListChatsWithDefaultTitle(_ context.Context, _ time.Time, _ int) ([]*model.Chat, error) {
	return nil, nil
}

type fakeAgentRepo struct {
	agents map[uint64]*model.Agent
}

func (f *fakeAgentRepo) CreateAgent(_ context.Context, _ *model.Agent) error { return nil }
func (f *fakeAgentRepo) GetAgentById(_ context.Context, id uint64) (*model.Agent, error) {
	return f.agents[id], nil
}
func (f *fakeAgentRepo) GetAgentByIds(_ context.Context, _ []uint64) ([]*model.Agent, error) {
	return nil, nil
}
func (f *fakeAgentRepo) ListVisibleAgents(_ context.Context, _ uint64, _, _ int) ([]*model.Agent, int64, error) {
	return nil, 0, nil
}
func (f *fakeAgentRepo) ListAgentsByCreator(_ context.Context, _ uint64) ([]*model.Agent, error) {
	return nil, nil
}
func (f *fakeAgentRepo) UpdateAgent(_ context.Context, _ *model.Agent) error { return nil }
func (f *fakeAgentRepo) DeleteAgent(_ context.Context, _ uint64) error       { return nil }

type fakeModelRepo struct {
	models map[uint64]*model.ModelConfig
}

func (f *fakeModelRepo) GetModelById(_ context.Context, id uint64) (*model.ModelConfig, error) {
	return f.models[id], nil
}
func (f *fakeModelRepo) GetModelByName(_ context.Context, _ string) (*model.ModelConfig, error) {
	return nil, nil
}
func (f *fakeModelRepo) ListEnabledModels(_ context.Context) ([]*model.ModelConfig, error) {
	return nil, nil
}
func (f *fakeModelRepo) CreateModel(_ context.Context, _ *model.ModelConfig) error { return nil }
func (f *fakeModelRepo) UpdateModel(_ context.Context, _ *model.ModelConfig) error { return nil }

type fakeMessageRepo struct {
	mu    sync.Mutex
	saved []*mongo.Message
}

func (f *fakeMessageRepo) SaveMessage(_ context.Context, msg *mongo.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, msg)
	return nil
}

func (f *fakeMessageRepo) GetHistory(_ context.Context, chatID string, _ string, _ int) ([]*mongo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := make([]*mongo.Message, 0)
	for _, msg := range f.saved {
		if msg.ChatID == chatID {
			list = append(list, msg)
		}
	}
	return list, nil
}

func (f *fakeMessageRepo) GetMessageById(_ context.Context, _ string) (*mongo.Message, error) {
	return nil, nil
}

func (f *fakeMessageRepo) DeleteByChat(_ context.Context, chatID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.saved[:0]
	for _, msg := range f.saved {
		if msg.ChatID != chatID {
			kept = append(kept, msg)
		}
	}
	f.saved = kept
	return nil
}

func (f *fakeMessageRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

func (f *fakeMessageRepo) byRole(role string) []*mongo.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := make([]*mongo.Message, 0)
	for _, msg := range f.saved {
		if msg.Role == role {
			list = append(list, msg)
		}
	}
	return list
}

type fakeCreditService struct {
	mu       sync.Mutex
	balance  bool
	recorded []*model.UsageTransaction
}

func (f *fakeCreditService) HasBalance(_ context.Context, _ uint64) (bool, error) {
	return f.balance, nil
}
func (f *fakeCreditService) GetBalance(_ context.Context, _ uint64) (*dto.BalanceDTO, error) {
	return nil, nil
}
func (f *fakeCreditService) RecordUsage(_ context.Context, txn *model.UsageTransaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, txn)
	return nil
}
func (f *fakeCreditService) ListTransactions(_ context.Context, _ uint64, _, _ int) (*dto.PageDTO, error) {
	return nil, nil
}
func (f *fakeCreditService) ListUsageDaily(_ context.Context, _ uint64, _, _ string) ([]*dto.UsageDailyDTO, error) {
	return nil, nil
}

func (f *fakeCreditService) transactions() []*model.UsageTransaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*model.UsageTransaction(nil), f.recorded...)
}

type fakeGenerator struct {
	streamFunc func(ctx context.Context, req *llm.StreamRequest, out chan<- llm.Event) (*llm.StreamResult, error)
}

func (f *fakeGenerator) Stream(ctx context.Context, req *llm.StreamRequest, out chan<- llm.Event) (*llm.StreamResult, error) {
	return f.streamFunc(ctx, req, out)
}

type chatFixture struct {
	svc      *ChatServiceImpl
	chatRepo *fakeChatRepo
	msgRepo  *fakeMessageRepo
	credit   *fakeCreditService
}

func newChatFixture(gen *fakeGenerator) *chatFixture {
	chatRepo := newFakeChatRepo()
	msgRepo := &fakeMessageRepo{}
	credit := &fakeCreditService{balance: true}
	svc := &ChatServiceImpl{
		chatRepo:  chatRepo,
		agentRepo: &fakeAgentRepo{agents: map[uint64]*model.Agent{}},
		modelRepo: &fakeModelRepo{models: map[uint64]*model.ModelConfig{
			10: {ID: 10, Name: "glm-4-flash", InputRate: 2, OutputRate: 6, ToolCapable: true, Enabled: true},
		}},
		messageRepo: msgRepo,
		creditSvc:   credit,
		generator:   gen,
		titleFunc: func(_ context.Context, _ string) (string, error) {
			return "测试标题", nil
		},
	}
	return &chatFixture{svc: svc, chatRepo: chatRepo, msgRepo: msgRepo, credit: credit}
}

func baseRequest() *dto.ChatRequest {
	return &dto.ChatRequest{
		ChatID:    "3db7f4cc-0000-4000-8000-000000000001",
		ModelName: "glm-4-flash",
		ModelID:   10,
		Messages: []dto.IncomingMessage{
			{
				ID:    "msg-user-1",
				Role:  consts.RoleUser,
				Parts: []dto.MessagePart{{Type: consts.PartTypeText, Text: "你好"}},
			},
		},
	}
}

func drainEvents(t *testing.T, events <-chan llm.Event) []llm.Event {
	t.Helper()
	collected := make([]llm.Event, 0)
	timeout := time.After(5 * time.Second)
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return collected
			}
			collected = append(collected, event)
		case <-timeout:
			t.Fatalf("timed out waiting for event stream to close")
		}
	}
}

func waitSignal(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for async task")
	}
}

func TestStartChatRejectsWithoutCredits(t *testing.T) {
	fx := newChatFixture(&fakeGenerator{})
	fx.credit.balance = false

	_, err := fx.svc.StartChat(context.Background(), 1, baseRequest())
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}
	if fx.msgRepo.count() != 0 {
		t.Fatalf("nothing should be persisted on credit rejection")
	}
}

func TestStartChatRejectsWithoutUserMessage(t *testing.T) {
	fx := newChatFixture(&fakeGenerator{})
	req := baseRequest()
	req.Messages = []dto.IncomingMessage{
		{Role: consts.RoleAssistant, Parts: []dto.MessagePart{{Type: consts.PartTypeText, Text: "hi"}}},
	}

	_, err := fx.svc.StartChat(context.Background(), 1, req)
	if !errors.Is(err, ErrNoUserMessage) {
		t.Fatalf("expected ErrNoUserMessage, got %v", err)
	}
}

func TestStartChatRejectsUnknownModel(t *testing.T) {
	fx := newChatFixture(&fakeGenerator{})
	req := baseRequest()
	req.ModelID = 99

	_, err := fx.svc.StartChat(context.Background(), 1, req)
	if !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound, got %v", err)
	}
}

func TestStartChatRejectsForeignChat(t *testing.T) {
	fx := newChatFixture(&fakeGenerator{})
	req := baseRequest()
	fx.chatRepo.chats[req.ChatID] = &model.Chat{ID: req.ChatID, UserID: 42}

	_, err := fx.svc.StartChat(context.Background(), 1, req)
	if !errors.Is(err, ErrChatForbidden) {
		t.Fatalf("expected ErrChatForbidden, got %v", err)
	}
}

func TestStartChatPersistsUserMessageBeforeStreaming(t *testing.T) {
	var savedAtStreamStart int
	var fx *chatFixture
	gen := &fakeGenerator{
		streamFunc: func(_ context.Context, _ *llm.StreamRequest, _ chan<- llm.Event) (*llm.StreamResult, error) {
			savedAtStreamStart = fx.msgRepo.count()
			return &llm.StreamResult{Text: "ok"}, nil
		},
	}
	fx = newChatFixture(gen)

	events, err := fx.svc.StartChat(context.Background(), 1, baseRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	drainEvents(t, events)

	if savedAtStreamStart != 1 {
		t.Fatalf("user message must be persisted before generation starts, saw %d", savedAtStreamStart)
	}
}

func TestStartChatHappyPath(t *testing.T) {
	gen := &fakeGenerator{
		streamFunc: func(_ context.Context, req *llm.StreamRequest, out chan<- llm.Event) (*llm.StreamResult, error) {
			out <- llm.Event{Type: llm.EventText, Text: "你好"}
			out <- llm.Event{Type: llm.EventText, Text: "！"}
			req.OnUsage(llm.Usage{PromptTokens: 1000, CompletionTokens: 500, TotalTokens: 1500})
			return &llm.StreamResult{
				Text:    "你好！",
				Sources: []llm.Source{{URL: "https://example.com", Title: "Example"}},
			}, nil
		},
	}
	fx := newChatFixture(gen)
	req := baseRequest()
	req.CreatorID = 42

	events, err := fx.svc.StartChat(context.Background(), 1, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	collected := drainEvents(t, events)

	if len(collected) < 3 {
		t.Fatalf("expected text and done events, got %d", len(collected))
	}
	if last := collected[len(collected)-1]; last.Type != llm.EventDone {
		t.Fatalf("stream must end with done frame, got %q", last.Type)
	}

	assistants := fx.msgRepo.byRole(consts.RoleAssistant)
	if len(assistants) != 1 {
		t.Fatalf("expected one assistant message, got %d", len(assistants))
	}
	parts := assistants[0].Parts
	if len(parts) != 2 {
		t.Fatalf("expected source part + text part, got %d", len(parts))
	}
	if parts[0].Type != consts.PartTypeSource || parts[0].SourceURL != "https://example.com" {
		t.Fatalf("sources must lead the assistant message, got %+v", parts[0])
	}
	if parts[1].Type != consts.PartTypeText || parts[1].Text != "你好！" {
		t.Fatalf("unexpected text part: %+v", parts[1])
	}

	txns := fx.credit.transactions()
	if len(txns) != 1 {
		t.Fatalf("expected one transaction, got %d", len(txns))
	}
	txn := txns[0]
	if txn.Type != consts.TransactionUsage {
		t.Fatalf("expected usage transaction, got %q", txn.Type)
	}
	// 1000 prompt × 2/1M + 500 completion × 6/1M
	wantCost := 0.002 + 0.003
	if diff := txn.Cost - wantCost; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected cost %f, got %f", wantCost, txn.Cost)
	}
	if txn.InputRate != 2 || txn.OutputRate != 6 {
		t.Fatalf("transaction must snapshot rates, got %f/%f", txn.InputRate, txn.OutputRate)
	}
	if txn.Description != "" {
		t.Fatalf("clean finish must not carry a truncation note, got %q", txn.Description)
	}

	fx.chatRepo.mu.Lock()
	touched := len(fx.chatRepo.touched)
	fx.chatRepo.mu.Unlock()
	if touched != 1 {
		t.Fatalf("chat activity timestamp must be refreshed once, got %d", touched)
	}
}

func TestStartChatSelfUsageNotBilledAsUsage(t *testing.T) {
	gen := &fakeGenerator{
		streamFunc: func(_ context.Context, req *llm.StreamRequest, _ chan<- llm.Event) (*llm.StreamResult, error) {
			req.OnUsage(llm.Usage{PromptTokens: 10, CompletionTokens: 10, TotalTokens: 20})
			return &llm.StreamResult{Text: "done"}, nil
		},
	}
	fx := newChatFixture(gen)
	req := baseRequest()
	req.CreatorID = 1 // 创建者即消费者

	events, err := fx.svc.StartChat(context.Background(), 1, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	drainEvents(t, events)

	txns := fx.credit.transactions()
	if len(txns) != 1 {
		t.Fatalf("expected one transaction, got %d", len(txns))
	}
	if txns[0].Type != consts.TransactionSelfUsage {
		t.Fatalf("expected self_usage transaction, got %q", txns[0].Type)
	}
}

func TestStartChatStreamErrorSettlesPartialWork(t *testing.T) {
	gen := &fakeGenerator{
		streamFunc: func(_ context.Context, req *llm.StreamRequest, out chan<- llm.Event) (*llm.StreamResult, error) {
			out <- llm.Event{Type: llm.EventText, Text: "部分"}
			req.OnUsage(llm.Usage{PromptTokens: 100, CompletionTokens: 30, TotalTokens: 130})
			return &llm.StreamResult{Text: "部分"}, errors.New("upstream reset")
		},
	}
	fx := newChatFixture(gen)

	events, err := fx.svc.StartChat(context.Background(), 1, baseRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	collected := drainEvents(t, events)

	if last := collected[len(collected)-1]; last.Type != llm.EventDone {
		t.Fatalf("stream must still end with done frame, got %q", last.Type)
	}
	var sawError bool
	for _, event := range collected {
		if event.Type == llm.EventError {
			sawError = true
		}
	}
	if !sawError {
		t.Fatalf("expected an error frame in the stream")
	}

	assistants := fx.msgRepo.byRole(consts.RoleAssistant)
	if len(assistants) != 1 {
		t.Fatalf("partial assistant output must be persisted, got %d messages", len(assistants))
	}

	txns := fx.credit.transactions()
	if len(txns) != 1 {
		t.Fatalf("consumed tokens must still be settled, got %d transactions", len(txns))
	}
	if txns[0].Description == "" {
		t.Fatalf("interrupted settlement must carry a truncation note")
	}
}

func TestStartChatStreamErrorWithoutUsageSkipsBilling(t *testing.T) {
	gen := &fakeGenerator{
		streamFunc: func(_ context.Context, _ *llm.StreamRequest, _ chan<- llm.Event) (*llm.StreamResult, error) {
			return nil, errors.New("connect refused")
		},
	}
	fx := newChatFixture(gen)

	events, err := fx.svc.StartChat(context.Background(), 1, baseRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	drainEvents(t, events)

	if txns := fx.credit.transactions(); len(txns) != 0 {
		t.Fatalf("no tokens consumed means no transaction, got %d", len(txns))
	}
	if assistants := fx.msgRepo.byRole(consts.RoleAssistant); len(assistants) != 0 {
		t.Fatalf("no output means no assistant message, got %d", len(assistants))
	}
}

func TestStartChatNewChatSpawnsTitleTask(t *testing.T) {
	gen := &fakeGenerator{
		streamFunc: func(_ context.Context, _ *llm.StreamRequest, _ chan<- llm.Event) (*llm.StreamResult, error) {
			return &llm.StreamResult{Text: "ok"}, nil
		},
	}
	fx := newChatFixture(gen)

	events, err := fx.svc.StartChat(context.Background(), 1, baseRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	drainEvents(t, events)
	waitSignal(t, fx.chatRepo.titleSaved)

	fx.chatRepo.mu.Lock()
	title := fx.chatRepo.titles[baseRequest().ChatID]
	fx.chatRepo.mu.Unlock()
	if title != "测试标题" {
		t.Fatalf("expected generated title, got %q", title)
	}
}

func TestStartChatExistingChatSkipsTitleTask(t *testing.T) {
	gen := &fakeGenerator{
		streamFunc: func(_ context.Context, _ *llm.StreamRequest, _ chan<- llm.Event) (*llm.StreamResult, error) {
			return &llm.StreamResult{Text: "ok"}, nil
		},
	}
	fx := newChatFixture(gen)
	req := baseRequest()
	fx.chatRepo.chats[req.ChatID] = &model.Chat{ID: req.ChatID, UserID: 1, Title: "已有标题"}

	events, err := fx.svc.StartChat(context.Background(), 1, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	drainEvents(t, events)

	select {
	case <-fx.chatRepo.titleSaved:
		t.Fatalf("existing chat must not trigger title generation")
	case <-time.After(100 * time.Millisecond):
	}
	if fx.chatRepo.created != 0 {
		t.Fatalf("existing chat must not be re-created")
	}
}

// 客户端断开、事件无人消费时，收尾结算与活跃时间刷新仍须完成
func TestStartChatClientGoneStillReconciles(t *testing.T) {
	gen := &fakeGenerator{
		streamFunc: func(_ context.Context, req *llm.StreamRequest, out chan<- llm.Event) (*llm.StreamResult, error) {
			// 填满缓冲区，模拟断开后无人拉取的积压
			for i := 0; i < 64; i++ {
				out <- llm.Event{Type: llm.EventText, Text: "x"}
			}
			req.OnUsage(llm.Usage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120})
			return &llm.StreamResult{Text: "部分输出"}, errors.New("upstream reset")
		},
	}
	fx := newChatFixture(gen)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // 请求上下文已随客户端断开而取消

	if _, err := fx.svc.StartChat(ctx, 1, baseRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		fx.chatRepo.mu.Lock()
		touched := len(fx.chatRepo.touched)
		fx.chatRepo.mu.Unlock()
		if touched == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("reconciliation blocked by unconsumed event channel")
		case <-time.After(10 * time.Millisecond):
		}
	}

	if txns := fx.credit.transactions(); len(txns) != 1 {
		t.Fatalf("consumed tokens must be settled, got %d", len(txns))
	}
	if assistants := fx.msgRepo.byRole(consts.RoleAssistant); len(assistants) != 1 {
		t.Fatalf("partial output must be persisted, got %d", len(assistants))
	}
}

func TestDeleteChat(t *testing.T) {
	fx := newChatFixture(&fakeGenerator{})
	fx.chatRepo.chats["c1"] = &model.Chat{ID: "c1", UserID: 1}
	_ = fx.msgRepo.SaveMessage(context.Background(), &mongo.Message{ID: "m1", ChatID: "c1"})

	if err := fx.svc.DeleteChat(context.Background(), 2, "c1"); !errors.Is(err, ErrChatForbidden) {
		t.Fatalf("expected ErrChatForbidden for foreign chat, got %v", err)
	}
	if err := fx.svc.DeleteChat(context.Background(), 1, "missing"); !errors.Is(err, ErrChatNotFound) {
		t.Fatalf("expected ErrChatNotFound, got %v", err)
	}
	if err := fx.svc.DeleteChat(context.Background(), 1, "c1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fx.msgRepo.count() != 0 {
		t.Fatalf("chat messages must be cleaned up with the chat")
	}
}

func TestRefreshTitleUsesFirstUserMessage(t *testing.T) {
	fx := newChatFixture(&fakeGenerator{})
	var captured string
	fx.svc.titleFunc = func(_ context.Context, firstMessage string) (string, error) {
		captured = firstMessage
		return "新标题", nil
	}
	_ = fx.msgRepo.SaveMessage(context.Background(), &mongo.Message{
		ID: "m1", ChatID: "c1", Role: consts.RoleUser,
		Parts: []mongo.Part{{Type: consts.PartTypeText, Text: "帮我写首诗"}},
	})
	_ = fx.msgRepo.SaveMessage(context.Background(), &mongo.Message{
		ID: "m2", ChatID: "c1", Role: consts.RoleAssistant,
		Parts: []mongo.Part{{Type: consts.PartTypeText, Text: "好的"}},
	})

	if err := fx.svc.RefreshTitle(context.Background(), &model.Chat{ID: "c1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if captured != "帮我写首诗" {
		t.Fatalf("expected first user message, got %q", captured)
	}
	waitSignal(t, fx.chatRepo.titleSaved)
}
