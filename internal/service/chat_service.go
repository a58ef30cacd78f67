package service

import (
	"AgentVendor/internal/api/dto"
	"AgentVendor/internal/model"
	"AgentVendor/internal/pkg/consts"
	"AgentVendor/internal/pkg/llm"
	"AgentVendor/internal/pkg/mongo"
	"AgentVendor/internal/repository"
	"context"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/tmc/langchaingo/llms"
	"golang.org/x/sync/errgroup"
)

// StreamGenerator 流式生成器抽象，便于在测试中替换真实模型
type StreamGenerator interface {
	Stream(ctx context.Context, req *llm.StreamRequest, out chan<- llm.Event) (*llm.StreamResult, error)
}

// TitleFunc 会话标题生成函数
type TitleFunc func(ctx context.Context, firstMessage string) (string, error)

type ChatService interface {
	StartChat(ctx context.Context, userID uint64, req *dto.ChatRequest) (<-chan llm.Event, error)
	DeleteChat(ctx context.Context, userID uint64, chatID string) error
	ListChats(ctx context.Context, userID uint64, page, size int) (*dto.PageDTO, error)
	GetHistory(ctx context.Context, userID uint64, chatID string, beforeID string, size int) ([]*dto.MessageDTO, error)
	RefreshTitle(ctx context.Context, chat *model.Chat) error
}

type ChatServiceImpl struct {
	chatRepo    repository.ChatRepo
	agentRepo   repository.AgentRepo
	modelRepo   repository.ModelRepo
	messageRepo mongo.MessageRepo
	creditSvc   CreditService
	generator   StreamGenerator
	titleFunc   TitleFunc
}

func NewChatService(
	chatRepo repository.ChatRepo,
	agentRepo repository.AgentRepo,
	modelRepo repository.ModelRepo,
	messageRepo mongo.MessageRepo,
	creditSvc CreditService,
	generator StreamGenerator,
) ChatService {
	return &ChatServiceImpl{
		chatRepo:    chatRepo,
		agentRepo:   agentRepo,
		modelRepo:   modelRepo,
		messageRepo: messageRepo,
		creditSvc:   creditSvc,
		generator:   generator,
		titleFunc:   llm.GenerateTitle,
	}
}

// streamState 单次请求内的流式簿记，生命周期与一次 StartChat 严格一致
type streamState struct {
	tally       llm.Usage
	savedIDs    map[string]struct{}
	assistantID string
}

// provision 并行预取阶段的产出
type provision struct {
	hasBalance  bool
	modelCfg    *model.ModelConfig
	agent       *model.Agent
	lastUserMsg *dto.IncomingMessage
	chat        *model.Chat
}

// StartChat 聊天编排主流程。
// 返回时用户消息已持久化，生成事件随后从通道流出；
// 预检失败（余额、消息缺失、模型无效）通过哨兵错误区分。
func (s *ChatServiceImpl) StartChat(ctx context.Context, userID uint64, req *dto.ChatRequest) (<-chan llm.Event, error) {
	latestText := flattenMessageText(req.Messages)

	// 群聊提及目前仅用于观测，不影响路由
	if req.GroupChat && len(req.Roster) > 0 {
		mentioned := DetectMentions([]string{latestText}, req.Roster)
		if len(mentioned) > 0 {
			log.InfoContext(ctx, "检测到群聊提及", "chatId", req.ChatID, "agents", len(mentioned))
		}
	}

	prov, err := s.provisionAll(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	if !prov.hasBalance {
		return nil, ErrInsufficientCredits
	}
	if prov.lastUserMsg == nil {
		return nil, ErrNoUserMessage
	}
	if prov.modelCfg == nil || !prov.modelCfg.Enabled {
		return nil, ErrModelNotFound
	}
	if prov.chat != nil && prov.chat.UserID != userID {
		return nil, ErrChatForbidden
	}

	// 会话不存在时先建行，消息外键依赖于此
	if prov.chat == nil {
		chat := &model.Chat{
			ID:        req.ChatID,
			UserID:    userID,
			AgentID:   req.AgentID,
			Title:     consts.DefaultChatTitle,
			GroupChat: req.GroupChat,
		}
		created, err := s.chatRepo.CreateChatIfAbsent(ctx, chat)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrChatCreateFailed, err)
		}
		if created {
			s.spawnTitleTask(req.ChatID, latestText)
		}
	}

	// 用户消息立即落库，后续计费流水可能引用其 ID
	userMsg := s.buildUserMessage(req.ChatID, prov.lastUserMsg)
	if err = s.messageRepo.SaveMessage(ctx, userMsg); err != nil {
		return nil, err
	}

	state := &streamState{
		savedIDs:    map[string]struct{}{userMsg.ID: {}},
		assistantID: uuid.NewString(),
	}

	streamReq := s.buildStreamRequest(req, prov, state)

	out := make(chan llm.Event, 64)
	genCtx := context.WithValue(ctx, consts.AgentIDKey, req.AgentID)

	go s.runStream(genCtx, userID, req, prov, state, streamReq, out)

	return out, nil
}

// provisionAll 五路并发预取，任一失败即整体失败
func (s *ChatServiceImpl) provisionAll(ctx context.Context, userID uint64, req *dto.ChatRequest) (*provision, error) {
	prov := &provision{}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		prov.hasBalance, err = s.creditSvc.HasBalance(gctx, userID)
		return err
	})

	g.Go(func() error {
		var err error
		prov.modelCfg, err = s.modelRepo.GetModelById(gctx, req.ModelID)
		return err
	})

	g.Go(func() error {
		if req.AgentID == 0 {
			return nil
		}
		var err error
		prov.agent, err = s.agentRepo.GetAgentById(gctx, req.AgentID)
		return err
	})

	g.Go(func() error {
		prov.lastUserMsg = findLastUserMessage(req.Messages)
		return nil
	})

	g.Go(func() error {
		var err error
		prov.chat, err = s.chatRepo.GetChatById(gctx, req.ChatID)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return prov, nil
}

// spawnTitleTask 异步补全标题，失败只记日志，绝不阻塞主响应
func (s *ChatServiceImpl) spawnTitleTask(chatID string, firstMessage string) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("标题生成任务崩溃", "chatId", chatID, "panic", r)
			}
		}()

		taskCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		title, err := s.titleFunc(taskCtx, firstMessage)
		if err != nil {
			log.Warn("标题生成失败", "chatId", chatID, "err", err)
			return
		}
		if err = s.chatRepo.UpdateTitle(taskCtx, chatID, title); err != nil {
			log.Warn("标题写入失败", "chatId", chatID, "err", err)
		}
	}()
}

func (s *ChatServiceImpl) buildUserMessage(chatID string, incoming *dto.IncomingMessage) *mongo.Message {
	msgID := incoming.ID
	if msgID == "" {
		msgID = uuid.NewString()
	}

	parts := make([]mongo.Part, 0, len(incoming.Parts))
	for _, p := range incoming.Parts {
		parts = append(parts, mongo.Part{
			Type: p.Type,
			Text: p.Text,
		})
	}

	attachments := make([]mongo.Attachment, 0, len(incoming.Attachments))
	for _, a := range incoming.Attachments {
		attachments = append(attachments, mongo.Attachment{
			Name:     a.Name,
			MimeType: a.MimeType,
			URL:      a.URL,
		})
	}

	return &mongo.Message{
		ID:          msgID,
		ChatID:      chatID,
		Role:        consts.RoleUser,
		Parts:       parts,
		Attachments: attachments,
		CreatedAt:   time.Now(),
	}
}

func (s *ChatServiceImpl) buildStreamRequest(req *dto.ChatRequest, prov *provision, state *streamState) *llm.StreamRequest {
	var enabledTools []string
	agentPrompt := ""
	if prov.agent != nil {
		enabledTools = prov.agent.Tools
		agentPrompt = prov.agent.SystemPrompt
	} else {
		enabledTools = []string{consts.ToolWebSearch, consts.ToolWebFetch}
	}
	if req.SystemPromptOverride != "" {
		agentPrompt = req.SystemPromptOverride
	}

	toolset := llm.BuildToolset(enabledTools, req.SearchEnabled, prov.modelCfg.ToolCapable)

	searchActive := false
	for _, tool := range toolset {
		if tool.Function != nil && tool.Function.Name == consts.ToolWebSearch {
			searchActive = true
			break
		}
	}

	return &llm.StreamRequest{
		Model:        req.ModelName,
		SystemPrompt: llm.ComposeSystemPrompt(agentPrompt, req.KnowledgeSnippets, searchActive),
		Messages:     convertHistory(req.Messages),
		Tools:        toolset,
		Params:       req.Params,
		OnUsage: func(u llm.Usage) {
			state.tally.Add(u)
		},
	}
}

// runStream 消费生成事件的落库侧：成功与失败两条收尾路径都不允许向外抛错
func (s *ChatServiceImpl) runStream(ctx context.Context, userID uint64, req *dto.ChatRequest, prov *provision, state *streamState, streamReq *llm.StreamRequest, out chan llm.Event) {
	defer close(out)
	defer func() {
		if r := recover(); r != nil {
			log.Error("聊天流处理崩溃", "chatId", req.ChatID, "panic", r)
		}
	}()

	result, err := s.generator.Stream(ctx, streamReq, out)

	if err != nil {
		s.reconcileError(ctx, userID, req, prov, state, result, err, out)
	} else {
		s.finalizeSuccess(ctx, userID, req, prov, state, result)
	}

	sendEvent(ctx, out, llm.Event{Type: llm.EventDone})

	persistCtx, cancel := detachedContext(ctx)
	defer cancel()
	if touchErr := s.chatRepo.TouchChat(persistCtx, req.ChatID); touchErr != nil {
		log.Warn("会话活跃时间更新失败", "chatId", req.ChatID, "err", touchErr)
	}
}

// finalizeSuccess 成功收尾：落库助手消息并入账。
// 此处任何失败只记日志，用户已经拿到完整回复。
func (s *ChatServiceImpl) finalizeSuccess(ctx context.Context, userID uint64, req *dto.ChatRequest, prov *provision, state *streamState, result *llm.StreamResult) {
	persistCtx, cancel := detachedContext(ctx)
	defer cancel()

	if result == nil || result.Text == "" {
		log.ErrorContext(ctx, "生成结束但没有助手消息", "chatId", req.ChatID)
		return
	}

	msg := s.buildAssistantMessage(req, state, result.Text, result.Sources)
	if err := s.messageRepo.SaveMessage(persistCtx, msg); err != nil {
		log.ErrorContext(ctx, "助手消息落库失败", "chatId", req.ChatID, "msgId", msg.ID, "err", err)
	} else {
		state.savedIDs[msg.ID] = struct{}{}
	}

	if !state.tally.IsZero() {
		s.recordTransaction(persistCtx, userID, req, prov, state, "")
	}
}

// reconcileError 流中断收尾：尽力保存已累积的部分输出，并按实际消耗结算
func (s *ChatServiceImpl) reconcileError(ctx context.Context, userID uint64, req *dto.ChatRequest, prov *provision, state *streamState, result *llm.StreamResult, streamErr error, out chan llm.Event) {
	log.ErrorContext(ctx, "聊天流中断", "chatId", req.ChatID, "err", streamErr)

	persistCtx, cancel := detachedContext(ctx)
	defer cancel()

	if result != nil && result.Text != "" {
		if _, saved := state.savedIDs[state.assistantID]; !saved {
			msg := s.buildAssistantMessage(req, state, result.Text, result.Sources)
			if err := s.messageRepo.SaveMessage(persistCtx, msg); err != nil {
				log.ErrorContext(ctx, "部分输出落库失败", "chatId", req.ChatID, "err", err)
			} else {
				state.savedIDs[msg.ID] = struct{}{}
			}
		}
	}

	if !state.tally.IsZero() {
		s.recordTransaction(persistCtx, userID, req, prov, state, "生成中断，仅结算已消耗部分")
	}

	sendEvent(ctx, out, llm.Event{
		Type: llm.EventError,
		Text: fmt.Sprintf("生成过程中出现错误：%v（已消耗 %d 输入 / %d 输出 token）",
			streamErr, state.tally.PromptTokens, state.tally.CompletionTokens),
	})
}

// sendEvent 客户端已断开时丢弃事件，收尾写入不能被无人消费的通道阻塞
func sendEvent(ctx context.Context, out chan llm.Event, ev llm.Event) {
	select {
	case out <- ev:
	case <-ctx.Done():
	}
}

// recordTransaction 入账一条计费流水，费率在此刻快照
func (s *ChatServiceImpl) recordTransaction(ctx context.Context, userID uint64, req *dto.ChatRequest, prov *provision, state *streamState, description string) {
	creatorID := req.CreatorID
	if creatorID == 0 && prov.agent != nil {
		creatorID = prov.agent.CreatorID
	}

	txnType := consts.TransactionUsage
	if creatorID == userID {
		txnType = consts.TransactionSelfUsage
	}

	cost := float64(state.tally.PromptTokens)*prov.modelCfg.InputRate/1_000_000 +
		float64(state.tally.CompletionTokens)*prov.modelCfg.OutputRate/1_000_000

	txn := &model.UsageTransaction{
		ID:               uuid.NewString(),
		UserID:           userID,
		AgentID:          req.AgentID,
		ChatID:           req.ChatID,
		MessageID:        state.assistantID,
		ModelID:          prov.modelCfg.ID,
		Type:             txnType,
		PromptTokens:     state.tally.PromptTokens,
		CompletionTokens: state.tally.CompletionTokens,
		InputRate:        prov.modelCfg.InputRate,
		OutputRate:       prov.modelCfg.OutputRate,
		Cost:             cost,
		Description:      description,
		CreatedAt:        time.Now(),
	}

	if err := s.creditSvc.RecordUsage(ctx, txn); err != nil {
		log.ErrorContext(ctx, "计费流水入账失败", "chatId", req.ChatID, "txn", txn.ID, "err", err)
	}
}

// buildAssistantMessage 合成最终助手消息：引用来源在前，正文在后
func (s *ChatServiceImpl) buildAssistantMessage(req *dto.ChatRequest, state *streamState, text string, sources []llm.Source) *mongo.Message {
	parts := make([]mongo.Part, 0, len(sources)+1)
	for _, src := range sources {
		parts = append(parts, mongo.Part{
			Type:        consts.PartTypeSource,
			SourceURL:   src.URL,
			SourceTitle: src.Title,
		})
	}
	parts = append(parts, mongo.Part{
		Type: consts.PartTypeText,
		Text: text,
	})

	return &mongo.Message{
		ID:        state.assistantID,
		ChatID:    req.ChatID,
		Role:      consts.RoleAssistant,
		Parts:     parts,
		ModelID:   req.ModelID,
		AgentID:   req.AgentID,
		CreatedAt: time.Now(),
	}
}

// DeleteChat 删除会话及其消息明细
func (s *ChatServiceImpl) DeleteChat(ctx context.Context, userID uint64, chatID string) error {
	chat, err := s.chatRepo.GetChatById(ctx, chatID)
	if err != nil {
		return err
	}
	if chat == nil {
		return ErrChatNotFound
	}
	if chat.UserID != userID {
		return ErrChatForbidden
	}

	if err = s.chatRepo.DeleteChat(ctx, chatID); err != nil {
		return err
	}
	if err = s.messageRepo.DeleteByChat(ctx, chatID); err != nil {
		log.WarnContext(ctx, "会话消息清理失败", "chatId", chatID, "err", err)
	}
	return nil
}

func (s *ChatServiceImpl) ListChats(ctx context.Context, userID uint64, page, size int) (*dto.PageDTO, error) {
	chats, total, err := s.chatRepo.ListChatsByUser(ctx, userID, page, size)
	if err != nil {
		return nil, err
	}

	list := make([]*dto.ChatDTO, 0, len(chats))
	for _, chat := range chats {
		item := &dto.ChatDTO{}
		if err = copier.Copy(item, chat); err != nil {
			return nil, err
		}
		list = append(list, item)
	}
	return &dto.PageDTO{Total: total, Page: page, Size: size, List: list}, nil
}

func (s *ChatServiceImpl) GetHistory(ctx context.Context, userID uint64, chatID string, beforeID string, size int) ([]*dto.MessageDTO, error) {
	chat, err := s.chatRepo.GetChatById(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, ErrChatNotFound
	}
	if chat.UserID != userID {
		return nil, ErrChatForbidden
	}

	messages, err := s.messageRepo.GetHistory(ctx, chatID, beforeID, size)
	if err != nil {
		return nil, err
	}

	list := make([]*dto.MessageDTO, 0, len(messages))
	for _, msg := range messages {
		item := &dto.MessageDTO{
			ID:        msg.ID,
			ChatID:    msg.ChatID,
			Role:      msg.Role,
			ModelID:   msg.ModelID,
			CreatedAt: msg.CreatedAt,
		}
		for _, p := range msg.Parts {
			item.Parts = append(item.Parts, dto.MessagePart{
				Type:        p.Type,
				Text:        p.Text,
				SourceURL:   p.SourceURL,
				SourceTitle: p.SourceTitle,
				ToolName:    p.ToolName,
				ToolArgs:    p.ToolArgs,
				ToolResult:  p.ToolResult,
			})
		}
		for _, a := range msg.Attachments {
			item.Attachments = append(item.Attachments, dto.AttachmentDTO{
				Name:     a.Name,
				MimeType: a.MimeType,
				URL:      a.URL,
			})
		}
		list = append(list, item)
	}
	return list, nil
}

// RefreshTitle 为仍是默认标题的会话重新生成标题，由定时任务调用
func (s *ChatServiceImpl) RefreshTitle(ctx context.Context, chat *model.Chat) error {
	messages, err := s.messageRepo.GetHistory(ctx, chat.ID, "", 50)
	if err != nil {
		return err
	}

	firstText := ""
	for _, msg := range messages {
		if msg.Role != consts.RoleUser {
			continue
		}
		for _, p := range msg.Parts {
			if p.Type == consts.PartTypeText && p.Text != "" {
				firstText = p.Text
				break
			}
		}
		if firstText != "" {
			break
		}
	}
	if firstText == "" {
		return nil
	}

	title, err := s.titleFunc(ctx, firstText)
	if err != nil {
		return err
	}
	return s.chatRepo.UpdateTitle(ctx, chat.ID, title)
}

// flattenMessageText 把最后一条消息的结构化分段拍平成纯文本
func flattenMessageText(messages []dto.IncomingMessage) string {
	if len(messages) == 0 {
		return ""
	}
	last := messages[len(messages)-1]
	var builder strings.Builder
	for _, p := range last.Parts {
		if p.Type == consts.PartTypeText || p.Type == "" {
			if builder.Len() > 0 {
				builder.WriteString(" ")
			}
			builder.WriteString(p.Text)
		}
	}
	return builder.String()
}

// findLastUserMessage 从后向前找最近一条用户消息
func findLastUserMessage(messages []dto.IncomingMessage) *dto.IncomingMessage {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == consts.RoleUser {
			return &messages[i]
		}
	}
	return nil
}

// convertHistory 把请求消息列表转换为模型输入，图片附件转为多模态分段
func convertHistory(messages []dto.IncomingMessage) []llms.MessageContent {
	converted := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		role := llms.ChatMessageTypeHuman
		if msg.Role == consts.RoleAssistant {
			role = llms.ChatMessageTypeAI
		}

		parts := make([]llms.ContentPart, 0, len(msg.Parts)+len(msg.Attachments))
		for _, p := range msg.Parts {
			if (p.Type == consts.PartTypeText || p.Type == "") && p.Text != "" {
				parts = append(parts, llms.TextPart(p.Text))
			}
		}
		for _, a := range msg.Attachments {
			if strings.HasPrefix(a.MimeType, consts.MimePrefixImage) {
				parts = append(parts, llms.ImageURLPart(a.URL))
			}
		}
		if len(parts) == 0 {
			continue
		}
		converted = append(converted, llms.MessageContent{Role: role, Parts: parts})
	}
	return converted
}

// detachedContext 脱离请求生命周期的持久化上下文，客户端断开不影响收尾写入
func detachedContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
}
