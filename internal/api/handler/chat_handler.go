package handler

import (
	"AgentVendor/internal/api/dto"
	"AgentVendor/internal/pkg/llm"
	"AgentVendor/internal/pkg/response"
	"AgentVendor/internal/pkg/util"
	"AgentVendor/internal/service"
	"errors"
	"io"
	log "log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

type ChatHandler struct {
	chatSvc service.ChatService
}

func NewChatHandler(chatSvc service.ChatService) *ChatHandler {
	return &ChatHandler{chatSvc: chatSvc}
}

// Chat 流式聊天入口。
// 预检失败用真实 HTTP 状态码返回；一旦开始推流，
// 后续错误只能以 error 帧形式出现在流里。
func (s *ChatHandler) Chat(c *gin.Context) {
	var req dto.ChatRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求体解析失败"})
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetUint64("user_id")

	events, err := s.chatSvc.StartChat(c.Request.Context(), userID, &req)
	if err != nil {
		s.failChat(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.Stream(func(w io.Writer) bool {
		event, ok := <-events
		if !ok {
			return false
		}
		payload, err := json.Marshal(event)
		if err != nil {
			log.ErrorContext(c.Request.Context(), "事件序列化失败", "err", err)
			return true
		}
		c.SSEvent("message", string(payload))
		return event.Type != llm.EventDone
	})
}

// failChat 把预检哨兵错误映射为真实 HTTP 状态码
func (s *ChatHandler) failChat(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInsufficientCredits):
		status = http.StatusPaymentRequired
	case errors.Is(err, service.ErrNoUserMessage),
		errors.Is(err, service.ErrModelNotFound),
		errors.Is(err, service.ErrParamInvalid):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrChatForbidden):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrChatCreateFailed):
		status = http.StatusInternalServerError
	}
	if status == http.StatusInternalServerError {
		log.ErrorContext(c.Request.Context(), "聊天请求失败", "err", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// DeleteChat 删除会话
func (s *ChatHandler) DeleteChat(c *gin.Context) {
	chatID := c.Query("id")
	if chatID == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "会话不存在"})
		return
	}

	userID := c.GetUint64("user_id")
	err := s.chatSvc.DeleteChat(c.Request.Context(), userID, chatID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"deleted": chatID})
	case errors.Is(err, service.ErrChatNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrChatForbidden):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		log.ErrorContext(c.Request.Context(), "会话删除失败", "chatId", chatID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "未知错误"})
	}
}

// ListChats 会话列表，按最近活跃排序
func (s *ChatHandler) ListChats(c *gin.Context) {
	userID := c.GetUint64("user_id")
	page, size := pageParams(c)

	result, err := s.chatSvc.ListChats(c.Request.Context(), userID, page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetHistory 拉取一个会话的消息历史
func (s *ChatHandler) GetHistory(c *gin.Context) {
	chatID := c.Query("chatId")
	if chatID == "" {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	beforeID := c.Query("before")
	size, err := strconv.Atoi(c.DefaultQuery("size", "50"))
	if err != nil || size <= 0 || size > 200 {
		size = 50
	}

	userID := c.GetUint64("user_id")
	messages, err := s.chatSvc.GetHistory(c.Request.Context(), userID, chatID, beforeID, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, messages)
}

func pageParams(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page <= 0 {
		page = 1
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "20"))
	if err != nil || size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}
