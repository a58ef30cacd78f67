package handler

import (
	"AgentVendor/internal/api/dto"
	"AgentVendor/internal/pkg/response"
	"AgentVendor/internal/pkg/util"
	"AgentVendor/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

type KnowledgeHandler struct {
	knowledgeSvc service.KnowledgeService
}

func NewKnowledgeHandler(knowledgeSvc service.KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{knowledgeSvc: knowledgeSvc}
}

func (s *KnowledgeHandler) IndexKnowledge(c *gin.Context) {
	var indexDTO dto.IndexKnowledgeDTO
	if err := c.ShouldBind(&indexDTO); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&indexDTO); err != nil {
		response.Error(c, err)
		return
	}
	userID := c.GetUint64("user_id")
	id, err := s.knowledgeSvc.IndexKnowledge(c.Request.Context(), userID, &indexDTO)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"id": id})
}

func (s *KnowledgeHandler) ListKnowledge(c *gin.Context) {
	agentID, err := strconv.ParseUint(c.Query("agentId"), 10, 64)
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	userID := c.GetUint64("user_id")
	page, size := pageParams(c)
	list, err := s.knowledgeSvc.ListKnowledge(c.Request.Context(), userID, agentID, page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

func (s *KnowledgeHandler) DeleteKnowledge(c *gin.Context) {
	agentID, err := strconv.ParseUint(c.Query("agentId"), 10, 64)
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	chunkID := c.Param("id")
	if chunkID == "" {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	userID := c.GetUint64("user_id")
	if err = s.knowledgeSvc.DeleteKnowledge(c.Request.Context(), userID, agentID, chunkID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
