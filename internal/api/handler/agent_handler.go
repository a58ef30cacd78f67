package handler

import (
	"AgentVendor/internal/api/dto"
	"AgentVendor/internal/pkg/response"
	"AgentVendor/internal/pkg/util"
	"AgentVendor/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

type AgentHandler struct {
	agentSvc service.AgentService
}

func NewAgentHandler(agentSvc service.AgentService) *AgentHandler {
	return &AgentHandler{agentSvc: agentSvc}
}

func (s *AgentHandler) CreateAgent(c *gin.Context) {
	var createDTO dto.CreateAgentDTO
	if err := c.ShouldBind(&createDTO); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&createDTO); err != nil {
		response.Error(c, err)
		return
	}
	userID := c.GetUint64("user_id")
	agentDTO, err := s.agentSvc.CreateAgent(c.Request.Context(), userID, &createDTO)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, agentDTO)
}

func (s *AgentHandler) GetAgent(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	userID := c.GetUint64("user_id")
	agentDTO, err := s.agentSvc.GetAgent(c.Request.Context(), userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, agentDTO)
}

// ListAgents 市集列表：公开的加上自己创建的
func (s *AgentHandler) ListAgents(c *gin.Context) {
	userID := c.GetUint64("user_id")
	page, size := pageParams(c)
	result, err := s.agentSvc.ListAgents(c.Request.Context(), userID, page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (s *AgentHandler) ListMyAgents(c *gin.Context) {
	userID := c.GetUint64("user_id")
	list, err := s.agentSvc.ListMyAgents(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

func (s *AgentHandler) UpdateAgent(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	var updateDTO dto.UpdateAgentDTO
	if err = c.ShouldBind(&updateDTO); err != nil {
		response.Error(c, err)
		return
	}
	if err = util.ValidateDTO(&updateDTO); err != nil {
		response.Error(c, err)
		return
	}
	userID := c.GetUint64("user_id")
	if err = s.agentSvc.UpdateAgent(c.Request.Context(), userID, id, &updateDTO); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *AgentHandler) DeleteAgent(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	userID := c.GetUint64("user_id")
	if err = s.agentSvc.DeleteAgent(c.Request.Context(), userID, id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// ListModels 可用模型目录
func (s *AgentHandler) ListModels(c *gin.Context) {
	list, err := s.agentSvc.ListModels(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}
