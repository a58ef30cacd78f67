package service

import (
	"AgentVendor/internal/api/dto"
	"AgentVendor/internal/model"
	"AgentVendor/internal/pkg/consts"
	"AgentVendor/internal/pkg/es"
	"AgentVendor/internal/repository"
	"context"
	log "log/slog"

	"github.com/jinzhu/copier"
)

type AgentService interface {
	CreateAgent(ctx context.Context, creatorID uint64, dto *dto.CreateAgentDTO) (*dto.AgentDTO, error)
	GetAgent(ctx context.Context, userID uint64, id uint64) (*dto.AgentDTO, error)
	ListAgents(ctx context.Context, userID uint64, page, size int) (*dto.PageDTO, error)
	ListMyAgents(ctx context.Context, creatorID uint64) ([]*dto.AgentDTO, error)
	UpdateAgent(ctx context.Context, userID uint64, id uint64, dto *dto.UpdateAgentDTO) error
	DeleteAgent(ctx context.Context, userID uint64, id uint64) error
	ListModels(ctx context.Context) ([]*dto.ModelDTO, error)
}

type AgentServiceImpl struct {
	agentRepo     repository.AgentRepo
	modelRepo     repository.ModelRepo
	knowledgeRepo es.KnowledgeRepo
}

func NewAgentService(agentRepo repository.AgentRepo, modelRepo repository.ModelRepo, knowledgeRepo es.KnowledgeRepo) AgentService {
	return &AgentServiceImpl{
		agentRepo:     agentRepo,
		modelRepo:     modelRepo,
		knowledgeRepo: knowledgeRepo,
	}
}

func (s *AgentServiceImpl) CreateAgent(ctx context.Context, creatorID uint64, createDTO *dto.CreateAgentDTO) (*dto.AgentDTO, error) {
	modelCfg, err := s.modelRepo.GetModelById(ctx, createDTO.ModelID)
	if err != nil {
		return nil, err
	}
	if modelCfg == nil || !modelCfg.Enabled {
		return nil, ErrModelNotFound
	}

	for _, tool := range createDTO.Tools {
		if tool != consts.ToolWebSearch && tool != consts.ToolWebFetch && tool != consts.ToolKnowledgeSearch {
			return nil, ErrParamInvalid
		}
	}

	agent := &model.Agent{}
	if err = copier.Copy(agent, createDTO); err != nil {
		return nil, err
	}
	agent.CreatorID = creatorID
	if agent.Visibility == "" {
		agent.Visibility = model.AgentVisibilityPrivate
	}

	if err = s.agentRepo.CreateAgent(ctx, agent); err != nil {
		return nil, err
	}
	return s.toDTO(agent, true), nil
}

func (s *AgentServiceImpl) GetAgent(ctx context.Context, userID uint64, id uint64) (*dto.AgentDTO, error) {
	agent, err := s.agentRepo.GetAgentById(ctx, id)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, ErrAgentNotFound
	}
	if agent.Visibility == model.AgentVisibilityPrivate && agent.CreatorID != userID {
		return nil, ErrAgentForbidden
	}
	// 系统提示词只对创建者可见
	return s.toDTO(agent, agent.CreatorID == userID), nil
}

func (s *AgentServiceImpl) ListAgents(ctx context.Context, userID uint64, page, size int) (*dto.PageDTO, error) {
	agents, total, err := s.agentRepo.ListVisibleAgents(ctx, userID, page, size)
	if err != nil {
		return nil, err
	}
	list := make([]*dto.AgentDTO, 0, len(agents))
	for _, agent := range agents {
		list = append(list, s.toDTO(agent, agent.CreatorID == userID))
	}
	return &dto.PageDTO{Total: total, Page: page, Size: size, List: list}, nil
}

func (s *AgentServiceImpl) ListMyAgents(ctx context.Context, creatorID uint64) ([]*dto.AgentDTO, error) {
	agents, err := s.agentRepo.ListAgentsByCreator(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	list := make([]*dto.AgentDTO, 0, len(agents))
	for _, agent := range agents {
		list = append(list, s.toDTO(agent, true))
	}
	return list, nil
}

func (s *AgentServiceImpl) UpdateAgent(ctx context.Context, userID uint64, id uint64, updateDTO *dto.UpdateAgentDTO) error {
	agent, err := s.agentRepo.GetAgentById(ctx, id)
	if err != nil {
		return err
	}
	if agent == nil {
		return ErrAgentNotFound
	}
	if agent.CreatorID != userID {
		return ErrAgentForbidden
	}

	if updateDTO.ModelID != nil {
		modelCfg, err := s.modelRepo.GetModelById(ctx, *updateDTO.ModelID)
		if err != nil {
			return err
		}
		if modelCfg == nil || !modelCfg.Enabled {
			return ErrModelNotFound
		}
		agent.ModelID = *updateDTO.ModelID
	}
	if updateDTO.Name != nil {
		agent.Name = *updateDTO.Name
	}
	if updateDTO.Description != nil {
		agent.Description = *updateDTO.Description
	}
	if updateDTO.SystemPrompt != nil {
		agent.SystemPrompt = *updateDTO.SystemPrompt
	}
	if updateDTO.Tools != nil {
		agent.Tools = updateDTO.Tools
	}
	if updateDTO.Visibility != nil {
		agent.Visibility = *updateDTO.Visibility
	}
	if updateDTO.AvatarURL != nil {
		agent.AvatarURL = *updateDTO.AvatarURL
	}
	return s.agentRepo.UpdateAgent(ctx, agent)
}

// DeleteAgent 删除智能体，附带清理其知识库索引
func (s *AgentServiceImpl) DeleteAgent(ctx context.Context, userID uint64, id uint64) error {
	agent, err := s.agentRepo.GetAgentById(ctx, id)
	if err != nil {
		return err
	}
	if agent == nil {
		return ErrAgentNotFound
	}
	if agent.CreatorID != userID {
		return ErrAgentForbidden
	}

	if err = s.agentRepo.DeleteAgent(ctx, id); err != nil {
		return err
	}
	if err = s.knowledgeRepo.DeleteByAgent(ctx, id); err != nil {
		log.WarnContext(ctx, "知识库索引清理失败", "agentId", id, "err", err)
	}
	return nil
}

func (s *AgentServiceImpl) ListModels(ctx context.Context) ([]*dto.ModelDTO, error) {
	models, err := s.modelRepo.ListEnabledModels(ctx)
	if err != nil {
		return nil, err
	}
	list := make([]*dto.ModelDTO, 0, len(models))
	for _, m := range models {
		item := &dto.ModelDTO{}
		if err = copier.Copy(item, m); err != nil {
			return nil, err
		}
		list = append(list, item)
	}
	return list, nil
}

func (s *AgentServiceImpl) toDTO(agent *model.Agent, withPrompt bool) *dto.AgentDTO {
	item := &dto.AgentDTO{}
	_ = copier.Copy(item, agent)
	if !withPrompt {
		item.SystemPrompt = ""
	}
	return item
}
