package repository

import (
	"AgentVendor/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

type AgentRepo interface {
	CreateAgent(ctx context.Context, agent *model.Agent) error
	GetAgentById(ctx context.Context, id uint64) (*model.Agent, error)
	GetAgentByIds(ctx context.Context, ids []uint64) ([]*model.Agent, error)
	ListVisibleAgents(ctx context.Context, userID uint64, page, size int) ([]*model.Agent, int64, error)
	ListAgentsByCreator(ctx context.Context, creatorID uint64) ([]*model.Agent, error)
	UpdateAgent(ctx context.Context, agent *model.Agent) error
	DeleteAgent(ctx context.Context, id uint64) error
}

type agentRepoImpl struct {
	db *gorm.DB
}

func NewAgentRepo(db *gorm.DB) AgentRepo {
	return &agentRepoImpl{db: db}
}

func (s *agentRepoImpl) CreateAgent(ctx context.Context, agent *model.Agent) error {
	return s.db.WithContext(ctx).Create(agent).Error
}

func (s *agentRepoImpl) GetAgentById(ctx context.Context, id uint64) (*model.Agent, error) {
	agent := &model.Agent{}
	result := s.db.WithContext(ctx).First(agent, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return agent, nil
}

func (s *agentRepoImpl) GetAgentByIds(ctx context.Context, ids []uint64) ([]*model.Agent, error) {
	agents := make([]*model.Agent, 0)
	result := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&agents)
	if result.Error != nil {
		return nil, result.Error
	}
	return agents, nil
}

// ListVisibleAgents 市场列表：公开的 + 自己创建的
func (s *agentRepoImpl) ListVisibleAgents(ctx context.Context, userID uint64, page, size int) ([]*model.Agent, int64, error) {
	agents := make([]*model.Agent, 0)
	query := s.db.WithContext(ctx).Model(&model.Agent{}).
		Where("visibility = ? OR creator_id = ?", "public", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	result := query.
		Order("updated_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&agents)
	if result.Error != nil {
		return nil, 0, result.Error
	}
	return agents, total, nil
}

func (s *agentRepoImpl) ListAgentsByCreator(ctx context.Context, creatorID uint64) ([]*model.Agent, error) {
	agents := make([]*model.Agent, 0)
	result := s.db.WithContext(ctx).
		Where("creator_id = ?", creatorID).
		Order("updated_at DESC").
		Find(&agents)
	if result.Error != nil {
		return nil, result.Error
	}
	return agents, nil
}

func (s *agentRepoImpl) UpdateAgent(ctx context.Context, agent *model.Agent) error {
	return s.db.WithContext(ctx).Model(&model.Agent{}).Where("id = ?", agent.ID).Updates(agent).Error
}

func (s *agentRepoImpl) DeleteAgent(ctx context.Context, id uint64) error {
	return s.db.WithContext(ctx).Delete(&model.Agent{}, id).Error
}
