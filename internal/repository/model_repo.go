package repository

import (
	"AgentVendor/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

type ModelRepo interface {
	GetModelById(ctx context.Context, id uint64) (*model.ModelConfig, error)
	GetModelByName(ctx context.Context, name string) (*model.ModelConfig, error)
	ListEnabledModels(ctx context.Context) ([]*model.ModelConfig, error)
	CreateModel(ctx context.Context, mc *model.ModelConfig) error
	UpdateModel(ctx context.Context, mc *model.ModelConfig) error
}

type modelRepoImpl struct {
	db *gorm.DB
}

func NewModelRepo(db *gorm.DB) ModelRepo {
	return &modelRepoImpl{db: db}
}

func (s *modelRepoImpl) GetModelById(ctx context.Context, id uint64) (*model.ModelConfig, error) {
	mc := &model.ModelConfig{}
	result := s.db.WithContext(ctx).First(mc, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return mc, nil
}

func (s *modelRepoImpl) GetModelByName(ctx context.Context, name string) (*model.ModelConfig, error) {
	mc := &model.ModelConfig{}
	result := s.db.WithContext(ctx).Where("name = ?", name).First(mc)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return mc, nil
}

func (s *modelRepoImpl) ListEnabledModels(ctx context.Context) ([]*model.ModelConfig, error) {
	models := make([]*model.ModelConfig, 0)
	result := s.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("id ASC").
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}
	return models, nil
}

func (s *modelRepoImpl) CreateModel(ctx context.Context, mc *model.ModelConfig) error {
	return s.db.WithContext(ctx).Create(mc).Error
}

func (s *modelRepoImpl) UpdateModel(ctx context.Context, mc *model.ModelConfig) error {
	return s.db.WithContext(ctx).Model(&model.ModelConfig{}).Where("id = ?", mc.ID).Updates(mc).Error
}
