package repository

import (
	"AgentVendor/internal/model"
	"context"

	"gorm.io/gorm"
)

type UsageDailyRepo interface {
	AddUsage(ctx context.Context, rows []*model.UsageDaily) error
	ListByUser(ctx context.Context, userID uint64, fromDay, toDay string) ([]*model.UsageDaily, error)
}

type usageDailyRepoImpl struct {
	db *gorm.DB
}

func NewUsageDailyRepo(db *gorm.DB) UsageDailyRepo {
	return &usageDailyRepoImpl{db: db}
}

// AddUsage 批量累加：同 (用户,模型,日) 已有记录时在原值上加
func (s *usageDailyRepoImpl) AddUsage(ctx context.Context, rows []*model.UsageDaily) error {
	if len(rows) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, row := range rows {
			result := tx.Model(&model.UsageDaily{}).
				Where("user_id = ? AND model_id = ? AND day = ?", row.UserID, row.ModelID, row.Day).
				Updates(map[string]interface{}{
					"requests":          gorm.Expr("requests + ?", row.Requests),
					"prompt_tokens":     gorm.Expr("prompt_tokens + ?", row.PromptTokens),
					"completion_tokens": gorm.Expr("completion_tokens + ?", row.CompletionTokens),
					"cost":              gorm.Expr("cost + ?", row.Cost),
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				if err := tx.Create(row).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (s *usageDailyRepoImpl) ListByUser(ctx context.Context, userID uint64, fromDay, toDay string) ([]*model.UsageDaily, error) {
	rows := make([]*model.UsageDaily, 0)
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND day >= ? AND day <= ?", userID, fromDay, toDay).
		Order("day ASC").
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	return rows, nil
}
