package repository

import (
	"AgentVendor/internal/model"
	"AgentVendor/internal/pkg/consts"
	"context"

	"gorm.io/gorm"
)

type TransactionRepo interface {
	RecordUsage(ctx context.Context, txn *model.UsageTransaction) error
	ListTransactionsByUser(ctx context.Context, userID uint64, page, size int) ([]*model.UsageTransaction, int64, error)
}

type transactionRepoImpl struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepo {
	return &transactionRepoImpl{db: db}
}

// RecordUsage 入账一条计费流水并同事务扣减余额，自有智能体消费不扣
func (s *transactionRepoImpl) RecordUsage(ctx context.Context, txn *model.UsageTransaction) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(txn).Error; err != nil {
			return err
		}
		if txn.Type == consts.TransactionSelfUsage || txn.Cost <= 0 {
			return nil
		}
		return tx.Model(&model.User{}).
			Where("id = ?", txn.UserID).
			Update("balance", gorm.Expr("balance - ?", txn.Cost)).Error
	})
}

func (s *transactionRepoImpl) ListTransactionsByUser(ctx context.Context, userID uint64, page, size int) ([]*model.UsageTransaction, int64, error) {
	txns := make([]*model.UsageTransaction, 0)
	query := s.db.WithContext(ctx).Model(&model.UsageTransaction{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	result := query.
		Order("created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&txns)
	if result.Error != nil {
		return nil, 0, result.Error
	}
	return txns, total, nil
}
