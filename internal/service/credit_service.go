package service

import (
	"AgentVendor/internal/api/dto"
	"AgentVendor/internal/model"
	"AgentVendor/internal/pkg/kafka"
	"AgentVendor/internal/repository"
	"context"
	log "log/slog"

	"github.com/jinzhu/copier"
)

// CreditService 积分账本：余额查询与用量入账
type CreditService interface {
	HasBalance(ctx context.Context, userID uint64) (bool, error)
	GetBalance(ctx context.Context, userID uint64) (*dto.BalanceDTO, error)
	RecordUsage(ctx context.Context, txn *model.UsageTransaction) error
	ListTransactions(ctx context.Context, userID uint64, page, size int) (*dto.PageDTO, error)
	ListUsageDaily(ctx context.Context, userID uint64, fromDay, toDay string) ([]*dto.UsageDailyDTO, error)
}

type CreditServiceImpl struct {
	userRepo        repository.UserRepo
	transactionRepo repository.TransactionRepo
	usageDailyRepo  repository.UsageDailyRepo
	usageProducer   kafka.UsageProducer
}

func NewCreditService(
	userRepo repository.UserRepo,
	transactionRepo repository.TransactionRepo,
	usageDailyRepo repository.UsageDailyRepo,
	usageProducer kafka.UsageProducer,
) CreditService {
	return &CreditServiceImpl{
		userRepo:        userRepo,
		transactionRepo: transactionRepo,
		usageDailyRepo:  usageDailyRepo,
		usageProducer:   usageProducer,
	}
}

func (s *CreditServiceImpl) HasBalance(ctx context.Context, userID uint64) (bool, error) {
	balance, err := s.userRepo.GetBalance(ctx, userID)
	if err != nil {
		return false, err
	}
	return balance > 0, nil
}

func (s *CreditServiceImpl) GetBalance(ctx context.Context, userID uint64) (*dto.BalanceDTO, error) {
	balance, err := s.userRepo.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.BalanceDTO{Balance: balance}, nil
}

// RecordUsage 同步落库流水，随后投递用量事件供离线聚合。
// 事件投递失败只记日志，不影响已入账的流水。
func (s *CreditServiceImpl) RecordUsage(ctx context.Context, txn *model.UsageTransaction) error {
	if err := s.transactionRepo.RecordUsage(ctx, txn); err != nil {
		return err
	}

	if s.usageProducer != nil {
		event := &kafka.UsageEvent{
			TransactionID:    txn.ID,
			UserID:           txn.UserID,
			AgentID:          txn.AgentID,
			ModelID:          txn.ModelID,
			ChatID:           txn.ChatID,
			Type:             txn.Type,
			PromptTokens:     txn.PromptTokens,
			CompletionTokens: txn.CompletionTokens,
			Cost:             txn.Cost,
			CreatedAt:        txn.CreatedAt,
		}
		if err := s.usageProducer.PublishUsage(ctx, event); err != nil {
			log.ErrorContext(ctx, "用量事件投递失败", "txn", txn.ID, "err", err)
		}
	}
	return nil
}

func (s *CreditServiceImpl) ListTransactions(ctx context.Context, userID uint64, page, size int) (*dto.PageDTO, error) {
	txns, total, err := s.transactionRepo.ListTransactionsByUser(ctx, userID, page, size)
	if err != nil {
		return nil, err
	}

	list := make([]*dto.TransactionDTO, 0, len(txns))
	for _, txn := range txns {
		item := &dto.TransactionDTO{}
		if err = copier.Copy(item, txn); err != nil {
			return nil, err
		}
		list = append(list, item)
	}

	return &dto.PageDTO{Total: total, Page: page, Size: size, List: list}, nil
}

func (s *CreditServiceImpl) ListUsageDaily(ctx context.Context, userID uint64, fromDay, toDay string) ([]*dto.UsageDailyDTO, error) {
	rows, err := s.usageDailyRepo.ListByUser(ctx, userID, fromDay, toDay)
	if err != nil {
		return nil, err
	}

	list := make([]*dto.UsageDailyDTO, 0, len(rows))
	for _, row := range rows {
		item := &dto.UsageDailyDTO{}
		if err = copier.Copy(item, row); err != nil {
			return nil, err
		}
		list = append(list, item)
	}
	return list, nil
}
