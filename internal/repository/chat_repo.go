package repository

import (
	"AgentVendor/internal/model"
	"AgentVendor/internal/pkg/consts"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChatRepo interface {
	CreateChatIfAbsent(ctx context.Context, chat *model.Chat) (created bool, err error)
	GetChatById(ctx context.Context, id string) (*model.Chat, error)
	ListChatsByUser(ctx context.Context, userID uint64, page, size int) ([]*model.Chat, int64, error)
	UpdateTitle(ctx context.Context, id string, title string) error
	TouchChat(ctx context.Context, id string) error
	DeleteChat(ctx context.Context, id string) error
	ListChatsWithDefaultTitle(ctx context.Context, olderThan time.Time, limit int) ([]*model.Chat, error)
}

type chatRepoImpl struct {
	db *gorm.DB
}

func NewChatRepo(db *gorm.DB) ChatRepo {
	return &chatRepoImpl{db: db}
}

// CreateChatIfAbsent 幂等创建：主键冲突视为已存在，不报错
func (s *chatRepoImpl) CreateChatIfAbsent(ctx context.Context, chat *model.Chat) (bool, error) {
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(chat)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *chatRepoImpl) GetChatById(ctx context.Context, id string) (*model.Chat, error) {
	chat := &model.Chat{}
	result := s.db.WithContext(ctx).Where("id = ?", id).First(chat)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return chat, nil
}

func (s *chatRepoImpl) ListChatsByUser(ctx context.Context, userID uint64, page, size int) ([]*model.Chat, int64, error) {
	chats := make([]*model.Chat, 0)
	query := s.db.WithContext(ctx).Model(&model.Chat{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	result := query.
		Order("updated_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&chats)
	if result.Error != nil {
		return nil, 0, result.Error
	}
	return chats, total, nil
}

func (s *chatRepoImpl) UpdateTitle(ctx context.Context, id string, title string) error {
	return s.db.WithContext(ctx).Model(&model.Chat{}).
		Where("id = ?", id).
		Update("title", title).Error
}

// TouchChat 刷新会话活跃时间，用于列表排序
func (s *chatRepoImpl) TouchChat(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Model(&model.Chat{}).
		Where("id = ?", id).
		Update("updated_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
}

func (s *chatRepoImpl) DeleteChat(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Chat{}).Error
}

// ListChatsWithDefaultTitle 查出标题仍为默认值的存量会话，供定时任务补偿命名。
// 只扫 olderThan 之前创建的，避开刚建会话的在途命名任务
func (s *chatRepoImpl) ListChatsWithDefaultTitle(ctx context.Context, olderThan time.Time, limit int) ([]*model.Chat, error) {
	chats := make([]*model.Chat, 0)
	result := s.db.WithContext(ctx).
		Where("title = ? AND created_at < ?", consts.DefaultChatTitle, olderThan).
		Order("created_at ASC").
		Limit(limit).
		Find(&chats)
	if result.Error != nil {
		return nil, result.Error
	}
	return chats, nil
}
