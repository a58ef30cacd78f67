package job

import (
	"AgentVendor/internal/pkg/consts"
	"AgentVendor/internal/pkg/redis"
	"AgentVendor/internal/repository"
	"AgentVendor/internal/service"
	"context"
	log "log/slog"
	"time"

	"github.com/google/uuid"
)

const titleRetryBatch = 50

// TitleRetryJob 给标题生成失败、仍挂着默认标题的会话补一次标题。
// 多实例部署下用分布式锁保证同一轮只有一个实例执行。
type TitleRetryJob struct {
	chatRepo repository.ChatRepo
	chatSvc  service.ChatService
}

func NewTitleRetryJob(chatRepo repository.ChatRepo, chatSvc service.ChatService) *TitleRetryJob {
	return &TitleRetryJob{
		chatRepo: chatRepo,
		chatSvc:  chatSvc,
	}
}

func (s *TitleRetryJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	lockValue := uuid.NewString()
	locked, err := redis.TryLock(ctx, consts.TitleRetryLockKey, lockValue, 5*time.Minute, 1)
	if err != nil {
		log.Error("标题补偿任务加锁失败", "err", err)
		return
	}
	if !locked {
		return
	}
	defer redis.UnLock(ctx, consts.TitleRetryLockKey, lockValue)

	chats, err := s.chatRepo.ListChatsWithDefaultTitle(ctx, time.Now().Add(-time.Hour), titleRetryBatch)
	if err != nil {
		log.Error("默认标题会话查询失败", "err", err)
		return
	}
	if len(chats) == 0 {
		return
	}

	log.Info("标题补偿任务开始", "count", len(chats))
	fixed := 0
	for _, chat := range chats {
		if err = s.chatSvc.RefreshTitle(ctx, chat); err != nil {
			log.Warn("标题补偿失败", "chatId", chat.ID, "err", err)
			continue
		}
		fixed++
	}
	log.Info("标题补偿任务结束", "fixed", fixed)
}
