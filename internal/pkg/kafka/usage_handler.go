package kafka

import (
	"AgentVendor/internal/model"
	"AgentVendor/internal/repository"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// UsageHandler 消费用量事件并累加到日聚合表
type UsageHandler struct {
	usageDailyRepo repository.UsageDailyRepo
}

func NewUsageHandler(usageDailyRepo repository.UsageDailyRepo) *UsageHandler {
	return &UsageHandler{usageDailyRepo: usageDailyRepo}
}

func (s *UsageHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("usage consumer setup")
	return nil
}

func (s *UsageHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("usage consumer cleanup")
	return nil
}

func (s *UsageHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	log.Info("topic-usage consume claim")
	err := pullMessageBatch(session, claim, s.logic)
	if err != nil {
		log.Error("topic-usage process batch error", "err", err)
		return err
	}
	log.Info("topic-usage consume claim end")
	return nil
}

func (s *UsageHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var event UsageEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		// 坏消息直接跳过，重试也无法修复
		log.Error("unmarshal usage event error", "err", errors.Wrap(err, "bad usage payload"), "key", string(msg.Key))
		return nil
	}

	if event.UserID == 0 || event.TransactionID == "" {
		log.Warn("usage event missing identity", "key", string(msg.Key))
		return nil
	}

	row := &model.UsageDaily{
		UserID:           event.UserID,
		ModelID:          event.ModelID,
		Day:              event.Day(),
		Requests:         1,
		PromptTokens:     event.PromptTokens,
		CompletionTokens: event.CompletionTokens,
		Cost:             event.Cost,
	}

	return s.usageDailyRepo.AddUsage(ctx, []*model.UsageDaily{row})
}
