package kafka

import (
	"AgentVendor/internal/api/config"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

// UsageProducer 用量事件生产者
type UsageProducer interface {
	PublishUsage(ctx context.Context, event *UsageEvent) error
	Close() error
}

type usageProducerImpl struct {
	producer sarama.SyncProducer
	topic    string
}

func NewUsageProducer(cfg *config.Config) (UsageProducer, error) {
	saramaCfg := newSaramaConfig(cfg.Kafka)

	producer, err := sarama.NewSyncProducer(cfg.Kafka.Brokers, saramaCfg)
	if err != nil {
		return nil, err
	}

	return &usageProducerImpl{
		producer: producer,
		topic:    cfg.Kafka.UsageTopic,
	}, nil
}

// PublishUsage 以流水号为消息键投递，聚合是纯加法，无需分区有序
func (s *usageProducerImpl) PublishUsage(ctx context.Context, event *UsageEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(event.TransactionID),
		Value: sarama.ByteEncoder(payload),
	}

	partition, offset, err := s.producer.SendMessage(msg)
	if err != nil {
		log.ErrorContext(ctx, "用量事件投递失败", "txn", event.TransactionID, "err", err)
		return err
	}

	log.InfoContext(ctx, "用量事件已投递", "txn", event.TransactionID, "partition", partition, "offset", offset)
	return nil
}

func (s *usageProducerImpl) Close() error {
	return s.producer.Close()
}
