package kafka

import (
	"AgentVendor/internal/model"
	"context"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

type recordingUsageRepo struct {
	rows []*model.UsageDaily
}

func (r *recordingUsageRepo) AddUsage(_ context.Context, rows []*model.UsageDaily) error {
	r.rows = append(r.rows, rows...)
	return nil
}

func (r *recordingUsageRepo) ListByUser(_ context.Context, _ uint64, _, _ string) ([]*model.UsageDaily, error) {
	return nil, nil
}

func TestUsageHandlerAggregatesEvent(t *testing.T) {
	repo := &recordingUsageRepo{}
	handler := NewUsageHandler(repo)

	event := UsageEvent{
		TransactionID:    "txn-1",
		UserID:           7,
		ModelID:          10,
		PromptTokens:     120,
		CompletionTokens: 80,
		Cost:             0.5,
		CreatedAt:        time.Date(2026, 8, 30, 23, 59, 0, 0, time.UTC),
	}
	payload, _ := json.Marshal(event)

	err := handler.logic(context.Background(), &sarama.ConsumerMessage{Value: payload})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.rows) != 1 {
		t.Fatalf("expected one aggregated row, got %d", len(repo.rows))
	}
	row := repo.rows[0]
	if row.Day != "2026-08-30" {
		t.Fatalf("expected day bucket 2026-08-30, got %q", row.Day)
	}
	if row.Requests != 1 || row.PromptTokens != 120 || row.CompletionTokens != 80 {
		t.Fatalf("unexpected row: %+v", row)
	}
}

func TestUsageHandlerSkipsBadPayload(t *testing.T) {
	repo := &recordingUsageRepo{}
	handler := NewUsageHandler(repo)

	if err := handler.logic(context.Background(), &sarama.ConsumerMessage{Value: []byte("not json")}); err != nil {
		t.Fatalf("bad payload must be skipped without error: %v", err)
	}
	if err := handler.logic(context.Background(), &sarama.ConsumerMessage{Value: []byte(`{"userId":0}`)}); err != nil {
		t.Fatalf("event without identity must be skipped without error: %v", err)
	}
	if len(repo.rows) != 0 {
		t.Fatalf("skipped events must not be aggregated, got %d rows", len(repo.rows))
	}
}
