package repository

import (
	"AgentVendor/internal/model"
	"AgentVendor/internal/pkg/consts"
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	err = db.AutoMigrate(
		&model.User{},
		&model.UserRole{},
		&model.Role{},
		&model.Agent{},
		&model.Chat{},
		&model.ModelConfig{},
		&model.UsageTransaction{},
		&model.UsageDaily{},
	)
	if err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return db
}

func TestCreateChatIfAbsentIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewChatRepo(db)
	ctx := context.Background()

	chat := &model.Chat{ID: "chat-1", UserID: 1, Title: consts.DefaultChatTitle}
	created, err := repo.CreateChatIfAbsent(ctx, chat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatalf("first create must report created=true")
	}

	again := &model.Chat{ID: "chat-1", UserID: 1, Title: "另一个标题"}
	created, err = repo.CreateChatIfAbsent(ctx, again)
	if err != nil {
		t.Fatalf("duplicate create must not error: %v", err)
	}
	if created {
		t.Fatalf("second create must report created=false")
	}

	stored, err := repo.GetChatById(ctx, "chat-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Title != consts.DefaultChatTitle {
		t.Fatalf("original row must survive duplicate create, got title %q", stored.Title)
	}
}

func TestGetChatByIdMissing(t *testing.T) {
	db := newTestDB(t)
	repo := NewChatRepo(db)

	chat, err := repo.GetChatById(context.Background(), "missing")
	if err != nil {
		t.Fatalf("missing chat must not error: %v", err)
	}
	if chat != nil {
		t.Fatalf("missing chat must return nil, got %+v", chat)
	}
}

func TestListChatsWithDefaultTitle(t *testing.T) {
	db := newTestDB(t)
	repo := NewChatRepo(db)
	ctx := context.Background()

	_, _ = repo.CreateChatIfAbsent(ctx, &model.Chat{ID: "c1", UserID: 1, Title: consts.DefaultChatTitle})
	_, _ = repo.CreateChatIfAbsent(ctx, &model.Chat{ID: "c2", UserID: 1, Title: "已命名"})
	_, _ = repo.CreateChatIfAbsent(ctx, &model.Chat{ID: "c3", UserID: 2, Title: consts.DefaultChatTitle})

	chats, err := repo.ListChatsWithDefaultTitle(ctx, time.Now().Add(time.Hour), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chats) != 2 {
		t.Fatalf("expected 2 chats with default title, got %d", len(chats))
	}

	// 截止时间之后创建的不应被扫出
	chats, err = repo.ListChatsWithDefaultTitle(ctx, time.Now().Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chats) != 0 {
		t.Fatalf("fresh chats must be skipped, got %d", len(chats))
	}
}

func TestRecordUsageDecrementsBalance(t *testing.T) {
	db := newTestDB(t)
	repo := NewTransactionRepo(db)
	ctx := context.Background()

	user := &model.User{ID: 1, Balance: 10}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	txn := &model.UsageTransaction{
		ID:     "txn-1",
		UserID: 1,
		Type:   consts.TransactionUsage,
		Cost:   2.5,
	}
	if err := repo.RecordUsage(ctx, txn); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var stored model.User
	if err := db.First(&stored, 1).Error; err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if stored.Balance != 7.5 {
		t.Fatalf("expected balance 7.5 after usage, got %f", stored.Balance)
	}
}

func TestRecordSelfUsageKeepsBalance(t *testing.T) {
	db := newTestDB(t)
	repo := NewTransactionRepo(db)
	ctx := context.Background()

	user := &model.User{ID: 1, Balance: 10}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	txn := &model.UsageTransaction{
		ID:     "txn-self",
		UserID: 1,
		Type:   consts.TransactionSelfUsage,
		Cost:   2.5,
	}
	if err := repo.RecordUsage(ctx, txn); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var stored model.User
	if err := db.First(&stored, 1).Error; err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if stored.Balance != 10 {
		t.Fatalf("self usage must not touch balance, got %f", stored.Balance)
	}

	var count int64
	db.Model(&model.UsageTransaction{}).Count(&count)
	if count != 1 {
		t.Fatalf("transaction row must still be recorded, got %d", count)
	}
}

func TestAddUsageAccumulates(t *testing.T) {
	db := newTestDB(t)
	repo := NewUsageDailyRepo(db)
	ctx := context.Background()

	first := []*model.UsageDaily{{UserID: 1, ModelID: 10, Day: "2026-08-30", Requests: 1, PromptTokens: 100, CompletionTokens: 50, Cost: 0.1}}
	if err := repo.AddUsage(ctx, first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := []*model.UsageDaily{{UserID: 1, ModelID: 10, Day: "2026-08-30", Requests: 2, PromptTokens: 200, CompletionTokens: 100, Cost: 0.2}}
	if err := repo.AddUsage(ctx, second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows, err := repo.ListByUser(ctx, 1, "2026-08-30", "2026-08-30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("same user/model/day must stay one row, got %d", len(rows))
	}
	row := rows[0]
	if row.Requests != 3 || row.PromptTokens != 300 || row.CompletionTokens != 150 {
		t.Fatalf("counters must accumulate, got %+v", row)
	}
}

func TestAgentRepoVisibility(t *testing.T) {
	db := newTestDB(t)
	repo := NewAgentRepo(db)
	ctx := context.Background()

	seed := []*model.Agent{
		{CreatorID: 1, Name: "公开助手", Handle: "pub", ModelID: 10, Visibility: model.AgentVisibilityPublic},
		{CreatorID: 1, Name: "私有助手", Handle: "priv1", ModelID: 10, Visibility: model.AgentVisibilityPrivate},
		{CreatorID: 2, Name: "他人私有", Handle: "priv2", ModelID: 10, Visibility: model.AgentVisibilityPrivate},
	}
	for _, agent := range seed {
		if err := repo.CreateAgent(ctx, agent); err != nil {
			t.Fatalf("failed to seed agent: %v", err)
		}
	}

	agents, total, err := repo.ListVisibleAgents(ctx, 1, 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 || len(agents) != 2 {
		t.Fatalf("user 1 must see public + own private, got %d", len(agents))
	}
	for _, agent := range agents {
		if agent.Visibility == model.AgentVisibilityPrivate && agent.CreatorID != 1 {
			t.Fatalf("foreign private agent leaked: %+v", agent)
		}
	}
}
