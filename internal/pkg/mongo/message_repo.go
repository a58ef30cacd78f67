package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MessageRepo interface {
	SaveMessage(ctx context.Context, msg *Message) error
	GetHistory(ctx context.Context, chatID string, beforeID string, pageSize int) ([]*Message, error)
	GetMessageById(ctx context.Context, id string) (*Message, error)
	DeleteByChat(ctx context.Context, chatID string) error
}

type messageRepoImpl struct {
	col *mongo.Collection
}

func NewMessageRepo(db *mongo.Database) MessageRepo {
	return &messageRepoImpl{
		col: db.Collection("messages"),
	}
}

// SaveMessage 以消息 ID 为键幂等落库，重复保存不产生第二条
func (s *messageRepoImpl) SaveMessage(ctx context.Context, msg *Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	_, err := s.col.ReplaceOne(ctx,
		bson.M{"_id": msg.ID},
		msg,
		options.Replace().SetUpsert(true),
	)
	return err
}

// GetHistory 按时间倒序翻页，beforeID 为当前页最旧一条的 ID，第一页传空
func (s *messageRepoImpl) GetHistory(ctx context.Context, chatID string, beforeID string, pageSize int) ([]*Message, error) {
	filter := bson.M{"chat_id": chatID}

	if beforeID != "" {
		var anchor Message
		if err := s.col.FindOne(ctx, bson.M{"_id": beforeID}).Decode(&anchor); err == nil {
			filter["created_at"] = bson.M{"$lt": anchor.CreatedAt}
		}
	}

	findOptions := options.Find().
		SetSort(bson.D{
			{Key: "created_at", Value: -1},
			{Key: "_id", Value: -1},
		}).
		SetLimit(int64(pageSize))

	cursor, err := s.col.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	messages := make([]*Message, 0)
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}

	// 反转消息列表，保证消息从旧到新排列
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// GetMessageById 精确查询
func (s *messageRepoImpl) GetMessageById(ctx context.Context, id string) (*Message, error) {
	var msg Message
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// DeleteByChat 删除会话时清空消息明细
func (s *messageRepoImpl) DeleteByChat(ctx context.Context, chatID string) error {
	_, err := s.col.DeleteMany(ctx, bson.M{"chat_id": chatID})
	return err
}
