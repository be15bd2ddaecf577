package mongostore

import (
	"context"

	"restudied/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// MessageStore
// ============================================================================

func (s *Store) CreateMessage(ctx context.Context, msg *model.Message) error {
	return insertOne(ctx, s.col(ColMessages), msg)
}

func (s *Store) GetMessage(ctx context.Context, id string) (*model.Message, error) {
	return findOne[model.Message](ctx, s.col(ColMessages), bson.D{{Key: "_id", Value: id}})
}

// ListMessagesByUser 某用户收发的全部消息，最新的在前
func (s *Store) ListMessagesByUser(ctx context.Context, userID string) ([]*model.Message, error) {
	filter := bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "sender_id", Value: userID}},
		bson.D{{Key: "receiver_id", Value: userID}},
	}}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[model.Message](ctx, s.col(ColMessages), filter, opts)
}

// ListMessagesByItem 某物品下的消息，按时间正序（会话顺序）
func (s *Store) ListMessagesByItem(ctx context.Context, itemID string) ([]*model.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	return findMany[model.Message](ctx, s.col(ColMessages), bson.D{{Key: "item_id", Value: itemID}}, opts)
}

func (s *Store) DeleteMessage(ctx context.Context, id string) error {
	return deleteByID(ctx, s.col(ColMessages), id)
}
