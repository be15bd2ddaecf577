package mongostore

import (
	"context"
	"regexp"
	"time"

	"restudied/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// ItemStore
// ============================================================================

func (s *Store) CreateItem(ctx context.Context, item *model.Item) error {
	return insertOne(ctx, s.col(ColItems), item)
}

func (s *Store) GetItem(ctx context.Context, id string) (*model.Item, error) {
	return findOne[model.Item](ctx, s.col(ColItems), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) GetItemsByIDs(ctx context.Context, ids []string) (map[string]*model.Item, error) {
	if len(ids) == 0 {
		return map[string]*model.Item{}, nil
	}
	items, err := findMany[model.Item](ctx, s.col(ColItems), bson.D{
		{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}},
	})
	if err != nil {
		return nil, err
	}
	m := make(map[string]*model.Item, len(items))
	for _, i := range items {
		m[i.ID] = i
	}
	return m, nil
}

func (s *Store) ListItems(ctx context.Context, title, category, location, ownerID string) ([]*model.Item, error) {
	filter := bson.D{}
	if title != "" {
		// 标题子串匹配，大小写不敏感
		filter = append(filter, bson.E{Key: "title", Value: bson.D{
			{Key: "$regex", Value: regexp.QuoteMeta(title)},
			{Key: "$options", Value: "i"},
		}})
	}
	if category != "" {
		filter = append(filter, bson.E{Key: "categories", Value: category})
	}
	if location != "" {
		filter = append(filter, bson.E{Key: "location", Value: location})
	}
	if ownerID != "" {
		filter = append(filter, bson.E{Key: "owner_id", Value: ownerID})
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[model.Item](ctx, s.col(ColItems), filter, opts)
}

// UpdateItem 整体覆盖（调用方已合并未修改字段）
func (s *Store) UpdateItem(ctx context.Context, item *model.Item) error {
	item.UpdatedAt = time.Now()
	return updateFields(ctx, s.col(ColItems), item.ID, bson.D{
		{Key: "title", Value: item.Title},
		{Key: "description", Value: item.Description},
		{Key: "location", Value: item.Location},
		{Key: "categories", Value: item.Categories},
		{Key: "image", Value: item.Image},
		{Key: "condition", Value: item.Condition},
		{Key: "language", Value: item.Language},
		{Key: "updated_at", Value: item.UpdatedAt},
	})
}

func (s *Store) DeleteItem(ctx context.Context, id string) error {
	return deleteByID(ctx, s.col(ColItems), id)
}
