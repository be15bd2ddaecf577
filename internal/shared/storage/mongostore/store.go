// Package mongostore 实现基于 MongoDB 的 storage.Store
//
// 使用 mongo-go-driver v2，通过 bson tag 实现 model 结构体的序列化/反序列化。
// 所有 Collection 名称和索引在 ensureIndexes 中统一管理。
package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection 名称常量
const (
	ColUsers    = "users"
	ColItems    = "items"
	ColMessages = "messages"
	ColReviews  = "reviews"
	ColRequests = "requests"
	ColReports  = "reports"
)

// Store 实现 storage.Store 接口的 MongoDB 驱动
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewStore 创建 MongoDB 存储实例
//
// uri: MongoDB 连接 URI，如 "mongodb://localhost:27017"
// dbName: 数据库名称，如 "restudied"
func NewStore(uri, dbName string) (*Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongostore: connect failed: %w", err)
	}

	// 验证连接
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongostore: ping failed: %w", err)
	}

	db := client.Database(dbName)
	s := &Store{client: client, db: db}

	// 创建索引；唯一索引是 email / username_lower / 评价对唯一性的真正保证，
	// 失败时必须中断启动而不是降级运行
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("mongostore: ensure indexes failed: %w", err)
	}

	return s, nil
}

// Close 关闭 MongoDB 连接
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// col 获取指定 Collection
func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// ensureIndexes 创建所有必要的索引
func (s *Store) ensureIndexes(ctx context.Context) error {
	type idx struct {
		col    string
		keys   bson.D
		unique bool
	}

	indexes := []idx{
		// users：邮箱和归一化用户名全局唯一
		{ColUsers, bson.D{{Key: "email", Value: 1}}, true},
		{ColUsers, bson.D{{Key: "username_lower", Value: 1}}, true},

		// items
		{ColItems, bson.D{{Key: "owner_id", Value: 1}}, false},
		{ColItems, bson.D{{Key: "categories", Value: 1}}, false},
		{ColItems, bson.D{{Key: "location", Value: 1}}, false},
		{ColItems, bson.D{{Key: "created_at", Value: -1}}, false},

		// messages
		{ColMessages, bson.D{{Key: "item_id", Value: 1}, {Key: "created_at", Value: 1}}, false},
		{ColMessages, bson.D{{Key: "sender_id", Value: 1}}, false},
		{ColMessages, bson.D{{Key: "receiver_id", Value: 1}}, false},

		// reviews：同一 reviewer 对同一 reviewee 只能评价一次
		{ColReviews, bson.D{{Key: "reviewer_id", Value: 1}, {Key: "reviewee_id", Value: 1}}, true},
		{ColReviews, bson.D{{Key: "reviewee_id", Value: 1}, {Key: "created_at", Value: -1}}, false},

		// requests
		{ColRequests, bson.D{{Key: "requestee_id", Value: 1}}, false},
		{ColRequests, bson.D{{Key: "requester_id", Value: 1}}, false},
		{ColRequests, bson.D{{Key: "status", Value: 1}}, false},

		// reports
		{ColReports, bson.D{{Key: "reported_user_id", Value: 1}}, false},
		{ColReports, bson.D{{Key: "item_id", Value: 1}}, false},
	}

	for _, i := range indexes {
		model := mongo.IndexModel{Keys: i.keys}
		if i.unique {
			model.Options = options.Index().SetUnique(true)
		}
		if _, err := s.col(i.col).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create index on %s: %w", i.col, err)
		}
	}

	return nil
}
