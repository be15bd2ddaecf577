package mongostore

import (
	"context"
	"time"

	"restudied/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// UserStore
// ============================================================================

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	return insertOne(ctx, s.col(ColUsers), user)
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "_id", Value: id}})
}

// GetUserByEmail 按邮箱查找，大小写不敏感精确匹配（登录语义）
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), ciExact("email", email))
}

func (s *Store) GetUserByUsernameLower(ctx context.Context, usernameLower string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "username_lower", Value: usernameLower}})
}

func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*model.User, error) {
	if len(ids) == 0 {
		return map[string]*model.User{}, nil
	}
	users, err := findMany[model.User](ctx, s.col(ColUsers), bson.D{
		{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}},
	})
	if err != nil {
		return nil, err
	}
	m := make(map[string]*model.User, len(users))
	for _, u := range users {
		m[u.ID] = u
	}
	return m, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]*model.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[model.User](ctx, s.col(ColUsers), bson.D{}, opts)
}

// UpdateUser 部分更新，nil 字段不动
func (s *Store) UpdateUser(ctx context.Context, id string, upd *model.UserUpdate) error {
	set := bson.D{{Key: "updated_at", Value: time.Now()}}
	if upd.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *upd.Name})
	}
	if upd.Username != nil {
		set = append(set, bson.E{Key: "username", Value: *upd.Username})
	}
	if upd.UsernameLower != nil {
		set = append(set, bson.E{Key: "username_lower", Value: *upd.UsernameLower})
	}
	if upd.PasswordHash != nil {
		set = append(set, bson.E{Key: "password_hash", Value: *upd.PasswordHash})
	}
	if upd.ProfileImage != nil {
		set = append(set, bson.E{Key: "profile_image", Value: *upd.ProfileImage})
	}
	return updateFields(ctx, s.col(ColUsers), id, set)
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return deleteByID(ctx, s.col(ColUsers), id)
}
