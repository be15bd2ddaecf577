// Package storage 定义持久化存储层抽象接口
//
// 设计原则：依赖倒置 (DIP)
//   - 调用方只依赖接口，不知道具体实现
//   - 具体实现在子包 mongostore/ 中
//   - 初始化时通过依赖注入传入实现
package storage

import (
	"context"

	"restudied/internal/shared/model"
)

// Store 持久化存储接口
//
// 各 apiserver 子包只声明自己用到的子集接口（consumer interface），
// 本接口用于 main 装配和 mongostore 的编译期检查。
type Store interface {
	UserStore
	ItemStore
	MessageStore
	ReviewStore
	RequestStore
	ReportStore

	Close() error
}

// UserStore 用户存储
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	// GetUserByEmail 按邮箱查找，大小写不敏感精确匹配；不存在时返回 (nil, nil)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// GetUserByUsernameLower 按归一化用户名查找；不存在时返回 (nil, nil)
	GetUserByUsernameLower(ctx context.Context, usernameLower string) (*model.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
	UpdateUser(ctx context.Context, id string, upd *model.UserUpdate) error
	DeleteUser(ctx context.Context, id string) error
}

// ItemStore 物品存储
type ItemStore interface {
	CreateItem(ctx context.Context, item *model.Item) error
	GetItem(ctx context.Context, id string) (*model.Item, error)
	GetItemsByIDs(ctx context.Context, ids []string) (map[string]*model.Item, error)
	// ListItems 过滤条件均可为空：title 为大小写不敏感子串匹配，
	// category 为分类精确匹配，location 为地点精确匹配，ownerID 为属主过滤
	ListItems(ctx context.Context, title, category, location, ownerID string) ([]*model.Item, error)
	UpdateItem(ctx context.Context, item *model.Item) error
	DeleteItem(ctx context.Context, id string) error
}

// MessageStore 私信存储
type MessageStore interface {
	CreateMessage(ctx context.Context, msg *model.Message) error
	GetMessage(ctx context.Context, id string) (*model.Message, error)
	// ListMessagesByUser 某用户收发的全部消息，按创建时间倒序
	ListMessagesByUser(ctx context.Context, userID string) ([]*model.Message, error)
	// ListMessagesByItem 某物品下的全部消息，按创建时间正序
	ListMessagesByItem(ctx context.Context, itemID string) ([]*model.Message, error)
	DeleteMessage(ctx context.Context, id string) error
}

// ReviewStore 评价存储
type ReviewStore interface {
	CreateReview(ctx context.Context, review *model.Review) error
	GetReview(ctx context.Context, id string) (*model.Review, error)
	// GetReviewByPair reviewer 对 reviewee 的既有评价；不存在时返回 (nil, nil)
	GetReviewByPair(ctx context.Context, reviewerID, revieweeID string) (*model.Review, error)
	ListReviewsByReviewee(ctx context.Context, revieweeID string) ([]*model.Review, error)
	ListReviewsByReviewer(ctx context.Context, reviewerID string) ([]*model.Review, error)
	// AverageRating 聚合计算某用户收到的平均评分；没有评价时返回 (nil, nil)
	AverageRating(ctx context.Context, revieweeID string) (*model.RatingSummary, error)
	DeleteReview(ctx context.Context, id string) error
}

// RequestStore 交换请求存储
type RequestStore interface {
	CreateRequest(ctx context.Context, req *model.Request) error
	GetRequest(ctx context.Context, id string) (*model.Request, error)
	ListRequestsByRequestee(ctx context.Context, requesteeID string) ([]*model.Request, error)
	ListRequestsByRequester(ctx context.Context, requesterID string) ([]*model.Request, error)
	// ListRequestsByUser 用户作为任意一方参与的请求
	ListRequestsByUser(ctx context.Context, userID string) ([]*model.Request, error)
	UpdateRequestStatus(ctx context.Context, id string, status model.RequestStatus) error
	DeleteRequest(ctx context.Context, id string) error
}

// ReportStore 举报存储
type ReportStore interface {
	CreateReport(ctx context.Context, report *model.Report) error
	GetReport(ctx context.Context, id string) (*model.Report, error)
	ListReportsByUser(ctx context.Context, reportedUserID string) ([]*model.Report, error)
	ListReportsByItem(ctx context.Context, itemID string) ([]*model.Report, error)
	DeleteReport(ctx context.Context, id string) error
}
