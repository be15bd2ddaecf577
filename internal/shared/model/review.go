package model

import "time"

// Review 用户互评
// 同一 reviewer 对同一 reviewee 只能评价一次（存储层复合唯一索引保证）
type Review struct {
	ID         string    `json:"id" bson:"_id"`
	ReviewerID string    `json:"reviewer_id" bson:"reviewer_id"`
	RevieweeID string    `json:"reviewee_id" bson:"reviewee_id"`
	Rating     int       `json:"rating" bson:"rating"` // 1..5
	Comment    string    `json:"comment" bson:"comment"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at"`
}

// RatingSummary 某个用户收到的评分聚合结果
type RatingSummary struct {
	UserID    string  `json:"user_id" bson:"_id"`
	AvgRating float64 `json:"avg_rating" bson:"avg_rating"`
	Count     int     `json:"count" bson:"count"`
}
