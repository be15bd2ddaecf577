package model

import "time"

// MaxMessageLength 单条消息/留言的最大长度
const MaxMessageLength = 1000

// Message 围绕某个物品的买卖双方私信
type Message struct {
	ID         string    `json:"id" bson:"_id"`
	SenderID   string    `json:"sender_id" bson:"sender_id"`
	ReceiverID string    `json:"receiver_id" bson:"receiver_id"`
	ItemID     string    `json:"item_id" bson:"item_id"`
	Content    string    `json:"content" bson:"content"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at"`
}
