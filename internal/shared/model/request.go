package model

import "time"

// RequestStatus 交换请求状态
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestDeclined RequestStatus = "declined"
)

// Request 物品交换请求
//
// 状态机：pending → accepted / pending → declined，均为终态。
// 只有 requestee 可以执行状态转换。
type Request struct {
	ID          string        `json:"id" bson:"_id"`
	RequesterID string        `json:"requester_id" bson:"requester_id"`
	RequesteeID string        `json:"requestee_id" bson:"requestee_id"`
	ItemID      string        `json:"item_id" bson:"item_id"`
	Message     string        `json:"message,omitempty" bson:"message,omitempty"`
	Status      RequestStatus `json:"status" bson:"status"`
	CreatedAt   time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" bson:"updated_at"`
}

// CanTransition 当前状态是否允许转换到目标状态
func (r *Request) CanTransition(to RequestStatus) bool {
	if r.Status != RequestPending {
		return false
	}
	return to == RequestAccepted || to == RequestDeclined
}
