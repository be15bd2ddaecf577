package model

import "time"

// ReportReason 举报原因
type ReportReason string

const (
	ReasonInappropriate ReportReason = "Inappropriate Content"
	ReasonSpam          ReportReason = "Spam"
	ReasonHarassment    ReportReason = "Harassment"
	ReasonOther         ReportReason = "Other"
)

// ValidReportReason 检查举报原因是否合法
func ValidReportReason(r ReportReason) bool {
	switch r {
	case ReasonInappropriate, ReasonSpam, ReasonHarassment, ReasonOther:
		return true
	}
	return false
}

// Report 用户举报，只有管理员可以查询和处理
type Report struct {
	ID             string       `json:"id" bson:"_id"`
	ReporterID     string       `json:"reporter_id" bson:"reporter_id"`
	ReportedUserID string       `json:"reported_user_id" bson:"reported_user_id"`
	ItemID         string       `json:"item_id,omitempty" bson:"item_id,omitempty"`
	Reason         ReportReason `json:"reason" bson:"reason"`
	Message        string       `json:"message,omitempty" bson:"message,omitempty"`
	CreatedAt      time.Time    `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at" bson:"updated_at"`
}
