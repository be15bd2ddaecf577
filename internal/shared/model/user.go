package model

import "time"

// User 注册用户
//
// Username 保留原始大小写用于展示，UsernameLower 是归一化副本，
// 唯一索引建在 UsernameLower 上实现用户名大小写不敏感唯一。
type User struct {
	ID            string    `json:"id" bson:"_id"`
	Username      string    `json:"username" bson:"username"`
	UsernameLower string    `json:"-" bson:"username_lower"`
	Email         string    `json:"email" bson:"email"`
	PasswordHash  string    `json:"-" bson:"password_hash"` // never expose in JSON
	Name          string    `json:"name" bson:"name"`
	ProfileImage  string    `json:"profile_image,omitempty" bson:"profile_image,omitempty"`
	IsAdmin       bool      `json:"is_admin" bson:"is_admin"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

// UserRef 被关联查询（populate）时返回的用户摘要
type UserRef struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	ProfileImage string `json:"profile_image,omitempty"`
}

// Ref 返回用户摘要
func (u *User) Ref() *UserRef {
	if u == nil {
		return nil
	}
	return &UserRef{ID: u.ID, Username: u.Username, ProfileImage: u.ProfileImage}
}

// UserUpdate 个人资料的部分更新
// 指针为 nil 表示该字段不更新；ProfileImage 未提供时保留原值
type UserUpdate struct {
	Name          *string
	Username      *string
	UsernameLower *string
	PasswordHash  *string
	ProfileImage  *string
}
