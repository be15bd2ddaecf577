package model

import "time"

// ItemCategory 物品分类
type ItemCategory string

const (
	CategoryBooks      ItemCategory = "Books"
	CategoryTech       ItemCategory = "Tech"
	CategoryStationery ItemCategory = "Stationery"
	CategoryClothing   ItemCategory = "Clothing"
	CategoryKitchen    ItemCategory = "Kitchen"
	CategoryOther      ItemCategory = "Other"
)

// ItemCondition 物品成色
type ItemCondition string

const (
	ConditionNew     ItemCondition = "New"
	ConditionLikeNew ItemCondition = "Like New"
	ConditionUsed    ItemCondition = "Used"
)

// Item 市场物品
type Item struct {
	ID          string         `json:"id" bson:"_id"`
	Title       string         `json:"title" bson:"title"`
	Description string         `json:"description" bson:"description"`
	Location    string         `json:"location" bson:"location"`
	Categories  []ItemCategory `json:"categories" bson:"categories"`
	Image       string         `json:"image" bson:"image"`
	Condition   ItemCondition  `json:"condition" bson:"condition"`
	Language    string         `json:"language,omitempty" bson:"language,omitempty"`
	OwnerID     string         `json:"owner_id" bson:"owner_id"`
	CreatedAt   time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" bson:"updated_at"`
}

// ItemRef 被关联查询时返回的物品摘要
type ItemRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Image string `json:"image,omitempty"`
}

// Ref 返回物品摘要
func (i *Item) Ref() *ItemRef {
	if i == nil {
		return nil
	}
	return &ItemRef{ID: i.ID, Title: i.Title, Image: i.Image}
}

// ValidCategory 检查分类是否合法
func ValidCategory(c ItemCategory) bool {
	switch c {
	case CategoryBooks, CategoryTech, CategoryStationery, CategoryClothing, CategoryKitchen, CategoryOther:
		return true
	}
	return false
}

// ValidCondition 检查成色是否合法
func ValidCondition(c ItemCondition) bool {
	switch c {
	case ConditionNew, ConditionLikeNew, ConditionUsed:
		return true
	}
	return false
}

// Validate 校验物品字段
// 返回第一个不满足约束的描述，全部通过时返回空字符串
func (i *Item) Validate() string {
	if i.Title == "" || i.Description == "" || i.Location == "" {
		return "title, description and location are required"
	}
	if len(i.Categories) == 0 {
		return "at least one category is required"
	}
	for _, c := range i.Categories {
		if !ValidCategory(c) {
			return "invalid category: " + string(c)
		}
	}
	if !ValidCondition(i.Condition) {
		return "invalid condition: " + string(i.Condition)
	}
	// 图书必须标注语言
	if i.HasCategory(CategoryBooks) && i.Language == "" {
		return "language is required for books"
	}
	return ""
}

// HasCategory 物品是否属于某个分类
func (i *Item) HasCategory(c ItemCategory) bool {
	for _, cat := range i.Categories {
		if cat == c {
			return true
		}
	}
	return false
}
