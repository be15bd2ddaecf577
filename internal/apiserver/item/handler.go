// Package item 市场物品接口
package item

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"restudied/internal/apiserver/auth"
	"restudied/internal/shared/model"
	"restudied/internal/shared/storage"
)

// Store 物品模块需要的存储子集
type Store interface {
	CreateItem(ctx context.Context, item *model.Item) error
	GetItem(ctx context.Context, id string) (*model.Item, error)
	ListItems(ctx context.Context, title, category, location, ownerID string) ([]*model.Item, error)
	UpdateItem(ctx context.Context, item *model.Item) error
	DeleteItem(ctx context.Context, id string) error
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*model.User, error)
}

// Handler 物品 HTTP 处理器
type Handler struct {
	store Store
}

// NewHandler 创建物品处理器
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册物品路由
// 浏览（GET 列表/详情）公开，/mine 和写操作需要认证
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/items", h.CreateItem)
	mux.HandleFunc("GET /api/v1/items", h.ListItems)
	mux.HandleFunc("GET /api/v1/items/mine", h.ListMyItems)
	mux.HandleFunc("GET /api/v1/items/{id}", h.GetItem)
	mux.HandleFunc("PUT /api/v1/items/{id}", h.UpdateItem)
	mux.HandleFunc("DELETE /api/v1/items/{id}", h.DeleteItem)
}

// ============================================================================
// 请求/响应类型
// ============================================================================

type itemRequest struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Location    string               `json:"location"`
	Categories  []model.ItemCategory `json:"categories"`
	Image       string               `json:"image"`
	Condition   model.ItemCondition  `json:"condition"`
	Language    string               `json:"language"`
}

// itemResponse 物品 + 属主摘要（populate owner）
type itemResponse struct {
	*model.Item
	Owner *model.UserRef `json:"owner,omitempty"`
}

// withOwners 为物品列表补全属主摘要
func (h *Handler) withOwners(ctx context.Context, items []*model.Item) ([]itemResponse, error) {
	ids := make([]string, 0, len(items))
	seen := map[string]bool{}
	for _, it := range items {
		if !seen[it.OwnerID] {
			seen[it.OwnerID] = true
			ids = append(ids, it.OwnerID)
		}
	}
	owners, err := h.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	resp := make([]itemResponse, 0, len(items))
	for _, it := range items {
		resp = append(resp, itemResponse{Item: it, Owner: owners[it.OwnerID].Ref()})
	}
	return resp, nil
}

// ============================================================================
// Handlers
// ============================================================================

// CreateItem 发布物品
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	now := time.Now()
	item := &model.Item{
		ID:          generateID("itm"),
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Categories:  req.Categories,
		Image:       req.Image,
		Condition:   req.Condition,
		Language:    req.Language,
		OwnerID:     claims.UserID(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if msg := item.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.store.CreateItem(r.Context(), item); err != nil {
		log.Printf("[item.create] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// ListItems 浏览物品，支持 title/category/location 过滤
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.store.ListItems(r.Context(), q.Get("title"), q.Get("category"), q.Get("location"), "")
	if err != nil {
		log.Printf("[item.list] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	resp, err := h.withOwners(r.Context(), items)
	if err != nil {
		log.Printf("[item.list] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListMyItems 当前用户发布的物品
func (h *Handler) ListMyItems(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	items, err := h.store.ListItems(r.Context(), "", "", "", claims.UserID())
	if err != nil {
		log.Printf("[item.mine] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	resp, err := h.withOwners(r.Context(), items)
	if err != nil {
		log.Printf("[item.mine] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetItem 物品详情
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.store.GetItem(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[item.get] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if item == nil {
		writeError(w, http.StatusNotFound, "Item not found")
		return
	}

	resp, err := h.withOwners(r.Context(), []*model.Item{item})
	if err != nil {
		log.Printf("[item.get] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, resp[0])
}

// UpdateItem 编辑物品，仅属主可操作；未提供新图片时保留原图
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	item, err := h.store.GetItem(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[item.update] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if item == nil {
		writeError(w, http.StatusNotFound, "Item not found")
		return
	}
	if item.OwnerID != claims.UserID() {
		writeError(w, http.StatusForbidden, "Unauthorized to edit this item")
		return
	}

	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item.Title = req.Title
	item.Description = req.Description
	item.Location = req.Location
	item.Categories = req.Categories
	item.Condition = req.Condition
	item.Language = req.Language
	if req.Image != "" {
		item.Image = req.Image
	}
	if msg := item.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.store.UpdateItem(r.Context(), item); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Item not found")
			return
		}
		log.Printf("[item.update] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	resp, err := h.withOwners(r.Context(), []*model.Item{item})
	if err != nil {
		log.Printf("[item.update] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, resp[0])
}

// DeleteItem 删除物品，仅属主可操作
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	item, err := h.store.GetItem(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[item.delete] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if item == nil {
		writeError(w, http.StatusNotFound, "Item not found")
		return
	}
	if item.OwnerID != claims.UserID() {
		writeError(w, http.StatusForbidden, "Unauthorized to delete this item")
		return
	}

	if err := h.store.DeleteItem(r.Context(), item.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Item not found")
			return
		}
		log.Printf("[item.delete] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Item deleted successfully"})
}
