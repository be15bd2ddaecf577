// Package user 公开的用户目录接口
package user

import (
	"context"
	"log"
	"net/http"

	"restudied/internal/shared/model"
)

// Store 用户目录需要的存储子集
type Store interface {
	ListUsers(ctx context.Context) ([]*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*model.User, error)
	ListItems(ctx context.Context, title, category, location, ownerID string) ([]*model.Item, error)
}

// Handler 用户目录 HTTP 处理器
type Handler struct {
	store Store
}

// NewHandler 创建用户目录处理器
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册用户目录路由（均为公开只读）
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/users", h.ListUsers)
	mux.HandleFunc("GET /api/v1/users/{id}", h.GetUser)
	mux.HandleFunc("GET /api/v1/users/{id}/items", h.ListUserItems)
}

// ListUsers 用户列表（公开投影，哈希不出库）
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		log.Printf("[user.list] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// GetUser 用户详情
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.GetUserByID(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[user.get] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// itemResponse 物品 + 属主摘要
type itemResponse struct {
	*model.Item
	Owner *model.UserRef `json:"owner,omitempty"`
}

// ListUserItems 某用户发布的物品
func (h *Handler) ListUserItems(w http.ResponseWriter, r *http.Request) {
	ownerID := r.PathValue("id")
	owner, err := h.store.GetUserByID(r.Context(), ownerID)
	if err != nil {
		log.Printf("[user.items] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	items, err := h.store.ListItems(r.Context(), "", "", "", ownerID)
	if err != nil {
		log.Printf("[user.items] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	resp := make([]itemResponse, 0, len(items))
	for _, it := range items {
		resp = append(resp, itemResponse{Item: it, Owner: owner.Ref()})
	}
	writeJSON(w, http.StatusOK, resp)
}
