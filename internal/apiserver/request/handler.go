// Package request 物品交换请求接口
package request

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"restudied/internal/apiserver/auth"
	"restudied/internal/shared/model"
)

// Store 请求模块需要的存储子集
type Store interface {
	CreateRequest(ctx context.Context, req *model.Request) error
	GetRequest(ctx context.Context, id string) (*model.Request, error)
	ListRequestsByRequestee(ctx context.Context, requesteeID string) ([]*model.Request, error)
	ListRequestsByRequester(ctx context.Context, requesterID string) ([]*model.Request, error)
	ListRequestsByUser(ctx context.Context, userID string) ([]*model.Request, error)
	UpdateRequestStatus(ctx context.Context, id string, status model.RequestStatus) error
	DeleteRequest(ctx context.Context, id string) error
	GetItem(ctx context.Context, id string) (*model.Item, error)
	GetItemsByIDs(ctx context.Context, ids []string) (map[string]*model.Item, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*model.User, error)
}

// Handler 交换请求 HTTP 处理器
type Handler struct {
	store Store
}

// NewHandler 创建交换请求处理器
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册请求路由，全部需要认证
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/requests", h.CreateRequest)
	mux.HandleFunc("GET /api/v1/requests/received", h.ListReceived)
	mux.HandleFunc("GET /api/v1/requests/sent", h.ListSent)
	mux.HandleFunc("GET /api/v1/requests/user/{userId}", h.ListByUser)
	mux.HandleFunc("GET /api/v1/requests/{id}", h.GetRequest)
	mux.HandleFunc("PUT /api/v1/requests/{id}/accept", h.AcceptRequest)
	mux.HandleFunc("PUT /api/v1/requests/{id}/decline", h.DeclineRequest)
	mux.HandleFunc("DELETE /api/v1/requests/{id}", h.DeleteRequest)
}

// ============================================================================
// 请求/响应类型
// ============================================================================

type createRequest struct {
	ItemID  string `json:"item_id"`
	Message string `json:"message"`
}

// requestResponse 请求 + 双方与物品摘要
type requestResponse struct {
	*model.Request
	Requester *model.UserRef `json:"requester,omitempty"`
	Requestee *model.UserRef `json:"requestee,omitempty"`
	Item      *model.ItemRef `json:"item,omitempty"`
}

// populate 为请求列表补全用户与物品摘要
func (h *Handler) populate(ctx context.Context, requests []*model.Request) ([]requestResponse, error) {
	userIDs := make([]string, 0, len(requests)*2)
	itemIDs := make([]string, 0, len(requests))
	seenUser := map[string]bool{}
	seenItem := map[string]bool{}
	for _, rq := range requests {
		for _, id := range []string{rq.RequesterID, rq.RequesteeID} {
			if !seenUser[id] {
				seenUser[id] = true
				userIDs = append(userIDs, id)
			}
		}
		if !seenItem[rq.ItemID] {
			seenItem[rq.ItemID] = true
			itemIDs = append(itemIDs, rq.ItemID)
		}
	}
	users, err := h.store.GetUsersByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	items, err := h.store.GetItemsByIDs(ctx, itemIDs)
	if err != nil {
		return nil, err
	}
	resp := make([]requestResponse, 0, len(requests))
	for _, rq := range requests {
		resp = append(resp, requestResponse{
			Request:   rq,
			Requester: users[rq.RequesterID].Ref(),
			Requestee: users[rq.RequesteeID].Ref(),
			Item:      items[rq.ItemID].Ref(),
		})
	}
	return resp, nil
}

// ============================================================================
// Handlers
// ============================================================================

// CreateRequest 发起交换请求
// requestee 取自物品属主，不能对自己的物品发起请求
func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ItemID == "" {
		writeError(w, http.StatusBadRequest, "Item is required.")
		return
	}

	item, err := h.store.GetItem(r.Context(), req.ItemID)
	if err != nil {
		log.Printf("[request.create] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if item == nil {
		writeError(w, http.StatusNotFound, "Item not found.")
		return
	}
	if item.OwnerID == claims.UserID() {
		writeError(w, http.StatusBadRequest, "You cannot request your own item.")
		return
	}

	now := time.Now()
	request := &model.Request{
		ID:          generateID("req"),
		RequesterID: claims.UserID(),
		RequesteeID: item.OwnerID,
		ItemID:      item.ID,
		Message:     req.Message,
		Status:      model.RequestPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.store.CreateRequest(r.Context(), request); err != nil {
		log.Printf("[request.create] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, request)
}

// ListReceived 当前用户收到的请求
func (h *Handler) ListReceived(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	h.list(w, r, func(ctx context.Context) ([]*model.Request, error) {
		return h.store.ListRequestsByRequestee(ctx, claims.UserID())
	})
}

// ListSent 当前用户发出的请求
func (h *Handler) ListSent(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	h.list(w, r, func(ctx context.Context) ([]*model.Request, error) {
		return h.store.ListRequestsByRequester(ctx, claims.UserID())
	})
}

// ListByUser 某用户参与的全部请求
func (h *Handler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	h.list(w, r, func(ctx context.Context) ([]*model.Request, error) {
		return h.store.ListRequestsByUser(ctx, userID)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, fn func(context.Context) ([]*model.Request, error)) {
	requests, err := fn(r.Context())
	if err != nil {
		log.Printf("[request.list] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	resp, err := h.populate(r.Context(), requests)
	if err != nil {
		log.Printf("[request.list] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetRequest 查询单个请求，仅参与双方可见
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	request, err := h.store.GetRequest(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[request.get] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if request == nil {
		writeError(w, http.StatusNotFound, "Request not found.")
		return
	}
	if request.RequesterID != claims.UserID() && request.RequesteeID != claims.UserID() {
		writeError(w, http.StatusForbidden, "Unauthorized to view this request.")
		return
	}
	writeJSON(w, http.StatusOK, request)
}

// AcceptRequest 接受请求，仅 requestee 可操作，仅 pending 可转换
func (h *Handler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, model.RequestAccepted)
}

// DeclineRequest 拒绝请求，仅 requestee 可操作，仅 pending 可转换
func (h *Handler) DeclineRequest(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, model.RequestDeclined)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, to model.RequestStatus) {
	claims := auth.GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	request, err := h.store.GetRequest(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[request.transition] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if request == nil {
		writeError(w, http.StatusNotFound, "Request not found.")
		return
	}
	if request.RequesteeID != claims.UserID() {
		writeError(w, http.StatusForbidden, "Only the requestee can respond to this request.")
		return
	}
	if !request.CanTransition(to) {
		writeError(w, http.StatusBadRequest, "Request has already been resolved.")
		return
	}

	if err := h.store.UpdateRequestStatus(r.Context(), request.ID, to); err != nil {
		log.Printf("[request.transition] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	request.Status = to
	request.UpdatedAt = time.Now()
	writeJSON(w, http.StatusOK, request)
}

// DeleteRequest 撤回请求，仅 requester 可删
func (h *Handler) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	request, err := h.store.GetRequest(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[request.delete] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if request == nil {
		writeError(w, http.StatusNotFound, "Request not found.")
		return
	}
	if request.RequesterID != claims.UserID() {
		writeError(w, http.StatusForbidden, "Only the requester can delete this request.")
		return
	}

	if err := h.store.DeleteRequest(r.Context(), request.ID); err != nil {
		log.Printf("[request.delete] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Request deleted successfully."})
}
