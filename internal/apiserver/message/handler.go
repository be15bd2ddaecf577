// Package message 围绕物品的私信接口
package message

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

// Store 私信模块需要的存储子集
type Store interface {
	CreateMessage(ctx context.Context, msg *model.Message) error
	GetMessage(ctx context.Context, id string) (*model.Message, error)
	ListMessagesByUser(ctx context.Context, userID string) ([]*model.Message, error)
	ListMessagesByItem(ctx context.Context, itemID string) ([]*model.Message, error)
	DeleteMessage(ctx context.Context, id string) error
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*model.User, error)
	GetItemsByIDs(ctx context.Context, ids []string) (map[string]*model.Item, error)
}

// Handler 私信 HTTP 处理器
type Handler struct {
	store Store
}

// NewHandler 创建私信处理器
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册私信路由（全部需要认证）
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/messages", h.CreateMessage)
	mux.HandleFunc("GET /api/v1/messages/mine", h.ListMyMessages)
	mux.HandleFunc("GET /api/v1/messages/item/{itemId}", h.ListItemMessages)
	mux.HandleFunc("DELETE /api/v1/messages/{id}", h.DeleteMessage)
}

// ============================================================================
// 请求/响应类型
// ============================================================================

type createRequest struct {
	ReceiverID string `json:"receiver_id"`
	Content    string `json:"content"`
	ItemID     string `json:"item_id"`
}

// messageResponse 消息 + 收发双方与物品摘要
type messageResponse struct {
	*model.Message
	Sender   *model.UserRef `json:"sender,omitempty"`
	Receiver *model.UserRef `json:"receiver,omitempty"`
	Item     *model.ItemRef `json:"item,omitempty"`
}

// populate 为消息列表补全关联摘要
func (h *Handler) populate(ctx context.Context, msgs []*model.Message) ([]messageResponse, error) {
	userIDs := make([]string, 0, len(msgs)*2)
	itemIDs := make([]string, 0, len(msgs))
	seenUser, seenItem := map[string]bool{}, map[string]bool{}
	for _, m := range msgs {
		for _, id := range []string{m.SenderID, m.ReceiverID} {
			if !seenUser[id] {
				seenUser[id] = true
				userIDs = append(userIDs, id)
			}
		}
		if !seenItem[m.ItemID] {
			seenItem[m.ItemID] = true
			itemIDs = append(itemIDs, m.ItemID)
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

	resp := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		resp = append(resp, messageResponse{
			Message:  m,
			Sender:   users[m.SenderID].Ref(),
			Receiver: users[m.ReceiverID].Ref(),
			Item:     items[m.ItemID].Ref(),
		})
	}
	return resp, nil
}

// ============================================================================
// Handlers
// ============================================================================

// CreateMessage 发送私信
func (h *Handler) CreateMessage(w http.ResponseWriter, r *http.Request) {
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
	if req.ReceiverID == "" || req.Content == "" || req.ItemID == "" {
		writeError(w, http.StatusBadRequest, "All fields are required.")
		return
	}
	if len(req.Content) > model.MaxMessageLength {
		writeError(w, http.StatusBadRequest, "Message content is too long.")
		return
	}

	now := time.Now()
	msg := &model.Message{
		ID:         generateID("msg"),
		SenderID:   claims.UserID(),
		ReceiverID: req.ReceiverID,
		ItemID:     req.ItemID,
		Content:    req.Content,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := h.store.CreateMessage(r.Context(), msg); err != nil {
		log.Printf("[message.create] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// ListMyMessages 当前用户收发的全部私信，最新的在前
func (h *Handler) ListMyMessages(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	msgs, err := h.store.ListMessagesByUser(r.Context(), claims.UserID())
	if err != nil {
		log.Printf("[message.mine] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	resp, err := h.populate(r.Context(), msgs)
	if err != nil {
		log.Printf("[message.mine] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListItemMessages 某物品下的私信，会话顺序；没有消息时 404
func (h *Handler) ListItemMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.store.ListMessagesByItem(r.Context(), r.PathValue("itemId"))
	if err != nil {
		log.Printf("[message.item] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if len(msgs) == 0 {
		writeError(w, http.StatusNotFound, "No messages found for this item.")
		return
	}
	resp, err := h.populate(r.Context(), msgs)
	if err != nil {
		log.Printf("[message.item] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// DeleteMessage 删除私信，仅发送者可删
func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	msg, err := h.store.GetMessage(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[message.delete] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if msg == nil {
		writeError(w, http.StatusNotFound, "Message not found.")
		return
	}
	if msg.SenderID != claims.UserID() {
		writeError(w, http.StatusForbidden, "You can only delete your own messages.")
		return
	}

	if err := h.store.DeleteMessage(r.Context(), msg.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Message not found.")
			return
		}
		log.Printf("[message.delete] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Message deleted successfully."})
}
