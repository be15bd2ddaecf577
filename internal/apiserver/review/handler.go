// Package review 用户互评接口
package review

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

// Store 评价模块需要的存储子集
type Store interface {
	CreateReview(ctx context.Context, review *model.Review) error
	GetReview(ctx context.Context, id string) (*model.Review, error)
	GetReviewByPair(ctx context.Context, reviewerID, revieweeID string) (*model.Review, error)
	ListReviewsByReviewee(ctx context.Context, revieweeID string) ([]*model.Review, error)
	ListReviewsByReviewer(ctx context.Context, reviewerID string) ([]*model.Review, error)
	AverageRating(ctx context.Context, revieweeID string) (*model.RatingSummary, error)
	DeleteReview(ctx context.Context, id string) error
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*model.User, error)
}

// Handler 评价 HTTP 处理器
type Handler struct {
	store Store
}

// NewHandler 创建评价处理器
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册评价路由，读公开、写需认证
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/reviews", h.CreateReview)
	mux.HandleFunc("GET /api/v1/reviews/user/{userId}", h.ListReceived)
	mux.HandleFunc("GET /api/v1/reviews/user/{userId}/average", h.GetAverage)
	mux.HandleFunc("GET /api/v1/reviews/by/{userId}", h.ListWritten)
	mux.HandleFunc("DELETE /api/v1/reviews/{id}", h.DeleteReview)
}

// ============================================================================
// 请求/响应类型
// ============================================================================

type createRequest struct {
	RevieweeID string  `json:"reviewee_id"`
	Rating     *int    `json:"rating"`
	Comment    *string `json:"comment"`
}

// reviewResponse 评价 + 评价人/被评人摘要
type reviewResponse struct {
	*model.Review
	Reviewer *model.UserRef `json:"reviewer,omitempty"`
	Reviewee *model.UserRef `json:"reviewee,omitempty"`
}

// populate 为评价列表补全用户摘要
func (h *Handler) populate(ctx context.Context, reviews []*model.Review) ([]reviewResponse, error) {
	ids := make([]string, 0, len(reviews)*2)
	seen := map[string]bool{}
	for _, rv := range reviews {
		for _, id := range []string{rv.ReviewerID, rv.RevieweeID} {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	users, err := h.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	resp := make([]reviewResponse, 0, len(reviews))
	for _, rv := range reviews {
		resp = append(resp, reviewResponse{
			Review:   rv,
			Reviewer: users[rv.ReviewerID].Ref(),
			Reviewee: users[rv.RevieweeID].Ref(),
		})
	}
	return resp, nil
}

// ============================================================================
// Handlers
// ============================================================================

// CreateReview 发表评价
// 不能评价自己，评分 1..5，同一对象只能评价一次（复合唯一索引兜底）
func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
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
	if req.RevieweeID == "" || req.Rating == nil || req.Comment == nil {
		writeError(w, http.StatusBadRequest, "All fields are required.")
		return
	}
	if req.RevieweeID == claims.UserID() {
		writeError(w, http.StatusBadRequest, "You cannot review yourself.")
		return
	}
	if *req.Rating < 1 || *req.Rating > 5 {
		writeError(w, http.StatusBadRequest, "Rating must be between 1 and 5.")
		return
	}

	// 预检查只为友好报错，唯一索引才是正确性保证
	existing, err := h.store.GetReviewByPair(r.Context(), claims.UserID(), req.RevieweeID)
	if err != nil {
		log.Printf("[review.create] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if existing != nil {
		writeError(w, http.StatusBadRequest, "You already reviewed this user.")
		return
	}

	now := time.Now()
	review := &model.Review{
		ID:         generateID("rev"),
		ReviewerID: claims.UserID(),
		RevieweeID: req.RevieweeID,
		Rating:     *req.Rating,
		Comment:    *req.Comment,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := h.store.CreateReview(r.Context(), review); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusBadRequest, "You already reviewed this user.")
			return
		}
		log.Printf("[review.create] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

// ListReceived 某用户收到的评价
func (h *Handler) ListReceived(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.store.ListReviewsByReviewee(r.Context(), r.PathValue("userId"))
	if err != nil {
		log.Printf("[review.received] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	resp, err := h.populate(r.Context(), reviews)
	if err != nil {
		log.Printf("[review.received] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListWritten 某用户写出的评价
func (h *Handler) ListWritten(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.store.ListReviewsByReviewer(r.Context(), r.PathValue("userId"))
	if err != nil {
		log.Printf("[review.written] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	resp, err := h.populate(r.Context(), reviews)
	if err != nil {
		log.Printf("[review.written] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetAverage 某用户收到的平均评分（聚合）
func (h *Handler) GetAverage(w http.ResponseWriter, r *http.Request) {
	summary, err := h.store.AverageRating(r.Context(), r.PathValue("userId"))
	if err != nil {
		log.Printf("[review.average] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if summary == nil {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"avg_rating": nil, "count": 0})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// DeleteReview 删除评价，仅评价人自己可删
func (h *Handler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	review, err := h.store.GetReview(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[review.delete] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if review == nil {
		writeError(w, http.StatusNotFound, "Review not found.")
		return
	}
	if review.ReviewerID != claims.UserID() {
		writeError(w, http.StatusForbidden, "You can only delete your own reviews.")
		return
	}

	if err := h.store.DeleteReview(r.Context(), review.ID); err != nil {
		log.Printf("[review.delete] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Review deleted successfully."})
}
