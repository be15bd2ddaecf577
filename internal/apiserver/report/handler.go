// Package report 用户举报接口
//
// 创建举报对所有登录用户开放，查询与删除全部由 AdminOnly 保护。
package report

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"restudied/internal/apiserver/auth"
	"restudied/internal/shared/model"
)

// Store 举报模块需要的存储子集
type Store interface {
	CreateReport(ctx context.Context, report *model.Report) error
	GetReport(ctx context.Context, id string) (*model.Report, error)
	ListReportsByUser(ctx context.Context, reportedUserID string) ([]*model.Report, error)
	ListReportsByItem(ctx context.Context, itemID string) ([]*model.Report, error)
	DeleteReport(ctx context.Context, id string) error
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*model.User, error)
}

// Handler 举报 HTTP 处理器
type Handler struct {
	store Store
}

// NewHandler 创建举报处理器
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册举报路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/reports", h.CreateReport)
	mux.HandleFunc("GET /api/v1/reports/user/{userId}", auth.AdminOnly(h.ListByUser))
	mux.HandleFunc("GET /api/v1/reports/item/{itemId}", auth.AdminOnly(h.ListByItem))
	mux.HandleFunc("GET /api/v1/reports/{id}", auth.AdminOnly(h.GetReport))
	mux.HandleFunc("DELETE /api/v1/reports/{id}", auth.AdminOnly(h.DeleteReport))
}

// ============================================================================
// 请求/响应类型
// ============================================================================

type createRequest struct {
	ReportedUserID string `json:"reported_user_id"`
	ItemID         string `json:"item_id"`
	Reason         string `json:"reason"`
	Message        string `json:"message"`
}

// reportResponse 举报 + 举报人/被举报人摘要
type reportResponse struct {
	*model.Report
	Reporter     *model.UserRef `json:"reporter,omitempty"`
	ReportedUser *model.UserRef `json:"reported_user,omitempty"`
}

func (h *Handler) populate(ctx context.Context, reports []*model.Report) ([]reportResponse, error) {
	ids := make([]string, 0, len(reports)*2)
	seen := map[string]bool{}
	for _, rp := range reports {
		for _, id := range []string{rp.ReporterID, rp.ReportedUserID} {
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
	resp := make([]reportResponse, 0, len(reports))
	for _, rp := range reports {
		resp = append(resp, reportResponse{
			Report:       rp,
			Reporter:     users[rp.ReporterID].Ref(),
			ReportedUser: users[rp.ReportedUserID].Ref(),
		})
	}
	return resp, nil
}

// ============================================================================
// Handlers
// ============================================================================

// CreateReport 提交举报
func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
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
	if req.ReportedUserID == "" || req.Reason == "" {
		writeError(w, http.StatusBadRequest, "Reported user and reason are required.")
		return
	}
	if req.ReportedUserID == claims.UserID() {
		writeError(w, http.StatusBadRequest, "You cannot report yourself.")
		return
	}
	if !model.ValidReportReason(model.ReportReason(req.Reason)) {
		writeError(w, http.StatusBadRequest, "Invalid report reason.")
		return
	}

	now := time.Now()
	report := &model.Report{
		ID:             generateID("rpt"),
		ReporterID:     claims.UserID(),
		ReportedUserID: req.ReportedUserID,
		ItemID:         req.ItemID,
		Reason:         model.ReportReason(req.Reason),
		Message:        req.Message,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := h.store.CreateReport(r.Context(), report); err != nil {
		log.Printf("[report.create] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

// GetReport 查询单个举报（管理员）
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.store.GetReport(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[report.get] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if report == nil {
		writeError(w, http.StatusNotFound, "Report not found.")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ListByUser 某用户收到的举报（管理员）
func (h *Handler) ListByUser(w http.ResponseWriter, r *http.Request) {
	reports, err := h.store.ListReportsByUser(r.Context(), r.PathValue("userId"))
	if err != nil {
		log.Printf("[report.byUser] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	resp, err := h.populate(r.Context(), reports)
	if err != nil {
		log.Printf("[report.byUser] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListByItem 某物品相关的举报（管理员）
func (h *Handler) ListByItem(w http.ResponseWriter, r *http.Request) {
	reports, err := h.store.ListReportsByItem(r.Context(), r.PathValue("itemId"))
	if err != nil {
		log.Printf("[report.byItem] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	resp, err := h.populate(r.Context(), reports)
	if err != nil {
		log.Printf("[report.byItem] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// DeleteReport 删除举报（管理员）
func (h *Handler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.store.GetReport(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[report.delete] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if report == nil {
		writeError(w, http.StatusNotFound, "Report not found.")
		return
	}
	if err := h.store.DeleteReport(r.Context(), report.ID); err != nil {
		log.Printf("[report.delete] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Report deleted successfully."})
}
