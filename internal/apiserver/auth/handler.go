package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"restudied/internal/shared/storage"
)

// Handler 认证 HTTP 处理器
type Handler struct {
	svc *Service
}

// NewHandler 创建认证处理器
func NewHandler(store UserStore, cfg Config) *Handler {
	return &Handler{svc: NewService(store, cfg)}
}

// RegisterRoutes 注册认证相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/auth/signup", h.Signup)
	mux.HandleFunc("POST /api/v1/auth/login", h.Login)
	mux.HandleFunc("GET /api/v1/auth/verify", h.Verify)
	mux.HandleFunc("GET /api/v1/auth/profile", h.GetProfile)
	mux.HandleFunc("PUT /api/v1/auth/profile", h.UpdateProfile)
	mux.HandleFunc("DELETE /api/v1/auth/profile", h.DeleteProfile)
}

// ============================================================================
// 请求/响应类型
// ============================================================================

type signupRequest struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Name         string `json:"name"`
	ProfileImage string `json:"profile_image"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateProfileRequest struct {
	Name         *string `json:"name"`
	Username     *string `json:"username"`
	Password     *string `json:"password"`
	ProfileImage *string `json:"profile_image"`
}

// claimsPayload 对外暴露的声明内容
type claimsPayload struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	Name         string `json:"name"`
	ProfileImage string `json:"profile_image,omitempty"`
	IsAdmin      bool   `json:"is_admin"`
}

func toPayload(c *Claims) claimsPayload {
	return claimsPayload{
		ID:           c.Subject,
		Email:        c.Email,
		Username:     c.Username,
		Name:         c.Name,
		ProfileImage: c.ProfileImage,
		IsAdmin:      c.IsAdmin,
	}
}

// writeServiceError 将服务层错误映射为 HTTP 状态码
func writeServiceError(w http.ResponseWriter, op string, err error) {
	var ve *ValidationError
	var ce *ConflictError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Message)
	case errors.As(err, &ce):
		writeError(w, http.StatusBadRequest, ce.Message)
	case errors.Is(err, ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	default:
		log.Printf("[auth.%s] error: %v", op, err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

// ============================================================================
// Handlers
// ============================================================================

// Signup 用户注册
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.svc.Register(r.Context(), RegisterInput{
		Username:     req.Username,
		Email:        req.Email,
		Password:     req.Password,
		Name:         req.Name,
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		writeServiceError(w, "signup", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"user": user})
}

// Login 用户登录
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, claims, err := h.svc.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, "login", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"auth_token": token,
		"user":       toPayload(claims),
	})
}

// Verify 回显已验证的令牌声明
// 令牌校验由认证中间件完成，走到这里 claims 一定存在
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": toPayload(claims)})
}

// GetProfile 获取当前用户资料
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	user, err := h.svc.GetProfile(r.Context(), claims.UserID())
	if err != nil {
		writeServiceError(w, "profile", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile 更新当前用户资料（字段均可选）
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.svc.UpdateProfile(r.Context(), claims.UserID(), UpdateInput{
		Name:         req.Name,
		Username:     req.Username,
		Password:     req.Password,
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		writeServiceError(w, "update-profile", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// DeleteProfile 注销当前用户
func (h *Handler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := h.svc.DeleteAccount(r.Context(), claims.UserID()); err != nil {
		writeServiceError(w, "delete-profile", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}
