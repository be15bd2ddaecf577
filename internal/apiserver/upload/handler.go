// Package upload 图片上传接口
//
// 图片存入对象存储，返回的 image_url 供 profileImage / 物品图片引用。
// 对象存储未配置时所有接口返回 503。
package upload

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"restudied/internal/apiserver/auth"
	"restudied/internal/shared/objstore"
)

// maxUploadSize 单个文件上限 5MB
const maxUploadSize = 5 << 20

// allowedExtensions 仅接受常见图片格式
var allowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// ObjectStore 上传模块需要的对象存储子集
type ObjectStore interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
}

// Handler 上传 HTTP 处理器
type Handler struct {
	obj ObjectStore // nil 表示对象存储未配置
}

// NewHandler 创建上传处理器
func NewHandler(obj *objstore.Client) *Handler {
	// 不让 nil *Client 变成非 nil 接口
	if obj == nil {
		return &Handler{}
	}
	return &Handler{obj: obj}
}

// RegisterRoutes 注册上传路由，GET 公开，其余需认证
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/uploads", h.UploadImage)
	mux.HandleFunc("GET /api/v1/uploads/{key}", h.GetImage)
	mux.HandleFunc("DELETE /api/v1/uploads/{key}", h.DeleteImage)
}

// available 对象存储未配置时统一挡掉
func (h *Handler) available(w http.ResponseWriter) bool {
	if h.obj == nil {
		writeError(w, http.StatusServiceUnavailable, "Object storage is not configured.")
		return false
	}
	return true
}

// UploadImage 上传图片，multipart 字段名为 image
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	claims := auth.GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "File too large or invalid form data.")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Image file is required.")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	contentType, ok := allowedExtensions[ext]
	if !ok {
		writeError(w, http.StatusBadRequest, "Only jpg, jpeg and png files are allowed.")
		return
	}

	key := generateID("img") + ext
	if err := h.obj.Upload(r.Context(), key, file, header.Size, contentType); err != nil {
		log.Printf("[upload] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to store image.")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"key":       key,
		"image_url": fmt.Sprintf("/api/v1/uploads/%s", key),
	})
}

// GetImage 流式返回图片内容
func (h *Handler) GetImage(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	key := r.PathValue("key")

	body, contentType, err := h.obj.Download(r.Context(), key)
	if err != nil {
		if objstore.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Image not found.")
			return
		}
		log.Printf("[upload.get] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to read image.")
		return
	}
	defer body.Close()

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		log.Printf("[upload.get] stream error: %v", err)
	}
}

// DeleteImage 删除图片
func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	claims := auth.GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := h.obj.Delete(r.Context(), r.PathValue("key")); err != nil {
		log.Printf("[upload.delete] error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete image.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Image deleted successfully."})
}
