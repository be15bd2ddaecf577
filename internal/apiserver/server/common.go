// Package server 路由配置与核心基础设施
//
// 本包是所有 HTTP API 的装配入口，负责：
//   - 将请求分发到各领域独立包（auth/user/item/message/review/request/report/upload）
//   - 管理存储层与对象存储连接
//   - 挂载指标、认证与 CORS 中间件
//
// 文件组织：
//   - common.go: Handler 定义与通用工具函数
//   - handler.go: 路由配置
//   - metrics.go: Prometheus 指标
package server

import (
	"encoding/json"
	"net/http"

	"restudied/internal/apiserver/auth"
	"restudied/internal/shared/objstore"
	"restudied/internal/shared/storage"
)

// Handler API 处理器
//
// 依赖说明：
//   - store: MongoDB 存储层（持久化业务数据）
//   - obj: MinIO 对象存储，可为 nil（上传接口返回 503）
type Handler struct {
	store      storage.Store
	obj        *objstore.Client
	authConfig auth.Config
	metrics    *Metrics
}

// NewHandler 创建 Handler 实例
func NewHandler(store storage.Store, obj *objstore.Client, authCfg auth.Config) *Handler {
	return &Handler{
		store:      store,
		obj:        obj,
		authConfig: authCfg,
		metrics:    NewMetrics("marketplace"),
	}
}

// GetMetrics 返回指标实例
func (h *Handler) GetMetrics() *Metrics {
	return h.metrics
}

// writeJSON 将数据以 JSON 格式写入 HTTP 响应
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Health 健康检查接口
//
// 路由: GET /health
//
// 用于负载均衡器和监控系统检查服务状态。
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
