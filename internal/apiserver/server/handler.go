package server

import (
	"net/http"

	"restudied/internal/apiserver/auth"
	"restudied/internal/apiserver/item"
	"restudied/internal/apiserver/message"
	"restudied/internal/apiserver/report"
	"restudied/internal/apiserver/request"
	"restudied/internal/apiserver/review"
	"restudied/internal/apiserver/upload"
	"restudied/internal/apiserver/user"
)

// Router 返回配置好的 HTTP 路由
//
// 路由规则：
//
// 健康检查:
//   - GET /health - 服务健康检查
//
// 认证 (Auth):
//   - POST   /api/v1/auth/signup   - 注册
//   - POST   /api/v1/auth/login    - 登录
//   - GET    /api/v1/auth/verify   - 校验令牌
//   - GET    /api/v1/auth/profile  - 获取当前用户资料
//   - PUT    /api/v1/auth/profile  - 更新资料
//   - DELETE /api/v1/auth/profile  - 注销账号
//
// 用户 (User，公开读):
//   - GET /api/v1/users            - 列出用户
//   - GET /api/v1/users/{id}       - 用户详情
//   - GET /api/v1/users/{id}/items - 用户发布的物品
//
// 物品 (Item):
//   - POST   /api/v1/items       - 发布物品
//   - GET    /api/v1/items       - 列出/检索物品（title/category/location）
//   - GET    /api/v1/items/mine  - 我的物品
//   - GET    /api/v1/items/{id}  - 物品详情
//   - PUT    /api/v1/items/{id}  - 编辑物品（仅属主）
//   - DELETE /api/v1/items/{id}  - 删除物品（仅属主）
//
// 私信 (Message) / 评价 (Review) / 交换请求 (Request) /
// 举报 (Report，管理员) / 上传 (Upload) 见各包 RegisterRoutes。
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// 健康检查
	mux.HandleFunc("GET /health", h.Health)

	// Prometheus 指标端点
	mux.Handle("GET /metrics", MetricsHandler())

	// Auth 接口
	authHandler := auth.NewHandler(h.store, h.authConfig)
	authHandler.RegisterRoutes(mux)

	// 用户公开读接口
	userHandler := user.NewHandler(h.store)
	userHandler.RegisterRoutes(mux)

	// 物品接口
	itemHandler := item.NewHandler(h.store)
	itemHandler.RegisterRoutes(mux)

	// 私信接口
	msgHandler := message.NewHandler(h.store)
	msgHandler.RegisterRoutes(mux)

	// 评价接口
	reviewHandler := review.NewHandler(h.store)
	reviewHandler.RegisterRoutes(mux)

	// 交换请求接口
	reqHandler := request.NewHandler(h.store)
	reqHandler.RegisterRoutes(mux)

	// 举报接口（查询/删除由 AdminOnly 保护）
	reportHandler := report.NewHandler(h.store)
	reportHandler.RegisterRoutes(mux)

	// 图片上传接口（对象存储未配置时返回 503）
	uploadHandler := upload.NewHandler(h.obj)
	uploadHandler.RegisterRoutes(mux)

	// 应用指标中间件
	apiHandler := h.metrics.MetricsMiddleware(mux)

	// 应用认证中间件（公开路由白名单见 auth 包）
	authedHandler := auth.Middleware(h.authConfig)(apiHandler)

	// 应用 CORS 中间件
	return corsMiddleware(authedHandler)
}

// corsMiddleware 添加 CORS 头支持跨域请求
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
