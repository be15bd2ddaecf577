package auth

import (
	"errors"
	"net/http"
	"strings"
)

// 免认证路由（前缀匹配）
var publicPrefixes = []string{
	"/api/v1/auth/signup",
	"/api/v1/auth/login",
	"/health",
	"/metrics",
}

// 免认证的只读浏览路由（仅 GET）
var publicGetPrefixes = []string{
	"/api/v1/items",
	"/api/v1/users",
	"/api/v1/reviews/user/",
	"/api/v1/reviews/by/",
	"/api/v1/uploads/",
}

func isPublicRoute(method, path string) bool {
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	if method != http.MethodGet {
		return false
	}
	// 自己的物品列表需要身份
	if path == "/api/v1/items/mine" {
		return false
	}
	for _, prefix := range publicGetPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Middleware 创建 JWT 认证中间件
//
// 这是唯一的认证执行点：从 Authorization 头提取 Bearer 令牌并验证，
// 验证通过后把 Claims 注入 context；失败时在任何 handler 运行前短路请求，
// 三种失败返回可区分的 401 文案。
func Middleware(cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 公开路由：直接放行
			if isPublicRoute(r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := ParseToken(cfg, bearerToken(r))
			if err != nil {
				switch {
				case errors.Is(err, ErrTokenExpired):
					http.Error(w, `{"error":"jwt expired"}`, http.StatusUnauthorized)
				case errors.Is(err, ErrTokenMissing):
					http.Error(w, `{"error":"token not provided or not valid"}`, http.StatusUnauthorized)
				default:
					http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// bearerToken 提取 Bearer 令牌，头缺失或格式不对时返回空串
func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// AdminOnly 管理员专属路由中间件
// 必须在 Middleware 之后执行；claims 缺失按拒绝处理
func AdminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := GetClaims(r.Context())
		if claims == nil || !claims.IsAdmin {
			http.Error(w, `{"error":"Admin access required"}`, http.StatusForbidden)
			return
		}
		next(w, r)
	}
}
