// Package auth 用户认证：JWT 令牌管理、密码哈希、HTTP 中间件、账号生命周期
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// contextKey context 键类型
type contextKey string

const ctxKeyClaims contextKey = "auth_claims"

// bcryptCost 密码哈希强度
const bcryptCost = 10

// 令牌校验失败的三种可区分结果，中间件据此返回不同的 401 文案
var (
	ErrTokenMissing   = errors.New("token not provided")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
)

// Config 认证配置，进程启动时构造一次，之后只读
type Config struct {
	JWTSecret string        `yaml:"-"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// DefaultConfig 返回默认认证配置
func DefaultConfig() Config {
	return Config{TokenTTL: 6 * time.Hour}
}

// ============================================================================
// 密码哈希
// ============================================================================

// HashPassword 使用 bcrypt 哈希密码，盐由 bcrypt 每次生成并编码进摘要
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(bytes), err
}

// CheckPassword 验证密码
// 摘要损坏和密码错误一律返回 false，不向调用方区分失败原因
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ============================================================================
// JWT Token
// ============================================================================

// Claims JWT 声明，签发后不可变
type Claims struct {
	jwt.RegisteredClaims
	Email        string `json:"email"`
	Username     string `json:"username"`
	Name         string `json:"name"`
	ProfileImage string `json:"profile_image,omitempty"`
	IsAdmin      bool   `json:"is_admin"`
}

// UserID 账号标识（claims 的 subject）
func (c *Claims) UserID() string {
	return c.Subject
}

// GenerateToken 签发会话令牌
func GenerateToken(cfg Config, userID, email, username, name, profileImage string, isAdmin bool) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TokenTTL)),
		},
		Email:        email,
		Username:     username,
		Name:         name,
		ProfileImage: profileImage,
		IsAdmin:      isAdmin,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// ParseToken 解析并验证 JWT
//
// 失败时返回三种可区分错误之一：
//   - ErrTokenMissing: 未提供令牌
//   - ErrTokenExpired: 令牌已过期
//   - ErrTokenMalformed: 签名无效、无法解析或载荷形状不对
func ParseToken(cfg Config, tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrTokenMissing
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenMalformed
	}
	// 载荷形状检查：没有 subject 的令牌不是本服务签发的
	if claims.Subject == "" {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

// ============================================================================
// Context 辅助函数
// ============================================================================

// WithClaims 将认证声明注入 context
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ctxKeyClaims, claims)
}

// GetClaims 从 context 获取认证声明，未认证时返回 nil
func GetClaims(ctx context.Context) *Claims {
	claims, _ := ctx.Value(ctxKeyClaims).(*Claims)
	return claims
}
