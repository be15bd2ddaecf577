package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"
	"unicode"

	"restudied/internal/shared/model"
	"restudied/internal/shared/storage"
)

// UserStore 账号生命周期需要的存储子集
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByUsernameLower(ctx context.Context, usernameLower string) (*model.User, error)
	UpdateUser(ctx context.Context, id string, upd *model.UserUpdate) error
	DeleteUser(ctx context.Context, id string) error
}

// ============================================================================
// 错误类型
// ============================================================================

// ValidationError 输入缺失或格式不合法 → 400
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError 唯一性冲突 → 400，Field 指明冲突字段
type ConflictError struct {
	Field   string
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// ErrInvalidCredentials 登录失败 → 401
// 邮箱不存在和密码错误返回同一个错误，不泄漏是哪一步失败
var ErrInvalidCredentials = errors.New("invalid credentials")

// ============================================================================
// 输入校验
// ============================================================================

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]{2,}$`)

// ValidEmail 邮箱结构校验：local-part@domain，顶级域至少 2 个字符
func ValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// ValidPassword 密码强度校验：至少 6 个字符，且同时含数字、小写和大写字母
// Go 的 regexp 不支持 lookahead，逐项检查
func ValidPassword(password string) bool {
	if len(password) < 6 {
		return false
	}
	var hasDigit, hasLower, hasUpper bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		}
	}
	return hasDigit && hasLower && hasUpper
}

const passwordPolicyMessage = "Password must have at least 6 characters and contain at least one number, one lowercase and one uppercase letter."

// ============================================================================
// Service
// ============================================================================

// Service 账号生命周期服务：注册、登录、资料读写、注销
//
// 唯一性的正确性保证是存储层唯一索引；这里的预检查只为了给出
// 指明冲突字段的友好报错，并发穿透预检查时插入会返回 ErrDuplicate。
type Service struct {
	store UserStore
	cfg   Config
}

// NewService 创建账号生命周期服务
func NewService(store UserStore, cfg Config) *Service {
	return &Service{store: store, cfg: cfg}
}

// RegisterInput 注册入参
type RegisterInput struct {
	Username     string
	Email        string
	Password     string
	Name         string
	ProfileImage string
}

// Register 注册新账号，返回公开投影（哈希不出库）
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(in.Username)
	if in.Email == "" || in.Password == "" || in.Name == "" || username == "" {
		return nil, &ValidationError{"Provide username, name, email, and password"}
	}
	if !ValidEmail(in.Email) {
		return nil, &ValidationError{"Provide a valid email address."}
	}
	if !ValidPassword(in.Password) {
		return nil, &ValidationError{passwordPolicyMessage}
	}

	usernameLower := strings.ToLower(username)

	// 预检查，为了报错能指明冲突字段
	if existing, err := s.store.GetUserByEmail(ctx, in.Email); err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	} else if existing != nil {
		return nil, &ConflictError{Field: "email", Message: "Email already exists."}
	}
	if existing, err := s.store.GetUserByUsernameLower(ctx, usernameLower); err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	} else if existing != nil {
		return nil, &ConflictError{Field: "username", Message: "Username already taken."}
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:            generateID("usr"),
		Username:      username,
		UsernameLower: usernameLower,
		Email:         in.Email,
		PasswordHash:  hash,
		Name:          in.Name,
		ProfileImage:  in.ProfileImage,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		// 并发注册穿透预检查，唯一索引兜底
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, &ConflictError{Field: "email or username", Message: "Email or username already taken."}
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	log.Printf("[auth] User registered: %s (%s)", user.Email, user.ID)
	return user, nil
}

// Authenticate 校验邮箱和密码，成功时签发令牌
// 邮箱匹配大小写不敏感；账号不存在与密码错误不可区分
func (s *Service) Authenticate(ctx context.Context, email, password string) (string, *Claims, error) {
	if email == "" || password == "" {
		return "", nil, &ValidationError{"Provide email and password"}
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil || !CheckPassword(password, user.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := GenerateToken(s.cfg, user.ID, user.Email, user.Username, user.Name, user.ProfileImage, user.IsAdmin)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}

	claims, err := ParseToken(s.cfg, token)
	if err != nil {
		return "", nil, fmt.Errorf("parse issued token: %w", err)
	}

	log.Printf("[auth] User logged in: %s", user.Email)
	return token, claims, nil
}

// GetProfile 按标识加载账号，返回公开投影
func (s *Service) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, storage.ErrNotFound
	}
	return user, nil
}

// UpdateInput 资料更新入参；nil 字段不更新
type UpdateInput struct {
	Name         *string
	Username     *string
	Password     *string
	ProfileImage *string
}

// UpdateProfile 部分更新账号资料
//
// 改用户名要重新校验全局唯一（排除自身），改密码要重新过强度校验并重哈希；
// ProfileImage 未提供时保留原值。isAdmin 不在可更新字段之列。
func (s *Service) UpdateProfile(ctx context.Context, userID string, in UpdateInput) (*model.User, error) {
	current, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, storage.ErrNotFound
	}

	upd := &model.UserUpdate{
		Name:         in.Name,
		ProfileImage: in.ProfileImage,
	}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if username == "" {
			return nil, &ValidationError{"Username must not be empty"}
		}
		usernameLower := strings.ToLower(username)
		existing, err := s.store.GetUserByUsernameLower(ctx, usernameLower)
		if err != nil {
			return nil, fmt.Errorf("check username: %w", err)
		}
		if existing != nil && existing.ID != userID {
			return nil, &ConflictError{Field: "username", Message: "Username already taken."}
		}
		upd.Username = &username
		upd.UsernameLower = &usernameLower
	}

	if in.Password != nil {
		if !ValidPassword(*in.Password) {
			return nil, &ValidationError{passwordPolicyMessage}
		}
		hash, err := HashPassword(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		upd.PasswordHash = &hash
	}

	if err := s.store.UpdateUser(ctx, userID, upd); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, &ConflictError{Field: "username", Message: "Username already taken."}
		}
		return nil, err
	}

	return s.GetProfile(ctx, userID)
}

// DeleteAccount 注销账号，立即且不可恢复
// 关联记录（物品、消息等）不做级联，归属各自的模块策略
func (s *Service) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return err
	}
	log.Printf("[auth] User deleted: %s", userID)
	return nil
}

// ============================================================================
// Admin Bootstrap
// ============================================================================

// EnsureAdminUser 确保管理员账号存在（启动时调用）
//
// isAdmin 无法通过任何自助接口设置，管理员只能由启动引导创建。
// 如果配置了 adminEmail 且数据库中不存在该账号，则自动创建。
func EnsureAdminUser(store UserStore, adminEmail, adminPassword string) error {
	if adminEmail == "" || adminPassword == "" {
		return nil
	}

	ctx := context.Background()
	existing, err := store.GetUserByEmail(ctx, adminEmail)
	if err != nil {
		return fmt.Errorf("check admin user: %w", err)
	}
	if existing != nil {
		log.Printf("[auth] Admin user already exists: %s (%s)", adminEmail, existing.ID)
		return nil
	}

	hash, err := HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:            generateID("usr"),
		Username:      "admin",
		UsernameLower: "admin",
		Email:         adminEmail,
		PasswordHash:  hash,
		Name:          "Admin",
		IsAdmin:       true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := store.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	log.Printf("[auth] Created admin user: %s (%s)", adminEmail, user.ID)
	return nil
}
