package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"restudied/internal/shared/model"
	"restudied/internal/shared/storage"
)

// mockStore 内存版 UserStore，模拟存储层的唯一索引行为
type mockStore struct {
	users map[string]*model.User // id → user
}

func newMockStore() *mockStore {
	return &mockStore{users: make(map[string]*model.User)}
}

func (m *mockStore) CreateUser(ctx context.Context, user *model.User) error {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) || u.UsernameLower == user.UsernameLower {
			return storage.ErrDuplicate
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *mockStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockStore) GetUserByUsernameLower(ctx context.Context, usernameLower string) (*model.User, error) {
	for _, u := range m.users {
		if u.UsernameLower == usernameLower {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockStore) UpdateUser(ctx context.Context, id string, upd *model.UserUpdate) error {
	u, ok := m.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	if upd.UsernameLower != nil {
		for oid, other := range m.users {
			if oid != id && other.UsernameLower == *upd.UsernameLower {
				return storage.ErrDuplicate
			}
		}
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Username != nil {
		u.Username = *upd.Username
	}
	if upd.UsernameLower != nil {
		u.UsernameLower = *upd.UsernameLower
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	if upd.ProfileImage != nil {
		u.ProfileImage = *upd.ProfileImage
	}
	return nil
}

func (m *mockStore) DeleteUser(ctx context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

var _ UserStore = (*mockStore)(nil)

func validInput() RegisterInput {
	return RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "Secret123",
		Name:     "Alice",
	}
}

func testService(store UserStore) *Service {
	return NewService(store, testConfig())
}

// ============================================================================
// 注册
// ============================================================================

func TestRegister(t *testing.T) {
	store := newMockStore()
	svc := testService(store)

	user, err := svc.Register(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.ID == "" || !strings.HasPrefix(user.ID, "usr-") {
		t.Errorf("ID = %q, want usr- prefix", user.ID)
	}
	if user.UsernameLower != "alice" {
		t.Errorf("UsernameLower = %q", user.UsernameLower)
	}
	if user.PasswordHash == "Secret123" {
		t.Error("password stored in plaintext")
	}
	if !CheckPassword("Secret123", user.PasswordHash) {
		t.Error("stored hash does not verify")
	}
	if user.IsAdmin {
		t.Error("self-registered user must not be admin")
	}
}

func TestRegister_MissingFields(t *testing.T) {
	svc := testService(newMockStore())

	mutations := []func(*RegisterInput){
		func(in *RegisterInput) { in.Username = "" },
		func(in *RegisterInput) { in.Username = "   " }, // 仅空白等同缺失
		func(in *RegisterInput) { in.Email = "" },
		func(in *RegisterInput) { in.Password = "" },
		func(in *RegisterInput) { in.Name = "" },
	}
	for i, mutate := range mutations {
		in := validInput()
		mutate(&in)
		_, err := svc.Register(context.Background(), in)
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("case %d: err = %v, want ValidationError", i, err)
			continue
		}
		if ve.Message != "Provide username, name, email, and password" {
			t.Errorf("case %d: message = %q", i, ve.Message)
		}
	}
}

func TestRegister_InvalidEmail(t *testing.T) {
	svc := testService(newMockStore())
	in := validInput()
	in.Email = "not-an-email"
	_, err := svc.Register(context.Background(), in)
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Message != "Provide a valid email address." {
		t.Errorf("err = %v, want email validation error", err)
	}
}

func TestRegister_WeakPassword(t *testing.T) {
	svc := testService(newMockStore())
	for _, pw := range []string{"short", "alllower1", "ALLUPPER1", "NoDigits"} {
		in := validInput()
		in.Password = pw
		_, err := svc.Register(context.Background(), in)
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("password %q: err = %v, want ValidationError", pw, err)
		}
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := testService(newMockStore())
	if _, err := svc.Register(context.Background(), validInput()); err != nil {
		t.Fatalf("first register: %v", err)
	}

	in := validInput()
	in.Username = "bob"
	_, err := svc.Register(context.Background(), in)
	var ce *ConflictError
	if !errors.As(err, &ce) || ce.Message != "Email already exists." {
		t.Errorf("err = %v, want email conflict", err)
	}
}

func TestRegister_DuplicateUsername_CaseInsensitive(t *testing.T) {
	svc := testService(newMockStore())
	if _, err := svc.Register(context.Background(), validInput()); err != nil {
		t.Fatalf("first register: %v", err)
	}

	in := validInput()
	in.Email = "other@example.com"
	in.Username = "ALICE"
	_, err := svc.Register(context.Background(), in)
	var ce *ConflictError
	if !errors.As(err, &ce) || ce.Message != "Username already taken." {
		t.Errorf("err = %v, want username conflict", err)
	}
}

// ============================================================================
// 登录
// ============================================================================

func TestAuthenticate(t *testing.T) {
	svc := testService(newMockStore())
	registered, err := svc.Register(context.Background(), validInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	token, claims, err := svc.Authenticate(context.Background(), "alice@example.com", "Secret123")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if token == "" {
		t.Error("empty token")
	}
	if claims.UserID() != registered.ID {
		t.Errorf("claims subject = %q, want %q", claims.UserID(), registered.ID)
	}
	if claims.Email != "alice@example.com" || claims.Username != "alice" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestAuthenticate_CaseInsensitiveEmail(t *testing.T) {
	svc := testService(newMockStore())
	if _, err := svc.Register(context.Background(), validInput()); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, _, err := svc.Authenticate(context.Background(), "ALICE@EXAMPLE.COM", "Secret123"); err != nil {
		t.Errorf("uppercase email rejected: %v", err)
	}
}

func TestAuthenticate_Failures(t *testing.T) {
	svc := testService(newMockStore())
	if _, err := svc.Register(context.Background(), validInput()); err != nil {
		t.Fatalf("register: %v", err)
	}

	// 账号不存在与密码错误必须返回同一个错误
	_, _, errUnknown := svc.Authenticate(context.Background(), "nobody@example.com", "Secret123")
	_, _, errWrongPw := svc.Authenticate(context.Background(), "alice@example.com", "Wrong123")

	if !errors.Is(errUnknown, ErrInvalidCredentials) {
		t.Errorf("unknown email: err = %v, want ErrInvalidCredentials", errUnknown)
	}
	if !errors.Is(errWrongPw, ErrInvalidCredentials) {
		t.Errorf("wrong password: err = %v, want ErrInvalidCredentials", errWrongPw)
	}
}

// ============================================================================
// 资料更新
// ============================================================================

func TestUpdateProfile(t *testing.T) {
	store := newMockStore()
	svc := testService(store)
	user, err := svc.Register(context.Background(), validInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	name := "Alice B"
	updated, err := svc.UpdateProfile(context.Background(), user.ID, UpdateInput{Name: &name})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.Name != "Alice B" {
		t.Errorf("Name = %q", updated.Name)
	}
	// ProfileImage 未提供时保留原值
	if updated.Username != "alice" {
		t.Errorf("Username changed unexpectedly: %q", updated.Username)
	}
}

func TestUpdateProfile_PreservesProfileImage(t *testing.T) {
	svc := testService(newMockStore())
	in := validInput()
	in.ProfileImage = "avatar.png"
	user, err := svc.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	name := "New Name"
	updated, err := svc.UpdateProfile(context.Background(), user.ID, UpdateInput{Name: &name})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.ProfileImage != "avatar.png" {
		t.Errorf("ProfileImage = %q, want avatar.png", updated.ProfileImage)
	}
}

func TestUpdateProfile_UsernameConflict(t *testing.T) {
	svc := testService(newMockStore())
	if _, err := svc.Register(context.Background(), validInput()); err != nil {
		t.Fatalf("register alice: %v", err)
	}
	bobIn := RegisterInput{Username: "bob", Email: "bob@example.com", Password: "Secret123", Name: "Bob"}
	bob, err := svc.Register(context.Background(), bobIn)
	if err != nil {
		t.Fatalf("register bob: %v", err)
	}

	taken := "Alice"
	_, err = svc.UpdateProfile(context.Background(), bob.ID, UpdateInput{Username: &taken})
	var ce *ConflictError
	if !errors.As(err, &ce) || ce.Message != "Username already taken." {
		t.Errorf("err = %v, want username conflict", err)
	}

	// 改成自己现用的用户名不算冲突
	own := "Bob"
	if _, err := svc.UpdateProfile(context.Background(), bob.ID, UpdateInput{Username: &own}); err != nil {
		t.Errorf("renaming to own username: %v", err)
	}
}

func TestUpdateProfile_PasswordRehash(t *testing.T) {
	svc := testService(newMockStore())
	user, err := svc.Register(context.Background(), validInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	weak := "weak"
	if _, err := svc.UpdateProfile(context.Background(), user.ID, UpdateInput{Password: &weak}); err == nil {
		t.Error("weak password accepted on update")
	}

	strong := "NewSecret1"
	if _, err := svc.UpdateProfile(context.Background(), user.ID, UpdateInput{Password: &strong}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	// 旧密码失效，新密码生效
	if _, _, err := svc.Authenticate(context.Background(), "alice@example.com", "Secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Error("old password still works")
	}
	if _, _, err := svc.Authenticate(context.Background(), "alice@example.com", "NewSecret1"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
}

func TestUpdateProfile_NotFound(t *testing.T) {
	svc := testService(newMockStore())
	name := "X"
	_, err := svc.UpdateProfile(context.Background(), "usr-missing", UpdateInput{Name: &name})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// ============================================================================
// 注销与管理员引导
// ============================================================================

func TestDeleteAccount(t *testing.T) {
	store := newMockStore()
	svc := testService(store)
	user, err := svc.Register(context.Background(), validInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.DeleteAccount(context.Background(), user.ID); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if _, err := svc.GetProfile(context.Background(), user.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("profile after delete: err = %v, want ErrNotFound", err)
	}
	// 凭证随账号失效
	if _, _, err := svc.Authenticate(context.Background(), "alice@example.com", "Secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("login after delete: err = %v, want ErrInvalidCredentials", err)
	}
}

func TestEnsureAdminUser(t *testing.T) {
	store := newMockStore()

	if err := EnsureAdminUser(store, "admin@example.com", "Admin123"); err != nil {
		t.Fatalf("EnsureAdminUser: %v", err)
	}
	admin, err := store.GetUserByEmail(context.Background(), "admin@example.com")
	if err != nil || admin == nil {
		t.Fatalf("admin not created: %v", err)
	}
	if !admin.IsAdmin {
		t.Error("bootstrap user must be admin")
	}

	// 幂等：重复调用不报错不重复创建
	if err := EnsureAdminUser(store, "admin@example.com", "Admin123"); err != nil {
		t.Fatalf("second EnsureAdminUser: %v", err)
	}
	if len(store.users) != 1 {
		t.Errorf("users = %d, want 1", len(store.users))
	}

	// 未配置时静默跳过
	empty := newMockStore()
	if err := EnsureAdminUser(empty, "", ""); err != nil {
		t.Fatalf("EnsureAdminUser with empty config: %v", err)
	}
	if len(empty.users) != 0 {
		t.Error("no user expected without config")
	}
}
