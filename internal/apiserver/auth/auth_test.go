package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{JWTSecret: "test-secret", TokenTTL: 6 * time.Hour}
}

// ============================================================================
// 密码哈希
// ============================================================================

func TestHashPassword_Verify(t *testing.T) {
	hash, err := HashPassword("Secret123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "Secret123" {
		t.Fatal("hash must not equal plaintext")
	}
	if !CheckPassword("Secret123", hash) {
		t.Error("correct password rejected")
	}
	if CheckPassword("Secret124", hash) {
		t.Error("wrong password accepted")
	}
}

func TestHashPassword_UniqueSalt(t *testing.T) {
	h1, _ := HashPassword("Secret123")
	h2, _ := HashPassword("Secret123")
	if h1 == h2 {
		t.Error("two hashes of the same password must differ (per-hash salt)")
	}
	if !CheckPassword("Secret123", h1) || !CheckPassword("Secret123", h2) {
		t.Error("both hashes must verify")
	}
}

func TestCheckPassword_CorruptDigest(t *testing.T) {
	// 摘要损坏一律返回 false，不 panic 不报错
	for _, hash := range []string{"", "not-a-bcrypt-hash", "$2a$10$tooshort"} {
		if CheckPassword("Secret123", hash) {
			t.Errorf("corrupt digest %q verified", hash)
		}
	}
}

// ============================================================================
// JWT 令牌
// ============================================================================

func TestGenerateToken_Roundtrip(t *testing.T) {
	cfg := testConfig()
	token, err := GenerateToken(cfg, "usr-abc123", "a@example.com", "alice", "Alice", "img.png", true)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ParseToken(cfg, token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID() != "usr-abc123" {
		t.Errorf("UserID = %q, want usr-abc123", claims.UserID())
	}
	if claims.Email != "a@example.com" || claims.Username != "alice" || claims.Name != "Alice" {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if claims.ProfileImage != "img.png" {
		t.Errorf("ProfileImage = %q, want img.png", claims.ProfileImage)
	}
	if !claims.IsAdmin {
		t.Error("IsAdmin flag lost")
	}
}

func TestParseToken_Missing(t *testing.T) {
	if _, err := ParseToken(testConfig(), ""); !errors.Is(err, ErrTokenMissing) {
		t.Errorf("err = %v, want ErrTokenMissing", err)
	}
}

func TestParseToken_Expired(t *testing.T) {
	cfg := testConfig()
	cfg.TokenTTL = -1 * time.Second
	token, err := GenerateToken(cfg, "usr-abc123", "a@example.com", "alice", "Alice", "", false)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ParseToken(cfg, token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("err = %v, want ErrTokenExpired", err)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken(testConfig(), "usr-abc123", "a@example.com", "alice", "Alice", "", false)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	other := Config{JWTSecret: "other-secret", TokenTTL: 6 * time.Hour}
	if _, err := ParseToken(other, token); !errors.Is(err, ErrTokenMalformed) {
		t.Errorf("err = %v, want ErrTokenMalformed", err)
	}
}

func TestParseToken_Tampered(t *testing.T) {
	cfg := testConfig()
	token, err := GenerateToken(cfg, "usr-abc123", "a@example.com", "alice", "Alice", "", false)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	// 篡改载荷段
	parts := strings.Split(token, ".")
	parts[1] = parts[1][:len(parts[1])-2] + "xx"
	if _, err := ParseToken(cfg, strings.Join(parts, ".")); !errors.Is(err, ErrTokenMalformed) {
		t.Errorf("err = %v, want ErrTokenMalformed", err)
	}
}

func TestParseToken_Garbage(t *testing.T) {
	for _, tok := range []string{"garbage", "a.b.c", "eyJhbGciOiJIUzI1NiJ9"} {
		if _, err := ParseToken(testConfig(), tok); !errors.Is(err, ErrTokenMalformed) {
			t.Errorf("ParseToken(%q) err = %v, want ErrTokenMalformed", tok, err)
		}
	}
}

func TestParseToken_MissingSubject(t *testing.T) {
	// 没有 subject 的令牌不是本服务签发的形状
	cfg := testConfig()
	token, err := GenerateToken(cfg, "", "a@example.com", "alice", "Alice", "", false)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ParseToken(cfg, token); !errors.Is(err, ErrTokenMalformed) {
		t.Errorf("err = %v, want ErrTokenMalformed", err)
	}
}

// ============================================================================
// 输入校验
// ============================================================================

func TestValidEmail(t *testing.T) {
	valid := []string{"a@b.co", "user.name@example.com", "x+y@sub.domain.org"}
	invalid := []string{"", "no-at", "a@b", "a@b.c", "a b@c.de", "@example.com", "a@.com"}

	for _, e := range valid {
		if !ValidEmail(e) {
			t.Errorf("ValidEmail(%q) = false, want true", e)
		}
	}
	for _, e := range invalid {
		if ValidEmail(e) {
			t.Errorf("ValidEmail(%q) = true, want false", e)
		}
	}
}

func TestValidPassword(t *testing.T) {
	tests := []struct {
		password string
		want     bool
	}{
		{"Abc123", true},
		{"Secret1", true},
		{"abc123", false}, // 无大写
		{"ABC123", false}, // 无小写
		{"Abcdef", false}, // 无数字
		{"Ab1", false},    // 太短
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidPassword(tt.password); got != tt.want {
			t.Errorf("ValidPassword(%q) = %v, want %v", tt.password, got, tt.want)
		}
	}
}
