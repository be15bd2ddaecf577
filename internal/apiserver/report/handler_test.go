package report

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"restudied/internal/apiserver/auth"
	"restudied/internal/shared/model"
)

// mockStore 内存版举报存储
type mockStore struct {
	reports map[string]*model.Report
}

func newMockStore() *mockStore {
	return &mockStore{reports: make(map[string]*model.Report)}
}

func (m *mockStore) CreateReport(ctx context.Context, report *model.Report) error {
	cp := *report
	m.reports[report.ID] = &cp
	return nil
}

func (m *mockStore) GetReport(ctx context.Context, id string) (*model.Report, error) {
	report, ok := m.reports[id]
	if !ok {
		return nil, nil
	}
	cp := *report
	return &cp, nil
}

func (m *mockStore) ListReportsByUser(ctx context.Context, reportedUserID string) ([]*model.Report, error) {
	var out []*model.Report
	for _, rp := range m.reports {
		if rp.ReportedUserID == reportedUserID {
			cp := *rp
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockStore) ListReportsByItem(ctx context.Context, itemID string) ([]*model.Report, error) {
	var out []*model.Report
	for _, rp := range m.reports {
		if rp.ItemID == itemID {
			cp := *rp
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockStore) DeleteReport(ctx context.Context, id string) error {
	delete(m.reports, id)
	return nil
}

func (m *mockStore) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*model.User, error) {
	users := make(map[string]*model.User, len(ids))
	for _, id := range ids {
		users[id] = &model.User{ID: id, Username: "user-" + id}
	}
	return users, nil
}

var _ Store = (*mockStore)(nil)

// do 经过 RegisterRoutes 注册的 mux 发请求，连同 AdminOnly 包装一起生效
func do(t *testing.T, h *Handler, method, path, userID string, isAdmin bool, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	r := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		claims := &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: userID}, IsAdmin: isAdmin}
		r = r.WithContext(auth.WithClaims(r.Context(), claims))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, r)
	return rec
}

func reportBody() map[string]string {
	return map[string]string{
		"reported_user_id": "usr-2",
		"item_id":          "itm-1",
		"reason":           string(model.ReasonSpam),
		"message":          "Keeps posting the same item.",
	}
}

func TestCreateReport(t *testing.T) {
	h := NewHandler(newMockStore())

	rec := do(t, h, "POST", "/api/v1/reports", "usr-1", false, reportBody())
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d; body = %s", rec.Code, rec.Body.String())
	}
	var created model.Report
	json.Unmarshal(rec.Body.Bytes(), &created)
	if created.ReporterID != "usr-1" || created.ReportedUserID != "usr-2" {
		t.Errorf("created = %+v", created)
	}
	if created.Reason != model.ReasonSpam {
		t.Errorf("reason = %q", created.Reason)
	}
}

func TestCreateReport_Validation(t *testing.T) {
	h := NewHandler(newMockStore())

	// 缺字段
	body := reportBody()
	body["reason"] = ""
	rec := do(t, h, "POST", "/api/v1/reports", "usr-1", false, body)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing reason: status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Reported user and reason are required.") {
		t.Errorf("body = %s", rec.Body.String())
	}

	// 不能举报自己
	body = reportBody()
	body["reported_user_id"] = "usr-1"
	rec = do(t, h, "POST", "/api/v1/reports", "usr-1", false, body)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("self report: status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "You cannot report yourself.") {
		t.Errorf("body = %s", rec.Body.String())
	}

	// 原因不在枚举内
	for _, reason := range []string{"Dislike", "spam", "other"} {
		body = reportBody()
		body["reason"] = reason
		rec = do(t, h, "POST", "/api/v1/reports", "usr-1", false, body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("reason %q: status = %d, want 400", reason, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Invalid report reason.") {
			t.Errorf("reason %q: body = %s", reason, rec.Body.String())
		}
	}
}

func TestReportQueries_AdminOnly(t *testing.T) {
	h := NewHandler(newMockStore())

	rec := do(t, h, "POST", "/api/v1/reports", "usr-1", false, reportBody())
	var created model.Report
	json.Unmarshal(rec.Body.Bytes(), &created)

	// 普通用户（包括举报人自己）全部拒绝
	paths := []struct {
		method, path string
	}{
		{"GET", "/api/v1/reports/" + created.ID},
		{"GET", "/api/v1/reports/user/usr-2"},
		{"GET", "/api/v1/reports/item/itm-1"},
		{"DELETE", "/api/v1/reports/" + created.ID},
	}
	for _, p := range paths {
		rec := do(t, h, p.method, p.path, "usr-1", false, nil)
		if rec.Code != http.StatusForbidden {
			t.Errorf("%s %s as non-admin: status = %d, want 403", p.method, p.path, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Admin access required") {
			t.Errorf("%s %s: body = %s", p.method, p.path, rec.Body.String())
		}
	}

	// 管理员可读
	rec = do(t, h, "GET", "/api/v1/reports/"+created.ID, "usr-9", true, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("admin get: status = %d; body = %s", rec.Code, rec.Body.String())
	}
}

func TestListReportsByUser_Populated(t *testing.T) {
	h := NewHandler(newMockStore())
	do(t, h, "POST", "/api/v1/reports", "usr-1", false, reportBody())

	rec := do(t, h, "GET", "/api/v1/reports/user/usr-2", "usr-9", true, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; body = %s", rec.Code, rec.Body.String())
	}
	var list []reportResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d reports", len(list))
	}
	if list[0].Reporter == nil || list[0].Reporter.ID != "usr-1" {
		t.Errorf("reporter not populated: %+v", list[0].Reporter)
	}
	if list[0].ReportedUser == nil || list[0].ReportedUser.ID != "usr-2" {
		t.Errorf("reported user not populated: %+v", list[0].ReportedUser)
	}
}

func TestDeleteReport(t *testing.T) {
	store := newMockStore()
	h := NewHandler(store)

	rec := do(t, h, "POST", "/api/v1/reports", "usr-1", false, reportBody())
	var created model.Report
	json.Unmarshal(rec.Body.Bytes(), &created)

	rec = do(t, h, "DELETE", "/api/v1/reports/rpt-missing", "usr-9", true, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing: status = %d, want 404", rec.Code)
	}

	rec = do(t, h, "DELETE", "/api/v1/reports/"+created.ID, "usr-9", true, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d; body = %s", rec.Code, rec.Body.String())
	}
	if rp, _ := store.GetReport(context.Background(), created.ID); rp != nil {
		t.Error("report still present after delete")
	}
}
