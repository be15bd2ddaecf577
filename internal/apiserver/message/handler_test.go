package message

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"restudied/internal/apiserver/auth"
	"restudied/internal/shared/model"
)

// mockStore 内存版私信存储
type mockStore struct {
	messages map[string]*model.Message
}

func newMockStore() *mockStore {
	return &mockStore{messages: make(map[string]*model.Message)}
}

func (m *mockStore) CreateMessage(ctx context.Context, msg *model.Message) error {
	cp := *msg
	m.messages[msg.ID] = &cp
	return nil
}

func (m *mockStore) GetMessage(ctx context.Context, id string) (*model.Message, error) {
	msg, ok := m.messages[id]
	if !ok {
		return nil, nil
	}
	cp := *msg
	return &cp, nil
}

func (m *mockStore) ListMessagesByUser(ctx context.Context, userID string) ([]*model.Message, error) {
	var out []*model.Message
	for _, msg := range m.messages {
		if msg.SenderID == userID || msg.ReceiverID == userID {
			cp := *msg
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockStore) ListMessagesByItem(ctx context.Context, itemID string) ([]*model.Message, error) {
	var out []*model.Message
	for _, msg := range m.messages {
		if msg.ItemID == itemID {
			cp := *msg
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *mockStore) DeleteMessage(ctx context.Context, id string) error {
	delete(m.messages, id)
	return nil
}

func (m *mockStore) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*model.User, error) {
	users := make(map[string]*model.User, len(ids))
	for _, id := range ids {
		users[id] = &model.User{ID: id, Username: "user-" + id}
	}
	return users, nil
}

func (m *mockStore) GetItemsByIDs(ctx context.Context, ids []string) (map[string]*model.Item, error) {
	items := make(map[string]*model.Item, len(ids))
	for _, id := range ids {
		items[id] = &model.Item{ID: id, Title: "item-" + id}
	}
	return items, nil
}

var _ Store = (*mockStore)(nil)

func do(t *testing.T, h *Handler, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
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
		claims := &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: userID}}
		r = r.WithContext(auth.WithClaims(r.Context(), claims))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, r)
	return rec
}

func msgBody() map[string]string {
	return map[string]string{
		"receiver_id": "usr-2",
		"item_id":     "itm-1",
		"content":     "Is this still available?",
	}
}

func TestCreateMessage(t *testing.T) {
	h := NewHandler(newMockStore())

	rec := do(t, h, "POST", "/api/v1/messages", "usr-1", msgBody())
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d; body = %s", rec.Code, rec.Body.String())
	}
	var created model.Message
	json.Unmarshal(rec.Body.Bytes(), &created)
	if created.SenderID != "usr-1" || created.ReceiverID != "usr-2" {
		t.Errorf("created = %+v", created)
	}
}

func TestCreateMessage_Validation(t *testing.T) {
	h := NewHandler(newMockStore())

	// 缺字段
	body := msgBody()
	body["content"] = ""
	rec := do(t, h, "POST", "/api/v1/messages", "usr-1", body)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "All fields are required.") {
		t.Errorf("body = %s", rec.Body.String())
	}

	// 超长
	body = msgBody()
	body["content"] = strings.Repeat("a", model.MaxMessageLength+1)
	rec = do(t, h, "POST", "/api/v1/messages", "usr-1", body)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("too long: status = %d, want 400", rec.Code)
	}
}

func TestListItemMessages_EmptyIs404(t *testing.T) {
	h := NewHandler(newMockStore())
	rec := do(t, h, "GET", "/api/v1/messages/item/itm-1", "usr-1", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No messages found for this item.") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestListItemMessages_Populated(t *testing.T) {
	h := NewHandler(newMockStore())
	do(t, h, "POST", "/api/v1/messages", "usr-1", msgBody())

	rec := do(t, h, "GET", "/api/v1/messages/item/itm-1", "usr-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var list []messageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d messages", len(list))
	}
	if list[0].Sender == nil || list[0].Sender.ID != "usr-1" {
		t.Errorf("sender not populated: %+v", list[0].Sender)
	}
	if list[0].Item == nil || list[0].Item.ID != "itm-1" {
		t.Errorf("item not populated: %+v", list[0].Item)
	}
}

func TestDeleteMessage_SenderOnly(t *testing.T) {
	store := newMockStore()
	h := NewHandler(store)

	rec := do(t, h, "POST", "/api/v1/messages", "usr-1", msgBody())
	var created model.Message
	json.Unmarshal(rec.Body.Bytes(), &created)

	// 接收方也不能删
	rec = do(t, h, "DELETE", "/api/v1/messages/"+created.ID, "usr-2", nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("receiver delete: status = %d, want 403", rec.Code)
	}

	rec = do(t, h, "DELETE", "/api/v1/messages/"+created.ID, "usr-1", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("sender delete: status = %d, want 200", rec.Code)
	}
	if msg, _ := store.GetMessage(context.Background(), created.ID); msg != nil {
		t.Error("message still present after delete")
	}
}
