package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Nakshatra-thange/smooth/internal/domain"
	"github.com/Nakshatra-thange/smooth/internal/service"
)

type mockUserRepo struct {
	usersByID map[string]domain.User
}

func newMockUserRepo(users ...domain.User) *mockUserRepo {
	repo := &mockUserRepo{usersByID: make(map[string]domain.User)}
	for _, u := range users {
		repo.usersByID[u.ID] = u
	}
	return repo
}

func (m *mockUserRepo) UpsertByWallet(_ context.Context, walletAddress string) (domain.User, error) {
	for _, u := range m.usersByID {
		if u.WalletAddress == walletAddress {
			return u, nil
		}
	}
	user := domain.User{ID: "u-" + walletAddress[:4], WalletAddress: walletAddress, CreatedAt: time.Now().UTC()}
	m.usersByID[user.ID] = user
	return user, nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	user, ok := m.usersByID[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return user, nil
}

func (m *mockUserRepo) UpdatePreferences(_ context.Context, id string, patch map[string]string) (domain.User, error) {
	user, ok := m.usersByID[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	if user.Preferences == nil {
		user.Preferences = make(map[string]string)
	}
	for k, v := range patch {
		user.Preferences[k] = v
	}
	m.usersByID[id] = user
	return user, nil
}

func setupUserRouter(repo *mockUserRepo, jwtSvc *service.JWTService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewUserHandler(zap.NewNop(), repo)
	protected := r.Group("", JWTAuthMiddleware(jwtSvc))
	protected.GET("/user/profile", h.Profile)
	protected.PATCH("/user/preferences", h.UpdatePreferences)
	return r
}

func performAuthedRequest(r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestUserHandlerProfile_Success(t *testing.T) {
	user := domain.User{
		ID:            "u1",
		WalletAddress: testWallet,
		Preferences:   map[string]string{"theme": "dark"},
		CreatedAt:     time.Now().UTC(),
	}
	repo := newMockUserRepo(user)
	jwtSvc := newTestJWTService()
	pair, err := jwtSvc.GeneratePair(user)
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}
	r := setupUserRouter(repo, jwtSvc)

	rec := performAuthedRequest(r, http.MethodGet, "/user/profile", pair.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp struct {
		ID            string            `json:"id"`
		WalletAddress string            `json:"wallet_address"`
		Preferences   map[string]string `json:"preferences"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != "u1" || resp.WalletAddress != testWallet {
		t.Fatalf("unexpected profile: %+v", resp)
	}
	if resp.Preferences["theme"] != "dark" {
		t.Fatalf("expected theme preference, got %v", resp.Preferences)
	}
}

func TestUserHandlerProfile_DefaultsEmptyPreferences(t *testing.T) {
	user := domain.User{ID: "u1", WalletAddress: testWallet, CreatedAt: time.Now().UTC()}
	repo := newMockUserRepo(user)
	jwtSvc := newTestJWTService()
	pair, err := jwtSvc.GeneratePair(user)
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}
	r := setupUserRouter(repo, jwtSvc)

	rec := performAuthedRequest(r, http.MethodGet, "/user/profile", pair.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if string(resp["preferences"]) != "{}" {
		t.Fatalf("expected empty preferences object, got %s", resp["preferences"])
	}
}

func TestUserHandlerProfile_UnknownUser(t *testing.T) {
	user := domain.User{ID: "ghost", WalletAddress: testWallet, CreatedAt: time.Now().UTC()}
	repo := newMockUserRepo()
	jwtSvc := newTestJWTService()
	pair, err := jwtSvc.GeneratePair(user)
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}
	r := setupUserRouter(repo, jwtSvc)

	rec := performAuthedRequest(r, http.MethodGet, "/user/profile", pair.AccessToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestUserHandlerUpdatePreferences_MergesPatch(t *testing.T) {
	user := domain.User{
		ID:            "u1",
		WalletAddress: testWallet,
		Preferences:   map[string]string{"language": "en"},
		CreatedAt:     time.Now().UTC(),
	}
	repo := newMockUserRepo(user)
	jwtSvc := newTestJWTService()
	pair, err := jwtSvc.GeneratePair(user)
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}
	r := setupUserRouter(repo, jwtSvc)

	rec := performAuthedRequest(r, http.MethodPatch, "/user/preferences", pair.AccessToken, map[string]string{
		"theme": "dark",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp struct {
		Preferences map[string]string `json:"preferences"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Preferences["theme"] != "dark" || resp.Preferences["language"] != "en" {
		t.Fatalf("expected merged preferences, got %v", resp.Preferences)
	}
}

func TestUserHandlerUpdatePreferences_RejectsEmptyPatch(t *testing.T) {
	user := domain.User{ID: "u1", WalletAddress: testWallet, CreatedAt: time.Now().UTC()}
	repo := newMockUserRepo(user)
	jwtSvc := newTestJWTService()
	pair, err := jwtSvc.GeneratePair(user)
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}
	r := setupUserRouter(repo, jwtSvc)

	rec := performAuthedRequest(r, http.MethodPatch, "/user/preferences", pair.AccessToken, map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}
