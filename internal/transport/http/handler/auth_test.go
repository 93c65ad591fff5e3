package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/askaruly/shop-auth/internal/domain"
	"github.com/askaruly/shop-auth/internal/transport/http/handler"
	"github.com/askaruly/shop-auth/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeAuthUsecase implements the unexported authUsecaser interface via method matching.
type fakeAuthUsecase struct {
	requestCode   func(ctx context.Context, phone string) error
	confirmCode   func(ctx context.Context, phone, code string) (string, error)
	profile       func(ctx context.Context, phone string) (*domain.User, error)
	updateProfile func(ctx context.Context, phone string, update domain.ProfileUpdate) (*domain.User, error)
}

func (f *fakeAuthUsecase) RequestCode(ctx context.Context, phone string) error {
	return f.requestCode(ctx, phone)
}

func (f *fakeAuthUsecase) ConfirmCode(ctx context.Context, phone, code string) (string, error) {
	return f.confirmCode(ctx, phone, code)
}

func (f *fakeAuthUsecase) Profile(ctx context.Context, phone string) (*domain.User, error) {
	return f.profile(ctx, phone)
}

func (f *fakeAuthUsecase) UpdateProfile(ctx context.Context, phone string, update domain.ProfileUpdate) (*domain.User, error) {
	return f.updateProfile(ctx, phone, update)
}

func newTestEngine(uc *fakeAuthUsecase) *gin.Engine {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	h := handler.NewAuthHandler(uc, logger)

	r := gin.New()
	r.POST("/auth/entry", h.Entry)
	r.POST("/auth/confirm", h.Confirm)

	// Bearer middleware is exercised separately; here the phone is injected directly.
	setPhone := func(c *gin.Context) { c.Set(middleware.PhoneKey, "+10000000001") }
	r.GET("/auth/me", setPhone, h.Me)
	r.PUT("/auth/me", setPhone, h.UpdateMe)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

// ---- Entry ----

func TestEntry_InvalidJSON_Returns400(t *testing.T) {
	w := postJSON(t, newTestEngine(&fakeAuthUsecase{}), "/auth/entry", `{bad json}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestEntry_NonE164Phone_Returns400(t *testing.T) {
	w := postJSON(t, newTestEngine(&fakeAuthUsecase{}), "/auth/entry", `{"phone_number":"not-a-phone"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestEntry_Success_NeverEchoesCode(t *testing.T) {
	uc := &fakeAuthUsecase{
		requestCode: func(_ context.Context, _ string) error { return nil },
	}
	w := postJSON(t, newTestEngine(uc), "/auth/entry", `{"phone_number":"+10000000001"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		Status  string  `json:"status"`
		Message string  `json:"message"`
		Token   *string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.Status != "success" {
		t.Errorf("status field = %q, want success", resp.Status)
	}
	if resp.Token != nil {
		t.Errorf("token = %v, want null", *resp.Token)
	}
}

func TestEntry_UsecaseError_Returns500(t *testing.T) {
	uc := &fakeAuthUsecase{
		requestCode: func(_ context.Context, _ string) error { return errors.New("db down") },
	}
	w := postJSON(t, newTestEngine(uc), "/auth/entry", `{"phone_number":"+10000000001"}`)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

// ---- Confirm ----

func confirmWith(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	uc := &fakeAuthUsecase{
		confirmCode: func(_ context.Context, _, _ string) (string, error) { return "", err },
	}
	return postJSON(t, newTestEngine(uc), "/auth/confirm",
		`{"phone_number":"+10000000001","verification_code":"123456"}`)
}

func TestConfirm_Success_ReturnsToken(t *testing.T) {
	uc := &fakeAuthUsecase{
		confirmCode: func(_ context.Context, phone, code string) (string, error) {
			if phone != "+10000000001" || code != "123456" {
				t.Errorf("confirm called with (%q, %q)", phone, code)
			}
			return "signed.jwt.token", nil
		},
	}
	w := postJSON(t, newTestEngine(uc), "/auth/confirm",
		`{"phone_number":"+10000000001","verification_code":"123456"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "signed.jwt.token") {
		t.Errorf("body %q does not carry the bearer token", w.Body.String())
	}
}

func TestConfirm_FailureMapping(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"unknown user", domain.ErrUserNotFound, 400, "You are not registered"},
		{"missing code", domain.ErrCodeNotFound, 400, "Code does not exist"},
		{"wrong owner", domain.ErrCodeOwnerMismatch, 400, "not correct"},
		{"expired", domain.ErrCodeExpired, 400, "expired"},
		{"inactive", domain.ErrUserInactive, 400, "not allowed"},
		{"store failure", errors.New("pg down"), 500, "Internal server error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := confirmWith(t, tc.err)
			if w.Code != tc.status {
				t.Errorf("status = %d, want %d", w.Code, tc.status)
			}
			if !strings.Contains(w.Body.String(), tc.message) {
				t.Errorf("body %q does not contain %q", w.Body.String(), tc.message)
			}
		})
	}
}

func TestConfirm_MissingCodeField_Returns400(t *testing.T) {
	w := postJSON(t, newTestEngine(&fakeAuthUsecase{}), "/auth/confirm", `{"phone_number":"+10000000001"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

// ---- Me ----

func TestMe_ReturnsProfile(t *testing.T) {
	email := "user@example.com"
	uc := &fakeAuthUsecase{
		profile: func(_ context.Context, phone string) (*domain.User, error) {
			return &domain.User{PhoneNumber: phone, Email: &email, Active: true}, nil
		},
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	newTestEngine(uc).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "+10000000001") || !strings.Contains(w.Body.String(), email) {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestUpdateMe_OnlyEmailAndNameMutable(t *testing.T) {
	var captured domain.ProfileUpdate
	uc := &fakeAuthUsecase{
		updateProfile: func(_ context.Context, _ string, update domain.ProfileUpdate) (*domain.User, error) {
			captured = update
			return &domain.User{PhoneNumber: "+10000000001", Email: update.Email, Name: update.Name, Active: true}, nil
		},
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/auth/me",
		strings.NewReader(`{"email":"new@example.com","name":"New Name"}`))
	req.Header.Set("Content-Type", "application/json")
	newTestEngine(uc).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if captured.Email == nil || *captured.Email != "new@example.com" {
		t.Errorf("email not applied: %+v", captured)
	}
	if captured.Name == nil || *captured.Name != "New Name" {
		t.Errorf("name not applied: %+v", captured)
	}
}

func TestUpdateMe_InvalidEmail_Returns400(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/auth/me",
		strings.NewReader(`{"email":"not-an-email"}`))
	req.Header.Set("Content-Type", "application/json")
	newTestEngine(&fakeAuthUsecase{}).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
