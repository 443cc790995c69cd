package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/tamojuntogames/accounts-api/internal/domain"
	"github.com/tamojuntogames/accounts-api/internal/http/middleware"
	"github.com/tamojuntogames/accounts-api/internal/repository"
	"github.com/tamojuntogames/accounts-api/internal/security"
	"github.com/tamojuntogames/accounts-api/internal/service"
)

type stubUserSvc struct {
	createFn func(ctx context.Context, input service.CreateUserInput) (*domain.User, error)
	updateFn func(ctx context.Context, id uint, input service.UpdateUserInput) (*domain.User, error)
	getFn    func(ctx context.Context, id uint) (*domain.User, error)
	listFn   func(ctx context.Context) ([]domain.User, error)
	deleteFn func(ctx context.Context, id uint) error
}

func (s *stubUserSvc) Create(ctx context.Context, input service.CreateUserInput) (*domain.User, error) {
	return s.createFn(ctx, input)
}

func (s *stubUserSvc) Update(ctx context.Context, id uint, input service.UpdateUserInput) (*domain.User, error) {
	return s.updateFn(ctx, id, input)
}

func (s *stubUserSvc) GetByID(ctx context.Context, id uint) (*domain.User, error) {
	return s.getFn(ctx, id)
}

func (s *stubUserSvc) List(ctx context.Context) ([]domain.User, error) {
	return s.listFn(ctx)
}

func (s *stubUserSvc) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func withClaims(r *http.Request, subject string) *http.Request {
	claims := &security.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
		Email:            "ana@example.com",
		Nickname:         "ana",
	}
	return r.WithContext(context.WithValue(r.Context(), middleware.ClaimsContextKey, claims))
}

func TestCreateUser(t *testing.T) {
	h := NewUserHandler(&stubUserSvc{createFn: func(_ context.Context, input service.CreateUserInput) (*domain.User, error) {
		if input.Email != "ana@example.com" || input.ConfirmEmail != "ana@example.com" {
			t.Fatalf("unexpected input: %+v", input)
		}
		return &domain.User{ID: 12, FullName: input.FullName, Nickname: input.Nickname, Email: input.Email}, nil
	}})

	body := `{"full_name":"Ana Beatriz Souza","nickname":"ana","email":"ana@example.com",` +
		`"confirm_email":"ana@example.com","password":"longenough1","confirm_password":"longenough1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	env := decodeEnvelope(t, rr)
	data, _ := env["data"].(map[string]any)
	if data["id"] != float64(12) {
		t.Fatalf("unexpected id: %v", data["id"])
	}
	if _, hasHash := data["password_hash"]; hasHash {
		t.Fatal("password hash must never appear in responses")
	}
}

func TestCreateUserErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"full name required", service.ErrFullNameRequired, http.StatusBadRequest, "VALIDATION"},
		{"invalid email", service.ErrInvalidEmail, http.StatusBadRequest, "VALIDATION"},
		{"emails mismatch", service.ErrEmailsDoNotMatch, http.StatusBadRequest, "VALIDATION"},
		{"passwords mismatch", service.ErrPasswordsDoNotMatch, http.StatusBadRequest, "VALIDATION"},
		{"password too short", service.ErrPasswordTooShort, http.StatusBadRequest, "VALIDATION"},
		{"email taken", service.ErrEmailTaken, http.StatusConflict, "CONFLICT"},
		{"internal", errors.New("db down"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewUserHandler(&stubUserSvc{createFn: func(context.Context, service.CreateUserInput) (*domain.User, error) {
				return nil, tc.err
			}})
			req := httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(`{"email":"x"}`))
			rr := httptest.NewRecorder()
			h.Create(rr, req)

			if rr.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, rr.Code)
			}
			if code := envelopeErrorCode(t, rr); code != tc.wantCode {
				t.Fatalf("expected code %s, got %s", tc.wantCode, code)
			}
		})
	}
}

func TestGetUser(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		h := NewUserHandler(&stubUserSvc{getFn: func(_ context.Context, id uint) (*domain.User, error) {
			if id != 42 {
				t.Fatalf("unexpected id: %d", id)
			}
			return &domain.User{ID: 42, Email: "ana@example.com"}, nil
		}})
		req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/users/42", nil), "id", "42")
		rr := httptest.NewRecorder()
		h.Get(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
	})

	t.Run("not found", func(t *testing.T) {
		h := NewUserHandler(&stubUserSvc{getFn: func(context.Context, uint) (*domain.User, error) {
			return nil, repository.ErrUserNotFound
		}})
		req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/users/404", nil), "id", "404")
		rr := httptest.NewRecorder()
		h.Get(rr, req)
		if rr.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rr.Code)
		}
		if code := envelopeErrorCode(t, rr); code != "NOT_FOUND" {
			t.Fatalf("expected NOT_FOUND, got %s", code)
		}
	})

	t.Run("invalid id", func(t *testing.T) {
		h := NewUserHandler(&stubUserSvc{getFn: func(context.Context, uint) (*domain.User, error) {
			t.Fatal("service must not be called for invalid id")
			return nil, nil
		}})
		for _, raw := range []string{"abc", "0", "-3", ""} {
			req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/users/"+raw, nil), "id", raw)
			rr := httptest.NewRecorder()
			h.Get(rr, req)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("id %q: expected 400, got %d", raw, rr.Code)
			}
		}
	})
}

func TestListUsers(t *testing.T) {
	h := NewUserHandler(&stubUserSvc{listFn: func(context.Context) ([]domain.User, error) {
		return []domain.User{{ID: 1, Email: "a@example.com"}, {ID: 2, Email: "b@example.com"}}, nil
	}})
	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/api/v1/users", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	env := decodeEnvelope(t, rr)
	data, _ := env["data"].([]any)
	if len(data) != 2 {
		t.Fatalf("expected 2 users, got %d", len(data))
	}
}

func TestUpdateUser(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		h := NewUserHandler(&stubUserSvc{updateFn: func(_ context.Context, id uint, input service.UpdateUserInput) (*domain.User, error) {
			if id != 7 || input.Nickname != "novo" {
				t.Fatalf("unexpected call: id=%d input=%+v", id, input)
			}
			return &domain.User{ID: 7, Nickname: input.Nickname}, nil
		}})
		body := `{"full_name":"Ana Beatriz Souza","nickname":"novo","email":"ana@example.com"}`
		req := withURLParam(httptest.NewRequest(http.MethodPut, "/api/v1/users/7", strings.NewReader(body)), "id", "7")
		rr := httptest.NewRecorder()
		h.Update(rr, withClaims(req, "7"))
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
	})

	t.Run("email conflict", func(t *testing.T) {
		h := NewUserHandler(&stubUserSvc{updateFn: func(context.Context, uint, service.UpdateUserInput) (*domain.User, error) {
			return nil, service.ErrEmailTaken
		}})
		body := `{"full_name":"Ana","nickname":"ana","email":"taken@example.com"}`
		req := withURLParam(httptest.NewRequest(http.MethodPut, "/api/v1/users/7", strings.NewReader(body)), "id", "7")
		rr := httptest.NewRecorder()
		h.Update(rr, req)
		if rr.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rr.Code)
		}
	})
}

func TestDeleteUser(t *testing.T) {
	deleted := uint(0)
	h := NewUserHandler(&stubUserSvc{deleteFn: func(_ context.Context, id uint) error {
		deleted = id
		return nil
	}})
	req := withURLParam(httptest.NewRequest(http.MethodDelete, "/api/v1/users/9", nil), "id", "9")
	rr := httptest.NewRecorder()
	h.Delete(rr, withClaims(req, "9"))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if deleted != 9 {
		t.Fatalf("expected delete of id 9, got %d", deleted)
	}
	env := decodeEnvelope(t, rr)
	data, _ := env["data"].(map[string]any)
	if data["deleted"] != true {
		t.Fatalf("unexpected payload: %+v", env)
	}
}

func TestMe(t *testing.T) {
	t.Run("resolves user from claims", func(t *testing.T) {
		h := NewUserHandler(&stubUserSvc{getFn: func(_ context.Context, id uint) (*domain.User, error) {
			if id != 42 {
				t.Fatalf("unexpected id: %d", id)
			}
			return &domain.User{ID: 42, Email: "ana@example.com"}, nil
		}})
		rr := httptest.NewRecorder()
		h.Me(rr, withClaims(httptest.NewRequest(http.MethodGet, "/api/v1/me", nil), "42"))
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
	})

	t.Run("missing claims", func(t *testing.T) {
		h := NewUserHandler(&stubUserSvc{})
		rr := httptest.NewRecorder()
		h.Me(rr, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("non numeric subject", func(t *testing.T) {
		h := NewUserHandler(&stubUserSvc{})
		rr := httptest.NewRecorder()
		h.Me(rr, withClaims(httptest.NewRequest(http.MethodGet, "/api/v1/me", nil), "not-a-number"))
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
	})
}
