package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/models"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/repositories/mocks"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/errors"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/usecases/interactor"
)

const (
	secret  = "test-secret"
	userID  = "5b0c2a64-1f1f-4c8f-9a3e-7d1c7e2a55b4"
	adminID = "9a3e7d1c-55b4-4c8f-8f3b-0f0e1a115b0c"
	goneID  = "0f0e8f3b-1a11-4d43-9db5-0b6f2f1c8f4e"
)

func token(t *testing.T, claims map[string]interface{}) string {
	t.Helper()
	_, tok, err := NewJWTAuth(secret).Encode(claims)
	require.NoError(t, err)
	return tok
}

// echoPrincipal writes the principal the chain resolved.
func echoPrincipal(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	if p.IsAdmin {
		w.Header().Set("X-Admin", "1")
	}
	_, _ = w.Write([]byte(p.UserID))
}

func authRouter(users *interactor.UserInteractor) chi.Router {
	r := chi.NewRouter()
	r.Use(Verifier(NewJWTAuth(secret)), Authenticator)
	if users != nil {
		r.Use(UserValidationMiddleware(users))
	}
	r.Get("/me", echoPrincipal)
	r.With(RequireAdmin).Get("/admin", echoPrincipal)
	return r
}

func TestAuthenticator(t *testing.T) {
	r := authRouter(nil)

	tests := []struct {
		name     string
		prepare  func(req *http.Request)
		path     string
		wantCode int
		wantBody string
		admin    bool
	}{
		{
			name:     "missing token",
			prepare:  func(*http.Request) {},
			path:     "/me",
			wantCode: http.StatusUnauthorized,
		},
		{
			name: "garbage token",
			prepare: func(req *http.Request) {
				req.Header.Set("Authorization", "Bearer not-a-jwt")
			},
			path:     "/me",
			wantCode: http.StatusUnauthorized,
		},
		{
			name: "token without subject",
			prepare: func(req *http.Request) {
				req.Header.Set("Authorization", "Bearer "+token(t, map[string]interface{}{"is_admin": true}))
			},
			path:     "/me",
			wantCode: http.StatusUnauthorized,
		},
		{
			name: "subject is not a uuid",
			prepare: func(req *http.Request) {
				req.Header.Set("Authorization", "Bearer "+token(t, map[string]interface{}{"sub": "u1"}))
			},
			path:     "/me",
			wantCode: http.StatusUnauthorized,
		},
		{
			name: "subject from header",
			prepare: func(req *http.Request) {
				req.Header.Set("Authorization", "Bearer "+token(t, map[string]interface{}{"sub": userID}))
			},
			path:     "/me",
			wantCode: http.StatusOK,
			wantBody: userID,
		},
		{
			name: "userId claim from query",
			prepare: func(req *http.Request) {
				q := req.URL.Query()
				q.Set("jwt", token(t, map[string]interface{}{"userId": adminID}))
				req.URL.RawQuery = q.Encode()
			},
			path:     "/me",
			wantCode: http.StatusOK,
			wantBody: adminID,
		},
		{
			name: "non admin on admin route",
			prepare: func(req *http.Request) {
				req.Header.Set("Authorization", "Bearer "+token(t, map[string]interface{}{"sub": userID, "is_admin": "f"}))
			},
			path:     "/admin",
			wantCode: http.StatusForbidden,
		},
		{
			name: "admin flag as string",
			prepare: func(req *http.Request) {
				req.Header.Set("Authorization", "Bearer "+token(t, map[string]interface{}{"sub": adminID, "is_admin": "t"}))
			},
			path:     "/admin",
			wantCode: http.StatusOK,
			wantBody: adminID,
			admin:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			tt.prepare(req)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
			assert.Equal(t, tt.admin, rec.Header().Get("X-Admin") == "1")
		})
	}
}

func TestUserValidationMiddleware(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockUserRepository(ctrl)
	r := authRouter(interactor.NewUserInteractor(repo))

	repo.EXPECT().GetByID(gomock.Any(), userID).Return(&models.User{ID: userID}, nil)
	repo.EXPECT().GetByID(gomock.Any(), goneID).Return(nil, errors.NewUserNotFoundError(goneID))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, map[string]interface{}{"sub": userID}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, map[string]interface{}{"sub": goneID}))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInternalToken(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	tests := []struct {
		name       string
		configured string
		sent       string
		wantCode   int
	}{
		{name: "matching token", configured: "s3cret", sent: "s3cret", wantCode: http.StatusNoContent},
		{name: "wrong token", configured: "s3cret", sent: "nope", wantCode: http.StatusForbidden},
		{name: "missing header", configured: "s3cret", wantCode: http.StatusForbidden},
		{name: "unset token rejects everything", configured: "", sent: "", wantCode: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/internal", nil)
			if tt.sent != "" {
				req.Header.Set("X-Internal-Token", tt.sent)
			}
			rec := httptest.NewRecorder()
			InternalToken("X-Internal-Token", tt.configured)(ok).ServeHTTP(rec, req)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestRequestLogger(t *testing.T) {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, RequestLogger)
	r.Get("/created", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("ok"))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/created", nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}
