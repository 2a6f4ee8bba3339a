package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"depositlink/cmd/web/middleware"
	"depositlink/cmd/web/validator"
	"depositlink/internal/auth"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type authServiceMock struct{ mock.Mock }

func (m *authServiceMock) Login(ctx context.Context, email, password string) (auth.LoginResult, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(auth.LoginResult), args.Error(1)
}

func (m *authServiceMock) SetupTOTP(ctx context.Context, adminID string) (string, string, error) {
	args := m.Called(ctx, adminID)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *authServiceMock) VerifyTOTP(ctx context.Context, adminID, code string) (string, error) {
	args := m.Called(ctx, adminID, code)
	return args.String(0), args.Error(1)
}

func jsonReq(t *testing.T, method, url string, body any) *http.Request {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, url, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestAuth_Login(t *testing.T) {
	t.Run("bad credentials return 401", func(t *testing.T) {
		svc := new(authServiceMock)
		svc.On("Login", mock.Anything, "admin@clinic.test", "nope").Return(auth.LoginResult{}, auth.ErrInvalidCredentials)
		h := NewAuth(validator.NewJSON(), svc)

		rr := httptest.NewRecorder()
		h.Login(rr, jsonReq(t, http.MethodPost, "/auth/login", loginReq{Email: "admin@clinic.test", Password: "nope"}))
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("mfa enrolled returns otp_required", func(t *testing.T) {
		svc := new(authServiceMock)
		svc.On("Login", mock.Anything, "admin@clinic.test", "pw").Return(auth.LoginResult{Token: "mfa-token", OTPRequired: true}, nil)
		h := NewAuth(validator.NewJSON(), svc)

		rr := httptest.NewRecorder()
		h.Login(rr, jsonReq(t, http.MethodPost, "/auth/login", loginReq{Email: "admin@clinic.test", Password: "pw"}))
		require.Equal(t, http.StatusOK, rr.Code)

		var got map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		require.Equal(t, "mfa-token", got["token"])
		require.Equal(t, true, got["otp_required"])
	})
}

func TestAuth_VerifyOTP(t *testing.T) {
	// Middleware stashes claims in the request context; build one by hand.
	verifier := &staticVerifier{claims: &auth.Claims{Scope: auth.ScopeMFA}}
	verifier.claims.Subject = "a1"

	t.Run("invalid code returns 401", func(t *testing.T) {
		svc := new(authServiceMock)
		svc.On("VerifyTOTP", mock.Anything, "a1", "000000").Return("", auth.ErrInvalidCode)
		h := NewAuth(validator.NewJSON(), svc)

		rr := httptest.NewRecorder()
		wrapped := middleware.RequireMFA(verifier, h.VerifyOTP)
		req := jsonReq(t, http.MethodPost, "/auth/otp/verify", verifyOTPReq{Code: "000000"})
		req.Header.Set("Authorization", "Bearer any")
		wrapped(rr, req)
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("valid code upgrades to admin token", func(t *testing.T) {
		svc := new(authServiceMock)
		svc.On("VerifyTOTP", mock.Anything, "a1", "123456").Return("admin-token", nil)
		h := NewAuth(validator.NewJSON(), svc)

		rr := httptest.NewRecorder()
		wrapped := middleware.RequireMFA(verifier, h.VerifyOTP)
		req := jsonReq(t, http.MethodPost, "/auth/otp/verify", verifyOTPReq{Code: "123456"})
		req.Header.Set("Authorization", "Bearer any")
		wrapped(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		var got map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		require.Equal(t, "admin-token", got["token"])
	})

	t.Run("missing bearer returns 401", func(t *testing.T) {
		h := NewAuth(validator.NewJSON(), new(authServiceMock))
		rr := httptest.NewRecorder()
		wrapped := middleware.RequireMFA(verifier, h.VerifyOTP)
		wrapped(rr, jsonReq(t, http.MethodPost, "/auth/otp/verify", verifyOTPReq{Code: "123456"}))
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestMiddleware_ScopeEnforcement(t *testing.T) {
	next := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }

	t.Run("mfa token cannot reach admin routes", func(t *testing.T) {
		v := &staticVerifier{claims: &auth.Claims{Scope: auth.ScopeMFA}}
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/dashboard/funnel", nil)
		req.Header.Set("Authorization", "Bearer any")
		middleware.RequireAdmin(v, next)(rr, req)
		require.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("admin token passes mfa routes", func(t *testing.T) {
		v := &staticVerifier{claims: &auth.Claims{Scope: auth.ScopeAdmin}}
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/otp/setup", nil)
		req.Header.Set("Authorization", "Bearer any")
		middleware.RequireMFA(v, next)(rr, req)
		require.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("garbage token returns 401", func(t *testing.T) {
		v := &staticVerifier{err: auth.ErrInvalidToken}
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/dashboard/funnel", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		middleware.RequireAdmin(v, next)(rr, req)
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

type staticVerifier struct {
	claims *auth.Claims
	err    error
}

func (v *staticVerifier) VerifyToken(token string) (*auth.Claims, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.claims, nil
}
