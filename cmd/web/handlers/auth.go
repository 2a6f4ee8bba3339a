package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"depositlink/cmd/web/middleware"
	"depositlink/cmd/web/validator"
	"depositlink/internal/auth"
)

type AuthServiceContract interface {
	Login(ctx context.Context, email, password string) (auth.LoginResult, error)
	SetupTOTP(ctx context.Context, adminID string) (string, string, error)
	VerifyTOTP(ctx context.Context, adminID, code string) (string, error)
}

type Auth struct {
	json *validator.JSON
	auth AuthServiceContract
}

func NewAuth(jsonV *validator.JSON, svc AuthServiceContract) *Auth {
	return &Auth{json: jsonV, auth: svc}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := h.json.Decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		log.Printf("layer=handler component=auth method=Login err=%v", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":        res.Token,
		"otp_required": res.OTPRequired,
	})
}

// SetupOTP provisions a TOTP secret for the authenticated admin. The otpauth
// URL goes in the response once; after the first successful verify the secret
// never leaves the server again.
func (h *Auth) SetupOTP(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing token")
		return
	}
	secret, url, err := h.auth.SetupTOTP(r.Context(), claims.Subject)
	if err != nil {
		log.Printf("layer=handler component=auth method=SetupOTP admin_id=%s err=%v", claims.Subject, err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"secret": secret, "otpauth_url": url})
}

type verifyOTPReq struct {
	Code string `json:"code"`
}

// VerifyOTP exchanges an mfa-scope token plus a valid one-time code for a full
// admin session token.
func (h *Auth) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing token")
		return
	}
	var req verifyOTPReq
	if err := h.json.Decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	tok, err := h.auth.VerifyTOTP(r.Context(), claims.Subject, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCode):
			writeError(w, http.StatusUnauthorized, "invalid one-time code")
		case errors.Is(err, auth.ErrMFANotEnrolled):
			writeError(w, http.StatusConflict, "one-time code not set up")
		default:
			log.Printf("layer=handler component=auth method=VerifyOTP admin_id=%s err=%v", claims.Subject, err)
			writeDomainError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": tok})
}
