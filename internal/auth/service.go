package auth

import (
	"context"
	"errors"
	"log"
	"time"

	"depositlink/kit/db"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

const (
	ScopeAdmin = "admin"
	ScopeMFA   = "mfa"

	totpIssuer = "depositlink"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidCode        = errors.New("invalid one-time code")
	ErrInvalidToken       = errors.New("invalid token")
	ErrMFANotEnrolled     = errors.New("one-time code not set up")
)

type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

type LoginResult struct {
	Token       string
	OTPRequired bool
}

type Service struct {
	repository RepositoryContract
	secret     []byte
	tokenTTL   time.Duration
	mfaTTL     time.Duration
}

func NewService(repo RepositoryContract, secret []byte, tokenTTL time.Duration) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 12 * time.Hour
	}
	return &Service{
		repository: repo,
		secret:     secret,
		tokenTTL:   tokenTTL,
		mfaTTL:     5 * time.Minute,
	}
}

// Bootstrap creates the first admin account from configuration. A no-op when
// any admin already exists.
func (s *Service) Bootstrap(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	n, err := s.repository.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Join(db.ErrInternal, err)
	}
	a := &Admin{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repository.Insert(ctx, a); err != nil {
		log.Printf("layer=service component=auth method=Bootstrap email=%s err=%v", email, err)
		return err
	}
	return nil
}

// Login checks the password. When the account has a one-time code enrolled it
// issues a short-lived mfa-scope token; VerifyTOTP upgrades it.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	a, err := s.repository.GetByEmail(ctx, email)
	if err != nil {
		if db.IsNotFound(err) {
			// Same response as a bad password; don't leak which accounts exist.
			return LoginResult{}, ErrInvalidCredentials
		}
		log.Printf("layer=service component=auth method=Login err=%v", err)
		return LoginResult{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	if a.MFAEnrolled() {
		tok, err := s.issueToken(a.ID, ScopeMFA, s.mfaTTL)
		if err != nil {
			return LoginResult{}, err
		}
		return LoginResult{Token: tok, OTPRequired: true}, nil
	}

	tok, err := s.issueToken(a.ID, ScopeAdmin, s.tokenTTL)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: tok}, nil
}

func (s *Service) SetupTOTP(ctx context.Context, adminID string) (string, string, error) {
	a, err := s.repository.GetByID(ctx, adminID)
	if err != nil {
		log.Printf("layer=service component=auth method=SetupTOTP admin_id=%s err=%v", adminID, err)
		return "", "", err
	}
	key, err := totp.Generate(totp.GenerateOpts{Issuer: totpIssuer, AccountName: a.Email})
	if err != nil {
		return "", "", errors.Join(db.ErrInternal, err)
	}
	if err := s.repository.SetTOTPSecret(ctx, a.ID, key.Secret()); err != nil {
		log.Printf("layer=service component=auth method=SetupTOTP admin_id=%s err=%v", adminID, err)
		return "", "", err
	}
	return key.Secret(), key.URL(), nil
}

func (s *Service) VerifyTOTP(ctx context.Context, adminID, code string) (string, error) {
	a, err := s.repository.GetByID(ctx, adminID)
	if err != nil {
		log.Printf("layer=service component=auth method=VerifyTOTP admin_id=%s err=%v", adminID, err)
		return "", err
	}
	if !a.MFAEnrolled() {
		return "", ErrMFANotEnrolled
	}
	ok, err := totp.ValidateCustom(code, a.TOTPSecret, time.Now(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil || !ok {
		return "", ErrInvalidCode
	}
	return s.issueToken(a.ID, ScopeAdmin, s.tokenTTL)
}

func (s *Service) VerifyToken(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *Service) issueToken(adminID, scope string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    totpIssuer,
			Subject:   adminID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Join(db.ErrInternal, err)
	}
	return tok, nil
}
