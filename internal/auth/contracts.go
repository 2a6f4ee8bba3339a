package auth

import "context"

// RepositoryContract defines admin account persistence responsibility.
type RepositoryContract interface {
	Insert(ctx context.Context, a *Admin) error
	GetByEmail(ctx context.Context, email string) (*Admin, error)
	GetByID(ctx context.Context, id string) (*Admin, error)
	SetTOTPSecret(ctx context.Context, id, secret string) error
	Count(ctx context.Context) (int, error)
}

// ServiceContract defines the admin sign-in responsibility.
type ServiceContract interface {
	Login(ctx context.Context, email, password string) (LoginResult, error)
	SetupTOTP(ctx context.Context, adminID string) (secret, otpauthURL string, err error)
	VerifyTOTP(ctx context.Context, adminID, code string) (string, error)
	VerifyToken(token string) (*Claims, error)
}
