package auth

import (
	"time"
)

// Service authenticates callers by password or token and issues API auth
// tokens. It holds no request state: every call resolves against the
// repository and the token service.
type Service struct {
	repo         CredentialRepository
	tokens       *TokenService
	authTokenTTL time.Duration
}

func NewService(repo CredentialRepository, tokens *TokenService, authTokenTTL time.Duration) *Service {
	if authTokenTTL <= 0 {
		authTokenTTL = time.Hour
	}
	return &Service{
		repo:         repo,
		tokens:       tokens,
		authTokenTTL: authTokenTTL,
	}
}

// Tokens exposes the underlying token service for flows that issue
// non-auth tokens (confirmation, reset, email change).
func (s *Service) Tokens() *TokenService {
	return s.tokens
}

// AuthenticateBasic verifies an email and password pair. Any failure,
// unknown email or wrong password alike, returns ErrInvalidCredentials.
func (s *Service) AuthenticateBasic(email, password string) (*Account, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	userID, passwordHash, err := s.repo.GetCredentials(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := VerifyPassword(passwordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	account, err := s.repo.GetAccount(userID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	return account, nil
}

// AuthenticateToken resolves a bearer token to its account.
func (s *Service) AuthenticateToken(tokenString string) (*Account, error) {
	claims, err := s.tokens.Verify(tokenString, TokenPurposeAuth)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	account, err := s.repo.GetAccount(claims.UserID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	return account, nil
}

// IssueAuthToken returns a fresh auth token and its lifetime in seconds.
// A caller that authenticated with a token cannot mint another one, which
// would otherwise extend a stolen token's life indefinitely.
func (s *Service) IssueAuthToken(account *Account, tokenUsed bool) (string, int64, error) {
	if account == nil {
		return "", 0, ErrInvalidCredentials
	}
	if tokenUsed {
		return "", 0, ErrTokenChaining
	}

	token, err := s.tokens.IssueWithTTL(TokenPurposeAuth, account.ID, s.authTokenTTL)
	if err != nil {
		return "", 0, err
	}
	return token, TokenExpiration(s.authTokenTTL), nil
}

// AccountByID loads the account for a known user id, used by middleware
// after token verification.
func (s *Service) AccountByID(userID int64) (*Account, error) {
	return s.repo.GetAccount(userID)
}
