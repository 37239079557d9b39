package auth

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenPurpose scopes a token to a single flow. Verification requires the
// purpose embedded in the signed payload to match, so a confirmation token
// can never be redeemed as, say, a password reset.
type TokenPurpose string

const (
	TokenPurposeConfirm     TokenPurpose = "confirm"
	TokenPurposeReset       TokenPurpose = "reset"
	TokenPurposeChangeEmail TokenPurpose = "change_email"
	TokenPurposeAuth        TokenPurpose = "auth"
)

// Claims is the signed token payload.
type Claims struct {
	Purpose  TokenPurpose `json:"purpose"`
	UserID   int64        `json:"user_id"`
	NewEmail string       `json:"new_email,omitempty"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies stateless, expiring HS256 tokens. There
// is no server-side token table: validity rests entirely on the signature
// and the expiry window, trading revocability for short TTLs.
type TokenService struct {
	Secret     []byte
	DefaultTTL time.Duration
	Now        func() time.Time
}

func NewTokenService(secret string, defaultTTL time.Duration) *TokenService {
	if defaultTTL <= 0 {
		defaultTTL = time.Hour
	}
	return &TokenService{
		Secret:     []byte(secret),
		DefaultTTL: defaultTTL,
		Now:        time.Now,
	}
}

// Issue signs a token for the given purpose and subject with the default TTL.
func (s *TokenService) Issue(purpose TokenPurpose, userID int64) (string, error) {
	return s.IssueWithTTL(purpose, userID, s.DefaultTTL)
}

// IssueWithTTL signs a token with an explicit lifetime, used by the API
// token endpoint where the TTL is configurable per call.
func (s *TokenService) IssueWithTTL(purpose TokenPurpose, userID int64, ttl time.Duration) (string, error) {
	return s.sign(&Claims{Purpose: purpose, UserID: userID}, ttl)
}

// IssueEmailChange signs a change_email token that carries the requested
// address. Redemption must re-check the address is still unregistered.
func (s *TokenService) IssueEmailChange(userID int64, newEmail string) (string, error) {
	return s.sign(&Claims{Purpose: TokenPurposeChangeEmail, UserID: userID, NewEmail: newEmail}, s.DefaultTTL)
}

func (s *TokenService) sign(claims *Claims, ttl time.Duration) (string, error) {
	now := s.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   strconv.FormatInt(claims.UserID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.Secret)
}

// Verify checks signature, expiry, and purpose. Every failure collapses to
// ErrInvalidToken so callers cannot leak which check rejected the token.
// The expiry instant itself counts as expired.
func (s *TokenService) Verify(tokenString string, expected TokenPurpose) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.Now))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Purpose != expected {
		return nil, ErrInvalidToken
	}
	if claims.ExpiresAt == nil || !s.Now().Before(claims.ExpiresAt.Time) {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// VerifySubject is Verify plus a check that the token was issued for the
// expected account, for flows where the caller already knows the subject.
func (s *TokenService) VerifySubject(tokenString string, expected TokenPurpose, userID int64) (*Claims, error) {
	claims, err := s.Verify(tokenString, expected)
	if err != nil {
		return nil, err
	}
	if claims.UserID != userID {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// EncodeResetCredential wraps the reset token together with the account
// email so the reset page is self-describing and needs no token lookup
// table. The wrapper is encoded, not encrypted: the email is not a secret
// here, the signed token inside is what grants the reset.
func EncodeResetCredential(email, token string) string {
	return base64.URLEncoding.EncodeToString([]byte(email + ":" + token))
}

// DecodeResetCredential reverses EncodeResetCredential.
func DecodeResetCredential(credential string) (email, token string, err error) {
	raw, err := base64.URLEncoding.DecodeString(credential)
	if err != nil {
		return "", "", ErrInvalidToken
	}
	parts := strings.SplitN(string(raw), ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", ErrInvalidToken
	}
	return parts[0], parts[1], nil
}
