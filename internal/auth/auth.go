package auth

import (
	"context"
	"errors"
	"time"
)

// Permission is a single capability bit. Roles hold an OR-composed set of
// them; a role satisfies a permission check only when every requested bit
// is present.
type Permission uint8

const (
	PermissionFollow   Permission = 0x01
	PermissionComment  Permission = 0x02
	PermissionWrite    Permission = 0x04
	PermissionModerate Permission = 0x08
	PermissionAdmin    Permission = 0x80
)

// AllPermissions is the full bitset, including bits not yet defined, so an
// administrator role keeps covering permissions added later.
const AllPermissions Permission = 0xff

func (p Permission) String() string {
	switch p {
	case PermissionFollow:
		return "follow"
	case PermissionComment:
		return "comment"
	case PermissionWrite:
		return "write"
	case PermissionModerate:
		return "moderate"
	case PermissionAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Role is a named bundle of permission bits. Exactly one role carries the
// default flag; it is assigned to new accounts that match no special rule.
type Role struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Permissions Permission `json:"permissions"`
	IsDefault   bool       `json:"is_default"`
}

func (r *Role) Has(p Permission) bool {
	return r.Permissions&p == p
}

func (r *Role) Add(p Permission) {
	r.Permissions |= p
}

func (r *Role) Remove(p Permission) {
	r.Permissions &^= p
}

func (r *Role) ResetPermissions() {
	r.Permissions = 0
}

// CanonicalRoles returns the three roles the seeder upserts by name.
func CanonicalRoles() []Role {
	return []Role{
		{Name: "User", Permissions: PermissionFollow | PermissionComment | PermissionWrite, IsDefault: true},
		{Name: "Moderator", Permissions: PermissionFollow | PermissionComment | PermissionWrite | PermissionModerate},
		{Name: "Administrator", Permissions: AllPermissions},
	}
}

// Identity is what authorization checks operate on. There are exactly two
// implementations: Account for authenticated callers and Anonymous for
// everyone else, so handlers never branch on login state.
type Identity interface {
	Can(p Permission) bool
	IsAdministrator() bool
}

// Anonymous is the identity of an unauthenticated request.
type Anonymous struct{}

func (Anonymous) Can(Permission) bool   { return false }
func (Anonymous) IsAdministrator() bool { return false }

// Account is the authenticated identity; capability checks delegate to the
// account's role.
type Account struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Confirmed bool   `json:"confirmed"`
	Role      Role   `json:"role"`
}

func (a *Account) Can(p Permission) bool {
	return a.Role.Has(p)
}

func (a *Account) IsAdministrator() bool {
	return a.Can(PermissionAdmin)
}

// ServiceAPI is the surface the HTTP layer depends on.
type ServiceAPI interface {
	AuthenticateBasic(email, password string) (*Account, error)
	AuthenticateToken(tokenString string) (*Account, error)
	IssueAuthToken(account *Account, tokenUsed bool) (string, int64, error)
	AccountByID(userID int64) (*Account, error)
}

// CredentialRepository looks up stored credentials and accounts. The
// plaintext password never crosses this boundary, only its hash.
type CredentialRepository interface {
	GetCredentials(email string) (userID int64, passwordHash string, err error)
	GetAccount(userID int64) (*Account, error)
}

// RoleRepository is used at registration and by the seeder.
type RoleRepository interface {
	GetRoleByName(name string) (*Role, error)
	GetDefaultRole() (*Role, error)
	GetRoleByPermissions(p Permission) (*Role, error)
	UpsertRole(role *Role) error
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenChaining      = errors.New("cannot request a token with a token")
	ErrUnconfirmed        = errors.New("unconfirmed account")
)

type ctxKey string

const (
	contextIdentityKey  ctxKey = "identity"
	contextTokenUsedKey ctxKey = "tokenUsed"
)

// ContextWithIdentity stores the resolved identity for the request.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextIdentityKey, id)
}

// IdentityFromContext returns the request identity, falling back to
// Anonymous so callers can always run Can checks.
func IdentityFromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(contextIdentityKey).(Identity); ok && id != nil {
		return id
	}
	return Anonymous{}
}

// AccountFromContext returns the authenticated account, if any.
func AccountFromContext(ctx context.Context) (*Account, bool) {
	a, ok := ctx.Value(contextIdentityKey).(*Account)
	return a, ok
}

// ContextWithTokenUsed records that the request authenticated with a token
// rather than a password. The token endpoint uses it to refuse chaining.
func ContextWithTokenUsed(ctx context.Context, used bool) context.Context {
	return context.WithValue(ctx, contextTokenUsedKey, used)
}

func TokenUsedFromContext(ctx context.Context) bool {
	used, ok := ctx.Value(contextTokenUsedKey).(bool)
	return ok && used
}

// TokenExpiration reports the auth token lifetime in whole seconds, which is
// what the token endpoint returns to API clients.
func TokenExpiration(ttl time.Duration) int64 {
	return int64(ttl / time.Second)
}
