package user

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/frahmantamala/blogging-platform/internal/auth"
)

// User is the domain account model. The plaintext password never lives on
// it: only the bcrypt hash is stored, and the hash is excluded from every
// serialized form.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	RoleID       int64     `json:"-"`
	Role         auth.Role `json:"role"`
	Confirmed    bool      `json:"confirmed"`
	Name         string    `json:"name"`
	Location     string    `json:"location"`
	AboutMe      string    `json:"about_me"`
	MemberSince  time.Time `json:"member_since"`
	LastSeen     time.Time `json:"last_seen"`
	AvatarHash   string    `json:"-"`
}

var ErrNotFound = errors.New("user not found")

// Password exists to make accidental reads fail loudly. The plaintext is
// write-only; any code path that calls this has a bug.
func (u *User) Password() string {
	panic("password is not a readable attribute")
}

// SetPassword re-derives and stores the salted hash.
func (u *User) SetPassword(plaintext string, cost int) error {
	hash, err := auth.HashPassword(plaintext, cost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) VerifyPassword(candidate string) bool {
	return auth.VerifyPassword(u.PasswordHash, candidate) == nil
}

// SetEmail updates the address and re-derives the avatar hash in the same
// step. The hash is derived state; it must never drift from the email.
func (u *User) SetEmail(email string) {
	u.Email = email
	u.AvatarHash = AvatarHash(email)
}

func (u *User) Can(p auth.Permission) bool {
	return u.Role.Has(p)
}

func (u *User) IsAdministrator() bool {
	return u.Can(auth.PermissionAdmin)
}

// Identity adapts the user for authorization checks.
func (u *User) Identity() auth.Identity {
	return &auth.Account{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		Confirmed: u.Confirmed,
		Role:      u.Role,
	}
}

// Gravatar builds the avatar URL from the cached email hash.
func (u *User) Gravatar(size int) string {
	hash := u.AvatarHash
	if hash == "" {
		hash = AvatarHash(u.Email)
	}
	return fmt.Sprintf("https://secure.gravatar.com/avatar/%s?s=%d&d=identicon&r=g", hash, size)
}

// Ping refreshes the last-seen timestamp.
func (u *User) Ping(now time.Time) {
	u.LastSeen = now
}

func AvatarHash(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}

// Repository is the persistence boundary for accounts. Create reports
// uniqueness races as conflict errors the caller can recover from.
type Repository interface {
	Create(u *User) error
	GetByID(id int64) (*User, error)
	GetByEmail(email string) (*User, error)
	GetByUsername(username string) (*User, error)
	Update(u *User) error
	UpdateLastSeen(id int64, seen time.Time) error
	EmailExists(email string) (bool, error)
}
