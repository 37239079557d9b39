package user

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/blogging-platform/internal"
	"github.com/frahmantamala/blogging-platform/internal/auth"
)

// FollowGraph is the slice of the follow service registration needs: every
// new account follows itself so timeline queries include its own posts.
type FollowGraph interface {
	Follow(followerID, followedID int64) error
}

// Mailer delivers account emails. Sends are fire-and-forget; delivery
// failures never reach account logic.
type Mailer interface {
	Send(to, subject, template string, data map[string]any)
}

// ServiceAPI is the surface the HTTP layer depends on.
type ServiceAPI interface {
	Register(dto RegisterDTO) (*User, error)
	Confirm(userID int64, token string) error
	ResendConfirmation(userID int64) error
	RequestPasswordReset(email string) error
	ResetPassword(credential, newPassword string) error
	RequestEmailChange(userID int64, dto ChangeEmailRequestDTO) error
	ChangeEmail(userID int64, token string) error
	GetByID(userID int64) (*User, error)
	GetByUsername(username string) (*User, error)
	UpdateProfile(userID int64, dto UpdateProfileDTO) (*User, error)
	Ping(userID int64) error
}

type Service struct {
	repo       Repository
	roles      auth.RoleRepository
	tokens     *auth.TokenService
	follows    FollowGraph
	mailer     Mailer
	logger     *slog.Logger
	bcryptCost int
	adminEmail string
	baseURL    string
}

func NewService(
	repo Repository,
	roles auth.RoleRepository,
	tokens *auth.TokenService,
	follows FollowGraph,
	mailer Mailer,
	logger *slog.Logger,
	bcryptCost int,
	adminEmail string,
	baseURL string,
) *Service {
	return &Service{
		repo:       repo,
		roles:      roles,
		tokens:     tokens,
		follows:    follows,
		mailer:     mailer,
		logger:     logger,
		bcryptCost: bcryptCost,
		adminEmail: adminEmail,
		baseURL:    baseURL,
	}
}

// Register creates an account, assigns its role, establishes the self-follow
// edge, and mails a confirmation link. Role assignment: the configured admin
// email gets the all-permissions role, everyone else the default role.
func (s *Service) Register(dto RegisterDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	dto.Normalize()

	role, err := s.assignRole(dto.Email)
	if err != nil {
		return nil, fmt.Errorf("assign role: %w", err)
	}

	now := time.Now().UTC()
	u := &User{
		Email:       dto.Email,
		Username:    dto.Username,
		RoleID:      role.ID,
		Role:        *role,
		MemberSince: now,
		LastSeen:    now,
		AvatarHash:  AvatarHash(dto.Email),
	}
	if err := u.SetPassword(dto.Password, s.bcryptCost); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if err := s.repo.Create(u); err != nil {
		// uniqueness races surface here; the caller re-shows the form
		return nil, err
	}

	// Self-follow happens exactly once, at creation. Without it the
	// followed-posts query would exclude the author's own posts.
	if err := s.follows.Follow(u.ID, u.ID); err != nil {
		return nil, fmt.Errorf("self follow: %w", err)
	}

	s.sendConfirmation(u)
	return u, nil
}

func (s *Service) assignRole(email string) (*auth.Role, error) {
	if s.adminEmail != "" && email == s.adminEmail {
		role, err := s.roles.GetRoleByPermissions(auth.AllPermissions)
		if err == nil {
			return role, nil
		}
		s.logger.Warn("administrator role missing, falling back to default", "error", err)
	}
	return s.roles.GetDefaultRole()
}

func (s *Service) sendConfirmation(u *User) {
	token, err := s.tokens.Issue(auth.TokenPurposeConfirm, u.ID)
	if err != nil {
		s.logger.Error("failed to issue confirmation token", "user_id", u.ID, "error", err)
		return
	}
	s.mailer.Send(u.Email, "Confirm Your Account", "confirm", map[string]any{
		"Username": u.Username,
		"Link":     fmt.Sprintf("%s/auth/confirm/%s", s.baseURL, token),
	})
}

// Confirm flips the confirmed flag when the token checks out for this user.
func (s *Service) Confirm(userID int64, token string) error {
	u, err := s.repo.GetByID(userID)
	if err != nil {
		return err
	}
	if u.Confirmed {
		return nil
	}

	if _, err := s.tokens.VerifySubject(token, auth.TokenPurposeConfirm, u.ID); err != nil {
		return auth.ErrInvalidToken
	}

	u.Confirmed = true
	return s.repo.Update(u)
}

func (s *Service) ResendConfirmation(userID int64) error {
	u, err := s.repo.GetByID(userID)
	if err != nil {
		return err
	}
	if u.Confirmed {
		return nil
	}
	s.sendConfirmation(u)
	return nil
}

// RequestPasswordReset mails a reset link. The link carries the email
// alongside the signed token so the reset page can pre-fill the address
// without a server-side lookup.
func (s *Service) RequestPasswordReset(email string) error {
	u, err := s.repo.GetByEmail(email)
	if err != nil {
		return err
	}

	token, err := s.tokens.Issue(auth.TokenPurposeReset, u.ID)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}

	credential := auth.EncodeResetCredential(u.Email, token)
	s.mailer.Send(u.Email, "Reset Your Password", "reset_password", map[string]any{
		"Username": u.Username,
		"Link":     fmt.Sprintf("%s/auth/reset/%s", s.baseURL, credential),
	})
	return nil
}

// ResetPassword redeems a reset credential and installs the new password.
func (s *Service) ResetPassword(credential, newPassword string) error {
	email, token, err := auth.DecodeResetCredential(credential)
	if err != nil {
		return auth.ErrInvalidToken
	}

	u, err := s.repo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return auth.ErrInvalidToken
		}
		return err
	}

	if _, err := s.tokens.VerifySubject(token, auth.TokenPurposeReset, u.ID); err != nil {
		return auth.ErrInvalidToken
	}

	if err := u.SetPassword(newPassword, s.bcryptCost); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.repo.Update(u)
}

// RequestEmailChange verifies the caller's password, checks the address is
// free, and mails a change token to the new address.
func (s *Service) RequestEmailChange(userID int64, dto ChangeEmailRequestDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	u, err := s.repo.GetByID(userID)
	if err != nil {
		return err
	}
	if !u.VerifyPassword(dto.Password) {
		return auth.ErrInvalidCredentials
	}

	taken, err := s.repo.EmailExists(dto.NewEmail)
	if err != nil {
		return err
	}
	if taken {
		return internal.ErrEmailTaken
	}

	token, err := s.tokens.IssueEmailChange(u.ID, dto.NewEmail)
	if err != nil {
		return fmt.Errorf("issue email change token: %w", err)
	}

	s.mailer.Send(dto.NewEmail, "Confirm Your Email Address", "change_email", map[string]any{
		"Username": u.Username,
		"Link":     fmt.Sprintf("%s/auth/change-email/%s", s.baseURL, token),
	})
	return nil
}

// ChangeEmail redeems a change token. Token validity alone is not enough:
// the address may have been registered by someone else since issuance, so
// it is re-checked before committing.
func (s *Service) ChangeEmail(userID int64, token string) error {
	u, err := s.repo.GetByID(userID)
	if err != nil {
		return err
	}

	claims, err := s.tokens.VerifySubject(token, auth.TokenPurposeChangeEmail, u.ID)
	if err != nil {
		return auth.ErrInvalidToken
	}
	if claims.NewEmail == "" {
		return auth.ErrInvalidToken
	}

	taken, err := s.repo.EmailExists(claims.NewEmail)
	if err != nil {
		return err
	}
	if taken {
		return internal.ErrEmailTaken
	}

	u.SetEmail(claims.NewEmail)
	return s.repo.Update(u)
}

func (s *Service) GetByID(userID int64) (*User, error) {
	return s.repo.GetByID(userID)
}

func (s *Service) GetByUsername(username string) (*User, error) {
	return s.repo.GetByUsername(username)
}

func (s *Service) UpdateProfile(userID int64, dto UpdateProfileDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	u, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	if dto.Name != nil {
		u.Name = *dto.Name
	}
	if dto.Location != nil {
		u.Location = *dto.Location
	}
	if dto.AboutMe != nil {
		u.AboutMe = *dto.AboutMe
	}

	if err := s.repo.Update(u); err != nil {
		return nil, err
	}
	return u, nil
}

// Ping touches the last-seen timestamp; TouchLastSeen calls it on every
// authenticated request.
func (s *Service) Ping(userID int64) error {
	return s.repo.UpdateLastSeen(userID, time.Now().UTC())
}
