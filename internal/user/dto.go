package user

import (
	"regexp"
	"strings"
)

var (
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	usernamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.]*$`)
)

// ValidationError represents a simple validation error from DTO validation.
type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

// RegisterDTO is the transport shape for account registration.
type RegisterDTO struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (d RegisterDTO) Validate() error {
	if d.Email == "" {
		return ValidationError{Msg: "email is required"}
	}
	if !emailPattern.MatchString(d.Email) {
		return ValidationError{Msg: "email is not a valid address"}
	}
	if d.Username == "" {
		return ValidationError{Msg: "username is required"}
	}
	if len(d.Username) > 64 {
		return ValidationError{Msg: "username must be at most 64 characters"}
	}
	if !usernamePattern.MatchString(d.Username) {
		return ValidationError{Msg: "username must start with a letter and contain only letters, numbers, dots or underscores"}
	}
	if len(d.Password) < 8 {
		return ValidationError{Msg: "password must be at least 8 characters"}
	}
	return nil
}

// Normalize lowercases the email so uniqueness checks are case-insensitive.
func (d *RegisterDTO) Normalize() {
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.Username = strings.TrimSpace(d.Username)
}

type ConfirmDTO struct {
	Token string `json:"token"`
}

func (d ConfirmDTO) Validate() error {
	if d.Token == "" {
		return ValidationError{Msg: "token is required"}
	}
	return nil
}

type PasswordResetRequestDTO struct {
	Email string `json:"email"`
}

func (d PasswordResetRequestDTO) Validate() error {
	if d.Email == "" {
		return ValidationError{Msg: "email is required"}
	}
	return nil
}

// PasswordResetDTO carries the encoded email-plus-token credential from the
// reset link along with the replacement password.
type PasswordResetDTO struct {
	Credential string `json:"credential"`
	Password   string `json:"password"`
}

func (d PasswordResetDTO) Validate() error {
	if d.Credential == "" {
		return ValidationError{Msg: "credential is required"}
	}
	if len(d.Password) < 8 {
		return ValidationError{Msg: "password must be at least 8 characters"}
	}
	return nil
}

// ChangeEmailRequestDTO requires the current password so a hijacked session
// cannot silently redirect the account's email.
type ChangeEmailRequestDTO struct {
	NewEmail string `json:"new_email"`
	Password string `json:"password"`
}

func (d ChangeEmailRequestDTO) Validate() error {
	if d.NewEmail == "" {
		return ValidationError{Msg: "new_email is required"}
	}
	if !emailPattern.MatchString(d.NewEmail) {
		return ValidationError{Msg: "new_email is not a valid address"}
	}
	if d.Password == "" {
		return ValidationError{Msg: "password is required"}
	}
	return nil
}

type UpdateProfileDTO struct {
	Name     *string `json:"name"`
	Location *string `json:"location"`
	AboutMe  *string `json:"about_me"`
}

func (d UpdateProfileDTO) Validate() error {
	if d.Name != nil && len(*d.Name) > 64 {
		return ValidationError{Msg: "name must be at most 64 characters"}
	}
	if d.Location != nil && len(*d.Location) > 64 {
		return ValidationError{Msg: "location must be at most 64 characters"}
	}
	return nil
}

// ProfileResponse is the public view of an account.
type ProfileResponse struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Name        string `json:"name"`
	Location    string `json:"location"`
	AboutMe     string `json:"about_me"`
	MemberSince string `json:"member_since"`
	LastSeen    string `json:"last_seen"`
	AvatarURL   string `json:"avatar_url"`
}

func (u *User) ToProfile() ProfileResponse {
	return ProfileResponse{
		ID:          u.ID,
		Username:    u.Username,
		Name:        u.Name,
		Location:    u.Location,
		AboutMe:     u.AboutMe,
		MemberSince: u.MemberSince.UTC().Format("2006-01-02T15:04:05Z"),
		LastSeen:    u.LastSeen.UTC().Format("2006-01-02T15:04:05Z"),
		AvatarURL:   u.Gravatar(100),
	}
}
