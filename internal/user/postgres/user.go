package postgres

import (
	"errors"
	"time"

	"github.com/frahmantamala/blogging-platform/internal"
	"github.com/frahmantamala/blogging-platform/internal/auth"
	"github.com/frahmantamala/blogging-platform/internal/user"
	"gorm.io/gorm"
)

// userRecord is the gorm mapping for the users table.
type userRecord struct {
	ID           int64     `gorm:"primaryKey"`
	Email        string    `gorm:"column:email;uniqueIndex;not null"`
	Username     string    `gorm:"column:username;uniqueIndex;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	RoleID       int64     `gorm:"column:role_id;not null"`
	Confirmed    bool      `gorm:"column:confirmed;default:false"`
	Name         string    `gorm:"column:name"`
	Location     string    `gorm:"column:location"`
	AboutMe      string    `gorm:"column:about_me"`
	MemberSince  time.Time `gorm:"column:member_since"`
	LastSeen     time.Time `gorm:"column:last_seen"`
	AvatarHash   string    `gorm:"column:avatar_hash"`
}

func (userRecord) TableName() string {
	return "users"
}

type roleRecord struct {
	ID          int64  `gorm:"primaryKey"`
	Name        string `gorm:"column:name"`
	Permissions uint8  `gorm:"column:permissions"`
	IsDefault   bool   `gorm:"column:is_default"`
}

func (roleRecord) TableName() string {
	return "roles"
}

func toRecord(u *user.User) *userRecord {
	return &userRecord{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		RoleID:       u.RoleID,
		Confirmed:    u.Confirmed,
		Name:         u.Name,
		Location:     u.Location,
		AboutMe:      u.AboutMe,
		MemberSince:  u.MemberSince,
		LastSeen:     u.LastSeen,
		AvatarHash:   u.AvatarHash,
	}
}

func fromRecord(rec *userRecord, role *roleRecord) *user.User {
	u := &user.User{
		ID:           rec.ID,
		Email:        rec.Email,
		Username:     rec.Username,
		PasswordHash: rec.PasswordHash,
		RoleID:       rec.RoleID,
		Confirmed:    rec.Confirmed,
		Name:         rec.Name,
		Location:     rec.Location,
		AboutMe:      rec.AboutMe,
		MemberSince:  rec.MemberSince,
		LastSeen:     rec.LastSeen,
		AvatarHash:   rec.AvatarHash,
	}
	if role != nil {
		u.Role = auth.Role{
			ID:          role.ID,
			Name:        role.Name,
			Permissions: auth.Permission(role.Permissions),
			IsDefault:   role.IsDefault,
		}
	}
	return u
}

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.Repository {
	return &UserRepository{db: db}
}

// Create inserts the account. The database's unique indexes arbitrate
// concurrent registrations; a duplicate key is mapped to the conflicting
// field so the caller can report which one to fix.
func (r *UserRepository) Create(u *user.User) error {
	rec := toRecord(u)
	if err := r.db.Create(rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return r.conflictFor(u)
		}
		return err
	}
	u.ID = rec.ID
	return nil
}

func (r *UserRepository) conflictFor(u *user.User) error {
	taken, err := r.EmailExists(u.Email)
	if err == nil && taken {
		return internal.ErrEmailTaken
	}
	return internal.ErrUsernameTaken
}

func (r *UserRepository) GetByID(id int64) (*user.User, error) {
	var rec userRecord
	if err := r.db.Where("id = ?", id).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return r.withRole(&rec)
}

func (r *UserRepository) GetByEmail(email string) (*user.User, error) {
	var rec userRecord
	if err := r.db.Where("email = ?", email).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return r.withRole(&rec)
}

func (r *UserRepository) GetByUsername(username string) (*user.User, error) {
	var rec userRecord
	if err := r.db.Where("username = ?", username).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return r.withRole(&rec)
}

func (r *UserRepository) withRole(rec *userRecord) (*user.User, error) {
	var role roleRecord
	if err := r.db.Where("id = ?", rec.RoleID).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fromRecord(rec, nil), nil
		}
		return nil, err
	}
	return fromRecord(rec, &role), nil
}

func (r *UserRepository) Update(u *user.User) error {
	res := r.db.Model(&userRecord{}).Where("id = ?", u.ID).Updates(map[string]interface{}{
		"email":         u.Email,
		"username":      u.Username,
		"password_hash": u.PasswordHash,
		"role_id":       u.RoleID,
		"confirmed":     u.Confirmed,
		"name":          u.Name,
		"location":      u.Location,
		"about_me":      u.AboutMe,
		"last_seen":     u.LastSeen,
		"avatar_hash":   u.AvatarHash,
	})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return internal.ErrEmailTaken
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdateLastSeen(id int64, seen time.Time) error {
	return r.db.Model(&userRecord{}).Where("id = ?", id).Update("last_seen", seen).Error
}

func (r *UserRepository) EmailExists(email string) (bool, error) {
	var count int64
	if err := r.db.Model(&userRecord{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
