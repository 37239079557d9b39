package postgres

import (
	"database/sql"
	"errors"

	"github.com/frahmantamala/blogging-platform/internal/auth"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetCredentials(email string) (int64, string, error) {
	var userID int64
	var passwordHash string
	query := `SELECT id, password_hash FROM users WHERE email = ?`

	row := r.db.Raw(query, email).Row()
	if err := row.Scan(&userID, &passwordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, "", auth.ErrInvalidCredentials
		}
		return 0, "", err
	}
	return userID, passwordHash, nil
}

func (r *Repository) GetAccount(userID int64) (*auth.Account, error) {
	var account auth.Account
	query := `SELECT u.id, u.email, u.username, u.confirmed,
	                 r.id, r.name, r.permissions, r.is_default
	          FROM users u
	          JOIN roles r ON r.id = u.role_id
	          WHERE u.id = ?`

	row := r.db.Raw(query, userID).Row()
	err := row.Scan(&account.ID, &account.Email, &account.Username, &account.Confirmed,
		&account.Role.ID, &account.Role.Name, &account.Role.Permissions, &account.Role.IsDefault)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, err
	}
	return &account, nil
}

func (r *Repository) GetRoleByName(name string) (*auth.Role, error) {
	return r.scanRole(`SELECT id, name, permissions, is_default FROM roles WHERE name = ?`, name)
}

func (r *Repository) GetDefaultRole() (*auth.Role, error) {
	return r.scanRole(`SELECT id, name, permissions, is_default FROM roles WHERE is_default = true`)
}

func (r *Repository) GetRoleByPermissions(p auth.Permission) (*auth.Role, error) {
	return r.scanRole(`SELECT id, name, permissions, is_default FROM roles WHERE permissions = ?`, uint8(p))
}

func (r *Repository) scanRole(query string, args ...interface{}) (*auth.Role, error) {
	var role auth.Role
	row := r.db.Raw(query, args...).Row()
	if err := row.Scan(&role.ID, &role.Name, &role.Permissions, &role.IsDefault); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}
	return &role, nil
}

// UpsertRole matches on name, never duplicating a role: re-seeding updates
// permissions and the default flag on the existing row.
func (r *Repository) UpsertRole(role *auth.Role) error {
	existing, err := r.GetRoleByName(role.Name)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		res := r.db.Exec(
			`INSERT INTO roles (name, permissions, is_default) VALUES (?, ?, ?)`,
			role.Name, uint8(role.Permissions), role.IsDefault)
		if res.Error != nil {
			return res.Error
		}
		created, err := r.GetRoleByName(role.Name)
		if err != nil {
			return err
		}
		role.ID = created.ID
		return nil
	}

	role.ID = existing.ID
	return r.db.Exec(
		`UPDATE roles SET permissions = ?, is_default = ? WHERE id = ?`,
		uint8(role.Permissions), role.IsDefault, role.ID).Error
}
