package cmd

import (
	"fmt"
	"log"

	"github.com/frahmantamala/blogging-platform/internal/auth"
	authPostgres "github.com/frahmantamala/blogging-platform/internal/auth/postgres"
	"github.com/frahmantamala/blogging-platform/internal/user"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the canonical roles, optionally the admin account",
	Long: `Insert or update the User, Moderator and Administrator roles.
Safe to run repeatedly: roles are matched by name and updated in place,
so permission changes take effect without duplicating rows.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		gormDB, err := initGorm(db)
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		roleRepo := authPostgres.NewRepository(gormDB)
		for _, role := range auth.CanonicalRoles() {
			if err := roleRepo.UpsertRole(&role); err != nil {
				log.Fatalf("failed to upsert role %s: %v", role.Name, err)
			}
			fmt.Printf("Seeded role %s (permissions=0x%02x, default=%v)\n", role.Name, uint8(role.Permissions), role.IsDefault)
		}

		if seedAdminPassword == "" {
			return
		}
		if cfg.Security.AdminEmail == "" {
			log.Fatal("--admin-password given but security.admin_email is not configured")
		}

		adminRole, err := roleRepo.GetRoleByPermissions(auth.AllPermissions)
		if err != nil {
			log.Fatalf("administrator role missing after seed: %v", err)
		}

		var exists int
		row := gormDB.Raw("SELECT 1 FROM users WHERE email = ?", cfg.Security.AdminEmail).Row()
		if err := row.Scan(&exists); err == nil {
			fmt.Println("admin user already exists:", cfg.Security.AdminEmail)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(seedAdminPassword), cfg.Security.BCryptCost)
		if err != nil {
			log.Fatalf("failed to hash admin password: %v", err)
		}

		err = gormDB.Exec(
			`INSERT INTO users (email, username, password_hash, role_id, confirmed, avatar_hash, member_since, last_seen)
			 VALUES (?, ?, ?, ?, true, ?, now(), now())`,
			cfg.Security.AdminEmail, "admin", string(hash), adminRole.ID, user.AvatarHash(cfg.Security.AdminEmail)).Error
		if err != nil {
			log.Fatalf("failed to insert admin user: %v", err)
		}

		// every account follows itself so its own posts show in its feed
		var adminID int64
		if err := gormDB.Raw("SELECT id FROM users WHERE email = ?", cfg.Security.AdminEmail).Row().Scan(&adminID); err != nil {
			log.Fatalf("failed to look up admin user id: %v", err)
		}
		err = gormDB.Exec(
			`INSERT INTO follows (follower_id, followed_id, created_at) VALUES (?, ?, now()) ON CONFLICT DO NOTHING`,
			adminID, adminID).Error
		if err != nil {
			log.Fatalf("failed to insert admin self-follow: %v", err)
		}

		fmt.Println("Seeded admin user:", cfg.Security.AdminEmail)
	},
}
