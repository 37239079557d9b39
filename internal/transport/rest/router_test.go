package rest_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/frahmantamala/blogging-platform/internal/auth"
	authPostgres "github.com/frahmantamala/blogging-platform/internal/auth/postgres"
	"github.com/frahmantamala/blogging-platform/internal/comment"
	commentPostgres "github.com/frahmantamala/blogging-platform/internal/comment/postgres"
	"github.com/frahmantamala/blogging-platform/internal/follow"
	followPostgres "github.com/frahmantamala/blogging-platform/internal/follow/postgres"
	"github.com/frahmantamala/blogging-platform/internal/post"
	postPostgres "github.com/frahmantamala/blogging-platform/internal/post/postgres"
	"github.com/frahmantamala/blogging-platform/internal/transport/rest"
	"github.com/frahmantamala/blogging-platform/internal/user"
	userPostgres "github.com/frahmantamala/blogging-platform/internal/user/postgres"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLite-compatible models for testing
type routerRole struct {
	ID          int64  `gorm:"primaryKey"`
	Name        string `gorm:"column:name;uniqueIndex;not null"`
	Permissions uint8  `gorm:"column:permissions"`
	IsDefault   bool   `gorm:"column:is_default"`
}

func (routerRole) TableName() string { return "roles" }

type routerUser struct {
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

func (routerUser) TableName() string { return "users" }

type routerFollow struct {
	FollowerID int64     `gorm:"column:follower_id;primaryKey"`
	FollowedID int64     `gorm:"column:followed_id;primaryKey"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (routerFollow) TableName() string { return "follows" }

type routerPost struct {
	ID        int64     `gorm:"primaryKey"`
	Body      string    `gorm:"column:body;not null"`
	BodyHTML  string    `gorm:"column:body_html"`
	AuthorID  int64     `gorm:"column:author_id;index;not null"`
	CreatedAt time.Time `gorm:"column:created_at;index"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (routerPost) TableName() string { return "posts" }

type routerComment struct {
	ID        int64     `gorm:"primaryKey"`
	Body      string    `gorm:"column:body;not null"`
	BodyHTML  string    `gorm:"column:body_html"`
	AuthorID  int64     `gorm:"column:author_id;index;not null"`
	PostID    int64     `gorm:"column:post_id;index;not null"`
	Disabled  bool      `gorm:"column:disabled;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;index"`
}

func (routerComment) TableName() string { return "comments" }

type capturedMail struct {
	To       string
	Subject  string
	Template string
	Data     map[string]any
}

type captureMailer struct {
	sent []capturedMail
}

func (m *captureMailer) Send(to, subject, template string, data map[string]any) {
	m.sent = append(m.sent, capturedMail{To: to, Subject: subject, Template: template, Data: data})
}

const routerBaseURL = "http://localhost:8080"

var _ = Describe("API routing", func() {
	var (
		router *chi.Mux
		mailer *captureMailer
	)

	BeforeEach(func() {
		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
		})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&routerRole{}, &routerUser{}, &routerFollow{}, &routerPost{}, &routerComment{})
		Expect(err).NotTo(HaveOccurred())

		Expect(db.Create(&routerRole{ID: 1, Name: "User", Permissions: 0x07, IsDefault: true}).Error).To(Succeed())

		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())

		authRepo := authPostgres.NewRepository(db)
		userRepo := userPostgres.NewUserRepository(db)
		followRepo := followPostgres.NewFollowRepository(db)
		postRepo := postPostgres.NewPostRepository(db)
		commentRepo := commentPostgres.NewCommentRepository(db)

		tokens := auth.NewTokenService("test-secret-key-for-token-signing", time.Hour)
		mailer = &captureMailer{}
		quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

		authService := auth.NewService(authRepo, tokens, time.Hour)
		followService := follow.NewService(followRepo)
		userService := user.NewService(
			userRepo, authRepo, tokens, followService, mailer,
			quiet, bcrypt.MinCost, "", routerBaseURL,
		)
		postService := post.NewService(postRepo)
		commentService := comment.NewService(commentRepo)

		router = chi.NewRouter()
		rest.RegisterAllRoutes(
			router,
			sqlDB,
			auth.NewHandler(authService),
			user.NewHandler(userService),
			post.NewHandler(postService),
			comment.NewHandler(commentService),
			follow.NewHandler(followService),
			quiet,
		)
	})

	do := func(method, path string, body any, basicUser, basicPass string) *httptest.ResponseRecorder {
		var reader io.Reader
		if body != nil {
			payload, err := json.Marshal(body)
			Expect(err).NotTo(HaveOccurred())
			reader = bytes.NewReader(payload)
		}
		req := httptest.NewRequest(method, path, reader)
		if basicUser != "" {
			req.SetBasicAuth(basicUser, basicPass)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	register := func(email, username, password string) {
		rec := do(http.MethodPost, "/api/v1/users", map[string]string{
			"email":    email,
			"username": username,
			"password": password,
		}, "", "")
		Expect(rec.Code).To(Equal(http.StatusCreated))
	}

	confirmationToken := func(email string) string {
		for _, m := range mailer.sent {
			if m.To == email && m.Template == "confirm" {
				link, _ := m.Data["Link"].(string)
				prefix := routerBaseURL + "/auth/confirm/"
				Expect(strings.HasPrefix(link, prefix)).To(BeTrue())
				return link[len(prefix):]
			}
		}
		Fail("no confirmation mail captured for " + email)
		return ""
	}

	Describe("confirmation lifecycle", func() {
		BeforeEach(func() {
			register("new@example.com", "newcomer", "long_password")
		})

		It("should keep unconfirmed accounts out of the fenced API", func() {
			rec := do(http.MethodPost, "/api/v1/tokens", nil, "new@example.com", "long_password")

			Expect(rec.Code).To(Equal(http.StatusForbidden))
			Expect(rec.Body.String()).To(ContainSubstring("unconfirmed account"))
		})

		It("should let an unconfirmed account redeem its confirmation token", func() {
			token := confirmationToken("new@example.com")

			rec := do(http.MethodPost, "/api/v1/auth/confirm",
				map[string]string{"token": token}, "new@example.com", "long_password")

			Expect(rec.Code).To(Equal(http.StatusNoContent))

			rec = do(http.MethodPost, "/api/v1/tokens", nil, "new@example.com", "long_password")
			Expect(rec.Code).To(Equal(http.StatusOK))
		})

		It("should let an unconfirmed account re-request its confirmation mail", func() {
			before := len(mailer.sent)

			rec := do(http.MethodPost, "/api/v1/auth/confirm/resend", nil,
				"new@example.com", "long_password")

			Expect(rec.Code).To(Equal(http.StatusAccepted))
			Expect(mailer.sent).To(HaveLen(before + 1))
		})
	})

	Describe("comments", func() {
		var postID int64

		BeforeEach(func() {
			register("author@example.com", "author", "long_password")
			token := confirmationToken("author@example.com")
			rec := do(http.MethodPost, "/api/v1/auth/confirm",
				map[string]string{"token": token}, "author@example.com", "long_password")
			Expect(rec.Code).To(Equal(http.StatusNoContent))

			rec = do(http.MethodPost, "/api/v1/posts",
				map[string]string{"body": "a post worth discussing"},
				"author@example.com", "long_password")
			Expect(rec.Code).To(Equal(http.StatusCreated))

			var created post.Post
			Expect(json.NewDecoder(rec.Body).Decode(&created)).To(Succeed())
			postID = created.ID
		})

		It("should accept a comment from a confirmed commenter and list it", func() {
			rec := do(http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/comments", postID),
				map[string]string{"body": "well *said*"},
				"author@example.com", "long_password")
			Expect(rec.Code).To(Equal(http.StatusCreated))

			rec = do(http.MethodGet, fmt.Sprintf("/api/v1/posts/%d/comments", postID), nil,
				"author@example.com", "long_password")
			Expect(rec.Code).To(Equal(http.StatusOK))

			var page comment.Page
			Expect(json.NewDecoder(rec.Body).Decode(&page)).To(Succeed())
			Expect(page.Total).To(Equal(int64(1)))
			Expect(page.Comments[0].BodyHTML).To(ContainSubstring("<em>said</em>"))
		})

		It("should refuse the moderation queue to a plain user", func() {
			rec := do(http.MethodGet, "/api/v1/comments", nil,
				"author@example.com", "long_password")

			Expect(rec.Code).To(Equal(http.StatusForbidden))
		})
	})
})
