package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/blogging-platform/internal"
	"github.com/frahmantamala/blogging-platform/internal/auth"
	authPostgres "github.com/frahmantamala/blogging-platform/internal/auth/postgres"
	"github.com/frahmantamala/blogging-platform/internal/comment"
	commentPostgres "github.com/frahmantamala/blogging-platform/internal/comment/postgres"
	"github.com/frahmantamala/blogging-platform/internal/follow"
	followPostgres "github.com/frahmantamala/blogging-platform/internal/follow/postgres"
	"github.com/frahmantamala/blogging-platform/internal/mail"
	"github.com/frahmantamala/blogging-platform/internal/post"
	postPostgres "github.com/frahmantamala/blogging-platform/internal/post/postgres"
	"github.com/frahmantamala/blogging-platform/internal/transport/rest"
	"github.com/frahmantamala/blogging-platform/internal/user"
	userPostgres "github.com/frahmantamala/blogging-platform/internal/user/postgres"
	"github.com/frahmantamala/blogging-platform/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Router *chi.Mux
	Logger *slog.Logger

	AuthHandler    *auth.Handler
	UserHandler    *user.Handler
	PostHandler    *post.Handler
	CommentHandler *comment.Handler
	FollowHandler  *follow.Handler
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	setupRoutes(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func setupRoutes(deps *Dependencies) {
	rest.RegisterAllRoutes(
		deps.Router,
		deps.DB.DB,
		deps.AuthHandler,
		deps.UserHandler,
		deps.PostHandler,
		deps.CommentHandler,
		deps.FollowHandler,
		deps.Logger,
	)
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"), config.Logging.Level)
	log := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	authRepo := authPostgres.NewRepository(gormDB)
	userRepo := userPostgres.NewUserRepository(gormDB)
	followRepo := followPostgres.NewFollowRepository(gormDB)
	postRepo := postPostgres.NewPostRepository(gormDB)
	commentRepo := commentPostgres.NewCommentRepository(gormDB)

	tokens := auth.NewTokenService(config.Security.SecretKey, config.Security.TokenTTL)
	mailer := mail.New(config.Mail, log)

	authService := auth.NewService(authRepo, tokens, config.Security.AuthTokenTTL)
	followService := follow.NewService(followRepo)
	userService := user.NewService(
		userRepo,
		authRepo,
		tokens,
		followService,
		mailer,
		log,
		config.Security.BCryptCost,
		config.Security.AdminEmail,
		config.Server.BaseURL,
	)
	postService := post.NewService(postRepo)
	commentService := comment.NewService(commentRepo)

	return &Dependencies{
		Config: config,
		Logger: log,
		DB:     db,
		Router: chi.NewRouter(),

		AuthHandler:    auth.NewHandler(authService),
		UserHandler:    user.NewHandler(userService),
		PostHandler:    post.NewHandler(postService),
		CommentHandler: comment.NewHandler(commentService),
		FollowHandler:  follow.NewHandler(followService),
	}, nil
}

// initDB opens the pgx-backed connection pool used for health checks and
// shared with the ORM.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm layers the ORM over the already-open pool. TranslateError turns
// driver duplicate-key failures into gorm.ErrDuplicatedKey, which the
// repositories rely on for conflict detection.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: db.DB}), &gorm.Config{
		TranslateError: true,
	})
}
