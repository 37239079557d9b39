package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/blogging-platform/internal/auth"
	"github.com/frahmantamala/blogging-platform/internal/comment"
	"github.com/frahmantamala/blogging-platform/internal/follow"
	"github.com/frahmantamala/blogging-platform/internal/post"
	"github.com/frahmantamala/blogging-platform/internal/transport/middleware"
	"github.com/frahmantamala/blogging-platform/internal/transport/swagger"
	"github.com/frahmantamala/blogging-platform/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, authHandler *auth.Handler, userHandler *user.Handler, postHandler *post.Handler, commentHandler *comment.Handler, followHandler *follow.Handler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	// Serve the OpenAPI document at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Registration and password recovery are reachable without
		// credentials: the caller has no account, or no usable password.
		if userHandler != nil {
			r.Post("/users", userHandler.Register)
			r.Post("/auth/reset-password/request", userHandler.RequestPasswordReset)
			r.Post("/auth/reset-password", userHandler.ResetPassword)
		}

		// Everything below resolves the Authorization header; requests
		// without one proceed as the anonymous identity and get stopped
		// by the per-route guards instead.
		r.Group(func(pr chi.Router) {
			pr.Use(authHandler.AuthMiddleware)
			if userHandler != nil {
				pr.Use(userHandler.TouchLastSeen)
			}

			// The confirmation routes deliberately sit outside the
			// RequireConfirmed fence: a fresh account must be able to
			// redeem or re-request its token.
			if userHandler != nil {
				pr.Group(func(cr chi.Router) {
					cr.Use(authHandler.RequireAuthenticated)
					cr.Post("/auth/confirm", userHandler.Confirm)
					cr.Post("/auth/confirm/resend", userHandler.ResendConfirmation)
				})
			}

			pr.Group(func(gr chi.Router) {
				gr.Use(authHandler.RequireConfirmed)

				gr.Post("/tokens", authHandler.IssueToken)

				if userHandler != nil {
					gr.Group(func(ur chi.Router) {
						ur.Use(authHandler.RequireAuthenticated)
						ur.Get("/users/me", userHandler.GetCurrentUser)
						ur.Patch("/users/me", userHandler.UpdateProfile)
						ur.Post("/auth/change-email/request", userHandler.RequestEmailChange)
						ur.Post("/auth/change-email", userHandler.ChangeEmail)
					})

					gr.Get("/users/{username}", userHandler.GetProfile)
				}

				if postHandler != nil {
					gr.Route("/posts", func(por chi.Router) {
						por.Get("/", postHandler.List)
						por.Get("/{id}", postHandler.Get)

						por.Group(func(wr chi.Router) {
							wr.Use(authHandler.RequireAuthenticated)
							wr.Use(authHandler.RequirePermission(auth.PermissionWrite))
							wr.Post("/", postHandler.Create)
							wr.Put("/{id}", postHandler.Update)
							wr.Delete("/{id}", postHandler.Delete)
						})

						if commentHandler != nil {
							por.Get("/{id}/comments", commentHandler.ListByPost)
							por.Group(func(cor chi.Router) {
								cor.Use(authHandler.RequireAuthenticated)
								cor.Use(authHandler.RequirePermission(auth.PermissionComment))
								cor.Post("/{id}/comments", commentHandler.Create)
							})
						}
					})

					gr.Group(func(tr chi.Router) {
						tr.Use(authHandler.RequireAuthenticated)
						tr.Get("/timeline", postHandler.Timeline)
					})

					gr.Get("/users/{id}/posts", postHandler.ListByAuthor)
				}

				if commentHandler != nil {
					gr.Group(func(mr chi.Router) {
						mr.Use(authHandler.RequireAuthenticated)
						mr.Use(authHandler.RequirePermission(auth.PermissionModerate))
						mr.Get("/comments", commentHandler.ListAll)
						mr.Patch("/comments/{id}", commentHandler.Moderate)
					})
				}

				if followHandler != nil {
					gr.Get("/users/{id}/followers", followHandler.Followers)
					gr.Get("/users/{id}/following", followHandler.Following)

					gr.Group(func(fr chi.Router) {
						fr.Use(authHandler.RequireAuthenticated)
						fr.Use(authHandler.RequirePermission(auth.PermissionFollow))
						fr.Post("/users/{id}/follow", followHandler.Follow)
						fr.Delete("/users/{id}/follow", followHandler.Unfollow)
					})
				}
			})
		})
	})
}
