package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/frahmantamala/blogging-platform/internal/transport"
	"github.com/frahmantamala/blogging-platform/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// IssueToken handles POST /tokens. The caller must have authenticated with
// a password: anonymous callers and token-authenticated callers both get
// the same unauthorized response.
func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	account, ok := AccountFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, expiration, err := h.Service.IssueAuthToken(account, TokenUsedFromContext(r.Context()))
	if err != nil {
		h.Logger.Warn("token issuance refused", "user_id", account.ID, "error", err)
		h.WriteError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	h.WriteJSON(w, http.StatusOK, TokenResponse{Token: token, Expiration: expiration})
}

// AuthMiddleware resolves the Authorization header to an identity and puts
// it in the request context. Requests without credentials proceed as the
// anonymous identity; bad credentials are rejected outright. Confirmation
// status is not checked here: RequireConfirmed does that, so the
// confirmation routes stay reachable for accounts that still need them.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account, tokenUsed, err := h.resolveCredentials(r)
		if err != nil {
			h.WriteError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		ctx := r.Context()
		if account == nil {
			ctx = ContextWithIdentity(ctx, Anonymous{})
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		ctx = ContextWithIdentity(ctx, account)
		ctx = ContextWithTokenUsed(ctx, tokenUsed)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireConfirmed cuts off accounts that never confirmed their email.
// Every route except the confirmation endpoints sits behind this: an
// unconfirmed account can redeem or re-request its token and nothing else.
// Anonymous callers pass through; the per-route guards handle them.
func (h *Handler) RequireConfirmed(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if account, ok := AccountFromContext(r.Context()); ok && !account.Confirmed {
			h.WriteError(w, http.StatusForbidden, "unconfirmed account")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// resolveCredentials supports two schemes: Bearer with an auth token, and
// Basic with either email:password or token with an empty password.
func (h *Handler) resolveCredentials(r *http.Request) (*Account, bool, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, false, nil
	}

	if token := h.ExtractTokenFromHeader(r); token != "" {
		account, err := h.Service.AuthenticateToken(token)
		if err != nil {
			return nil, false, err
		}
		return account, true, nil
	}

	if strings.HasPrefix(header, "Basic ") {
		email, password, ok := r.BasicAuth()
		if !ok {
			return nil, false, ErrInvalidCredentials
		}
		if email == "" {
			return nil, false, nil
		}
		if password == "" {
			// username field carries a token instead of an email
			account, err := h.Service.AuthenticateToken(email)
			if err != nil {
				return nil, false, err
			}
			return account, true, nil
		}
		account, err := h.Service.AuthenticateBasic(email, password)
		if err != nil {
			return nil, false, err
		}
		return account, false, nil
	}

	return nil, false, ErrInvalidCredentials
}

// RequireAuthenticated rejects anonymous callers.
func (h *Handler) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := AccountFromContext(r.Context()); !ok {
			h.WriteError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePermission gates a route on a capability bit. It runs the same
// Can check for anonymous and authenticated identities.
func (h *Handler) RequirePermission(p Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := IdentityFromContext(r.Context())
			if !identity.Can(p) {
				h.Logger.Warn("access denied", "required_permission", p.String(), "path", r.URL.Path)
				h.WriteError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
