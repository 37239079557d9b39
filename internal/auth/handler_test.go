package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("AuthMiddleware", func() {
	var (
		handler  *Handler
		mockRepo *mockCredentialRepository
		service  *Service

		guarded       http.Handler
		seenAccount   *Account
		seenTokenUsed bool
		seenAnonymous bool
	)

	ginkgo.BeforeEach(func() {
		mockRepo = newMockCredentialRepository()
		service = NewService(mockRepo, NewTokenService("test-secret-key-for-token-signing", time.Hour), time.Hour)
		handler = NewHandler(service)

		seenAccount = nil
		seenTokenUsed = false
		seenAnonymous = false
		guarded = handler.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if account, ok := AccountFromContext(r.Context()); ok {
				seenAccount = account
				seenTokenUsed = TokenUsedFromContext(r.Context())
			} else {
				_, seenAnonymous = IdentityFromContext(r.Context()).(Anonymous)
			}
			w.WriteHeader(http.StatusOK)
		}))
	})

	ginkgo.Context("without credentials", func() {
		ginkgo.It("should proceed as the anonymous identity", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()

			guarded.ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(seenAccount).To(gomega.BeNil())
			gomega.Expect(seenAnonymous).To(gomega.BeTrue())
		})
	})

	ginkgo.Context("with basic email and password", func() {
		ginkgo.It("should resolve the account as password-authenticated", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.SetBasicAuth("user@example.com", "correct_password")
			rec := httptest.NewRecorder()

			guarded.ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(seenAccount).ToNot(gomega.BeNil())
			gomega.Expect(seenAccount.ID).To(gomega.Equal(int64(1)))
			gomega.Expect(seenTokenUsed).To(gomega.BeFalse())
		})

		ginkgo.It("should reject a wrong password", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.SetBasicAuth("user@example.com", "wrong_password")
			rec := httptest.NewRecorder()

			guarded.ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
		})
	})

	ginkgo.Context("with a bearer token", func() {
		ginkgo.It("should resolve the account as token-authenticated", func() {
			account, _ := service.AuthenticateBasic("user@example.com", "correct_password")
			token, _, err := service.IssueAuthToken(account, false)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()

			guarded.ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(seenAccount).ToNot(gomega.BeNil())
			gomega.Expect(seenTokenUsed).To(gomega.BeTrue())
		})

		ginkgo.It("should reject garbage tokens", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer garbage")
			rec := httptest.NewRecorder()

			guarded.ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
		})
	})

	ginkgo.Context("with a token in the basic username field", func() {
		ginkgo.It("should count as token authentication", func() {
			account, _ := service.AuthenticateBasic("user@example.com", "correct_password")
			token, _, err := service.IssueAuthToken(account, false)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.SetBasicAuth(token, "")
			rec := httptest.NewRecorder()

			guarded.ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(seenTokenUsed).To(gomega.BeTrue())
		})
	})

	ginkgo.Context("with an unconfirmed account", func() {
		ginkgo.BeforeEach(func() {
			mockRepo.accounts[1].Confirmed = false
		})

		ginkgo.It("should still resolve the account so confirmation routes work", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.SetBasicAuth("user@example.com", "correct_password")
			rec := httptest.NewRecorder()

			guarded.ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(seenAccount).ToNot(gomega.BeNil())
			gomega.Expect(seenAccount.Confirmed).To(gomega.BeFalse())
		})
	})
})

var _ = ginkgo.Describe("RequireConfirmed", func() {
	var (
		handler  *Handler
		mockRepo *mockCredentialRepository
		fenced   http.Handler
	)

	ginkgo.BeforeEach(func() {
		mockRepo = newMockCredentialRepository()
		service := NewService(mockRepo, NewTokenService("test-secret-key-for-token-signing", time.Hour), time.Hour)
		handler = NewHandler(service)

		fenced = handler.AuthMiddleware(
			handler.RequireConfirmed(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusOK)
				})))
	})

	ginkgo.It("should cut off an unconfirmed account with 403", func() {
		mockRepo.accounts[1].Confirmed = false

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.SetBasicAuth("user@example.com", "correct_password")
		rec := httptest.NewRecorder()

		fenced.ServeHTTP(rec, req)

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
	})

	ginkgo.It("should pass a confirmed account", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.SetBasicAuth("user@example.com", "correct_password")
		rec := httptest.NewRecorder()

		fenced.ServeHTTP(rec, req)

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
	})

	ginkgo.It("should pass anonymous callers through to the per-route guards", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		fenced.ServeHTTP(rec, req)

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
	})
})

var _ = ginkgo.Describe("IssueToken endpoint", func() {
	var (
		handler *Handler
		service *Service
	)

	ginkgo.BeforeEach(func() {
		service = NewService(newMockCredentialRepository(), NewTokenService("test-secret-key-for-token-signing", time.Hour), time.Hour)
		handler = NewHandler(service)
	})

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		handler.AuthMiddleware(http.HandlerFunc(handler.IssueToken)).ServeHTTP(rec, req)
		return rec
	}

	ginkgo.It("should issue a token to a password-authenticated caller", func() {
		req := httptest.NewRequest(http.MethodPost, "/tokens", nil)
		req.SetBasicAuth("user@example.com", "correct_password")

		rec := serve(req)

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))

		var resp TokenResponse
		gomega.Expect(json.NewDecoder(rec.Body).Decode(&resp)).To(gomega.Succeed())
		gomega.Expect(resp.Token).ToNot(gomega.BeEmpty())
		gomega.Expect(resp.Expiration).To(gomega.Equal(int64(3600)))

		account, err := service.AuthenticateToken(resp.Token)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(account.ID).To(gomega.Equal(int64(1)))
	})

	ginkgo.It("should refuse an anonymous caller", func() {
		req := httptest.NewRequest(http.MethodPost, "/tokens", nil)

		rec := serve(req)

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
	})

	ginkgo.It("should refuse a token-authenticated caller", func() {
		account, _ := service.AuthenticateBasic("user@example.com", "correct_password")
		token, _, err := service.IssueAuthToken(account, false)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		req := httptest.NewRequest(http.MethodPost, "/tokens", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		rec := serve(req)

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
	})
})

var _ = ginkgo.Describe("RequirePermission", func() {
	var (
		handler *Handler
		gated   http.Handler
	)

	ginkgo.BeforeEach(func() {
		service := NewService(newMockCredentialRepository(), NewTokenService("test-secret-key-for-token-signing", time.Hour), time.Hour)
		handler = NewHandler(service)

		gated = handler.AuthMiddleware(
			handler.RequirePermission(PermissionWrite)(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusOK)
				})))
	})

	ginkgo.It("should pass a caller whose role has the bit", func() {
		req := httptest.NewRequest(http.MethodPost, "/posts", nil)
		req.SetBasicAuth("user@example.com", "correct_password")
		rec := httptest.NewRecorder()

		gated.ServeHTTP(rec, req)

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
	})

	ginkgo.It("should refuse the anonymous identity with 403", func() {
		req := httptest.NewRequest(http.MethodPost, "/posts", nil)
		rec := httptest.NewRecorder()

		gated.ServeHTTP(rec, req)

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
	})
})
