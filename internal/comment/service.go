package comment

import (
	"errors"
	"time"

	"github.com/frahmantamala/blogging-platform/internal/auth"
)

var ErrForbidden = errors.New("forbidden")

// ServiceAPI is the surface the HTTP layer depends on.
type ServiceAPI interface {
	Create(identity auth.Identity, authorID, postID int64, dto CreateCommentDTO) (*Comment, error)
	ListByPost(postID int64, limit, offset int) (*Page, error)
	ListAll(identity auth.Identity, limit, offset int) (*Page, error)
	Moderate(identity auth.Identity, commentID int64, disabled bool) (*Comment, error)
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// Create requires the comment capability; the identity check is uniform for
// anonymous and authenticated callers.
func (s *Service) Create(identity auth.Identity, authorID, postID int64, dto CreateCommentDTO) (*Comment, error) {
	if !identity.Can(auth.PermissionComment) {
		return nil, ErrForbidden
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	c := &Comment{AuthorID: authorID, PostID: postID, CreatedAt: time.Now().UTC()}
	if err := c.SetBody(dto.Body); err != nil {
		return nil, err
	}

	if err := s.repo.Create(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) ListByPost(postID int64, limit, offset int) (*Page, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.ListByPost(postID, limit, offset)
}

// ListAll is the moderation queue, so it is gated on the moderate
// capability rather than being public like a post thread.
func (s *Service) ListAll(identity auth.Identity, limit, offset int) (*Page, error) {
	if !identity.Can(auth.PermissionModerate) {
		return nil, ErrForbidden
	}
	limit, offset = clampPage(limit, offset)
	return s.repo.ListAll(limit, offset)
}

// Moderate disables or re-enables a comment. The body is untouched either
// way; readers of a disabled comment see the flag, not a deletion.
func (s *Service) Moderate(identity auth.Identity, commentID int64, disabled bool) (*Comment, error) {
	if !identity.Can(auth.PermissionModerate) {
		return nil, ErrForbidden
	}

	if err := s.repo.SetDisabled(commentID, disabled); err != nil {
		return nil, err
	}
	return s.repo.GetByID(commentID)
}
