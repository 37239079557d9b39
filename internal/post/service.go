package post

import (
	"errors"
	"time"

	"github.com/frahmantamala/blogging-platform/internal/auth"
)

var ErrForbidden = errors.New("forbidden")

// ServiceAPI is the surface the HTTP layer depends on.
type ServiceAPI interface {
	Create(identity auth.Identity, authorID int64, dto CreatePostDTO) (*Post, error)
	Update(identity auth.Identity, editorID int64, postID int64, dto UpdatePostDTO) (*Post, error)
	Delete(identity auth.Identity, editorID int64, postID int64) error
	GetByID(postID int64) (*Post, error)
	ListAll(limit, offset int) (*Page, error)
	ListByAuthor(authorID int64, limit, offset int) (*Page, error)
	Timeline(userID int64, limit, offset int) (*Page, error)
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

// Create requires the write capability; the identity check is uniform for
// anonymous and authenticated callers.
func (s *Service) Create(identity auth.Identity, authorID int64, dto CreatePostDTO) (*Post, error) {
	if !identity.Can(auth.PermissionWrite) {
		return nil, ErrForbidden
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &Post{AuthorID: authorID, CreatedAt: now, UpdatedAt: now}
	if err := p.SetBody(dto.Body); err != nil {
		return nil, err
	}

	if err := s.repo.Create(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update lets the author edit their own post; moderators and
// administrators can edit anyone's.
func (s *Service) Update(identity auth.Identity, editorID int64, postID int64, dto UpdatePostDTO) (*Post, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	p, err := s.repo.GetByID(postID)
	if err != nil {
		return nil, err
	}

	if p.AuthorID != editorID && !identity.Can(auth.PermissionModerate) {
		return nil, ErrForbidden
	}

	if err := p.SetBody(dto.Body); err != nil {
		return nil, err
	}
	p.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(identity auth.Identity, editorID int64, postID int64) error {
	p, err := s.repo.GetByID(postID)
	if err != nil {
		return err
	}

	if p.AuthorID != editorID && !identity.IsAdministrator() {
		return ErrForbidden
	}
	return s.repo.Delete(postID)
}

func (s *Service) GetByID(postID int64) (*Post, error) {
	return s.repo.GetByID(postID)
}

func (s *Service) ListAll(limit, offset int) (*Page, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.ListAll(limit, offset)
}

func (s *Service) ListByAuthor(authorID int64, limit, offset int) (*Page, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.ListByAuthor(authorID, limit, offset)
}

// Timeline returns posts by everyone userID follows, which always includes
// userID themself via the self-follow edge.
func (s *Service) Timeline(userID int64, limit, offset int) (*Page, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.ListFollowed(userID, limit, offset)
}
