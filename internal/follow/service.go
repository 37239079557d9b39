package follow

import (
	"time"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Follow creates the edge if absent. Following twice leaves exactly one
// edge; the repository's composite key absorbs concurrent duplicates.
func (s *Service) Follow(followerID, followedID int64) error {
	return s.repo.Upsert(&Edge{
		FollowerID: followerID,
		FollowedID: followedID,
		CreatedAt:  time.Now().UTC(),
	})
}

// Unfollow removes the edge if present; unfollowing a non-edge is a no-op.
// The self-follow edge is load-bearing for timeline queries, so removing
// it is refused rather than silently breaking the user's own timeline.
func (s *Service) Unfollow(followerID, followedID int64) error {
	if followerID == followedID {
		return ErrSelfUnfollow
	}
	return s.repo.Delete(followerID, followedID)
}

func (s *Service) IsFollowing(followerID, followedID int64) (bool, error) {
	return s.repo.Exists(followerID, followedID)
}

func (s *Service) Followers(userID int64) ([]Edge, error) {
	return s.repo.Followers(userID)
}

func (s *Service) Following(userID int64) ([]Edge, error) {
	return s.repo.Following(userID)
}
