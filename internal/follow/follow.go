package follow

import (
	"errors"
	"time"
)

// Edge is a directed follow relationship. The (follower, followed) pair is
// the primary key, which is what makes Follow idempotent under races: the
// second insert of the same edge is a no-op, not an error.
type Edge struct {
	FollowerID int64     `json:"follower_id"`
	FollowedID int64     `json:"followed_id"`
	CreatedAt  time.Time `json:"created_at"`
}

var (
	ErrSelfUnfollow = errors.New("cannot unfollow yourself")
	ErrUserNotFound = errors.New("user not found")
)

// Repository is the persistence boundary for follow edges.
type Repository interface {
	Upsert(edge *Edge) error
	Delete(followerID, followedID int64) error
	Exists(followerID, followedID int64) (bool, error)
	Followers(userID int64) ([]Edge, error)
	Following(userID int64) ([]Edge, error)
}

// ServiceAPI is the surface the HTTP layer depends on.
type ServiceAPI interface {
	Follow(followerID, followedID int64) error
	Unfollow(followerID, followedID int64) error
	IsFollowing(followerID, followedID int64) (bool, error)
	Followers(userID int64) ([]Edge, error)
	Following(userID int64) ([]Edge, error)
}
