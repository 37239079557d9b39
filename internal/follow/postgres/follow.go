package postgres

import (
	"errors"
	"time"

	"github.com/frahmantamala/blogging-platform/internal/follow"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// followRecord is the gorm mapping for the follows table. The composite
// primary key is what enforces edge uniqueness under concurrent inserts.
type followRecord struct {
	FollowerID int64     `gorm:"column:follower_id;primaryKey"`
	FollowedID int64     `gorm:"column:followed_id;primaryKey"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (followRecord) TableName() string {
	return "follows"
}

type FollowRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) follow.Repository {
	return &FollowRepository{db: db}
}

// Upsert inserts the edge, treating a duplicate as success. ON CONFLICT DO
// NOTHING makes the second insert of a racing pair a clean no-op. A foreign
// key violation means the followed user does not exist.
func (r *FollowRepository) Upsert(edge *follow.Edge) error {
	rec := &followRecord{
		FollowerID: edge.FollowerID,
		FollowedID: edge.FollowedID,
		CreatedAt:  edge.CreatedAt,
	}
	err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(rec).Error
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return follow.ErrUserNotFound
	}
	return err
}

func (r *FollowRepository) Delete(followerID, followedID int64) error {
	return r.db.
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Delete(&followRecord{}).Error
}

func (r *FollowRepository) Exists(followerID, followedID int64) (bool, error) {
	var count int64
	err := r.db.Model(&followRecord{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *FollowRepository) Followers(userID int64) ([]follow.Edge, error) {
	return r.edges("followed_id = ? AND follower_id <> ?", userID)
}

func (r *FollowRepository) Following(userID int64) ([]follow.Edge, error) {
	return r.edges("follower_id = ? AND followed_id <> ?", userID)
}

// edges lists follow relationships excluding the self-follow edge, which
// is an implementation detail of timeline queries and not a real social
// relationship.
func (r *FollowRepository) edges(condition string, userID int64) ([]follow.Edge, error) {
	var recs []followRecord
	if err := r.db.Where(condition, userID, userID).Order("created_at DESC").Find(&recs).Error; err != nil {
		return nil, err
	}

	edges := make([]follow.Edge, 0, len(recs))
	for _, rec := range recs {
		edges = append(edges, follow.Edge{
			FollowerID: rec.FollowerID,
			FollowedID: rec.FollowedID,
			CreatedAt:  rec.CreatedAt,
		})
	}
	return edges, nil
}
