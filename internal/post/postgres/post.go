package postgres

import (
	"errors"
	"time"

	"github.com/frahmantamala/blogging-platform/internal/post"
	"gorm.io/gorm"
)

// postRecord is the gorm mapping for the posts table.
type postRecord struct {
	ID        int64     `gorm:"primaryKey"`
	Body      string    `gorm:"column:body;not null"`
	BodyHTML  string    `gorm:"column:body_html"`
	AuthorID  int64     `gorm:"column:author_id;index;not null"`
	CreatedAt time.Time `gorm:"column:created_at;index"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (postRecord) TableName() string {
	return "posts"
}

func toRecord(p *post.Post) *postRecord {
	return &postRecord{
		ID:        p.ID,
		Body:      p.Body,
		BodyHTML:  p.BodyHTML,
		AuthorID:  p.AuthorID,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func fromRecord(rec *postRecord) post.Post {
	return post.Post{
		ID:        rec.ID,
		Body:      rec.Body,
		BodyHTML:  rec.BodyHTML,
		AuthorID:  rec.AuthorID,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) post.Repository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Create(p *post.Post) error {
	rec := toRecord(p)
	if err := r.db.Create(rec).Error; err != nil {
		return err
	}
	p.ID = rec.ID
	return nil
}

func (r *PostRepository) GetByID(id int64) (*post.Post, error) {
	var rec postRecord
	if err := r.db.Where("id = ?", id).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, post.ErrNotFound
		}
		return nil, err
	}
	p := fromRecord(&rec)
	return &p, nil
}

func (r *PostRepository) Update(p *post.Post) error {
	res := r.db.Model(&postRecord{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"body":       p.Body,
		"body_html":  p.BodyHTML,
		"updated_at": p.UpdatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return post.ErrNotFound
	}
	return nil
}

func (r *PostRepository) Delete(id int64) error {
	return r.db.Where("id = ?", id).Delete(&postRecord{}).Error
}

func (r *PostRepository) ListAll(limit, offset int) (*post.Page, error) {
	return r.page(r.db.Model(&postRecord{}), limit, offset)
}

func (r *PostRepository) ListByAuthor(authorID int64, limit, offset int) (*post.Page, error) {
	return r.page(r.db.Model(&postRecord{}).Where("author_id = ?", authorID), limit, offset)
}

// ListFollowed joins posts against the caller's follow edges. The user's
// own posts appear because of the self-follow edge, not a special case.
func (r *PostRepository) ListFollowed(userID int64, limit, offset int) (*post.Page, error) {
	query := r.db.Model(&postRecord{}).
		Joins("JOIN follows ON follows.followed_id = posts.author_id").
		Where("follows.follower_id = ?", userID)
	return r.page(query, limit, offset)
}

func (r *PostRepository) page(query *gorm.DB, limit, offset int) (*post.Page, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var recs []postRecord
	if err := query.Order("posts.created_at DESC").Limit(limit).Offset(offset).Find(&recs).Error; err != nil {
		return nil, err
	}

	posts := make([]post.Post, 0, len(recs))
	for i := range recs {
		posts = append(posts, fromRecord(&recs[i]))
	}

	return &post.Page{Posts: posts, Total: total, Limit: limit, Offset: offset}, nil
}
