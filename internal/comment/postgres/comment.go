package postgres

import (
	"errors"
	"time"

	"github.com/frahmantamala/blogging-platform/internal/comment"
	"gorm.io/gorm"
)

// commentRecord is the gorm mapping for the comments table.
type commentRecord struct {
	ID        int64     `gorm:"primaryKey"`
	Body      string    `gorm:"column:body;not null"`
	BodyHTML  string    `gorm:"column:body_html"`
	AuthorID  int64     `gorm:"column:author_id;index;not null"`
	PostID    int64     `gorm:"column:post_id;index;not null"`
	Disabled  bool      `gorm:"column:disabled;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;index"`
}

func (commentRecord) TableName() string {
	return "comments"
}

func toRecord(c *comment.Comment) *commentRecord {
	return &commentRecord{
		ID:        c.ID,
		Body:      c.Body,
		BodyHTML:  c.BodyHTML,
		AuthorID:  c.AuthorID,
		PostID:    c.PostID,
		Disabled:  c.Disabled,
		CreatedAt: c.CreatedAt,
	}
}

func fromRecord(rec *commentRecord) comment.Comment {
	return comment.Comment{
		ID:        rec.ID,
		Body:      rec.Body,
		BodyHTML:  rec.BodyHTML,
		AuthorID:  rec.AuthorID,
		PostID:    rec.PostID,
		Disabled:  rec.Disabled,
		CreatedAt: rec.CreatedAt,
	}
}

type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) comment.Repository {
	return &CommentRepository{db: db}
}

// Create inserts the comment. A foreign key violation on post_id means the
// post does not exist.
func (r *CommentRepository) Create(c *comment.Comment) error {
	rec := toRecord(c)
	if err := r.db.Create(rec).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return comment.ErrPostNotFound
		}
		return err
	}
	c.ID = rec.ID
	return nil
}

func (r *CommentRepository) GetByID(id int64) (*comment.Comment, error) {
	var rec commentRecord
	if err := r.db.Where("id = ?", id).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, comment.ErrNotFound
		}
		return nil, err
	}
	c := fromRecord(&rec)
	return &c, nil
}

func (r *CommentRepository) SetDisabled(id int64, disabled bool) error {
	res := r.db.Model(&commentRecord{}).Where("id = ?", id).Update("disabled", disabled)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return comment.ErrNotFound
	}
	return nil
}

func (r *CommentRepository) ListByPost(postID int64, limit, offset int) (*comment.Page, error) {
	query := r.db.Model(&commentRecord{}).Where("post_id = ?", postID)
	return r.page(query, "comments.created_at ASC", limit, offset)
}

func (r *CommentRepository) ListAll(limit, offset int) (*comment.Page, error) {
	return r.page(r.db.Model(&commentRecord{}), "comments.created_at DESC", limit, offset)
}

func (r *CommentRepository) page(query *gorm.DB, order string, limit, offset int) (*comment.Page, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var recs []commentRecord
	if err := query.Order(order).Limit(limit).Offset(offset).Find(&recs).Error; err != nil {
		return nil, err
	}

	comments := make([]comment.Comment, 0, len(recs))
	for i := range recs {
		comments = append(comments, fromRecord(&recs[i]))
	}

	return &comment.Page{Comments: comments, Total: total, Limit: limit, Offset: offset}, nil
}
