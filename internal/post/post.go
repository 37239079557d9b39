package post

import (
	"bytes"
	"errors"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Post is a markdown-authored entry. BodyHTML is derived state: it is
// rendered and sanitized inside SetBody and never accepted from callers.
type Post struct {
	ID        int64     `json:"id"`
	Body      string    `json:"body"`
	BodyHTML  string    `json:"body_html"`
	AuthorID  int64     `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var ErrNotFound = errors.New("post not found")

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	// UGCPolicy keeps basic formatting and links and strips scripts,
	// event handlers, and embedded content.
	sanitizer = bluemonday.UGCPolicy()
)

// SetBody stores the markdown source and renders the sanitized HTML in the
// same step so the two can never drift apart.
func (p *Post) SetBody(body string) error {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(body), &buf); err != nil {
		return err
	}
	p.Body = body
	p.BodyHTML = sanitizer.Sanitize(buf.String())
	return nil
}

// Page is a bounded slice of a post listing.
type Page struct {
	Posts  []Post `json:"posts"`
	Total  int64  `json:"total"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

// Repository is the persistence boundary for posts.
type Repository interface {
	Create(p *Post) error
	GetByID(id int64) (*Post, error)
	Update(p *Post) error
	Delete(id int64) error
	ListAll(limit, offset int) (*Page, error)
	ListByAuthor(authorID int64, limit, offset int) (*Page, error)
	// ListFollowed returns posts whose author is followed by userID. The
	// self-follow edge makes the user's own posts part of the result with
	// no special casing.
	ListFollowed(userID int64, limit, offset int) (*Page, error)
}
