package comment

import (
	"bytes"
	"errors"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Comment is a markdown-authored reply to a post. BodyHTML is derived in
// SetBody and never accepted from callers. Disabled comments stay in the
// thread with their flag set so readers see that moderation happened.
type Comment struct {
	ID        int64     `json:"id"`
	Body      string    `json:"body"`
	BodyHTML  string    `json:"body_html"`
	AuthorID  int64     `json:"author_id"`
	PostID    int64     `json:"post_id"`
	Disabled  bool      `json:"disabled"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	ErrNotFound     = errors.New("comment not found")
	ErrPostNotFound = errors.New("post not found")
)

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	// Comments get the same sanitization as posts but a tighter tag set
	// would also do; UGCPolicy already strips scripts and handlers.
	sanitizer = bluemonday.UGCPolicy()
)

// SetBody stores the markdown source and renders the sanitized HTML in the
// same step so the two can never drift apart.
func (c *Comment) SetBody(body string) error {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(body), &buf); err != nil {
		return err
	}
	c.Body = body
	c.BodyHTML = sanitizer.Sanitize(buf.String())
	return nil
}

// Page is a bounded slice of a comment listing.
type Page struct {
	Comments []Comment `json:"comments"`
	Total    int64     `json:"total"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
}

// Repository is the persistence boundary for comments.
type Repository interface {
	Create(c *Comment) error
	GetByID(id int64) (*Comment, error)
	// SetDisabled flips the moderation flag without touching the body.
	SetDisabled(id int64, disabled bool) error
	// ListByPost returns a post's comments oldest first, the reading order
	// of a thread.
	ListByPost(postID int64, limit, offset int) (*Page, error)
	// ListAll returns newest first, the order a moderation queue wants.
	ListAll(limit, offset int) (*Page, error)
}
