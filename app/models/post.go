package models

import (
	"encoding/json"

	"github.com/samber/lo"
)

// NewPost returns a post with an empty comment list.
func NewPost(id, title string) *Post {
	return &Post{
		ID:       id,
		Title:    title,
		Comments: []Comment{},
	}
}

// Validate checks the post's struct tags.
func (p *Post) Validate() error {
	return validate.Struct(p)
}

// MarshalJSON always encodes the comment list as an array.
func (p Post) MarshalJSON() ([]byte, error) {
	type post Post
	out := post(p)
	if out.Comments == nil {
		out.Comments = []Comment{}
	}
	return json.Marshal(out)
}

// AddComment appends a comment to the end of the list.
func (p *Post) AddComment(comment Comment) {
	p.Comments = append(p.Comments, comment)
}

// RemoveComment drops every comment with the given id and reports whether
// the list changed.
func (p *Post) RemoveComment(commentID string) bool {
	kept := lo.Filter(p.Comments, func(c Comment, _ int) bool {
		return c.ID != commentID
	})
	if len(kept) == len(p.Comments) {
		return false
	}
	p.Comments = kept
	return true
}

// UpdateComment replaces the content of the comment with the given id.
func (p *Post) UpdateComment(commentID, content string) bool {
	_, idx, ok := lo.FindIndexOf(p.Comments, func(c Comment) bool {
		return c.ID == commentID
	})
	if !ok {
		return false
	}
	p.Comments[idx].Content = content
	return true
}

// Clone returns a deep copy of the post.
func (p *Post) Clone() *Post {
	clone := *p
	clone.Comments = make([]Comment, len(p.Comments))
	copy(clone.Comments, p.Comments)
	return &clone
}
