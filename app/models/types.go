package models

// Post is the materialized view of a blog post with its comments embedded.
type Post struct {
	ID       string    `json:"id" validate:"required"`
	Title    string    `json:"title"`
	Comments []Comment `json:"comment" validate:"dive"`
}

// Comment is a comment embedded in its parent post.
type Comment struct {
	ID      string `json:"id" validate:"required"`
	Content string `json:"content"`
}
