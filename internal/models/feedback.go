package models

import (
	"io"
	"time"
)

const (
	MinFeedbackRating     = 1
	MaxFeedbackRating     = 5
	MaxFeedbackCommentLen = 500
)

// Feedback is a user rating and comment on one point. Users are referenced
// by email.
type Feedback struct {
	ID        string    `db:"id" json:"id"`
	UserEmail string    `db:"user_email" json:"user_email"`
	PointID   string    `db:"point_id" json:"point_id"`
	Rating    int       `db:"rating" json:"rating"`
	Comment   string    `db:"comment" json:"comment"`
	ImageKey  *string   `db:"image_key" json:"-"`
	ImageURL  string    `db:"-" json:"image_url,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CreateFeedbackRequest is accepted as JSON or multipart form fields.
type CreateFeedbackRequest struct {
	Rating  *int   `json:"rating" form:"rating"`
	Comment string `json:"comment" form:"comment"`
}

// FeedbackImage is an uploaded attachment awaiting storage.
type FeedbackImage struct {
	Filename string
	Size     int64
	Content  io.Reader
}
