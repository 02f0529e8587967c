package models

import "time"

// Comment is a root comment on a post or, when ParentID is set, a reply to another
// comment of the same post. The parent foreign key restricts deletes: a comment can only
// be removed once its replies are gone, and a reply cannot be inserted under a parent
// that no longer exists.
type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    string    `json:"post_id" gorm:"index;not null"` // MongoDB ObjectID as hex string
	UserID    uint      `json:"user_id" gorm:"index;not null"`
	ParentID  *uint     `json:"parent_id,omitempty" gorm:"index"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`

	Parent *Comment `json:"-" gorm:"foreignKey:ParentID;constraint:OnDelete:RESTRICT"`
}

// CreateCommentRequest defines the request body for creating a comment or a reply
type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=500"`
}
