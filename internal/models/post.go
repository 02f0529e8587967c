package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Visibility controls who may see a post and engage with it.
type Visibility string

const (
	VisibilityPrivate     Visibility = "PRIVATE"
	VisibilityFriendsOnly Visibility = "FRIENDS_ONLY"
	VisibilityPublic      Visibility = "PUBLIC"
)

// Valid reports whether v is one of the known visibilities.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPrivate, VisibilityFriendsOnly, VisibilityPublic:
		return true
	}
	return false
}

// Post represents a social media post stored in MongoDB
type Post struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	OwnerID    uint               `json:"owner_id" bson:"owner_id"` // ID of the PostgreSQL user who created the post
	Content    string             `json:"content" bson:"content"`
	Visibility Visibility         `json:"visibility" bson:"visibility"`
	ImageURLs  []string           `json:"image_urls,omitempty" bson:"image_urls,omitempty"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at" bson:"updated_at"`
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Content    string     `json:"content" validate:"required,min=1,max=280"`
	Visibility Visibility `json:"visibility" validate:"omitempty,oneof=PRIVATE FRIENDS_ONLY PUBLIC"`
	ImageURLs  []string   `json:"image_urls,omitempty" validate:"omitempty,max=4,dive,url"`
}
