package models

import (
	"html/template"
	"time"
)

// LikeView is the like aggregate of a post or comment.
type LikeView struct {
	Count   int           `json:"count"`
	LikedBy []UserCompact `json:"liked_by"`
	Liked   bool          `json:"liked"` // whether the requesting user is in LikedBy
}

// CommentView is a rendered comment with its replies in insertion order.
type CommentView struct {
	ID        uint          `json:"id"`
	PostID    string        `json:"post_id"`
	ParentID  *uint         `json:"parent_id,omitempty"`
	Author    *UserCompact  `json:"author"`
	Content   string        `json:"content"`
	BodyHTML  template.HTML `json:"body_html"`
	CreatedAt time.Time     `json:"created_at"`
	Likes     LikeView      `json:"likes"`
	Replies   []CommentView `json:"replies"`
}

// FriendEdgeView is a friend edge with both parties summarised.
type FriendEdgeView struct {
	ID        uint         `json:"id"`
	Requester UserCompact  `json:"requester"`
	Target    UserCompact  `json:"target"`
	Status    FriendStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NotificationView is a notification as returned to its recipient. PostID and CommentID
// are nil when the reference is absent or orphaned.
type NotificationView struct {
	ID        uint             `json:"id"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	Sender    *UserCompact     `json:"sender"`
	Recipient *UserCompact     `json:"recipient"`
	PostID    *string          `json:"post_id"`
	CommentID *uint            `json:"comment_id"`
	// ParentCommentID is set on replies while the parent comment exists.
	ParentCommentID *uint     `json:"parent_comment_id,omitempty"`
	IsRead          bool      `json:"is_read"`
	CreatedAt       time.Time `json:"created_at"`
}

// PostView is a post with its engagement aggregates.
type PostView struct {
	Post         *Post    `json:"post"`
	Likes        LikeView `json:"likes"`
	CommentCount int64    `json:"comment_count"`
}

// GroupedNotifications buckets a user's notifications by age, most recent first within
// each bucket.
type GroupedNotifications struct {
	Today       []NotificationView `json:"today"`
	Yesterday   []NotificationView `json:"yesterday"`
	ThisWeek    []NotificationView `json:"thisWeek"`
	Older       []NotificationView `json:"older"`
	UnreadCount int64              `json:"unreadCount"`
}
