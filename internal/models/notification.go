package models

import "time"

// NotificationType tags the engagement event a notification was derived from.
type NotificationType string

const (
	NotificationCommentPost    NotificationType = "COMMENT_POST"
	NotificationReplyComment   NotificationType = "REPLY_COMMENT"
	NotificationFriendRequest  NotificationType = "FRIEND_REQUEST"
	NotificationFriendAccepted NotificationType = "FRIEND_ACCEPTED"
	NotificationLike           NotificationType = "LIKE"
)

// Notification represents a user notification (PostgreSQL). Rows are only written by the
// fan-out and only IsRead ever changes afterwards. PostID, CommentID and ParentCommentID
// are not foreign keys: they may dangle once the post or comment is deleted.
type Notification struct {
	ID          uint             `json:"id" gorm:"primaryKey"`
	SenderID    uint             `json:"sender_id" gorm:"index;not null"`
	RecipientID uint             `json:"recipient_id" gorm:"index;not null"`
	Type        NotificationType `json:"type" gorm:"size:30;index;not null"`
	Message     string           `json:"message" gorm:"type:text"`
	PostID      *string          `json:"post_id,omitempty" gorm:"size:24"`
	CommentID   *uint            `json:"comment_id,omitempty"`
	// ParentCommentID is the comment replied to, set on REPLY_COMMENT only.
	ParentCommentID *uint     `json:"parent_comment_id,omitempty"`
	FriendEdgeID    *uint     `json:"friend_edge_id,omitempty"`
	IsRead          bool      `json:"is_read" gorm:"default:false;index"`
	CreatedAt       time.Time `json:"created_at" gorm:"index"`
}

// NotificationEvent is the tagged variant a Notification is built from. Each
// implementation carries only the references relevant to its type.
type NotificationEvent interface {
	Type() NotificationType
	apply(n *Notification)
}

// CommentPostEvent: someone commented on the recipient's post.
type CommentPostEvent struct {
	PostID    string
	CommentID uint
}

func (CommentPostEvent) Type() NotificationType { return NotificationCommentPost }

func (e CommentPostEvent) apply(n *Notification) {
	n.PostID = &e.PostID
	n.CommentID = &e.CommentID
}

// ReplyCommentEvent: someone replied to the recipient's comment. CommentID is the reply.
type ReplyCommentEvent struct {
	PostID          string
	CommentID       uint
	ParentCommentID uint
}

func (ReplyCommentEvent) Type() NotificationType { return NotificationReplyComment }

func (e ReplyCommentEvent) apply(n *Notification) {
	n.PostID = &e.PostID
	n.CommentID = &e.CommentID
	n.ParentCommentID = &e.ParentCommentID
}

// FriendRequestEvent: the recipient received a friend request.
type FriendRequestEvent struct {
	EdgeID uint
}

func (FriendRequestEvent) Type() NotificationType { return NotificationFriendRequest }

func (e FriendRequestEvent) apply(n *Notification) {
	n.FriendEdgeID = &e.EdgeID
}

// FriendAcceptedEvent: the recipient's friend request was accepted.
type FriendAcceptedEvent struct {
	EdgeID uint
}

func (FriendAcceptedEvent) Type() NotificationType { return NotificationFriendAccepted }

func (e FriendAcceptedEvent) apply(n *Notification) {
	n.FriendEdgeID = &e.EdgeID
}

// LikeEvent: the recipient's post (CommentID nil) or comment was liked.
type LikeEvent struct {
	PostID    string
	CommentID *uint
}

func (LikeEvent) Type() NotificationType { return NotificationLike }

func (e LikeEvent) apply(n *Notification) {
	n.PostID = &e.PostID
	if e.CommentID != nil {
		id := *e.CommentID
		n.CommentID = &id
	}
}

// NewNotification builds an unread notification row for event.
func NewNotification(senderID, recipientID uint, event NotificationEvent, message string, createdAt time.Time) *Notification {
	n := &Notification{
		SenderID:    senderID,
		RecipientID: recipientID,
		Type:        event.Type(),
		Message:     message,
		CreatedAt:   createdAt,
	}
	event.apply(n)
	return n
}
