package models

import (
	"fmt"
	"time"
)

// FriendStatus is the lifecycle state of a FriendEdge. The absence of an edge is the
// implicit NONE state.
type FriendStatus string

const (
	FriendStatusPending  FriendStatus = "PENDING"
	FriendStatusAccepted FriendStatus = "ACCEPTED"
	FriendStatusDeclined FriendStatus = "DECLINED"
	FriendStatusBlocked  FriendStatus = "BLOCKED"
)

// HoldsPair reports whether an edge in status s occupies the unordered pair, i.e. blocks
// any other edge between the same two users.
func (s FriendStatus) HoldsPair() bool {
	return s == FriendStatusPending || s == FriendStatusAccepted || s == FriendStatusBlocked
}

// FriendEdge is a directed friend request from RequesterID to TargetID.
//
// ActivePair is set to PairKey(requester, target) while the edge holds the pair and is
// NULL once declined; its unique index keeps at most one live edge per unordered pair,
// whatever the direction.
type FriendEdge struct {
	ID          uint         `json:"id" gorm:"primaryKey"`
	RequesterID uint         `json:"requester_id" gorm:"index;not null"`
	TargetID    uint         `json:"target_id" gorm:"index;not null"`
	Status      FriendStatus `json:"status" gorm:"type:varchar(20);index;not null"`
	ActivePair  *string      `json:"-" gorm:"size:64;uniqueIndex"`
	BlockedByID *uint        `json:"blocked_by_id,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// PairKey returns the direction-agnostic key of the pair {a, b}.
func PairKey(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// Involves reports whether userID is one of the two parties of the edge.
func (e *FriendEdge) Involves(userID uint) bool {
	return e.RequesterID == userID || e.TargetID == userID
}

// Other returns the party of the edge that is not userID.
func (e *FriendEdge) Other(userID uint) uint {
	if e.RequesterID == userID {
		return e.TargetID
	}
	return e.RequesterID
}

// CreateFriendRequest defines the request body for sending a friend request
type CreateFriendRequest struct {
	TargetID uint `json:"target_id" validate:"required"`
}

// RespondFriendRequest defines the request body for accepting/declining a friend request
type RespondFriendRequest struct {
	Accept *bool `json:"accept" validate:"required"`
}
