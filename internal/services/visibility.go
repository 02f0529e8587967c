package services

import "github.com/anonto42/nano-midea/engagement/internal/models"

// CanView reports whether viewerID may see post. edge is the active friend edge between
// the viewer and the post owner, or nil when there is none.
//
// A block in either direction hides the post from the other party regardless of its
// visibility.
func CanView(post *models.Post, viewerID uint, edge *models.FriendEdge) bool {
	if post.OwnerID == viewerID {
		return true
	}
	if edge != nil && edge.Status == models.FriendStatusBlocked {
		return false
	}
	switch post.Visibility {
	case models.VisibilityPublic, "":
		return true
	case models.VisibilityFriendsOnly:
		return edge != nil && edge.Status == models.FriendStatusAccepted
	default:
		return false
	}
}
