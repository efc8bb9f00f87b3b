package service

import (
	feedDto "anoa.com/feedsync/internal/modules/feed/dto"
	interactionDto "anoa.com/feedsync/internal/modules/interaction/dto"
	inviteDto "anoa.com/feedsync/internal/modules/invite/dto"
	notification "anoa.com/feedsync/internal/modules/notification/service"
	trending "anoa.com/feedsync/internal/modules/trending/service"
	"github.com/google/uuid"
)

const (
	IntentRefreshFeed     = "refresh_feed"
	IntentToggleLike      = "toggle_like"
	IntentAddComment      = "add_comment"
	IntentLoadComments    = "load_comments"
	IntentMarkRead        = "mark_read"
	IntentMarkAllRead     = "mark_all_read"
	IntentRefreshInvites  = "refresh_invites"
	IntentRespondInvite   = "respond_invite"
	IntentRefreshTrending = "refresh_trending"
)

// Intent is one user action sent by the UI.
type Intent struct {
	Type           string     `json:"type"`
	PostID         uuid.UUID  `json:"post_id"`
	GroupID        *uuid.UUID `json:"group_id"`
	AuthorID       *uuid.UUID `json:"author_id"`
	Limit          int        `json:"limit"`
	Content        string     `json:"content"`
	NotificationID uuid.UUID  `json:"notification_id"`
	InviteID       uuid.UUID  `json:"invite_id"`
	Accept         bool       `json:"accept"`
}

// Snapshot is the whole state the UI renders. A published snapshot is never
// modified.
type Snapshot struct {
	Version       int64                                          `json:"version"`
	Feed          []feedDto.Post                                 `json:"feed"`
	Comments      map[uuid.UUID][]interactionDto.CommentResponse `json:"comments"`
	Notifications notification.Snapshot                          `json:"notifications"`
	Invites       []inviteDto.InviteResponse                     `json:"invites"`
	Trending      []trending.Tag                                 `json:"trending"`
}

const (
	MessageSnapshot = "snapshot"
	MessageToast    = "toast"
	MessageError    = "error"
)

// Message is what the socket writes to the UI.
type Message struct {
	Type     string              `json:"type"`
	Snapshot *Snapshot           `json:"snapshot,omitempty"`
	Toast    *notification.Toast `json:"toast,omitempty"`
	Intent   string              `json:"intent,omitempty"`
	Error    string              `json:"error,omitempty"`
}
