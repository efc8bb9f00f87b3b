package service

import (
	"fmt"

	"anoa.com/feedsync/internal/entity"
	"github.com/google/uuid"
)

// Toast is the transient message shown when a notification arrives.
type Toast struct {
	NotificationID uuid.UUID `json:"notification_id"`
	Type           string    `json:"type"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
}

type Toaster interface {
	Toast(toast Toast)
}

// ToasterFunc adapts a function to Toaster.
type ToasterFunc func(Toast)

func (f ToasterFunc) Toast(toast Toast) { f(toast) }

// Describe maps a notification to its toast. Unknown types get a generic
// title and an empty body.
func Describe(n entity.Notification) Toast {
	toast := Toast{NotificationID: n.ID, Type: n.Type}

	switch n.Type {
	case entity.NotificationGroupInvite:
		toast.Title = "New Group Invite"
		toast.Body = fmt.Sprintf("You've been invited to join %s", n.DataString("group_name"))
	case entity.NotificationNewPost:
		toast.Title = "New Post"
		toast.Body = fmt.Sprintf("New post in %s", n.DataString("group_name"))
	case entity.NotificationMention:
		toast.Title = "New Mention"
		toast.Body = fmt.Sprintf("%s mentioned you in a %s", n.DataString("username"), n.DataString("content_type"))
	case entity.NotificationNewFollower:
		toast.Title = "New Follower"
		toast.Body = fmt.Sprintf("%s started following you", n.DataString("username"))
	default:
		toast.Title = "Notification"
	}
	return toast
}
