package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	NotificationGroupInvite = "group_invite"
	NotificationNewPost     = "new_post"
	NotificationMention     = "mention"
	NotificationNewFollower = "new_follower"
)

type Notification struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID         `gorm:"type:uuid;not null;index" json:"user_id"` // recipient
	Type      string            `gorm:"type:varchar(50);not null" json:"type"`
	Data      datatypes.JSONMap `gorm:"type:jsonb" json:"data"`
	IsRead    bool              `gorm:"default:false" json:"is_read"`
	CreatedAt time.Time         `gorm:"autoCreateTime;index" json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID, err = uuid.NewV7()
	}
	return
}

// DataString reads a string field from the payload, "" when absent.
func (n Notification) DataString(key string) string {
	if n.Data == nil {
		return ""
	}
	if v, ok := n.Data[key].(string); ok {
		return v
	}
	return ""
}
