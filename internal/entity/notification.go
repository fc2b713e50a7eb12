package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NotificationAchievementUnlocked = "achievement_unlocked"
	NotificationTierUp              = "tier_up"
)

type Notification struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    int64     `gorm:"index:idx_notification_user_read,priority:1;not null" json:"user_id"`
	Type      string    `gorm:"type:varchar(50);not null" json:"type"`
	EntityKey string    `gorm:"type:varchar(64)" json:"entity_key"` // achievement type or tier name
	Message   string    `gorm:"type:text" json:"message"`
	IsRead    bool      `gorm:"index:idx_notification_user_read,priority:2;default:false" json:"is_read"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
