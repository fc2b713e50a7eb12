package entity

import "time"

const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
	PostStatusFailed    = "failed"
)

// Post is owned by the posting subsystem. A published post with a publish
// time is a publish event.
type Post struct {
	ID          int64      `gorm:"primaryKey" json:"id"`
	UserID      int64      `gorm:"index:idx_post_user_published,priority:1;not null" json:"user_id"`
	Title       string     `gorm:"size:255" json:"title"`
	Status      string     `gorm:"size:20;not null;default:draft" json:"status"`
	PublishedAt *time.Time `gorm:"index:idx_post_user_published,priority:2" json:"published_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished && p.PublishedAt != nil
}
