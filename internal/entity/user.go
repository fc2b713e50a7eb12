package entity

import "time"

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// User mirrors the directory's users table. This service only reads it.
type User struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Role      string    `gorm:"size:20;not null;default:member" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
