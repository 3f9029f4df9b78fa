package models

import (
	"time"
)

// CollectedVideo is the persisted form of a video discovered during search or
// profile collection.
type CollectedVideo struct {
	VideoURL     string    `gorm:"primaryKey;column:video_url"`
	CoverImage   string    `gorm:"column:cover_image"`
	Title        string    `gorm:"column:title"`
	Author       string    `gorm:"column:author"`
	PublishTime  string    `gorm:"column:publish_time"`
	Likes        string    `gorm:"column:likes"`
	CommentCount int       `gorm:"column:comment_count;default:0"`
	Keyword      string    `gorm:"column:keyword"`
	CollectedAt  time.Time `gorm:"column:collected_at;not null;default:CURRENT_TIMESTAMP"`
}

// TableName specifies the table name for the CollectedVideo model
func (CollectedVideo) TableName() string {
	return "collected_videos"
}

// CollectedUser is the persisted form of a user card discovered during user
// search collection.
type CollectedUser struct {
	UserLink    string    `gorm:"primaryKey;column:user_link"`
	Title       string    `gorm:"column:title"`
	DouyinID    string    `gorm:"column:douyin_id"`
	Likes       string    `gorm:"column:likes"`
	Followers   string    `gorm:"column:followers"`
	Description string    `gorm:"column:description"`
	AvatarURL   string    `gorm:"column:avatar_url"`
	Keyword     string    `gorm:"column:keyword"`
	CollectedAt time.Time `gorm:"column:collected_at;not null;default:CURRENT_TIMESTAMP"`
}

// TableName specifies the table name for the CollectedUser model
func (CollectedUser) TableName() string {
	return "collected_users"
}
