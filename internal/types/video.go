package types

import (
	"time"
)

// Video holds the latest known cumulative metrics for one tracked video.
// Counters are monotonically non-decreasing under normal operation; that is
// an ingestion-layer policy, not a schema constraint.
type Video struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatorID      int64     `gorm:"not null;index" json:"creator_id"`
	VideoCreatedAt time.Time `gorm:"not null;index" json:"video_created_at"`
	ViewsCount     int64     `gorm:"not null;default:0;index" json:"views_count"`
	LikesCount     int64     `gorm:"not null;default:0" json:"likes_count"`
	CommentsCount  int64     `gorm:"not null;default:0" json:"comments_count"`
	ReportsCount   int64     `gorm:"not null;default:0" json:"reports_count"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

func (Video) TableName() string { return "videos" }
