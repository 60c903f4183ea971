package types

import (
	"time"
)

// VideoSnapshot is one point-in-time measurement of a video's metrics. Rows
// are append-only and live only as long as their parent video (cascade
// delete). CreatedAt is the measurement time and is always caller-supplied;
// it is the ordering key of the per-video time series.
type VideoSnapshot struct {
	ID      int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	VideoID int64  `gorm:"not null;index;index:idx_video_snapshots_video_id_created_at,priority:1" json:"video_id"`
	Video   *Video `gorm:"constraint:OnDelete:CASCADE;foreignKey:VideoID;references:ID" json:"video,omitempty"`

	ViewsCount    int64 `gorm:"not null;default:0" json:"views_count"`
	LikesCount    int64 `gorm:"not null;default:0" json:"likes_count"`
	CommentsCount int64 `gorm:"not null;default:0" json:"comments_count"`
	ReportsCount  int64 `gorm:"not null;default:0" json:"reports_count"`

	// Increment since the immediately preceding snapshot of the same video,
	// or since the zero baseline for the first snapshot.
	DeltaViewsCount    int64 `gorm:"not null;default:0" json:"delta_views_count"`
	DeltaLikesCount    int64 `gorm:"not null;default:0" json:"delta_likes_count"`
	DeltaCommentsCount int64 `gorm:"not null;default:0" json:"delta_comments_count"`
	DeltaReportsCount  int64 `gorm:"not null;default:0" json:"delta_reports_count"`

	CreatedAt time.Time `gorm:"not null;index;index:idx_video_snapshots_video_id_created_at,priority:2" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (VideoSnapshot) TableName() string { return "video_snapshots" }

// Counts groups the four cumulative counters reported by the platform.
type Counts struct {
	Views    int64 `json:"views_count"`
	Likes    int64 `json:"likes_count"`
	Comments int64 `json:"comments_count"`
	Reports  int64 `json:"reports_count"`
}

func (s *VideoSnapshot) Counts() Counts {
	return Counts{
		Views:    s.ViewsCount,
		Likes:    s.LikesCount,
		Comments: s.CommentsCount,
		Reports:  s.ReportsCount,
	}
}
