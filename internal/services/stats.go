package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skvorcmen/RLT-test/internal/clients/redis"
	"github.com/Skvorcmen/RLT-test/internal/logger"
	"github.com/Skvorcmen/RLT-test/internal/repos"
	"github.com/Skvorcmen/RLT-test/internal/types"
)

var (
	ErrVideoNotFound     = errors.New("video not found")
	ErrCountersDecreased = errors.New("cumulative counters must not decrease")
	ErrMissingMeasuredAt = errors.New("snapshot measurement time is required")
)

// VideoUpsertInput carries one ingested observation of a video's cumulative
// state. ID and CreatorID come from the platform and are stable.
type VideoUpsertInput struct {
	ID             int64        `json:"id"`
	CreatorID      int64        `json:"creator_id"`
	VideoCreatedAt time.Time    `json:"video_created_at"`
	Counts         types.Counts `json:"counts"`
}

type StatsService interface {
	IngestVideo(ctx context.Context, in VideoUpsertInput) (*types.Video, error)
	AppendSnapshot(ctx context.Context, videoID int64, counts types.Counts, measuredAt time.Time) (*types.VideoSnapshot, error)
	History(ctx context.Context, videoID int64, from, to *time.Time) ([]*types.VideoSnapshot, error)
	GetVideo(ctx context.Context, id int64) (*types.Video, error)
	CreatorVideos(ctx context.Context, creatorID int64) ([]*types.Video, error)
	TopVideos(ctx context.Context, limit int) ([]*types.Video, error)
	DeleteVideo(ctx context.Context, id int64) error
}

type statsService struct {
	db           *gorm.DB
	log          *logger.Logger
	videoRepo    repos.VideoRepo
	snapshotRepo repos.VideoSnapshotRepo
	cache        redis.Cache
	topCacheTTL  time.Duration
}

func NewStatsService(
	db *gorm.DB,
	log *logger.Logger,
	videoRepo repos.VideoRepo,
	snapshotRepo repos.VideoSnapshotRepo,
	cache redis.Cache,
	topCacheTTL time.Duration,
) StatsService {
	return &statsService{
		db:           db,
		log:          log.With("service", "StatsService"),
		videoRepo:    videoRepo,
		snapshotRepo: snapshotRepo,
		cache:        cache,
		topCacheTTL:  topCacheTTL,
	}
}

// IngestVideo creates the video on first sight and refreshes its cumulative
// counters afterwards. Counters are expected to be monotonic; a decrease is
// rejected here rather than at the storage layer.
func (s *statsService) IngestVideo(ctx context.Context, in VideoUpsertInput) (*types.Video, error) {
	if in.ID <= 0 {
		return nil, fmt.Errorf("video id must be positive")
	}

	video := &types.Video{
		ID:             in.ID,
		CreatorID:      in.CreatorID,
		VideoCreatedAt: in.VideoCreatedAt,
		ViewsCount:     in.Counts.Views,
		LikesCount:     in.Counts.Likes,
		CommentsCount:  in.Counts.Comments,
		ReportsCount:   in.Counts.Reports,
		UpdatedAt:      time.Now(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.lockVideo(ctx, tx, in.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			if in.Counts.Views < existing.ViewsCount ||
				in.Counts.Likes < existing.LikesCount ||
				in.Counts.Comments < existing.CommentsCount ||
				in.Counts.Reports < existing.ReportsCount {
				return ErrCountersDecreased
			}
			// creation-time fields are immutable once set
			video.CreatorID = existing.CreatorID
			video.VideoCreatedAt = existing.VideoCreatedAt
			video.CreatedAt = existing.CreatedAt
		}
		return s.videoRepo.Upsert(ctx, tx, video)
	})
	if err != nil {
		return nil, err
	}
	return video, nil
}

// AppendSnapshot records one measurement tick. The deltas are computed
// against the most recent prior snapshot of the same video inside the same
// transaction, with the parent video row locked so concurrent appends for one
// video cannot read a stale prior snapshot.
func (s *statsService) AppendSnapshot(ctx context.Context, videoID int64, counts types.Counts, measuredAt time.Time) (*types.VideoSnapshot, error) {
	if measuredAt.IsZero() {
		return nil, ErrMissingMeasuredAt
	}

	snapshot := &types.VideoSnapshot{
		VideoID:       videoID,
		ViewsCount:    counts.Views,
		LikesCount:    counts.Likes,
		CommentsCount: counts.Comments,
		ReportsCount:  counts.Reports,
		CreatedAt:     measuredAt,
		UpdatedAt:     time.Now(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		video, err := s.lockVideo(ctx, tx, videoID)
		if err != nil {
			return err
		}
		if video == nil {
			return ErrVideoNotFound
		}

		prior, err := s.snapshotRepo.Latest(ctx, tx, videoID)
		if err != nil {
			return err
		}

		var base types.Counts
		if prior != nil {
			base = prior.Counts()
		}
		snapshot.DeltaViewsCount = counts.Views - base.Views
		snapshot.DeltaLikesCount = counts.Likes - base.Likes
		snapshot.DeltaCommentsCount = counts.Comments - base.Comments
		snapshot.DeltaReportsCount = counts.Reports - base.Reports

		if snapshot.DeltaViewsCount < 0 || snapshot.DeltaLikesCount < 0 ||
			snapshot.DeltaCommentsCount < 0 || snapshot.DeltaReportsCount < 0 {
			s.log.Warn("Negative snapshot delta, storing as-is",
				"video_id", videoID,
				"measured_at", measuredAt,
			)
		}

		return s.snapshotRepo.Create(ctx, tx, snapshot)
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (s *statsService) History(ctx context.Context, videoID int64, from, to *time.Time) ([]*types.VideoSnapshot, error) {
	video, err := s.videoRepo.GetByID(ctx, nil, videoID)
	if err != nil {
		return nil, err
	}
	if video == nil {
		return nil, ErrVideoNotFound
	}
	return s.snapshotRepo.History(ctx, nil, videoID, from, to)
}

func (s *statsService) GetVideo(ctx context.Context, id int64) (*types.Video, error) {
	video, err := s.videoRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if video == nil {
		return nil, ErrVideoNotFound
	}
	return video, nil
}

func (s *statsService) CreatorVideos(ctx context.Context, creatorID int64) ([]*types.Video, error) {
	return s.videoRepo.GetByCreatorID(ctx, nil, creatorID)
}

// TopVideos serves the views leaderboard, cached for a short TTL when a cache
// is wired. Stale reads within the TTL are acceptable for this endpoint.
func (s *statsService) TopVideos(ctx context.Context, limit int) ([]*types.Video, error) {
	if limit <= 0 {
		limit = 10
	}

	cacheKey := fmt.Sprintf("top_videos:%d", limit)
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, cacheKey)
		if err != nil {
			s.log.Warn("Top videos cache read failed", "error", err)
		} else if ok {
			var videos []*types.Video
			if uErr := json.Unmarshal([]byte(cached), &videos); uErr == nil {
				return videos, nil
			}
		}
	}

	videos, err := s.videoRepo.ListTopByViews(ctx, nil, limit)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, mErr := json.Marshal(videos); mErr == nil {
			if cErr := s.cache.Set(ctx, cacheKey, string(raw), s.topCacheTTL); cErr != nil {
				s.log.Warn("Top videos cache write failed", "error", cErr)
			}
		}
	}
	return videos, nil
}

func (s *statsService) DeleteVideo(ctx context.Context, id int64) error {
	deleted, err := s.videoRepo.Delete(ctx, nil, id)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrVideoNotFound
	}
	return nil
}

// lockVideo fetches the video row FOR UPDATE where the dialect supports it,
// serializing writers for one video. Returns nil when the video is absent.
func (s *statsService) lockVideo(ctx context.Context, tx *gorm.DB, videoID int64) (*types.Video, error) {
	query := tx.WithContext(ctx).Where("id = ?", videoID)
	if tx.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var video types.Video
	if err := query.First(&video).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &video, nil
}
