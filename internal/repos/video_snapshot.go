package repos

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skvorcmen/RLT-test/internal/logger"
	"github.com/Skvorcmen/RLT-test/internal/types"
)

type VideoSnapshotRepo interface {
	Create(ctx context.Context, tx *gorm.DB, snapshot *types.VideoSnapshot) error
	UpsertBatch(ctx context.Context, tx *gorm.DB, snapshots []*types.VideoSnapshot, batchSize int) error
	Latest(ctx context.Context, tx *gorm.DB, videoID int64) (*types.VideoSnapshot, error)
	History(ctx context.Context, tx *gorm.DB, videoID int64, from, to *time.Time) ([]*types.VideoSnapshot, error)
	CountByVideoID(ctx context.Context, tx *gorm.DB, videoID int64) (int64, error)
}

type videoSnapshotRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVideoSnapshotRepo(db *gorm.DB, baseLog *logger.Logger) VideoSnapshotRepo {
	return &videoSnapshotRepo{db: db, log: baseLog.With("repo", "VideoSnapshotRepo")}
}

func (r *videoSnapshotRepo) Create(ctx context.Context, tx *gorm.DB, snapshot *types.VideoSnapshot) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).Create(snapshot).Error
}

// UpsertBatch inserts snapshots in batches, replacing counters and deltas for
// ids that already exist. Used by the dataset loader.
func (r *videoSnapshotRepo) UpsertBatch(ctx context.Context, tx *gorm.DB, snapshots []*types.VideoSnapshot, batchSize int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(snapshots) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 500
	}

	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"views_count", "likes_count", "comments_count", "reports_count",
				"delta_views_count", "delta_likes_count", "delta_comments_count", "delta_reports_count",
				"updated_at",
			}),
		}).
		CreateInBatches(snapshots, batchSize).Error
}

// Latest returns the most recent snapshot for the video, or nil when the
// video has no snapshots yet. Ties on created_at break on the higher id.
func (r *videoSnapshotRepo) Latest(ctx context.Context, tx *gorm.DB, videoID int64) (*types.VideoSnapshot, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var snapshot types.VideoSnapshot
	if err := transaction.WithContext(ctx).
		Where("video_id = ?", videoID).
		Order("created_at DESC").
		Order("id DESC").
		First(&snapshot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &snapshot, nil
}

// History returns the time-ordered snapshot series for a video. The range is
// inclusive of from and exclusive of to; either bound may be nil.
func (r *videoSnapshotRepo) History(ctx context.Context, tx *gorm.DB, videoID int64, from, to *time.Time) ([]*types.VideoSnapshot, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	query := transaction.WithContext(ctx).
		Where("video_id = ?", videoID)
	if from != nil {
		query = query.Where("created_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("created_at < ?", *to)
	}

	var results []*types.VideoSnapshot
	if err := query.
		Order("created_at ASC").
		Order("id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *videoSnapshotRepo) CountByVideoID(ctx context.Context, tx *gorm.DB, videoID int64) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.VideoSnapshot{}).
		Where("video_id = ?", videoID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
