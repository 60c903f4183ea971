package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skvorcmen/RLT-test/internal/logger"
	"github.com/Skvorcmen/RLT-test/internal/types"
)

type VideoRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, video *types.Video) error
	GetByID(ctx context.Context, tx *gorm.DB, id int64) (*types.Video, error)
	GetByCreatorID(ctx context.Context, tx *gorm.DB, creatorID int64) ([]*types.Video, error)
	ListTopByViews(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Video, error)
	Delete(ctx context.Context, tx *gorm.DB, id int64) (int64, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type videoRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVideoRepo(db *gorm.DB, baseLog *logger.Logger) VideoRepo {
	return &videoRepo{db: db, log: baseLog.With("repo", "VideoRepo")}
}

// Upsert inserts the video or, when the id already exists, refreshes the
// cumulative counters and updated_at in place.
func (r *videoRepo) Upsert(ctx context.Context, tx *gorm.DB, video *types.Video) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"views_count", "likes_count", "comments_count", "reports_count", "updated_at",
			}),
		}).
		Create(video).Error
}

func (r *videoRepo) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*types.Video, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var video types.Video
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&video).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &video, nil
}

func (r *videoRepo) GetByCreatorID(ctx context.Context, tx *gorm.DB, creatorID int64) ([]*types.Video, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Video
	if err := transaction.WithContext(ctx).
		Where("creator_id = ?", creatorID).
		Order("video_created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *videoRepo) ListTopByViews(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Video, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if limit <= 0 {
		limit = 10
	}

	var results []*types.Video
	if err := transaction.WithContext(ctx).
		Order("views_count DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// Delete removes the video row; its snapshots go with it through the cascade
// foreign key. Returns the number of video rows deleted.
func (r *videoRepo) Delete(ctx context.Context, tx *gorm.DB, id int64) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Video{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *videoRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Video{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
