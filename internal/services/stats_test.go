package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Skvorcmen/RLT-test/internal/logger"
	"github.com/Skvorcmen/RLT-test/internal/repos"
	"github.com/Skvorcmen/RLT-test/internal/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&types.Video{}, &types.VideoSnapshot{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newStatsService(t *testing.T, db *gorm.DB) StatsService {
	t.Helper()

	log := logger.NewNop()
	return NewStatsService(
		db,
		log,
		repos.NewVideoRepo(db, log),
		repos.NewVideoSnapshotRepo(db, log),
		nil,
		30*time.Second,
	)
}

func TestStatsService_IngestVideoCreatesAndUpdates(t *testing.T) {
	db := newTestDB(t)
	svc := newStatsService(t, db)
	ctx := context.Background()

	createdAt := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	_, err := svc.IngestVideo(ctx, VideoUpsertInput{
		ID:             1,
		CreatorID:      10,
		VideoCreatedAt: createdAt,
		Counts:         types.Counts{Views: 100, Likes: 5},
	})
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}

	// second observation with a different creator id must not rewrite it
	_, err = svc.IngestVideo(ctx, VideoUpsertInput{
		ID:             1,
		CreatorID:      99,
		VideoCreatedAt: createdAt.Add(time.Hour),
		Counts:         types.Counts{Views: 150, Likes: 8},
	})
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}

	got, err := svc.GetVideo(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ViewsCount != 150 || got.LikesCount != 8 {
		t.Fatalf("counters not updated: views=%d likes=%d", got.ViewsCount, got.LikesCount)
	}
	if got.CreatorID != 10 {
		t.Fatalf("creator id rewritten to %d", got.CreatorID)
	}
	if !got.VideoCreatedAt.Equal(createdAt) {
		t.Fatalf("video_created_at rewritten to %v", got.VideoCreatedAt)
	}
}

func TestStatsService_IngestVideoRejectsCounterDecrease(t *testing.T) {
	db := newTestDB(t)
	svc := newStatsService(t, db)
	ctx := context.Background()

	in := VideoUpsertInput{
		ID:             1,
		CreatorID:      10,
		VideoCreatedAt: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		Counts:         types.Counts{Views: 100, Likes: 20},
	}
	if _, err := svc.IngestVideo(ctx, in); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	in.Counts.Likes = 19
	_, err := svc.IngestVideo(ctx, in)
	if !errors.Is(err, ErrCountersDecreased) {
		t.Fatalf("expected ErrCountersDecreased, got %v", err)
	}

	got, err := svc.GetVideo(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.LikesCount != 20 {
		t.Fatalf("rejected write still applied, likes=%d", got.LikesCount)
	}
}

func TestStatsService_AppendSnapshotComputesDeltaSequence(t *testing.T) {
	db := newTestDB(t)
	svc := newStatsService(t, db)
	ctx := context.Background()

	base := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	if _, err := svc.IngestVideo(ctx, VideoUpsertInput{
		ID:             1,
		CreatorID:      10,
		VideoCreatedAt: base,
	}); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	cumulative := []int64{100, 150, 225}
	wantDeltas := []int64{100, 50, 75}
	for i, views := range cumulative {
		snapshot, err := svc.AppendSnapshot(ctx, 1, types.Counts{Views: views}, base.Add(time.Duration(i+1)*time.Hour))
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if snapshot.DeltaViewsCount != wantDeltas[i] {
			t.Fatalf("snapshot %d: expected delta %d, got %d", i, wantDeltas[i], snapshot.DeltaViewsCount)
		}
	}

	history, err := svc.History(ctx, 1, nil, nil)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != len(cumulative) {
		t.Fatalf("expected %d snapshots, got %d", len(cumulative), len(history))
	}
	for i, snapshot := range history {
		if snapshot.ViewsCount != cumulative[i] || snapshot.DeltaViewsCount != wantDeltas[i] {
			t.Fatalf("row %d: views=%d delta=%d", i, snapshot.ViewsCount, snapshot.DeltaViewsCount)
		}
	}
}

func TestStatsService_AppendSnapshotStoresNegativeDelta(t *testing.T) {
	db := newTestDB(t)
	svc := newStatsService(t, db)
	ctx := context.Background()

	base := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	if _, err := svc.IngestVideo(ctx, VideoUpsertInput{ID: 1, CreatorID: 10, VideoCreatedAt: base}); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if _, err := svc.AppendSnapshot(ctx, 1, types.Counts{Views: 100}, base.Add(time.Hour)); err != nil {
		t.Fatalf("first append: %v", err)
	}

	// the platform deleted some views; the tick is still recorded
	snapshot, err := svc.AppendSnapshot(ctx, 1, types.Counts{Views: 90}, base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("second append: %v", err)
	}
	if snapshot.DeltaViewsCount != -10 {
		t.Fatalf("expected delta -10, got %d", snapshot.DeltaViewsCount)
	}
}

func TestStatsService_AppendSnapshotValidations(t *testing.T) {
	db := newTestDB(t)
	svc := newStatsService(t, db)
	ctx := context.Background()
	at := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.AppendSnapshot(ctx, 1, types.Counts{}, time.Time{})
	if !errors.Is(err, ErrMissingMeasuredAt) {
		t.Fatalf("expected ErrMissingMeasuredAt, got %v", err)
	}

	_, err = svc.AppendSnapshot(ctx, 404, types.Counts{}, at)
	if !errors.Is(err, ErrVideoNotFound) {
		t.Fatalf("expected ErrVideoNotFound, got %v", err)
	}
}

func TestStatsService_HistoryMissingVideo(t *testing.T) {
	db := newTestDB(t)
	svc := newStatsService(t, db)

	_, err := svc.History(context.Background(), 404, nil, nil)
	if !errors.Is(err, ErrVideoNotFound) {
		t.Fatalf("expected ErrVideoNotFound, got %v", err)
	}
}

func TestStatsService_DeleteVideoRemovesSnapshots(t *testing.T) {
	db := newTestDB(t)
	svc := newStatsService(t, db)
	ctx := context.Background()

	base := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	if _, err := svc.IngestVideo(ctx, VideoUpsertInput{ID: 1, CreatorID: 10, VideoCreatedAt: base}); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := svc.AppendSnapshot(ctx, 1, types.Counts{Views: int64(i + 1)}, base.Add(time.Duration(i+1)*time.Hour)); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	if err := svc.DeleteVideo(ctx, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteVideo(ctx, 1); !errors.Is(err, ErrVideoNotFound) {
		t.Fatalf("expected ErrVideoNotFound on second delete, got %v", err)
	}

	var left int64
	if err := db.Model(&types.VideoSnapshot{}).Where("video_id = ?", int64(1)).Count(&left).Error; err != nil {
		t.Fatalf("count snapshots: %v", err)
	}
	if left != 0 {
		t.Fatalf("expected cascade to remove snapshots, %d left", left)
	}
}

func TestStatsService_TopVideosWithoutCache(t *testing.T) {
	db := newTestDB(t)
	svc := newStatsService(t, db)
	ctx := context.Background()

	base := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	for i, views := range []int64{50, 500, 200} {
		if _, err := svc.IngestVideo(ctx, VideoUpsertInput{
			ID:             int64(i + 1),
			CreatorID:      10,
			VideoCreatedAt: base,
			Counts:         types.Counts{Views: views},
		}); err != nil {
			t.Fatalf("ingest %d: %v", i, err)
		}
	}

	top, err := svc.TopVideos(ctx, 2)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 2 || top[0].ID != 2 || top[1].ID != 3 {
		t.Fatalf("unexpected leaderboard: %+v", top)
	}
}
