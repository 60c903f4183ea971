package repos

import (
	"context"
	"testing"
	"time"

	"github.com/Skvorcmen/RLT-test/internal/logger"
	"github.com/Skvorcmen/RLT-test/internal/types"
)

func TestVideoSnapshotRepo_CreateRejectsMissingVideo(t *testing.T) {
	db := newTestDB(t)
	repo := NewVideoSnapshotRepo(db, logger.NewNop())

	snapshot := &types.VideoSnapshot{
		VideoID:   9999,
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), nil, snapshot); err == nil {
		t.Fatalf("expected foreign key violation for missing video")
	}
}

func TestVideoSnapshotRepo_LatestPicksMostRecent(t *testing.T) {
	db := newTestDB(t)
	repo := NewVideoSnapshotRepo(db, logger.NewNop())
	ctx := context.Background()

	video := mustCreateVideo(t, db, 1, 10, 0)
	base := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	for i, views := range []int64{100, 150, 225} {
		snapshot := &types.VideoSnapshot{
			VideoID:    video.ID,
			ViewsCount: views,
			CreatedAt:  base.Add(time.Duration(i) * time.Hour),
		}
		if err := repo.Create(ctx, nil, snapshot); err != nil {
			t.Fatalf("create snapshot: %v", err)
		}
	}

	latest, err := repo.Latest(ctx, nil, video.ID)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest == nil {
		t.Fatalf("expected a snapshot, got nil")
	}
	if latest.ViewsCount != 225 {
		t.Fatalf("expected latest views 225, got %d", latest.ViewsCount)
	}
}

func TestVideoSnapshotRepo_LatestEmptyReturnsNil(t *testing.T) {
	db := newTestDB(t)
	repo := NewVideoSnapshotRepo(db, logger.NewNop())

	video := mustCreateVideo(t, db, 1, 10, 0)
	latest, err := repo.Latest(context.Background(), nil, video.ID)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest != nil {
		t.Fatalf("expected nil for video with no snapshots, got %+v", latest)
	}
}

func TestVideoSnapshotRepo_HistoryRangeBounds(t *testing.T) {
	db := newTestDB(t)
	repo := NewVideoSnapshotRepo(db, logger.NewNop())
	ctx := context.Background()

	video := mustCreateVideo(t, db, 1, 10, 0)
	base := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	times := []time.Time{
		base,
		base.Add(1 * time.Hour),
		base.Add(2 * time.Hour),
		base.Add(3 * time.Hour),
	}
	for i, at := range times {
		snapshot := &types.VideoSnapshot{
			VideoID:    video.ID,
			ViewsCount: int64(i),
			CreatedAt:  at,
		}
		if err := repo.Create(ctx, nil, snapshot); err != nil {
			t.Fatalf("create snapshot: %v", err)
		}
	}

	// from is inclusive, to is exclusive
	from := times[1]
	to := times[3]
	got, err := repo.History(ctx, nil, video.ID, &from, &to)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 snapshots in [from, to), got %d", len(got))
	}
	if !got[0].CreatedAt.Equal(times[1]) || !got[1].CreatedAt.Equal(times[2]) {
		t.Fatalf("unexpected range contents: %v, %v", got[0].CreatedAt, got[1].CreatedAt)
	}

	all, err := repo.History(ctx, nil, video.ID, nil, nil)
	if err != nil {
		t.Fatalf("history unbounded: %v", err)
	}
	if len(all) != len(times) {
		t.Fatalf("expected %d snapshots without bounds, got %d", len(times), len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].CreatedAt.Before(all[i-1].CreatedAt) {
			t.Fatalf("history not ascending at index %d", i)
		}
	}
}

func TestVideoSnapshotRepo_HistoryScopedToVideo(t *testing.T) {
	db := newTestDB(t)
	repo := NewVideoSnapshotRepo(db, logger.NewNop())
	ctx := context.Background()

	first := mustCreateVideo(t, db, 1, 10, 0)
	second := mustCreateVideo(t, db, 2, 10, 0)
	at := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	for _, v := range []*types.Video{first, second} {
		if err := repo.Create(ctx, nil, &types.VideoSnapshot{VideoID: v.ID, CreatedAt: at}); err != nil {
			t.Fatalf("create snapshot: %v", err)
		}
	}

	got, err := repo.History(ctx, nil, first.ID, nil, nil)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(got) != 1 || got[0].VideoID != first.ID {
		t.Fatalf("expected only video %d snapshots, got %d rows", first.ID, len(got))
	}
}

func TestVideoSnapshotRepo_UpsertBatchReplacesExisting(t *testing.T) {
	db := newTestDB(t)
	repo := NewVideoSnapshotRepo(db, logger.NewNop())
	ctx := context.Background()

	video := mustCreateVideo(t, db, 1, 10, 0)
	at := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	batch := []*types.VideoSnapshot{
		{ID: 1, VideoID: video.ID, ViewsCount: 100, DeltaViewsCount: 100, CreatedAt: at},
		{ID: 2, VideoID: video.ID, ViewsCount: 150, DeltaViewsCount: 50, CreatedAt: at.Add(time.Hour)},
	}
	if err := repo.UpsertBatch(ctx, nil, batch, 0); err != nil {
		t.Fatalf("first batch: %v", err)
	}

	// re-run with corrected counters for id 2
	batch[1].ViewsCount = 160
	batch[1].DeltaViewsCount = 60
	if err := repo.UpsertBatch(ctx, nil, batch, 0); err != nil {
		t.Fatalf("second batch: %v", err)
	}

	count, err := repo.CountByVideoID(ctx, nil, video.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 snapshots after re-run, got %d", count)
	}

	var updated types.VideoSnapshot
	if err := db.First(&updated, "id = ?", int64(2)).Error; err != nil {
		t.Fatalf("fetch updated: %v", err)
	}
	if updated.ViewsCount != 160 || updated.DeltaViewsCount != 60 {
		t.Fatalf("row not replaced: views=%d delta=%d", updated.ViewsCount, updated.DeltaViewsCount)
	}
}
