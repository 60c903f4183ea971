package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
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

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want time.Time
		ok   bool
	}{
		{"iso no zone", "2025-11-28T14:30:00", time.Date(2025, 11, 28, 14, 30, 0, 0, time.UTC), true},
		{"iso microseconds", "2025-11-28T14:30:00.123456", time.Date(2025, 11, 28, 14, 30, 0, 123456000, time.UTC), true},
		{"space separated", "2025-11-28 14:30:00", time.Date(2025, 11, 28, 14, 30, 0, 0, time.UTC), true},
		{"zulu", "2025-11-28T14:30:00Z", time.Date(2025, 11, 28, 14, 30, 0, 0, time.UTC), true},
		{"rfc3339 offset", "2025-11-28T14:30:00+03:00", time.Date(2025, 11, 28, 14, 30, 0, 0, time.FixedZone("", 3*3600)), true},
		{"garbage", "yesterday", time.Time{}, false},
		{"empty", "", time.Time{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseTimestamp(tc.in)
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok {
				if err == nil {
					t.Fatalf("expected error for %q", tc.in)
				}
				return
			}
			if !got.Equal(tc.want) {
				t.Fatalf("ParseTimestamp(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dataset.json")
	payload := `[
		{
			"id": 1, "creator_id": 10, "video_created_at": "2025-11-01T00:00:00",
			"views_count": 225, "likes_count": 9,
			"snapshots": [
				{"id": 1, "views_count": 100, "delta_views_count": 100, "created_at": "2025-11-01T01:00:00"},
				{"id": 2, "views_count": 225, "delta_views_count": 125, "created_at": "2025-11-01T02:00:00"}
			]
		}
	]`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}

	l := New(logger.NewNop(), nil, nil)
	records, err := l.ParseFile(path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].ID != 1 || records[0].ViewsCount != 225 {
		t.Fatalf("unexpected record: %+v", records[0])
	}
	if len(records[0].Snapshots) != 2 || records[0].Snapshots[1].DeltaViewsCount != 125 {
		t.Fatalf("unexpected snapshots: %+v", records[0].Snapshots)
	}
}

func TestParseFile_RejectsNonArray(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dataset.json")
	if err := os.WriteFile(path, []byte(`{"videos": []}`), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}

	l := New(logger.NewNop(), nil, nil)
	if _, err := l.ParseFile(path); err == nil {
		t.Fatalf("expected error for non-array dataset")
	}
}

func TestLoad_UpsertsVideosAndSnapshots(t *testing.T) {
	db := newTestDB(t)
	log := logger.NewNop()
	videoRepo := repos.NewVideoRepo(db, log)
	snapshotRepo := repos.NewVideoSnapshotRepo(db, log)
	l := New(log, videoRepo, snapshotRepo)

	records := []VideoRecord{
		{
			ID: 1, CreatorID: 10, VideoCreatedAt: "2025-11-01T00:00:00",
			ViewsCount: 225,
			Snapshots: []SnapshotRecord{
				{ID: 1, ViewsCount: 100, DeltaViewsCount: 100, CreatedAt: "2025-11-01T01:00:00"},
				{ID: 2, ViewsCount: 225, DeltaViewsCount: 125, CreatedAt: "2025-11-01T02:00:00"},
			},
		},
		{ID: 2, CreatorID: 10, VideoCreatedAt: "2025-11-02 12:00:00", ViewsCount: 50},
	}

	stats, err := l.Load(context.Background(), records)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if stats.VideosLoaded != 2 || stats.SnapshotsLoaded != 2 || stats.VideosFailed != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	// re-running the same dataset must not duplicate rows
	if _, err := l.Load(context.Background(), records); err != nil {
		t.Fatalf("second load: %v", err)
	}
	videoCount, err := videoRepo.Count(context.Background(), nil)
	if err != nil {
		t.Fatalf("count videos: %v", err)
	}
	if videoCount != 2 {
		t.Fatalf("expected 2 videos after re-run, got %d", videoCount)
	}
	snapshotCount, err := snapshotRepo.CountByVideoID(context.Background(), nil, 1)
	if err != nil {
		t.Fatalf("count snapshots: %v", err)
	}
	if snapshotCount != 2 {
		t.Fatalf("expected 2 snapshots after re-run, got %d", snapshotCount)
	}
}

func TestLoad_SkipsBadRecord(t *testing.T) {
	db := newTestDB(t)
	log := logger.NewNop()
	videoRepo := repos.NewVideoRepo(db, log)
	snapshotRepo := repos.NewVideoSnapshotRepo(db, log)
	l := New(log, videoRepo, snapshotRepo)

	records := []VideoRecord{
		{ID: 1, CreatorID: 10, VideoCreatedAt: "not a timestamp"},
		{ID: 2, CreatorID: 10, VideoCreatedAt: "2025-11-02T00:00:00"},
	}

	stats, err := l.Load(context.Background(), records)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if stats.VideosLoaded != 1 || stats.VideosFailed != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
