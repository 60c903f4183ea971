package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Skvorcmen/RLT-test/internal/logger"
	"github.com/Skvorcmen/RLT-test/internal/repos"
	"github.com/Skvorcmen/RLT-test/internal/types"
)

// VideoRecord mirrors one entry of the dataset JSON: the video's final state
// plus its full snapshot history. Timestamps arrive as strings in a handful
// of formats, so they stay raw here and are parsed on load.
type VideoRecord struct {
	ID             int64            `json:"id"`
	CreatorID      int64            `json:"creator_id"`
	VideoCreatedAt string           `json:"video_created_at"`
	ViewsCount     int64            `json:"views_count"`
	LikesCount     int64            `json:"likes_count"`
	CommentsCount  int64            `json:"comments_count"`
	ReportsCount   int64            `json:"reports_count"`
	CreatedAt      string           `json:"created_at"`
	UpdatedAt      string           `json:"updated_at"`
	Snapshots      []SnapshotRecord `json:"snapshots"`
}

type SnapshotRecord struct {
	ID                 int64  `json:"id"`
	ViewsCount         int64  `json:"views_count"`
	LikesCount         int64  `json:"likes_count"`
	CommentsCount      int64  `json:"comments_count"`
	ReportsCount       int64  `json:"reports_count"`
	DeltaViewsCount    int64  `json:"delta_views_count"`
	DeltaLikesCount    int64  `json:"delta_likes_count"`
	DeltaCommentsCount int64  `json:"delta_comments_count"`
	DeltaReportsCount  int64  `json:"delta_reports_count"`
	CreatedAt          string `json:"created_at"`
	UpdatedAt          string `json:"updated_at"`
}

type Stats struct {
	VideosLoaded    int64
	SnapshotsLoaded int64
	VideosFailed    int64
}

type Loader struct {
	log          *logger.Logger
	videoRepo    repos.VideoRepo
	snapshotRepo repos.VideoSnapshotRepo
	httpClient   *http.Client
	workers      int
	batchSize    int
}

func New(log *logger.Logger, videoRepo repos.VideoRepo, snapshotRepo repos.VideoSnapshotRepo) *Loader {
	return &Loader{
		log:          log.With("service", "Loader"),
		videoRepo:    videoRepo,
		snapshotRepo: snapshotRepo,
		httpClient:   &http.Client{Timeout: 5 * time.Minute},
		workers:      4,
		batchSize:    500,
	}
}

// Download fetches the dataset JSON to destPath, skipping the download when
// the file already exists.
func (l *Loader) Download(ctx context.Context, url, destPath string) error {
	if _, err := os.Stat(destPath); err == nil {
		l.log.Info("Dataset file already exists, skipping download", "path", destPath)
		return nil
	}

	l.log.Info("Downloading dataset...", "url", url)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download dataset: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download dataset: unexpected status %d", resp.StatusCode)
	}

	tmpPath := destPath + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write dataset: %w", err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return err
	}
	l.log.Info("Dataset downloaded", "path", destPath)
	return nil
}

// ParseFile reads the dataset, which must be a JSON array of video records.
func (l *Loader) ParseFile(path string) ([]VideoRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var records []VideoRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("dataset must be a JSON array of video records: %w", err)
	}
	return records, nil
}

// Load upserts all records with bounded concurrency. A failing video is
// logged and skipped; the rest of the dataset still loads.
func (l *Loader) Load(ctx context.Context, records []VideoRecord) (*Stats, error) {
	l.log.Info("Loading dataset...", "videos", len(records))
	stats := &Stats{}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(l.workers)

	for _, record := range records {
		record := record
		group.Go(func() error {
			if err := l.loadVideo(groupCtx, record, stats); err != nil {
				atomic.AddInt64(&stats.VideosFailed, 1)
				l.log.Error("Failed to load video", "video_id", record.ID, "error", err)
				// keep going: one bad record must not abort the import
				return nil
			}
			loaded := atomic.AddInt64(&stats.VideosLoaded, 1)
			if loaded%100 == 0 {
				l.log.Info("Loading progress",
					"videos", loaded,
					"snapshots", atomic.LoadInt64(&stats.SnapshotsLoaded),
				)
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return stats, err
	}
	l.log.Info("Dataset loaded",
		"videos", stats.VideosLoaded,
		"snapshots", stats.SnapshotsLoaded,
		"failed", stats.VideosFailed,
	)
	return stats, nil
}

func (l *Loader) loadVideo(ctx context.Context, record VideoRecord, stats *Stats) error {
	videoCreatedAt, err := ParseTimestamp(record.VideoCreatedAt)
	if err != nil {
		return fmt.Errorf("video_created_at: %w", err)
	}

	video := &types.Video{
		ID:             record.ID,
		CreatorID:      record.CreatorID,
		VideoCreatedAt: videoCreatedAt,
		ViewsCount:     record.ViewsCount,
		LikesCount:     record.LikesCount,
		CommentsCount:  record.CommentsCount,
		ReportsCount:   record.ReportsCount,
		CreatedAt:      parseTimestampOr(record.CreatedAt, videoCreatedAt),
		UpdatedAt:      parseTimestampOr(record.UpdatedAt, videoCreatedAt),
	}
	if err := l.videoRepo.Upsert(ctx, nil, video); err != nil {
		return fmt.Errorf("upsert video: %w", err)
	}

	if len(record.Snapshots) == 0 {
		return nil
	}
	snapshots := make([]*types.VideoSnapshot, 0, len(record.Snapshots))
	for _, s := range record.Snapshots {
		createdAt := parseTimestampOr(s.CreatedAt, videoCreatedAt)
		snapshots = append(snapshots, &types.VideoSnapshot{
			ID:                 s.ID,
			VideoID:            record.ID,
			ViewsCount:         s.ViewsCount,
			LikesCount:         s.LikesCount,
			CommentsCount:      s.CommentsCount,
			ReportsCount:       s.ReportsCount,
			DeltaViewsCount:    s.DeltaViewsCount,
			DeltaLikesCount:    s.DeltaLikesCount,
			DeltaCommentsCount: s.DeltaCommentsCount,
			DeltaReportsCount:  s.DeltaReportsCount,
			CreatedAt:          createdAt,
			UpdatedAt:          parseTimestampOr(s.UpdatedAt, createdAt),
		})
	}
	if err := l.snapshotRepo.UpsertBatch(ctx, nil, snapshots, l.batchSize); err != nil {
		return fmt.Errorf("upsert snapshots: %w", err)
	}
	atomic.AddInt64(&stats.SnapshotsLoaded, int64(len(snapshots)))
	return nil
}

var timestampFormats = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05.999999Z",
	time.RFC3339,
}

// ParseTimestamp tries the timestamp formats the dataset is known to use.
func ParseTimestamp(raw string) (time.Time, error) {
	for _, format := range timestampFormats {
		if ts, err := time.Parse(format, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

func parseTimestampOr(raw string, fallback time.Time) time.Time {
	if raw == "" {
		return fallback
	}
	ts, err := ParseTimestamp(raw)
	if err != nil {
		return fallback
	}
	return ts
}
