package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Skvorcmen/RLT-test/internal/services"
	"github.com/Skvorcmen/RLT-test/internal/types"
)

type SnapshotHandler struct {
	statsService services.StatsService
}

func NewSnapshotHandler(statsService services.StatsService) *SnapshotHandler {
	return &SnapshotHandler{statsService: statsService}
}

type appendSnapshotRequest struct {
	ViewsCount    int64 `json:"views_count"`
	LikesCount    int64 `json:"likes_count"`
	CommentsCount int64 `json:"comments_count"`
	ReportsCount  int64 `json:"reports_count"`
	// measurement time; required, there is no server-side default
	CreatedAt time.Time `json:"created_at" binding:"required"`
}

// Append records one measurement tick for a video. Deltas against the prior
// snapshot are computed server-side.
func (sh *SnapshotHandler) Append(c *gin.Context) {
	videoID, err := parseIDParam(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}

	var req appendSnapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	snapshot, err := sh.statsService.AppendSnapshot(c.Request.Context(), videoID, types.Counts{
		Views:    req.ViewsCount,
		Likes:    req.LikesCount,
		Comments: req.CommentsCount,
		Reports:  req.ReportsCount,
	}, req.CreatedAt)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrVideoNotFound):
			RespondError(c, http.StatusNotFound, "video_not_found", err)
		case errors.Is(err, services.ErrMissingMeasuredAt):
			RespondError(c, http.StatusBadRequest, "missing_created_at", err)
		default:
			RespondError(c, http.StatusInternalServerError, "append_failed", err)
		}
		return
	}
	RespondOK(c, gin.H{"snapshot": snapshot})
}

// History returns the ordered snapshot series, optionally bounded by
// from (inclusive) and to (exclusive) as RFC 3339 timestamps.
func (sh *SnapshotHandler) History(c *gin.Context) {
	videoID, err := parseIDParam(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}

	from, err := parseTimeQuery(c, "from")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_from", err)
		return
	}
	to, err := parseTimeQuery(c, "to")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_to", err)
		return
	}

	snapshots, err := sh.statsService.History(c.Request.Context(), videoID, from, to)
	if err != nil {
		if errors.Is(err, services.ErrVideoNotFound) {
			RespondError(c, http.StatusNotFound, "video_not_found", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "history_failed", err)
		return
	}
	RespondOK(c, gin.H{"snapshots": snapshots})
}

func parseTimeQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, errors.New(name + " must be an RFC 3339 timestamp")
	}
	return &ts, nil
}
