package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Skvorcmen/RLT-test/internal/services"
	"github.com/Skvorcmen/RLT-test/internal/types"
)

type VideoHandler struct {
	statsService services.StatsService
}

func NewVideoHandler(statsService services.StatsService) *VideoHandler {
	return &VideoHandler{statsService: statsService}
}

type upsertVideoRequest struct {
	ID             int64     `json:"id" binding:"required"`
	CreatorID      int64     `json:"creator_id" binding:"required"`
	VideoCreatedAt time.Time `json:"video_created_at" binding:"required"`
	ViewsCount     int64     `json:"views_count"`
	LikesCount     int64     `json:"likes_count"`
	CommentsCount  int64     `json:"comments_count"`
	ReportsCount   int64     `json:"reports_count"`
}

// Upsert ingests the latest cumulative state of one video.
func (vh *VideoHandler) Upsert(c *gin.Context) {
	var req upsertVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	video, err := vh.statsService.IngestVideo(c.Request.Context(), services.VideoUpsertInput{
		ID:             req.ID,
		CreatorID:      req.CreatorID,
		VideoCreatedAt: req.VideoCreatedAt,
		Counts: types.Counts{
			Views:    req.ViewsCount,
			Likes:    req.LikesCount,
			Comments: req.CommentsCount,
			Reports:  req.ReportsCount,
		},
	})
	if err != nil {
		if errors.Is(err, services.ErrCountersDecreased) {
			RespondError(c, http.StatusConflict, "counters_decreased", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "ingest_failed", err)
		return
	}
	RespondOK(c, gin.H{"video": video})
}

func (vh *VideoHandler) GetByID(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}

	video, err := vh.statsService.GetVideo(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrVideoNotFound) {
			RespondError(c, http.StatusNotFound, "video_not_found", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "get_failed", err)
		return
	}
	RespondOK(c, gin.H{"video": video})
}

func (vh *VideoHandler) Delete(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}

	if err := vh.statsService.DeleteVideo(c.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrVideoNotFound) {
			RespondError(c, http.StatusNotFound, "video_not_found", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "delete_failed", err)
		return
	}
	RespondOK(c, gin.H{"deleted": id})
}

func (vh *VideoHandler) Top(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			RespondError(c, http.StatusBadRequest, "invalid_limit", errors.New("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	videos, err := vh.statsService.TopVideos(c.Request.Context(), limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "top_failed", err)
		return
	}
	RespondOK(c, gin.H{"videos": videos})
}

func (vh *VideoHandler) ByCreator(c *gin.Context) {
	creatorID, err := parseIDParam(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}

	videos, err := vh.statsService.CreatorVideos(c.Request.Context(), creatorID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"videos": videos})
}

func parseIDParam(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("id must be a positive integer")
	}
	return id, nil
}
