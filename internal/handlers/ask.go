package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Skvorcmen/RLT-test/internal/services"
)

type AskHandler struct {
	askService services.AskService
}

func NewAskHandler(askService services.AskService) *AskHandler {
	return &AskHandler{askService: askService}
}

type askRequest struct {
	Question string `json:"question" binding:"required"`
}

// Ask answers a natural-language question about the stored statistics with a
// single number.
func (ah *AskHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	result, err := ah.askService.Ask(c.Request.Context(), req.Question)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyQuestion):
			RespondError(c, http.StatusBadRequest, "empty_question", err)
		case errors.Is(err, services.ErrUnsafeSQL):
			RespondError(c, http.StatusUnprocessableEntity, "unsafe_sql", err)
		case errors.Is(err, services.ErrAskUnavailable):
			RespondError(c, http.StatusServiceUnavailable, "ask_unavailable", err)
		default:
			RespondError(c, http.StatusInternalServerError, "ask_failed", err)
		}
		return
	}
	RespondOK(c, result)
}
