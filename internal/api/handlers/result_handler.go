package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/yoointerview/internal/services"
)

type ResultHandler struct {
	sessions services.SessionService
	results  services.ResultService
}

func NewResultHandler(sessions services.SessionService, results services.ResultService) *ResultHandler {
	return &ResultHandler{sessions: sessions, results: results}
}

// Finalize evaluates a completed session synchronously.
func (h *ResultHandler) Finalize(c *gin.Context) {
	sess, ok := loadSession(c, h.sessions, "ResultHandler.Finalize")
	if !ok {
		return
	}

	res, err := h.results.Finalize(c.Request.Context(), sess.SessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ResultHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sessionID := c.Param("session_id")
	lookup, err := h.results.Get(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	if !authorizeCandidate(c, "ResultHandler.Get", userID, lookup.CandidateID) {
		return
	}

	switch {
	case lookup.Processing:
		c.JSON(http.StatusAccepted, gin.H{
			"session_id": sessionID,
			"status":     "processing",
			"message":    "evaluation in progress",
		})
	case lookup.Failed:
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"session_id": sessionID,
			"status":     "failed",
			"message":    "evaluation could not be scheduled; request finalize",
		})
	default:
		c.JSON(http.StatusOK, lookup.Result)
	}
}

func (h *ResultHandler) Mine(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	items, err := h.results.ListForCandidate(c.Request.Context(), userID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}
