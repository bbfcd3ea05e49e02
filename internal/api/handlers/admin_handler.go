package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/yoointerview/internal/services"
	"github.com/yoockh/yoointerview/internal/utils"
)

// AdminHandler serves the /admin group; role checks happen in middleware.
type AdminHandler struct {
	sessions services.SessionService
	results  services.ResultService
}

func NewAdminHandler(sessions services.SessionService, results services.ResultService) *AdminHandler {
	return &AdminHandler{sessions: sessions, results: results}
}

type UpdateSessionRequest struct {
	CandidateName  *string `json:"candidate_name"`
	InterviewID    *string `json:"interview_id"`
	InterviewTitle *string `json:"interview_title"`
}

func (h *AdminHandler) UpdateSession(c *gin.Context) {
	var req UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AdminHandler.UpdateSession", "invalid request body", err))
		return
	}

	sess, err := h.sessions.UpdateDetails(c.Request.Context(), c.Param("session_id"), services.SessionDetails{
		CandidateName:  req.CandidateName,
		InterviewID:    req.InterviewID,
		InterviewTitle: req.InterviewTitle,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *AdminHandler) DeleteSession(c *gin.Context) {
	if err := h.sessions.Delete(c.Request.Context(), c.Param("session_id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type SetResultStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *AdminHandler) SetResultStatus(c *gin.Context) {
	var req SetResultStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AdminHandler.SetResultStatus", "invalid request body", err))
		return
	}

	sessionID := c.Param("session_id")
	if err := h.results.SetStatus(c.Request.Context(), sessionID, req.Status); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "status": req.Status})
}

func (h *AdminHandler) DeleteResult(c *gin.Context) {
	if err := h.results.Delete(c.Request.Context(), c.Param("session_id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
