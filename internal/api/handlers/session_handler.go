package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/questions"
	"github.com/yoockh/yoointerview/internal/services"
	"github.com/yoockh/yoointerview/internal/utils"
)

type SessionHandler struct {
	sessions    services.SessionService
	transcripts services.TranscriptService
}

func NewSessionHandler(sessions services.SessionService, transcripts services.TranscriptService) *SessionHandler {
	return &SessionHandler{sessions: sessions, transcripts: transcripts}
}

type StartSessionRequest struct {
	CandidateName  string               `json:"candidate_name"`
	JobRole        string               `json:"job_role"`
	JobDescription string               `json:"job_description"`
	Difficulty     string               `json:"difficulty"` // easy|moderate|highly_competitive
	NumQuestions   *int                 `json:"num_questions"`
	Questions      []questions.Supplied `json:"questions"`
	InterviewID    string               `json:"interview_id"`
	InterviewTitle string               `json:"interview_title"`
}

type StartSessionResponse struct {
	SessionID      string            `json:"session_id"`
	Status         string            `json:"status"`
	Questions      []models.Question `json:"questions"`
	QuestionSource string            `json:"question_source"`
	UsedFallback   bool              `json:"used_fallback"`
	FallbackReason string            `json:"fallback_reason,omitempty"`
	CreatedAt      string            `json:"created_at"`
}

func (h *SessionHandler) Start(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "SessionHandler.Start", "invalid request body", err))
		return
	}

	n := services.DefaultQuestionCount
	if req.NumQuestions != nil {
		n = *req.NumQuestions
	}
	name := req.CandidateName
	if name == "" {
		name = c.GetString("candidate_name")
	}

	sess, err := h.sessions.Start(c.Request.Context(), services.StartParams{
		CandidateID:    userID,
		CandidateName:  name,
		JobRole:        req.JobRole,
		JobDescription: req.JobDescription,
		Difficulty:     req.Difficulty,
		NumQuestions:   n,
		Questions:      req.Questions,
		InterviewID:    req.InterviewID,
		InterviewTitle: req.InterviewTitle,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, StartSessionResponse{
		SessionID:      sess.SessionID,
		Status:         sess.Status,
		Questions:      sess.Questions,
		QuestionSource: sess.QuestionSource,
		UsedFallback:   sess.UsedFallback,
		FallbackReason: sess.FallbackReason,
		CreatedAt:      sess.CreatedAt.Format(time.RFC3339),
	})
}

func (h *SessionHandler) Get(c *gin.Context) {
	sess, ok := loadSession(c, h.sessions, "SessionHandler.Get")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *SessionHandler) ListTranscripts(c *gin.Context) {
	sess, ok := loadSession(c, h.sessions, "SessionHandler.ListTranscripts")
	if !ok {
		return
	}

	items, err := h.transcripts.ListForSession(c.Request.Context(), sess.SessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": sess.SessionID, "items": items})
}
