package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/yoointerview/internal/services"
	"github.com/yoockh/yoointerview/internal/utils"
)

type ResponseHandler struct {
	sessions  services.SessionService
	responses services.ResponseService
}

func NewResponseHandler(sessions services.SessionService, responses services.ResponseService) *ResponseHandler {
	return &ResponseHandler{sessions: sessions, responses: responses}
}

type SubmitResponseRequest struct {
	QuestionIndex json.RawMessage `json:"question_index"`
	TranscriptID  string          `json:"transcript_id"` // empty records a skip
}

func (h *ResponseHandler) Submit(c *gin.Context) {
	const op = "ResponseHandler.Submit"

	sess, ok := loadSession(c, h.sessions, op)
	if !ok {
		return
	}

	var req SubmitResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}
	idx, err := parseQuestionIndex(req.QuestionIndex)
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, err.Error(), err))
		return
	}
	c.Set("question_index", idx)

	out, err := h.responses.Submit(c.Request.Context(), sess.SessionID, idx, strings.TrimSpace(req.TranscriptID))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// parseQuestionIndex accepts a JSON integer, an integral float or a numeric
// string.
func parseQuestionIndex(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, errors.New("question_index is required")
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, errors.New("question_index must be an integer")
	}
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || n > math.MaxInt32 || n < math.MinInt32 {
			return 0, errors.New("question_index must be an integer")
		}
		return int(n), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, errors.New("question_index must be an integer")
		}
		return i, nil
	default:
		return 0, errors.New("question_index must be an integer")
	}
}
