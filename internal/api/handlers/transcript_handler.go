package handlers

import (
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/yoointerview/internal/services"
	"github.com/yoockh/yoointerview/internal/utils"
)

const maxAudioUpload = 10 << 20

type TranscriptHandler struct {
	sessions    services.SessionService
	transcripts services.TranscriptService
}

func NewTranscriptHandler(sessions services.SessionService, transcripts services.TranscriptService) *TranscriptHandler {
	return &TranscriptHandler{sessions: sessions, transcripts: transcripts}
}

type StoreTranscriptRequest struct {
	QuestionIndex *int   `json:"question_index" binding:"required"`
	Text          string `json:"text"`
}

func (h *TranscriptHandler) StoreText(c *gin.Context) {
	const op = "TranscriptHandler.StoreText"

	sess, ok := loadSession(c, h.sessions, op)
	if !ok {
		return
	}

	var req StoreTranscriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}
	c.Set("question_index", *req.QuestionIndex)

	t, err := h.transcripts.StoreText(c.Request.Context(), sess.SessionID, *req.QuestionIndex, req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// UploadAudio accepts multipart/form-data with an "audio" file, a
// "question_index" field and an optional BCP-47 "language".
func (h *TranscriptHandler) UploadAudio(c *gin.Context) {
	const op = "TranscriptHandler.UploadAudio"

	sess, ok := loadSession(c, h.sessions, op)
	if !ok {
		return
	}

	idx, err := strconv.Atoi(strings.TrimSpace(c.PostForm("question_index")))
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "question_index must be an integer", err))
		return
	}
	c.Set("question_index", idx)

	fh, err := c.FormFile("audio")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "missing multipart field 'audio'", err))
		return
	}
	if fh.Size <= 0 || fh.Size > maxAudioUpload {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "audio must be between 1 byte and 10MB", nil))
		return
	}

	file, err := fh.Open()
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to open upload", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAudioUpload))
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to read upload", err))
		return
	}

	ct := audioContentType(fh.Header.Get("Content-Type"), data)
	if ct == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "unsupported audio type (wav, webm, ogg or flac)", nil))
		return
	}

	t, err := h.transcripts.Transcribe(c.Request.Context(), services.AudioAnswer{
		SessionID:     sess.SessionID,
		QuestionIndex: idx,
		FileName:      fh.Filename,
		ContentType:   ct,
		Language:      c.PostForm("language"),
		Data:          data,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// audioContentType trusts the declared part type when it names a supported
// container, otherwise sniffs the payload. It returns "" for anything else.
func audioContentType(declared string, data []byte) string {
	if mt, _, err := mime.ParseMediaType(declared); err == nil && supportedAudio(mt) {
		return mt
	}
	sniffed, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	if supportedAudio(sniffed) {
		return sniffed
	}
	return ""
}

func supportedAudio(mt string) bool {
	for _, k := range []string{"wav", "wave", "webm", "ogg", "flac"} {
		if strings.Contains(mt, k) && (strings.HasPrefix(mt, "audio/") || strings.HasPrefix(mt, "video/") || mt == "application/ogg") {
			return true
		}
	}
	return false
}
