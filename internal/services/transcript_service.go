package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/providers/stt"
	mongorepo "github.com/yoockh/yoointerview/internal/repositories/mongo"
	"github.com/yoockh/yoointerview/internal/storage"
	"github.com/yoockh/yoointerview/internal/utils"
)

const maxAudioBytes = 10 << 20

// AudioAnswer is one recorded spoken answer.
type AudioAnswer struct {
	SessionID     string
	QuestionIndex int
	FileName      string
	ContentType   string
	Language      string
	Data          []byte
}

type TranscriptService interface {
	StoreText(ctx context.Context, sessionID string, questionIndex int, text string) (*models.Transcript, error)
	// Transcribe stores the recording (when storage is configured) and the
	// recognized text as a speech transcript.
	Transcribe(ctx context.Context, a AudioAnswer) (*models.Transcript, error)
	Get(ctx context.Context, transcriptID string) (*models.Transcript, error)
	ListForSession(ctx context.Context, sessionID string) ([]models.Transcript, error)
}

type transcriptService struct {
	sessions    mongorepo.SessionRepository
	transcripts mongorepo.TranscriptRepository
	speech      stt.Provider
	audio       storage.Uploader
	log         *logrus.Logger
}

// NewTranscriptService wires transcript storage. speech and audio may be nil,
// in which case Transcribe is unavailable or recordings are not kept.
func NewTranscriptService(
	sessions mongorepo.SessionRepository,
	transcripts mongorepo.TranscriptRepository,
	speech stt.Provider,
	audio storage.Uploader,
	log *logrus.Logger,
) TranscriptService {
	return &transcriptService{
		sessions:    sessions,
		transcripts: transcripts,
		speech:      speech,
		audio:       audio,
		log:         log,
	}
}

func newTranscript(sessionID string, questionIndex int, text, provenance string) *models.Transcript {
	return &models.Transcript{
		TranscriptID:  uuid.NewString(),
		SessionID:     sessionID,
		QuestionIndex: questionIndex,
		Text:          text,
		Provenance:    provenance,
		CreatedAt:     time.Now().UTC(),
	}
}

// checkTarget verifies the session exists and has a question at questionIndex.
func (s *transcriptService) checkTarget(ctx context.Context, op, sessionID string, questionIndex int) error {
	if sessionID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	if questionIndex < 0 {
		return utils.E(utils.CodeInvalidArgument, op, "question_index must be non-negative", nil)
	}
	sess, err := s.sessions.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to get session", err)
	}
	if questionIndex >= len(sess.Questions) {
		return utils.E(utils.CodeInvalidArgument, op,
			fmt.Sprintf("question_index %d out of range (session has %d questions)", questionIndex, len(sess.Questions)), nil)
	}
	return nil
}

func (s *transcriptService) StoreText(ctx context.Context, sessionID string, questionIndex int, text string) (*models.Transcript, error) {
	const op = "TranscriptService.StoreText"

	if err := s.checkTarget(ctx, op, sessionID, questionIndex); err != nil {
		return nil, err
	}

	t := newTranscript(sessionID, questionIndex, strings.TrimSpace(text), models.TranscriptText)
	if err := s.transcripts.Insert(ctx, t); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to store transcript", err)
	}
	return t, nil
}

func (s *transcriptService) Transcribe(ctx context.Context, a AudioAnswer) (*models.Transcript, error) {
	const op = "TranscriptService.Transcribe"

	if s.speech == nil {
		return nil, utils.E(utils.CodeUnavailable, op, "speech transcription is not configured", nil)
	}
	if len(a.Data) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "audio is empty", stt.ErrEmptyAudio)
	}
	if len(a.Data) > maxAudioBytes {
		return nil, utils.E(utils.CodeInvalidArgument, op, "audio too large (max 10MB)", nil)
	}
	if err := s.checkTarget(ctx, op, a.SessionID, a.QuestionIndex); err != nil {
		return nil, err
	}

	t := newTranscript(a.SessionID, a.QuestionIndex, "", models.TranscriptSpeech)
	t.Language = a.Language
	l := s.log.WithFields(logrus.Fields{
		"session_id":     a.SessionID,
		"question_index": a.QuestionIndex,
		"transcript_id":  t.TranscriptID,
	})

	if s.audio != nil {
		objectName := fmt.Sprintf("%s%d/%s%s",
			storage.AnswerAudioPrefix(a.SessionID), a.QuestionIndex, t.TranscriptID, path.Ext(a.FileName))
		stored, err := s.audio.Upload(ctx, objectName, a.ContentType, bytes.NewReader(a.Data))
		if err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to store recording", err)
		}
		t.AudioPath = stored
	}

	text, conf, err := s.speech.Transcribe(ctx, stt.Audio{
		Data:        a.Data,
		ContentType: a.ContentType,
		Language:    a.Language,
	})
	if err != nil {
		l.WithError(err).Warn("speech recognition failed")
		return nil, utils.E(utils.CodeUnavailable, op, "speech recognition failed", err)
	}
	t.Text = strings.TrimSpace(text)
	t.Confidence = conf

	if err := s.transcripts.Insert(ctx, t); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to store transcript", err)
	}
	l.WithField("confidence", conf).Info("answer transcribed")
	return t, nil
}

func (s *transcriptService) Get(ctx context.Context, transcriptID string) (*models.Transcript, error) {
	const op = "TranscriptService.Get"

	if transcriptID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "transcript_id is required", nil)
	}
	t, err := s.transcripts.GetByTranscriptID(ctx, transcriptID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "transcript not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get transcript", err)
	}
	return t, nil
}

func (s *transcriptService) ListForSession(ctx context.Context, sessionID string) ([]models.Transcript, error) {
	const op = "TranscriptService.ListForSession"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	out, err := s.transcripts.ListBySession(ctx, sessionID, 0)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list transcripts", err)
	}
	return out, nil
}
