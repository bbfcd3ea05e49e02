package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SessionRepository interface {
	Create(ctx context.Context, s *models.Session) error
	GetBySessionID(ctx context.Context, sessionID string) (*models.Session, error)
	// UpdateFields merges the non-nil fields of u into the stored session.
	UpdateFields(ctx context.Context, sessionID string, u models.SessionUpdate) error
	// LinkResponse replaces the response recorded for resp.QuestionIndex in place,
	// or appends it, and raises current_question to at least QuestionIndex+1.
	// It returns the session as stored after the update.
	LinkResponse(ctx context.Context, sessionID string, resp models.Response) (*models.Session, error)
	// MarkCompleted flips an active session to completed and reports whether
	// this call performed the transition.
	MarkCompleted(ctx context.Context, sessionID string) (bool, error)
	Delete(ctx context.Context, sessionID string) error
}

type sessionRepo struct {
	col *mongo.Collection
}

func NewSessionRepo(db *mongo.Database) SessionRepository {
	return &sessionRepo{col: db.Collection("interview_sessions")}
}

func (r *sessionRepo) Create(ctx context.Context, s *models.Session) error {
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = s.CreatedAt
	if s.Responses == nil {
		s.Responses = []models.Response{}
	}
	_, err := r.col.InsertOne(ctx, s)
	return err
}

func (r *sessionRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.Session, error) {
	var s models.Session
	err := r.col.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) UpdateFields(ctx context.Context, sessionID string, u models.SessionUpdate) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{"$set": sessionSet(u, time.Now().UTC())},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *sessionRepo) LinkResponse(ctx context.Context, sessionID string, resp models.Response) (*models.Session, error) {
	now := time.Now().UTC()
	if resp.SubmittedAt.IsZero() {
		resp.SubmittedAt = now
	}
	progress := bson.M{"current_question": resp.QuestionIndex + 1}
	after := options.After

	// two attempts: a concurrent first submission for the same index can win the
	// $push between our replace and append steps
	for attempt := 0; attempt < 2; attempt++ {
		var s models.Session
		err := r.col.FindOneAndUpdate(ctx,
			bson.M{"session_id": sessionID, "responses.question_index": resp.QuestionIndex},
			bson.M{
				"$set": bson.M{
					"responses.$[r].transcript_id": resp.TranscriptID,
					"responses.$[r].submitted_at":  resp.SubmittedAt,
					"updated_at":                   now,
				},
				"$max": progress,
			},
			options.FindOneAndUpdate().
				SetArrayFilters(options.ArrayFilters{Filters: []any{bson.M{"r.question_index": resp.QuestionIndex}}}).
				SetReturnDocument(after),
		).Decode(&s)
		if err == nil {
			return &s, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, err
		}

		err = r.col.FindOneAndUpdate(ctx,
			bson.M{"session_id": sessionID, "responses.question_index": bson.M{"$ne": resp.QuestionIndex}},
			bson.M{
				"$push": bson.M{"responses": resp},
				"$set":  bson.M{"updated_at": now},
				"$max":  progress,
			},
			options.FindOneAndUpdate().SetReturnDocument(after),
		).Decode(&s)
		if err == nil {
			return &s, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, err
		}
	}

	if _, err := r.GetBySessionID(ctx, sessionID); err != nil {
		return nil, err
	}
	return nil, errors.New("response link lost to concurrent updates")
}

func (r *sessionRepo) MarkCompleted(ctx context.Context, sessionID string) (bool, error) {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID, "status": bson.M{"$ne": models.SessionStatusCompleted}},
		bson.M{"$set": bson.M{
			"status":     models.SessionStatusCompleted,
			"updated_at": time.Now().UTC(),
		}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (r *sessionRepo) Delete(ctx context.Context, sessionID string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"session_id": sessionID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}

// sessionSet builds the $set document; only provided fields are written so a
// progress update never clobbers the responses list and vice versa.
func sessionSet(u models.SessionUpdate, now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	if u.CurrentQuestion != nil {
		set["current_question"] = *u.CurrentQuestion
	}
	if u.Status != nil {
		set["status"] = *u.Status
	}
	if u.Responses != nil {
		set["responses"] = u.Responses
	}
	if u.CandidateName != nil {
		set["candidate_name"] = *u.CandidateName
	}
	if u.InterviewID != nil {
		set["interview_id"] = *u.InterviewID
	}
	if u.InterviewTitle != nil {
		set["interview_title"] = *u.InterviewTitle
	}
	return set
}
