package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ResultRepository interface {
	GetBySessionID(ctx context.Context, sessionID string) (*models.InterviewResult, error)
	// Upsert inserts r or, when a row with the same session_id exists, rewrites
	// its evaluated fields in place. id, created_at and status of an existing row
	// are kept.
	Upsert(ctx context.Context, r *models.InterviewResult) error
	UpdateStatus(ctx context.Context, sessionID, status string) error
	DeleteBySessionID(ctx context.Context, sessionID string) error
	ListByCandidate(ctx context.Context, candidateID string, limit int) ([]models.InterviewResult, error)
}

type resultRepo struct {
	db *gorm.DB
}

func NewResultRepo(db *gorm.DB) ResultRepository {
	return &resultRepo{db: db}
}

func (r *resultRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.InterviewResult, error) {
	var out models.InterviewResult
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *resultRepo) Upsert(ctx context.Context, res *models.InterviewResult) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"candidate_id", "candidate_name", "interview_id", "interview_title",
				"questions", "answers", "feedback", "scores", "summary", "updated_at",
			}),
		}).
		Create(res).Error
}

func (r *resultRepo) UpdateStatus(ctx context.Context, sessionID, status string) error {
	tx := r.db.WithContext(ctx).
		Model(&models.InterviewResult{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *resultRepo) DeleteBySessionID(ctx context.Context, sessionID string) error {
	tx := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&models.InterviewResult{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *resultRepo) ListByCandidate(ctx context.Context, candidateID string, limit int) ([]models.InterviewResult, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []models.InterviewResult
	err := r.db.WithContext(ctx).
		Where("candidate_id = ?", candidateID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
