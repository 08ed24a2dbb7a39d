package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/resume-studio/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

type SessionRepository interface {
	// Save inserts the record or replaces the stored snapshot.
	Save(rec *models.SessionRecord) error
	FindByID(id uuid.UUID) (*models.SessionRecord, error)
	DeleteOlderThan(cutoff time.Time) (int64, error)
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Save(rec *models.SessionRecord) error {
	rec.UpdatedAt = time.Now()
	if err := r.db.Save(rec).Error; err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *sessionRepository) FindByID(id uuid.UUID) (*models.SessionRecord, error) {
	var rec models.SessionRecord
	if err := r.db.Where("id = ?", id).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return &rec, nil
}

func (r *sessionRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result := r.db.Where("updated_at < ?", cutoff).Delete(&models.SessionRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", result.Error)
	}
	return result.RowsAffected, nil
}
