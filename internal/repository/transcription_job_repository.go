package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"teachassist/internal/model"
)

type TranscriptionJobRepository struct {
	db *gorm.DB
}

func NewTranscriptionJobRepository(db *gorm.DB) *TranscriptionJobRepository {
	return &TranscriptionJobRepository{db: db}
}

func (r *TranscriptionJobRepository) Create(job *model.TranscriptionJob) error {
	if err := r.db.Create(job).Error; err != nil {
		return fmt.Errorf("create transcription job failed: %w", err)
	}
	return nil
}

func (r *TranscriptionJobRepository) Update(job *model.TranscriptionJob) error {
	if err := r.db.Save(job).Error; err != nil {
		return fmt.Errorf("update transcription job failed: %w", err)
	}
	return nil
}

func (r *TranscriptionJobRepository) GetByID(id uint) (*model.TranscriptionJob, error) {
	var job model.TranscriptionJob
	if err := r.db.First(&job, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query transcription job by id failed: %w", err)
	}
	return &job, nil
}

// LatestForVideo returns the most recent job for the video, or nil.
func (r *TranscriptionJobRepository) LatestForVideo(subject, chapter, video string) (*model.TranscriptionJob, error) {
	var job model.TranscriptionJob
	err := r.db.
		Where("subject = ? AND chapter = ? AND video = ?", subject, chapter, video).
		Order("id DESC").
		First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query latest transcription job failed: %w", err)
	}
	return &job, nil
}

// ListPending returns jobs still waiting on the transcription service.
func (r *TranscriptionJobRepository) ListPending(limit int) ([]model.TranscriptionJob, error) {
	var jobs []model.TranscriptionJob
	err := r.db.
		Where("state IN ?", []string{model.JobSubmitted, model.JobRunning}).
		Order("id ASC").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("list pending transcription jobs failed: %w", err)
	}
	return jobs, nil
}
