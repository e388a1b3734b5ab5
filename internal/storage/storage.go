package storage

import (
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"beatflow/backend/internal/models"
)

// Storage is the persistence contract the moderation pipeline and the
// retry scheduler consume. It covers report lifecycle plus the opaque
// content-store operations (resolve text, delete, count accepted).
type Storage interface {
	CreateReport(report *models.ModerationReport) error
	GetReportByID(id string) (*models.ModerationReport, error)
	UpdateReportState(id string, state models.ReportState) error
	FindStaleCheckingReports(olderThan time.Time, limit int) ([]models.ModerationReport, error)
	CountAcceptedReportsByAuthor(authorID string) (int64, error)

	FindContentText(contentType models.ContentType, id string) (text string, exists bool, err error)
	DeleteContent(contentType models.ContentType, id string) error
}

// Service is the PostgreSQL-backed implementation.
type Service struct {
	DB *gorm.DB
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// CreateReport persists a new report; the model hook fills in the ID and
// the initial Checking state.
func (s *Service) CreateReport(report *models.ModerationReport) error {
	if err := s.DB.Create(report).Error; err != nil {
		log.Printf("ERROR: Failed to create moderation report for author %s: %v", report.AuthorID, err)
		return err
	}
	return nil
}

// GetReportByID returns the report or nil without error when it does not
// exist.
func (s *Service) GetReportByID(id string) (*models.ModerationReport, error) {
	var report models.ModerationReport
	err := s.DB.First(&report, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// UpdateReportState transitions a report to a terminal state.
func (s *Service) UpdateReportState(id string, state models.ReportState) error {
	return s.DB.Model(&models.ModerationReport{}).
		Where("id = ?", id).
		Update("state", state).Error
}

// FindStaleCheckingReports returns reports still in Checking created
// before the given cutoff, oldest first, capped at limit.
func (s *Service) FindStaleCheckingReports(olderThan time.Time, limit int) ([]models.ModerationReport, error) {
	var reports []models.ModerationReport
	err := s.DB.Where("state = ? AND created_at < ?", models.ReportChecking, olderThan).
		Order("created_at asc").
		Limit(limit).
		Find(&reports).Error
	if err != nil {
		log.Printf("ERROR: Failed to load stale checking reports: %v", err)
		return nil, err
	}
	return reports, nil
}

// CountAcceptedReportsByAuthor counts how many reports against the
// author's content ended up Accepted.
func (s *Service) CountAcceptedReportsByAuthor(authorID string) (int64, error) {
	var count int64
	err := s.DB.Model(&models.ModerationReport{}).
		Where("author_id = ? AND state = ?", authorID, models.ReportAccepted).
		Count(&count).Error
	return count, err
}

// FindContentText resolves the moderated text for a target. exists is
// false when the target has been deleted.
func (s *Service) FindContentText(contentType models.ContentType, id string) (string, bool, error) {
	switch contentType {
	case models.ContentComment:
		var comment models.Comment
		err := s.DB.First(&comment, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		if err != nil {
			return "", false, err
		}
		return comment.Text, true, nil

	case models.ContentRating:
		var rating models.Rating
		err := s.DB.First(&rating, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		if err != nil {
			return "", false, err
		}
		return rating.Comment, true, nil

	case models.ContentPlaylist:
		var playlist models.Playlist
		err := s.DB.First(&playlist, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		if err != nil {
			return "", false, err
		}
		return playlist.ModerationText(), true, nil
	}
	return "", false, errors.New("storage: unknown content type " + string(contentType))
}

// DeleteContent removes the target from the content store. Deleting an
// already-deleted target is a no-op.
func (s *Service) DeleteContent(contentType models.ContentType, id string) error {
	var model interface{}
	switch contentType {
	case models.ContentComment:
		model = &models.Comment{}
	case models.ContentRating:
		model = &models.Rating{}
	case models.ContentPlaylist:
		model = &models.Playlist{}
	default:
		return errors.New("storage: unknown content type " + string(contentType))
	}

	if err := s.DB.Where("id = ?", id).Delete(model).Error; err != nil {
		log.Printf("ERROR: Failed to delete %s %s: %v", contentType, id, err)
		return err
	}
	return nil
}
