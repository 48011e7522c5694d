package infrastructure

import (
	"errors"
	"fmt"

	"github.com/yourusername/audio-extract-go/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrSessionNotFound is returned when a session ID is not in the history
var ErrSessionNotFound = errors.New("session not found")

// sessionFilterColumns are the columns FindAll may filter on
var sessionFilterColumns = map[string]bool{
	"backend":        true,
	"outcome":        true,
	"state":          true,
	"source_url":     true,
	"stop_requested": true,
}

// SQLiteSessionRepository implements domain.SessionRepository using SQLite
type SQLiteSessionRepository struct {
	db *gorm.DB
}

// NewSQLiteSessionRepository opens (and migrates) the history database
func NewSQLiteSessionRepository(dbPath string) (*SQLiteSessionRepository, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.Session{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteSessionRepository{db: db}, nil
}

// Create stores a new session
func (r *SQLiteSessionRepository) Create(session *domain.Session) error {
	return r.db.Create(session).Error
}

// Update updates an existing session
func (r *SQLiteSessionRepository) Update(session *domain.Session) error {
	return r.db.Save(session).Error
}

// FindByID finds a session by ID
func (r *SQLiteSessionRepository) FindByID(id string) (*domain.Session, error) {
	var session domain.Session
	err := r.db.First(&session, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// FindAll finds sessions newest first. Unknown filter keys are rejected.
func (r *SQLiteSessionRepository) FindAll(filters map[string]interface{}, limit int) ([]*domain.Session, error) {
	query := r.db.Model(&domain.Session{})

	for key, value := range filters {
		if !sessionFilterColumns[key] {
			return nil, fmt.Errorf("unsupported filter: %s", key)
		}
		query = query.Where(fmt.Sprintf("%s = ?", key), value)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var sessions []*domain.Session
	err := query.Order("started_at DESC").Find(&sessions).Error
	return sessions, err
}

// GetStats returns session counts per outcome
func (r *SQLiteSessionRepository) GetStats() (*domain.SessionStats, error) {
	stats := &domain.SessionStats{}

	if err := r.db.Model(&domain.Session{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	outcomeCounts := []struct {
		Outcome domain.Outcome
		Count   int64
	}{}

	if err := r.db.Model(&domain.Session{}).
		Select("outcome, count(*) as count").
		Where("outcome <> ''").
		Group("outcome").
		Scan(&outcomeCounts).Error; err != nil {
		return nil, err
	}

	for _, oc := range outcomeCounts {
		switch oc.Outcome {
		case domain.OutcomeCompleted:
			stats.Completed = oc.Count
		case domain.OutcomeStopped:
			stats.Stopped = oc.Count
		case domain.OutcomeFailed:
			stats.Failed = oc.Count
		case domain.OutcomeTimedOut:
			stats.TimedOut = oc.Count
		}
	}

	return stats, nil
}

// Close closes the database connection
func (r *SQLiteSessionRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
