// Package store persists agent runs in SQLite through gorm.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrRunNotFound is returned by Get for an unknown run id.
var ErrRunNotFound = errors.New("agent run not found")

// Run statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// AgentRun is one recorded invocation of an agent.
type AgentRun struct {
	ID         string          `gorm:"primaryKey;size:36" json:"id"`
	AgentID    string          `gorm:"index;not null" json:"agent_id"`
	SessionID  string          `gorm:"index" json:"session_id,omitempty"`
	UserID     string          `gorm:"index" json:"user_id,omitempty"`
	Model      string          `json:"model"`
	Message    string          `json:"message"`
	Response   string          `json:"response"`
	Steps      json.RawMessage `json:"steps"`
	Status     string          `gorm:"size:16" json:"status"`
	Error      string          `json:"error,omitempty"`
	DurationMS int64           `json:"duration_ms"`
	CreatedAt  time.Time       `gorm:"index" json:"created_at"`
}

func (AgentRun) TableName() string { return "agent_runs" }

// Store wraps a gorm database holding agent runs.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the SQLite database at path and migrates
// it. ":memory:" gives a throwaway database.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening run store %s: %w", path, err)
	}
	if path == ":memory:" {
		// Each pooled connection would otherwise get its own database.
		sqlDB, err := db.DB()
		if err != nil {
			closeDB(db)
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	s := New(db)
	if err := s.Migrate(); err != nil {
		closeDB(db)
		return nil, err
	}
	return s, nil
}

// closeDB releases db on a failed Open.
func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
		return
	}
	if c, ok := db.ConnPool.(interface{ Close() error }); ok {
		_ = c.Close()
	}
}

// New wraps an existing gorm connection without migrating it.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&AgentRun{}); err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}
	return nil
}

// Save inserts run, assigning an id and timestamp when missing.
func (s *Store) Save(ctx context.Context, run *AgentRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if len(run.Steps) == 0 {
		run.Steps = json.RawMessage("[]")
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("saving run %s: %w", run.ID, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*AgentRun, error) {
	var run AgentRun
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading run %s: %w", id, err)
	}
	return &run, nil
}

// ListByAgent returns the newest runs of an agent first. limit <= 0 means 20.
func (s *Store) ListByAgent(ctx context.Context, agentID string, limit int) ([]AgentRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []AgentRun
	err := s.db.WithContext(ctx).
		Where("agent_id = ?", agentID).
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("listing runs of %s: %w", agentID, err)
	}
	return runs, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
