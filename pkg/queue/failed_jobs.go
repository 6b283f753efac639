package queue

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/retromusic/storefront/pkg/logger"
)

// FailedJobRecord is the row written to failed_jobs.
type FailedJobRecord struct {
	ID       uint      `gorm:"primaryKey;autoIncrement"`
	JobType  string    `gorm:"size:255;not null;index"`
	Payload  string    `gorm:"type:text;not null"`
	Error    string    `gorm:"type:text"`
	Attempts int       `gorm:"not null;default:0"`
	FailedAt time.Time `gorm:"not null"`
}

func (FailedJobRecord) TableName() string { return "failed_jobs" }

// FailedStore persists jobs that exhausted their retries.
type FailedStore interface {
	SaveFailed(ctx context.Context, rec FailedJobRecord) error
}

// DBStore writes failed jobs through GORM. The table is created by the
// failed_jobs migration.
type DBStore struct {
	DB *gorm.DB
}

func (s DBStore) SaveFailed(ctx context.Context, rec FailedJobRecord) error {
	return s.DB.WithContext(ctx).Create(&rec).Error
}

// persistFailed records the failure in memory and, when configured, in the
// failed store. A store error is logged; the in-memory copy remains.
func (m *Manager) persistFailed(ctx context.Context, f FailedJob) {
	m.mu.Lock()
	m.failed = append(m.failed, f)
	store := m.store
	m.mu.Unlock()

	if store == nil {
		return
	}

	msg := ""
	if f.Err != nil {
		msg = f.Err.Error()
	}
	rec := FailedJobRecord{
		JobType:  f.Type,
		Payload:  string(f.Payload),
		Error:    msg,
		Attempts: f.Attempts,
		FailedAt: f.FailedAt,
	}
	if err := store.SaveFailed(context.WithoutCancel(ctx), rec); err != nil {
		logger.Error("queue: persist failed job", "type", f.Type, "error", err)
	}
}
