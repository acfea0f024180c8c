package repository

import (
	"time"

	"github.com/kursadbilgin/wabatch/internal/domain"
)

// RunModel is the persistence model for the batch_runs table, one row per
// finished (or aborted) dispatch.
type RunModel struct {
	ID         string `gorm:"type:uuid;primaryKey"`
	InputPath  string `gorm:"type:varchar(512);not null"`
	TotalRows  int    `gorm:"not null"`
	Sent       int    `gorm:"not null;default:0"`
	Skipped    int    `gorm:"not null;default:0"`
	Errors     int    `gorm:"not null;default:0"`
	DryRun     bool   `gorm:"not null;default:false"`
	Concurrent bool   `gorm:"not null;default:false"`
	Aborted    bool   `gorm:"not null;default:false"`
	StartedAt  time.Time
	FinishedAt time.Time
	CreatedAt  time.Time
}

func (RunModel) TableName() string {
	return "batch_runs"
}

func runModelFromResult(id, inputPath string, concurrent bool, result domain.BatchResult) *RunModel {
	return &RunModel{
		ID:         id,
		InputPath:  inputPath,
		TotalRows:  result.TotalRows,
		Sent:       result.Sent,
		Skipped:    result.Skipped,
		Errors:     result.Errors,
		DryRun:     result.DryRun,
		Concurrent: concurrent,
		Aborted:    result.Aborted,
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
	}
}

func runModelToDomain(m *RunModel) *domain.Run {
	return &domain.Run{
		ID:         m.ID,
		InputPath:  m.InputPath,
		Concurrent: m.Concurrent,
		Result: domain.BatchResult{
			StartedAt:  m.StartedAt,
			FinishedAt: m.FinishedAt,
			TotalRows:  m.TotalRows,
			Processed:  m.Sent + m.Skipped + m.Errors,
			Sent:       m.Sent,
			Skipped:    m.Skipped,
			Errors:     m.Errors,
			DryRun:     m.DryRun,
			Aborted:    m.Aborted,
		},
	}
}
