// Package repository persists batch-run history through gorm.
package repository

import (
	"context"
	"errors"

	"github.com/kursadbilgin/wabatch/internal/domain"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("not found")

type RunRepository interface {
	Create(ctx context.Context, id, inputPath string, concurrent bool, result domain.BatchResult) error
	GetByID(ctx context.Context, id string) (*domain.Run, error)
	ListRecent(ctx context.Context, limit int) ([]domain.Run, error)
}

type GormRunRepo struct {
	db *gorm.DB
}

func NewGormRunRepo(db *gorm.DB) *GormRunRepo {
	return &GormRunRepo{db: db}
}

func (r *GormRunRepo) Create(ctx context.Context, id, inputPath string, concurrent bool, result domain.BatchResult) error {
	model := runModelFromResult(id, inputPath, concurrent, result)
	return r.db.WithContext(ctx).Create(model).Error
}

func (r *GormRunRepo) GetByID(ctx context.Context, id string) (*domain.Run, error) {
	var model RunModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return runModelToDomain(&model), nil
}

func (r *GormRunRepo) ListRecent(ctx context.Context, limit int) ([]domain.Run, error) {
	if limit <= 0 {
		limit = 20
	}

	var models []RunModel
	err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	runs := make([]domain.Run, 0, len(models))
	for i := range models {
		runs = append(runs, *runModelToDomain(&models[i]))
	}
	return runs, nil
}
