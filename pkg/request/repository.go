package request

import (
	"context"
	"errors"
	"time"

	"github.com/lifelink-health/platform/pkg/matching"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&Record{}, &AcceptedMatch{})
}

func (r *Repository) Create(ctx context.Context, rec *Record) error {
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *Repository) Get(ctx context.Context, id string) (*Record, error) {
	var rec Record
	result := r.db.WithContext(ctx).First(&rec, "id = ?", id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &rec, result.Error
}

func (r *Repository) List(ctx context.Context) ([]Record, error) {
	var records []Record
	result := r.db.WithContext(ctx).Order("created_at ASC").Find(&records)
	return records, result.Error
}

func (r *Repository) MarkMatched(ctx context.Context, id, donorID string) error {
	result := r.db.WithContext(ctx).Model(&Record{}).
		Where("id = ? AND status <> ?", id, matching.RequestStatusMatched).
		Updates(map[string]interface{}{
			"status":           matching.RequestStatusMatched,
			"matched_donor_id": donorID,
			"updated_at":       time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return ErrRequestClosed
	}
	return nil
}

func (r *Repository) CreateMatch(ctx context.Context, m *AcceptedMatch) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *Repository) CountMatches(ctx context.Context) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&AcceptedMatch{}).Count(&count).Error
	return int(count), err
}
