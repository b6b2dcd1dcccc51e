package notification

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&Notification{})
}

func (r *Repository) SaveBatch(ctx context.Context, batch []Notification) error {
	if len(batch) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&batch).Error
}

func (r *Repository) Get(ctx context.Context, id string) (*Notification, error) {
	var n Notification
	result := r.db.WithContext(ctx).First(&n, "id = ?", id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &n, result.Error
}

func (r *Repository) ListByDonor(ctx context.Context, donorID string) ([]Notification, error) {
	var out []Notification
	result := r.db.WithContext(ctx).
		Where("donor_id = ?", donorID).
		Order("timestamp DESC").
		Find(&out)
	return out, result.Error
}

func (r *Repository) ListByRequest(ctx context.Context, requestID string) ([]Notification, error) {
	var out []Notification
	result := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("distance ASC").
		Find(&out)
	return out, result.Error
}

func (r *Repository) MarkAccepted(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Model(&Notification{}).
		Where("id = ? AND status = ?", id, StatusPending).
		Update("status", StatusAccepted)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return ErrAlreadyAccepted
	}
	return nil
}
