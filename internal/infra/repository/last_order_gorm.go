package repository

import (
	"context"
	"errors"
	"time"

	repo "oms/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LastOrderRecord struct {
	StorageKey  string    `gorm:"primaryKey;type:varchar(64);column:storage_key"`
	OrderID     string    `gorm:"type:varchar(255);not null"`
	OrderNumber string    `gorm:"type:varchar(32);not null"`
	PlacedAt    time.Time `gorm:"not null"`
}

func (LastOrderRecord) TableName() string {
	return "last_orders"
}

type LastOrderGormRepository struct {
	db *gorm.DB
}

// DI
func NewLastOrderGormRepository(db *gorm.DB) *LastOrderGormRepository {
	return &LastOrderGormRepository{db: db}
}

func (r *LastOrderGormRepository) Save(ctx context.Context, key string, lo repo.LastOrder) error {
	rec := LastOrderRecord{
		StorageKey:  key,
		OrderID:     lo.OrderID,
		OrderNumber: lo.OrderNumber,
		PlacedAt:    lo.PlacedAt,
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "storage_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"order_id", "order_number", "placed_at"}),
		}).
		Create(&rec).Error
}

func (r *LastOrderGormRepository) Find(ctx context.Context, key string) (repo.LastOrder, error) {
	var rec LastOrderRecord

	err := r.db.WithContext(ctx).
		Where("storage_key = ?", key).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repo.LastOrder{}, repo.ErrNotFound
	}
	if err != nil {
		return repo.LastOrder{}, err
	}

	return repo.LastOrder{
		OrderID:     rec.OrderID,
		OrderNumber: rec.OrderNumber,
		PlacedAt:    rec.PlacedAt,
	}, nil
}
