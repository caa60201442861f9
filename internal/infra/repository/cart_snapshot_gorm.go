package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"oms/internal/domain/model"
	repo "oms/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ローカル永続化のレコード。ペイロードはカートのJSON。
type CartSnapshotRecord struct {
	StorageKey string    `gorm:"primaryKey;type:varchar(64);column:storage_key"`
	Payload    []byte    `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null;autoUpdateTime"`
}

func (CartSnapshotRecord) TableName() string {
	return "cart_snapshots"
}

type CartSnapshotGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartSnapshotGormRepository(db *gorm.DB) *CartSnapshotGormRepository {
	return &CartSnapshotGormRepository{db: db}
}

func (r *CartSnapshotGormRepository) Load(ctx context.Context, key string) (model.Cart, error) {
	var rec CartSnapshotRecord

	err := r.db.WithContext(ctx).
		Where("storage_key = ?", key).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Cart{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Cart{}, err
	}

	var cart model.Cart
	if err := json.Unmarshal(rec.Payload, &cart); err != nil {
		return model.Cart{}, err
	}
	return cart, nil
}

// Save はUPSERT。キーごとに常に1レコード。
func (r *CartSnapshotGormRepository) Save(ctx context.Context, key string, cart model.Cart) error {
	payload, err := json.Marshal(cart)
	if err != nil {
		return err
	}

	rec := CartSnapshotRecord{
		StorageKey: key,
		Payload:    payload,
		UpdatedAt:  time.Now(),
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "storage_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&rec).Error
}

func (r *CartSnapshotGormRepository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).
		Where("storage_key = ?", key).
		Delete(&CartSnapshotRecord{}).Error
}
