package db

import (
	"oms/internal/config"
	infraRepo "oms/internal/infra/repository"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect はDBに接続して *gorm.DB を返す。
func Connect(cfg config.Config) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
}

// Migrate はローカル永続化テーブルを作る
func Migrate(gormDB *gorm.DB) error {
	return gormDB.AutoMigrate(
		&infraRepo.CartSnapshotRecord{},
		&infraRepo.LastOrderRecord{},
	)
}
