package repository

import (
	"context"
	"errors"

	"oms/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 固定キー。カートは1プロセスに1つだけ永続化する。
const DefaultStorageKey = "default"

// CartSnapshotRepository はシリアライズ済みカートを1レコードで保持する。
// 全ミューテーションの後に Save され、プロセス再起動時に Load で復元する。
type CartSnapshotRepository interface {
	Load(ctx context.Context, key string) (model.Cart, error)
	Save(ctx context.Context, key string, cart model.Cart) error
	Delete(ctx context.Context, key string) error
}
