package repository

import (
	"context"
	"time"
)

// 確定した注文の控え。確認画面がIDを指定しなかった場合のフォールバック。
type LastOrder struct {
	OrderID     string
	OrderNumber string
	PlacedAt    time.Time
}

type LastOrderRepository interface {
	Save(ctx context.Context, key string, lo LastOrder) error
	Find(ctx context.Context, key string) (LastOrder, error)
}
