package usecase

import (
	"context"
	"time"

	"oms/internal/domain/model"
)

// usecaseが依存する外部ポート。実装は entitystore / infra が持つ。

type IDGenerator interface {
	NewID() string
}

type Clock interface {
	Now() time.Time
}

// リモートのカートミラー（get-or-create用）
type CartMirror interface {
	Get(ctx context.Context, cartID string) (model.Cart, error)
	Create(ctx context.Context, cart model.Cart) (string, error)
	Update(ctx context.Context, cartID string, fields map[string]any) error
}

// ユーザー解決（emailがナチュラルキー）
type UserDirectory interface {
	FindByEmail(ctx context.Context, email string) (model.User, bool, error)
	Create(ctx context.Context, u model.User) (string, error)
	Update(ctx context.Context, userID string, fields map[string]any) error
}

type AddressBook interface {
	Create(ctx context.Context, a model.Address) (string, error)
}

type OrderBook interface {
	Get(ctx context.Context, orderID string) (model.Order, error)
	Create(ctx context.Context, o model.Order) (string, error)
	ListByUser(ctx context.Context, userID string, limit int, offset int) ([]model.Order, int64, error)
}

type ProductCatalog interface {
	Get(ctx context.Context, sku string) (model.Product, error)
}

// 重複送信ガード。Remember/Recallで確定済み注文IDを引き当てる。
type IdempotencyStore interface {
	TryLock(ctx context.Context, scope string, key string) (bool, error)
	Unlock(ctx context.Context, scope string, key string) error
	Remember(ctx context.Context, scope string, key string, value string) error
	Recall(ctx context.Context, scope string, key string) (string, bool, error)
}

// チェックアウト入力の検証
type CheckoutValidator interface {
	ValidateContact(c model.Contact) error
}
