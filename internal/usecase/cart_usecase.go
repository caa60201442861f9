package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"oms/internal/domain/model"
	repo "oms/internal/repository"
)

// ローカルカートの同期キュー（実装はSyncCoordinator）
type CartSyncQueue interface {
	Enqueue(cart model.Cart)
}

// CartUsecase はカートの状態機械。ローカル状態が常に正で、
// ミューテーションごとにスナップショット保存→リモート同期のエンキューを行う。
type CartUsecase struct {
	mu        sync.Mutex
	cart      *model.Cart
	snapshots repo.CartSnapshotRepository
	syncQueue CartSyncQueue
	ids       IDGenerator
	clock     Clock
	log       *slog.Logger
}

func NewCartUsecase(
	snapshots repo.CartSnapshotRepository,
	syncQueue CartSyncQueue,
	ids IDGenerator,
	clock Clock,
	log *slog.Logger,
) *CartUsecase {
	return &CartUsecase{
		snapshots: snapshots,
		syncQueue: syncQueue,
		ids:       ids,
		clock:     clock,
		log:       log,
	}
}

// Restore は前回コミット済みのローカル状態を復元する。起動時に呼ぶ。
func (u *CartUsecase) Restore(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	cart, err := u.snapshots.Load(ctx, repo.DefaultStorageKey)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore cart snapshot: %w", err)
	}

	u.cart = &cart
	u.log.Info("cart restored from snapshot", "cart_id", cart.CartID, "status", cart.Status)
	return nil
}

// GetCart は現在のカートを返す（無ければ ok=false）
func (u *CartUsecase) GetCart(ctx context.Context) (model.Cart, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.cart == nil {
		return model.Cart{}, false
	}
	return u.cart.Copy(), true
}

// CreateCart はNEWの空カートを作る。既にあれば何もしないでそれを返す。
func (u *CartUsecase) CreateCart(ctx context.Context) model.Cart {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.cart != nil {
		return u.cart.Copy()
	}

	u.cart = &model.Cart{
		CartID: u.newCartID(),
		Lines:  []model.CartLine{},
		Status: model.CartStatusNew,
	}

	u.persist(ctx)
	u.enqueueSync()
	return u.cart.Copy()
}

// AddItem はカートに追加（同一SKUは数量加算、単価は渡された最新価格で付け直す）。
func (u *CartUsecase) AddItem(ctx context.Context, p model.Product, qty int64) (model.Cart, error) {
	if qty < 1 {
		return model.Cart{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}
	if p.SKU == "" {
		return model.Cart{}, NewHTTPError(http.StatusBadRequest, "invalid sku")
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if u.cart == nil {
		u.cart = &model.Cart{
			CartID: u.newCartID(),
			Lines:  []model.CartLine{},
			Status: model.CartStatusNew,
		}
	}
	if err := u.rejectConverted(); err != nil {
		return model.Cart{}, err
	}

	if i := u.cart.FindLine(p.SKU); i >= 0 {
		newQty := u.cart.Lines[i].Qty + qty
		u.cart.Lines[i].Qty = newQty
		u.cart.Lines[i].UnitPrice = p.Price
		u.cart.Lines[i].LineTotal = float64(newQty) * p.Price
	} else {
		// 新規明細は挿入順を保って末尾に追加
		u.cart.Lines = append(u.cart.Lines, model.CartLine{
			SKU:       p.SKU,
			Name:      p.Name,
			UnitPrice: p.Price,
			Qty:       qty,
			LineTotal: float64(qty) * p.Price,
		})
	}

	u.cart.RecomputeTotals()
	if u.cart.Status == model.CartStatusNew {
		u.cart.Status = model.CartStatusActive
	}

	u.persist(ctx)
	u.enqueueSync()
	return u.cart.Copy(), nil
}

// UpdateQty は数量変更。qty<=0 は削除と同義。SKUが無ければ何もしない。
func (u *CartUsecase) UpdateQty(ctx context.Context, sku string, qty int64) (model.Cart, error) {
	if qty <= 0 {
		return u.RemoveItem(ctx, sku)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if u.cart == nil {
		return model.Cart{}, NewHTTPError(http.StatusBadRequest, "cart empty")
	}
	if err := u.rejectConverted(); err != nil {
		return model.Cart{}, err
	}

	i := u.cart.FindLine(sku)
	if i < 0 {
		return u.cart.Copy(), nil
	}

	// 明細が保持している単価で付け直す
	u.cart.Lines[i].Qty = qty
	u.cart.Lines[i].LineTotal = float64(qty) * u.cart.Lines[i].UnitPrice
	u.cart.RecomputeTotals()

	u.persist(ctx)
	u.enqueueSync()
	return u.cart.Copy(), nil
}

// RemoveItem は明細削除。SKUが無ければ何もしない。
func (u *CartUsecase) RemoveItem(ctx context.Context, sku string) (model.Cart, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.cart == nil {
		return model.Cart{}, NewHTTPError(http.StatusBadRequest, "cart empty")
	}
	if err := u.rejectConverted(); err != nil {
		return model.Cart{}, err
	}

	i := u.cart.FindLine(sku)
	if i < 0 {
		return u.cart.Copy(), nil
	}

	u.cart.Lines = append(u.cart.Lines[:i], u.cart.Lines[i+1:]...)
	u.cart.RecomputeTotals()

	u.persist(ctx)
	u.enqueueSync()
	return u.cart.Copy(), nil
}

// OpenCheckout はCHECKING_OUTへ遷移。空カートは拒否する。
func (u *CartUsecase) OpenCheckout(ctx context.Context) (model.Cart, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.cart == nil || len(u.cart.Lines) == 0 {
		return model.Cart{}, NewHTTPError(http.StatusBadRequest, "cart empty")
	}
	if u.cart.Status == model.CartStatusCheckingOut {
		return u.cart.Copy(), nil
	}
	if !u.cart.Status.CanTransition(model.CartStatusCheckingOut) {
		return model.Cart{}, NewHTTPError(http.StatusConflict, "invalid cart status")
	}

	u.cart.Status = model.CartStatusCheckingOut
	u.persist(ctx)
	return u.cart.Copy(), nil
}

// CancelCheckout はACTIVEへ戻す（唯一の後退遷移）。カートが無ければ何もしない。
func (u *CartUsecase) CancelCheckout(ctx context.Context) (model.Cart, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.cart == nil {
		return model.Cart{}, nil
	}
	if u.cart.Status != model.CartStatusCheckingOut {
		return u.cart.Copy(), nil
	}

	u.cart.Status = model.CartStatusActive
	u.persist(ctx)
	return u.cart.Copy(), nil
}

// ConvertCart はリモートのOrder作成が成功した後にだけ呼ぶこと。
func (u *CartUsecase) ConvertCart(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.cart == nil {
		return NewHTTPError(http.StatusBadRequest, "cart empty")
	}
	if !u.cart.Status.CanTransition(model.CartStatusConverted) {
		return NewHTTPError(http.StatusConflict, "invalid cart status")
	}

	u.cart.Status = model.CartStatusConverted
	u.persist(ctx)
	return nil
}

// ClearCart はカートを破棄する。次のアクセスはNEWから始まる。
func (u *CartUsecase) ClearCart(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.cart = nil
	if err := u.snapshots.Delete(ctx, repo.DefaultStorageKey); err != nil {
		u.log.Error("cart snapshot delete failed", "error", err)
	}
	return nil
}

// CONVERTED後のミューテーションは拒否する
func (u *CartUsecase) rejectConverted() error {
	if u.cart.Status == model.CartStatusConverted {
		return NewHTTPError(http.StatusConflict, "cart already converted")
	}
	return nil
}

func (u *CartUsecase) newCartID() string {
	return fmt.Sprintf("cart_%d_%s", u.clock.Now().UnixMilli(), u.ids.NewID()[:8])
}

// スナップショット保存の失敗は呼び出し側には返さない。
// ローカルのメモリ上の状態が正であり、次のミューテーションで再保存される。
func (u *CartUsecase) persist(ctx context.Context) {
	if err := u.snapshots.Save(ctx, repo.DefaultStorageKey, *u.cart); err != nil {
		u.log.Error("cart snapshot save failed", "cart_id", u.cart.CartID, "error", err)
	}
}

// 同期ワーカーへは独立したコピーを渡す。以後の明細書き換えと共有させない。
func (u *CartUsecase) enqueueSync() {
	if u.syncQueue != nil {
		u.syncQueue.Enqueue(u.cart.Copy())
	}
}
