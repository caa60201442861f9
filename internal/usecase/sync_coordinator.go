package usecase

import (
	"context"
	"log/slog"
	"sync"

	"oms/internal/domain/model"
	"oms/internal/entitystore"
)

// 同期インテント。seqは単調増加で、古いものは捨てられる。
type syncIntent struct {
	seq  uint64
	cart model.Cart
}

// SyncCoordinator はローカルカートをリモートストアへベストエフォートで
// ミラーする。get-or-createで書き、失敗はLastErrorに記録するだけで
// ローカルのミューテーションを止めることはない。
// 連続したミューテーションは最新のインテントに畳み込まれ、
// 常に最大seqの状態だけが適用される（追い越し書き込みは起きない）。
type SyncCoordinator struct {
	mirror CartMirror
	log    *slog.Logger

	mu          sync.Mutex
	nextSeq     uint64
	lastApplied uint64
	pending     *syncIntent
	lastErr     error

	notify chan struct{}
	done   chan struct{}
	wg     sync.WaitGroup
}

func NewSyncCoordinator(mirror CartMirror, log *slog.Logger) *SyncCoordinator {
	c := &SyncCoordinator{
		mirror: mirror,
		log:    log,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}

	c.wg.Add(1)
	go c.run()
	return c
}

// Enqueue は同期インテントを積む。呼び出し側をブロックしない。
func (c *SyncCoordinator) Enqueue(cart model.Cart) {
	c.mu.Lock()
	c.nextSeq++
	c.pending = &syncIntent{seq: c.nextSeq, cart: cart}
	c.mu.Unlock()

	select {
	case c.notify <- struct{}{}:
	default:
	}
}

// LastError は直近の同期失敗を返す（成功すればクリアされる）
func (c *SyncCoordinator) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Close は残っているインテントを流してからワーカーを止める
func (c *SyncCoordinator) Close() {
	close(c.done)
	c.wg.Wait()

	// 停止時に未適用のインテントが残っていれば最後に1回だけ適用する
	if intent := c.takePending(); intent != nil {
		c.apply(*intent)
	}
}

func (c *SyncCoordinator) run() {
	defer c.wg.Done()

	for {
		select {
		case <-c.done:
			return
		case <-c.notify:
			if intent := c.takePending(); intent != nil {
				c.apply(*intent)
			}
		}
	}
}

func (c *SyncCoordinator) takePending() *syncIntent {
	c.mu.Lock()
	defer c.mu.Unlock()

	intent := c.pending
	c.pending = nil
	if intent == nil || intent.seq <= c.lastApplied {
		// 既に新しい状態を書いている
		return nil
	}
	return intent
}

// apply はget-or-createでリモートへ全量書き込みする。リトライはしない。
func (c *SyncCoordinator) apply(intent syncIntent) {
	ctx := context.Background()

	c.mu.Lock()
	c.lastApplied = intent.seq
	c.mu.Unlock()

	cart := intent.cart

	_, err := c.mirror.Get(ctx, cart.CartID)
	if err != nil && !entitystore.IsNotFound(err) {
		c.record(cart.CartID, err)
		return
	}

	if entitystore.IsNotFound(err) {
		if _, err := c.mirror.Create(ctx, cart); err != nil {
			c.record(cart.CartID, err)
			return
		}
	} else {
		fields := map[string]any{
			"lines":      cart.Lines,
			"totalItems": cart.TotalItems,
			"grandTotal": cart.GrandTotal,
			"status":     cart.Status,
		}
		if err := c.mirror.Update(ctx, cart.CartID, fields); err != nil {
			c.record(cart.CartID, err)
			return
		}
	}

	c.mu.Lock()
	c.lastErr = nil
	c.mu.Unlock()
}

func (c *SyncCoordinator) record(cartID string, err error) {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
	c.log.Warn("cart sync failed", "cart_id", cartID, "error", err)
}
