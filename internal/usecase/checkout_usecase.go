package usecase

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"oms/internal/domain/model"
	repo "oms/internal/repository"
)

// 重複送信ガードのスコープ
const checkoutIdemScope = "checkout"

type CheckoutInput struct {
	Contact        model.Contact
	IdempotencyKey string
}

type CheckoutOutput struct {
	OrderID     string      `json:"order_id"`
	OrderNumber string      `json:"order_number"`
	Order       model.Order `json:"order"`
}

// CheckoutUsecase は完了済みカートを注文へ変換する。
// 4ステップを順番に await し、各ステップの成功が次の前提。
// トランザクションではない：途中で失敗しても巻き戻しはしない。
type CheckoutUsecase struct {
	carts      *CartUsecase
	users      UserDirectory
	addresses  AddressBook
	orders     OrderBook
	mirror     CartMirror
	lastOrders repo.LastOrderRepository
	validator  CheckoutValidator
	idem       IdempotencyStore // nilなら無効
	clock      Clock
	log        *slog.Logger

	mu              sync.Mutex
	lastOrderMillis int64
}

func NewCheckoutUsecase(
	carts *CartUsecase,
	users UserDirectory,
	addresses AddressBook,
	orders OrderBook,
	mirror CartMirror,
	lastOrders repo.LastOrderRepository,
	validator CheckoutValidator,
	idem IdempotencyStore,
	clock Clock,
	log *slog.Logger,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		carts:      carts,
		users:      users,
		addresses:  addresses,
		orders:     orders,
		mirror:     mirror,
		lastOrders: lastOrders,
		validator:  validator,
		idem:       idem,
		clock:      clock,
		log:        log,
	}
}

func (uc *CheckoutUsecase) PlaceOrder(ctx context.Context, in CheckoutInput) (CheckoutOutput, error) {
	// ローカル検証。リモートへの書き込み前に弾く。
	if err := uc.validator.ValidateContact(in.Contact); err != nil {
		return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, err.Error())
	}

	cart, ok := uc.carts.GetCart(ctx)
	if !ok || len(cart.Lines) == 0 {
		return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "cart empty")
	}

	// 同じキーの再送なら前回の注文を返す
	if out, done, err := uc.recallDuplicate(ctx, in.IdempotencyKey); err != nil {
		return CheckoutOutput{}, err
	} else if done {
		return out, nil
	}

	// ここから先はロック保持中。途中で失敗したら解放して
	// 同じキーでの再試行を通す。
	completed := false
	defer func() {
		if !completed {
			uc.releaseDuplicate(ctx, in.IdempotencyKey)
		}
	}()

	if cart.Status != model.CartStatusCheckingOut {
		var err error
		cart, err = uc.carts.OpenCheckout(ctx)
		if err != nil {
			return CheckoutOutput{}, err
		}
	}

	// ステップ1: ユーザー解決（emailで検索、居れば更新、居なければ作成）
	userID, err := uc.resolveUser(ctx, in.Contact)
	if err != nil {
		uc.log.Error("checkout: user step failed", "email", in.Contact.Email, "error", err)
		return CheckoutOutput{}, NewHTTPError(http.StatusBadGateway, "failed to process user information")
	}

	// ステップ2: 住所は毎回新規作成。重複排除はしない。
	addressID, err := uc.addresses.Create(ctx, model.Address{
		UserID:   userID,
		Line1:    in.Contact.Address.Line1,
		City:     in.Contact.Address.City,
		Postcode: in.Contact.Address.Postcode,
		Country:  in.Contact.Address.Country,
	})
	if err != nil {
		// ステップ1で出来たユーザーはリモートに残る
		uc.log.Error("checkout: address step failed", "user_id", userID, "error", err)
		return CheckoutOutput{}, NewHTTPError(http.StatusBadGateway, "failed to create shipping address")
	}

	// ステップ3: 注文スナップショットの作成
	order := uc.buildOrder(cart, userID, addressID)
	orderID, err := uc.orders.Create(ctx, order)
	if err != nil {
		uc.log.Error("checkout: order step failed", "user_id", userID, "error", err)
		return CheckoutOutput{}, NewHTTPError(http.StatusBadGateway, "failed to create order")
	}
	order.OrderID = orderID

	// ステップ4: カートの確定。ここで失敗すると注文は存在するが
	// ローカルカートは残る（手作業での突き合わせが要る）。
	if err := uc.mirror.Update(ctx, cart.CartID, map[string]any{
		"status": model.CartStatusConverted,
	}); err != nil {
		uc.log.Error("checkout: cart finalize failed, order already placed",
			"order_id", orderID, "cart_id", cart.CartID, "error", err)
		return CheckoutOutput{}, NewHTTPError(http.StatusBadGateway, "failed to finalize cart")
	}

	if err := uc.carts.ConvertCart(ctx); err != nil {
		return CheckoutOutput{}, err
	}
	_ = uc.carts.ClearCart(ctx)

	// 確認画面用の控え。失敗してもチェックアウト自体は成立している。
	if err := uc.lastOrders.Save(ctx, repo.DefaultStorageKey, repo.LastOrder{
		OrderID:     orderID,
		OrderNumber: order.OrderNumber,
		PlacedAt:    order.CreatedAt,
	}); err != nil {
		uc.log.Error("checkout: last order record save failed", "order_id", orderID, "error", err)
	}

	uc.rememberDuplicate(ctx, in.IdempotencyKey, orderID)
	completed = true

	uc.log.Info("checkout completed",
		"order_id", orderID, "order_number", order.OrderNumber,
		"user_id", userID, "grand_total", order.Totals.Grand)

	return CheckoutOutput{
		OrderID:     orderID,
		OrderNumber: order.OrderNumber,
		Order:       order,
	}, nil
}

// resolveUser はemailで既存ユーザーを探し、最初の1件のIDを正とする。
// 見つかれば名前と電話を入力値で上書き、無ければ新規作成。
func (uc *CheckoutUsecase) resolveUser(ctx context.Context, contact model.Contact) (string, error) {
	u, found, err := uc.users.FindByEmail(ctx, contact.Email)
	if err != nil {
		return "", err
	}

	if found {
		err := uc.users.Update(ctx, u.UserID, map[string]any{
			"name":  contact.Name,
			"phone": contact.Phone,
		})
		if err != nil {
			return "", err
		}
		return u.UserID, nil
	}

	return uc.users.Create(ctx, model.User{
		Name:  contact.Name,
		Email: contact.Email,
		Phone: contact.Phone,
	})
}

// buildOrder はカート明細を不変のOrderLineへスナップショットする。
// totalsはitems/grand共にカートのgrandTotal（税・送料の行は持たない）。
func (uc *CheckoutUsecase) buildOrder(cart model.Cart, userID string, addressID string) model.Order {
	lines := make([]model.OrderLine, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		lines = append(lines, model.OrderLine{
			SKU:       l.SKU,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Qty:       l.Qty,
			LineTotal: l.LineTotal,
		})
	}

	return model.Order{
		OrderNumber:       uc.nextOrderNumber(),
		UserID:            userID,
		ShippingAddressID: addressID,
		Lines:             lines,
		Totals: model.OrderTotals{
			Items: cart.GrandTotal,
			Grand: cart.GrandTotal,
		},
		Status:    model.OrderStatusWaitingToFulfill,
		CreatedAt: uc.clock.Now().UTC(),
	}
}

// nextOrderNumber は時刻由来の注文番号を作る。プロセス内では単調増加。
// プロセスを跨いだサブ秒粒度の一意性は保証しない。
func (uc *CheckoutUsecase) nextOrderNumber() string {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	ms := uc.clock.Now().UnixMilli()
	if ms <= uc.lastOrderMillis {
		ms = uc.lastOrderMillis + 1
	}
	uc.lastOrderMillis = ms

	s := strconv.FormatInt(ms, 10)
	return "CY" + s[len(s)-8:]
}

// recallDuplicate は冪等キーの再送を検出して前回の注文を返す
func (uc *CheckoutUsecase) recallDuplicate(ctx context.Context, key string) (CheckoutOutput, bool, error) {
	if key == "" || uc.idem == nil {
		return CheckoutOutput{}, false, nil
	}

	orderID, found, err := uc.idem.Recall(ctx, checkoutIdemScope, key)
	if err != nil {
		return CheckoutOutput{}, false, NewHTTPError(http.StatusInternalServerError, "idempotency store error")
	}
	if found {
		order, err := uc.orders.Get(ctx, orderID)
		if err != nil {
			return CheckoutOutput{}, false, NewHTTPError(http.StatusBadGateway, "failed to load existing order")
		}
		uc.log.Info("duplicate checkout detected", "idempotency_key", key, "order_id", orderID)
		return CheckoutOutput{OrderID: orderID, OrderNumber: order.OrderNumber, Order: order}, true, nil
	}

	locked, err := uc.idem.TryLock(ctx, checkoutIdemScope, key)
	if err != nil {
		return CheckoutOutput{}, false, NewHTTPError(http.StatusInternalServerError, "idempotency store error")
	}
	if !locked {
		return CheckoutOutput{}, false, NewHTTPError(http.StatusConflict, "checkout already in progress")
	}
	return CheckoutOutput{}, false, nil
}

// releaseDuplicate は失敗したチェックアウトのロックを外す
func (uc *CheckoutUsecase) releaseDuplicate(ctx context.Context, key string) {
	if key == "" || uc.idem == nil {
		return
	}
	if err := uc.idem.Unlock(ctx, checkoutIdemScope, key); err != nil {
		uc.log.Error("idempotency unlock failed", "idempotency_key", key, "error", err)
	}
}

func (uc *CheckoutUsecase) rememberDuplicate(ctx context.Context, key string, orderID string) {
	if key == "" || uc.idem == nil {
		return
	}
	if err := uc.idem.Remember(ctx, checkoutIdemScope, key, orderID); err != nil {
		uc.log.Error("idempotency remember failed", "idempotency_key", key, "error", err)
	}
}
