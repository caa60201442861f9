package usecase

import (
	"context"
	"errors"
	"net/http"

	"oms/internal/domain/model"
	"oms/internal/entitystore"
	repo "oms/internal/repository"
)

// OrderUsecase は確定済み注文の照会。
type OrderUsecase struct {
	orders     OrderBook
	lastOrders repo.LastOrderRepository
}

func NewOrderUsecase(orders OrderBook, lastOrders repo.LastOrderRepository) *OrderUsecase {
	return &OrderUsecase{orders: orders, lastOrders: lastOrders}
}

// GetConfirmation は注文IDで照会する。IDが空なら直近の注文控えに
// フォールバックする（確認画面の再読み込み対応）。
func (u *OrderUsecase) GetConfirmation(ctx context.Context, orderID string) (model.Order, error) {
	if orderID == "" {
		lo, err := u.lastOrders.Find(ctx, repo.DefaultStorageKey)
		if errors.Is(err, repo.ErrNotFound) {
			return model.Order{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		orderID = lo.OrderID
	}

	order, err := u.orders.Get(ctx, orderID)
	if entitystore.IsNotFound(err) {
		return model.Order{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Order{}, NewHTTPError(http.StatusBadGateway, "entity store error")
	}

	if order.OrderID == "" {
		order.OrderID = orderID
	}
	return order, nil
}

// ListOrders はuserIdで絞った注文一覧（userIDが空なら全件）
func (u *OrderUsecase) ListOrders(ctx context.Context, userID string, limit int, offset int) ([]model.Order, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	orders, total, err := u.orders.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, NewHTTPError(http.StatusBadGateway, "entity store error")
	}
	return orders, total, nil
}
