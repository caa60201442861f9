package entitystore

import (
	"context"
	"encoding/json"
	"fmt"

	"oms/internal/domain/model"
)

// コレクション名はストア側のエンティティ名に合わせる
const (
	CollectionProduct = "Product"
	CollectionCart    = "Cart"
	CollectionUser    = "User"
	CollectionAddress = "Address"
	CollectionOrder   = "Order"
)

// カートのリモートミラー操作
type CartEntities struct {
	c Client
}

func NewCartEntities(c Client) *CartEntities {
	return &CartEntities{c: c}
}

func (s *CartEntities) Get(ctx context.Context, cartID string) (model.Cart, error) {
	var cart model.Cart
	if err := s.c.Get(ctx, CollectionCart, cartID, &cart); err != nil {
		return model.Cart{}, err
	}
	return cart, nil
}

func (s *CartEntities) Create(ctx context.Context, cart model.Cart) (string, error) {
	res, err := s.c.Create(ctx, CollectionCart, cart)
	if err != nil {
		return "", err
	}
	return res.ID, nil
}

func (s *CartEntities) Update(ctx context.Context, cartID string, fields map[string]any) error {
	_, err := s.c.Update(ctx, CollectionCart, cartID, fields)
	return err
}

func (s *CartEntities) Delete(ctx context.Context, cartID string) error {
	return s.c.Delete(ctx, CollectionCart, cartID)
}

type UserEntities struct {
	c Client
}

func NewUserEntities(c Client) *UserEntities {
	return &UserEntities{c: c}
}

// FindByEmail は email をナチュラルキーとして検索し、最初の1件を返す
func (s *UserEntities) FindByEmail(ctx context.Context, email string) (model.User, bool, error) {
	res, err := s.c.Search(ctx, CollectionUser, SearchRequest{
		Conditions: []Condition{{Field: "email", Operator: OpEq, Value: email}},
		Limit:      1,
	})
	if err != nil {
		return model.User{}, false, err
	}
	if len(res.Items) == 0 {
		return model.User{}, false, nil
	}

	var u model.User
	if err := json.Unmarshal(res.Items[0], &u); err != nil {
		return model.User{}, false, fmt.Errorf("decode user: %w", err)
	}
	return u, true, nil
}

func (s *UserEntities) Create(ctx context.Context, u model.User) (string, error) {
	res, err := s.c.Create(ctx, CollectionUser, u)
	if err != nil {
		return "", err
	}
	return res.ID, nil
}

func (s *UserEntities) Update(ctx context.Context, userID string, fields map[string]any) error {
	_, err := s.c.Update(ctx, CollectionUser, userID, fields)
	return err
}

type AddressEntities struct {
	c Client
}

func NewAddressEntities(c Client) *AddressEntities {
	return &AddressEntities{c: c}
}

func (s *AddressEntities) Create(ctx context.Context, a model.Address) (string, error) {
	res, err := s.c.Create(ctx, CollectionAddress, a)
	if err != nil {
		return "", err
	}
	return res.ID, nil
}

func (s *AddressEntities) Get(ctx context.Context, addressID string) (model.Address, error) {
	var a model.Address
	if err := s.c.Get(ctx, CollectionAddress, addressID, &a); err != nil {
		return model.Address{}, err
	}
	return a, nil
}

type OrderEntities struct {
	c Client
}

func NewOrderEntities(c Client) *OrderEntities {
	return &OrderEntities{c: c}
}

func (s *OrderEntities) Get(ctx context.Context, orderID string) (model.Order, error) {
	var o model.Order
	if err := s.c.Get(ctx, CollectionOrder, orderID, &o); err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (s *OrderEntities) Create(ctx context.Context, o model.Order) (string, error) {
	res, err := s.c.Create(ctx, CollectionOrder, o)
	if err != nil {
		return "", err
	}
	return res.ID, nil
}

// ListByUser は userId で注文を検索する（userIDが空なら全件）
func (s *OrderEntities) ListByUser(ctx context.Context, userID string, limit int, offset int) ([]model.Order, int64, error) {
	req := SearchRequest{Limit: limit, Offset: offset}
	if userID != "" {
		req.Conditions = []Condition{{Field: "userId", Operator: OpEq, Value: userID}}
	}

	res, err := s.c.Search(ctx, CollectionOrder, req)
	if err != nil {
		return nil, 0, err
	}

	orders := make([]model.Order, 0, len(res.Items))
	for _, raw := range res.Items {
		var o model.Order
		if err := json.Unmarshal(raw, &o); err != nil {
			return nil, 0, fmt.Errorf("decode order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, res.Total, nil
}

type ProductEntities struct {
	c Client
}

func NewProductEntities(c Client) *ProductEntities {
	return &ProductEntities{c: c}
}

func (s *ProductEntities) Get(ctx context.Context, sku string) (model.Product, error) {
	var p model.Product
	if err := s.c.Get(ctx, CollectionProduct, sku, &p); err != nil {
		return model.Product{}, err
	}
	return p, nil
}

func (s *ProductEntities) List(ctx context.Context, limit int, offset int) ([]model.Product, int64, error) {
	return s.search(ctx, SearchRequest{Limit: limit, Offset: offset})
}

// Search は商品名の部分一致とカテゴリ完全一致で絞り込む
func (s *ProductEntities) Search(ctx context.Context, term string, category string) ([]model.Product, int64, error) {
	req := SearchRequest{}
	if term != "" {
		req.Conditions = append(req.Conditions, Condition{
			Field: "name", Operator: OpLike, Value: "%" + term + "%",
		})
	}
	if category != "" && category != "All" {
		req.Conditions = append(req.Conditions, Condition{
			Field: "category", Operator: OpEq, Value: category,
		})
	}
	return s.search(ctx, req)
}

func (s *ProductEntities) search(ctx context.Context, req SearchRequest) ([]model.Product, int64, error) {
	res, err := s.c.Search(ctx, CollectionProduct, req)
	if err != nil {
		return nil, 0, err
	}

	products := make([]model.Product, 0, len(res.Items))
	for _, raw := range res.Items {
		var p model.Product
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, 0, fmt.Errorf("decode product: %w", err)
		}
		products = append(products, p)
	}
	return products, res.Total, nil
}
