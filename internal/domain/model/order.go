package model

import "time"

type OrderStatus string

const (
	OrderStatusWaitingToFulfill OrderStatus = "WAITING_TO_FULFILL"
	OrderStatusPicking          OrderStatus = "PICKING"
	OrderStatusSent             OrderStatus = "SENT"
)

// 注文明細。確定時点のカート明細のスナップショット。
type OrderLine struct {
	SKU       string  `json:"sku"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Qty       int64   `json:"qty"`
	LineTotal float64 `json:"lineTotal"`
}

type OrderTotals struct {
	Items float64 `json:"items"`
	Grand float64 `json:"grand"`
}

// 確定後は不変。カートをいじっても注文は変わらない。
type Order struct {
	OrderID           string      `json:"orderId,omitempty"`
	OrderNumber       string      `json:"orderNumber"`
	UserID            string      `json:"userId"`
	ShippingAddressID string      `json:"shippingAddressId"`
	Lines             []OrderLine `json:"lines"`
	Totals            OrderTotals `json:"totals"`
	Status            OrderStatus `json:"status"`
	CreatedAt         time.Time   `json:"createdAt"`
}
