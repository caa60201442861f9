package model

type CartStatus string

const (
	CartStatusNew         CartStatus = "NEW"
	CartStatusActive      CartStatus = "ACTIVE"
	CartStatusCheckingOut CartStatus = "CHECKING_OUT"
	CartStatusConverted   CartStatus = "CONVERTED"
)

// 前進のみ。唯一の後退は CHECKING_OUT→ACTIVE（チェックアウト取消）。
var cartTransitions = map[CartStatus][]CartStatus{
	CartStatusNew:         {CartStatusActive},
	CartStatusActive:      {CartStatusCheckingOut},
	CartStatusCheckingOut: {CartStatusActive, CartStatusConverted},
	CartStatusConverted:   {},
}

// CanTransition は status 遷移表に従って遷移可否を返す
func (s CartStatus) CanTransition(to CartStatus) bool {
	for _, next := range cartTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// カートの明細。lineTotal は常に price * qty。
type CartLine struct {
	SKU       string  `json:"sku"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"price"`
	Qty       int64   `json:"qty"`
	LineTotal float64 `json:"lineTotal"`
}

// 1セッションにつきカートは1つ
type Cart struct {
	CartID     string     `json:"cartId"`
	UserID     string     `json:"userId,omitempty"`
	Lines      []CartLine `json:"lines"`
	TotalItems int64      `json:"totalItems"`
	GrandTotal float64    `json:"grandTotal"`
	Status     CartStatus `json:"status"`
}

// Copy は明細スライスを複製した独立のカートを返す。
// 同期ワーカーや呼び出し側に渡したカートが後のミューテーションと
// 配列を共有しないようにする。
func (c Cart) Copy() Cart {
	c.Lines = append([]CartLine(nil), c.Lines...)
	return c
}

// FindLine は sku の明細の添字を返す（無ければ -1）
func (c *Cart) FindLine(sku string) int {
	for i, line := range c.Lines {
		if line.SKU == sku {
			return i
		}
	}
	return -1
}

// RecomputeTotals は明細全件から合計を再計算する（差分更新はしない）
func (c *Cart) RecomputeTotals() {
	var items int64 = 0
	var grand float64 = 0
	for _, line := range c.Lines {
		items += line.Qty
		grand += line.LineTotal
	}
	c.TotalItems = items
	c.GrandTotal = grand
}
