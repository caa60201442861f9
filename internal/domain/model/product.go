package model

// 商品カタログはストア側が持つ。ここでは読み取りのみ。
type Product struct {
	SKU               string  `json:"sku"`
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	Price             float64 `json:"price"`
	QuantityAvailable int64   `json:"quantityAvailable"`
	Category          string  `json:"category,omitempty"`
	ImageURL          string  `json:"imageUrl,omitempty"`
}
