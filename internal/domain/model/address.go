package model

// 配送先住所。チェックアウトごとに毎回新規作成（再利用しない）。
type Address struct {
	AddressID string `json:"addressId,omitempty"`
	UserID    string `json:"userId"`
	Line1     string `json:"line1"`
	City      string `json:"city"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
}
