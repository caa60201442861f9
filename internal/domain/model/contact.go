package model

// チェックアウト入力の住所部分
type ContactAddress struct {
	Line1    string `json:"line1"`
	City     string `json:"city"`
	Postcode string `json:"postcode"`
	Country  string `json:"country"`
}

// 購入者が入力する連絡先。オーケストレーション呼び出しの間だけ使い、ローカルには残さない。
type Contact struct {
	Name    string         `json:"name"`
	Email   string         `json:"email"`
	Phone   string         `json:"phone"`
	Address ContactAddress `json:"address"`
}
