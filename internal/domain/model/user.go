package model

// リモートエンティティストア上のユーザー。emailで検索する。
type User struct {
	UserID string `json:"userId,omitempty"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
}
