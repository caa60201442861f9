package entitystore

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// StoreError はストアの非成功レスポンス。
// 404はget-or-createやユーザー解決の分岐条件として使うので致命扱いしない。
type StoreError struct {
	Status  int
	Message string
	Body    json.RawMessage
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("entity store: %d: %s", e.Status, e.Message)
}

// IsNotFound は err が 404 の StoreError かを返す
func IsNotFound(err error) bool {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Status == http.StatusNotFound
	}
	return false
}
