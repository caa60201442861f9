package entitystore

import (
	"context"
	"encoding/json"
)

type Operator string

const (
	OpEq   Operator = "eq"
	OpNe   Operator = "ne"
	OpGt   Operator = "gt"
	OpGte  Operator = "gte"
	OpLt   Operator = "lt"
	OpLte  Operator = "lte"
	OpLike Operator = "like"
	OpIn   Operator = "in"
)

type Condition struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// 検索条件。Limit/Offset/OrderByはクエリパラメータで送る。
type SearchRequest struct {
	Conditions []Condition
	Limit      int
	Offset     int
	OrderBy    string
}

type SaveResult struct {
	ID      string `json:"id"`
	Version string `json:"version"`
}

type SearchResult struct {
	Items []json.RawMessage `json:"items"`
	Total int64             `json:"total"`
}

// Client はエンティティストアへの汎用CRUD。実装はコレクション名とIDだけで
// 任意のエンティティを扱う。中にロジックは持たない。
type Client interface {
	Create(ctx context.Context, collection string, entity any) (SaveResult, error)
	Get(ctx context.Context, collection string, id string, out any) error
	Update(ctx context.Context, collection string, id string, partial any) (SaveResult, error)
	Delete(ctx context.Context, collection string, id string) error
	Search(ctx context.Context, collection string, req SearchRequest) (SearchResult, error)
	RawQuery(ctx context.Context, query string, params map[string]any) ([]json.RawMessage, error)
}
