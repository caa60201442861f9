package entitystore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// HTTPClient は /entity/<collection>[/<id>] と /sql/query を叩く実装。
// Bearerトークンは設定から受け取る。
type HTTPClient struct {
	apiBase string
	token   string
	hc      *http.Client
	log     *slog.Logger
}

func NewHTTPClient(apiBase string, token string, log *slog.Logger) (*HTTPClient, error) {
	apiBase = strings.TrimRight(strings.TrimSpace(apiBase), "/")
	if apiBase == "" {
		return nil, fmt.Errorf("entity store api base is required")
	}

	// 期限切れトークンは起動時に弾く
	if err := checkTokenExpiry(token, log); err != nil {
		return nil, err
	}

	return &HTTPClient{
		apiBase: apiBase,
		token:   token,
		hc:      &http.Client{},
		log:     log,
	}, nil
}

func (c *HTTPClient) Create(ctx context.Context, collection string, entity any) (SaveResult, error) {
	var res SaveResult
	err := c.do(ctx, http.MethodPost, entityPath(collection, ""), entity, &res)
	return res, err
}

func (c *HTTPClient) Get(ctx context.Context, collection string, id string, out any) error {
	return c.do(ctx, http.MethodGet, entityPath(collection, id), nil, out)
}

func (c *HTTPClient) Update(ctx context.Context, collection string, id string, partial any) (SaveResult, error) {
	var res SaveResult
	err := c.do(ctx, http.MethodPut, entityPath(collection, id), partial, &res)
	return res, err
}

func (c *HTTPClient) Delete(ctx context.Context, collection string, id string) error {
	return c.do(ctx, http.MethodDelete, entityPath(collection, id), nil, nil)
}

func (c *HTTPClient) Search(ctx context.Context, collection string, req SearchRequest) (SearchResult, error) {
	q := url.Values{}
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}
	if req.Offset > 0 {
		q.Set("offset", strconv.Itoa(req.Offset))
	}
	if req.OrderBy != "" {
		q.Set("orderBy", req.OrderBy)
	}

	path := entityPath(collection, "")
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var res SearchResult

	// 条件付き検索はPOST、条件なしはGET
	if len(req.Conditions) > 0 {
		body := map[string]any{"conditions": req.Conditions}
		if err := c.do(ctx, http.MethodPost, path, body, &res); err != nil {
			return SearchResult{}, err
		}
		return res, nil
	}

	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return SearchResult{}, err
	}
	return res, nil
}

func (c *HTTPClient) RawQuery(ctx context.Context, query string, params map[string]any) ([]json.RawMessage, error) {
	if params == nil {
		params = map[string]any{}
	}

	body := map[string]any{
		"query":      query,
		"parameters": params,
	}

	var rows []json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/sql/query", body, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func entityPath(collection string, id string) string {
	p := "/entity/" + url.PathEscape(collection)
	if id != "" {
		p += "/" + url.PathEscape(id)
	}
	return p
}

func (c *HTTPClient) do(ctx context.Context, method string, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiBase+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		// ネットワーク層の失敗
		return fmt.Errorf("entity store request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StoreError{
			Status:  resp.StatusCode,
			Message: errorMessage(resp, data),
			Body:    data,
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// レスポンスボディの message があれば使い、無ければHTTPステータスから作る
func errorMessage(resp *http.Response, data []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}
