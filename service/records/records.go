package records

import (
	"context"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/url"
	"strconv"

	"github.com/kochabx/carelink/core/net/http"
	"github.com/kochabx/carelink/errors"
)

// Collections served by the backend.
const (
	HealthReports = "/health-reports"
	Observations  = "/observations"
	FamilyMembers = "/family-members"
)

const DefaultLimit = 50

var ErrInvalidID = errors.BadRequest("record id is required")

// Query selects a page of a collection. Filters are matched for equality
// by the backend.
type Query struct {
	Page    int
	Limit   int
	Search  string
	Sort    string
	Filters map[string]string
}

// Values renders q as query parameters.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	for k, val := range q.Filters {
		v.Set(k, val)
	}
	return v
}

// Page is one page of raw items.
type Page struct {
	Items []json.RawMessage `json:"items"`
	Total int               `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// HasNext reports whether more items follow this page.
func (p *Page) HasNext() bool {
	return p.Limit > 0 && p.Page*p.Limit < p.Total
}

// Resource is a collection on the backend. Items are kept as raw JSON.
type Resource struct {
	client http.Requester
	path   string
}

func New(client http.Requester, collection string) *Resource {
	return &Resource{client: client, path: collection}
}

func (r *Resource) Path() string {
	return r.path
}

func (r *Resource) List(ctx context.Context, q Query) (*Page, error) {
	var page Page
	if _, err := r.client.Request(ctx, stdhttp.MethodGet, r.path, nil, http.WithQuery(q.Values()), http.WithResponse(&page)); err != nil {
		return nil, err
	}
	return &page, nil
}

// All walks every page starting at q.Page.
func (r *Resource) All(ctx context.Context, q Query) ([]json.RawMessage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}

	var items []json.RawMessage
	for {
		page, err := r.List(ctx, q)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
		if !page.HasNext() || len(page.Items) == 0 {
			return items, nil
		}
		q.Page++
	}
}

func (r *Resource) Get(ctx context.Context, id string) (json.RawMessage, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	var item json.RawMessage
	if _, err := r.client.Request(ctx, stdhttp.MethodGet, http.Join(r.path, id), nil, http.WithResponse(&item)); err != nil {
		return nil, err
	}
	return item, nil
}

// Create posts item and returns what the backend stored.
func (r *Resource) Create(ctx context.Context, item any) (json.RawMessage, error) {
	var created json.RawMessage
	if _, err := r.client.Request(ctx, stdhttp.MethodPost, r.path, item, http.WithResponse(&created)); err != nil {
		return nil, err
	}
	return created, nil
}

func (r *Resource) Update(ctx context.Context, id string, item any) (json.RawMessage, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	var updated json.RawMessage
	if _, err := r.client.Request(ctx, stdhttp.MethodPut, http.Join(r.path, id), item, http.WithResponse(&updated)); err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *Resource) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidID
	}
	_, err := r.client.Request(ctx, stdhttp.MethodDelete, http.Join(r.path, id), nil)
	return err
}

// Export copies the collection export to w and returns the bytes written.
// format is passed through to the backend, "csv" when empty.
func (r *Resource) Export(ctx context.Context, q Query, format string, w io.Writer) (int64, error) {
	if format == "" {
		format = "csv"
	}
	values := q.Values()
	values.Set("format", format)

	resp, err := r.client.Request(ctx, stdhttp.MethodGet, http.Join(r.path, "export"), nil, http.WithQuery(values))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, errors.Internal("failed to write export").WithCause(err)
	}
	return n, nil
}

// Filter keeps the object items for which keep returns true. Items that are
// not JSON objects are dropped.
func Filter(items []json.RawMessage, keep func(map[string]any) bool) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(items))
	for _, raw := range items {
		var obj map[string]any
		if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
			continue
		}
		if keep(obj) {
			out = append(out, raw)
		}
	}
	return out
}

// Equals is a Filter predicate matching a field's string form.
func Equals(field, value string) func(map[string]any) bool {
	return func(obj map[string]any) bool {
		v, ok := obj[field]
		if !ok {
			return false
		}
		switch t := v.(type) {
		case string:
			return t == value
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64) == value
		case bool:
			return strconv.FormatBool(t) == value
		}
		return false
	}
}
