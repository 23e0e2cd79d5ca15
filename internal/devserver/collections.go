package devserver

import (
	"cmp"
	"encoding/csv"
	"encoding/json"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kochabx/carelink/errors"
	"github.com/kochabx/carelink/service/records"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

var (
	errRecordNotFound = errors.NotFound("record not found")
	errNotAnObject    = errors.BadRequest("record must be a JSON object")
	errBadFormat      = errors.BadRequest("format must be csv or json")
)

// reserved query parameters; everything else is an equality filter
var reserved = map[string]bool{"page": true, "limit": true, "search": true, "sort": true, "format": true}

type record map[string]any

// collection is an in-memory list of schemaless records in insertion order.
type collection struct {
	mu    sync.RWMutex
	order []string
	items map[string]record
}

func newCollection() *collection {
	return &collection{items: make(map[string]record)}
}

func (c *collection) create(item record, owner string) record {
	item = maps.Clone(item)
	now := time.Now().UTC().Format(time.RFC3339)
	item["id"] = uuid.NewString()
	item["created_by"] = owner
	item["created_at"] = now
	item["updated_at"] = now

	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = append(c.order, item["id"].(string))
	c.items[item["id"].(string)] = item
	return item
}

func (c *collection) get(id string) (record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[id]
	if !ok {
		return nil, errRecordNotFound
	}
	return maps.Clone(item), nil
}

// update replaces the fields of id; id and creation fields are kept.
func (c *collection) update(id string, fields record) (record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	old, ok := c.items[id]
	if !ok {
		return nil, errRecordNotFound
	}
	item := maps.Clone(fields)
	for _, k := range []string{"id", "created_by", "created_at"} {
		item[k] = old[k]
	}
	item["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	c.items[id] = item
	return maps.Clone(item), nil
}

func (c *collection) delete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[id]; !ok {
		return errRecordNotFound
	}
	delete(c.items, id)
	c.order = slices.DeleteFunc(c.order, func(s string) bool { return s == id })
	return nil
}

// query is the parsed form of records.Query.
type query struct {
	page    int
	limit   int
	search  string
	sort    string
	filters map[string]string
}

func parseQuery(values map[string][]string) query {
	q := query{page: 1, limit: defaultPageLimit, filters: make(map[string]string)}
	first := func(k string) string {
		if v := values[k]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	if p, err := strconv.Atoi(first("page")); err == nil && p > 0 {
		q.page = p
	}
	if l, err := strconv.Atoi(first("limit")); err == nil && l > 0 {
		q.limit = min(l, maxPageLimit)
	}
	q.search = strings.ToLower(first("search"))
	q.sort = first("sort")
	for k, v := range values {
		if !reserved[k] && len(v) > 0 {
			q.filters[k] = v[0]
		}
	}
	return q
}

// match returns the records selected by q, sorted, without paging.
func (c *collection) match(q query) []record {
	c.mu.RLock()
	out := make([]record, 0, len(c.order))
	for _, id := range c.order {
		item := c.items[id]
		if q.matches(item) {
			out = append(out, maps.Clone(item))
		}
	}
	c.mu.RUnlock()

	if field, desc := strings.CutPrefix(q.sort, "-"); field != "" {
		slices.SortStableFunc(out, func(a, b record) int {
			r := compareField(a[field], b[field])
			if desc {
				return -r
			}
			return r
		})
	}
	return out
}

func (q query) matches(item record) bool {
	for k, v := range q.filters {
		if !records.Equals(k, v)(item) {
			return false
		}
	}
	if q.search == "" {
		return true
	}
	for _, v := range item {
		if s, ok := v.(string); ok && strings.Contains(strings.ToLower(s), q.search) {
			return true
		}
	}
	return false
}

func (c *collection) list(q query) records.Page {
	all := c.match(q)
	start := min((q.page-1)*q.limit, len(all))
	end := min(start+q.limit, len(all))

	items := make([]json.RawMessage, 0, end-start)
	for _, item := range all[start:end] {
		raw, _ := json.Marshal(item)
		items = append(items, raw)
	}
	return records.Page{Items: items, Total: len(all), Page: q.page, Limit: q.limit}
}

// export writes the records selected by q as CSV, one column per field
// seen, or as a JSON array.
func (c *collection) export(q query, format string, w io.Writer) error {
	all := c.match(q)

	switch format {
	case "", "csv":
	case "json":
		return json.NewEncoder(w).Encode(all)
	default:
		return errBadFormat
	}

	columns := []string{"id"}
	seen := map[string]bool{"id": true}
	var extra []string
	for _, item := range all {
		for k := range item {
			if !seen[k] {
				seen[k] = true
				extra = append(extra, k)
			}
		}
	}
	slices.Sort(extra)
	columns = append(columns, extra...)

	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	row := make([]string, len(columns))
	for _, item := range all {
		for i, col := range columns {
			row[i] = cell(item[col])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	raw, _ := json.Marshal(v)
	return string(raw)
}

// compareField orders numbers numerically and everything else by its
// string form; missing values sort first.
func compareField(a, b any) int {
	fa, aNum := a.(float64)
	fb, bNum := b.(float64)
	if aNum && bNum {
		return cmp.Compare(fa, fb)
	}
	return strings.Compare(cell(a), cell(b))
}
