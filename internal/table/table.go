// Package table renders homogeneous rows as a sortable, paginated HTML
// table model. Sorting and paging are driven by the request query string:
// sort=<key> or sort=-<key>, and page=<n>.
package table

import (
	"cmp"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// DefaultPerPage matches the page size most list views use.
const DefaultPerPage = 25

// Column describes one table column. Compare may be nil, in which case the
// column is not orderable.
type Column[T any] struct {
	Key     string
	Header  string
	Cell    func(T) string
	Compare func(a, b T) int
}

// Table holds rows plus the state derived from Configure.
type Table[T any] struct {
	Columns []Column[T]
	PerPage int

	rows    []T
	query   url.Values
	sortKey string
	desc    bool
	page    int
}

// Header is a column heading as seen by the template.
type Header struct {
	Key       string
	Label     string
	Orderable bool
	Sorted    bool
	Desc      bool
	SortURL   string
}

// Row carries the formatted cells and the source value, so templates can
// reach fields such as an id for per-row actions.
type Row struct {
	Cells []string
	Value any
}

// View is the template-facing snapshot of a configured table.
type View struct {
	Headers []Header
	Rows    []Row
	Page    int
	Pages   int
	Total   int
	PrevURL string
	NextURL string
}

// New builds a table over rows. The slice is copied so sorting never
// reorders the caller's data.
func New[T any](rows []T, cols ...Column[T]) *Table[T] {
	return &Table[T]{
		Columns: cols,
		PerPage: DefaultPerPage,
		rows:    slices.Clone(rows),
		query:   url.Values{},
		page:    1,
	}
}

// Configure applies sort and page parameters from q. Unknown or
// non-orderable sort keys are ignored and out-of-range pages are clamped.
func (t *Table[T]) Configure(q url.Values) *Table[T] {
	t.query = cloneValues(q)

	if raw := strings.TrimSpace(q.Get("sort")); raw != "" {
		key, desc := strings.TrimPrefix(raw, "-"), strings.HasPrefix(raw, "-")
		if col, ok := t.column(key); ok && col.Compare != nil {
			t.sortKey, t.desc = key, desc
			slices.SortStableFunc(t.rows, func(a, b T) int {
				if desc {
					return col.Compare(b, a)
				}
				return col.Compare(a, b)
			})
		}
	}

	t.page = 1
	if n, err := strconv.Atoi(q.Get("page")); err == nil {
		t.page = n
	}
	t.page = min(max(t.page, 1), t.pages())
	return t
}

// View returns the current page of formatted rows.
func (t *Table[T]) View() View {
	v := View{Page: t.page, Pages: t.pages(), Total: len(t.rows)}

	for _, c := range t.Columns {
		h := Header{Key: c.Key, Label: c.Header, Orderable: c.Compare != nil}
		if h.Orderable {
			h.Sorted = c.Key == t.sortKey
			h.Desc = h.Sorted && t.desc
			next := c.Key
			if h.Sorted && !t.desc {
				next = "-" + c.Key
			}
			h.SortURL = t.url(map[string]string{"sort": next, "page": ""})
		}
		v.Headers = append(v.Headers, h)
	}

	per := t.perPage()
	start := min((t.page-1)*per, len(t.rows))
	end := min(start+per, len(t.rows))
	for _, item := range t.rows[start:end] {
		r := Row{Value: item}
		for _, c := range t.Columns {
			r.Cells = append(r.Cells, c.Cell(item))
		}
		v.Rows = append(v.Rows, r)
	}

	if t.page > 1 {
		v.PrevURL = t.url(map[string]string{"page": strconv.Itoa(t.page - 1)})
	}
	if t.page < v.Pages {
		v.NextURL = t.url(map[string]string{"page": strconv.Itoa(t.page + 1)})
	}
	return v
}

func (t *Table[T]) column(key string) (Column[T], bool) {
	for _, c := range t.Columns {
		if c.Key == key {
			return c, true
		}
	}
	return Column[T]{}, false
}

func (t *Table[T]) perPage() int {
	if t.PerPage <= 0 {
		return DefaultPerPage
	}
	return t.PerPage
}

func (t *Table[T]) pages() int {
	per := t.perPage()
	return max(1, (len(t.rows)+per-1)/per)
}

// url returns "?<query>" with overrides applied; an empty override value
// removes the parameter.
func (t *Table[T]) url(overrides map[string]string) string {
	q := cloneValues(t.query)
	for k, v := range overrides {
		if v == "" {
			q.Del(k)
		} else {
			q.Set(k, v)
		}
	}
	return "?" + q.Encode()
}

func cloneValues(q url.Values) url.Values {
	out := make(url.Values, len(q))
	for k, v := range q {
		out[k] = slices.Clone(v)
	}
	return out
}

// Strings compares two strings case-insensitively; a ready-made Compare for
// text columns.
func Strings(a, b string) int {
	return cmp.Compare(strings.ToLower(a), strings.ToLower(b))
}
