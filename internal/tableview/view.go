package tableview

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortDirection is the direction of the active sort.
type SortDirection string

const (
	Asc  SortDirection = "asc"
	Desc SortDirection = "desc"
)

// DefaultPageSizes is used when Config.PageSizes is empty.
var DefaultPageSizes = []int{10, 25, 50, 100}

// DefaultEmptyMessage is shown when no row survives the search filter.
const DefaultEmptyMessage = "Kayıt bulunamadı"

var (
	ErrUnknownColumn    = errors.New("unknown column")
	ErrUnsortable       = errors.New("column is not sortable")
	ErrInvalidPageSize  = errors.New("page size is not one of the configured sizes")
	ErrDuplicateColumn  = errors.New("duplicate column key")
	ErrDuplicateRowKey  = errors.New("duplicate row key")
	ErrInvalidDirection = errors.New("sort direction must be asc or desc")
)

// SortState is the active sort. An empty Key means unsorted.
type SortState struct {
	Key       string        `json:"sortKey,omitempty"`
	Direction SortDirection `json:"sortDirection"`
}

// Config declares a table.
type Config struct {
	Columns []Column

	// RowKey yields a key unique across the row set. Nil reads RowKeyField
	// ("id" when empty).
	RowKey      func(Row) string
	RowKeyField string

	// Searchable enables free-text search over SearchFields, or over every
	// scalar field of a row when SearchFields is empty.
	Searchable   bool
	SearchFields []string

	PageSizes    []int
	PageSize     int
	EmptyMessage string

	// Locale drives string collation. Defaults to Turkish.
	Locale language.Tag
}

// View is the stateful table engine.
type View struct {
	cfg     Config
	columns map[string]Column
	rows    []Row

	search   string
	sort     SortState
	page     int
	pageSize int

	collator *collate.Collator
	folder   cases.Caser

	filtered []Row
	visible  []Row
}

// New builds a view over rows.
func New(rows []Row, cfg Config) (*View, error) {
	if len(cfg.PageSizes) == 0 {
		cfg.PageSizes = DefaultPageSizes
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = cfg.PageSizes[0]
	}
	if !slices.Contains(cfg.PageSizes, cfg.PageSize) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPageSize, cfg.PageSize)
	}
	if cfg.EmptyMessage == "" {
		cfg.EmptyMessage = DefaultEmptyMessage
	}
	if cfg.RowKeyField == "" {
		cfg.RowKeyField = "id"
	}
	if cfg.Locale == language.Und {
		cfg.Locale = language.Turkish
	}

	columns := make(map[string]Column, len(cfg.Columns))
	for _, c := range cfg.Columns {
		if _, dup := columns[c.Key]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateColumn, c.Key)
		}
		columns[c.Key] = c
	}

	v := &View{
		cfg:      cfg,
		columns:  columns,
		page:     1,
		pageSize: cfg.PageSize,
		sort:     SortState{Direction: Asc},
		collator: collate.New(cfg.Locale, collate.IgnoreCase),
		folder:   cases.Fold(),
	}
	if err := v.SetRows(rows); err != nil {
		return nil, err
	}
	return v, nil
}

// SetRows replaces the row set. The current page is kept and clamped.
func (v *View) SetRows(rows []Row) error {
	seen := make(map[string]struct{}, len(rows))
	for i, r := range rows {
		key := v.rowKey(r)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: %q at row %d", ErrDuplicateRowKey, key, i)
		}
		seen[key] = struct{}{}
	}
	v.rows = rows
	v.refilter()
	return nil
}

// SetSearch changes the query and resets to the first page.
func (v *View) SetSearch(q string) {
	v.search = q
	v.page = 1
	v.refilter()
}

// SetSort sets the sort explicitly. The page is kept, then clamped.
// An empty key clears the sort.
func (v *View) SetSort(key string, dir SortDirection) error {
	if dir != Asc && dir != Desc {
		return fmt.Errorf("%w: %q", ErrInvalidDirection, dir)
	}
	if key != "" {
		col, ok := v.columns[key]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownColumn, key)
		}
		if !col.IsSortable() {
			return fmt.Errorf("%w: %s", ErrUnsortable, key)
		}
	}
	v.sort = SortState{Key: key, Direction: dir}
	v.resort()
	return nil
}

// ToggleSort is a header click: flips direction on the active column,
// otherwise sorts the clicked column ascending. Unsortable or unknown
// columns are inert.
func (v *View) ToggleSort(key string) {
	col, ok := v.columns[key]
	if !ok || !col.IsSortable() {
		return
	}
	if v.sort.Key == key {
		if v.sort.Direction == Asc {
			v.sort.Direction = Desc
		} else {
			v.sort.Direction = Asc
		}
	} else {
		v.sort = SortState{Key: key, Direction: Asc}
	}
	v.resort()
}

// SetPage moves to page n, clamped to the available pages.
func (v *View) SetPage(n int) {
	v.page = n
	v.clamp()
}

// SetPageSize changes the page size and resets to the first page.
func (v *View) SetPageSize(n int) error {
	if !slices.Contains(v.cfg.PageSizes, n) {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, n)
	}
	v.pageSize = n
	v.page = 1
	return nil
}

// State returns the current view state.
func (v *View) State() State {
	return State{
		Search:   v.search,
		Sort:     v.sort,
		Page:     v.page,
		PageSize: v.pageSize,
	}
}

// State is a snapshot of the user-controlled inputs of a view.
type State struct {
	Search   string    `json:"search"`
	Sort     SortState `json:"sort"`
	Page     int       `json:"page"`
	PageSize int       `json:"pageSize"`
}

// TotalPages is ceil(visible/pageSize), never below 1.
func (v *View) TotalPages() int {
	n := len(v.visible)
	if n == 0 {
		return 1
	}
	return (n + v.pageSize - 1) / v.pageSize
}

// Visible returns the filtered and sorted rows, all pages.
func (v *View) Visible() []Row {
	return slices.Clone(v.visible)
}

func (v *View) rowKey(r Row) string {
	if v.cfg.RowKey != nil {
		return v.cfg.RowKey(r)
	}
	return Stringify(Lookup(r, v.cfg.RowKeyField))
}

// refilter re-derives the search stage and everything after it.
func (v *View) refilter() {
	q := strings.TrimSpace(v.search)
	if !v.cfg.Searchable || q == "" {
		v.filtered = slices.Clone(v.rows)
		v.resort()
		return
	}

	needle := v.folder.String(q)
	filtered := make([]Row, 0, len(v.rows))
	for _, r := range v.rows {
		if v.matches(r, needle) {
			filtered = append(filtered, r)
		}
	}
	v.filtered = filtered
	v.resort()
}

func (v *View) matches(r Row, needle string) bool {
	if len(v.cfg.SearchFields) > 0 {
		for _, f := range v.cfg.SearchFields {
			if v.fieldContains(Lookup(r, f), needle) {
				return true
			}
		}
		return false
	}
	for _, val := range r {
		if isScalar(val) && v.fieldContains(val, needle) {
			return true
		}
	}
	return false
}

func (v *View) fieldContains(val any, needle string) bool {
	if val == nil {
		return false
	}
	return strings.Contains(v.folder.String(Stringify(val)), needle)
}

// resort re-derives the sort stage from the filtered rows.
func (v *View) resort() {
	sorted := slices.Clone(v.filtered)
	if col, ok := v.columns[v.sort.Key]; ok && v.sort.Key != "" {
		desc := v.sort.Direction == Desc
		sort.SliceStable(sorted, func(i, j int) bool {
			return v.compare(col.sortValue(sorted[i]), col.sortValue(sorted[j]), desc) < 0
		})
	}
	v.visible = sorted
	v.clamp()
}

// compare orders nil before everything regardless of direction; the direction
// only flips the order of defined values.
func (v *View) compare(a, b any, desc bool) int {
	aNil, bNil := a == nil, b == nil
	switch {
	case aNil && bNil:
		return 0
	case aNil:
		return -1
	case bNil:
		return 1
	}

	c := v.compareDefined(a, b)
	if desc {
		return -c
	}
	return c
}

func (v *View) compareDefined(a, b any) int {
	if fa, ok := toNumber(a); ok {
		if fb, ok := toNumber(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}
	}
	return v.collator.CompareString(Stringify(a), Stringify(b))
}

func (v *View) clamp() {
	if total := v.TotalPages(); v.page > total {
		v.page = total
	}
	if v.page < 1 {
		v.page = 1
	}
}
