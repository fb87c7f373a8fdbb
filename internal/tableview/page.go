package tableview

// Cell is one rendered cell.
type Cell struct {
	Key     string `json:"key"`
	Value   any    `json:"value"`
	Display string `json:"display"`
}

// RenderedRow is one row of the current page.
type RenderedRow struct {
	Key    string `json:"key"`
	Serial int    `json:"serial"`
	Cells  []Cell `json:"cells"`
	Row    Row    `json:"-"`
}

// Header describes a column header in its current state.
type Header struct {
	Key       string        `json:"key"`
	Label     string        `json:"label"`
	Sortable  bool          `json:"sortable"`
	Active    bool          `json:"active"`
	Direction SortDirection `json:"direction,omitempty"`
}

// PageResult is everything needed to draw the table once.
type PageResult struct {
	Headers      []Header      `json:"headers"`
	Rows         []RenderedRow `json:"rows"`
	Page         int           `json:"page"`
	PageSize     int           `json:"pageSize"`
	PageSizes    []int         `json:"pageSizes"`
	TotalPages   int           `json:"totalPages"`
	TotalRows    int           `json:"totalRows"`
	VisibleRows  int           `json:"visibleRows"`
	Sort         SortState     `json:"sort"`
	Search       string        `json:"search"`
	Searchable   bool          `json:"searchable"`
	Empty        bool          `json:"empty"`
	EmptyMessage string        `json:"emptyMessage,omitempty"`
}

// Headers returns the column headers with the active sort marked.
func (v *View) Headers() []Header {
	headers := make([]Header, len(v.cfg.Columns))
	for i, c := range v.cfg.Columns {
		h := Header{Key: c.Key, Label: c.Header, Sortable: c.IsSortable()}
		if c.Key == v.sort.Key && v.sort.Key != "" {
			h.Active = true
			h.Direction = v.sort.Direction
		}
		headers[i] = h
	}
	return headers
}

// Page renders the current page.
func (v *View) Page() PageResult {
	v.clamp()

	start := (v.page - 1) * v.pageSize
	end := start + v.pageSize
	if start > len(v.visible) {
		start = len(v.visible)
	}
	if end > len(v.visible) {
		end = len(v.visible)
	}

	rows := make([]RenderedRow, 0, end-start)
	for i, r := range v.visible[start:end] {
		serial := start + i + 1
		cells := make([]Cell, len(v.cfg.Columns))
		for ci, c := range v.cfg.Columns {
			val := c.Value(r)
			display := Stringify(val)
			if c.Render != nil {
				display = c.Render(r, i, serial)
			}
			cells[ci] = Cell{Key: c.Key, Value: val, Display: display}
		}
		rows = append(rows, RenderedRow{
			Key:    v.rowKey(r),
			Serial: serial,
			Cells:  cells,
			Row:    r,
		})
	}

	res := PageResult{
		Headers:     v.Headers(),
		Rows:        rows,
		Page:        v.page,
		PageSize:    v.pageSize,
		PageSizes:   v.cfg.PageSizes,
		TotalPages:  v.TotalPages(),
		TotalRows:   len(v.rows),
		VisibleRows: len(v.visible),
		Sort:        v.sort,
		Search:      v.search,
		Searchable:  v.cfg.Searchable,
	}
	if len(v.visible) == 0 {
		res.Empty = true
		res.EmptyMessage = v.cfg.EmptyMessage
	}
	return res
}
