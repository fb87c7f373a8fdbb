package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strconv"
	"sync"

	"golang.org/x/text/language"

	"github.com/JonMunkholm/PayrollDash/internal/config"
	"github.com/JonMunkholm/PayrollDash/internal/store"
	"github.com/JonMunkholm/PayrollDash/internal/tableview"
)

var (
	ErrUnknownListing  = errors.New("unknown listing")
	ErrMissingCompany  = errors.New("company id required")
	ErrMissingEmployee = errors.New("employee id required")
)

// Service provides the dashboard operations on top of the payroll backend.
type Service struct {
	backend Backend
	history store.History
	limiter *ImportLimiter
	logger  *slog.Logger

	importCfg config.ImportConfig
	pageSizes []int
	pageSize  int
	locale    language.Tag
	fanout    int

	mu      sync.RWMutex
	imports map[string]*importSession
}

// NewService creates a Service. history may be nil, in which case imports are
// remembered in memory only.
func NewService(backend Backend, history store.History, cfg *config.Config) (*Service, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	locale, err := language.Parse(cfg.Table.Locale)
	if err != nil {
		return nil, fmt.Errorf("table locale %q: %w", cfg.Table.Locale, err)
	}
	if history == nil {
		history = store.NewMemory(cfg.Import.HistoryLimit)
	}

	return &Service{
		backend:   backend,
		history:   history,
		limiter:   NewImportLimiter(cfg.Import.MaxConcurrent, cfg.Import.MaxWaitTime),
		logger:    slog.Default().With("component", "core"),
		importCfg: cfg.Import,
		pageSizes: cfg.Table.PageSizeValues(),
		pageSize:  cfg.Table.DefaultPageSize,
		locale:    locale,
		fanout:    cfg.Backend.Fanout,
		imports:   make(map[string]*importSession),
	}, nil
}

// SetLogger replaces the service logger.
func (s *Service) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger = l
	}
}

// ListListings returns information about all registered listings.
func (s *Service) ListListings() []ListingInfo {
	defs := All()
	infos := make([]ListingInfo, len(defs))
	for i, def := range defs {
		infos[i] = def.Info
	}
	return infos
}

// ListingPage is one rendered page of a listing.
type ListingPage struct {
	Info    ListingInfo          `json:"info"`
	Params  ListingParams        `json:"-"`
	Actions []RowAction          `json:"-"`
	Page    tableview.PageResult `json:"page"`
	Query   tableview.Query      `json:"-"`
}

// Rows fetches the rows of a listing, filtered by status when requested.
func (s *Service) Rows(ctx context.Context, key string, p ListingParams) ([]map[string]any, error) {
	def, ok := Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownListing, key)
	}
	return s.rows(ctx, def, p)
}

func (s *Service) rows(ctx context.Context, def ListingDefinition, p ListingParams) ([]map[string]any, error) {
	if err := checkScope(def.Info.Scope, p); err != nil {
		return nil, err
	}
	if p.Fanout <= 0 {
		p.Fanout = s.fanout
	}

	rows, err := def.Fetch(ctx, s.backend, p)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", def.Info.Key, err)
	}
	if def.StatusFilter && p.Status != "" {
		rows = FilterByStatus(rows, p.Status)
	}
	return rows, nil
}

func checkScope(scope ListingScope, p ListingParams) error {
	if scope >= ScopeCompany && p.CompanyID == "" {
		return ErrMissingCompany
	}
	if scope >= ScopeEmployee && p.EmployeeID == "" {
		return ErrMissingEmployee
	}
	return nil
}

// Listing fetches a listing and renders the page described by q.
func (s *Service) Listing(ctx context.Context, key string, p ListingParams, q tableview.Query) (*ListingPage, error) {
	def, ok := Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownListing, key)
	}

	rows, err := s.rows(ctx, def, p)
	if err != nil {
		return nil, err
	}

	view, err := s.NewView(rows, def.Columns, def.Searchable, def.SearchFields, def.RowKeyField)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", def.Info.Key, err)
	}
	view.Apply(q)

	return &ListingPage{
		Info:    def.Info,
		Params:  p,
		Actions: def.Actions,
		Page:    view.Page(),
		Query:   view.Query(),
	}, nil
}

// NewView builds a table view with the configured page sizes and locale.
// Rows without a value in keyField are keyed by their position.
func (s *Service) NewView(rows []map[string]any, cols []tableview.Column, searchable bool, searchFields []string, keyField string) (*tableview.View, error) {
	if keyField == "" {
		keyField = "id"
	}
	// Keyless rows are keyed by position, looked up by map identity so the
	// backend rows stay untouched and unsearchable keys never leak into them.
	positions := make(map[uintptr]int, len(rows))
	for i, r := range rows {
		positions[reflect.ValueOf(r).Pointer()] = i
	}

	return tableview.New(rows, tableview.Config{
		Columns: cols,
		RowKey: func(r tableview.Row) string {
			if k := tableview.Stringify(tableview.Lookup(r, keyField)); k != "" {
				return k
			}
			return "#" + strconv.Itoa(positions[reflect.ValueOf(r).Pointer()])
		},
		Searchable:   searchable,
		SearchFields: searchFields,
		PageSizes:    s.pageSizes,
		PageSize:     s.pageSize,
		Locale:       s.locale,
	})
}

// ImportLimiterStatus returns the current state of the import limiter.
func (s *Service) ImportLimiterStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until all submitting imports finish or ctx expires.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// Logout forwards to the backend when it supports sessions.
func (s *Service) Logout(ctx context.Context) error {
	if lo, ok := s.backend.(interface{ Logout(context.Context) error }); ok {
		return lo.Logout(ctx)
	}
	return nil
}

// Login forwards to the backend when it supports sessions.
func (s *Service) Login(ctx context.Context, email, password string) error {
	li, ok := s.backend.(interface {
		Login(context.Context, string, string) (string, error)
	})
	if !ok {
		return errors.New("backend does not support login")
	}
	_, err := li.Login(ctx, email, password)
	return err
}
