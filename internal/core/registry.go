package core

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/JonMunkholm/PayrollDash/internal/tableview"
)

// ListingScope is what a listing needs to be fetched.
type ListingScope int

const (
	ScopeGlobal ListingScope = iota
	ScopeCompany
	ScopeEmployee
)

// ListingInfo contains display information about a listing.
type ListingInfo struct {
	Key   string // Unique identifier: "payrolls"
	Group string // Menu group: "Bordro", "NFT"
	Label string // Display name: "Bordrolar"
	Scope ListingScope
}

// RowAction is an icon button rendered in a row.
type RowAction struct {
	Key    string // "queue", "retry", "decrypt"
	Label  string // accessible name, also the tooltip
	Icon   string
	Method string // HTTP method used by the button
	// Path builds the action URL for a row. Nil hides the action.
	Path func(row map[string]any, p ListingParams) string
	// Visible hides the action for rows it does not apply to. Nil shows it.
	Visible func(row map[string]any) bool
}

// AccessibleLabel never returns an empty string: icon-only buttons must be
// named for assistive technology.
func (a RowAction) AccessibleLabel() string {
	if a.Label != "" {
		return a.Label
	}
	return a.Key
}

// FetchFunc loads the rows of a listing from the backend.
type FetchFunc func(ctx context.Context, b Backend, p ListingParams) ([]map[string]any, error)

// ListingDefinition contains everything needed to show one table.
type ListingDefinition struct {
	Info         ListingInfo
	Columns      []tableview.Column
	Searchable   bool
	SearchFields []string
	RowKeyField  string
	// StatusFilter enables filtering rows by mint status.
	StatusFilter bool
	Actions      []RowAction
	Fetch        FetchFunc
}

var (
	registry   = make(map[string]ListingDefinition)
	registryMu sync.RWMutex
)

// Register adds a listing definition to the registry.
// Panics if a listing with the same key is already registered.
func Register(def ListingDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Key]; exists {
		panic(fmt.Sprintf("listing already registered: %s", def.Info.Key))
	}
	if def.Fetch == nil {
		panic(fmt.Sprintf("listing %s has no fetch function", def.Info.Key))
	}

	registry[def.Info.Key] = def
}

// Get returns a listing definition by key.
// Returns false if not found.
func Get(key string) (ListingDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// All returns all registered listing definitions.
// Sorted by group then by key for consistent ordering.
func All() []ListingDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]ListingDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Info.Group != result[j].Info.Group {
			return result[i].Info.Group < result[j].Info.Group
		}
		return result[i].Info.Key < result[j].Info.Key
	})

	return result
}

// ByGroup returns all listing definitions for a specific group.
func ByGroup(group string) []ListingDefinition {
	var result []ListingDefinition
	for _, def := range All() {
		if def.Info.Group == group {
			result = append(result, def)
		}
	}
	return result
}

// Groups returns all unique group names, sorted.
func Groups() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	seen := make(map[string]bool)
	for _, def := range registry {
		seen[def.Info.Group] = true
	}

	groups := make([]string, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}

	sort.Strings(groups)
	return groups
}

// Clear removes all registered listings.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]ListingDefinition)
}
