// Package store persists the history of confirmed bulk imports.
//
// The backend is the source of truth for payrolls; this history only records
// what operators submitted from the dashboard and what the backend answered.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// DefaultListLimit is used when List is called with a limit <= 0.
const DefaultListLimit = 50

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("import history entry not found")

// Scope values.
const (
	ScopeEmployee = "employee"
	ScopeCompany  = "company"
)

// Entry is one confirmed import.
type Entry struct {
	ID         uuid.UUID `json:"id"`
	FileName   string    `json:"fileName"`
	Scope      string    `json:"scope"`
	CompanyID  string    `json:"companyId"`
	EmployeeID string    `json:"employeeId,omitempty"`
	Total      int       `json:"total"`
	Valid      int       `json:"valid"`
	Invalid    int       `json:"invalid"`
	Success    int       `json:"success"`
	Failed     int       `json:"failed"`
	BatchID    string    `json:"batchId,omitempty"`
	Errors     []string  `json:"errors,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Duration is the wall time the submission took.
func (e Entry) Duration() time.Duration {
	if e.FinishedAt.Before(e.StartedAt) {
		return 0
	}
	return e.FinishedAt.Sub(e.StartedAt)
}

// History records and lists imports, newest first.
type History interface {
	Record(ctx context.Context, e Entry) error
	List(ctx context.Context, limit int) ([]Entry, error)
	Get(ctx context.Context, id uuid.UUID) (Entry, error)
}

// prepare fills the id and finish time of an entry about to be recorded.
func prepare(e Entry) Entry {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.FinishedAt.IsZero() {
		e.FinishedAt = time.Now()
	}
	if e.StartedAt.IsZero() {
		e.StartedAt = e.FinishedAt
	}
	return e
}
