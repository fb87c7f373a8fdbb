package core

import (
	"context"
	"io"
	"time"

	"github.com/JonMunkholm/PayrollDash/internal/apiclient"
	"github.com/JonMunkholm/PayrollDash/internal/bulkimport"
)

// Backend is the payroll REST API as the dashboard uses it.
// Satisfied by *apiclient.Client.
type Backend interface {
	apiclient.BulkCreator

	Companies(ctx context.Context) ([]map[string]any, error)
	Employees(ctx context.Context, companyID string) ([]map[string]any, error)
	Payrolls(ctx context.Context, companyID, employeeID string) ([]map[string]any, error)
	CreatePayroll(ctx context.Context, companyID, employeeID string, rec bulkimport.Record) (map[string]any, error)
	QueueMint(ctx context.Context, companyID, employeeID, payrollID string) (map[string]any, error)
	MintStatus(ctx context.Context, companyID, employeeID, payrollID string) (map[string]any, error)
	RetryMint(ctx context.Context, companyID, employeeID, payrollID string) (map[string]any, error)
	DecryptPayroll(ctx context.Context, companyID, employeeID, payrollID string) (map[string]any, error)
	EmployeeNFTs(ctx context.Context, companyID, employeeID string) ([]map[string]any, error)
	CompanyNFTs(ctx context.Context, companyID string) ([]map[string]any, error)
}

// PayrollRef addresses one payroll.
type PayrollRef struct {
	CompanyID  string
	EmployeeID string
	PayrollID  string
}

// ImportPhase indicates the current stage of an import session.
type ImportPhase string

const (
	PhasePreviewed  ImportPhase = "previewed"
	PhaseSubmitting ImportPhase = "submitting"
	PhaseComplete   ImportPhase = "complete"
	PhaseFailed     ImportPhase = "failed"
)

// Terminal reports whether no further progress will be sent.
func (p ImportPhase) Terminal() bool {
	return p == PhaseComplete || p == PhaseFailed
}

// ImportProgress is broadcast to subscribers after every chunk.
type ImportProgress struct {
	ImportID  string      `json:"importId"`
	Phase     ImportPhase `json:"phase"`
	Processed int         `json:"processed"`
	Total     int         `json:"total"`
	Error     string      `json:"error,omitempty"` // Non-empty if Phase is PhaseFailed
}

// Percent returns the progress as a percentage (0-100).
func (p ImportProgress) Percent() int {
	if p.Total > 0 {
		return (p.Processed * 100) / p.Total
	}
	if p.Phase == PhaseComplete {
		return 100
	}
	return 0
}

// ImportRequest starts an import session.
type ImportRequest struct {
	CompanyID  string
	EmployeeID string // empty for a company-wide import
	FileName   string
	Body       io.Reader
}

// ImportSession is the externally visible state of one import.
type ImportSession struct {
	ID         string              `json:"id"`
	Scope      string              `json:"scope"`
	CompanyID  string              `json:"companyId"`
	EmployeeID string              `json:"employeeId,omitempty"`
	FileName   string              `json:"fileName"`
	Phase      ImportPhase         `json:"phase"`
	Preview    *bulkimport.Preview `json:"preview"`
	Progress   ImportProgress      `json:"progress"`
	Result     *bulkimport.Result  `json:"result,omitempty"`
	CreatedAt  time.Time           `json:"createdAt"`
}

// ListingParams scopes a listing to a company, an employee or a status.
type ListingParams struct {
	CompanyID  string
	EmployeeID string
	Status     MintStatus // empty means all

	// Fanout bounds concurrent backend calls for aggregated listings.
	// Filled in by Service from BACKEND_FANOUT when zero.
	Fanout int
}
