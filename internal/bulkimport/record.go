// Package bulkimport turns an uploaded JSON file of payroll records into a
// preview and submits the valid records to the backend in sequential chunks.
//
// The flow has four stages:
//
//	Parse       file name + bytes -> raw items        (file-level errors abort)
//	Validate    raw item -> Record or error list      (per item, never aborts)
//	BuildPreview items -> Preview                     (shown before any network call)
//	Confirm     Preview -> Result                     (chunked, one attempt per chunk)
//
// Nothing in the package keeps state between calls. A Preview is created per
// file and is never updated in place.
package bulkimport

import (
	"context"
	"fmt"
)

// DefaultChunkSize is the number of records sent per bulk request.
const DefaultChunkSize = 200

// DefaultCurrency is used when a record carries no currency.
const DefaultCurrency = "TRY"

// Record is a normalized payroll record as the bulk endpoints accept it.
// Optional fields are nil when absent and encode as JSON null.
type Record struct {
	NationalID        string   `json:"national_id"`
	PeriodStart       string   `json:"period_start"`
	PeriodEnd         string   `json:"period_end"`
	PaymentDate       *string  `json:"payment_date"`
	Currency          string   `json:"currency"`
	GrossSalary       float64  `json:"gross_salary"`
	NetSalary         float64  `json:"net_salary"`
	Bonus             *float64 `json:"bonus"`
	DeductionsTotal   *float64 `json:"deductions_total"`
	EmployerSignName  *string  `json:"employer_sign_name"`
	EmployerSignTitle *string  `json:"employer_sign_title"`
	BatchID           *string  `json:"batch_id"`
	ExternalBatchRef  *string  `json:"external_batch_ref"`
	ExternalRef       *string  `json:"external_ref"`
	OriginalIndex     int      `json:"original_index"`
}

// InvalidItem is a rejected item as shown in the preview.
type InvalidItem struct {
	Index   int      `json:"index"` // 1-based position in the file
	Errors  []string `json:"errors"`
	Summary string   `json:"summary"`
}

// Preview is the validated, not yet submitted content of one file.
type Preview struct {
	FileName      string        `json:"fileName"`
	Total         int           `json:"total"`
	ValidCount    int           `json:"validCount"`
	InvalidCount  int           `json:"invalidCount"`
	InvalidItems  []InvalidItem `json:"invalidItems"`
	ValidPayloads []Record      `json:"validPayloads"`
}

// Result aggregates a confirmed import.
type Result struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	BatchID string   `json:"batchId,omitempty"`
	Errors  []string `json:"errors,omitempty"`
	Chunks  int      `json:"chunks"`
}

// Progress reports how many valid records have been handled so far.
type Progress struct {
	Processed int `json:"processed"`
	Total     int `json:"total"`
}

// Percent returns the progress as 0-100.
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 100
	}
	return float64(p.Processed) / float64(p.Total) * 100
}

// ProgressFunc is called after every chunk, successful or not.
type ProgressFunc func(Progress)

// ChunkResponse is what the backend reported for one chunk.
type ChunkResponse struct {
	Created int
	Failed  int
	BatchID string
}

// Submitter sends one chunk. batchID is nil until the backend has assigned
// one; after that every chunk of the import carries it.
type Submitter interface {
	SubmitChunk(ctx context.Context, items []Record, batchID *string) (ChunkResponse, error)
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, items []Record, batchID *string) (ChunkResponse, error)

func (f SubmitterFunc) SubmitChunk(ctx context.Context, items []Record, batchID *string) (ChunkResponse, error) {
	return f(ctx, items, batchID)
}

// File error codes.
const (
	CodeExtension = "FILE_EXT"
	CodeRead      = "FILE_READ"
	CodeJSON      = "FILE_JSON"
	CodeEmpty     = "FILE_EMPTY"
	CodeTooLarge  = "FILE_TOO_LARGE"
)

// FileError is a file-level failure. It aborts the import before a preview
// exists. Message is fit for display.
type FileError struct {
	Code    string
	Message string
	Err     error
}

func (e *FileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *FileError) Unwrap() error { return e.Err }
