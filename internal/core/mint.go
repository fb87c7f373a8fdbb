package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JonMunkholm/PayrollDash/internal/tableview"
)

var (
	// ErrIncompleteRef is returned when a payroll reference misses an id.
	ErrIncompleteRef = errors.New("payroll reference requires company, employee and payroll id")
	// ErrInvalidStatus is returned for a status filter that names no mint state.
	ErrInvalidStatus = errors.New("unknown mint status")
)

// MintStatus is the normalized NFT mint state of a payroll.
type MintStatus string

const (
	MintPending MintStatus = "pending"
	MintQueued  MintStatus = "queued"
	MintMinting MintStatus = "minting"
	MintMinted  MintStatus = "minted"
	MintFailed  MintStatus = "failed"
	MintUnknown MintStatus = "unknown"
)

// mintAliases maps the spellings the backend has used to a MintStatus.
var mintAliases = map[string]MintStatus{
	"":            MintPending,
	"pending":     MintPending,
	"created":     MintPending,
	"draft":       MintPending,
	"queued":      MintQueued,
	"scheduled":   MintQueued,
	"waiting":     MintQueued,
	"minting":     MintMinting,
	"processing":  MintMinting,
	"in_progress": MintMinting,
	"submitted":   MintMinting,
	"minted":      MintMinted,
	"success":     MintMinted,
	"completed":   MintMinted,
	"confirmed":   MintMinted,
	"failed":      MintFailed,
	"error":       MintFailed,
	"reverted":    MintFailed,
}

// NormalizeMintStatus maps a raw backend value to a MintStatus.
func NormalizeMintStatus(v any) MintStatus {
	s := strings.ToLower(strings.TrimSpace(tableview.Stringify(v)))
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, " ", "_")
	if st, ok := mintAliases[s]; ok {
		return st
	}
	return MintUnknown
}

// ParseMintStatus accepts only the canonical names. Used for query filters.
func ParseMintStatus(s string) (MintStatus, bool) {
	switch st := MintStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case MintPending, MintQueued, MintMinting, MintMinted, MintFailed, MintUnknown:
		return st, true
	}
	return "", false
}

// Label is the Turkish badge text.
func (m MintStatus) Label() string {
	switch m {
	case MintPending:
		return "Bekliyor"
	case MintQueued:
		return "Kuyrukta"
	case MintMinting:
		return "Basılıyor"
	case MintMinted:
		return "Basıldı"
	case MintFailed:
		return "Başarısız"
	default:
		return "Bilinmiyor"
	}
}

// Tone is the badge colour class.
func (m MintStatus) Tone() string {
	switch m {
	case MintMinted:
		return "success"
	case MintFailed:
		return "danger"
	case MintQueued, MintMinting:
		return "info"
	default:
		return "neutral"
	}
}

func (m MintStatus) CanQueue() bool { return m == MintPending }

func (m MintStatus) CanRetry() bool { return m == MintFailed }

// statusFields are checked in order to find the mint state of a row.
var statusFields = []string{"mint_status", "nft_status", "nft.status", "status"}

// StatusOf returns the mint status carried by a payroll or NFT row.
func StatusOf(row map[string]any) MintStatus {
	for _, f := range statusFields {
		if v := tableview.Lookup(row, f); v != nil {
			return NormalizeMintStatus(v)
		}
	}
	return MintPending
}

func hasStatus(row map[string]any) bool {
	for _, f := range statusFields {
		if tableview.Lookup(row, f) != nil {
			return true
		}
	}
	return false
}

// FilterByStatus keeps the rows whose mint status is status. An empty status
// keeps everything.
func FilterByStatus(rows []map[string]any, status MintStatus) []map[string]any {
	if status == "" {
		return rows
	}
	out := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		if StatusOf(r) == status {
			out = append(out, r)
		}
	}
	return out
}

// MintState is the backend's answer about one mint.
type MintState struct {
	Status  MintStatus     `json:"status"`
	TxHash  string         `json:"txHash,omitempty"`
	TokenID string         `json:"tokenId,omitempty"`
	Error   string         `json:"error,omitempty"`
	Raw     map[string]any `json:"raw,omitempty"`
}

func mintStateFrom(obj map[string]any) MintState {
	first := func(keys ...string) string {
		for _, k := range keys {
			if s := tableview.Stringify(tableview.Lookup(obj, k)); s != "" {
				return s
			}
		}
		return ""
	}
	return MintState{
		Status:  StatusOf(obj),
		TxHash:  first("tx_hash", "transaction_hash", "nft.tx_hash"),
		TokenID: first("token_id", "nft.token_id"),
		Error:   first("last_error", "error_message", "nft.last_error"),
		Raw:     obj,
	}
}

func (r PayrollRef) validate() error {
	if r.CompanyID == "" || r.EmployeeID == "" || r.PayrollID == "" {
		return ErrIncompleteRef
	}
	return nil
}

// QueueMint asks the backend to mint the payroll NFT.
func (s *Service) QueueMint(ctx context.Context, ref PayrollRef) (MintState, error) {
	if err := ref.validate(); err != nil {
		return MintState{}, err
	}
	obj, err := s.backend.QueueMint(ctx, ref.CompanyID, ref.EmployeeID, ref.PayrollID)
	if err != nil {
		return MintState{}, fmt.Errorf("queue mint: %w", err)
	}
	state := mintStateFrom(obj)
	if !hasStatus(obj) {
		state.Status = MintQueued
	}
	s.logger.InfoContext(ctx, "mint queued", "payroll_id", ref.PayrollID, "status", state.Status)
	return state, nil
}

// MintStatusOf reads the current mint state.
func (s *Service) MintStatusOf(ctx context.Context, ref PayrollRef) (MintState, error) {
	if err := ref.validate(); err != nil {
		return MintState{}, err
	}
	obj, err := s.backend.MintStatus(ctx, ref.CompanyID, ref.EmployeeID, ref.PayrollID)
	if err != nil {
		return MintState{}, fmt.Errorf("mint status: %w", err)
	}
	return mintStateFrom(obj), nil
}

// RetryMint re-queues a mint. The backend decides whether a retry is allowed.
func (s *Service) RetryMint(ctx context.Context, ref PayrollRef) (MintState, error) {
	if err := ref.validate(); err != nil {
		return MintState{}, err
	}
	obj, err := s.backend.RetryMint(ctx, ref.CompanyID, ref.EmployeeID, ref.PayrollID)
	if err != nil {
		return MintState{}, fmt.Errorf("retry mint: %w", err)
	}
	s.logger.InfoContext(ctx, "mint retried", "payroll_id", ref.PayrollID)
	return mintStateFrom(obj), nil
}

// DecryptPayroll returns the decrypted payroll document. It is never cached
// or logged.
func (s *Service) DecryptPayroll(ctx context.Context, ref PayrollRef) (map[string]any, error) {
	if err := ref.validate(); err != nil {
		return nil, err
	}
	obj, err := s.backend.DecryptPayroll(ctx, ref.CompanyID, ref.EmployeeID, ref.PayrollID)
	if err != nil {
		return nil, fmt.Errorf("decrypt payroll: %w", err)
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "payroll decrypted", slog.String("payroll_id", ref.PayrollID))
	return obj, nil
}
