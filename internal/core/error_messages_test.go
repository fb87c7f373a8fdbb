package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/PayrollDash/internal/apiclient"
	"github.com/JonMunkholm/PayrollDash/internal/bulkimport"
	"github.com/JonMunkholm/PayrollDash/internal/tableview"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:     "unauthorized",
			err:      &apiclient.APIError{Status: 401, Message: "token expired"},
			wantCode: "API001",
		},
		{
			name:     "wrapped not found",
			err:      fmt.Errorf("queue mint: %w", &apiclient.APIError{Status: 404, Message: "nope"}),
			wantCode: "API003",
		},
		{
			name:        "validation keeps backend message",
			err:         &apiclient.APIError{Status: 422, Message: "period_end must follow period_start"},
			wantCode:    "API004",
			wantMessage: "period_end must follow period_start",
		},
		{
			name:     "server error",
			err:      &apiclient.APIError{Status: 503, Message: "unavailable"},
			wantCode: "API005",
		},
		{
			name:     "backend throttling",
			err:      &apiclient.APIError{Status: 429, Message: "slow down"},
			wantCode: "RATE001",
		},
		{
			name:     "connection refused",
			err:      errors.New("dial tcp 127.0.0.1:8000: connect: connection refused"),
			wantCode: "API006",
		},
		{
			name:     "deadline",
			err:      fmt.Errorf("list companies: %w", context.DeadlineExceeded),
			wantCode: "API007",
		},
		{
			name:        "file error keeps its message",
			err:         &bulkimport.FileError{Code: bulkimport.CodeExtension, Message: "Yalnızca .json dosyaları"},
			wantCode:    "FILE001",
			wantMessage: "Yalnızca .json dosyaları",
		},
		{
			name:     "file too large",
			err:      &bulkimport.FileError{Code: bulkimport.CodeTooLarge, Message: "Dosya çok büyük"},
			wantCode: "FILE005",
		},
		{
			name:     "import not found is wrapped",
			err:      fmt.Errorf("%w: abc", ErrImportNotFound),
			wantCode: "IMP001",
		},
		{
			name:     "import busy",
			err:      ErrImportBusy,
			wantCode: "IMP002",
		},
		{
			name:     "too many imports",
			err:      ErrTooManyImports,
			wantCode: "IMP003",
		},
		{
			name:     "nothing to import",
			err:      ErrNothingToImport,
			wantCode: "IMP004",
		},
		{
			name:     "unsortable column",
			err:      fmt.Errorf("sort: %w", tableview.ErrUnsortable),
			wantCode: "VAL002",
		},
		{
			name:     "unknown listing",
			err:      fmt.Errorf("%w: widgets", ErrUnknownListing),
			wantCode: "TBL001",
		},
		{
			name:     "rate limit pattern",
			err:      errors.New("Rate Limit exceeded"),
			wantCode: "RATE001",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "Beklenmeyen bir hata oluştu",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if tt.wantMessage != "" && got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
			if tt.err != nil && got.Action == "" {
				t.Error("MapError() returned no action")
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrImportBusy)

	expected := "İçe aktarma hâlâ gönderiliyor (Kod: IMP002). İşlem bitene kadar bekleyin"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
	if FormatUserError(nil) != "" {
		t.Error("FormatUserError(nil) should be empty")
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"known error is user facing", ErrNothingToImport, true},
		{"api error is user facing", &apiclient.APIError{Status: 403}, true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := &apiclient.APIError{Status: 500, Message: "stack trace here"}
		userErr := NewUserError(techErr)

		if userErr.Error() != "Sunucu isteği işleyemedi" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}
		if !errors.Is(userErr, techErr) {
			t.Error("Unwrap() should return original error")
		}
	})
}
