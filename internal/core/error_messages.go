package core

// error_messages.go turns technical errors into messages an operator can act
// on. Every message carries a code that can be quoted to support.
//
// # Backend Errors (API001-API099)
//
//	API001 - Session expired (HTTP 401). Action: sign in again
//	API002 - Not permitted (HTTP 403)
//	API003 - Record not found (HTTP 404)
//	API004 - Request rejected (HTTP 400/409/422). The backend's own message is shown
//	API005 - Backend failure (HTTP 5xx)
//	API006 - Backend unreachable. Patterns: "connection refused", "no such host"
//	API007 - Backend timed out. Patterns: "deadline exceeded", "timeout"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - Not a .json file
//	FILE002 - File could not be read
//	FILE003 - Invalid JSON
//	FILE004 - Empty file or no records
//	FILE005 - File too large
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - Import session not found or expired
//	IMP002 - Import is still being submitted
//	IMP003 - Too many imports running
//	IMP004 - No valid records to send
//	IMP005 - Import already submitted
//
// # Request Errors (VAL001-VAL099, TBL001-TBL099)
//
//	VAL001 - Company, employee or payroll id missing
//	VAL002 - Invalid table parameters (sort column, page size, status filter)
//	TBL001 - Unknown listing
//
// # Rate Limiting
//
//	RATE001 - Too many requests (HTTP 429 or "rate limit")
//
// # Default Error
//
//	ERR000 - Anything else. Check the logs for the technical error.
//
// Typed errors are resolved first with errors.Is/errors.As; the pattern list
// is only consulted for errors that carry no type.

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/JonMunkholm/PayrollDash/internal/apiclient"
	"github.com/JonMunkholm/PayrollDash/internal/bulkimport"
	"github.com/JonMunkholm/PayrollDash/internal/tableview"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgSessionExpired = UserMessage{
		Message: "Oturumunuzun süresi doldu",
		Action:  "Lütfen tekrar giriş yapın",
		Code:    "API001",
	}
	msgForbidden = UserMessage{
		Message: "Bu işlem için yetkiniz yok",
		Action:  "Yöneticinizle iletişime geçin",
		Code:    "API002",
	}
	msgNotFound = UserMessage{
		Message: "Kayıt bulunamadı",
		Action:  "Listeyi yenileyip tekrar deneyin",
		Code:    "API003",
	}
	msgBackendFailure = UserMessage{
		Message: "Sunucu isteği işleyemedi",
		Action:  "Birkaç dakika sonra tekrar deneyin",
		Code:    "API005",
	}
	msgRateLimited = UserMessage{
		Message: "Çok fazla istek gönderildi",
		Action:  "Lütfen biraz bekleyip tekrar deneyin",
		Code:    "RATE001",
	}
)

// sentinelMessages are checked with errors.Is, in order.
var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	{ErrImportNotFound, UserMessage{"İçe aktarma oturumu bulunamadı", "Oturumun süresi dolmuş olabilir. Dosyayı yeniden yükleyin", "IMP001"}},
	{ErrImportBusy, UserMessage{"İçe aktarma hâlâ gönderiliyor", "İşlem bitene kadar bekleyin", "IMP002"}},
	{ErrTooManyImports, UserMessage{"Sistem başka içe aktarmaları işliyor", "Lütfen biraz bekleyip tekrar deneyin", "IMP003"}},
	{ErrNothingToImport, UserMessage{"Gönderilecek geçerli kayıt yok", "Dosyadaki hataları düzeltip yeniden yükleyin", "IMP004"}},
	{ErrImportFinished, UserMessage{"Bu içe aktarma zaten gönderildi", "Yeni bir dosya yükleyin", "IMP005"}},
	{ErrMissingImportKey, UserMessage{"Şirket seçilmedi", "İçe aktarmadan önce bir şirket seçin", "VAL001"}},
	{ErrMissingCompany, UserMessage{"Şirket seçilmedi", "Önce bir şirket seçin", "VAL001"}},
	{ErrMissingEmployee, UserMessage{"Çalışan seçilmedi", "Önce bir çalışan seçin", "VAL001"}},
	{ErrIncompleteRef, UserMessage{"Bordro kimliği eksik", "Listeyi yenileyip tekrar deneyin", "VAL001"}},
	{ErrInvalidStatus, UserMessage{"Geçersiz durum filtresi", "Listeden bir durum seçin", "VAL002"}},
	{tableview.ErrUnknownColumn, UserMessage{"Geçersiz sıralama sütunu", "Sayfayı yenileyin", "VAL002"}},
	{tableview.ErrUnsortable, UserMessage{"Bu sütuna göre sıralanamaz", "Başka bir sütun seçin", "VAL002"}},
	{tableview.ErrInvalidPageSize, UserMessage{"Geçersiz sayfa boyutu", "Listeden bir sayfa boyutu seçin", "VAL002"}},
	{ErrUnknownListing, UserMessage{"Bilinmeyen liste", "Menüden bir liste seçin", "TBL001"}},
}

var fileCodes = map[string]struct{ code, action string }{
	bulkimport.CodeExtension: {"FILE001", "Yalnızca .json uzantılı dosyalar yüklenebilir"},
	bulkimport.CodeRead:      {"FILE002", "Dosyayı yeniden seçip tekrar deneyin"},
	bulkimport.CodeJSON:      {"FILE003", "Dosyanın geçerli bir JSON dizisi olduğundan emin olun"},
	bulkimport.CodeEmpty:     {"FILE004", "En az bir kayıt içeren bir dosya yükleyin"},
	bulkimport.CodeTooLarge:  {"FILE005", "Dosyayı daha küçük parçalara bölün"},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns are matched case-insensitively against untyped errors.
// First match wins, so specific patterns come before general ones.
var errorPatterns = []errorPattern{
	{
		pattern: "rate limit",
		msg:     msgRateLimited,
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Sunucuya ulaşılamadı",
			Action:  "Bağlantınızı kontrol edip tekrar deneyin",
			Code:    "API006",
		},
	},
	{
		pattern: "no such host",
		msg: UserMessage{
			Message: "Sunucuya ulaşılamadı",
			Action:  "Sunucu adresini kontrol edin",
			Code:    "API006",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Sunucu bağlantısı kesildi",
			Action:  "Lütfen tekrar deneyin",
			Code:    "API006",
		},
	},
	{
		pattern: "deadline exceeded",
		msg: UserMessage{
			Message: "Sunucu zamanında yanıt vermedi",
			Action:  "Birkaç dakika sonra tekrar deneyin",
			Code:    "API007",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Sunucu zamanında yanıt vermedi",
			Action:  "Birkaç dakika sonra tekrar deneyin",
			Code:    "API007",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "Beklenmeyen bir hata oluştu",
	Action:  "Tekrar deneyin veya destekle iletişime geçin",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns the zero UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
	}

	var fe *bulkimport.FileError
	if errors.As(err, &fe) {
		if fc, ok := fileCodes[fe.Code]; ok {
			return UserMessage{Message: fe.Message, Action: fc.action, Code: fc.code}
		}
	}

	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		if msg, ok := mapStatus(apiErr); ok {
			return msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

func mapStatus(e *apiclient.APIError) (UserMessage, bool) {
	switch {
	case e.Status == http.StatusUnauthorized:
		return msgSessionExpired, true
	case e.Status == http.StatusForbidden:
		return msgForbidden, true
	case e.Status == http.StatusNotFound:
		return msgNotFound, true
	case e.Status == http.StatusTooManyRequests:
		return msgRateLimited, true
	case e.Status == http.StatusBadRequest,
		e.Status == http.StatusConflict,
		e.Status == http.StatusUnprocessableEntity:
		return UserMessage{
			Message: e.Message,
			Action:  "Girilen bilgileri kontrol edip tekrar deneyin",
			Code:    "API004",
		}, true
	case e.Status >= 500:
		return msgBackendFailure, true
	}
	return UserMessage{}, false
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Kod: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Kod: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error (for logs) with its user message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
