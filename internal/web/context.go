package web

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/PayrollDash/internal/core"
)

// WithRequestMetadata adds IP and User-Agent to context so import logs can
// name the operator's origin.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, clientIP(r))
	ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
	return ctx
}

// clientIP strips the port from RemoteAddr, which TrustedRealIP has already
// replaced with the forwarded address for trusted proxies.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// listingParams reads company, employee and status from the route, falling
// back to the query string.
func listingParams(r *http.Request) (core.ListingParams, error) {
	p := core.ListingParams{
		CompanyID:  param(r, "companyID", "company"),
		EmployeeID: param(r, "employeeID", "employee"),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		st, ok := core.ParseMintStatus(raw)
		if !ok {
			return p, core.ErrInvalidStatus
		}
		p.Status = st
	}
	return p, nil
}

func param(r *http.Request, route, query string) string {
	if v := chi.URLParam(r, route); v != "" {
		return v
	}
	return strings.TrimSpace(r.URL.Query().Get(query))
}

// payrollRef reads a payroll address from the route.
func payrollRef(r *http.Request) core.PayrollRef {
	return core.PayrollRef{
		CompanyID:  chi.URLParam(r, "companyID"),
		EmployeeID: chi.URLParam(r, "employeeID"),
		PayrollID:  chi.URLParam(r, "payrollID"),
	}
}
