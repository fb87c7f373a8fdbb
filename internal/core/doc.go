// Package core is the dashboard service behind the payroll admin UI.
//
// It sits between the web layer and the payroll backend and holds no data of
// its own beyond short-lived import sessions. The backend remains the source
// of truth; every listing is fetched fresh and rendered through a
// [tableview.View].
//
// # Listings
//
// Tables are registered at init time using [Register]. Each
// [ListingDefinition] names its columns, search fields, row actions and the
// backend call that loads it:
//
//	core.Register(ListingDefinition{
//	    Info:    ListingInfo{Key: "employees", Group: "Bordro", Label: "Çalışanlar", Scope: ScopeCompany},
//	    Columns: employeeColumns,
//	    Fetch: func(ctx context.Context, b Backend, p ListingParams) ([]map[string]any, error) {
//	        return b.Employees(ctx, p.CompanyID)
//	    },
//	})
//
// [Service.Listing] fetches the rows, applies a [tableview.Query] and returns
// one page.
//
// # Bulk Import
//
//  1. [Service.StartImport] parses and validates the uploaded JSON and keeps
//     the preview in memory under a new session id.
//  2. [Service.ConfirmImport] takes an [ImportLimiter] slot and submits the
//     valid records in chunks in the background.
//  3. Progress is broadcast to [Service.SubscribeImport] listeners; the
//     outcome is available from [Service.ImportResult] and import history.
//
// Previewed sessions nobody confirms are dropped by [Service.StartSessionJanitor].
//
// # Mint Tracking
//
// Backend mint states are normalized to [MintStatus]. [Service.QueueMint] and
// [Service.RetryMint] forward to the backend; the dashboard never decides on
// its own whether a mint may be retried.
//
// # Error Handling
//
// [MapError] turns any error from this package, the API client or the import
// parser into a Turkish [UserMessage] with a support code.
package core
