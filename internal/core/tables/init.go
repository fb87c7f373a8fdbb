// Package tables registers the dashboard listings with the core registry.
// Import it for side effects:
//
//	import _ "github.com/JonMunkholm/PayrollDash/internal/core/tables"
package tables

// Each listing file registers its definitions from init().
