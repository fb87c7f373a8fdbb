package templates

import (
	"fmt"

	"github.com/JonMunkholm/PayrollDash/internal/tableview"
)

const timeLayout = "02.01.2006 15:04"

// documentValue prints a decrypted field, falling back to fmt for values the
// table formatter leaves blank.
func documentValue(v any) string {
	s := tableview.Stringify(v)
	if s == "" && v != nil {
		s = fmt.Sprint(v)
	}
	return s
}
