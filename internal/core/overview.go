package core

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/PayrollDash/internal/tableview"
)

// DefaultFanout bounds per-employee requests when no limit is configured.
const DefaultFanout = 4

// OverviewFailure is an employee whose payrolls could not be loaded.
type OverviewFailure struct {
	EmployeeID   string `json:"employeeId"`
	EmployeeName string `json:"employeeName"`
	Message      string `json:"message"`
	Code         string `json:"code"`
}

// PayrollOverview is every payroll of a company in one list.
type PayrollOverview struct {
	CompanyID string            `json:"companyId"`
	Employees int               `json:"employees"`
	Rows      []map[string]any  `json:"rows"`
	Failures  []OverviewFailure `json:"failures"`
}

// CollectCompanyPayrolls lists the employees of a company and then each
// employee's payrolls, at most fanout at a time. Payroll rows are annotated
// with employee_id and employee_name and keep employee order. An employee
// whose payrolls fail is reported in Failures; only failing to list the
// employees, or ctx ending, fails the whole call.
func CollectCompanyPayrolls(ctx context.Context, b Backend, companyID string, fanout int) (*PayrollOverview, error) {
	if companyID == "" {
		return nil, ErrMissingCompany
	}
	if fanout <= 0 {
		fanout = DefaultFanout
	}

	employees, err := b.Employees(ctx, companyID)
	if err != nil {
		return nil, err
	}

	type outcome struct {
		rows []map[string]any
		err  error
	}
	results := make([]outcome, len(employees))

	var g errgroup.Group
	g.SetLimit(fanout)
	for i, emp := range employees {
		empID := employeeID(emp)
		if empID == "" {
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			rows, err := b.Payrolls(ctx, companyID, empID)
			results[i] = outcome{rows: rows, err: err}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ov := &PayrollOverview{
		CompanyID: companyID,
		Employees: len(employees),
		Rows:      []map[string]any{},
		Failures:  []OverviewFailure{},
	}
	for i, emp := range employees {
		empID, name := employeeID(emp), EmployeeName(emp)
		res := results[i]
		if res.err != nil {
			um := MapError(res.err)
			ov.Failures = append(ov.Failures, OverviewFailure{
				EmployeeID:   empID,
				EmployeeName: name,
				Message:      um.Message,
				Code:         um.Code,
			})
			continue
		}
		for _, row := range res.rows {
			if _, ok := row["employee_id"]; !ok {
				row["employee_id"] = empID
			}
			if _, ok := row["employee_name"]; !ok {
				row["employee_name"] = name
			}
			ov.Rows = append(ov.Rows, row)
		}
	}
	return ov, nil
}

// CompanyPayrollOverview collects a company's payrolls with the configured
// fan-out and logs the employees that failed.
func (s *Service) CompanyPayrollOverview(ctx context.Context, companyID string) (*PayrollOverview, error) {
	ov, err := CollectCompanyPayrolls(ctx, s.backend, companyID, s.fanout)
	if err != nil {
		return nil, err
	}
	for _, f := range ov.Failures {
		s.logger.WarnContext(ctx, "employee payrolls unavailable",
			"company_id", companyID,
			"employee_id", f.EmployeeID,
			"code", f.Code,
		)
	}
	return ov, nil
}

func employeeID(emp map[string]any) string {
	for _, k := range []string{"id", "employee_id", "uuid"} {
		if v := tableview.Stringify(emp[k]); v != "" {
			return v
		}
	}
	return ""
}

// EmployeeName is the display name of an employee row.
func EmployeeName(emp map[string]any) string {
	for _, k := range []string{"full_name", "name"} {
		if v := strings.TrimSpace(tableview.Stringify(emp[k])); v != "" {
			return v
		}
	}
	first := strings.TrimSpace(tableview.Stringify(emp["first_name"]))
	last := strings.TrimSpace(tableview.Stringify(emp["last_name"]))
	return strings.TrimSpace(first + " " + last)
}
