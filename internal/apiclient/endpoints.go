package apiclient

import (
	"context"
	"errors"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/JonMunkholm/PayrollDash/internal/bulkimport"
)

// tokenFields are the places a login response may carry the token.
var tokenFields = []string{"token", "access_token", "data.token", "data.access_token"}

// Login authenticates and stores the returned token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	data, err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", err
	}
	for _, field := range tokenFields {
		if tok := gjson.GetBytes(data, field).String(); tok != "" {
			c.creds.SetToken(tok)
			return tok, nil
		}
	}
	return "", errors.New("login response carries no token")
}

// Logout tells the backend and always forgets the local token.
func (c *Client) Logout(ctx context.Context) error {
	defer c.creds.ClearToken()
	if c.creds.Token() == "" {
		return nil
	}
	_, err := c.do(ctx, http.MethodPost, "/auth/logout", nil)
	return err
}

func (c *Client) Companies(ctx context.Context) ([]map[string]any, error) {
	return c.getList(ctx, "/companies")
}

func (c *Client) Employees(ctx context.Context, companyID string) ([]map[string]any, error) {
	return c.getList(ctx, "/companies/"+seg(companyID)+"/employees")
}

func payrollsPath(companyID, employeeID string) string {
	return "/companies/" + seg(companyID) + "/employees/" + seg(employeeID) + "/payrolls"
}

func payrollPath(companyID, employeeID, payrollID string) string {
	return payrollsPath(companyID, employeeID) + "/" + seg(payrollID)
}

// Payrolls lists the payrolls of one employee.
func (c *Client) Payrolls(ctx context.Context, companyID, employeeID string) ([]map[string]any, error) {
	return c.getList(ctx, payrollsPath(companyID, employeeID))
}

// CreatePayroll creates a single payroll from a normalized record.
func (c *Client) CreatePayroll(ctx context.Context, companyID, employeeID string, rec bulkimport.Record) (map[string]any, error) {
	return c.object(ctx, http.MethodPost, payrollsPath(companyID, employeeID), rec)
}

// QueueMint asks the backend to mint the payroll NFT.
func (c *Client) QueueMint(ctx context.Context, companyID, employeeID, payrollID string) (map[string]any, error) {
	return c.object(ctx, http.MethodPost, payrollPath(companyID, employeeID, payrollID)+"/queue", nil)
}

// MintStatus reads the current mint state of a payroll.
func (c *Client) MintStatus(ctx context.Context, companyID, employeeID, payrollID string) (map[string]any, error) {
	return c.object(ctx, http.MethodGet, payrollPath(companyID, employeeID, payrollID)+"/status", nil)
}

// RetryMint re-queues a failed mint.
func (c *Client) RetryMint(ctx context.Context, companyID, employeeID, payrollID string) (map[string]any, error) {
	return c.object(ctx, http.MethodPost, payrollPath(companyID, employeeID, payrollID)+"/retry", nil)
}

// DecryptPayroll returns the decrypted payroll content.
func (c *Client) DecryptPayroll(ctx context.Context, companyID, employeeID, payrollID string) (map[string]any, error) {
	return c.object(ctx, http.MethodPost, payrollPath(companyID, employeeID, payrollID)+"/decrypt", nil)
}

func (c *Client) EmployeeNFTs(ctx context.Context, companyID, employeeID string) ([]map[string]any, error) {
	return c.getList(ctx, "/companies/"+seg(companyID)+"/employees/"+seg(employeeID)+"/nfts")
}

func (c *Client) CompanyNFTs(ctx context.Context, companyID string) ([]map[string]any, error) {
	return c.getList(ctx, "/companies/"+seg(companyID)+"/nfts")
}

// BulkRequest is the body of both bulk endpoints.
type BulkRequest struct {
	Items          []bulkimport.Record `json:"items"`
	PayrollGroupID *string             `json:"payroll_group_id"`
}

// BulkResponse is what a bulk endpoint reports.
type BulkResponse struct {
	Created        []any
	Failed         []any
	PayrollGroupID string
}

// BulkCreateEmployeePayrolls creates payrolls for one employee.
func (c *Client) BulkCreateEmployeePayrolls(ctx context.Context, companyID, employeeID string, items []bulkimport.Record, groupID *string) (BulkResponse, error) {
	return c.bulk(ctx, payrollsPath(companyID, employeeID)+"/bulk", items, groupID)
}

// BulkCreateCompanyPayrolls creates payrolls for a whole company; the backend
// matches records to employees by national id.
func (c *Client) BulkCreateCompanyPayrolls(ctx context.Context, companyID string, items []bulkimport.Record, groupID *string) (BulkResponse, error) {
	return c.bulk(ctx, "/companies/"+seg(companyID)+"/payrolls/bulk", items, groupID)
}

func (c *Client) bulk(ctx context.Context, path string, items []bulkimport.Record, groupID *string) (BulkResponse, error) {
	data, err := c.do(ctx, http.MethodPost, path, BulkRequest{Items: items, PayrollGroupID: groupID})
	if err != nil {
		return BulkResponse{}, err
	}
	root := gjson.ParseBytes(data)
	if d := root.Get("data"); d.IsObject() {
		root = d
	}
	return BulkResponse{
		Created:        values(root.Get("created")),
		Failed:         values(root.Get("failed")),
		PayrollGroupID: root.Get("payroll_group_id").String(),
	}, nil
}

func values(r gjson.Result) []any {
	if !r.IsArray() {
		return nil
	}
	arr := r.Array()
	out := make([]any, 0, len(arr))
	for _, el := range arr {
		out = append(out, el.Value())
	}
	return out
}

// BulkCreator is the part of Client a BulkSubmitter needs.
type BulkCreator interface {
	BulkCreateEmployeePayrolls(ctx context.Context, companyID, employeeID string, items []bulkimport.Record, groupID *string) (BulkResponse, error)
	BulkCreateCompanyPayrolls(ctx context.Context, companyID string, items []bulkimport.Record, groupID *string) (BulkResponse, error)
}

// BulkSubmitter sends import chunks to the employee endpoint when EmployeeID
// is set, otherwise to the company endpoint.
type BulkSubmitter struct {
	Client     BulkCreator
	CompanyID  string
	EmployeeID string
}

func (s BulkSubmitter) SubmitChunk(ctx context.Context, items []bulkimport.Record, batchID *string) (bulkimport.ChunkResponse, error) {
	var (
		resp BulkResponse
		err  error
	)
	if s.EmployeeID != "" {
		resp, err = s.Client.BulkCreateEmployeePayrolls(ctx, s.CompanyID, s.EmployeeID, items, batchID)
	} else {
		resp, err = s.Client.BulkCreateCompanyPayrolls(ctx, s.CompanyID, items, batchID)
	}
	if err != nil {
		return bulkimport.ChunkResponse{}, err
	}
	return bulkimport.ChunkResponse{
		Created: len(resp.Created),
		Failed:  len(resp.Failed),
		BatchID: resp.PayrollGroupID,
	}, nil
}
